package events

import (
	"betledger/domain/entities"
)

// EventType represents different types of ledger notifications
type EventType string

const (
	EventTypeEventCreated    EventType = "event_created"
	EventTypeBetPlaced       EventType = "bet_placed"
	EventTypeMatchFinalized  EventType = "match_finalized"
	EventTypeWinningsClaimed EventType = "winnings_claimed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	// Key groups events of one sport event for partitioned sinks
	Key() string
	Sequence() uint64
	WithSequence(seq uint64) Event
}

// EventCreated is emitted when a sport event is registered
type EventCreated struct {
	Seq       uint64            `json:"sequence"`
	UID       entities.EventUID `json:"uid"`
	Title     string            `json:"title"`
	SportID   uint8             `json:"sportId"`
	StartTime int64             `json:"startTime"`
}

func (e EventCreated) Type() EventType  { return EventTypeEventCreated }
func (e EventCreated) Key() string      { return e.UID.Hex() }
func (e EventCreated) Sequence() uint64 { return e.Seq }

func (e EventCreated) WithSequence(seq uint64) Event {
	e.Seq = seq
	return e
}

// BetPlaced is emitted when a stake is recorded
type BetPlaced struct {
	Seq      uint64            `json:"sequence"`
	BetID    int64             `json:"betId"`
	UID      entities.EventUID `json:"uid"`
	Bettor   string            `json:"bettor"`
	Amount   int64             `json:"amount"`
	ChoiceID int               `json:"choiceId"`
}

func (e BetPlaced) Type() EventType  { return EventTypeBetPlaced }
func (e BetPlaced) Key() string      { return e.UID.Hex() }
func (e BetPlaced) Sequence() uint64 { return e.Seq }

func (e BetPlaced) WithSequence(seq uint64) Event {
	e.Seq = seq
	return e
}

// MatchFinalized is emitted once per event when the winning choice is recorded
type MatchFinalized struct {
	Seq            uint64            `json:"sequence"`
	UID            entities.EventUID `json:"uid"`
	Title          string            `json:"title"`
	ResultChoiceID int               `json:"resultChoiceId"`
	ResultLabel    string            `json:"resultLabel"`
	Multiplier     int64             `json:"multiplier"`
	Manual         bool              `json:"manual"`
}

func (e MatchFinalized) Type() EventType  { return EventTypeMatchFinalized }
func (e MatchFinalized) Key() string      { return e.UID.Hex() }
func (e MatchFinalized) Sequence() uint64 { return e.Seq }

func (e MatchFinalized) WithSequence(seq uint64) Event {
	e.Seq = seq
	return e
}

// WinningsClaimed is emitted when a winning bet is paid out
type WinningsClaimed struct {
	Seq    uint64            `json:"sequence"`
	BetID  int64             `json:"betId"`
	UID    entities.EventUID `json:"uid"`
	Bettor string            `json:"bettor"`
	Payout int64             `json:"payout"`
}

func (e WinningsClaimed) Type() EventType  { return EventTypeWinningsClaimed }
func (e WinningsClaimed) Key() string      { return e.UID.Hex() }
func (e WinningsClaimed) Sequence() uint64 { return e.Seq }

func (e WinningsClaimed) WithSequence(seq uint64) Event {
	e.Seq = seq
	return e
}
