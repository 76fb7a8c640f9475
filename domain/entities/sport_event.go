package entities

import (
	"github.com/ethereum/go-ethereum/common"
)

// EventUID is the deterministic 32-byte identifier of a sport event
type EventUID = common.Hash

// SecondsPerDay is the width of a day bucket used by the date indices
const SecondsPerDay int64 = 86400

// MinChoices and MaxChoices bound the number of outcomes of an event
const (
	MinChoices = 2
	MaxChoices = 3
)

// SportEventStatus represents the lifecycle state of a sport event
type SportEventStatus string

const (
	SportEventStatusOpen      SportEventStatus = "open"
	SportEventStatusFinalized SportEventStatus = "finalized"
)

// SportEvent represents a match that accepts stakes on a fixed set of choices
type SportEvent struct {
	UID            EventUID         `db:"uid"`
	Title          string           `db:"title"`
	StartTime      int64            `db:"start_time"`
	SportID        uint8            `db:"sport_id"`
	GenderID       uint8            `db:"gender_id"`
	PoolAmount     int64            `db:"pool_amount"`
	SeedPool       int64            `db:"seed_pool"`
	Choices        []Choice         `db:"-"`
	Status         SportEventStatus `db:"status"`
	ResultChoiceID *int             `db:"result_choice_id"`
}

// Choice is one possible outcome of a sport event
type Choice struct {
	ID                int    `db:"choice_id"`
	Label             string `db:"label"`
	InitialWeight     int64  `db:"initial_weight"`
	TotalBetsAmount   int64  `db:"total_bets_amount"`
	CurrentMultiplier int64  `db:"current_multiplier"`
}

// DayOf returns the start of the UTC day containing ts, in epoch seconds
func DayOf(ts int64) int64 {
	day := ts - ts%SecondsPerDay
	if ts%SecondsPerDay < 0 {
		day -= SecondsPerDay
	}
	return day
}

// Day returns the day bucket of the event start time
func (e *SportEvent) Day() int64 {
	return DayOf(e.StartTime)
}

// IsOpen checks if the event still accepts stakes and finalization
func (e *SportEvent) IsOpen() bool {
	return e.Status == SportEventStatusOpen
}

// IsFinalized checks if the winning choice has been recorded
func (e *SportEvent) IsFinalized() bool {
	return e.Status == SportEventStatusFinalized
}

// HasChoice checks if choiceID addresses one of the event choices
func (e *SportEvent) HasChoice(choiceID int) bool {
	return choiceID >= 0 && choiceID < len(e.Choices)
}

// Weights returns the per-choice stake totals in choice order
func (e *SportEvent) Weights() []int64 {
	weights := make([]int64, len(e.Choices))
	for i, c := range e.Choices {
		weights[i] = c.TotalBetsAmount
	}
	return weights
}

// StakedAmount returns the value staked by bettors, excluding seed weights
func (e *SportEvent) StakedAmount() int64 {
	return e.PoolAmount - e.SeedPool
}

// Finalize records the winning choice. Callers validate state first.
func (e *SportEvent) Finalize(resultChoiceID int) {
	if e.Status != SportEventStatusOpen {
		return
	}
	e.Status = SportEventStatusFinalized
	result := resultChoiceID
	e.ResultChoiceID = &result
}

// Clone returns a deep copy so callers can mutate without aliasing stored state
func (e *SportEvent) Clone() *SportEvent {
	if e == nil {
		return nil
	}
	c := *e
	c.Choices = append([]Choice(nil), e.Choices...)
	if e.ResultChoiceID != nil {
		result := *e.ResultChoiceID
		c.ResultChoiceID = &result
	}
	return &c
}

// SportEventParams are the inputs of event registration
type SportEventParams struct {
	Title          string
	StartTime      int64
	SportID        uint8
	GenderID       uint8
	ChoiceLabels   []string
	InitialWeights []int64
	SeedPool       int64
}
