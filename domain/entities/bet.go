package entities

// Bet represents a stake placed by a bettor on one choice of a sport event
type Bet struct {
	ID            int64    `db:"id"`
	EventUID      EventUID `db:"event_uid"`
	Bettor        string   `db:"bettor"`
	Amount        int64    `db:"amount"`
	ChoiceID      int      `db:"choice_id"`
	WinMultiplier int64    `db:"win_multiplier"`
	Claimed       bool     `db:"claimed"`
	PlacedAt      int64    `db:"placed_at"`
}

// Day returns the day bucket the bet was placed in
func (b *Bet) Day() int64 {
	return DayOf(b.PlacedAt)
}

// IsOwnedBy checks if the bet belongs to the given bettor
func (b *Bet) IsOwnedBy(bettor string) bool {
	return b.Bettor == bettor
}

// Clone returns a copy of the bet
func (b *Bet) Clone() *Bet {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// ClaimResult describes a successful claim
type ClaimResult struct {
	Bet    *Bet
	Payout int64
}

// ReturnPreview is the projected outcome of a stake that has not been placed
type ReturnPreview struct {
	EventUID   EventUID
	ChoiceID   int
	Amount     int64
	Multiplier int64
	Return     int64
}

// BetPage is a slice of a bettor's bets together with their total, read from one snapshot
type BetPage struct {
	Bets   []*Bet
	Total  int64
	Offset int
}
