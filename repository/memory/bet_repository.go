package memory

import (
	"context"
	"fmt"

	"betledger/domain/entities"
	"betledger/domain/interfaces"
)

type betRepository struct {
	store    *Store
	journal  *journal
	readOnly bool
}

func newBetRepository(store *Store, j *journal, readOnly bool) interfaces.BetRepository {
	return &betRepository{store: store, journal: j, readOnly: readOnly}
}

// NextID returns the id the next created bet will receive
func (r *betRepository) NextID(ctx context.Context) (int64, error) {
	return int64(len(r.store.bets)) + 1, nil
}

// Create stores a new bet and appends it to the day, day-bettor and bettor indices
func (r *betRepository) Create(ctx context.Context, bet *entities.Bet) error {
	if r.readOnly {
		return errReadOnly
	}
	s := r.store
	if want := int64(len(s.bets)) + 1; bet.ID != want {
		return fmt.Errorf("bet id %d out of sequence, expected %d", bet.ID, want)
	}

	s.bets = append(s.bets, bet.Clone())
	r.journal.record(func() { s.bets = s.bets[:len(s.bets)-1] })

	day := bet.Day()
	appendIndex(r.journal, s.betsByDay, day, bet.ID)
	appendIndex(r.journal, s.betsByDayUser, dayBettor{day: day, bettor: bet.Bettor}, bet.ID)
	appendIndex(r.journal, s.betsByUser, bet.Bettor, bet.ID)
	return nil
}

// GetByID retrieves a bet by its ID, returning nil when it does not exist
func (r *betRepository) GetByID(ctx context.Context, id int64) (*entities.Bet, error) {
	if id < 1 || id > int64(len(r.store.bets)) {
		return nil, nil
	}
	return r.store.bets[id-1].Clone(), nil
}

// MarkClaimed sets the claimed flag of a bet
func (r *betRepository) MarkClaimed(ctx context.Context, id int64) error {
	if r.readOnly {
		return errReadOnly
	}
	if id < 1 || id > int64(len(r.store.bets)) {
		return fmt.Errorf("bet %d not found", id)
	}

	bet := r.store.bets[id-1]
	prev := bet.Claimed
	bet.Claimed = true
	r.journal.record(func() { bet.Claimed = prev })
	return nil
}

// ListByDate returns bets placed on a day in placement order
func (r *betRepository) ListByDate(ctx context.Context, day int64) ([]*entities.Bet, error) {
	return r.resolve(r.store.betsByDay[day]), nil
}

// ListByDateAndUser returns bets placed by a bettor on a day in placement order
func (r *betRepository) ListByDateAndUser(ctx context.Context, day int64, bettor string) ([]*entities.Bet, error) {
	return r.resolve(r.store.betsByDayUser[dayBettor{day: day, bettor: bettor}]), nil
}

// ListByUser slices the bettor index directly, so any offset costs the same
func (r *betRepository) ListByUser(ctx context.Context, bettor string, offset, limit int) ([]*entities.Bet, error) {
	ids := r.store.betsByUser[bettor]
	if offset < 0 || limit <= 0 || offset >= len(ids) {
		return []*entities.Bet{}, nil
	}
	end := len(ids)
	if limit < end-offset {
		end = offset + limit
	}
	return r.resolve(ids[offset:end]), nil
}

// CountByUser returns how many bets a bettor has placed
func (r *betRepository) CountByUser(ctx context.Context, bettor string) (int64, error) {
	return int64(len(r.store.betsByUser[bettor])), nil
}

func (r *betRepository) resolve(ids []int64) []*entities.Bet {
	out := make([]*entities.Bet, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.store.bets[id-1].Clone())
	}
	return out
}
