package memory

import (
	"context"
	"fmt"

	"betledger/domain/entities"
	"betledger/domain/interfaces"
)

type sportEventRepository struct {
	store    *Store
	journal  *journal
	readOnly bool
}

func newSportEventRepository(store *Store, j *journal, readOnly bool) interfaces.SportEventRepository {
	return &sportEventRepository{store: store, journal: j, readOnly: readOnly}
}

// Create stores a new event with its choices and indexes it by day and sport
func (r *sportEventRepository) Create(ctx context.Context, event *entities.SportEvent) error {
	if r.readOnly {
		return errReadOnly
	}
	s, uid := r.store, event.UID
	if _, exists := s.events[uid]; exists {
		return fmt.Errorf("sport event %s already exists", uid.Hex())
	}

	s.events[uid] = event.Clone()
	r.journal.record(func() { delete(s.events, uid) })

	day := event.Day()
	appendIndex(r.journal, s.eventsByDay, day, uid)
	appendIndex(r.journal, s.eventsByDaySport, daySport{day: day, sport: event.SportID}, uid)
	return nil
}

// GetByUID retrieves an event by uid, returning nil when it does not exist
func (r *sportEventRepository) GetByUID(ctx context.Context, uid entities.EventUID) (*entities.SportEvent, error) {
	return r.store.events[uid].Clone(), nil
}

// Update persists pool, choice totals, multipliers and status
func (r *sportEventRepository) Update(ctx context.Context, event *entities.SportEvent) error {
	if r.readOnly {
		return errReadOnly
	}
	s, uid := r.store, event.UID
	prev, exists := s.events[uid]
	if !exists {
		return fmt.Errorf("sport event %s not found", uid.Hex())
	}

	s.events[uid] = event.Clone()
	r.journal.record(func() { s.events[uid] = prev })
	return nil
}

// ListByDateAndSport returns events of a day and sport in creation order
func (r *sportEventRepository) ListByDateAndSport(ctx context.Context, day int64, sportID uint8) ([]*entities.SportEvent, error) {
	return r.resolve(r.store.eventsByDaySport[daySport{day: day, sport: sportID}]), nil
}

// ListByDate returns events of a day in creation order
func (r *sportEventRepository) ListByDate(ctx context.Context, day int64) ([]*entities.SportEvent, error) {
	return r.resolve(r.store.eventsByDay[day]), nil
}

func (r *sportEventRepository) resolve(uids []entities.EventUID) []*entities.SportEvent {
	out := make([]*entities.SportEvent, 0, len(uids))
	for _, uid := range uids {
		out = append(out, r.store.events[uid].Clone())
	}
	return out
}
