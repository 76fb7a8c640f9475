// Package memory keeps the whole ledger in process memory.
//
// A Store is guarded by one RWMutex: a writer unit of work holds the write lock
// from Begin until Commit or Rollback, readers hold the read lock, so every
// reader observes the state as of the last committed mutation. Writers apply
// changes in place and journal an undo step for each one; Rollback replays the
// journal backwards.
package memory

import (
	"sync"

	"betledger/domain/entities"
)

type daySport struct {
	day   int64
	sport uint8
}

type dayBettor struct {
	day    int64
	bettor string
}

// Store is the in-memory ledger state
type Store struct {
	mu sync.RWMutex

	events           map[entities.EventUID]*entities.SportEvent
	eventsByDay      map[int64][]entities.EventUID
	eventsByDaySport map[daySport][]entities.EventUID

	// bets[i] holds bet id i+1
	bets          []*entities.Bet
	betsByDay     map[int64][]int64
	betsByDayUser map[dayBettor][]int64
	betsByUser    map[string][]int64

	accounts map[string]int64

	// last notification sequence handed out
	sequence uint64
}

// NewStore creates an empty ledger
func NewStore() *Store {
	return &Store{
		events:           make(map[entities.EventUID]*entities.SportEvent),
		eventsByDay:      make(map[int64][]entities.EventUID),
		eventsByDaySport: make(map[daySport][]entities.EventUID),
		betsByDay:        make(map[int64][]int64),
		betsByDayUser:    make(map[dayBettor][]int64),
		betsByUser:       make(map[string][]int64),
		accounts:         make(map[string]int64),
	}
}

type journal struct {
	undo []func()
}

func (j *journal) record(fn func()) {
	if j != nil {
		j.undo = append(j.undo, fn)
	}
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// appendIndex appends v to m[k] and journals the truncation that reverts it
func appendIndex[K comparable, V any](j *journal, m map[K][]V, k K, v V) {
	prev := len(m[k])
	m[k] = append(m[k], v)
	j.record(func() {
		if prev == 0 {
			delete(m, k)
			return
		}
		m[k] = m[k][:prev]
	})
}
