package memory

import (
	"context"
	"errors"
	"fmt"

	"betledger/application"
	"betledger/domain/interfaces"
)

var errReadOnly = errors.New("read-only unit of work")

// UnitOfWork scopes repositories to one locked view of a Store
type UnitOfWork struct {
	store    *Store
	readOnly bool
	active   bool
	journal  *journal

	sportEventRepo interfaces.SportEventRepository
	betRepo        interfaces.BetRepository
	accountRepo    interfaces.AccountRepository
}

// UnitOfWorkFactory creates units of work over one Store
type UnitOfWorkFactory struct {
	store *Store
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

// CreateWriter creates a unit of work that holds the store exclusively
func (f *UnitOfWorkFactory) CreateWriter() application.RepositoryUnitOfWork {
	return &UnitOfWork{store: f.store}
}

// CreateReader creates a unit of work that shares the store with other readers
func (f *UnitOfWorkFactory) CreateReader() application.RepositoryUnitOfWork {
	return &UnitOfWork{store: f.store, readOnly: true}
}

// Begin takes the store lock and binds the repositories
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.active {
		return fmt.Errorf("transaction already started")
	}

	if u.readOnly {
		u.store.mu.RLock()
	} else {
		u.store.mu.Lock()
		u.journal = &journal{}
	}
	u.active = true

	u.sportEventRepo = newSportEventRepository(u.store, u.journal, u.readOnly)
	u.betRepo = newBetRepository(u.store, u.journal, u.readOnly)
	u.accountRepo = newAccountRepository(u.store, u.journal, u.readOnly)
	return nil
}

// Commit keeps the applied changes and releases the lock
func (u *UnitOfWork) Commit() error {
	if !u.active {
		return fmt.Errorf("no transaction to commit")
	}
	u.journal = nil
	u.release()
	return nil
}

// Rollback undoes every change made since Begin and releases the lock
func (u *UnitOfWork) Rollback() error {
	if !u.active {
		return nil // Nothing to rollback
	}
	if u.journal != nil {
		u.journal.rollback()
		u.journal = nil
	}
	u.release()
	return nil
}

// ReserveSequence claims n notification sequence numbers; Rollback returns them
func (u *UnitOfWork) ReserveSequence(ctx context.Context, n int) (uint64, error) {
	if !u.active {
		return 0, fmt.Errorf("no transaction to reserve sequence in")
	}
	if u.readOnly {
		return 0, errReadOnly
	}
	last := u.store.sequence
	u.store.sequence += uint64(n)
	u.journal.record(func() { u.store.sequence = last })
	return last, nil
}

func (u *UnitOfWork) release() {
	u.active = false
	if u.readOnly {
		u.store.mu.RUnlock()
	} else {
		u.store.mu.Unlock()
	}
}

// SportEventRepository returns the sport event repository for this unit of work
func (u *UnitOfWork) SportEventRepository() interfaces.SportEventRepository {
	if u.sportEventRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.sportEventRepo
}

// BetRepository returns the bet repository for this unit of work
func (u *UnitOfWork) BetRepository() interfaces.BetRepository {
	if u.betRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.betRepo
}

// AccountRepository returns the account repository for this unit of work
func (u *UnitOfWork) AccountRepository() interfaces.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}
