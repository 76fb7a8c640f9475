package infrastructure

import (
	"context"
	"sync"

	"betledger/application"
	"betledger/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// unitOfWork wraps the repository unit of work, adds event publishing on commit
// and, for writers, holds the in-process sequencer lock until events are flushed
type unitOfWork struct {
	inner                  application.RepositoryUnitOfWork
	transactionalPublisher *TransactionalPublisher
	writerMu               *sync.Mutex
	locked                 bool
	ctx                    context.Context
}

// Begin takes the sequencer lock (writers only) and starts the storage transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.writerMu != nil && !u.locked {
		u.writerMu.Lock()
		u.locked = true
	}
	u.ctx = ctx
	if err := u.inner.Begin(ctx); err != nil {
		u.unlock()
		return err
	}
	return nil
}

// Commit commits the transaction and flushes events on success
func (u *unitOfWork) Commit() error {
	defer u.unlock()

	if reserver, ok := u.inner.(application.SequenceReserver); ok && u.transactionalPublisher.Pending() > 0 {
		last, err := reserver.ReserveSequence(u.ctx, u.transactionalPublisher.Pending())
		if err != nil {
			u.transactionalPublisher.Discard()
			if rbErr := u.inner.Rollback(); rbErr != nil {
				log.WithError(rbErr).Error("Failed to roll back after sequence reservation error")
			}
			return err
		}
		u.transactionalPublisher.StartAfter(last)
	}

	if err := u.inner.Commit(); err != nil {
		u.transactionalPublisher.Discard()
		return err
	}

	// Flushing under the sequencer lock keeps notification order equal to commit order.
	// Errors are not returned; the mutation is already durable.
	_ = u.transactionalPublisher.Flush(u.ctx)
	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	defer u.unlock()

	u.transactionalPublisher.Discard()
	return u.inner.Rollback()
}

func (u *unitOfWork) unlock() {
	if u.locked {
		u.locked = false
		u.writerMu.Unlock()
	}
}

// Repository getters - delegate to inner unit of work
func (u *unitOfWork) SportEventRepository() interfaces.SportEventRepository {
	return u.inner.SportEventRepository()
}

func (u *unitOfWork) BetRepository() interfaces.BetRepository {
	return u.inner.BetRepository()
}

func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	return u.inner.AccountRepository()
}

// EventBus returns the transactional event publisher
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	return u.transactionalPublisher
}
