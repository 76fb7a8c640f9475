package infrastructure

import (
	"context"
	"sync"
	"sync/atomic"

	"betledger/application"
	"betledger/database"
	"betledger/domain/events"
	"betledger/domain/interfaces"
	"betledger/repository"
	"betledger/repository/memory"
)

// UnitOfWorkFactory implements the application.UnitOfWorkFactory interface.
// It creates units of work that handle both storage transactions and event publishing.
type UnitOfWorkFactory struct {
	repoFactory    application.RepositoryFactory
	eventPublisher interfaces.EventPublisher
	writerMu       sync.Mutex
	// numbers notifications for backends that do not reserve them in storage
	sequence atomic.Uint64
}

// NewUnitOfWorkFactory creates a factory over any repository backend
func NewUnitOfWorkFactory(repoFactory application.RepositoryFactory, eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	if eventPublisher == nil {
		eventPublisher = NewNoopEventPublisher()
	}
	return &UnitOfWorkFactory{
		repoFactory:    repoFactory,
		eventPublisher: eventPublisher,
	}
}

// NewPostgresUnitOfWorkFactory creates a factory over the Postgres repositories
func NewPostgresUnitOfWorkFactory(db *database.DB, eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	return NewUnitOfWorkFactory(repository.NewUnitOfWorkFactory(db), eventPublisher)
}

// NewMemoryUnitOfWorkFactory creates a factory over a fresh in-memory store
func NewMemoryUnitOfWorkFactory(eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	return NewUnitOfWorkFactory(memory.NewUnitOfWorkFactory(memory.NewStore()), eventPublisher)
}

// RegisterLocalHandler registers a handler that will be invoked locally for events
func (f *UnitOfWorkFactory) RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error) {
	if dispatcher, ok := f.eventPublisher.(*Dispatcher); ok {
		dispatcher.RegisterLocalHandler(eventType, handler)
	}
}

// CreateWriter creates a unit of work that excludes every other writer of this process
func (f *UnitOfWorkFactory) CreateWriter() application.UnitOfWork {
	return &unitOfWork{
		inner:                  f.repoFactory.CreateWriter(),
		transactionalPublisher: NewTransactionalPublisher(f.eventPublisher, &f.sequence),
		writerMu:               &f.writerMu,
	}
}

// CreateReader creates a read-only unit of work; readers never publish
func (f *UnitOfWorkFactory) CreateReader() application.UnitOfWork {
	return &unitOfWork{
		inner:                  f.repoFactory.CreateReader(),
		transactionalPublisher: NewTransactionalPublisher(f.eventPublisher, &f.sequence),
	}
}
