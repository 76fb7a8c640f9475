package application

import (
	"context"

	"betledger/domain/interfaces"
)

// RepositoryUnitOfWork is a storage transaction scoping the ledger repositories
type RepositoryUnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	SportEventRepository() interfaces.SportEventRepository
	BetRepository() interfaces.BetRepository
	AccountRepository() interfaces.AccountRepository
}

// SequenceReserver is implemented by storage transactions that number
// notifications together with the state they describe, so writers in
// different processes never hand out the same sequence
type SequenceReserver interface {
	// ReserveSequence claims n consecutive sequence numbers and returns the
	// one preceding the first
	ReserveSequence(ctx context.Context, n int) (uint64, error)
}

// UnitOfWork is a storage transaction that also collects notifications,
// publishing them only after a successful commit
type UnitOfWork interface {
	RepositoryUnitOfWork
	EventBus() interfaces.EventPublisher
}

// RepositoryFactory creates storage transactions for one backend
type RepositoryFactory interface {
	// CreateWriter creates a transaction that excludes every other writer
	CreateWriter() RepositoryUnitOfWork

	// CreateReader creates a read-only transaction over a consistent snapshot
	CreateReader() RepositoryUnitOfWork
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	CreateWriter() UnitOfWork
	CreateReader() UnitOfWork
}
