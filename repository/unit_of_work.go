package repository

import (
	"context"
	"errors"
	"fmt"

	"betledger/application"
	"betledger/database"
	"betledger/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// writerLockKey is the advisory lock serializing ledger mutations across processes
const writerLockKey int64 = 0x6265746c6564

// unitOfWork implements the RepositoryUnitOfWork interface over one pgx transaction
type unitOfWork struct {
	db       *database.DB
	tx       pgx.Tx
	ctx      context.Context
	readOnly bool

	sportEventRepo interfaces.SportEventRepository
	betRepo        interfaces.BetRepository
	accountRepo    interfaces.AccountRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{
		db: db,
	}
}

type unitOfWorkFactory struct {
	db *database.DB
}

// CreateWriter creates a unit of work that takes the ledger writer lock on Begin
func (f *unitOfWorkFactory) CreateWriter() application.RepositoryUnitOfWork {
	return &unitOfWork{db: f.db}
}

// CreateReader creates a read-only unit of work over a repeatable-read snapshot
func (f *unitOfWorkFactory) CreateReader() application.RepositoryUnitOfWork {
	return &unitOfWork{db: f.db, readOnly: true}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	opts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	if u.readOnly {
		opts = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	}

	tx, err := u.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if !u.readOnly {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, writerLockKey); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to acquire writer lock: %w", err)
		}
	}

	u.tx = tx
	u.ctx = ctx

	u.sportEventRepo = newSportEventRepositoryWithTx(tx)
	u.betRepo = newBetRepositoryWithTx(tx)
	u.accountRepo = newAccountRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	u.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// SportEventRepository returns the sport event repository for this unit of work
func (u *unitOfWork) SportEventRepository() interfaces.SportEventRepository {
	if u.sportEventRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.sportEventRepo
}

// BetRepository returns the bet repository for this unit of work
func (u *unitOfWork) BetRepository() interfaces.BetRepository {
	if u.betRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.betRepo
}

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}
