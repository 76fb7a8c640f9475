package repository

import (
	"context"
	"fmt"

	"betledger/database"
)

// CurrentSequence returns the sequence of the last committed notification
func CurrentSequence(ctx context.Context, db *database.DB) (uint64, error) {
	var value int64
	if err := db.QueryRow(ctx, `SELECT value FROM ledger_sequence`).Scan(&value); err != nil {
		return 0, fmt.Errorf("failed to read ledger sequence: %w", err)
	}
	return uint64(value), nil
}

// ReserveSequence claims n consecutive notification sequence numbers and
// returns the one preceding the first. The row update is serialized by the
// writer lock and rolls back with the transaction.
func (u *unitOfWork) ReserveSequence(ctx context.Context, n int) (uint64, error) {
	if u.tx == nil {
		return 0, fmt.Errorf("no transaction to reserve sequence in")
	}
	if u.readOnly {
		return 0, fmt.Errorf("read-only unit of work cannot reserve sequence numbers")
	}

	var last int64
	err := u.tx.QueryRow(ctx,
		`UPDATE ledger_sequence SET value = value + $1 RETURNING value - $1`,
		int64(n),
	).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to reserve %d sequence numbers: %w", n, err)
	}
	return uint64(last), nil
}
