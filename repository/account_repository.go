package repository

import (
	"context"
	"errors"
	"fmt"

	"betledger/database"
	"betledger/domain/entities"
	"betledger/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

type accountRepository struct {
	q Queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) interfaces.AccountRepository {
	return &accountRepository{q: db.Pool}
}

func newAccountRepositoryWithTx(tx Queryable) interfaces.AccountRepository {
	return &accountRepository{q: tx}
}

// GetByID retrieves an account, returning nil when it has never been funded
func (r *accountRepository) GetByID(ctx context.Context, id string) (*entities.Account, error) {
	var account entities.Account
	err := r.q.QueryRow(ctx, `SELECT id, balance FROM accounts WHERE id = $1`, id).
		Scan(&account.ID, &account.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// Save upserts the account balance
func (r *accountRepository) Save(ctx context.Context, account *entities.Account) error {
	query := `
		INSERT INTO accounts (id, balance)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET balance = EXCLUDED.balance, updated_at = NOW()`

	if _, err := r.q.Exec(ctx, query, account.ID, account.Balance); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}
