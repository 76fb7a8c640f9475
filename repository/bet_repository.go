package repository

import (
	"context"
	"errors"
	"fmt"

	"betledger/database"
	"betledger/domain/entities"
	"betledger/domain/interfaces"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
)

type betRepository struct {
	q Queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) interfaces.BetRepository {
	return &betRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx Queryable) interfaces.BetRepository {
	return &betRepository{q: tx}
}

const betColumns = `id, event_uid, bettor, amount, choice_id, win_multiplier, claimed, placed_at`

// NextID returns the id the next created bet will receive. Only meaningful
// while the writer lock is held.
func (r *betRepository) NextID(ctx context.Context) (int64, error) {
	var next int64
	if err := r.q.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM bets`).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to get next bet id: %w", err)
	}
	return next, nil
}

// Create stores a bet and assigns its position in the bettor's history
func (r *betRepository) Create(ctx context.Context, bet *entities.Bet) error {
	query := `
		INSERT INTO bets (id, event_uid, bettor, user_seq, amount, choice_id, win_multiplier, claimed, placed_at, day)
		VALUES (
			$1, $2, $3,
			(SELECT COUNT(*) FROM bets WHERE bettor = $3),
			$4, $5, $6, $7, $8, $9
		)`

	_, err := r.q.Exec(ctx, query,
		bet.ID,
		bet.EventUID.Bytes(),
		bet.Bettor,
		bet.Amount,
		int16(bet.ChoiceID),
		bet.WinMultiplier,
		bet.Claimed,
		bet.PlacedAt,
		bet.Day(),
	)
	if err != nil {
		return fmt.Errorf("failed to create bet: %w", err)
	}
	return nil
}

func (r *betRepository) GetByID(ctx context.Context, id int64) (*entities.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE id = $1`

	bet, err := scanBet(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	return bet, nil
}

func (r *betRepository) MarkClaimed(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE bets SET claimed = TRUE, claimed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark bet claimed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bet %d not found", id)
	}
	return nil
}

func (r *betRepository) ListByDate(ctx context.Context, day int64) ([]*entities.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE day = $1 ORDER BY id`
	return r.list(ctx, query, day)
}

func (r *betRepository) ListByDateAndUser(ctx context.Context, day int64, bettor string) ([]*entities.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE day = $1 AND bettor = $2 ORDER BY id`
	return r.list(ctx, query, day, bettor)
}

// ListByUser reads a window of the bettor's history through the (bettor, user_seq) index
func (r *betRepository) ListByUser(ctx context.Context, bettor string, offset, limit int) ([]*entities.Bet, error) {
	if offset < 0 || limit <= 0 {
		return []*entities.Bet{}, nil
	}
	query := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE bettor = $1 AND user_seq >= $2 AND user_seq < $3
		ORDER BY user_seq`
	return r.list(ctx, query, bettor, int64(offset), int64(offset)+int64(limit))
}

func (r *betRepository) CountByUser(ctx context.Context, bettor string) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM bets WHERE bettor = $1`, bettor).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bets: %w", err)
	}
	return count, nil
}

func (r *betRepository) list(ctx context.Context, query string, args ...any) ([]*entities.Bet, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bets: %w", err)
	}
	defer rows.Close()

	bets := make([]*entities.Bet, 0)
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	return bets, rows.Err()
}

func scanBet(row pgx.Row) (*entities.Bet, error) {
	var (
		bet      entities.Bet
		uid      []byte
		choiceID int16
	)
	err := row.Scan(
		&bet.ID,
		&uid,
		&bet.Bettor,
		&bet.Amount,
		&choiceID,
		&bet.WinMultiplier,
		&bet.Claimed,
		&bet.PlacedAt,
	)
	if err != nil {
		return nil, err
	}
	bet.EventUID = common.BytesToHash(uid)
	bet.ChoiceID = int(choiceID)
	return &bet, nil
}
