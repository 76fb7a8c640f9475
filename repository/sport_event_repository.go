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

type sportEventRepository struct {
	q Queryable
}

// NewSportEventRepository creates a new sport event repository
func NewSportEventRepository(db *database.DB) interfaces.SportEventRepository {
	return &sportEventRepository{q: db.Pool}
}

// newSportEventRepositoryWithTx creates a new sport event repository with a transaction
func newSportEventRepositoryWithTx(tx Queryable) interfaces.SportEventRepository {
	return &sportEventRepository{q: tx}
}

const sportEventColumns = `uid, title, start_time, sport_id, gender_id, pool_amount, seed_pool, status, result_choice_id`

// Create stores a new event together with its choices
func (r *sportEventRepository) Create(ctx context.Context, event *entities.SportEvent) error {
	query := `
		INSERT INTO sport_events (
			uid, title, start_time, day, sport_id, gender_id, pool_amount, seed_pool, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.q.Exec(ctx, query,
		event.UID.Bytes(),
		event.Title,
		event.StartTime,
		event.Day(),
		int16(event.SportID),
		int16(event.GenderID),
		event.PoolAmount,
		event.SeedPool,
		string(event.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to create sport event: %w", err)
	}

	if len(event.Choices) == 0 {
		return nil
	}

	choiceQuery := `
		INSERT INTO event_choices (
			event_uid, choice_id, label, initial_weight, total_bets_amount, current_multiplier
		)
		VALUES
	`
	var args []any
	for i, choice := range event.Choices {
		if i > 0 {
			choiceQuery += ","
		}
		p := i * 6
		choiceQuery += fmt.Sprintf(" ($%d, $%d, $%d, $%d, $%d, $%d)", p+1, p+2, p+3, p+4, p+5, p+6)
		args = append(args,
			event.UID.Bytes(),
			int16(choice.ID),
			choice.Label,
			choice.InitialWeight,
			choice.TotalBetsAmount,
			choice.CurrentMultiplier,
		)
	}

	if _, err := r.q.Exec(ctx, choiceQuery, args...); err != nil {
		return fmt.Errorf("failed to create event choices: %w", err)
	}
	return nil
}

// GetByUID retrieves an event by uid, returning nil when it does not exist
func (r *sportEventRepository) GetByUID(ctx context.Context, uid entities.EventUID) (*entities.SportEvent, error) {
	query := `SELECT ` + sportEventColumns + ` FROM sport_events WHERE uid = $1`

	event, err := scanSportEvent(r.q.QueryRow(ctx, query, uid.Bytes()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sport event: %w", err)
	}

	if err := r.attachChoices(ctx, []*entities.SportEvent{event}); err != nil {
		return nil, err
	}
	return event, nil
}

// Update persists pool, choice totals, multipliers and status
func (r *sportEventRepository) Update(ctx context.Context, event *entities.SportEvent) error {
	var result *int16
	if event.ResultChoiceID != nil {
		v := int16(*event.ResultChoiceID)
		result = &v
	}

	query := `
		UPDATE sport_events
		SET pool_amount = $2,
			status = $3,
			result_choice_id = $4,
			finalized_at = CASE WHEN $3 = 'finalized' AND finalized_at IS NULL THEN NOW() ELSE finalized_at END
		WHERE uid = $1`

	tag, err := r.q.Exec(ctx, query, event.UID.Bytes(), event.PoolAmount, string(event.Status), result)
	if err != nil {
		return fmt.Errorf("failed to update sport event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sport event %s not found", event.UID.Hex())
	}

	for _, choice := range event.Choices {
		_, err := r.q.Exec(ctx, `
			UPDATE event_choices
			SET total_bets_amount = $3, current_multiplier = $4
			WHERE event_uid = $1 AND choice_id = $2`,
			event.UID.Bytes(), int16(choice.ID), choice.TotalBetsAmount, choice.CurrentMultiplier,
		)
		if err != nil {
			return fmt.Errorf("failed to update choice %d: %w", choice.ID, err)
		}
	}
	return nil
}

// ListByDateAndSport returns events of a day and sport in creation order
func (r *sportEventRepository) ListByDateAndSport(ctx context.Context, day int64, sportID uint8) ([]*entities.SportEvent, error) {
	query := `SELECT ` + sportEventColumns + ` FROM sport_events WHERE day = $1 AND sport_id = $2 ORDER BY seq`
	return r.list(ctx, query, day, int16(sportID))
}

// ListByDate returns events of a day in creation order
func (r *sportEventRepository) ListByDate(ctx context.Context, day int64) ([]*entities.SportEvent, error) {
	query := `SELECT ` + sportEventColumns + ` FROM sport_events WHERE day = $1 ORDER BY seq`
	return r.list(ctx, query, day)
}

func (r *sportEventRepository) list(ctx context.Context, query string, args ...any) ([]*entities.SportEvent, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sport events: %w", err)
	}
	defer rows.Close()

	events := make([]*entities.SportEvent, 0)
	for rows.Next() {
		event, err := scanSportEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sport event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sport events: %w", err)
	}
	rows.Close()

	if err := r.attachChoices(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// attachChoices loads the choices of all events in one query
func (r *sportEventRepository) attachChoices(ctx context.Context, events []*entities.SportEvent) error {
	if len(events) == 0 {
		return nil
	}
	byUID := make(map[entities.EventUID]*entities.SportEvent, len(events))
	uids := make([][]byte, 0, len(events))
	for _, e := range events {
		byUID[e.UID] = e
		uids = append(uids, e.UID.Bytes())
	}

	rows, err := r.q.Query(ctx, `
		SELECT event_uid, choice_id, label, initial_weight, total_bets_amount, current_multiplier
		FROM event_choices
		WHERE event_uid = ANY($1)
		ORDER BY event_uid, choice_id`, uids)
	if err != nil {
		return fmt.Errorf("failed to query event choices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			uid    []byte
			id     int16
			choice entities.Choice
		)
		if err := rows.Scan(&uid, &id, &choice.Label, &choice.InitialWeight, &choice.TotalBetsAmount, &choice.CurrentMultiplier); err != nil {
			return fmt.Errorf("failed to scan event choice: %w", err)
		}
		choice.ID = int(id)
		if e, ok := byUID[common.BytesToHash(uid)]; ok {
			e.Choices = append(e.Choices, choice)
		}
	}
	return rows.Err()
}

func scanSportEvent(row pgx.Row) (*entities.SportEvent, error) {
	var (
		event          entities.SportEvent
		uid            []byte
		sportID        int16
		genderID       int16
		status         string
		resultChoiceID *int16
	)
	err := row.Scan(
		&uid,
		&event.Title,
		&event.StartTime,
		&sportID,
		&genderID,
		&event.PoolAmount,
		&event.SeedPool,
		&status,
		&resultChoiceID,
	)
	if err != nil {
		return nil, err
	}

	event.UID = common.BytesToHash(uid)
	event.SportID = uint8(sportID)
	event.GenderID = uint8(genderID)
	event.Status = entities.SportEventStatus(status)
	if resultChoiceID != nil {
		v := int(*resultChoiceID)
		event.ResultChoiceID = &v
	}
	return &event, nil
}
