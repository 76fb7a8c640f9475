package interfaces

import (
	"context"

	"betledger/domain/entities"
)

// SportEventRepository defines the interface for sport event data access
type SportEventRepository interface {
	// Create stores a new event with its choices and indexes it by day and sport
	Create(ctx context.Context, event *entities.SportEvent) error

	// GetByUID retrieves an event by uid, returning nil when it does not exist
	GetByUID(ctx context.Context, uid entities.EventUID) (*entities.SportEvent, error)

	// Update persists pool, choice totals, multipliers and status
	Update(ctx context.Context, event *entities.SportEvent) error

	// ListByDateAndSport returns events of a day and sport in creation order
	ListByDateAndSport(ctx context.Context, day int64, sportID uint8) ([]*entities.SportEvent, error)

	// ListByDate returns events of a day in creation order
	ListByDate(ctx context.Context, day int64) ([]*entities.SportEvent, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// NextID returns the id the next created bet will receive
	NextID(ctx context.Context) (int64, error)

	// Create stores a new bet; bet.ID must come from NextID
	Create(ctx context.Context, bet *entities.Bet) error

	// GetByID retrieves a bet by its ID, returning nil when it does not exist
	GetByID(ctx context.Context, id int64) (*entities.Bet, error)

	// MarkClaimed sets the claimed flag of a bet
	MarkClaimed(ctx context.Context, id int64) error

	// ListByDate returns bets placed on a day in placement order
	ListByDate(ctx context.Context, day int64) ([]*entities.Bet, error)

	// ListByDateAndUser returns bets placed by a bettor on a day in placement order
	ListByDateAndUser(ctx context.Context, day int64, bettor string) ([]*entities.Bet, error)

	// ListByUser returns a slice of a bettor's bets in placement order
	ListByUser(ctx context.Context, bettor string, offset, limit int) ([]*entities.Bet, error)

	// CountByUser returns how many bets a bettor has placed
	CountByUser(ctx context.Context, bettor string) (int64, error)
}

// AccountRepository defines the interface for ledger account balances
type AccountRepository interface {
	// GetByID retrieves an account, returning nil when it has never been funded
	GetByID(ctx context.Context, id string) (*entities.Account, error)

	// Save creates or overwrites the account balance
	Save(ctx context.Context, account *entities.Account) error
}
