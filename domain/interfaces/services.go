package interfaces

import (
	"context"
	"time"

	"betledger/domain/entities"
	"betledger/domain/events"
)

// EventPublisher defines the interface for publishing ledger notifications
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher holds events until the surrounding transaction ends
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}

// ValueTransfer moves value between bettors and the ledger escrow
type ValueTransfer interface {
	// Debit moves amount from the account into escrow
	Debit(ctx context.Context, account string, amount int64) error

	// Credit moves amount from escrow to the account
	Credit(ctx context.Context, account string, amount int64) error
}

// AccountService funds accounts and moves stakes through escrow
type AccountService interface {
	ValueTransfer

	// Deposit adds amount to an account, creating it when needed
	Deposit(ctx context.Context, account string, amount int64) (*entities.Account, error)
}

// AttestationVerifier checks the proof attached to a match result attestation
type AttestationVerifier interface {
	Verify(ctx context.Context, attestation *entities.Attestation, proof *entities.AttestationProof) (bool, error)
}

// StakingPolicy decides whether an event still accepts stakes
type StakingPolicy interface {
	CanStake(event *entities.SportEvent, now int64) error
}

// Clock supplies the ledger time used for bet placement and staking policies
type Clock interface {
	Now() time.Time
}

// EventRegistry registers sport events
type EventRegistry interface {
	// CreateSportEvent validates params, derives the uid and stores the event
	CreateSportEvent(ctx context.Context, params entities.SportEventParams) (*entities.SportEvent, error)
}

// BetLedger accepts stakes and previews their return
type BetLedger interface {
	// PlaceBet records a stake and freezes its multiplier
	PlaceBet(ctx context.Context, bettor string, uid entities.EventUID, choiceID int, amount int64) (*entities.Bet, error)

	// PreviewReturn projects the multiplier and return of a stake without placing it
	PreviewReturn(ctx context.Context, uid entities.EventUID, choiceID int, amount int64) (*entities.ReturnPreview, error)
}

// SettlementService finalizes events and pays winning bets
type SettlementService interface {
	// Finalize records the winning choice of an open event
	Finalize(ctx context.Context, uid entities.EventUID, resultChoiceID int, manual bool) (*entities.SportEvent, error)

	// ClaimWinnings pays a winning bet to its bettor exactly once
	ClaimWinnings(ctx context.Context, caller string, betID int64) (*entities.ClaimResult, error)
}

// OracleAdapter finalizes events from attestations or operator overrides
type OracleAdapter interface {
	SubmitAttestation(ctx context.Context, attestation *entities.Attestation, proof *entities.AttestationProof) (*entities.SportEvent, error)
	ManualFinalize(ctx context.Context, operator string, uid entities.EventUID, resultChoiceID int) (*entities.SportEvent, error)
	IsOperator(identity string) bool
}

// QueryService serves read-only views over events and bets
type QueryService interface {
	GetSportEvent(ctx context.Context, uid entities.EventUID) (*entities.SportEvent, error)
	GetBet(ctx context.Context, betID int64) (*entities.Bet, error)
	EventsByDateAndSport(ctx context.Context, day int64, sportID uint8) ([]*entities.SportEvent, error)
	EventsByDate(ctx context.Context, day int64) ([]*entities.SportEvent, error)
	BetsByDate(ctx context.Context, day int64) ([]*entities.Bet, error)
	BetsByDateAndUser(ctx context.Context, day int64, bettor string) ([]*entities.Bet, error)
	BetsByUserPaged(ctx context.Context, bettor string, offset, limit int) ([]*entities.Bet, error)
	BetCountByUser(ctx context.Context, bettor string) (int64, error)
	Balance(ctx context.Context, account string) (int64, error)
}
