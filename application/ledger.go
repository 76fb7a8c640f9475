package application

import (
	"context"
	"fmt"

	"betledger/config"
	"betledger/domain/entities"
	"betledger/domain/interfaces"
	"betledger/domain/ledgererr"
	"betledger/domain/services"
	"betledger/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// Operation names used for metrics and logs
const (
	OpCreateSportEvent  = "create_sport_event"
	OpPlaceBet          = "place_bet"
	OpSubmitAttestation = "submit_attestation"
	OpManualFinalize    = "manual_finalize"
	OpClaimWinnings     = "claim_winnings"
	OpDeposit           = "deposit"
)

// reasonStorage labels failures that did not come from the ledger rules
const reasonStorage = "Storage"

// MetricsRecorder receives ledger business metrics
type MetricsRecorder interface {
	RecordEventCreated()
	RecordBetPlaced(amount int64)
	RecordMatchFinalized(source string)
	RecordClaimPaid(payout int64)
	RecordMutationFailed(operation, reason string)
	MeasureMutation(operation string) func()
}

// Ledger is the single entry point to the betting ledger. Every mutation runs
// in its own writer unit of work; every query runs in a reader unit of work.
type Ledger struct {
	uowFactory UnitOfWorkFactory
	policy     interfaces.StakingPolicy
	clock      interfaces.Clock
	verifier   interfaces.AttestationVerifier
	metrics    MetricsRecorder
	config     *config.Config
}

// NewLedger creates the ledger facade. A nil verifier rejects every attestation;
// nil metrics disables recording.
func NewLedger(
	uowFactory UnitOfWorkFactory,
	policy interfaces.StakingPolicy,
	clock interfaces.Clock,
	verifier interfaces.AttestationVerifier,
	metrics MetricsRecorder,
) *Ledger {
	if policy == nil {
		policy = services.UntilFinalized{}
	}
	if clock == nil {
		clock = services.SystemClock{}
	}
	if metrics == nil {
		metrics = observability.NewMetricsProvider(false)
	}
	return &Ledger{
		uowFactory: uowFactory,
		policy:     policy,
		clock:      clock,
		verifier:   verifier,
		metrics:    metrics,
		config:     config.Get(),
	}
}

// ledgerServices are the domain services bound to one unit of work
type ledgerServices struct {
	registry   interfaces.EventRegistry
	bets       interfaces.BetLedger
	settlement interfaces.SettlementService
	oracle     interfaces.OracleAdapter
	accounts   interfaces.AccountService
	query      interfaces.QueryService
}

func (l *Ledger) bind(uow UnitOfWork) *ledgerServices {
	eventRepo := uow.SportEventRepository()
	betRepo := uow.BetRepository()
	accountRepo := uow.AccountRepository()
	bus := uow.EventBus()

	accounts := services.NewEscrowService(accountRepo)
	settlement := services.NewSettlementService(eventRepo, betRepo, accounts, bus)
	return &ledgerServices{
		registry:   services.NewEventRegistry(eventRepo, bus),
		bets:       services.NewBetLedger(eventRepo, betRepo, accounts, l.policy, l.clock, bus),
		settlement: settlement,
		oracle:     services.NewOracleAdapter(eventRepo, settlement, l.verifier),
		accounts:   accounts,
		query:      services.NewQueryService(eventRepo, betRepo, accountRepo),
	}
}

// mutate runs fn in a writer unit of work. The caller's cancellation is not
// propagated: once a mutation starts it runs to commit or rollback.
func (l *Ledger) mutate(ctx context.Context, operation string, fn func(ctx context.Context, svc *ledgerServices) error) error {
	defer l.metrics.MeasureMutation(operation)()
	ctx = context.WithoutCancel(ctx)

	uow := l.uowFactory.CreateWriter()
	if err := uow.Begin(ctx); err != nil {
		l.metrics.RecordMutationFailed(operation, reasonStorage)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := recover(); err != nil {
			uow.Rollback()
			panic(err)
		}
	}()

	if err := fn(ctx, l.bind(uow)); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			log.WithError(rbErr).WithField("operation", operation).Error("Failed to roll back mutation")
		}
		l.metrics.RecordMutationFailed(operation, failureReason(err))
		return err
	}

	if err := uow.Commit(); err != nil {
		l.metrics.RecordMutationFailed(operation, reasonStorage)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// query runs fn in a reader unit of work over one consistent snapshot
func (l *Ledger) query(ctx context.Context, fn func(svc *ledgerServices) error) error {
	uow := l.uowFactory.CreateReader()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer uow.Rollback()

	return fn(l.bind(uow))
}

func failureReason(err error) string {
	if reason := ledgererr.ReasonOf(err); reason != "" {
		return string(reason)
	}
	return reasonStorage
}

// CreateSportEvent registers a new event and returns it with its derived uid
func (l *Ledger) CreateSportEvent(ctx context.Context, params entities.SportEventParams) (*entities.SportEvent, error) {
	var event *entities.SportEvent
	err := l.mutate(ctx, OpCreateSportEvent, func(ctx context.Context, svc *ledgerServices) error {
		var err error
		event, err = svc.registry.CreateSportEvent(ctx, params)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.metrics.RecordEventCreated()
	return event, nil
}

// PlaceBet stakes amount of bettor on a choice of the event
func (l *Ledger) PlaceBet(ctx context.Context, bettor string, uid entities.EventUID, choiceID int, amount int64) (*entities.Bet, error) {
	var bet *entities.Bet
	err := l.mutate(ctx, OpPlaceBet, func(ctx context.Context, svc *ledgerServices) error {
		var err error
		bet, err = svc.bets.PlaceBet(ctx, bettor, uid, choiceID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.metrics.RecordBetPlaced(bet.Amount)
	return bet, nil
}

// PreviewReturn projects the multiplier a stake placed now would freeze
func (l *Ledger) PreviewReturn(ctx context.Context, uid entities.EventUID, choiceID int, amount int64) (*entities.ReturnPreview, error) {
	var preview *entities.ReturnPreview
	err := l.query(ctx, func(svc *ledgerServices) error {
		var err error
		preview, err = svc.bets.PreviewReturn(ctx, uid, choiceID, amount)
		return err
	})
	return preview, err
}

// SubmitAttestation finalizes an event from a verified result attestation
func (l *Ledger) SubmitAttestation(ctx context.Context, attestation *entities.Attestation, proof *entities.AttestationProof) (*entities.SportEvent, error) {
	if l.verifier == nil {
		l.metrics.RecordMutationFailed(OpSubmitAttestation, string(ledgererr.ReasonInvalidProof))
		return nil, ledgererr.New(ledgererr.ReasonInvalidProof, "no attestation verifier configured")
	}
	if attestation == nil {
		return nil, ledgererr.New(ledgererr.ReasonMismatchedEvent, "attestation is required")
	}
	if proof == nil {
		proof = &entities.AttestationProof{}
	}

	var event *entities.SportEvent
	err := l.mutate(ctx, OpSubmitAttestation, func(ctx context.Context, svc *ledgerServices) error {
		var err error
		event, err = svc.oracle.SubmitAttestation(ctx, attestation, proof)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.metrics.RecordMatchFinalized(observability.SourceAttested)
	return event, nil
}

// ManualFinalize records a result on behalf of an operator, without a proof
func (l *Ledger) ManualFinalize(ctx context.Context, operator string, uid entities.EventUID, resultChoiceID int) (*entities.SportEvent, error) {
	var event *entities.SportEvent
	err := l.mutate(ctx, OpManualFinalize, func(ctx context.Context, svc *ledgerServices) error {
		var err error
		event, err = svc.oracle.ManualFinalize(ctx, operator, uid, resultChoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.metrics.RecordMatchFinalized(observability.SourceManual)
	return event, nil
}

// ClaimWinnings pays out a winning bet to its bettor
func (l *Ledger) ClaimWinnings(ctx context.Context, caller string, betID int64) (*entities.ClaimResult, error) {
	var result *entities.ClaimResult
	err := l.mutate(ctx, OpClaimWinnings, func(ctx context.Context, svc *ledgerServices) error {
		var err error
		result, err = svc.settlement.ClaimWinnings(ctx, caller, betID)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.metrics.RecordClaimPaid(result.Payout)
	return result, nil
}

// Deposit funds an account. Only operators may deposit.
func (l *Ledger) Deposit(ctx context.Context, operator, account string, amount int64) (*entities.Account, error) {
	if !l.IsOperator(operator) {
		l.metrics.RecordMutationFailed(OpDeposit, string(ledgererr.ReasonUnauthorized))
		return nil, ledgererr.New(ledgererr.ReasonUnauthorized, "%q may not fund accounts", operator)
	}

	var acc *entities.Account
	err := l.mutate(ctx, OpDeposit, func(ctx context.Context, svc *ledgerServices) error {
		var err error
		acc, err = svc.accounts.Deposit(ctx, account, amount)
		return err
	})
	return acc, err
}

// IsOperator checks if identity may run privileged operations
func (l *Ledger) IsOperator(identity string) bool {
	return l.config.IsOperator(identity)
}

// Balance returns the balance of an account, zero when it does not exist
func (l *Ledger) Balance(ctx context.Context, account string) (int64, error) {
	var balance int64
	err := l.query(ctx, func(svc *ledgerServices) error {
		var err error
		balance, err = svc.query.Balance(ctx, account)
		return err
	})
	return balance, err
}

// GetSportEvent returns one event, failing EventNotFound for unknown uids
func (l *Ledger) GetSportEvent(ctx context.Context, uid entities.EventUID) (*entities.SportEvent, error) {
	var event *entities.SportEvent
	err := l.query(ctx, func(svc *ledgerServices) error {
		var err error
		event, err = svc.query.GetSportEvent(ctx, uid)
		return err
	})
	return event, err
}

// GetBet returns one bet, failing InvalidBetId for unknown ids
func (l *Ledger) GetBet(ctx context.Context, betID int64) (*entities.Bet, error) {
	var bet *entities.Bet
	err := l.query(ctx, func(svc *ledgerServices) error {
		var err error
		bet, err = svc.query.GetBet(ctx, betID)
		return err
	})
	return bet, err
}

func (l *Ledger) EventsByDateAndSport(ctx context.Context, day int64, sportID uint8) ([]*entities.SportEvent, error) {
	var out []*entities.SportEvent
	err := l.query(ctx, func(svc *ledgerServices) error {
		var err error
		out, err = svc.query.EventsByDateAndSport(ctx, day, sportID)
		return err
	})
	return out, err
}

func (l *Ledger) EventsByDate(ctx context.Context, day int64) ([]*entities.SportEvent, error) {
	var out []*entities.SportEvent
	err := l.query(ctx, func(svc *ledgerServices) error {
		var err error
		out, err = svc.query.EventsByDate(ctx, day)
		return err
	})
	return out, err
}

func (l *Ledger) BetsByDate(ctx context.Context, day int64) ([]*entities.Bet, error) {
	var out []*entities.Bet
	err := l.query(ctx, func(svc *ledgerServices) error {
		var err error
		out, err = svc.query.BetsByDate(ctx, day)
		return err
	})
	return out, err
}

func (l *Ledger) BetsByDateAndUser(ctx context.Context, day int64, bettor string) ([]*entities.Bet, error) {
	var out []*entities.Bet
	err := l.query(ctx, func(svc *ledgerServices) error {
		var err error
		out, err = svc.query.BetsByDateAndUser(ctx, day, bettor)
		return err
	})
	return out, err
}

// BetsByUserPaged returns up to limit bets of the bettor starting at offset, in placement order
func (l *Ledger) BetsByUserPaged(ctx context.Context, bettor string, offset, limit int) ([]*entities.Bet, error) {
	var out []*entities.Bet
	err := l.query(ctx, func(svc *ledgerServices) error {
		var err error
		out, err = svc.query.BetsByUserPaged(ctx, bettor, offset, limit)
		return err
	})
	return out, err
}

// BetsPageByUser returns a page of the bettor's bets and their total count from
// the same snapshot, so the two always agree
func (l *Ledger) BetsPageByUser(ctx context.Context, bettor string, offset, limit int) (*entities.BetPage, error) {
	page := &entities.BetPage{Offset: offset}
	err := l.query(ctx, func(svc *ledgerServices) error {
		var err error
		if page.Bets, err = svc.query.BetsByUserPaged(ctx, bettor, offset, limit); err != nil {
			return err
		}
		page.Total, err = svc.query.BetCountByUser(ctx, bettor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (l *Ledger) BetCountByUser(ctx context.Context, bettor string) (int64, error) {
	var count int64
	err := l.query(ctx, func(svc *ledgerServices) error {
		var err error
		count, err = svc.query.BetCountByUser(ctx, bettor)
		return err
	})
	return count, err
}
