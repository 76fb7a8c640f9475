package services

import (
	"context"
	"fmt"

	"betledger/domain/entities"
	"betledger/domain/events"
	"betledger/domain/interfaces"
	"betledger/domain/ledgererr"
	"betledger/domain/odds"

	log "github.com/sirupsen/logrus"
)

type betLedger struct {
	sportEventRepo interfaces.SportEventRepository
	betRepo        interfaces.BetRepository
	transfer       interfaces.ValueTransfer
	policy         interfaces.StakingPolicy
	clock          interfaces.Clock
	eventPublisher interfaces.EventPublisher
}

// NewBetLedger creates a new bet ledger
func NewBetLedger(
	sportEventRepo interfaces.SportEventRepository,
	betRepo interfaces.BetRepository,
	transfer interfaces.ValueTransfer,
	policy interfaces.StakingPolicy,
	clock interfaces.Clock,
	eventPublisher interfaces.EventPublisher,
) interfaces.BetLedger {
	return &betLedger{
		sportEventRepo: sportEventRepo,
		betRepo:        betRepo,
		transfer:       transfer,
		policy:         policy,
		clock:          clock,
		eventPublisher: eventPublisher,
	}
}

// PlaceBet records a stake and freezes its multiplier
func (s *betLedger) PlaceBet(ctx context.Context, bettor string, uid entities.EventUID, choiceID int, amount int64) (*entities.Bet, error) {
	if amount <= 0 {
		return nil, ledgererr.New(ledgererr.ReasonInvalidAmount, "bet amount must be positive, got %d", amount)
	}

	now := s.clock.Now().Unix()
	event, projection, err := s.project(ctx, uid, choiceID, amount, now)
	if err != nil {
		return nil, err
	}

	// Move the stake first; a failed debit leaves nothing to undo
	if err := s.transfer.Debit(ctx, bettor, amount); err != nil {
		return nil, err
	}

	multipliers, err := odds.Multipliers(projection.Pool, projection.Weights)
	if err != nil {
		return nil, err
	}
	event.PoolAmount = projection.Pool
	for i := range event.Choices {
		event.Choices[i].TotalBetsAmount = projection.Weights[i]
		event.Choices[i].CurrentMultiplier = multipliers[i]
	}
	if err := s.sportEventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event pool: %w", err)
	}

	betID, err := s.betRepo.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate bet id: %w", err)
	}
	bet := &entities.Bet{
		ID:            betID,
		EventUID:      uid,
		Bettor:        bettor,
		Amount:        amount,
		ChoiceID:      choiceID,
		WinMultiplier: projection.Multiplier,
		PlacedAt:      now,
	}
	if err := s.betRepo.Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	if err := s.eventPublisher.Publish(events.BetPlaced{
		BetID:    bet.ID,
		UID:      uid,
		Bettor:   bettor,
		Amount:   amount,
		ChoiceID: choiceID,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish bet placed: %w", err)
	}

	log.WithFields(log.Fields{
		"betId":      bet.ID,
		"uid":        uid.Hex(),
		"bettor":     bettor,
		"amount":     amount,
		"choiceId":   choiceID,
		"multiplier": bet.WinMultiplier,
		"pool":       event.PoolAmount,
	}).Info("Bet placed")

	return bet, nil
}

// PreviewReturn projects the multiplier and return of a stake without placing it
func (s *betLedger) PreviewReturn(ctx context.Context, uid entities.EventUID, choiceID int, amount int64) (*entities.ReturnPreview, error) {
	if amount <= 0 {
		return nil, ledgererr.New(ledgererr.ReasonInvalidAmount, "amount must be positive, got %d", amount)
	}

	_, projection, err := s.project(ctx, uid, choiceID, amount, s.clock.Now().Unix())
	if err != nil {
		return nil, err
	}

	ret, err := odds.Payout(amount, projection.Multiplier)
	if err != nil {
		return nil, err
	}
	return &entities.ReturnPreview{
		EventUID:   uid,
		ChoiceID:   choiceID,
		Amount:     amount,
		Multiplier: projection.Multiplier,
		Return:     ret,
	}, nil
}

// project loads an event that accepts stakes at now and applies the stake to a
// copy of its pool. PlaceBet and PreviewReturn share it so a preview matches the
// frozen multiplier and fails exactly when placement would.
func (s *betLedger) project(ctx context.Context, uid entities.EventUID, choiceID int, amount int64, now int64) (*entities.SportEvent, *odds.Projection, error) {
	event, err := s.sportEventRepo.GetByUID(ctx, uid)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sport event: %w", err)
	}
	if event == nil {
		return nil, nil, ledgererr.New(ledgererr.ReasonEventNotFound, "event %s not found", uid.Hex())
	}
	if !event.HasChoice(choiceID) {
		return nil, nil, ledgererr.New(ledgererr.ReasonInvalidChoice, "event %s has no choice %d", uid.Hex(), choiceID)
	}
	if !event.IsOpen() {
		return nil, nil, ledgererr.New(ledgererr.ReasonEventFinalized, "event %s is finalized", uid.Hex())
	}
	if err := s.policy.CanStake(event, now); err != nil {
		return nil, nil, err
	}

	projection, err := odds.Project(event.PoolAmount, event.Weights(), choiceID, amount)
	if err != nil {
		return nil, nil, err
	}
	return event, projection, nil
}
