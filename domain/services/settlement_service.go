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

type settlementService struct {
	sportEventRepo interfaces.SportEventRepository
	betRepo        interfaces.BetRepository
	transfer       interfaces.ValueTransfer
	eventPublisher interfaces.EventPublisher
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	sportEventRepo interfaces.SportEventRepository,
	betRepo interfaces.BetRepository,
	transfer interfaces.ValueTransfer,
	eventPublisher interfaces.EventPublisher,
) interfaces.SettlementService {
	return &settlementService{
		sportEventRepo: sportEventRepo,
		betRepo:        betRepo,
		transfer:       transfer,
		eventPublisher: eventPublisher,
	}
}

// Finalize records the winning choice of an open event
func (s *settlementService) Finalize(ctx context.Context, uid entities.EventUID, resultChoiceID int, manual bool) (*entities.SportEvent, error) {
	event, err := s.sportEventRepo.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get sport event: %w", err)
	}
	if event == nil {
		return nil, ledgererr.New(ledgererr.ReasonEventNotFound, "event %s not found", uid.Hex())
	}
	if event.IsFinalized() {
		return nil, ledgererr.New(ledgererr.ReasonAlreadyFinalized, "event %s was finalized with choice %d", uid.Hex(), *event.ResultChoiceID)
	}
	if !event.HasChoice(resultChoiceID) {
		return nil, ledgererr.New(ledgererr.ReasonInvalidChoice, "event %s has no choice %d", uid.Hex(), resultChoiceID)
	}

	event.Finalize(resultChoiceID)
	if err := s.sportEventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to finalize event: %w", err)
	}

	winner := event.Choices[resultChoiceID]
	if err := s.eventPublisher.Publish(events.MatchFinalized{
		UID:            uid,
		Title:          event.Title,
		ResultChoiceID: resultChoiceID,
		ResultLabel:    winner.Label,
		Multiplier:     winner.CurrentMultiplier,
		Manual:         manual,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish match finalized: %w", err)
	}

	log.WithFields(log.Fields{
		"uid":    uid.Hex(),
		"title":  event.Title,
		"result": resultChoiceID,
		"manual": manual,
	}).Info("Match finalized")

	return event, nil
}

// ClaimWinnings pays a winning bet to its bettor exactly once
func (s *settlementService) ClaimWinnings(ctx context.Context, caller string, betID int64) (*entities.ClaimResult, error) {
	bet, err := s.betRepo.GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, ledgererr.New(ledgererr.ReasonInvalidBetID, "bet %d does not exist", betID)
	}

	event, err := s.sportEventRepo.GetByUID(ctx, bet.EventUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sport event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("bet %d references missing event %s", betID, bet.EventUID.Hex())
	}
	if !event.IsFinalized() {
		return nil, ledgererr.New(ledgererr.ReasonResultNotDrawn, "event %s has no result yet", event.UID.Hex())
	}
	if !bet.IsOwnedBy(caller) {
		return nil, ledgererr.New(ledgererr.ReasonNotBettor, "bet %d belongs to another bettor", betID)
	}
	if bet.Claimed {
		return nil, ledgererr.New(ledgererr.ReasonAlreadyClaimed, "bet %d was already claimed", betID)
	}
	if bet.ChoiceID != *event.ResultChoiceID {
		return nil, ledgererr.New(ledgererr.ReasonNotWinner, "bet %d picked choice %d, result is %d", betID, bet.ChoiceID, *event.ResultChoiceID)
	}

	payout, err := odds.Payout(bet.Amount, bet.WinMultiplier)
	if err != nil {
		return nil, err
	}

	// Pay before flagging; a failed credit leaves the bet claimable
	if err := s.transfer.Credit(ctx, bet.Bettor, payout); err != nil {
		return nil, err
	}
	if err := s.betRepo.MarkClaimed(ctx, bet.ID); err != nil {
		return nil, fmt.Errorf("failed to mark bet claimed: %w", err)
	}
	bet.Claimed = true

	if err := s.eventPublisher.Publish(events.WinningsClaimed{
		BetID:  bet.ID,
		UID:    bet.EventUID,
		Bettor: bet.Bettor,
		Payout: payout,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish winnings claimed: %w", err)
	}

	log.WithFields(log.Fields{
		"betId":  bet.ID,
		"uid":    bet.EventUID.Hex(),
		"bettor": bet.Bettor,
		"payout": payout,
	}).Info("Winnings claimed")

	return &entities.ClaimResult{Bet: bet, Payout: payout}, nil
}
