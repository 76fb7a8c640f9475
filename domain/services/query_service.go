package services

import (
	"context"
	"fmt"

	"betledger/domain/entities"
	"betledger/domain/interfaces"
	"betledger/domain/ledgererr"
)

type queryService struct {
	sportEventRepo interfaces.SportEventRepository
	betRepo        interfaces.BetRepository
	accountRepo    interfaces.AccountRepository
}

// NewQueryService creates the read-only view over events, bets and balances
func NewQueryService(
	sportEventRepo interfaces.SportEventRepository,
	betRepo interfaces.BetRepository,
	accountRepo interfaces.AccountRepository,
) interfaces.QueryService {
	return &queryService{
		sportEventRepo: sportEventRepo,
		betRepo:        betRepo,
		accountRepo:    accountRepo,
	}
}

func (s *queryService) GetSportEvent(ctx context.Context, uid entities.EventUID) (*entities.SportEvent, error) {
	event, err := s.sportEventRepo.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get sport event: %w", err)
	}
	if event == nil {
		return nil, ledgererr.New(ledgererr.ReasonEventNotFound, "event %s not found", uid.Hex())
	}
	return event, nil
}

func (s *queryService) GetBet(ctx context.Context, betID int64) (*entities.Bet, error) {
	bet, err := s.betRepo.GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, ledgererr.New(ledgererr.ReasonInvalidBetID, "bet %d does not exist", betID)
	}
	return bet, nil
}

func (s *queryService) EventsByDateAndSport(ctx context.Context, day int64, sportID uint8) ([]*entities.SportEvent, error) {
	return s.sportEventRepo.ListByDateAndSport(ctx, entities.DayOf(day), sportID)
}

func (s *queryService) EventsByDate(ctx context.Context, day int64) ([]*entities.SportEvent, error) {
	return s.sportEventRepo.ListByDate(ctx, entities.DayOf(day))
}

func (s *queryService) BetsByDate(ctx context.Context, day int64) ([]*entities.Bet, error) {
	return s.betRepo.ListByDate(ctx, entities.DayOf(day))
}

func (s *queryService) BetsByDateAndUser(ctx context.Context, day int64, bettor string) ([]*entities.Bet, error) {
	return s.betRepo.ListByDateAndUser(ctx, entities.DayOf(day), bettor)
}

// BetsByUserPaged returns bets [offset, offset+limit) of the bettor; out of range yields an empty slice
func (s *queryService) BetsByUserPaged(ctx context.Context, bettor string, offset, limit int) ([]*entities.Bet, error) {
	if offset < 0 || limit <= 0 {
		return []*entities.Bet{}, nil
	}
	return s.betRepo.ListByUser(ctx, bettor, offset, limit)
}

func (s *queryService) BetCountByUser(ctx context.Context, bettor string) (int64, error) {
	return s.betRepo.CountByUser(ctx, bettor)
}

func (s *queryService) Balance(ctx context.Context, account string) (int64, error) {
	acc, err := s.accountRepo.GetByID(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}
	if acc == nil {
		return 0, nil
	}
	return acc.Balance, nil
}
