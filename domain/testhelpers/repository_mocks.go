package testhelpers

import (
	"context"

	"betledger/domain/entities"
	"betledger/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockSportEventRepository is a mock implementation of SportEventRepository
type MockSportEventRepository struct {
	mock.Mock
}

func (m *MockSportEventRepository) Create(ctx context.Context, event *entities.SportEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSportEventRepository) GetByUID(ctx context.Context, uid entities.EventUID) (*entities.SportEvent, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SportEvent), args.Error(1)
}

func (m *MockSportEventRepository) Update(ctx context.Context, event *entities.SportEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSportEventRepository) ListByDateAndSport(ctx context.Context, day int64, sportID uint8) ([]*entities.SportEvent, error) {
	args := m.Called(ctx, day, sportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SportEvent), args.Error(1)
}

func (m *MockSportEventRepository) ListByDate(ctx context.Context, day int64) ([]*entities.SportEvent, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SportEvent), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) NextID(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBetRepository) Create(ctx context.Context, bet *entities.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) GetByID(ctx context.Context, id int64) (*entities.Bet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) MarkClaimed(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBetRepository) ListByDate(ctx context.Context, day int64) ([]*entities.Bet, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) ListByDateAndUser(ctx context.Context, day int64, bettor string) ([]*entities.Bet, error) {
	args := m.Called(ctx, day, bettor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) ListByUser(ctx context.Context, bettor string, offset, limit int) ([]*entities.Bet, error) {
	args := m.Called(ctx, bettor, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) CountByUser(ctx context.Context, bettor string) (int64, error) {
	args := m.Called(ctx, bettor)
	return args.Get(0).(int64), args.Error(1)
}

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*entities.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, account *entities.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
