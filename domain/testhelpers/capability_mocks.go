package testhelpers

import (
	"context"

	"betledger/domain/entities"

	"github.com/stretchr/testify/mock"
)

// MockValueTransfer is a mock implementation of ValueTransfer
type MockValueTransfer struct {
	mock.Mock
}

func (m *MockValueTransfer) Debit(ctx context.Context, account string, amount int64) error {
	args := m.Called(ctx, account, amount)
	return args.Error(0)
}

func (m *MockValueTransfer) Credit(ctx context.Context, account string, amount int64) error {
	args := m.Called(ctx, account, amount)
	return args.Error(0)
}

// MockAttestationVerifier is a mock implementation of AttestationVerifier
type MockAttestationVerifier struct {
	mock.Mock
}

func (m *MockAttestationVerifier) Verify(ctx context.Context, attestation *entities.Attestation, proof *entities.AttestationProof) (bool, error) {
	args := m.Called(ctx, attestation, proof)
	return args.Bool(0), args.Error(1)
}

// MockSettlementService is a mock implementation of SettlementService
type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) Finalize(ctx context.Context, uid entities.EventUID, resultChoiceID int, manual bool) (*entities.SportEvent, error) {
	args := m.Called(ctx, uid, resultChoiceID, manual)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SportEvent), args.Error(1)
}

func (m *MockSettlementService) ClaimWinnings(ctx context.Context, caller string, betID int64) (*entities.ClaimResult, error) {
	args := m.Called(ctx, caller, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ClaimResult), args.Error(1)
}
