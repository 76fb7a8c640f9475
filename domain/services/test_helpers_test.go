package services

import (
	"testing"
	"time"

	"betledger/config"
	"betledger/domain/entities"
	"betledger/domain/eventid"
	"betledger/domain/testhelpers"

	"github.com/stretchr/testify/require"
)

// Test constants for consistent test data
const (
	TestOperatorID = "operator-1"
	TestBettor     = "alice"
	TestOtherUser  = "bob"
	TestStartTime  = int64(1720009222)
	TestSeedPool   = int64(100)
)

var TestNow = time.Unix(TestStartTime-3600, 0).UTC()

// TestMocks aggregates all repository mocks for testing
type TestMocks struct {
	SportEventRepo *testhelpers.MockSportEventRepository
	BetRepo        *testhelpers.MockBetRepository
	AccountRepo    *testhelpers.MockAccountRepository
	EventPublisher *testhelpers.MockEventPublisher
	Transfer       *testhelpers.MockValueTransfer
	Verifier       *testhelpers.MockAttestationVerifier
	Settlement     *testhelpers.MockSettlementService
}

// NewTestMocks creates a new set of mocks and installs the test config
func NewTestMocks() *TestMocks {
	config.SetTestConfig(config.NewTestConfig())
	return &TestMocks{
		SportEventRepo: &testhelpers.MockSportEventRepository{},
		BetRepo:        &testhelpers.MockBetRepository{},
		AccountRepo:    &testhelpers.MockAccountRepository{},
		EventPublisher: &testhelpers.MockEventPublisher{},
		Transfer:       &testhelpers.MockValueTransfer{},
		Verifier:       &testhelpers.MockAttestationVerifier{},
		Settlement:     &testhelpers.MockSettlementService{},
	}
}

// AssertAllExpectations verifies all mock expectations were met
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.SportEventRepo.AssertExpectations(t)
	m.BetRepo.AssertExpectations(t)
	m.AccountRepo.AssertExpectations(t)
	m.EventPublisher.AssertExpectations(t)
	m.Transfer.AssertExpectations(t)
	m.Verifier.AssertExpectations(t)
	m.Settlement.AssertExpectations(t)
}

// newOpenEvent builds an open three-way event with seed weights [10,10,10] and pool 100
func newOpenEvent(t *testing.T) *entities.SportEvent {
	t.Helper()
	title := "Italy - Brazil"
	uid, err := eventid.Derive(0, 0, TestStartTime, title)
	require.NoError(t, err)
	return &entities.SportEvent{
		UID:        uid,
		Title:      title,
		StartTime:  TestStartTime,
		PoolAmount: TestSeedPool,
		SeedPool:   TestSeedPool,
		Choices: []entities.Choice{
			{ID: 0, Label: "Italy", InitialWeight: 10, TotalBetsAmount: 10, CurrentMultiplier: 10000},
			{ID: 1, Label: "Brazil", InitialWeight: 10, TotalBetsAmount: 10, CurrentMultiplier: 10000},
			{ID: 2, Label: "Draw", InitialWeight: 10, TotalBetsAmount: 10, CurrentMultiplier: 10000},
		},
		Status: entities.SportEventStatusOpen,
	}
}

func attestationFor(event *entities.SportEvent, result uint8) *entities.Attestation {
	return &entities.Attestation{
		AttestationType: "MatchResult",
		SourceID:        "sportradar",
		VotingRound:     812345,
		RequestBody: entities.MatchResultRequest{
			Date:   event.StartTime,
			Sport:  event.SportID,
			Gender: event.GenderID,
			Teams:  event.Title,
		},
		ResponseBody: entities.MatchResultResponse{Timestamp: event.StartTime + 7200, Result: result},
	}
}
