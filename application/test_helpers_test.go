package application_test

import (
	"context"
	"crypto/ecdsa"
	"sync"
	"testing"
	"time"

	"betledger/application"
	"betledger/domain/entities"
	"betledger/domain/events"
	"betledger/domain/interfaces"
	"betledger/domain/services"
	"betledger/infrastructure"
	"betledger/infrastructure/attestation"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const (
	testOperator  = "operator-1"
	testStartTime = int64(1720009222)
	alice         = "alice"
	bob           = "bob"
)

var testNow = time.Unix(testStartTime-3600, 0).UTC()

// recordingPublisher records every event flushed after commit
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

type ledgerHarness struct {
	ledger    *application.Ledger
	published *recordingPublisher
	attester  *ecdsa.PrivateKey
}

type harnessOption func(*harnessOptions)

type harnessOptions struct {
	policy  interfaces.StakingPolicy
	clock   interfaces.Clock
	metrics application.MetricsRecorder
}

func withPolicy(p interfaces.StakingPolicy) harnessOption {
	return func(o *harnessOptions) { o.policy = p }
}

func withClock(c interfaces.Clock) harnessOption {
	return func(o *harnessOptions) { o.clock = c }
}

func withMetrics(m application.MetricsRecorder) harnessOption {
	return func(o *harnessOptions) { o.metrics = m }
}

func newLedgerHarness(t *testing.T, opts ...harnessOption) *ledgerHarness {
	t.Helper()
	o := &harnessOptions{
		policy: services.UntilFinalized{},
		clock:  services.FixedClock{At: testNow},
	}
	for _, opt := range opts {
		opt(o)
	}

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	verifier := attestation.NewSignatureVerifier([]common.Address{crypto.PubkeyToAddress(key.PublicKey)})

	published := &recordingPublisher{}
	factory := infrastructure.NewMemoryUnitOfWorkFactory(published)
	return &ledgerHarness{
		ledger:    application.NewLedger(factory, o.policy, o.clock, verifier, o.metrics),
		published: published,
		attester:  key,
	}
}

func (h *ledgerHarness) createEvent(t *testing.T, title string, seedPool int64, weights ...int64) *entities.SportEvent {
	t.Helper()
	labels := []string{"home", "away", "draw"}[:len(weights)]
	event, err := h.ledger.CreateSportEvent(context.Background(), entities.SportEventParams{
		Title:          title,
		StartTime:      testStartTime,
		SportID:        uint8(entities.SportFootball),
		GenderID:       uint8(entities.GenderMen),
		ChoiceLabels:   labels,
		InitialWeights: weights,
		SeedPool:       seedPool,
	})
	require.NoError(t, err)
	return event
}

func (h *ledgerHarness) fund(t *testing.T, account string, amount int64) {
	t.Helper()
	_, err := h.ledger.Deposit(context.Background(), testOperator, account, amount)
	require.NoError(t, err)
}

func (h *ledgerHarness) balance(t *testing.T, account string) int64 {
	t.Helper()
	balance, err := h.ledger.Balance(context.Background(), account)
	require.NoError(t, err)
	return balance
}

func (h *ledgerHarness) event(t *testing.T, uid entities.EventUID) *entities.SportEvent {
	t.Helper()
	event, err := h.ledger.GetSportEvent(context.Background(), uid)
	require.NoError(t, err)
	return event
}

// attest builds a signed attestation for an event result
func (h *ledgerHarness) attest(t *testing.T, event *entities.SportEvent, result uint8, key *ecdsa.PrivateKey) (*entities.Attestation, *entities.AttestationProof) {
	t.Helper()
	att := &entities.Attestation{
		AttestationType: "MatchResult",
		SourceID:        "FlareSportsDataProvider",
		VotingRound:     912345,
		RequestBody: entities.MatchResultRequest{
			Date:   event.StartTime,
			Sport:  event.SportID,
			Gender: event.GenderID,
			Teams:  event.Title,
		},
		ResponseBody: entities.MatchResultResponse{
			Timestamp: event.StartTime + 7200,
			Result:    result,
		},
	}
	sig, err := attestation.Sign(att, key)
	require.NoError(t, err)
	return att, &entities.AttestationProof{Signature: sig}
}
