package application_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"betledger/domain/entities"
	"betledger/domain/events"
	"betledger/domain/ledgererr"
	"betledger/domain/odds"
	"betledger/domain/services"
	"betledger/infrastructure/observability"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_StakeShiftsOdds(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	event := h.createEvent(t, "Brazil - Argentina", 100, 10, 10, 10)
	h.fund(t, alice, 100)

	before1, err := h.ledger.PreviewReturn(ctx, event.UID, 1, 10)
	require.NoError(t, err)
	before0, err := h.ledger.PreviewReturn(ctx, event.UID, 0, 10)
	require.NoError(t, err)

	_, err = h.ledger.PlaceBet(ctx, alice, event.UID, 0, 5)
	require.NoError(t, err)

	got := h.event(t, event.UID)
	assert.Equal(t, []int64{15, 10, 10}, got.Weights())
	assert.Equal(t, int64(105), got.PoolAmount)

	after1, err := h.ledger.PreviewReturn(ctx, event.UID, 1, 10)
	require.NoError(t, err)
	after0, err := h.ledger.PreviewReturn(ctx, event.UID, 0, 10)
	require.NoError(t, err)

	assert.Greater(t, after1.Multiplier, before1.Multiplier, "other choices improve")
	assert.Less(t, after0.Multiplier, before0.Multiplier, "staked choice worsens")
}

func TestLedger_PreviewEqualsFrozenMultiplier(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	event := h.createEvent(t, "Lakers - Celtics", 250, 30, 70)
	h.fund(t, alice, 1000)

	for _, stake := range []struct {
		choice int
		amount int64
	}{{0, 17}, {1, 3}, {0, 250}, {1, 99}} {
		preview, err := h.ledger.PreviewReturn(ctx, event.UID, stake.choice, stake.amount)
		require.NoError(t, err)

		bet, err := h.ledger.PlaceBet(ctx, alice, event.UID, stake.choice, stake.amount)
		require.NoError(t, err)
		assert.Equal(t, preview.Multiplier, bet.WinMultiplier)

		payout, err := odds.Payout(bet.Amount, bet.WinMultiplier)
		require.NoError(t, err)
		assert.Equal(t, preview.Return, payout)
	}
}

func TestLedger_FinalizeThenClaimWinnerAndLoser(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	event := h.createEvent(t, "Brazil - Argentina", 100, 10, 10, 10)
	h.fund(t, alice, 100)
	h.fund(t, bob, 100)
	h.fund(t, entities.EscrowAccountID, 1000)

	loser, err := h.ledger.PlaceBet(ctx, alice, event.UID, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), loser.WinMultiplier)
	winner, err := h.ledger.PlaceBet(ctx, bob, event.UID, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(7333), winner.WinMultiplier)

	_, err = h.ledger.ClaimWinnings(ctx, bob, winner.ID)
	assert.ErrorIs(t, err, ledgererr.ErrResultNotDrawn)

	finalized, err := h.ledger.ManualFinalize(ctx, testOperator, event.UID, 1)
	require.NoError(t, err)
	assert.True(t, finalized.IsFinalized())
	require.NotNil(t, finalized.ResultChoiceID)
	assert.Equal(t, 1, *finalized.ResultChoiceID)

	result, err := h.ledger.ClaimWinnings(ctx, bob, winner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(36), result.Payout, "5 * 7333 / 1000 floors to 36")
	assert.Equal(t, int64(100-5+36), h.balance(t, bob))

	_, err = h.ledger.ClaimWinnings(ctx, alice, loser.ID)
	assert.ErrorIs(t, err, ledgererr.ErrNotWinner)

	_, err = h.ledger.ClaimWinnings(ctx, bob, winner.ID)
	assert.ErrorIs(t, err, ledgererr.ErrAlreadyClaimed)

	_, err = h.ledger.ClaimWinnings(ctx, alice, winner.ID)
	assert.ErrorIs(t, err, ledgererr.ErrNotBettor)

	_, err = h.ledger.ClaimWinnings(ctx, bob, 99)
	assert.ErrorIs(t, err, ledgererr.ErrInvalidBetID)

	_, err = h.ledger.PlaceBet(ctx, alice, event.UID, 1, 5)
	assert.ErrorIs(t, err, ledgererr.ErrEventFinalized)

	bet, err := h.ledger.GetBet(ctx, winner.ID)
	require.NoError(t, err)
	assert.True(t, bet.Claimed)
}

func TestLedger_FrozenPayoutIgnoresLaterStakes(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	event := h.createEvent(t, "Nadal - Federer", 100, 10, 10)
	h.fund(t, alice, 10_000)
	h.fund(t, bob, 100)
	h.fund(t, entities.EscrowAccountID, 10_000)

	early, err := h.ledger.PlaceBet(ctx, bob, event.UID, 0, 10)
	require.NoError(t, err)
	frozen := early.WinMultiplier

	for i := 0; i < 20; i++ {
		_, err := h.ledger.PlaceBet(ctx, alice, event.UID, 0, 100)
		require.NoError(t, err)
	}
	current := h.event(t, event.UID).Choices[0].CurrentMultiplier
	require.Less(t, current, frozen)

	_, err = h.ledger.ManualFinalize(ctx, testOperator, event.UID, 0)
	require.NoError(t, err)

	result, err := h.ledger.ClaimWinnings(ctx, bob, early.ID)
	require.NoError(t, err)
	assert.Equal(t, early.Amount*frozen/odds.Scale, result.Payout)
}

func TestLedger_FinalizeExactlyOnce(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	manual := h.createEvent(t, "A - B", 100, 10, 10)
	attested := h.createEvent(t, "C - D", 100, 10, 10)

	_, err := h.ledger.ManualFinalize(ctx, testOperator, manual.UID, 0)
	require.NoError(t, err)
	_, err = h.ledger.ManualFinalize(ctx, testOperator, manual.UID, 1)
	assert.ErrorIs(t, err, ledgererr.ErrAlreadyFinalized)

	att, proof := h.attest(t, manual, 1, h.attester)
	_, err = h.ledger.SubmitAttestation(ctx, att, proof)
	assert.ErrorIs(t, err, ledgererr.ErrAlreadyFinalized, "manual override won the race")

	att, proof = h.attest(t, attested, 1, h.attester)
	event, err := h.ledger.SubmitAttestation(ctx, att, proof)
	require.NoError(t, err)
	assert.Equal(t, 1, *event.ResultChoiceID)

	_, err = h.ledger.ManualFinalize(ctx, testOperator, attested.UID, 0)
	assert.ErrorIs(t, err, ledgererr.ErrAlreadyFinalized)
	_, err = h.ledger.SubmitAttestation(ctx, att, proof)
	assert.ErrorIs(t, err, ledgererr.ErrAlreadyFinalized)

	assert.Equal(t, 1, *h.event(t, attested.UID).ResultChoiceID)
}

func TestLedger_SubmitAttestationFailures(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	event := h.createEvent(t, "Spain - Italy", 100, 10, 10, 10)

	impostor, err := crypto.GenerateKey()
	require.NoError(t, err)

	tests := []struct {
		name    string
		build   func() (*entities.Attestation, *entities.AttestationProof)
		wantErr error
	}{
		{
			name: "untrusted signer",
			build: func() (*entities.Attestation, *entities.AttestationProof) {
				return h.attest(t, event, 0, impostor)
			},
			wantErr: ledgererr.ErrInvalidProof,
		},
		{
			name: "missing signature",
			build: func() (*entities.Attestation, *entities.AttestationProof) {
				att, _ := h.attest(t, event, 0, h.attester)
				return att, nil
			},
			wantErr: ledgererr.ErrInvalidProof,
		},
		{
			name: "unknown event",
			build: func() (*entities.Attestation, *entities.AttestationProof) {
				att, proof := h.attest(t, event, 0, h.attester)
				att.RequestBody.Teams = "Spain - France"
				return att, proof
			},
			wantErr: ledgererr.ErrMismatchedEvent,
		},
		{
			name: "result tampered after signing",
			build: func() (*entities.Attestation, *entities.AttestationProof) {
				att, proof := h.attest(t, event, 0, h.attester)
				att.ResponseBody.Result = 2
				return att, proof
			},
			wantErr: ledgererr.ErrInvalidProof,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att, proof := tt.build()
			_, err := h.ledger.SubmitAttestation(ctx, att, proof)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.True(t, h.event(t, event.UID).IsOpen())
}

func TestLedger_ManualFinalizeRequiresOperator(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	event := h.createEvent(t, "A - B", 100, 10, 10)

	_, err := h.ledger.ManualFinalize(ctx, alice, event.UID, 0)
	assert.ErrorIs(t, err, ledgererr.ErrUnauthorized)

	_, err = h.ledger.Deposit(ctx, alice, alice, 1_000_000)
	assert.ErrorIs(t, err, ledgererr.ErrUnauthorized)

	assert.True(t, h.event(t, event.UID).IsOpen())
	assert.Zero(t, h.balance(t, alice))
}

func TestLedger_Conservation(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	event := h.createEvent(t, "Brazil - Argentina", 100, 10, 10, 10)
	h.fund(t, alice, 500)
	h.fund(t, bob, 500)
	h.fund(t, entities.EscrowAccountID, 5000)

	total := func() int64 {
		return h.balance(t, alice) + h.balance(t, bob) + h.balance(t, entities.EscrowAccountID)
	}
	start := total()

	var placed int64
	var bobBets []*entities.Bet
	for i, amount := range []int64{5, 12, 40, 3, 77, 21} {
		bettor, choice := alice, i%3
		if i%2 == 1 {
			bettor = bob
		}
		bet, err := h.ledger.PlaceBet(ctx, bettor, event.UID, choice, amount)
		require.NoError(t, err)
		placed += amount
		if bettor == bob {
			bobBets = append(bobBets, bet)
		}
		assert.Equal(t, start, total())
	}

	got := h.event(t, event.UID)
	assert.Equal(t, got.SeedPool+placed, got.PoolAmount)
	assert.Equal(t, placed, got.StakedAmount())

	// seed weights and seed pool are independent; stakes add to both
	var weights, initial int64
	for _, c := range got.Choices {
		weights += c.TotalBetsAmount
		initial += c.InitialWeight
	}
	assert.Equal(t, initial+placed, weights)

	_, err := h.ledger.ManualFinalize(ctx, testOperator, event.UID, 1)
	require.NoError(t, err)

	var paid int64
	for _, bet := range bobBets {
		result, err := h.ledger.ClaimWinnings(ctx, bob, bet.ID)
		if bet.ChoiceID != 1 {
			assert.ErrorIs(t, err, ledgererr.ErrNotWinner)
			continue
		}
		require.NoError(t, err)
		want, err := odds.Payout(bet.Amount, bet.WinMultiplier)
		require.NoError(t, err)
		assert.Equal(t, want, result.Payout)
		paid += result.Payout
	}
	assert.Positive(t, paid)
	assert.Equal(t, start, total())
}

func TestLedger_FailedDebitLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	event := h.createEvent(t, "A - B", 100, 10, 10)
	h.fund(t, alice, 10)
	before := len(h.published.Events())

	_, err := h.ledger.PlaceBet(ctx, "carol", event.UID, 0, 5)
	assert.ErrorIs(t, err, ledgererr.ErrInsufficientFunds)
	assert.Equal(t, ledgererr.KindTransfer, ledgererr.KindOf(err))

	got := h.event(t, event.UID)
	assert.Equal(t, int64(100), got.PoolAmount)
	assert.Equal(t, []int64{10, 10}, got.Weights())
	count, err := h.ledger.BetCountByUser(ctx, "carol")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Len(t, h.published.Events(), before, "rolled back mutations publish nothing")

	bet, err := h.ledger.PlaceBet(ctx, alice, event.UID, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), bet.ID, "failed bet does not consume an id")
}

func TestLedger_FailedCreditStaysClaimable(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	event := h.createEvent(t, "A - B", 100, 10, 10)
	h.fund(t, bob, 100)

	bet, err := h.ledger.PlaceBet(ctx, bob, event.UID, 1, 5)
	require.NoError(t, err)
	_, err = h.ledger.ManualFinalize(ctx, testOperator, event.UID, 1)
	require.NoError(t, err)

	// escrow only holds the 5 staked; the payout needs more
	_, err = h.ledger.ClaimWinnings(ctx, bob, bet.ID)
	assert.ErrorIs(t, err, ledgererr.ErrTransferFailed)
	assert.ErrorIs(t, err, ledgererr.ErrInsufficientFunds)

	stored, err := h.ledger.GetBet(ctx, bet.ID)
	require.NoError(t, err)
	assert.False(t, stored.Claimed)
	assert.Equal(t, int64(95), h.balance(t, bob))

	h.fund(t, entities.EscrowAccountID, 1000)
	result, err := h.ledger.ClaimWinnings(ctx, bob, bet.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(95)+result.Payout, h.balance(t, bob))
}

func TestLedger_DuplicateEventFailsDeterministically(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	original := h.createEvent(t, "A - B", 100, 10, 10)

	params := entities.SportEventParams{
		Title:          "A - B",
		StartTime:      testStartTime,
		SportID:        uint8(entities.SportFootball),
		GenderID:       uint8(entities.GenderMen),
		ChoiceLabels:   []string{"home", "away"},
		InitialWeights: []int64{10, 10},
		SeedPool:       100,
	}
	for i := 0; i < 3; i++ {
		_, err := h.ledger.CreateSportEvent(ctx, params)
		assert.ErrorIs(t, err, ledgererr.ErrDuplicateEvent)
	}

	params.GenderID = uint8(entities.GenderWomen)
	other, err := h.ledger.CreateSportEvent(ctx, params)
	require.NoError(t, err)
	assert.NotEqual(t, original.UID, other.UID)
}

func TestLedger_CreateSportEventValidation(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)

	valid := func() entities.SportEventParams {
		return entities.SportEventParams{
			Title:          "A - B",
			StartTime:      testStartTime,
			ChoiceLabels:   []string{"home", "away"},
			InitialWeights: []int64{10, 10},
			SeedPool:       100,
		}
	}

	tests := []struct {
		name    string
		mutate  func(p *entities.SportEventParams)
		wantErr error
	}{
		{"one choice", func(p *entities.SportEventParams) {
			p.ChoiceLabels, p.InitialWeights = []string{"x"}, []int64{1}
		}, ledgererr.ErrInvalidChoiceCount},
		{"four choices", func(p *entities.SportEventParams) {
			p.ChoiceLabels, p.InitialWeights = []string{"a", "b", "c", "d"}, []int64{1, 1, 1, 1}
		}, ledgererr.ErrInvalidChoiceCount},
		{"weight count mismatch", func(p *entities.SportEventParams) {
			p.InitialWeights = []int64{10}
		}, ledgererr.ErrInvalidChoiceCount},
		{"zero weight", func(p *entities.SportEventParams) {
			p.InitialWeights = []int64{10, 0}
		}, ledgererr.ErrInvalidWeight},
		{"negative seed", func(p *entities.SportEventParams) {
			p.SeedPool = -1
		}, ledgererr.ErrInvalidSeedPool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid()
			tt.mutate(&params)
			_, err := h.ledger.CreateSportEvent(ctx, params)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, ledgererr.KindValidation, ledgererr.KindOf(err))
		})
	}

	events, err := h.ledger.EventsByDate(ctx, testStartTime)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestLedger_PaginationCoversEveryBet(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	event := h.createEvent(t, "A - B", 100, 10, 10)

	const total = 1250
	h.fund(t, alice, total)
	h.fund(t, bob, 10)
	for i := 0; i < total; i++ {
		_, err := h.ledger.PlaceBet(ctx, alice, event.UID, i%2, 1)
		require.NoError(t, err)
		if i == 600 {
			_, err := h.ledger.PlaceBet(ctx, bob, event.UID, 0, 1)
			require.NoError(t, err)
		}
	}

	count, err := h.ledger.BetCountByUser(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(total), count)

	all, err := h.ledger.BetsByUserPaged(ctx, alice, 0, total+100)
	require.NoError(t, err)
	require.Len(t, all, total)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}

	seen := make(map[int64]int, total)
	for offset := 0; offset < total; offset += 97 {
		page, err := h.ledger.BetsByUserPaged(ctx, alice, offset, 97)
		require.NoError(t, err)
		for j, bet := range page {
			assert.Equal(t, all[offset+j].ID, bet.ID)
			seen[bet.ID]++
		}
	}
	assert.Len(t, seen, total)
	for id, n := range seen {
		assert.Equal(t, 1, n, "bet %d", id)
	}

	tail, err := h.ledger.BetsByUserPaged(ctx, alice, 1200, 100)
	require.NoError(t, err)
	assert.Len(t, tail, 50)

	empty, err := h.ledger.BetsByUserPaged(ctx, alice, total, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLedger_BetsPageAgreesWithTotal(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	event := h.createEvent(t, "A - B", 100, 10, 10)

	const bets = 300
	h.fund(t, alice, bets)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < bets; i++ {
			_, err := h.ledger.PlaceBet(ctx, alice, event.UID, i%2, 1)
			assert.NoError(t, err)
		}
	}()

	for reading := true; reading; {
		select {
		case <-done:
			reading = false
		default:
		}
		page, err := h.ledger.BetsPageByUser(ctx, alice, 0, bets)
		require.NoError(t, err)
		require.Len(t, page.Bets, int(page.Total))
	}

	page, err := h.ledger.BetsPageByUser(ctx, alice, 250, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(bets), page.Total)
	assert.Equal(t, 250, page.Offset)
	assert.Len(t, page.Bets, 50)
}

func TestLedger_DateQueries(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	football := h.createEvent(t, "A - B", 100, 10, 10)
	_, err := h.ledger.CreateSportEvent(ctx, entities.SportEventParams{
		Title:          "Lakers - Celtics",
		StartTime:      testStartTime + 60,
		SportID:        uint8(entities.SportBasketball),
		ChoiceLabels:   []string{"home", "away"},
		InitialWeights: []int64{5, 5},
	})
	require.NoError(t, err)
	second := h.createEvent(t, "C - D", 100, 10, 10)

	h.fund(t, alice, 100)
	h.fund(t, bob, 100)
	_, err = h.ledger.PlaceBet(ctx, alice, football.UID, 0, 1)
	require.NoError(t, err)
	_, err = h.ledger.PlaceBet(ctx, bob, second.UID, 1, 2)
	require.NoError(t, err)
	_, err = h.ledger.PlaceBet(ctx, alice, second.UID, 0, 3)
	require.NoError(t, err)

	day := entities.DayOf(testStartTime)

	byDay, err := h.ledger.EventsByDate(ctx, day)
	require.NoError(t, err)
	assert.Len(t, byDay, 3)

	bySport, err := h.ledger.EventsByDateAndSport(ctx, day, uint8(entities.SportFootball))
	require.NoError(t, err)
	require.Len(t, bySport, 2)
	assert.Equal(t, football.UID, bySport[0].UID)
	assert.Equal(t, second.UID, bySport[1].UID)

	bets, err := h.ledger.BetsByDate(ctx, day)
	require.NoError(t, err)
	assert.Len(t, bets, 3)

	aliceBets, err := h.ledger.BetsByDateAndUser(ctx, day, alice)
	require.NoError(t, err)
	require.Len(t, aliceBets, 2)
	assert.Equal(t, int64(1), aliceBets[0].ID)
	assert.Equal(t, int64(3), aliceBets[1].ID)

	nextDay := day + entities.SecondsPerDay
	empty, err := h.ledger.EventsByDate(ctx, nextDay)
	require.NoError(t, err)
	assert.Empty(t, empty)
	noBets, err := h.ledger.BetsByDateAndUser(ctx, nextDay, alice)
	require.NoError(t, err)
	assert.Empty(t, noBets)

	_, err = h.ledger.GetSportEvent(ctx, common.Hash{})
	assert.ErrorIs(t, err, ledgererr.ErrEventNotFound)
	_, err = h.ledger.GetBet(ctx, 42)
	assert.ErrorIs(t, err, ledgererr.ErrInvalidBetID)
}

func TestLedger_PlaceBetFailures(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	event := h.createEvent(t, "A - B", 100, 10, 10)
	h.fund(t, alice, 100)

	tests := []struct {
		name    string
		uid     entities.EventUID
		choice  int
		amount  int64
		wantErr error
	}{
		{"unknown event", common.HexToHash("0x01"), 0, 5, ledgererr.ErrEventNotFound},
		{"choice out of range", event.UID, 2, 5, ledgererr.ErrInvalidChoice},
		{"negative choice", event.UID, -1, 5, ledgererr.ErrInvalidChoice},
		{"zero amount", event.UID, 0, 0, ledgererr.ErrInvalidAmount},
		{"more than balance", event.UID, 0, 101, ledgererr.ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.ledger.PlaceBet(ctx, alice, tt.uid, tt.choice, tt.amount)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, int64(100), h.balance(t, alice))
	assert.Equal(t, int64(100), h.event(t, event.UID).PoolAmount)
}

func TestLedger_StakingClosesAtStart(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t,
		withPolicy(services.UntilStartTime{}),
		withClock(services.FixedClock{At: time.Unix(testStartTime, 0)}),
	)
	event := h.createEvent(t, "A - B", 100, 10, 10)
	h.fund(t, alice, 100)

	_, err := h.ledger.PlaceBet(ctx, alice, event.UID, 0, 5)
	assert.ErrorIs(t, err, ledgererr.ErrStakingClosed)
	assert.Equal(t, int64(100), h.balance(t, alice))

	_, err = h.ledger.PreviewReturn(ctx, event.UID, 0, 5)
	assert.ErrorIs(t, err, ledgererr.ErrStakingClosed)
}

func TestLedger_ConcurrentStakesAreSerialized(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	event := h.createEvent(t, "A - B", 100, 10, 10, 10)

	const bettors, betsEach = 16, 12
	for i := 0; i < bettors; i++ {
		h.fund(t, bettorName(i), 1000)
	}

	var wg sync.WaitGroup
	errs := make(chan error, bettors*betsEach)
	for i := 0; i < bettors; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < betsEach; j++ {
				if _, err := h.ledger.PlaceBet(ctx, bettorName(i), event.UID, (i+j)%3, int64(j+1)); err != nil {
					errs <- err
				}
			}
		}(i)
	}

	// readers run alongside the writers and always see a consistent pool
	done := make(chan struct{})
	go func() {
		defer close(done)
		for k := 0; k < 50; k++ {
			got, err := h.ledger.GetSportEvent(ctx, event.UID)
			if err != nil {
				errs <- err
				return
			}
			var sum int64
			for _, c := range got.Choices {
				sum += c.TotalBetsAmount - c.InitialWeight
			}
			if sum != got.StakedAmount() {
				errs <- errors.New("torn read of event pool")
				return
			}
		}
	}()

	wg.Wait()
	<-done
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	perBettor := int64(betsEach * (betsEach + 1) / 2)
	got := h.event(t, event.UID)
	assert.Equal(t, got.SeedPool+bettors*perBettor, got.PoolAmount)

	all, err := h.ledger.BetsByDate(ctx, entities.DayOf(testNow.Unix()))
	require.NoError(t, err)
	require.Len(t, all, bettors*betsEach)
	for i, bet := range all {
		assert.Equal(t, int64(i+1), bet.ID)
	}

	// notifications carry a gapless commit sequence
	published := h.published.Events()
	for i, e := range published {
		assert.Equal(t, uint64(i+1), e.Sequence())
	}
}

func bettorName(i int) string {
	return string(rune('a'+i)) + "-bettor"
}

func TestLedger_NotificationsFollowCommitOrder(t *testing.T) {
	ctx := context.Background()
	h := newLedgerHarness(t)
	event := h.createEvent(t, "Brazil - Argentina", 100, 10, 10, 10)
	h.fund(t, bob, 100)
	h.fund(t, entities.EscrowAccountID, 1000)

	bet, err := h.ledger.PlaceBet(ctx, bob, event.UID, 2, 10)
	require.NoError(t, err)
	_, err = h.ledger.ManualFinalize(ctx, testOperator, event.UID, 2)
	require.NoError(t, err)
	_, err = h.ledger.ClaimWinnings(ctx, bob, bet.ID)
	require.NoError(t, err)

	var types []events.EventType
	for _, e := range h.published.Events() {
		types = append(types, e.Type())
	}
	assert.Equal(t, []events.EventType{
		events.EventTypeEventCreated,
		events.EventTypeBetPlaced,
		events.EventTypeMatchFinalized,
		events.EventTypeWinningsClaimed,
	}, types)

	published := h.published.Events()
	created := published[0].(events.EventCreated)
	assert.Equal(t, event.UID, created.UID)
	assert.Equal(t, "Brazil - Argentina", created.Title)

	placed := published[1].(events.BetPlaced)
	assert.Equal(t, bet.ID, placed.BetID)
	assert.Equal(t, bob, placed.Bettor)
	assert.Equal(t, 2, placed.ChoiceID)

	finalized := published[2].(events.MatchFinalized)
	assert.Equal(t, 2, finalized.ResultChoiceID)
	assert.Equal(t, "draw", finalized.ResultLabel)
	assert.True(t, finalized.Manual)
}

func TestLedger_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	mp := observability.NewMetricsProvider(true)
	require.NoError(t, mp.Initialize(ctx))
	defer mp.Shutdown(ctx)

	h := newLedgerHarness(t, withMetrics(mp))
	event := h.createEvent(t, "A - B", 100, 10, 10)
	h.fund(t, alice, 100)
	h.fund(t, entities.EscrowAccountID, 1000)

	bet, err := h.ledger.PlaceBet(ctx, alice, event.UID, 0, 5)
	require.NoError(t, err)
	_, err = h.ledger.ManualFinalize(ctx, testOperator, event.UID, 1)
	require.NoError(t, err)
	_, err = h.ledger.ClaimWinnings(ctx, alice, bet.ID)
	require.ErrorIs(t, err, ledgererr.ErrNotWinner)

	rec := httptest.NewRecorder()
	mp.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "betledger_events_created_total 1")
	assert.Contains(t, string(body), "betledger_stake_volume_total 5")
	assert.Contains(t, string(body), `reason="NotWinner"`)
	assert.Contains(t, string(body), `source="manual"`)
}
