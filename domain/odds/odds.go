// Package odds computes parimutuel payout multipliers.
//
// Multipliers are fixed-point integers with Scale as the unit: a multiplier of
// 2500 pays 2.5x. All divisions floor, so rounding loss stays with the ledger.
// Intermediate products are computed in 256-bit arithmetic and rejected when
// the result does not fit an int64.
package odds

import (
	"math"

	"betledger/domain/ledgererr"

	"github.com/holiman/uint256"
)

// Scale is the fixed-point unit of a multiplier
const Scale int64 = 1000

var maxInt64 = uint256.NewInt(math.MaxInt64)

// Compute returns floor(totalPool * Scale / weights[choiceID])
func Compute(totalPool int64, weights []int64, choiceID int) (int64, error) {
	if choiceID < 0 || choiceID >= len(weights) {
		return 0, ledgererr.New(ledgererr.ReasonInvalidChoice, "choice %d out of range [0,%d)", choiceID, len(weights))
	}
	if totalPool < 0 {
		return 0, ledgererr.New(ledgererr.ReasonInvalidSeedPool, "pool must not be negative")
	}
	weight := weights[choiceID]
	if weight <= 0 {
		return 0, ledgererr.New(ledgererr.ReasonInvalidWeight, "choice %d has non-positive weight %d", choiceID, weight)
	}
	return mulDiv(totalPool, Scale, weight)
}

// Multipliers returns the current multiplier of every choice
func Multipliers(totalPool int64, weights []int64) ([]int64, error) {
	out := make([]int64, len(weights))
	for i := range weights {
		m, err := Compute(totalPool, weights, i)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// Projection is the state an event would reach after one more stake
type Projection struct {
	Pool       int64
	Weights    []int64
	Multiplier int64
}

// Project applies a stake of amount on choiceID to a copy of the pool state and
// returns the multiplier the stake would be frozen at. Preview and placement
// share this path so a preview immediately before a bet matches the bet.
func Project(totalPool int64, weights []int64, choiceID int, amount int64) (*Projection, error) {
	if amount <= 0 {
		return nil, ledgererr.New(ledgererr.ReasonInvalidAmount, "amount must be positive, got %d", amount)
	}
	if choiceID < 0 || choiceID >= len(weights) {
		return nil, ledgererr.New(ledgererr.ReasonInvalidChoice, "choice %d out of range [0,%d)", choiceID, len(weights))
	}

	pool, err := add(totalPool, amount)
	if err != nil {
		return nil, err
	}
	next := append([]int64(nil), weights...)
	if next[choiceID], err = add(next[choiceID], amount); err != nil {
		return nil, err
	}

	multiplier, err := Compute(pool, next, choiceID)
	if err != nil {
		return nil, err
	}
	return &Projection{Pool: pool, Weights: next, Multiplier: multiplier}, nil
}

// Payout returns floor(amount * multiplier / Scale)
func Payout(amount, multiplier int64) (int64, error) {
	if amount < 0 || multiplier < 0 {
		return 0, ledgererr.New(ledgererr.ReasonInvalidAmount, "amount and multiplier must not be negative")
	}
	return mulDiv(amount, multiplier, Scale)
}

func mulDiv(a, b, d int64) (int64, error) {
	product, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(uint64(a)), uint256.NewInt(uint64(b)))
	if overflow {
		return 0, ledgererr.New(ledgererr.ReasonOverflow, "%d * %d overflows", a, b)
	}
	q := new(uint256.Int).Div(product, uint256.NewInt(uint64(d)))
	if q.Gt(maxInt64) {
		return 0, ledgererr.New(ledgererr.ReasonOverflow, "%d * %d / %d exceeds int64", a, b, d)
	}
	return int64(q.Uint64()), nil
}

func add(a, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, ledgererr.New(ledgererr.ReasonOverflow, "%d + %d overflows", a, b)
	}
	return a + b, nil
}
