package services

import (
	"fmt"

	"betledger/domain/entities"
	"betledger/domain/interfaces"
	"betledger/domain/ledgererr"
)

// UntilFinalized keeps staking open until the result is recorded
type UntilFinalized struct{}

func (UntilFinalized) CanStake(event *entities.SportEvent, now int64) error {
	return nil
}

// UntilStartTime closes staking once the event has started
type UntilStartTime struct{}

func (UntilStartTime) CanStake(event *entities.SportEvent, now int64) error {
	if now >= event.StartTime {
		return ledgererr.New(ledgererr.ReasonStakingClosed, "event %s started at %d", event.UID.Hex(), event.StartTime)
	}
	return nil
}

// NewStakingPolicy resolves a policy by its configured name
func NewStakingPolicy(name string) (interfaces.StakingPolicy, error) {
	switch name {
	case "", "until_finalized":
		return UntilFinalized{}, nil
	case "until_start":
		return UntilStartTime{}, nil
	default:
		return nil, fmt.Errorf("unknown staking policy: %s", name)
	}
}
