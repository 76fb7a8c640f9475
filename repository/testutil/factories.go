package testutil

import (
	"betledger/domain/entities"
	"betledger/domain/eventid"
	"betledger/domain/odds"
)

// TestDay is the UTC day bucket the default fixtures fall in
const TestDay int64 = 1720051200

// CreateTestSportEvent builds an open event with equal seed weights on each label
func CreateTestSportEvent(title string, sportID uint8, startTime int64, labels ...string) *entities.SportEvent {
	if len(labels) == 0 {
		labels = []string{"home", "away"}
	}
	uid, err := eventid.Derive(sportID, 0, startTime, title)
	if err != nil {
		panic(err)
	}

	const seedPool, weight = int64(100), int64(10)
	weights := make([]int64, len(labels))
	for i := range weights {
		weights[i] = weight
	}
	multipliers, err := odds.Multipliers(seedPool, weights)
	if err != nil {
		panic(err)
	}

	event := &entities.SportEvent{
		UID:        uid,
		Title:      title,
		StartTime:  startTime,
		SportID:    sportID,
		PoolAmount: seedPool,
		SeedPool:   seedPool,
		Status:     entities.SportEventStatusOpen,
	}
	for i, label := range labels {
		event.Choices = append(event.Choices, entities.Choice{
			ID:                i,
			Label:             label,
			InitialWeight:     weight,
			TotalBetsAmount:   weight,
			CurrentMultiplier: multipliers[i],
		})
	}
	return event
}

// CreateTestBet builds an unclaimed bet on choice 0
func CreateTestBet(id int64, event *entities.SportEvent, bettor string, amount int64) *entities.Bet {
	return &entities.Bet{
		ID:            id,
		EventUID:      event.UID,
		Bettor:        bettor,
		Amount:        amount,
		WinMultiplier: event.Choices[0].CurrentMultiplier,
		PlacedAt:      TestDay + 600,
	}
}
