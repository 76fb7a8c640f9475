package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOf(t *testing.T) {
	tests := []struct {
		name string
		ts   int64
		want int64
	}{
		{"midnight", 1720051200, 1720051200},
		{"mid day", 1720009222, 1719964800},
		{"last second", 1720051199, 1719964800},
		{"epoch", 0, 0},
		{"before epoch", -1, -86400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DayOf(tt.ts))
		})
	}
}

func TestSportEvent_Clone(t *testing.T) {
	result := 1
	original := &SportEvent{
		Title:          "Italy - Brazil",
		Choices:        []Choice{{ID: 0, Label: "Italy", TotalBetsAmount: 10}, {ID: 1, Label: "Brazil", TotalBetsAmount: 20}},
		Status:         SportEventStatusFinalized,
		ResultChoiceID: &result,
	}

	clone := original.Clone()
	clone.Choices[0].TotalBetsAmount = 99
	*clone.ResultChoiceID = 0

	assert.Equal(t, int64(10), original.Choices[0].TotalBetsAmount)
	assert.Equal(t, 1, *original.ResultChoiceID)
}

func TestSportEvent_Finalize(t *testing.T) {
	event := &SportEvent{Status: SportEventStatusOpen, Choices: make([]Choice, 3)}

	event.Finalize(2)
	require.True(t, event.IsFinalized())
	assert.Equal(t, 2, *event.ResultChoiceID)

	// finalization is irreversible
	event.Finalize(0)
	assert.Equal(t, 2, *event.ResultChoiceID)
}

func TestSportEvent_HasChoice(t *testing.T) {
	event := &SportEvent{Choices: make([]Choice, 2)}

	assert.True(t, event.HasChoice(0))
	assert.True(t, event.HasChoice(1))
	assert.False(t, event.HasChoice(2))
	assert.False(t, event.HasChoice(-1))
}

func TestParseSport(t *testing.T) {
	s, err := ParseSport("Soccer")
	require.NoError(t, err)
	assert.Equal(t, SportFootball, s)

	s, err = ParseSport("Ice Hockey")
	require.NoError(t, err)
	assert.Equal(t, SportIceHockey, s)

	_, err = ParseSport("quidditch")
	assert.Error(t, err)
}

func TestParseGender(t *testing.T) {
	g, err := ParseGender("Women")
	require.NoError(t, err)
	assert.Equal(t, GenderWomen, g)

	_, err = ParseGender("unknown")
	assert.Error(t, err)
}
