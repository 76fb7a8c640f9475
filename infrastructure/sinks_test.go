package infrastructure

import (
	"encoding/json"
	"errors"
	"testing"

	"betledger/domain/events"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUID = common.HexToHash("0x6c3b2fb4e0e0e2b01f3c8f7d4b1b39a1d5b4a7fa8b7b3c1c4ad8e2a5e7e0a101")

func TestEventSubjectMapper(t *testing.T) {
	mapper := NewEventSubjectMapper()

	tests := []struct {
		event   events.Event
		subject string
	}{
		{events.EventCreated{}, "ledger.events.created"},
		{events.BetPlaced{}, "ledger.bets.placed"},
		{events.MatchFinalized{}, "ledger.matches.finalized"},
		{events.WinningsClaimed{}, "ledger.winnings.claimed"},
	}
	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			assert.Equal(t, tt.subject, mapper.MapEventToSubject(tt.event))
			assert.Equal(t, tt.event.Type(), mapper.MapSubjectToEventType(tt.subject))
			assert.Contains(t, mapper.GetAllSubjects(), tt.subject)
		})
	}
}

func TestNATSEventPublisher(t *testing.T) {
	client := &fakeNATS{}
	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper())

	event := events.BetPlaced{Seq: 7, BetID: 3, UID: testUID, Bettor: "alice", Amount: 5, ChoiceID: 1}
	require.NoError(t, publisher.Publish(event))

	require.Len(t, client.subjects, 1)
	assert.Equal(t, "ledger.bets.placed", client.subjects[0])
	assert.Equal(t, "betledger-7", client.msgIDs[0])

	envelope, err := DecodeEventEnvelope(client.payloads[0])
	require.NoError(t, err)
	assert.Equal(t, "bet_placed", envelope.EventType)
	assert.Equal(t, uint64(7), envelope.Sequence)
	assert.Equal(t, testUID.Hex(), envelope.Key)
	assert.Equal(t, SourceService, envelope.SourceService)
	_, err = uuid.Parse(envelope.EventID)
	assert.NoError(t, err)

	var payload events.BetPlaced
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event, payload)

	client.err = errors.New("no responders")
	assert.Error(t, publisher.Publish(event))
}

func TestKafkaEventPublisher(t *testing.T) {
	writer := &fakeKafkaWriter{}
	publisher := NewKafkaEventPublisher(writer)

	require.NoError(t, publisher.Publish(events.WinningsClaimed{Seq: 2, BetID: 1, UID: testUID, Bettor: "alice", Payout: 55}))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, testUID.Hex(), string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "winnings_claimed", string(msg.Headers[0].Value))

	envelope, err := DecodeEventEnvelope(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), envelope.Sequence)

	require.NoError(t, publisher.Close())
	assert.True(t, writer.closed)
}

func TestDiscordNotifier(t *testing.T) {
	webhook := &fakeWebhook{}
	notifier := newDiscordNotifier(webhook, "123", "token")

	require.NoError(t, notifier.Publish(events.BetPlaced{}), "other events are ignored")
	assert.Empty(t, webhook.calls)

	require.NoError(t, notifier.Publish(events.MatchFinalized{
		Seq: 9, UID: testUID, Title: "Italy - Brazil", ResultChoiceID: 1, ResultLabel: "Brazil", Multiplier: 5500,
	}))
	require.Len(t, webhook.calls, 1)
	embed := webhook.calls[0].Embeds[0]
	assert.Contains(t, embed.Title, "Italy - Brazil")
	assert.Contains(t, embed.Description, "Brazil")
	assert.Equal(t, "5.500x", embed.Fields[0].Value)
	assert.Equal(t, "attested", embed.Fields[1].Value)

	webhook.err = errors.New("rate limited")
	assert.Error(t, notifier.Publish(events.MatchFinalized{UID: testUID, Manual: true}))
}

func TestFormatMultiplier(t *testing.T) {
	tests := map[int64]string{
		1000:  "1.000",
		1333:  "1.333",
		5500:  "5.500",
		10000: "10.000",
		999:   "0.999",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatMultiplier(in))
	}
}
