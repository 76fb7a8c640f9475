package infrastructure

import (
	"context"
	"sync"

	"betledger/domain/events"
	"betledger/domain/interfaces"

	"github.com/bwmarrin/discordgo"
	"github.com/segmentio/kafka-go"
)

// RecordingPublisher records published events
type RecordingPublisher struct {
	mu              sync.Mutex
	PublishedEvents []events.Event
	PublishError    error
}

func (m *RecordingPublisher) Publish(event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.PublishedEvents = append(m.PublishedEvents, event)
	return nil
}

func (m *RecordingPublisher) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.Event(nil), m.PublishedEvents...)
}

var _ interfaces.EventPublisher = (*RecordingPublisher)(nil)

type fakeNATS struct {
	subjects []string
	msgIDs   []string
	payloads [][]byte
	err      error
}

func (f *fakeNATS) PublishWithID(ctx context.Context, subject, msgID string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.msgIDs = append(f.msgIDs, msgID)
	f.payloads = append(f.payloads, data)
	return nil
}

type fakeKafkaWriter struct {
	messages []kafka.Message
	closed   bool
}

func (f *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeKafkaWriter) Close() error {
	f.closed = true
	return nil
}

type fakeWebhook struct {
	calls []*discordgo.WebhookParams
	err   error
}

func (f *fakeWebhook) WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, data)
	return &discordgo.Message{}, nil
}
