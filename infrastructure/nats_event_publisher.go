package infrastructure

import (
	"context"
	"fmt"
	"time"

	"betledger/domain/events"

	log "github.com/sirupsen/logrus"
)

// DomainEventStream is the JetStream stream carrying ledger notifications
const DomainEventStream = "ledger_events"

// natsPublisher is the part of NATSClient the event publisher needs
type natsPublisher interface {
	PublishWithID(ctx context.Context, subject, msgID string, data []byte) error
}

// NATSEventPublisher implements the EventPublisher interface using NATS
type NATSEventPublisher struct {
	client        natsPublisher
	subjectMapper *EventSubjectMapper
	timeout       time.Duration
}

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(client natsPublisher, subjectMapper *EventSubjectMapper) *NATSEventPublisher {
	return &NATSEventPublisher{
		client:        client,
		subjectMapper: subjectMapper,
		timeout:       5 * time.Second,
	}
}

// Publish publishes an event to NATS using the appropriate subject
func (p *NATSEventPublisher) Publish(event events.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	subject := p.subjectMapper.MapEventToSubject(event)
	envelope, err := NewEventEnvelope(event)
	if err != nil {
		return err
	}
	data, err := envelope.Encode()
	if err != nil {
		return err
	}

	msgID := fmt.Sprintf("%s-%d", SourceService, event.Sequence())
	if err := p.client.PublishWithID(ctx, subject, msgID, data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"sequence":  event.Sequence(),
		"subject":   subject,
	}).Debug("Successfully published event to NATS")
	return nil
}

// EnsureDomainEventStream ensures the ledger stream exists with the correct subjects
func EnsureDomainEventStream(client *NATSClient, mapper *EventSubjectMapper) error {
	return client.EnsureStream(DomainEventStream, mapper.GetAllSubjects())
}
