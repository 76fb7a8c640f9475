package infrastructure

import (
	"context"
	"fmt"
	"time"

	"betledger/domain/events"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// kafkaWriter is the part of *kafka.Writer the publisher needs
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEventPublisher writes envelopes to one topic keyed by event uid, so all
// notifications of a sport event land on one partition in order
type KafkaEventPublisher struct {
	writer  kafkaWriter
	timeout time.Duration
}

// NewKafkaWriter creates a hash-balanced writer for the topic
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaEventPublisher creates a new Kafka event publisher
func NewKafkaEventPublisher(writer kafkaWriter) *KafkaEventPublisher {
	return &KafkaEventPublisher{writer: writer, timeout: 10 * time.Second}
}

// Publish writes the event envelope to Kafka
func (p *KafkaEventPublisher) Publish(event events.Event) error {
	envelope, err := NewEventEnvelope(event)
	if err != nil {
		return err
	}
	data, err := envelope.Encode()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.Key()),
		Value: data,
		Time:  envelope.Timestamp.AsTime(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type())},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event to kafka: %w", err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"sequence":  event.Sequence(),
		"key":       event.Key(),
	}).Debug("Published event to Kafka")
	return nil
}

// Close flushes and closes the writer
func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}
