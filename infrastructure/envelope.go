package infrastructure

import (
	"encoding/json"
	"fmt"

	"betledger/domain/events"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// SourceService names this service in every envelope
const SourceService = "betledger"

// EventEnvelope is the wire wrapper shared by the message bus sinks
type EventEnvelope struct {
	EventID       string                 `json:"eventId"`
	EventType     string                 `json:"eventType"`
	Sequence      uint64                 `json:"sequence"`
	Key           string                 `json:"key"`
	Timestamp     *timestamppb.Timestamp `json:"timestamp"`
	SourceService string                 `json:"sourceService"`
	Payload       json.RawMessage        `json:"payload"`
}

// NewEventEnvelope wraps an event with a fresh id and the current time
func NewEventEnvelope(event events.Event) (*EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Sequence:      event.Sequence(),
		Key:           event.Key(),
		Timestamp:     timestamppb.Now(),
		SourceService: SourceService,
		Payload:       payload,
	}, nil
}

// Encode serializes the envelope
func (e *EventEnvelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event envelope: %w", err)
	}
	return data, nil
}

// DecodeEventEnvelope parses an envelope produced by Encode
func DecodeEventEnvelope(data []byte) (*EventEnvelope, error) {
	var envelope EventEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}
	return &envelope, nil
}
