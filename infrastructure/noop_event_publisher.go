package infrastructure

import (
	"betledger/domain/events"
)

// NoopEventPublisher drops every notification. The factories fall back to it
// when no sink is configured.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a publisher with no sinks
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

func (*NoopEventPublisher) Publish(events.Event) error { return nil }
