package infrastructure

import (
	"fmt"

	"betledger/domain/events"
)

// EventSubjectMapper handles mapping between ledger events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

var subjectsByType = map[events.EventType]string{
	events.EventTypeEventCreated:    "ledger.events.created",
	events.EventTypeBetPlaced:       "ledger.bets.placed",
	events.EventTypeMatchFinalized:  "ledger.matches.finalized",
	events.EventTypeWinningsClaimed: "ledger.winnings.claimed",
}

// MapEventToSubject converts an event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByType[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("ledger.unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range subjectsByType {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"ledger.events.created",
		"ledger.bets.placed",
		"ledger.matches.finalized",
		"ledger.winnings.claimed",
	}
}
