package infrastructure

import (
	"context"
	"sync/atomic"

	"betledger/domain/events"
	"betledger/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// TransactionalPublisher holds events until flush, then stamps them with the
// commit sequence and hands them to the real publisher
type TransactionalPublisher struct {
	realPublisher interfaces.EventPublisher
	sequence      *atomic.Uint64
	pending       []events.Event

	// set when storage reserved the sequence numbers of this transaction
	reserved bool
	next     uint64
}

// NewTransactionalPublisher creates a new transactional publisher. sequence is
// shared by every publisher of one process and must only advance under the
// writer lock; it numbers events unless StartAfter was called.
func NewTransactionalPublisher(realPublisher interfaces.EventPublisher, sequence *atomic.Uint64) *TransactionalPublisher {
	return &TransactionalPublisher{
		realPublisher: realPublisher,
		sequence:      sequence,
		pending:       make([]events.Event, 0),
	}
}

// Publish stores an event in the pending queue without immediately publishing
func (p *TransactionalPublisher) Publish(event events.Event) error {
	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"pendingCount": len(p.pending),
	}).Debug("Adding event to transactional publisher pending queue")

	p.pending = append(p.pending, event)
	return nil
}

// StartAfter numbers the next flush from last+1, using sequence numbers the
// storage transaction reserved
func (p *TransactionalPublisher) StartAfter(last uint64) {
	p.reserved = true
	p.next = last
}

func (p *TransactionalPublisher) nextSequence() uint64 {
	if p.reserved {
		p.next++
		return p.next
	}
	return p.sequence.Add(1)
}

// Flush publishes all pending events in emission order.
// This should be called after successful storage commit.
func (p *TransactionalPublisher) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(p.pending),
	}).Debug("Flushing pending events")

	for _, event := range p.pending {
		stamped := event.WithSequence(p.nextSequence())
		if err := p.realPublisher.Publish(stamped); err != nil {
			// Continue with other events; sinks are best-effort after commit
			log.WithFields(log.Fields{
				"eventType": stamped.Type(),
				"sequence":  stamped.Sequence(),
				"error":     err,
			}).Error("Failed to publish event during flush")
		}
	}

	p.pending = p.pending[:0]
	p.reserved = false
	return nil
}

// Discard clears all pending events without publishing them.
// This should be called on storage rollback.
func (p *TransactionalPublisher) Discard() {
	log.WithFields(log.Fields{
		"discardedEventCount": len(p.pending),
	}).Debug("Discarding pending events")

	p.pending = p.pending[:0]
	p.reserved = false
}

// Pending returns how many events wait for the next flush
func (p *TransactionalPublisher) Pending() int {
	return len(p.pending)
}
