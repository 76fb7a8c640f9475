package infrastructure

import (
	"context"
	"errors"
	"sync"

	"betledger/domain/events"
	"betledger/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// Dispatcher fans committed events out to local handlers and every configured sink
type Dispatcher struct {
	mu            sync.RWMutex
	sinks         []interfaces.EventPublisher
	localHandlers map[events.EventType][]func(context.Context, events.Event) error
}

// NewDispatcher creates a dispatcher over the given sinks
func NewDispatcher(sinks ...interfaces.EventPublisher) *Dispatcher {
	return &Dispatcher{
		sinks:         sinks,
		localHandlers: make(map[events.EventType][]func(context.Context, events.Event) error),
	}
}

// AddSink appends a sink; events already dispatched are not replayed
func (d *Dispatcher) AddSink(sink interfaces.EventPublisher) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, sink)
}

// RegisterLocalHandler registers a handler that will be invoked in-process for events
func (d *Dispatcher) RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.localHandlers[eventType] = append(d.localHandlers[eventType], handler)
	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(d.localHandlers[eventType]),
	}).Info("Registered local event handler")
}

// Publish runs local handlers, then hands the event to every sink. A failing
// handler or sink does not stop the others; their errors are joined.
func (d *Dispatcher) Publish(event events.Event) error {
	ctx := context.Background()
	d.mu.RLock()
	handlers := d.localHandlers[event.Type()]
	sinks := d.sinks
	d.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Local event handler failed")
			errs = append(errs, err)
		}
	}

	for _, sink := range sinks {
		if err := sink.Publish(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
