// Package messaging delivers domain events from the platform to interested
// handlers. Delivery is synchronous: Publish returns after every handler ran,
// so reports appear in the same order as the operations that produced them.
package messaging

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/onlinelearn/learning-platform/internal/domain/shared"
	"github.com/onlinelearn/learning-platform/pkg/logger"
)

// ErrEventBusClosed is returned when publishing to or subscribing on a closed bus.
var ErrEventBusClosed = errors.New("event bus is closed")

// ══════════════════════════════════════════════════════════════════════════════
// EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// EventBus is an in-process, synchronous implementation of shared.EventPublisher.
// Handlers for a specific type run first, then global handlers, each in
// subscription order. A failing or panicking handler is logged and does not
// stop delivery to the rest.
type EventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	log         *logger.Logger
	metrics     *EventBusMetrics
	closed      bool
}

// NewEventBus creates an event bus. log may be nil.
func NewEventBus(log *logger.Logger) *EventBus {
	if log == nil {
		log = logger.Nop()
	}
	return &EventBus{
		handlers: make(map[shared.EventType][]shared.EventHandler),
		log:      log.With(logger.Component("eventbus")),
		metrics:  NewEventBusMetrics(),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *EventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.log.Debug("subscribed handler", logger.String("event_type", string(eventType)))
	return nil
}

// SubscribeAll registers a handler for all events.
func (b *EventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.allHandlers = append(b.allHandlers, handler)
	b.log.Debug("subscribed global handler")
	return nil
}

// Publish delivers the event to all subscribed handlers and implements
// shared.EventPublisher. Handler errors are not returned.
func (b *EventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	b.metrics.RecordPublish(event.EventType())

	for _, handler := range handlers {
		start := time.Now()
		err := b.execute(event, handler)
		b.metrics.RecordHandlerExecution(event.EventType(), time.Since(start), err == nil)

		if err != nil {
			b.log.Error("handler error",
				logger.String("event_type", string(event.EventType())),
				logger.Err(err))
		}
	}

	return nil
}

func (b *EventBus) execute(event shared.Event, handler shared.EventHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(event)
}

// Close stops the bus. Subsequent Publish and Subscribe calls fail.
func (b *EventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		b.log.Debug("event bus closed")
	}
	return nil
}

// Metrics returns the bus metrics.
func (b *EventBus) Metrics() *EventBusMetrics {
	return b.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// EventBusMetrics counts published events and handler outcomes.
type EventBusMetrics struct {
	mu            sync.Mutex
	published     map[shared.EventType]int64
	handled       int64
	failed        int64
	totalDuration time.Duration
}

// NewEventBusMetrics creates empty metrics.
func NewEventBusMetrics() *EventBusMetrics {
	return &EventBusMetrics{published: make(map[shared.EventType]int64)}
}

// RecordPublish counts one published event.
func (m *EventBusMetrics) RecordPublish(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[eventType]++
}

// RecordHandlerExecution counts one handler run.
func (m *EventBusMetrics) RecordHandlerExecution(_ shared.EventType, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handled++
	m.totalDuration += duration
	if !success {
		m.failed++
	}
}

// EventBusMetricsSnapshot is a point-in-time copy of EventBusMetrics.
type EventBusMetricsSnapshot struct {
	Published       map[shared.EventType]int64
	TotalPublished  int64
	HandlerRuns     int64
	HandlerFailures int64
	AvgHandlerTime  time.Duration
}

// Snapshot returns a copy of the current metrics.
func (m *EventBusMetrics) Snapshot() EventBusMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := EventBusMetricsSnapshot{
		Published:       make(map[shared.EventType]int64, len(m.published)),
		HandlerRuns:     m.handled,
		HandlerFailures: m.failed,
	}
	for t, n := range m.published {
		s.Published[t] = n
		s.TotalPublished += n
	}
	if m.handled > 0 {
		s.AvgHandlerTime = m.totalDuration / time.Duration(m.handled)
	}
	return s
}

// Reset clears all counters.
func (m *EventBusMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.published = make(map[shared.EventType]int64)
	m.handled = 0
	m.failed = 0
	m.totalDuration = 0
}
