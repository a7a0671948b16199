// Package eventbus provides the in-process broadcast channel that decouples
// the healing agents. Every event published for one incident carries the same
// correlation id; agents hold receivers, never references to one another.
package eventbus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/recist-io/recist/internal/logging"
	"github.com/recist-io/recist/internal/models"
)

// DefaultCapacity bounds each receiver's buffer. Slow consumers lose the
// oldest events rather than blocking producers.
const DefaultCapacity = 1024

// Bus is a multi-producer multi-consumer broadcast bus for agent events.
// All methods are safe for concurrent use.
type Bus struct {
	mu        sync.RWMutex
	receivers []*Receiver
	interests map[models.AgentType][]models.AgentEventType
	capacity  int
	logger    *logging.Logger
}

// New creates a bus with the default per-receiver capacity.
func New() *Bus {
	return NewWithCapacity(DefaultCapacity)
}

// NewWithCapacity creates a bus whose receivers buffer up to capacity events.
func NewWithCapacity(capacity int) *Bus {
	if capacity < 1 {
		capacity = 1
	}
	return &Bus{
		interests: make(map[models.AgentType][]models.AgentEventType),
		capacity:  capacity,
		logger:    logging.GetLogger("eventbus"),
	}
}

// Subscribe registers an agent's interest and returns an independent
// receiver. The event type list is recorded for introspection only; the
// receiver sees every published event and callers filter in their handlers
// (or wrap the receiver in a FilteredReceiver).
func (b *Bus) Subscribe(agent models.AgentType, eventTypes ...models.AgentEventType) *Receiver {
	r := &Receiver{
		ch:  make(chan models.AgentEvent, b.capacity),
		bus: b,
	}

	b.mu.Lock()
	b.receivers = append(b.receivers, r)
	b.interests[agent] = eventTypes
	b.mu.Unlock()

	b.logger.Info("Agent %s subscribed to event bus", agent)
	return r
}

// Publish sends the event to every live receiver and returns how many
// received it. It never blocks on a slow consumer: a full receiver drops its
// oldest buffered event to make room. Publishing with no live receivers
// fails with an EventBusError.
func (b *Bus) Publish(event models.AgentEvent) (int, error) {
	b.logger.Debug("Publishing event %s from %s", event.EventType, event.SourceAgent)

	b.mu.RLock()
	receivers := b.receivers
	b.mu.RUnlock()

	delivered := 0
	for _, r := range receivers {
		if r.offer(event) {
			delivered++
		}
	}

	if delivered == 0 {
		b.logger.Error("Failed to publish event %s: no active receivers", event.EventType)
		return 0, models.NewEventBusError("failed to publish event %s: no active receivers", event.EventType)
	}

	b.logger.Debug("Event sent to %d receivers", delivered)
	return delivered, nil
}

// SubscriberCount returns the number of live receivers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, r := range b.receivers {
		if !r.isClosed() {
			count++
		}
	}
	return count
}

// Interests returns the event types the given agent declared at subscribe
// time. The second return reports whether the agent ever subscribed.
func (b *Bus) Interests(agent models.AgentType) ([]models.AgentEventType, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	types, ok := b.interests[agent]
	return types, ok
}

// DroppedTotal sums the events lost by lagging receivers since the bus was
// created. Closed receivers still contribute their historical count.
func (b *Bus) DroppedTotal() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var total uint64
	for _, r := range b.receivers {
		total += r.Dropped()
	}
	return total
}

func (b *Bus) remove(target *Receiver) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, r := range b.receivers {
		if r == target {
			b.receivers = append(b.receivers[:i], b.receivers[i+1:]...)
			return
		}
	}
}

// Receiver is one subscriber's view of the bus. It must not be shared
// between consumer goroutines.
type Receiver struct {
	ch      chan models.AgentEvent
	bus     *Bus
	dropped atomic.Uint64

	mu     sync.Mutex
	closed bool
}

// offer delivers the event without blocking. When the buffer is full the
// oldest event is discarded and counted as dropped.
func (r *Receiver) offer(event models.AgentEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}

	for {
		select {
		case r.ch <- event:
			return true
		default:
		}
		select {
		case <-r.ch:
			lost := r.dropped.Add(1)
			r.bus.logger.Warn("Receiver lagged, %d events dropped so far", lost)
		default:
		}
	}
}

// Recv blocks until an event arrives, the context is cancelled, or the
// receiver is closed.
func (r *Receiver) Recv(ctx context.Context) (models.AgentEvent, error) {
	select {
	case <-ctx.Done():
		return models.AgentEvent{}, ctx.Err()
	case event, ok := <-r.ch:
		if !ok {
			return models.AgentEvent{}, models.NewEventBusError("channel closed")
		}
		return event, nil
	}
}

// Events exposes the receive channel for use in select loops. The channel is
// closed when the receiver is closed.
func (r *Receiver) Events() <-chan models.AgentEvent {
	return r.ch
}

// Dropped reports how many events this receiver lost to lag.
func (r *Receiver) Dropped() uint64 {
	return r.dropped.Load()
}

// Close unsubscribes the receiver from the bus. Pending buffered events are
// still readable until the channel drains.
func (r *Receiver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()

	r.bus.remove(r)
}

func (r *Receiver) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
