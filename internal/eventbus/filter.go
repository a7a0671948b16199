package eventbus

import (
	"context"

	"github.com/recist-io/recist/internal/models"
)

// EventFilter matches events against an allowlist of event types. An empty
// allowlist matches everything.
type EventFilter struct {
	allowedTypes []models.AgentEventType
}

// NewEventFilter creates a filter for the given event types.
func NewEventFilter(allowedTypes ...models.AgentEventType) *EventFilter {
	return &EventFilter{allowedTypes: allowedTypes}
}

// Matches reports whether the event passes the filter.
func (f *EventFilter) Matches(event models.AgentEvent) bool {
	if len(f.allowedTypes) == 0 {
		return true
	}
	for _, t := range f.allowedTypes {
		if t == event.EventType {
			return true
		}
	}
	return false
}

// FilteredReceiver wraps a Receiver and discards events the filter rejects.
type FilteredReceiver struct {
	receiver *Receiver
	filter   *EventFilter
}

// NewFilteredReceiver wraps the receiver with the filter.
func NewFilteredReceiver(receiver *Receiver, filter *EventFilter) *FilteredReceiver {
	return &FilteredReceiver{receiver: receiver, filter: filter}
}

// Recv blocks until an event passing the filter arrives, the context is
// cancelled, or the underlying receiver is closed.
func (fr *FilteredReceiver) Recv(ctx context.Context) (models.AgentEvent, error) {
	for {
		event, err := fr.receiver.Recv(ctx)
		if err != nil {
			return models.AgentEvent{}, err
		}
		if fr.filter.Matches(event) {
			return event, nil
		}
	}
}

// Close closes the underlying receiver.
func (fr *FilteredReceiver) Close() {
	fr.receiver.Close()
}
