package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/recist-io/recist/internal/models"
)

func TestEventFilterMatches(t *testing.T) {
	faultEvent := testEvent(uuid.NewString())
	healingEvent := models.NewHealingCompleteEvent(uuid.NewString(), models.HealingCompletePayload{Success: true, Message: "ok"})

	tests := []struct {
		name    string
		allowed []models.AgentEventType
		event   models.AgentEvent
		want    bool
	}{
		{
			name:    "empty allowlist matches everything",
			allowed: nil,
			event:   healingEvent,
			want:    true,
		},
		{
			name:    "matching type",
			allowed: []models.AgentEventType{models.EventFaultDetected},
			event:   faultEvent,
			want:    true,
		},
		{
			name:    "non-matching type",
			allowed: []models.AgentEventType{models.EventFaultDetected},
			event:   healingEvent,
			want:    false,
		},
		{
			name:    "multiple allowed types",
			allowed: []models.AgentEventType{models.EventFaultDetected, models.EventHealingComplete},
			event:   healingEvent,
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := NewEventFilter(tt.allowed...)
			if got := filter.Matches(tt.event); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilteredReceiverSkipsRejected(t *testing.T) {
	bus := New()
	receiver := bus.Subscribe(models.AgentKnowledge, models.EventHealingComplete)
	filtered := NewFilteredReceiver(receiver, NewEventFilter(models.EventHealingComplete))
	defer filtered.Close()

	if _, err := bus.Publish(testEvent(uuid.NewString())); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	correlationID := uuid.NewString()
	if _, err := bus.Publish(models.NewHealingCompleteEvent(correlationID, models.HealingCompletePayload{Success: true, Message: "ok"})); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	event, err := filtered.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	if event.EventType != models.EventHealingComplete {
		t.Errorf("EventType = %s, want %s", event.EventType, models.EventHealingComplete)
	}
	if event.CorrelationID != correlationID {
		t.Errorf("CorrelationID = %s, want %s", event.CorrelationID, correlationID)
	}
}
