package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/recist-io/recist/api/v1alpha1"
)

// PhaseTransition is one recorded move of the healing state machine.
type PhaseTransition struct {
	// From is empty for the initial transition into Pending.
	From      v1alpha1.HealingPhase `json:"from,omitempty"`
	To        v1alpha1.HealingPhase `json:"to"`
	Timestamp time.Time             `json:"timestamp"`
	Reason    string                `json:"reason,omitempty"`
}

// HealingState drives one pipeline run through its phases and keeps the
// full transition history for the audit trail.
type HealingState struct {
	ID          string                `json:"id"`
	Phase       v1alpha1.HealingPhase `json:"phase"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Transitions []PhaseTransition     `json:"transitions"`
}

// NewHealingState starts a state machine in Pending.
func NewHealingState() *HealingState {
	now := time.Now().UTC()
	return &HealingState{
		ID:        uuid.NewString(),
		Phase:     v1alpha1.PhasePending,
		CreatedAt: now,
		UpdatedAt: now,
		Transitions: []PhaseTransition{{
			To:        v1alpha1.PhasePending,
			Timestamp: now,
			Reason:    "Initial state",
		}},
	}
}

// ValidTransition reports whether the pipeline may move between two phases.
// Failed is reachable from any phase, every other move follows the fixed
// pipeline order.
func ValidTransition(from, to v1alpha1.HealingPhase) bool {
	if to == v1alpha1.PhaseFailed {
		return true
	}
	switch from {
	case v1alpha1.PhasePending:
		return to == v1alpha1.PhaseContaining
	case v1alpha1.PhaseContaining:
		return to == v1alpha1.PhaseDiagnosing
	case v1alpha1.PhaseDiagnosing:
		return to == v1alpha1.PhaseHealing
	case v1alpha1.PhaseHealing:
		return to == v1alpha1.PhaseVerifying
	case v1alpha1.PhaseVerifying:
		return to == v1alpha1.PhaseCompleted
	default:
		return false
	}
}

// NextPhase returns the phase that follows p in the pipeline order, and
// false when p is terminal.
func NextPhase(p v1alpha1.HealingPhase) (v1alpha1.HealingPhase, bool) {
	switch p {
	case v1alpha1.PhasePending:
		return v1alpha1.PhaseContaining, true
	case v1alpha1.PhaseContaining:
		return v1alpha1.PhaseDiagnosing, true
	case v1alpha1.PhaseDiagnosing:
		return v1alpha1.PhaseHealing, true
	case v1alpha1.PhaseHealing:
		return v1alpha1.PhaseVerifying, true
	case v1alpha1.PhaseVerifying:
		return v1alpha1.PhaseCompleted, true
	default:
		return p, false
	}
}

// TransitionTo advances the machine and records the move. The reason may be
// empty. An invalid move leaves the state untouched and returns a
// StateTransitionError.
func (s *HealingState) TransitionTo(to v1alpha1.HealingPhase, reason string) error {
	if !ValidTransition(s.Phase, to) {
		return &StateTransitionError{From: s.Phase, To: to}
	}
	now := time.Now().UTC()
	s.Transitions = append(s.Transitions, PhaseTransition{
		From:      s.Phase,
		To:        to,
		Timestamp: now,
		Reason:    reason,
	})
	s.Phase = to
	s.UpdatedAt = now
	return nil
}

// IsTerminal reports whether the pipeline has finished.
func (s *HealingState) IsTerminal() bool {
	return s.Phase.IsTerminal()
}

// Duration is how long the pipeline has been running. Once the state is
// terminal it freezes at the final transition time.
func (s *HealingState) Duration() time.Duration {
	if s.IsTerminal() {
		return s.UpdatedAt.Sub(s.CreatedAt)
	}
	return time.Since(s.CreatedAt)
}

// DurationMs is Duration in whole milliseconds, matching the field recorded
// on HealingEvent statuses.
func (s *HealingState) DurationMs() int64 {
	return s.Duration().Milliseconds()
}

// HealingContext carries the in-memory state machine for one HealingEvent
// together with the identifiers every agent needs when acting on it.
type HealingContext struct {
	State            *HealingState
	HealingEventName string
	PolicyName       string
	TargetPod        string
	TargetNamespace  string
	CorrelationID    string
}

// NewHealingContext starts a pipeline context for a healing event and
// assigns the correlation ID that ties the agents' events together.
func NewHealingContext(healingEventName, policyName, targetPod, targetNamespace string) *HealingContext {
	return &HealingContext{
		State:            NewHealingState(),
		HealingEventName: healingEventName,
		PolicyName:       policyName,
		TargetPod:        targetPod,
		TargetNamespace:  targetNamespace,
		CorrelationID:    uuid.NewString(),
	}
}
