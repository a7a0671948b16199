package models

import (
	"errors"
	"testing"
	"time"

	"github.com/recist-io/recist/api/v1alpha1"
)

func TestNewHealingStateStartsPending(t *testing.T) {
	s := NewHealingState()

	if s.Phase != v1alpha1.PhasePending {
		t.Errorf("phase = %q, want Pending", s.Phase)
	}
	if s.ID == "" {
		t.Error("state has no id")
	}
	if len(s.Transitions) != 1 {
		t.Fatalf("transitions = %d, want 1", len(s.Transitions))
	}
	first := s.Transitions[0]
	if first.From != "" || first.To != v1alpha1.PhasePending || first.Reason != "Initial state" {
		t.Errorf("initial transition = %+v", first)
	}
	if s.IsTerminal() {
		t.Error("fresh state reports terminal")
	}
}

func TestValidTransitionTable(t *testing.T) {
	phases := []v1alpha1.HealingPhase{
		v1alpha1.PhasePending,
		v1alpha1.PhaseContaining,
		v1alpha1.PhaseDiagnosing,
		v1alpha1.PhaseHealing,
		v1alpha1.PhaseVerifying,
		v1alpha1.PhaseCompleted,
		v1alpha1.PhaseFailed,
	}
	allowed := map[v1alpha1.HealingPhase]v1alpha1.HealingPhase{
		v1alpha1.PhasePending:    v1alpha1.PhaseContaining,
		v1alpha1.PhaseContaining: v1alpha1.PhaseDiagnosing,
		v1alpha1.PhaseDiagnosing: v1alpha1.PhaseHealing,
		v1alpha1.PhaseHealing:    v1alpha1.PhaseVerifying,
		v1alpha1.PhaseVerifying:  v1alpha1.PhaseCompleted,
	}

	for _, from := range phases {
		for _, to := range phases {
			want := to == v1alpha1.PhaseFailed || allowed[from] == to
			if got := ValidTransition(from, to); got != want {
				t.Errorf("ValidTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestFailedReachableFromAnyPhase(t *testing.T) {
	// Aborting must always be possible, even from a terminal phase.
	for _, from := range []v1alpha1.HealingPhase{
		v1alpha1.PhasePending,
		v1alpha1.PhaseVerifying,
		v1alpha1.PhaseCompleted,
		v1alpha1.PhaseFailed,
	} {
		if !ValidTransition(from, v1alpha1.PhaseFailed) {
			t.Errorf("ValidTransition(%s, Failed) = false, want true", from)
		}
	}
}

func TestTransitionToRecordsHistory(t *testing.T) {
	s := NewHealingState()

	steps := []v1alpha1.HealingPhase{
		v1alpha1.PhaseContaining,
		v1alpha1.PhaseDiagnosing,
		v1alpha1.PhaseHealing,
		v1alpha1.PhaseVerifying,
		v1alpha1.PhaseCompleted,
	}
	for _, to := range steps {
		if err := s.TransitionTo(to, "advance"); err != nil {
			t.Fatalf("TransitionTo(%s): %v", to, err)
		}
	}

	if s.Phase != v1alpha1.PhaseCompleted {
		t.Errorf("phase = %q, want Completed", s.Phase)
	}
	if !s.IsTerminal() {
		t.Error("completed state not terminal")
	}
	if len(s.Transitions) != len(steps)+1 {
		t.Fatalf("transitions = %d, want %d", len(s.Transitions), len(steps)+1)
	}
	last := s.Transitions[len(s.Transitions)-1]
	if last.From != v1alpha1.PhaseVerifying || last.To != v1alpha1.PhaseCompleted {
		t.Errorf("last transition = %+v", last)
	}
}

func TestTransitionToRejectsInvalidMove(t *testing.T) {
	s := NewHealingState()

	err := s.TransitionTo(v1alpha1.PhaseHealing, "skip ahead")
	if err == nil {
		t.Fatal("Pending -> Healing was accepted")
	}
	var ste *StateTransitionError
	if !errors.As(err, &ste) {
		t.Fatalf("error type = %T, want *StateTransitionError", err)
	}
	if ste.From != v1alpha1.PhasePending || ste.To != v1alpha1.PhaseHealing {
		t.Errorf("error = %+v", ste)
	}

	// A rejected move leaves the machine untouched.
	if s.Phase != v1alpha1.PhasePending {
		t.Errorf("phase after rejection = %q, want Pending", s.Phase)
	}
	if len(s.Transitions) != 1 {
		t.Errorf("transitions after rejection = %d, want 1", len(s.Transitions))
	}
}

func TestCompletedRejectsFurtherProgress(t *testing.T) {
	s := NewHealingState()
	for _, to := range []v1alpha1.HealingPhase{
		v1alpha1.PhaseContaining,
		v1alpha1.PhaseDiagnosing,
		v1alpha1.PhaseHealing,
		v1alpha1.PhaseVerifying,
		v1alpha1.PhaseCompleted,
	} {
		if err := s.TransitionTo(to, ""); err != nil {
			t.Fatalf("TransitionTo(%s): %v", to, err)
		}
	}

	if err := s.TransitionTo(v1alpha1.PhaseContaining, ""); err == nil {
		t.Error("Completed -> Containing was accepted")
	}
	// Failed stays reachable so an operator abort is always recordable.
	if err := s.TransitionTo(v1alpha1.PhaseFailed, "aborted"); err != nil {
		t.Errorf("Completed -> Failed rejected: %v", err)
	}
}

func TestDurationFreezesAtTerminal(t *testing.T) {
	s := NewHealingState()
	s.CreatedAt = time.Now().UTC().Add(-10 * time.Second)
	s.UpdatedAt = s.CreatedAt

	if d := s.Duration(); d < 9*time.Second {
		t.Errorf("running duration = %v, want about 10s", d)
	}

	if err := s.TransitionTo(v1alpha1.PhaseFailed, "timed out"); err != nil {
		t.Fatalf("TransitionTo(Failed): %v", err)
	}
	frozen := s.Duration()
	time.Sleep(20 * time.Millisecond)
	if s.Duration() != frozen {
		t.Errorf("terminal duration moved from %v to %v", frozen, s.Duration())
	}
	if s.DurationMs() != frozen.Milliseconds() {
		t.Errorf("DurationMs = %d, want %d", s.DurationMs(), frozen.Milliseconds())
	}
}

func TestNextPhaseOrder(t *testing.T) {
	tests := []struct {
		from v1alpha1.HealingPhase
		want v1alpha1.HealingPhase
		ok   bool
	}{
		{v1alpha1.PhasePending, v1alpha1.PhaseContaining, true},
		{v1alpha1.PhaseContaining, v1alpha1.PhaseDiagnosing, true},
		{v1alpha1.PhaseDiagnosing, v1alpha1.PhaseHealing, true},
		{v1alpha1.PhaseHealing, v1alpha1.PhaseVerifying, true},
		{v1alpha1.PhaseVerifying, v1alpha1.PhaseCompleted, true},
		{v1alpha1.PhaseCompleted, v1alpha1.PhaseCompleted, false},
		{v1alpha1.PhaseFailed, v1alpha1.PhaseFailed, false},
	}
	for _, tt := range tests {
		got, ok := NextPhase(tt.from)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NextPhase(%s) = (%s, %v), want (%s, %v)", tt.from, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNewHealingContext(t *testing.T) {
	ctx := NewHealingContext("heal-payments-api-0", "payments-policy", "payments-api-0", "payments")

	if ctx.CorrelationID == "" {
		t.Error("context has no correlation id")
	}
	if ctx.State == nil || ctx.State.Phase != v1alpha1.PhasePending {
		t.Errorf("context state = %+v, want fresh Pending state", ctx.State)
	}
	if ctx.TargetPod != "payments-api-0" || ctx.TargetNamespace != "payments" {
		t.Errorf("target = %s/%s", ctx.TargetNamespace, ctx.TargetPod)
	}
}
