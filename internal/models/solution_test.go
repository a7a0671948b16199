package models

import (
	"testing"

	"github.com/recist-io/recist/api/v1alpha1"
)

func TestStrategyDefaults(t *testing.T) {
	tests := []struct {
		strategy     StrategyType
		wantRisk     RiskLevel
		wantDuration int64
	}{
		{StrategyPodRestart, RiskLow, 30},
		{StrategyHorizontalScale, RiskLow, 60},
		{StrategyVerticalScale, RiskMedium, 120},
		{StrategyConfigUpdate, RiskMedium, 60},
		{StrategyDependencyRestart, RiskHigh, 120},
		{StrategyNetworkIsolation, RiskLow, 10},
		{StrategyComposite, RiskMedium, 180},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			if got := tt.strategy.DefaultRiskLevel(); got != tt.wantRisk {
				t.Errorf("DefaultRiskLevel() = %q, want %q", got, tt.wantRisk)
			}
			if got := tt.strategy.EstimatedDurationSeconds(); got != tt.wantDuration {
				t.Errorf("EstimatedDurationSeconds() = %d, want %d", got, tt.wantDuration)
			}
		})
	}
}

func TestStrategyToActionType(t *testing.T) {
	tests := []struct {
		strategy StrategyType
		want     v1alpha1.ActionType
	}{
		{StrategyPodRestart, v1alpha1.ActionTypePodRestart},
		{StrategyHorizontalScale, v1alpha1.ActionTypeHorizontalScale},
		{StrategyVerticalScale, v1alpha1.ActionTypeVerticalScale},
		{StrategyConfigUpdate, v1alpha1.ActionTypeConfigUpdate},
		{StrategyDependencyRestart, v1alpha1.ActionTypeDependencyRestart},
		{StrategyNetworkIsolation, v1alpha1.ActionTypeNetworkIsolation},
		// Composite strategies lead with a restart.
		{StrategyComposite, v1alpha1.ActionTypePodRestart},
	}

	for _, tt := range tests {
		if got := tt.strategy.ToActionType(); got != tt.want {
			t.Errorf("%s.ToActionType() = %q, want %q", tt.strategy, got, tt.want)
		}
	}
}

func TestNewSolutionStrategySeedsDefaults(t *testing.T) {
	s := NewSolutionStrategy(StrategyDependencyRestart, 0.65)

	if s.RiskLevel != RiskHigh {
		t.Errorf("risk = %q, want High", s.RiskLevel)
	}
	if s.EstimatedDurationSeconds != 120 {
		t.Errorf("duration = %d, want 120", s.EstimatedDurationSeconds)
	}
	if s.Confidence != 0.65 {
		t.Errorf("confidence = %v", s.Confidence)
	}
	if s.RollbackPlan != nil {
		t.Error("fresh strategy has a rollback plan")
	}
	if s.SelectedAt.IsZero() {
		t.Error("selected_at not stamped")
	}

	s.AddAction(PlannedAction{ActionType: v1alpha1.ActionTypeDependencyRestart, Order: 1})
	s.SetRollbackPlan(RollbackPlan{
		Actions:        []RollbackAction{{ActionType: RollbackRestartPod, OriginalState: "{}"}},
		TimeoutSeconds: 60,
	})

	if len(s.Actions) != 1 {
		t.Errorf("actions = %d, want 1", len(s.Actions))
	}
	if s.RollbackPlan == nil || s.RollbackPlan.TimeoutSeconds != 60 {
		t.Errorf("rollback plan = %+v", s.RollbackPlan)
	}
}
