package models

import (
	"time"

	"github.com/recist-io/recist/api/v1alpha1"
)

// StrategyType names a remediation strategy a micro agent can propose.
type StrategyType string

const (
	StrategyPodRestart        StrategyType = "PodRestart"
	StrategyHorizontalScale   StrategyType = "HorizontalScale"
	StrategyVerticalScale     StrategyType = "VerticalScale"
	StrategyConfigUpdate      StrategyType = "ConfigUpdate"
	StrategyDependencyRestart StrategyType = "DependencyRestart"
	StrategyNetworkIsolation  StrategyType = "NetworkIsolation"
	StrategyComposite         StrategyType = "Composite"
)

// RiskLevel grades how much damage a strategy can do if it goes wrong.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// DefaultRiskLevel returns the baseline risk assigned before the language
// model adjusts it.
func (s StrategyType) DefaultRiskLevel() RiskLevel {
	switch s {
	case StrategyVerticalScale, StrategyConfigUpdate, StrategyComposite:
		return RiskMedium
	case StrategyDependencyRestart:
		return RiskHigh
	default:
		return RiskLow
	}
}

// EstimatedDurationSeconds returns the baseline execution time for the
// strategy.
func (s StrategyType) EstimatedDurationSeconds() int64 {
	switch s {
	case StrategyPodRestart:
		return 30
	case StrategyHorizontalScale:
		return 60
	case StrategyVerticalScale:
		return 120
	case StrategyConfigUpdate:
		return 60
	case StrategyDependencyRestart:
		return 120
	case StrategyNetworkIsolation:
		return 10
	case StrategyComposite:
		return 180
	default:
		return 30
	}
}

// ToActionType maps a strategy to the action type recorded on HealingEvent
// statuses. Composite strategies report as pod restarts since that is their
// leading action.
func (s StrategyType) ToActionType() v1alpha1.ActionType {
	switch s {
	case StrategyHorizontalScale:
		return v1alpha1.ActionTypeHorizontalScale
	case StrategyVerticalScale:
		return v1alpha1.ActionTypeVerticalScale
	case StrategyConfigUpdate:
		return v1alpha1.ActionTypeConfigUpdate
	case StrategyDependencyRestart:
		return v1alpha1.ActionTypeDependencyRestart
	case StrategyNetworkIsolation:
		return v1alpha1.ActionTypeNetworkIsolation
	default:
		return v1alpha1.ActionTypePodRestart
	}
}

// ResourceType names the Kubernetes kind an action targets.
type ResourceType string

const (
	ResourcePod           ResourceType = "Pod"
	ResourceDeployment    ResourceType = "Deployment"
	ResourceStatefulSet   ResourceType = "StatefulSet"
	ResourceDaemonSet     ResourceType = "DaemonSet"
	ResourceConfigMap     ResourceType = "ConfigMap"
	ResourceSecret        ResourceType = "Secret"
	ResourceService       ResourceType = "Service"
	ResourceNetworkPolicy ResourceType = "NetworkPolicy"
)

// ActionTarget identifies the object an action operates on.
type ActionTarget struct {
	ResourceType ResourceType `json:"resource_type"`
	Name         string       `json:"name"`
	Namespace    string       `json:"namespace"`
}

// PlannedAction is one step of a strategy. Order numbers steps within the
// strategy, DependsOn lists the orders that must succeed first.
type PlannedAction struct {
	ActionType v1alpha1.ActionType `json:"action_type"`
	Target     ActionTarget        `json:"target"`
	Parameters map[string]string   `json:"parameters"`
	Order      int32               `json:"order"`
	DependsOn  []int32             `json:"depends_on"`
}

// RollbackActionType names a way to undo an applied action.
type RollbackActionType string

const (
	RollbackRestoreReplicas     RollbackActionType = "RestoreReplicas"
	RollbackRestoreResources    RollbackActionType = "RestoreResources"
	RollbackRestoreConfig       RollbackActionType = "RestoreConfig"
	RollbackDeleteNetworkPolicy RollbackActionType = "DeleteNetworkPolicy"
	RollbackRestartPod          RollbackActionType = "RestartPod"
)

// RollbackAction is one undo step. OriginalState carries whatever the
// rollback needs to restore, serialized by the action that captured it.
type RollbackAction struct {
	ActionType    RollbackActionType `json:"action_type"`
	Target        ActionTarget       `json:"target"`
	OriginalState string             `json:"original_state"`
}

// RollbackPlan undoes a strategy if verification fails.
type RollbackPlan struct {
	Actions        []RollbackAction `json:"actions"`
	TimeoutSeconds int64            `json:"timeout_seconds"`
}

// SolutionStrategy is the remediation the meta-cognitive agent selected.
type SolutionStrategy struct {
	StrategyType             StrategyType    `json:"strategy_type"`
	Actions                  []PlannedAction `json:"actions"`
	Confidence               float64         `json:"confidence"`
	RiskLevel                RiskLevel       `json:"risk_level"`
	EstimatedDurationSeconds int64           `json:"estimated_duration_seconds"`
	RollbackPlan             *RollbackPlan   `json:"rollback_plan,omitempty"`
	SelectedAt               time.Time       `json:"selected_at"`
}

// NewSolutionStrategy creates a strategy seeded with the type's baseline
// risk and duration.
func NewSolutionStrategy(strategyType StrategyType, confidence float64) *SolutionStrategy {
	return &SolutionStrategy{
		StrategyType:             strategyType,
		Actions:                  []PlannedAction{},
		Confidence:               confidence,
		RiskLevel:                strategyType.DefaultRiskLevel(),
		EstimatedDurationSeconds: strategyType.EstimatedDurationSeconds(),
		SelectedAt:               time.Now().UTC(),
	}
}

// AddAction appends one step.
func (s *SolutionStrategy) AddAction(action PlannedAction) {
	s.Actions = append(s.Actions, action)
}

// SetRollbackPlan attaches the undo plan.
func (s *SolutionStrategy) SetRollbackPlan(plan RollbackPlan) {
	s.RollbackPlan = &plan
}

// MicroAgentResult is one micro agent's verdict after its reasoning loop.
type MicroAgentResult struct {
	AgentID        string       `json:"agent_id"`
	Hypothesis     string       `json:"hypothesis"`
	StrategyType   StrategyType `json:"strategy_type"`
	Confidence     float64      `json:"confidence"`
	ReasoningDepth int32        `json:"reasoning_depth"`
	Evidence       []string     `json:"evidence"`
	CompletedAt    time.Time    `json:"completed_at"`
}

// StrategyEvaluation is the language model's scoring of one candidate
// strategy.
type StrategyEvaluation struct {
	StrategyType         StrategyType `json:"strategy_type"`
	SuccessProbability   float64      `json:"success_probability"`
	RiskScore            float64      `json:"risk_score"`
	EstimatedTimeSeconds int64        `json:"estimated_time_seconds"`
	Reasoning            string       `json:"reasoning"`
	PrerequisitesMet     bool         `json:"prerequisites_met"`
}

// ActionResult records the execution of one action.
type ActionResult struct {
	ActionType v1alpha1.ActionType `json:"action_type"`
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	ExecutedAt time.Time           `json:"executed_at"`
	DurationMs int64               `json:"duration_ms"`
	// RollbackData carries state captured for a later rollback, empty when
	// the action needs none.
	RollbackData string `json:"rollback_data,omitempty"`
}
