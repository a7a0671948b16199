package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// TriggerReason classifies what flagged a pod as unhealthy.
// +kubebuilder:validation:Enum=highCpu;highMemory;highLatency;highErrorRate;crashLoop;oomKilled;networkError;dependencyFailure;unknown
type TriggerReason string

const (
	ReasonHighCPU           TriggerReason = "highCpu"
	ReasonHighMemory        TriggerReason = "highMemory"
	ReasonHighLatency       TriggerReason = "highLatency"
	ReasonHighErrorRate     TriggerReason = "highErrorRate"
	ReasonCrashLoop         TriggerReason = "crashLoop"
	ReasonOOMKilled         TriggerReason = "oomKilled"
	ReasonNetworkError      TriggerReason = "networkError"
	ReasonDependencyFailure TriggerReason = "dependencyFailure"
	ReasonUnknown           TriggerReason = "unknown"
)

// TriggerMetrics is the snapshot of pod metrics at trigger or verification
// time. Absent fields mean the metric could not be collected.
type TriggerMetrics struct {
	// +optional
	CPUUsage *float64 `json:"cpuUsage,omitempty"`

	// +optional
	MemoryUsage *float64 `json:"memoryUsage,omitempty"`

	// +optional
	LatencyMs *int64 `json:"latencyMs,omitempty"`

	// +optional
	ErrorRate *float64 `json:"errorRate,omitempty"`

	// +optional
	RestartCount *int32 `json:"restartCount,omitempty"`
}

// HealingEventSpec identifies the target of one healing pipeline run and
// what triggered it.
type HealingEventSpec struct {
	// PolicyRef names the SelfHealingPolicy that authorized this healing.
	PolicyRef string `json:"policyRef"`

	TargetPod string `json:"targetPod"`

	TargetNamespace string `json:"targetNamespace"`

	TriggerReason TriggerReason `json:"triggerReason"`

	// +optional
	TriggerMetrics *TriggerMetrics `json:"triggerMetrics,omitempty"`
}

// HealingPhase is the pipeline phase of a healing run. Completed and Failed
// are terminal.
// +kubebuilder:validation:Enum=Pending;Containing;Diagnosing;Healing;Verifying;Completed;Failed
// +kubebuilder:default=Pending
type HealingPhase string

const (
	PhasePending    HealingPhase = "Pending"
	PhaseContaining HealingPhase = "Containing"
	PhaseDiagnosing HealingPhase = "Diagnosing"
	PhaseHealing    HealingPhase = "Healing"
	PhaseVerifying  HealingPhase = "Verifying"
	PhaseCompleted  HealingPhase = "Completed"
	PhaseFailed     HealingPhase = "Failed"
)

// IsTerminal reports whether the phase ends the pipeline.
func (p HealingPhase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// DiagnosisResult is the accepted hypothesis recorded on the event status.
type DiagnosisResult struct {
	Hypothesis string `json:"hypothesis"`

	// Confidence is 0 to 1.
	Confidence float64 `json:"confidence"`

	RootCause string `json:"rootCause"`

	// +optional
	Evidence []string `json:"evidence,omitempty"`

	// +optional
	RelatedLogs []string `json:"relatedLogs,omitempty"`
}

// ActionType names a concrete remediation applied to the target workload.
// +kubebuilder:validation:Enum=podRestart;horizontalScale;verticalScale;configUpdate;networkIsolation;networkRestore;dependencyRestart
type ActionType string

const (
	ActionTypePodRestart        ActionType = "podRestart"
	ActionTypeHorizontalScale   ActionType = "horizontalScale"
	ActionTypeVerticalScale     ActionType = "verticalScale"
	ActionTypeConfigUpdate      ActionType = "configUpdate"
	ActionTypeNetworkIsolation  ActionType = "networkIsolation"
	ActionTypeNetworkRestore    ActionType = "networkRestore"
	ActionTypeDependencyRestart ActionType = "dependencyRestart"
)

// ActionOutcome is the result of one applied action.
// +kubebuilder:validation:Enum=success;failed;pending;rolledBack
type ActionOutcome string

const (
	ActionOutcomeSuccess    ActionOutcome = "success"
	ActionOutcomeFailed     ActionOutcome = "failed"
	ActionOutcomePending    ActionOutcome = "pending"
	ActionOutcomeRolledBack ActionOutcome = "rolledBack"
)

// AppliedAction records one remediation taken during the Healing phase.
type AppliedAction struct {
	ActionType ActionType `json:"actionType"`

	Timestamp metav1.Time `json:"timestamp"`

	Result ActionOutcome `json:"result"`

	// +optional
	Details string `json:"details,omitempty"`

	// +optional
	RollbackInfo string `json:"rollbackInfo,omitempty"`
}

// HealingOutcome is the final verdict of the pipeline.
type HealingOutcome struct {
	Success bool `json:"success"`

	Message string `json:"message"`

	// +optional
	VerificationMethod string `json:"verificationMethod,omitempty"`

	// +optional
	MetricsAfter *TriggerMetrics `json:"metricsAfter,omitempty"`
}

// CausalNodeType classifies a node in the causal graph.
// +kubebuilder:validation:Enum=error;warning;symptom;rootCause;metric;event
type CausalNodeType string

const (
	NodeTypeError     CausalNodeType = "error"
	NodeTypeWarning   CausalNodeType = "warning"
	NodeTypeSymptom   CausalNodeType = "symptom"
	NodeTypeRootCause CausalNodeType = "rootCause"
	NodeTypeMetric    CausalNodeType = "metric"
	NodeTypeEvent     CausalNodeType = "event"
)

// CausalNode is one observation in the causal graph.
type CausalNode struct {
	ID string `json:"id"`

	NodeType CausalNodeType `json:"nodeType"`

	Description string `json:"description"`

	Timestamp metav1.Time `json:"timestamp"`

	// +optional
	Severity string `json:"severity,omitempty"`

	// +optional
	Source string `json:"source,omitempty"`
}

// CausalEdge relates two causal graph nodes.
type CausalEdge struct {
	FromNode string `json:"fromNode"`

	ToNode string `json:"toNode"`

	RelationType string `json:"relationType"`

	// +optional
	Confidence *float64 `json:"confidence,omitempty"`
}

// CausalGraph is the evidence graph assembled during diagnosis.
type CausalGraph struct {
	// +optional
	Nodes []CausalNode `json:"nodes,omitempty"`

	// +optional
	Edges []CausalEdge `json:"edges,omitempty"`

	// +optional
	RootCauseNodeID string `json:"rootCauseNodeId,omitempty"`
}

// HealingEventStatus tracks the pipeline run.
type HealingEventStatus struct {
	// +optional
	Phase HealingPhase `json:"phase,omitempty"`

	// StartTime is when the pipeline left Pending.
	// +optional
	StartTime *metav1.Time `json:"startTime,omitempty"`

	// EndTime is when the pipeline reached a terminal phase.
	// +optional
	EndTime *metav1.Time `json:"endTime,omitempty"`

	// +optional
	DurationMs *int64 `json:"durationMs,omitempty"`

	// +optional
	Diagnosis *DiagnosisResult `json:"diagnosis,omitempty"`

	// +optional
	AppliedActions []AppliedAction `json:"appliedActions,omitempty"`

	// +optional
	Outcome *HealingOutcome `json:"outcome,omitempty"`

	// +optional
	CausalGraph *CausalGraph `json:"causalGraph,omitempty"`

	// KnowledgeEntryID links to the knowledge base record for this
	// incident.
	// +optional
	KnowledgeEntryID string `json:"knowledgeEntryId,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=he
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Target Pod",type=string,JSONPath=`.spec.targetPod`
// +kubebuilder:printcolumn:name="Reason",type=string,JSONPath=`.spec.triggerReason`
// +kubebuilder:printcolumn:name="Success",type=boolean,JSONPath=`.status.outcome.success`
// +kubebuilder:printcolumn:name="Duration",type=string,JSONPath=`.status.durationMs`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// HealingEvent records one run of the healing pipeline against a single
// pod, from detection through verification.
type HealingEvent struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   HealingEventSpec   `json:"spec,omitempty"`
	Status HealingEventStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// HealingEventList contains a list of HealingEvent.
type HealingEventList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []HealingEvent `json:"items"`
}

func init() {
	SchemeBuilder.Register(&HealingEvent{}, &HealingEventList{})
}
