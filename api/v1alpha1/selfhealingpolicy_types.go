package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Thresholds define when a pod counts as unhealthy. Ratios are 0 to 1.
type Thresholds struct {
	// CPU is the usage ratio above which a pod is flagged.
	// +optional
	// +kubebuilder:default=0.9
	CPU float64 `json:"cpu,omitempty"`

	// Memory is the usage ratio above which a pod is flagged.
	// +optional
	// +kubebuilder:default=0.85
	Memory float64 `json:"memory,omitempty"`

	// LatencyMs is the p99 request latency in milliseconds above which a
	// pod is flagged.
	// +optional
	// +kubebuilder:default=500
	LatencyMs int64 `json:"latencyMs,omitempty"`

	// ErrorRate is the 5xx response ratio above which a pod is flagged.
	// +optional
	// +kubebuilder:default=0.05
	ErrorRate float64 `json:"errorRate,omitempty"`
}

// AllowedAction names a remediation the operator is permitted to execute.
// +kubebuilder:validation:Enum=restart;scale;updateConfig;updateResources;isolate
type AllowedAction string

const (
	AllowedActionRestart         AllowedAction = "restart"
	AllowedActionScale           AllowedAction = "scale"
	AllowedActionUpdateConfig    AllowedAction = "updateConfig"
	AllowedActionUpdateResources AllowedAction = "updateResources"
	AllowedActionIsolate         AllowedAction = "isolate"
)

// LLMProvider identifies a supported language model backend.
// +kubebuilder:validation:Enum=claude;openai;gemini;ollama
type LLMProvider string

const (
	ProviderClaude LLMProvider = "claude"
	ProviderOpenAI LLMProvider = "openai"
	ProviderGemini LLMProvider = "gemini"
	ProviderOllama LLMProvider = "ollama"
)

// LLMConfig selects and configures the backend used for diagnosis and
// strategy evaluation.
type LLMConfig struct {
	// Provider is the backend to use.
	Provider LLMProvider `json:"provider"`

	// Model is the provider-specific model name.
	Model string `json:"model"`

	// APIKeySecret names the Secret in the operator namespace holding the
	// provider API key under the "api-key" key.
	APIKeySecret string `json:"apiKeySecret"`

	// TimeoutSeconds bounds each backend call.
	// +optional
	// +kubebuilder:default=30
	TimeoutSeconds int64 `json:"timeoutSeconds,omitempty"`

	// BaseURL overrides the provider endpoint, mainly for Ollama and
	// OpenAI-compatible gateways.
	// +optional
	BaseURL string `json:"baseUrl,omitempty"`
}

// NotificationConfig wires healing outcomes to external channels.
type NotificationConfig struct {
	// +optional
	Enabled bool `json:"enabled,omitempty"`

	// +optional
	SlackWebhook string `json:"slackWebhook,omitempty"`

	// +optional
	Email string `json:"email,omitempty"`

	// +optional
	PagerdutyKey string `json:"pagerdutyKey,omitempty"`
}

// IsolationStrategy picks how aggressively a faulty pod is cut off from
// traffic. Soft removes it from Service endpoints, hard applies a deny-all
// NetworkPolicy, auto lets the containment agent choose by severity.
// +kubebuilder:validation:Enum=soft;hard;auto
type IsolationStrategy string

const (
	IsolationSoft IsolationStrategy = "soft"
	IsolationHard IsolationStrategy = "hard"
	IsolationAuto IsolationStrategy = "auto"
)

// ContainmentConfig tunes the containment agent.
type ContainmentConfig struct {
	// CheckIntervalSeconds is how often the agent polls for unhealthy pods.
	// +optional
	// +kubebuilder:default=10
	CheckIntervalSeconds int64 `json:"checkIntervalSeconds,omitempty"`

	// +optional
	// +kubebuilder:default=soft
	IsolationStrategy IsolationStrategy `json:"isolationStrategy,omitempty"`

	// NeighborCapacityThreshold is the minimum available capacity a
	// neighbor pod must have to accept redirected load, 0 to 1.
	// +optional
	// +kubebuilder:default=0.7
	NeighborCapacityThreshold float64 `json:"neighborCapacityThreshold,omitempty"`
}

// DiagnosisConfig tunes evidence collection for the diagnosis agent.
type DiagnosisConfig struct {
	// LogLookbackMinutes is how far back logs are fetched.
	// +optional
	// +kubebuilder:default=5
	LogLookbackMinutes int64 `json:"logLookbackMinutes,omitempty"`

	// MaxLogLines caps the number of log lines collected per pod.
	// +optional
	// +kubebuilder:default=1000
	MaxLogLines int64 `json:"maxLogLines,omitempty"`

	// ConfidenceThreshold is the minimum hypothesis confidence required to
	// proceed to healing.
	// +optional
	// +kubebuilder:default=0.7
	ConfidenceThreshold float64 `json:"confidenceThreshold,omitempty"`
}

// MetaCognitiveConfig tunes strategy selection and execution.
type MetaCognitiveConfig struct {
	// MaxMicroAgents is how many candidate strategies are evaluated in
	// parallel.
	// +optional
	// +kubebuilder:default=5
	MaxMicroAgents int32 `json:"maxMicroAgents,omitempty"`

	// MaxReasoningDepth bounds the refinement loop of each micro agent.
	// +optional
	// +kubebuilder:default=10
	MaxReasoningDepth int32 `json:"maxReasoningDepth,omitempty"`

	// ActionTimeoutSeconds bounds each remediation action.
	// +optional
	// +kubebuilder:default=60
	ActionTimeoutSeconds int64 `json:"actionTimeoutSeconds,omitempty"`

	// VerificationWaitSeconds is how long to wait after healing before
	// checking whether the fault cleared.
	// +optional
	// +kubebuilder:default=30
	VerificationWaitSeconds int64 `json:"verificationWaitSeconds,omitempty"`

	// DecisionThreshold is the minimum micro agent confidence required to
	// execute a strategy.
	// +optional
	// +kubebuilder:default=0.7
	DecisionThreshold float64 `json:"decisionThreshold,omitempty"`
}

// KnowledgeConfig tunes the incident knowledge base.
type KnowledgeConfig struct {
	// SimilarityThreshold is the minimum cosine similarity for a past
	// incident to count as a match.
	// +optional
	// +kubebuilder:default=0.8
	SimilarityThreshold float64 `json:"similarityThreshold,omitempty"`

	// MaxLocalEvents caps the per-namespace recency cache.
	// +optional
	// +kubebuilder:default=100
	MaxLocalEvents int64 `json:"maxLocalEvents,omitempty"`

	// KnowledgeTTLDays is how long entries stay searchable.
	// +optional
	// +kubebuilder:default=90
	KnowledgeTTLDays int64 `json:"knowledgeTtlDays,omitempty"`

	// EmbeddingDimensions must match the embedding model in use.
	// +optional
	// +kubebuilder:default=1536
	EmbeddingDimensions int32 `json:"embeddingDimensions,omitempty"`
}

// SelfHealingPolicySpec defines the desired state of SelfHealingPolicy.
type SelfHealingPolicySpec struct {
	// TargetNamespaces lists the namespaces this policy watches.
	// +optional
	TargetNamespaces []string `json:"targetNamespaces,omitempty"`

	// TargetLabels restricts the policy to pods carrying all of these
	// labels. Empty matches every pod in the target namespaces.
	// +optional
	TargetLabels map[string]string `json:"targetLabels,omitempty"`

	// Thresholds define when a pod counts as unhealthy.
	Thresholds Thresholds `json:"thresholds"`

	// AllowedActions whitelists the remediations the operator may take for
	// workloads matched by this policy.
	// +optional
	AllowedActions []AllowedAction `json:"allowedActions,omitempty"`

	// LLM selects the diagnosis backend.
	LLM LLMConfig `json:"llmConfig"`

	// +optional
	Notifications *NotificationConfig `json:"notifications,omitempty"`

	// +optional
	Containment ContainmentConfig `json:"containmentConfig,omitempty"`

	// +optional
	Diagnosis DiagnosisConfig `json:"diagnosisConfig,omitempty"`

	// +optional
	MetaCognitive MetaCognitiveConfig `json:"metacognitiveConfig,omitempty"`

	// +optional
	Knowledge KnowledgeConfig `json:"knowledgeConfig,omitempty"`
}

// PolicyCondition is one observation about the policy, in the style of
// metav1.Condition.
type PolicyCondition struct {
	ConditionType string `json:"conditionType"`

	Status string `json:"status"`

	LastTransitionTime metav1.Time `json:"lastTransitionTime"`

	// +optional
	Reason string `json:"reason,omitempty"`

	// +optional
	Message string `json:"message,omitempty"`
}

// SelfHealingPolicyStatus defines the observed state of SelfHealingPolicy.
type SelfHealingPolicyStatus struct {
	// ObservedGeneration is the spec generation last acted on.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`

	// ActiveHealings counts HealingEvents currently in a non-terminal
	// phase for this policy.
	// +optional
	ActiveHealings int32 `json:"activeHealings,omitempty"`

	// LastHealingTime is when a healing for this policy last reached a
	// terminal phase.
	// +optional
	LastHealingTime *metav1.Time `json:"lastHealingTime,omitempty"`

	// +optional
	TotalHealings int64 `json:"totalHealings,omitempty"`

	// +optional
	SuccessfulHealings int64 `json:"successfulHealings,omitempty"`

	// +optional
	Conditions []PolicyCondition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=shp
// +kubebuilder:printcolumn:name="Active Healings",type=integer,JSONPath=`.status.activeHealings`
// +kubebuilder:printcolumn:name="Last Healing",type=date,JSONPath=`.status.lastHealingTime`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// SelfHealingPolicy declares which workloads the operator watches, the
// thresholds that flag them, and the remediations it may apply.
type SelfHealingPolicy struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   SelfHealingPolicySpec   `json:"spec,omitempty"`
	Status SelfHealingPolicyStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// SelfHealingPolicyList contains a list of SelfHealingPolicy.
type SelfHealingPolicyList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []SelfHealingPolicy `json:"items"`
}

func init() {
	SchemeBuilder.Register(&SelfHealingPolicy{}, &SelfHealingPolicyList{})
}
