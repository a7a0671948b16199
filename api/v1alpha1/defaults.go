package v1alpha1

// Schema defaults, repeated here so specs read through the fake client or
// built in tests behave like objects admitted by the API server.
const (
	DefaultCPUThreshold       = 0.9
	DefaultMemoryThreshold    = 0.85
	DefaultLatencyThresholdMs = 500
	DefaultErrorRateThreshold = 0.05

	DefaultLLMTimeoutSeconds = 30

	DefaultCheckIntervalSeconds      = 10
	DefaultNeighborCapacityThreshold = 0.7

	DefaultLogLookbackMinutes  = 5
	DefaultMaxLogLines         = 1000
	DefaultConfidenceThreshold = 0.7

	DefaultMaxMicroAgents          = 5
	DefaultMaxReasoningDepth       = 10
	DefaultActionTimeoutSeconds    = 60
	DefaultVerificationWaitSeconds = 30
	DefaultDecisionThreshold       = 0.7

	DefaultSimilarityThreshold = 0.8
	DefaultMaxLocalEvents      = 100
	DefaultKnowledgeTTLDays    = 90
	DefaultEmbeddingDimensions = 1536
)

// SetDefaults fills unset optional fields of the spec in place.
func (s *SelfHealingPolicySpec) SetDefaults() {
	s.Thresholds.SetDefaults()
	if s.LLM.TimeoutSeconds == 0 {
		s.LLM.TimeoutSeconds = DefaultLLMTimeoutSeconds
	}
	s.Containment.SetDefaults()
	s.Diagnosis.SetDefaults()
	s.MetaCognitive.SetDefaults()
	s.Knowledge.SetDefaults()
}

// SetDefaults fills unset thresholds in place.
func (t *Thresholds) SetDefaults() {
	if t.CPU == 0 {
		t.CPU = DefaultCPUThreshold
	}
	if t.Memory == 0 {
		t.Memory = DefaultMemoryThreshold
	}
	if t.LatencyMs == 0 {
		t.LatencyMs = DefaultLatencyThresholdMs
	}
	if t.ErrorRate == 0 {
		t.ErrorRate = DefaultErrorRateThreshold
	}
}

// SetDefaults fills unset containment tuning in place.
func (c *ContainmentConfig) SetDefaults() {
	if c.CheckIntervalSeconds == 0 {
		c.CheckIntervalSeconds = DefaultCheckIntervalSeconds
	}
	if c.IsolationStrategy == "" {
		c.IsolationStrategy = IsolationSoft
	}
	if c.NeighborCapacityThreshold == 0 {
		c.NeighborCapacityThreshold = DefaultNeighborCapacityThreshold
	}
}

// SetDefaults fills unset diagnosis tuning in place.
func (c *DiagnosisConfig) SetDefaults() {
	if c.LogLookbackMinutes == 0 {
		c.LogLookbackMinutes = DefaultLogLookbackMinutes
	}
	if c.MaxLogLines == 0 {
		c.MaxLogLines = DefaultMaxLogLines
	}
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}
}

// SetDefaults fills unset meta-cognitive tuning in place.
func (c *MetaCognitiveConfig) SetDefaults() {
	if c.MaxMicroAgents == 0 {
		c.MaxMicroAgents = DefaultMaxMicroAgents
	}
	if c.MaxReasoningDepth == 0 {
		c.MaxReasoningDepth = DefaultMaxReasoningDepth
	}
	if c.ActionTimeoutSeconds == 0 {
		c.ActionTimeoutSeconds = DefaultActionTimeoutSeconds
	}
	if c.VerificationWaitSeconds == 0 {
		c.VerificationWaitSeconds = DefaultVerificationWaitSeconds
	}
	if c.DecisionThreshold == 0 {
		c.DecisionThreshold = DefaultDecisionThreshold
	}
}

// SetDefaults fills unset knowledge tuning in place.
func (c *KnowledgeConfig) SetDefaults() {
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if c.MaxLocalEvents == 0 {
		c.MaxLocalEvents = DefaultMaxLocalEvents
	}
	if c.KnowledgeTTLDays == 0 {
		c.KnowledgeTTLDays = DefaultKnowledgeTTLDays
	}
	if c.EmbeddingDimensions == 0 {
		c.EmbeddingDimensions = DefaultEmbeddingDimensions
	}
}
