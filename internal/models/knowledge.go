package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DiagnosisSummary is the condensed hypothesis stored with an incident.
type DiagnosisSummary struct {
	Hypothesis  string   `json:"hypothesis"`
	Confidence  float64  `json:"confidence"`
	RootCause   string   `json:"root_cause"`
	KeyEvidence []string `json:"key_evidence"`
}

// NewDiagnosisSummary condenses a hypothesis down to what the knowledge
// base keeps.
func NewDiagnosisSummary(h *DiagnosisHypothesis) DiagnosisSummary {
	evidence := make([]string, 0, len(h.Evidence))
	for _, e := range h.Evidence {
		evidence = append(evidence, e.Content)
	}
	return DiagnosisSummary{
		Hypothesis:  h.Hypothesis,
		Confidence:  h.Confidence,
		RootCause:   h.RootCause,
		KeyEvidence: evidence,
	}
}

// SolutionSummary is the condensed strategy stored with an incident.
type SolutionSummary struct {
	StrategyType string   `json:"strategy_type"`
	Actions      []string `json:"actions"`
	DurationMs   int64    `json:"duration_ms"`
}

// NewSolutionSummary condenses a strategy down to what the knowledge base
// keeps.
func NewSolutionSummary(s *SolutionStrategy) SolutionSummary {
	actions := make([]string, 0, len(s.Actions))
	for _, a := range s.Actions {
		actions = append(actions, string(a.ActionType))
	}
	return SolutionSummary{
		StrategyType: string(s.StrategyType),
		Actions:      actions,
		DurationMs:   s.EstimatedDurationSeconds * 1000,
	}
}

// OutcomeSummary is the final verdict stored with an incident.
type OutcomeSummary struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	TotalDurationMs int64  `json:"total_duration_ms"`
}

// KnowledgeEntry is one recorded incident: what broke, what the diagnosis
// said, what was done, and whether it worked.
type KnowledgeEntry struct {
	ID        string           `json:"id"`
	Namespace string           `json:"namespace"`
	PodName   string           `json:"pod_name"`
	ErrorType string           `json:"error_type"`
	Diagnosis DiagnosisSummary `json:"diagnosis"`
	Solution  SolutionSummary  `json:"solution"`
	Outcome   OutcomeSummary   `json:"outcome"`
	// Embedding is set once the summary text has been embedded. Entries
	// without one stay out of the vector store.
	Embedding []float32  `json:"embedding,omitempty"`
	Topic     string     `json:"topic,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// UsageCount includes the incident that created the entry.
	UsageCount  int64   `json:"usage_count"`
	SuccessRate float64 `json:"success_rate"`
}

// NewKnowledgeEntry records an incident. The creating incident counts as
// the first usage, so the success rate starts at 1 or 0.
func NewKnowledgeEntry(namespace, podName, errorType string, diagnosis DiagnosisSummary, solution SolutionSummary, outcome OutcomeSummary) *KnowledgeEntry {
	rate := 0.0
	if outcome.Success {
		rate = 1.0
	}
	return &KnowledgeEntry{
		ID:          uuid.NewString(),
		Namespace:   namespace,
		PodName:     podName,
		ErrorType:   errorType,
		Diagnosis:   diagnosis,
		Solution:    solution,
		Outcome:     outcome,
		CreatedAt:   time.Now().UTC(),
		UsageCount:  1,
		SuccessRate: rate,
	}
}

// SetEmbedding attaches the vector for similarity search.
func (e *KnowledgeEntry) SetEmbedding(embedding []float32) {
	e.Embedding = embedding
}

// SetTopic assigns the entry to a topic cluster.
func (e *KnowledgeEntry) SetTopic(topic string) {
	e.Topic = topic
}

// SetTTLDays sets the expiry relative to the entry's creation time.
func (e *KnowledgeEntry) SetTTLDays(days int64) {
	expires := e.CreatedAt.Add(time.Duration(days) * 24 * time.Hour)
	e.ExpiresAt = &expires
}

// IsExpired reports whether the entry has aged out. Entries without an
// expiry never do.
func (e *KnowledgeEntry) IsExpired() bool {
	return e.ExpiresAt != nil && time.Now().UTC().After(*e.ExpiresAt)
}

// RecordUsage folds one reuse of this entry into its running success rate.
func (e *KnowledgeEntry) RecordUsage(success bool) {
	e.UsageCount++
	totalSuccesses := e.SuccessRate * float64(e.UsageCount-1)
	if success {
		totalSuccesses++
	}
	e.SuccessRate = totalSuccesses / float64(e.UsageCount)
}

// SummaryText renders the line that gets embedded for similarity search.
func (e *KnowledgeEntry) SummaryText() string {
	return fmt.Sprintf("Error: %s | Root Cause: %s | Solution: %s | Success: %t",
		e.ErrorType, e.Diagnosis.RootCause, e.Solution.StrategyType, e.Outcome.Success)
}

// Topic is a cluster of similar incidents.
type Topic struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Centroid    []float32 `json:"centroid,omitempty"`
	EntryCount  int64     `json:"entry_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTopic creates an empty topic cluster.
func NewTopic(name, description string) *Topic {
	now := time.Now().UTC()
	return &Topic{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdateCentroid recomputes the topic centroid as the element-wise mean of
// the member embeddings. A call with no embeddings is a no-op.
func (t *Topic) UpdateCentroid(embeddings [][]float32) {
	if len(embeddings) == 0 {
		return
	}

	dim := len(embeddings[0])
	centroid := make([]float32, dim)
	for _, embedding := range embeddings {
		for i, val := range embedding {
			centroid[i] += val
		}
	}
	count := float32(len(embeddings))
	for i := range centroid {
		centroid[i] /= count
	}

	t.Centroid = centroid
	t.EntryCount = int64(len(embeddings))
	t.UpdatedAt = time.Now().UTC()
}

// SimilaritySearchResult pairs a recalled entry with its cosine similarity
// to the query.
type SimilaritySearchResult struct {
	Entry           KnowledgeEntry `json:"entry"`
	SimilarityScore float32        `json:"similarity_score"`
}

// ProactivePrediction forecasts a fault before thresholds trip.
type ProactivePrediction struct {
	Namespace          string    `json:"namespace"`
	PodName            string    `json:"pod_name,omitempty"`
	PredictedErrorType string    `json:"predicted_error_type"`
	Probability        float64   `json:"probability"`
	TimeHorizonMinutes int64     `json:"time_horizon_minutes"`
	SuggestedAction    string    `json:"suggested_action,omitempty"`
	BasedOnEntries     []string  `json:"based_on_entries"`
	CreatedAt          time.Time `json:"created_at"`
}

// TrendDirection classifies how a metric is moving.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "Increasing"
	TrendDecreasing TrendDirection = "Decreasing"
	TrendStable     TrendDirection = "Stable"
)

// TrendAnalysis is one metric's movement over the analysis window.
type TrendAnalysis struct {
	Namespace           string         `json:"namespace"`
	MetricName          string         `json:"metric_name"`
	CurrentValue        float64        `json:"current_value"`
	TrendDirection      TrendDirection `json:"trend_direction"`
	ChangeRatePerMinute float64        `json:"change_rate_per_minute"`
	// PredictedThresholdBreachMinutes is nil when no breach is in sight.
	PredictedThresholdBreachMinutes *int64 `json:"predicted_threshold_breach_minutes,omitempty"`
}
