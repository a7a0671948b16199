package agents

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/ptr"

	"github.com/recist-io/recist/internal/llm"
	"github.com/recist-io/recist/internal/logging"
	"github.com/recist-io/recist/internal/models"
)

// MicroAgent evaluates one candidate strategy against a diagnosis. Each
// micro agent starts from a heuristic confidence and refines it with the
// language model until it is confident enough or runs out of depth.
type MicroAgent struct {
	id           string
	strategyType models.StrategyType
	hypothesis   models.DiagnosisHypothesis
	llm          llm.Client
	maxDepth     int32
	logger       *logging.Logger
}

// NewMicroAgent spawns an evaluator for one strategy.
func NewMicroAgent(strategyType models.StrategyType, hypothesis models.DiagnosisHypothesis,
	client llm.Client, maxDepth int32) *MicroAgent {
	return &MicroAgent{
		id:           uuid.NewString(),
		strategyType: strategyType,
		hypothesis:   hypothesis,
		llm:          client,
		maxDepth:     maxDepth,
		logger:       logging.GetLogger("micro-agent"),
	}
}

// Evaluate runs the reasoning loop. The loop stops early once the model
// reports at least 0.8 confidence, or 0.7 with prerequisites met.
func (m *MicroAgent) Evaluate(ctx context.Context) (*models.MicroAgentResult, error) {
	m.logger.Debug("Micro-agent %s evaluating strategy %s", m.id, m.strategyType)

	confidence := m.initialConfidence()
	var evidence []string
	var depth int32

	for confidence < 0.8 && depth < m.maxDepth {
		request := &llm.StrategyEvaluationRequest{
			Diagnosis:    m.hypothesis.Hypothesis,
			RootCause:    m.hypothesis.RootCause,
			StrategyType: string(m.strategyType),
			CurrentMetrics: []llm.MetricSnapshot{{
				Name:      "confidence",
				Value:     confidence,
				Threshold: ptr.To(0.8),
			}},
			HistoricalSuccessRate: ptr.To(m.historicalSuccessRate()),
		}

		evaluation, err := m.llm.EvaluateStrategy(ctx, request)
		if err != nil {
			return nil, err
		}

		confidence = evaluation.SuccessProbability
		evidence = append(evidence, evaluation.Reasoning)
		depth++

		if evaluation.PrerequisitesMet && confidence >= 0.7 {
			break
		}
	}

	m.logger.Info("Micro-agent %s completed: strategy=%s, confidence=%.2f, depth=%d",
		m.id, m.strategyType, confidence, depth)

	return &models.MicroAgentResult{
		AgentID:        m.id,
		Hypothesis:     m.hypothesis.Hypothesis,
		StrategyType:   m.strategyType,
		Confidence:     confidence,
		ReasoningDepth: depth,
		Evidence:       evidence,
		CompletedAt:    time.Now().UTC(),
	}, nil
}

// containsAny reports whether s contains at least one of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// initialConfidence seeds the loop from keyword matches between the root
// cause and the strategy's sweet spot.
func (m *MicroAgent) initialConfidence() float64 {
	rootCause := strings.ToLower(m.hypothesis.RootCause)

	switch m.strategyType {
	case models.StrategyPodRestart:
		if containsAny(rootCause, "memory", "leak") {
			return 0.7
		}
		if containsAny(rootCause, "deadlock", "hang") {
			return 0.65
		}
		return 0.5
	case models.StrategyHorizontalScale:
		if containsAny(rootCause, "load", "capacity") {
			return 0.7
		}
		if containsAny(rootCause, "cpu") {
			return 0.6
		}
		return 0.4
	case models.StrategyVerticalScale:
		if containsAny(rootCause, "oom", "memory") {
			return 0.65
		}
		if containsAny(rootCause, "cpu") {
			return 0.55
		}
		return 0.4
	case models.StrategyConfigUpdate:
		if containsAny(rootCause, "connection", "pool") {
			return 0.6
		}
		if containsAny(rootCause, "timeout") {
			return 0.55
		}
		return 0.35
	case models.StrategyDependencyRestart:
		if containsAny(rootCause, "dependency", "upstream") {
			return 0.5
		}
		return 0.3
	case models.StrategyNetworkIsolation:
		if containsAny(rootCause, "network", "cascade") {
			return 0.6
		}
		return 0.35
	default:
		return 0.5
	}
}

// historicalSuccessRate is the baseline rate per strategy, fed to the model
// as prior context.
func (m *MicroAgent) historicalSuccessRate() float64 {
	switch m.strategyType {
	case models.StrategyPodRestart:
		return 0.85
	case models.StrategyHorizontalScale:
		return 0.75
	case models.StrategyVerticalScale:
		return 0.70
	case models.StrategyConfigUpdate:
		return 0.65
	case models.StrategyDependencyRestart:
		return 0.60
	case models.StrategyNetworkIsolation:
		return 0.80
	default:
		return 0.70
	}
}
