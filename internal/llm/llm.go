// Package llm adapts the supported language model backends (Claude, OpenAI,
// Gemini, Ollama) to one Client contract used for diagnosis, strategy
// evaluation, and embeddings.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/recist-io/recist/api/v1alpha1"
	"github.com/recist-io/recist/internal/models"
)

// ErrEmbeddingUnsupported is returned by providers without an embedding API.
// Callers that can work without embeddings should check for it with
// errors.Is and degrade instead of failing.
var ErrEmbeddingUnsupported = errors.New("provider does not support embeddings")

// Client is the contract every language model backend implements.
type Client interface {
	// Complete sends a bare prompt and returns the model's text.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteWithSystem sends a prompt under a system instruction.
	CompleteWithSystem(ctx context.Context, system, prompt string) (string, error)

	// Diagnose asks the model for a root cause given logs, metrics, and
	// events, and parses the structured answer.
	Diagnose(ctx context.Context, req *DiagnosisRequest) (*models.LLMDiagnosisResponse, error)

	// EvaluateStrategy asks the model to grade one healing strategy
	// against a diagnosis.
	EvaluateStrategy(ctx context.Context, req *StrategyEvaluationRequest) (*models.StrategyEvaluation, error)

	// GenerateEmbedding returns a vector for the text, or
	// ErrEmbeddingUnsupported.
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	ProviderName() string
	ModelName() string
}

// DiagnosisRequest is the evidence bundle handed to the model.
type DiagnosisRequest struct {
	Logs             []string
	Metrics          []MetricSnapshot
	KubernetesEvents []string
	PodName          string
	Namespace        string
	ErrorType        string
}

// MetricSnapshot is one metric reading, optionally with the threshold it
// violated.
type MetricSnapshot struct {
	Name      string
	Value     float64
	Threshold *float64
}

// StrategyEvaluationRequest asks the model to grade one candidate strategy.
type StrategyEvaluationRequest struct {
	Diagnosis             string
	RootCause             string
	StrategyType          string
	CurrentMetrics        []MetricSnapshot
	HistoricalSuccessRate *float64
}

// Config carries everything needed to construct a backend client. APIKey
// comes from the policy's secret; BaseURL is only honored by OpenAI and
// Ollama.
type Config struct {
	Provider v1alpha1.LLMProvider
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// New constructs the backend client for the configured provider.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case v1alpha1.ProviderClaude:
		return NewClaudeClient(cfg.APIKey, cfg.Model, cfg.Timeout), nil
	case v1alpha1.ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Timeout), nil
	case v1alpha1.ProviderGemini:
		return NewGeminiClient(cfg.APIKey, cfg.Model, cfg.Timeout)
	case v1alpha1.ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		return NewOllamaClient(baseURL, cfg.Model, cfg.Timeout), nil
	default:
		return nil, models.NewLLMError("unsupported provider: %s", cfg.Provider)
	}
}

// diagnose runs the shared diagnose flow over any backend.
func diagnose(ctx context.Context, c Client, req *DiagnosisRequest) (*models.LLMDiagnosisResponse, error) {
	response, err := c.CompleteWithSystem(ctx, diagnosisSystemPrompt, buildDiagnosisPrompt(req))
	if err != nil {
		return nil, err
	}
	return parseDiagnosisResponse(response)
}

// evaluateStrategy runs the shared evaluation flow over any backend.
func evaluateStrategy(ctx context.Context, c Client, req *StrategyEvaluationRequest) (*models.StrategyEvaluation, error) {
	response, err := c.CompleteWithSystem(ctx, strategyEvaluationSystemPrompt, buildStrategyEvaluationPrompt(req))
	if err != nil {
		return nil, err
	}
	return parseStrategyEvaluation(response, req.StrategyType)
}
