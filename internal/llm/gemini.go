package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/recist-io/recist/internal/logging"
	"github.com/recist-io/recist/internal/models"
)

const geminiEmbeddingModel = "gemini-embedding-001"

// GeminiClient talks to the Gemini API through the genai SDK. The API has
// no separate system role in the generate call we use, so system prompts
// are prepended to the user prompt.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *logging.Logger
}

var _ Client = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini backend for the given model.
func NewGeminiClient(apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, models.NewLLMError("failed to create Gemini client: %v", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
		logger: logging.GetLogger("llm.gemini"),
	}, nil
}

func (c *GeminiClient) send(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug("Sending request to Gemini model %s", c.model)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.1),
		MaxOutputTokens: 4096,
	})
	if err != nil {
		return "", models.NewLLMError("Gemini request failed: %v", err)
	}

	return resp.Text(), nil
}

func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.send(ctx, prompt)
}

func (c *GeminiClient) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return c.send(ctx, fmt.Sprintf("%s\n\n%s", system, prompt))
}

func (c *GeminiClient) Diagnose(ctx context.Context, req *DiagnosisRequest) (*models.LLMDiagnosisResponse, error) {
	return diagnose(ctx, c, req)
}

func (c *GeminiClient) EvaluateStrategy(ctx context.Context, req *StrategyEvaluationRequest) (*models.StrategyEvaluation, error) {
	return evaluateStrategy(ctx, c, req)
}

func (c *GeminiClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	result, err := c.client.Models.EmbedContent(ctx, geminiEmbeddingModel, genai.Text(text), nil)
	if err != nil {
		return nil, models.NewLLMError("Gemini embedding failed: %v", err)
	}

	if len(result.Embeddings) == 0 {
		return nil, nil
	}
	return result.Embeddings[0].Values, nil
}

func (c *GeminiClient) ProviderName() string { return "Gemini" }

func (c *GeminiClient) ModelName() string { return c.model }
