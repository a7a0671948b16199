package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/recist-io/recist/internal/logging"
	"github.com/recist-io/recist/internal/models"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	openaiEmbeddingModel = "text-embedding-3-small"
)

// OpenAIClient talks to the OpenAI chat completions and embeddings APIs.
// BaseURL can point at any OpenAI-compatible gateway.
type OpenAIClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates an OpenAI backend. An empty baseURL selects the
// public API endpoint.
func NewOpenAIClient(apiKey, model, baseURL string, timeout time.Duration) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	return &OpenAIClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logging.GetLogger("llm.openai"),
	}
}

type openaiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openaiChatMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
}

type openaiChatResponse struct {
	Choices []struct {
		Message openaiChatMessage `json:"message"`
	} `json:"choices"`
}

type openaiEmbeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openaiEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *OpenAIClient) post(ctx context.Context, path string, reqBody, out interface{}) error {
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.NewLLMError("OpenAI request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.NewLLMError("OpenAI API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return models.NewLLMError("failed to parse OpenAI response: %v", err)
	}
	return nil
}

func (c *OpenAIClient) send(ctx context.Context, system, prompt string) (string, error) {
	var messages []openaiChatMessage
	if system != "" {
		messages = append(messages, openaiChatMessage{Role: "system", Content: system})
	}
	messages = append(messages, openaiChatMessage{Role: "user", Content: prompt})

	request := openaiChatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   4096,
		Temperature: 0.1,
	}

	c.logger.Debug("Sending request to OpenAI model %s", c.model)

	var parsed openaiChatResponse
	if err := c.post(ctx, "/chat/completions", request, &parsed); err != nil {
		return "", err
	}

	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.send(ctx, "", prompt)
}

func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return c.send(ctx, system, prompt)
}

func (c *OpenAIClient) Diagnose(ctx context.Context, req *DiagnosisRequest) (*models.LLMDiagnosisResponse, error) {
	return diagnose(ctx, c, req)
}

func (c *OpenAIClient) EvaluateStrategy(ctx context.Context, req *StrategyEvaluationRequest) (*models.StrategyEvaluation, error) {
	return evaluateStrategy(ctx, c, req)
}

func (c *OpenAIClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	request := openaiEmbeddingRequest{
		Model: openaiEmbeddingModel,
		Input: text,
	}

	var parsed openaiEmbeddingResponse
	if err := c.post(ctx, "/embeddings", request, &parsed); err != nil {
		return nil, err
	}

	if len(parsed.Data) == 0 {
		return nil, nil
	}
	return parsed.Data[0].Embedding, nil
}

func (c *OpenAIClient) ProviderName() string { return "OpenAI" }

func (c *OpenAIClient) ModelName() string { return c.model }
