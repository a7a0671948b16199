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

const defaultOllamaURL = "http://localhost:11434"

// OllamaClient talks to a local or in-cluster Ollama server. The same model
// serves both generation and embeddings.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *logging.Logger
}

var _ Client = (*OllamaClient)(nil)

// NewOllamaClient creates an Ollama backend for the given server URL.
func NewOllamaClient(baseURL, model string, timeout time.Duration) *OllamaClient {
	return &OllamaClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logging.GetLogger("llm.ollama"),
	}
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (c *OllamaClient) post(ctx context.Context, path string, reqBody, out interface{}) error {
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.NewLLMError("Ollama request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.NewLLMError("Ollama API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return models.NewLLMError("failed to parse Ollama response: %v", err)
	}
	return nil
}

func (c *OllamaClient) send(ctx context.Context, system, prompt string) (string, error) {
	request := ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: system,
		Stream: false,
		Options: &ollamaOptions{
			Temperature: 0.1,
			NumPredict:  4096,
		},
	}

	c.logger.Debug("Sending request to Ollama model %s at %s", c.model, c.baseURL)

	var parsed ollamaGenerateResponse
	if err := c.post(ctx, "/api/generate", request, &parsed); err != nil {
		return "", err
	}
	return parsed.Response, nil
}

func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.send(ctx, "", prompt)
}

func (c *OllamaClient) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return c.send(ctx, system, prompt)
}

func (c *OllamaClient) Diagnose(ctx context.Context, req *DiagnosisRequest) (*models.LLMDiagnosisResponse, error) {
	return diagnose(ctx, c, req)
}

func (c *OllamaClient) EvaluateStrategy(ctx context.Context, req *StrategyEvaluationRequest) (*models.StrategyEvaluation, error) {
	return evaluateStrategy(ctx, c, req)
}

func (c *OllamaClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	request := ollamaEmbedRequest{
		Model:  c.model,
		Prompt: text,
	}

	var parsed ollamaEmbedResponse
	if err := c.post(ctx, "/api/embeddings", request, &parsed); err != nil {
		return nil, err
	}
	return parsed.Embedding, nil
}

func (c *OllamaClient) ProviderName() string { return "Ollama" }

func (c *OllamaClient) ModelName() string { return c.model }
