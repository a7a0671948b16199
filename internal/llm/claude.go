package llm

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/recist-io/recist/internal/logging"
	"github.com/recist-io/recist/internal/models"
)

const claudeMaxTokens = 4096

// ClaudeClient talks to the Anthropic Messages API.
type ClaudeClient struct {
	client anthropic.Client
	model  string
	logger *logging.Logger
}

var _ Client = (*ClaudeClient)(nil)

// NewClaudeClient creates a Claude backend for the given model.
func NewClaudeClient(apiKey, model string, timeout time.Duration) *ClaudeClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
	)

	return &ClaudeClient{
		client: client,
		model:  model,
		logger: logging.GetLogger("llm.claude"),
	}
}

func (c *ClaudeClient) send(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: claudeMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	c.logger.Debug("Sending request to Claude model %s", c.model)

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", models.NewLLMError("Claude request failed: %v", err)
	}

	var parts []string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}

	return strings.Join(parts, ""), nil
}

func (c *ClaudeClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.send(ctx, "", prompt)
}

func (c *ClaudeClient) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return c.send(ctx, system, prompt)
}

func (c *ClaudeClient) Diagnose(ctx context.Context, req *DiagnosisRequest) (*models.LLMDiagnosisResponse, error) {
	return diagnose(ctx, c, req)
}

func (c *ClaudeClient) EvaluateStrategy(ctx context.Context, req *StrategyEvaluationRequest) (*models.StrategyEvaluation, error) {
	return evaluateStrategy(ctx, c, req)
}

// GenerateEmbedding always fails: the Anthropic API has no embedding
// endpoint. Pair Claude with a separate embedding-capable provider.
func (c *ClaudeClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, ErrEmbeddingUnsupported
}

func (c *ClaudeClient) ProviderName() string { return "Claude" }

func (c *ClaudeClient) ModelName() string { return c.model }
