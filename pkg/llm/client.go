package llm

import (
	"context"
	"fmt"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/logger"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/param"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const DefaultModel = "claude-3-5-haiku-latest"

var (
	// 5 requests per second with burst of 10
	claudeRateLimiter = rate.NewLimiter(rate.Every(200*time.Millisecond), 10)
)

// Completer sends a single prompt and returns the model's text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int64) (string, error)
}

type AnthropicCompleter struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicCompleter builds a completer from the configured API key.
// An empty model uses ENGINEO_DRAFT_MODEL, then DefaultModel.
func NewAnthropicCompleter(model string) (*AnthropicCompleter, error) {
	if param.Get().AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}
	if model == "" {
		model = param.Get().DraftModel
	}
	if model == "" {
		model = DefaultModel
	}

	client := anthropic.NewClient(
		option.WithAPIKey(param.Get().AnthropicAPIKey),
	)

	return &AnthropicCompleter{
		client: client,
		model:  model,
	}, nil
}

func (c *AnthropicCompleter) Complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	if err := claudeRateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	logger.Debug("Sending request to Claude API", zap.String("model", c.model))
	startTime := time.Now()

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(c.model),
		MaxTokens: anthropic.F(maxTokens),
		Messages:  anthropic.F([]anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))}),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create message: %w", err)
	}

	logger.Debug("Received response from Claude API",
		zap.Duration("duration", time.Since(startTime)))

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return resp.Content[0].Text, nil
}
