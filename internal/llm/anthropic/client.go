// Package anthropic generates text with the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
)

const DefaultModel = "claude-3-5-haiku-20241022"

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
}

func (cfg Config) options() []option.RequestOption {
	var opts []option.RequestOption
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	if cfg.Client != nil {
		opts = append(opts, option.WithHTTPClient(cfg.Client))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	return opts
}

type Client struct {
	messages anthropic.MessageService
	model    string
	logger   *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		messages: anthropic.NewMessageService(cfg.options()...),
		model:    cfg.Model,
		logger:   logger,
	}
}

func (c *Client) Model() string { return c.model }

func (c *Client) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	msg, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(opts.MaxTokens),
		Temperature: anthropic.Float(float64(opts.Temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		c.logger.Error("llm.anthropic.error",
			"req_id", rid, "model", c.model, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("anthropic messages: %w", &llm.HTTPStatusError{StatusCode: apiErr.StatusCode, Body: apiErr.Error()})
		}
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	c.logger.Info("llm.anthropic.ok",
		"req_id", rid,
		"model", c.model,
		"stop_reason", string(msg.StopReason),
		"chars", b.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b.String(), nil
}
