// Package bedrock generates text with AWS Bedrock's Converse API.
package bedrock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
)

const (
	DefaultModel  = "anthropic.claude-3-5-haiku-20241022-v1:0"
	DefaultRegion = "us-west-2"
)

// ConverseAPI is the slice of the Bedrock runtime client we call.
type ConverseAPI interface {
	Converse(ctx context.Context, in *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type Client struct {
	api    ConverseAPI
	model  string
	logger *slog.Logger
}

// New loads the default AWS credential chain for region.
func New(ctx context.Context, region, model string, logger *slog.Logger) (*Client, error) {
	if region == "" {
		region = DefaultRegion
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithAPI(bedrockruntime.NewFromConfig(cfg), model, logger), nil
}

func NewWithAPI(api ConverseAPI, model string, logger *slog.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, model: model, logger: logger}
}

func (c *Client) Model() string { return c.model }

// Generate sends prompt as a single user turn and joins the text blocks of
// the reply.
func (c *Client) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	resp, err := c.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.model),
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
		}},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(opts.MaxTokens),
			Temperature: aws.Float32(opts.Temperature),
		},
	})
	if err != nil {
		c.logger.Error("llm.bedrock.converse_error",
			"req_id", rid, "model", c.model, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("bedrock converse: %w", err)
	}

	msg, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("bedrock converse: unexpected output %T", resp.Output)
	}
	var b strings.Builder
	for _, block := range msg.Value.Content {
		if t, ok := block.(*types.ContentBlockMemberText); ok {
			b.WriteString(t.Value)
		}
	}

	c.logger.Info("llm.bedrock.ok",
		"req_id", rid,
		"model", c.model,
		"stop_reason", string(resp.StopReason),
		"chars", b.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b.String(), nil
}
