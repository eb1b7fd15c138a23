package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
)

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate implements llm.Generator over chat/completions.
func (c *Client) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": opts.Temperature,
		"max_tokens":  opts.MaxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	if c.cfg.JSONMode {
		body["response_format"] = map[string]any{"type": "json_object"}
	}
	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.cfg.APIKey
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, status, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.log)
	if err != nil {
		c.log.Error("llm.openai.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("openai chat: %w", err)
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.openai.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
		)
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)

	c.log.Info("llm.openai.ok",
		"req_id", rid,
		"model", c.cfg.Model,
		"chars", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
