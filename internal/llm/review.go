package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

// ReviewTextChars is how much document text the reviewer sees.
const ReviewTextChars = 1000

// Reviewer asks the model for a second opinion on an extraction. Its verdict
// is advisory and never changes the rubric's score.
type Reviewer struct {
	gen    Generator
	opts   Options
	logger *slog.Logger
}

func NewReviewer(gen Generator, opts Options, logger *slog.Logger) *Reviewer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts == (Options{}) {
		opts = DefaultOptions()
	}
	return &Reviewer{gen: gen, opts: opts, logger: logger}
}

// BuildReviewPrompt asks for is_valid, confidence_score, corrections,
// warnings and suggestions as one JSON object.
func BuildReviewPrompt(inv invoice.Invoice, text string) (string, error) {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode invoice: %w", err)
	}
	return "Please review this extracted data against the original text and provide validation.\n\n" +
		"Extracted Data:\n" + string(data) + "\n\n" +
		"Original Text:\n" + text + "\n\n" +
		"Return a JSON object with:\n" +
		"- is_valid: boolean indicating if extraction looks correct\n" +
		"- confidence_score: overall confidence (0-1)\n" +
		"- corrections: object with any field corrections needed\n" +
		"- warnings: array of potential issues found\n" +
		"- suggestions: array of improvement suggestions\n\n" +
		"Return only valid JSON:", nil
}

// Review returns the model's verdict as a JSON object, or {"error": ...}
// when the call or its output fails.
func (r *Reviewer) Review(ctx context.Context, inv invoice.Invoice, raw invoice.RawText) json.RawMessage {
	rid := uuid.New().String()
	start := time.Now()

	verdict, err := r.review(ctx, inv, raw)
	if err != nil {
		r.logger.Warn("llm.review.failed",
			"req_id", rid,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		out, _ := json.Marshal(map[string]string{"error": err.Error()})
		return out
	}
	r.logger.Info("llm.review.ok",
		"req_id", rid,
		"bytes", len(verdict),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return verdict
}

func (r *Reviewer) review(ctx context.Context, inv invoice.Invoice, raw invoice.RawText) (json.RawMessage, error) {
	prompt, err := BuildReviewPrompt(inv, raw.Head(ReviewTextChars))
	if err != nil {
		return nil, err
	}
	out, err := r.gen.Generate(ctx, prompt, r.opts)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	doc, err := RepairJSON(out)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc), nil
}
