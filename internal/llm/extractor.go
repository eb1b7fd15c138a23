package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = time.Second

	minEssentialFields = 2
)

type ExtractorConfig struct {
	MaxAttempts int           // total calls, first one included
	RetryDelay  time.Duration // fixed, no growth between attempts
	Options     Options
}

func (c *ExtractorConfig) normalize() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	if c.Options == (Options{}) {
		c.Options = DefaultOptions()
	}
	if c.Options.MaxTokens <= 0 {
		c.Options.MaxTokens = DefaultOptions().MaxTokens
	}
	if c.Options.Temperature < 0 {
		c.Options.Temperature = DefaultOptions().Temperature
	}
}

// DefaultExtractorConfig is three attempts one second apart.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{MaxAttempts: DefaultMaxAttempts, RetryDelay: DefaultRetryDelay, Options: DefaultOptions()}
}

// ModelExtractor turns document text into an Invoice through a Generator.
type ModelExtractor struct {
	gen    Generator
	cfg    ExtractorConfig
	schema map[string]any
	logger *slog.Logger
}

func NewModelExtractor(gen Generator, cfg ExtractorConfig, logger *slog.Logger) *ModelExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.normalize()
	return &ModelExtractor{gen: gen, cfg: cfg, schema: BuildInvoiceJSONSchema(), logger: logger}
}

// Extract calls the model until an output is accepted or attempts run out.
// It returns the number of calls made; on failure the error wraps
// ErrModelExhausted and the last attempt's cause.
func (e *ModelExtractor) Extract(ctx context.Context, raw invoice.RawText, docType string) (invoice.Invoice, int, error) {
	rid := uuid.New().String()
	start := time.Now()
	prompt := BuildExtractionPrompt(raw.String(), docType)

	e.logger.Info("llm.extract.start",
		"req_id", rid,
		"doc_type", docType,
		"text_len", raw.Len(),
		"max_attempts", e.cfg.MaxAttempts,
	)

	var lastErr error
	attempts := 0
	for attempts < e.cfg.MaxAttempts {
		if attempts > 0 {
			if err := sleepCtx(ctx, e.cfg.RetryDelay); err != nil {
				lastErr = err
				break
			}
		}
		attempts++

		inv, err := e.attempt(ctx, prompt)
		if err == nil {
			e.logger.Info("llm.extract.ok",
				"req_id", rid,
				"attempt", attempts,
				"vendor", invoice.Deref(inv.VendorName),
				"date", invoice.Deref(inv.Date),
				"line_items", len(inv.LineItems),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return inv, attempts, nil
		}
		lastErr = err
		e.logger.Warn("llm.extract.attempt_failed",
			"req_id", rid,
			"attempt", attempts,
			"error", err,
		)
		if ctx.Err() != nil {
			break
		}
	}

	e.logger.Error("llm.extract.exhausted",
		"req_id", rid,
		"attempts", attempts,
		"error", lastErr,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return invoice.Invoice{}, attempts, fmt.Errorf("%w after %d attempts: %w", ErrModelExhausted, attempts, lastErr)
}

func (e *ModelExtractor) attempt(ctx context.Context, prompt string) (invoice.Invoice, error) {
	out, err := e.gen.Generate(ctx, prompt, e.cfg.Options)
	if err != nil {
		return invoice.Invoice{}, fmt.Errorf("generate: %w", err)
	}
	doc, err := RepairJSON(out)
	if err != nil {
		return invoice.Invoice{}, err
	}
	clean, _, err := NormalizeAndSanitizeJSON(doc, e.logger)
	if err != nil {
		return invoice.Invoice{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := ValidateJSONAgainstSchema(e.schema, clean); err != nil {
		return invoice.Invoice{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	inv, err := decodeInvoice(clean)
	if err != nil {
		return invoice.Invoice{}, err
	}
	if n := inv.EssentialFields(); n < minEssentialFields {
		return invoice.Invoice{}, fmt.Errorf("%w: %d of 3 present", ErrIncomplete, n)
	}
	return inv, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsExhausted reports whether err came from a model extraction that gave up.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrModelExhausted)
}
