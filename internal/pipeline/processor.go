// Package pipeline runs one document through classification, extraction and
// validation.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/fallback"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/quality"
	"github.com/joseph-ayodele/invoice-extractor/internal/templates"
)

// MinTextLength is the trimmed character count at or below which text is
// rejected as insufficient.
const MinTextLength = 10

// Model outcomes reported to the Observer.
const (
	ModelSuccess   = "success"
	ModelExhausted = "exhausted"
	ModelDisabled  = "disabled"
)

// ModelExtractor is the generic, model-backed strategy. It returns the
// number of model calls it made.
type ModelExtractor interface {
	Extract(ctx context.Context, raw invoice.RawText, docType string) (invoice.Invoice, int, error)
}

// Observer receives one callback per processed document. Implementations
// must be safe for concurrent use.
type Observer interface {
	ObserveExtraction(res Result)
	ObserveModelAttempts(attempts int, outcome string)
}

type Result struct {
	Invoice  invoice.Invoice
	Report   invoice.Report
	Profile  invoice.Profile
	Attempts int // model calls; 0 on the specialized path
	Elapsed  time.Duration
}

func (r Result) Method() constants.Method { return r.Invoice.Method }

// Processor coordinates classify → extract → validate.
type Processor struct {
	logger    *slog.Logger
	registry  *templates.Registry
	model     ModelExtractor
	fallback  *fallback.Extractor
	validator *quality.Validator
	reviewer  Reviewer
	observer  Observer
}

// Reviewer attaches an advisory second opinion to a report.
type Reviewer interface {
	Review(ctx context.Context, inv invoice.Invoice, raw invoice.RawText) json.RawMessage
}

type Option func(*Processor)

func WithObserver(o Observer) Option {
	return func(p *Processor) { p.observer = o }
}

func WithReviewer(r Reviewer) Option {
	return func(p *Processor) { p.reviewer = r }
}

// NewProcessor wires the strategies. A nil model sends every generic
// document straight to the fallback extractor.
func NewProcessor(logger *slog.Logger, registry *templates.Registry, model ModelExtractor, fb *fallback.Extractor, v *quality.Validator, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if fb == nil {
		fb = fallback.NewExtractor(logger)
	}
	if v == nil {
		v = quality.NewValidator(quality.DefaultConfig(), logger)
	}
	p := &Processor{
		logger:    logger,
		registry:  registry,
		model:     model,
		fallback:  fb,
		validator: v,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Extract produces a validated invoice for raw. Model failures are absorbed
// by the fallback; the only error is ErrInsufficientText.
func (p *Processor) Extract(ctx context.Context, raw invoice.RawText, docType string) (Result, error) {
	if invoice.CharLen(strings.TrimSpace(raw.String())) <= MinTextLength {
		return Result{}, common.ErrInsufficientText
	}
	if docType == "" {
		docType = constants.DefaultDocumentType
	}
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()

	profile := p.registry.Classify(raw)
	p.logger.Info("pipeline.classify",
		"req_id", rid,
		"profile", profile.String(),
		"text_len", raw.Len(),
	)

	res := Result{Profile: profile}
	if tpl, found := p.registry.Lookup(profile.TemplateID); profile.IsSpecialized() && found {
		res.Invoice = tpl.Extract(raw)
	} else {
		res.Invoice, res.Attempts = p.generic(ctx, rid, raw, docType)
	}

	res.Report = p.validator.Validate(res.Invoice, raw)
	if p.reviewer != nil {
		res.Report.ModelReview = p.reviewer.Review(ctx, res.Invoice, raw)
	}
	res.Elapsed = time.Since(start)

	p.logger.Info("pipeline.extract.done",
		"req_id", rid,
		"method", res.Method(),
		"attempts", res.Attempts,
		"valid", res.Report.IsValid,
		"quality", res.Report.QualityScore,
		"elapsed_ms", res.Elapsed.Milliseconds(),
	)
	if p.observer != nil {
		p.observer.ObserveExtraction(res)
	}
	return res, nil
}

func (p *Processor) generic(ctx context.Context, rid string, raw invoice.RawText, docType string) (invoice.Invoice, int) {
	if p.model == nil {
		p.observeModel(0, ModelDisabled)
		return p.fallback.Extract(raw), 0
	}
	inv, attempts, err := p.model.Extract(ctx, raw, docType)
	if err == nil {
		p.observeModel(attempts, ModelSuccess)
		return inv, attempts
	}
	p.logger.Warn("pipeline.model.fallback",
		"req_id", rid,
		"attempts", attempts,
		"error", err,
	)
	p.observeModel(attempts, ModelExhausted)
	return p.fallback.Extract(raw), attempts
}

func (p *Processor) observeModel(attempts int, outcome string) {
	if p.observer != nil {
		p.observer.ObserveModelAttempts(attempts, outcome)
	}
}
