// Package app turns a loaded common.Config into wired components shared by
// the commands.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/fallback"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm/anthropic"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm/bedrock"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
	"github.com/joseph-ayodele/invoice-extractor/internal/quality"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
	"github.com/joseph-ayodele/invoice-extractor/internal/templates"
)

const ProviderNone = "none"

// NewGenerator builds the configured model provider wrapped in rate limit,
// breaker and tracing. It returns nil for provider "none".
func NewGenerator(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		gen   llm.Generator
		model string
	)
	switch strings.ToLower(cfg.Provider) {
	case ProviderNone, "":
		logger.Warn("llm.disabled", "reason", "provider none; generic documents use the pattern fallback")
		return nil, nil
	case "bedrock":
		c, err := bedrock.New(ctx, cfg.AWSRegion, cfg.Model, logger)
		if err != nil {
			return nil, err
		}
		gen, model = c, c.Model()
	case "anthropic":
		c := anthropic.New(anthropic.Config{
			APIKey: cfg.AnthropicKey,
			Model:  cfg.Model,
			Client: &http.Client{Timeout: cfg.Timeout},
		}, logger)
		gen, model = c, c.Model()
	case "openai":
		c := openai.NewClient(openai.Config{
			APIKey:   cfg.OpenAIKey,
			BaseURL:  cfg.OpenAIBaseURL,
			Model:    cfg.Model,
			Timeout:  cfg.Timeout,
			JSONMode: true,
		}, logger)
		gen, model = c, c.Model()
	default:
		return nil, common.InvalidInputf("unknown llm provider %q", cfg.Provider)
	}

	var breaker llm.Middleware
	if cfg.Breaker.Enabled {
		breaker = llm.WithBreaker(cfg.Provider+":"+model, llm.BreakerConfig{
			Enabled:          true,
			MinRequests:      cfg.Breaker.MinRequests,
			FailureRatio:     cfg.Breaker.FailureRatio,
			OpenTimeout:      cfg.Breaker.OpenTimeout,
			HalfOpenMaxCalls: cfg.Breaker.HalfOpenMaxCalls,
		}, logger)
	}
	limit := llm.WithLimiter(llm.NewLimiter(cfg.RateLimit, cfg.RateBurst))

	logger.Info("llm.ready", "provider", cfg.Provider, "model", model, "rate_limit", cfg.RateLimit, "breaker", cfg.Breaker.Enabled)
	return llm.Wrap(gen, cfg.Provider, model, limit, breaker), nil
}

// NewRegistry returns the built-in templates plus any from cfg.TemplatesFile.
func NewRegistry(cfg common.ValidationConfig, logger *slog.Logger) (*templates.Registry, error) {
	reg := templates.DefaultRegistry()
	if cfg.TemplatesFile == "" {
		return reg, nil
	}
	n, err := templates.LoadTokenProfiles(reg, cfg.TemplatesFile)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	if logger != nil {
		logger.Info("templates.loaded", "file", cfg.TemplatesFile, "count", n, "ids", reg.IDs())
	}
	return reg, nil
}

// NewValidator maps the validation config onto the quality rubric.
func NewValidator(cfg common.ValidationConfig, logger *slog.Logger) (*quality.Validator, error) {
	check, err := quality.ParseLineItemCheck(cfg.LineItemCheck)
	if err != nil {
		return nil, err
	}
	qc := quality.Config{LineItemCheck: check}
	if cfg.LargeAmountThreshold > 0 {
		qc.LargeAmountThreshold = decimal.NewFromFloat(cfg.LargeAmountThreshold)
	}
	return quality.NewValidator(qc, logger), nil
}

// NewProcessor wires the full strategy chain from cfg.
func NewProcessor(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts ...pipeline.Option) (*pipeline.Processor, *templates.Registry, error) {
	reg, err := NewRegistry(cfg.Validation, logger)
	if err != nil {
		return nil, nil, err
	}
	v, err := NewValidator(cfg.Validation, logger)
	if err != nil {
		return nil, nil, err
	}
	gen, err := NewGenerator(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, nil, err
	}

	var model pipeline.ModelExtractor
	if gen != nil {
		genOpts := llm.Options{MaxTokens: cfg.LLM.MaxTokens, Temperature: cfg.LLM.Temperature}
		model = llm.NewModelExtractor(gen, llm.ExtractorConfig{
			MaxAttempts: cfg.LLM.MaxAttempts,
			RetryDelay:  cfg.LLM.RetryDelay,
			Options:     genOpts,
		}, logger)
		if cfg.LLM.Review {
			opts = append(opts, pipeline.WithReviewer(llm.NewReviewer(gen, genOpts, logger)))
		}
	}
	return pipeline.NewProcessor(logger, reg, model, fallback.NewExtractor(logger), v, opts...), reg, nil
}

// OCRConfig maps the environment config onto the OCR extractor.
func OCRConfig(cfg common.OCRConfig) ocr.Config {
	return ocr.Config{
		Mode:                ocr.Mode(cfg.Mode),
		Pdftotext:           cfg.PdfToTextBin,
		Pdftoppm:            cfg.PdfToPpmBin,
		Tesseract:           cfg.TesseractBin,
		TessdataDir:         cfg.TessdataDir,
		DPI:                 cfg.DPI,
		MaxPages:            cfg.MaxPages,
		MinText:             cfg.MinNativeText,
		EnableTSVConfidence: true,
	}
}

// Store is a repository.Store plus its cleanup.
type Store struct {
	repository.Store
	Close func()
}

// OpenStore picks Postgres when a DSN is set, then SQLite (inmem wins over
// SQLitePath). With neither it returns a nil Store and no error.
func OpenStore(ctx context.Context, cfg common.DatabaseConfig, inmem bool, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch {
	case inmem:
		return openSQLite(ctx, ":memory:", logger)
	case cfg.DSN != "":
		pool, err := repository.Open(ctx, repository.Config{
			DSN:              cfg.DSN,
			MaxConns:         cfg.MaxConns,
			MinConns:         cfg.MinConns,
			MaxConnLifetime:  cfg.MaxConnLifetime,
			MaxConnIdleTime:  cfg.MaxConnIdleTime,
			DialTimeout:      cfg.DialTimeout,
			StatementTimeout: cfg.StatementTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		pg := repository.NewPostgresStore(pool, logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			repository.Close(pool, logger)
			return nil, err
		}
		return &Store{Store: pg, Close: func() { repository.Close(pool, logger) }}, nil
	case cfg.SQLitePath != "":
		return openSQLite(ctx, cfg.SQLitePath, logger)
	default:
		logger.Info("store.disabled")
		return nil, nil
	}
}

func openSQLite(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	s, err := repository.OpenSQLite(ctx, path, logger)
	if err != nil {
		return nil, err
	}
	return &Store{Store: s, Close: func() {
		if err := s.Close(); err != nil {
			logger.Error("store.close_failed", "error", err)
		}
	}}, nil
}
