package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// HTTPStatusError carries a provider's non-2xx status.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("non-2xx status: %d", e.StatusCode)
}

// Retryable reports whether the status is worth another attempt.
func (e *HTTPStatusError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

type BreakerConfig struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

func (c BreakerConfig) normalize() BreakerConfig {
	if c.MinRequests == 0 {
		c.MinRequests = 5
	}
	if c.FailureRatio <= 0 || c.FailureRatio > 1 {
		c.FailureRatio = 0.5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.HalfOpenMaxCalls == 0 {
		c.HalfOpenMaxCalls = 1
	}
	return c
}

// recordsFailure decides whether err counts against the breaker. Caller
// cancellations and 4xx request errors say nothing about provider health.
func recordsFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *HTTPStatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

// WithBreaker trips after enough provider failures and then fails fast until
// the open timeout elapses. Disabled config is a no-op.
func WithBreaker(name string, cfg BreakerConfig, logger *slog.Logger) Middleware {
	return func(next Generator) Generator {
		if !cfg.Enabled {
			return next
		}
		if logger == nil {
			logger = slog.Default()
		}
		cfg := cfg.normalize()
		settings := gobreaker.Settings{
			Name:        name,
			MaxRequests: cfg.HalfOpenMaxCalls,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < cfg.MinRequests {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
			},
			IsSuccessful: func(err error) bool { return !recordsFailure(err) },
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("llm.breaker.state_change", "provider", name, "from", from.String(), "to", to.String())
			},
		}
		return &breakerGenerator{cb: gobreaker.NewCircuitBreaker[string](settings), next: next}
	}
}

type breakerGenerator struct {
	cb   *gobreaker.CircuitBreaker[string]
	next Generator
}

func (g *breakerGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return g.cb.Execute(func() (string, error) {
		return g.next.Generate(ctx, prompt, opts)
	})
}

// IsCircuitOpen reports whether err was a fast failure from an open breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
