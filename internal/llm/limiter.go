package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type limitedGenerator struct {
	limiter *rate.Limiter
	next    Generator
}

// NewLimiter builds a limiter allowing perSecond calls with the given burst.
// A non-positive rate disables limiting.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// WithLimiter waits on l before every call. A nil limiter is a no-op.
func WithLimiter(l *rate.Limiter) Middleware {
	return func(next Generator) Generator {
		if l == nil {
			return next
		}
		return &limitedGenerator{limiter: l, next: next}
	}
}

func (g *limitedGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return g.next.Generate(ctx, prompt, opts)
}
