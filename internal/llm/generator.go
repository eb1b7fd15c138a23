package llm

import (
	"context"
	"errors"
)

// Options are the sampling parameters for one generation call.
type Options struct {
	MaxTokens   int32
	Temperature float32
}

// DefaultOptions matches the extraction prompt: short, near-deterministic output.
func DefaultOptions() Options {
	return Options{MaxTokens: 2000, Temperature: 0.1}
}

// Generator is a text-in/text-out model client. Implementations must be safe
// for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, opts Options) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}

// Middleware decorates a Generator.
type Middleware func(Generator) Generator

// Chain applies mws so that the first one is outermost.
func Chain(g Generator, mws ...Middleware) Generator {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			g = mws[i](g)
		}
	}
	return g
}

var (
	ErrModelExhausted = errors.New("model extraction exhausted retries")
	ErrMalformed      = errors.New("malformed model output")
	ErrIncomplete     = errors.New("model output missing essential fields")
)
