package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const instrumentationName = "github.com/joseph-ayodele/invoice-extractor/internal/llm"

type tracedGenerator struct {
	provider string
	model    string
	next     Generator
}

// WithTracing opens a span per generation call. Without a configured
// TracerProvider the global no-op tracer is used.
func WithTracing(provider, model string) Middleware {
	return func(next Generator) Generator {
		return &tracedGenerator{provider: provider, model: model, next: next}
	}
}

func (g *tracedGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "generate "+g.model)
	defer span.End()

	span.SetAttributes(
		attribute.String("gen_ai.provider.name", g.provider),
		attribute.String("gen_ai.request.model", g.model),
		attribute.Int("gen_ai.request.max_tokens", int(opts.MaxTokens)),
		attribute.Float64("gen_ai.request.temperature", float64(opts.Temperature)),
		attribute.Int("prompt.chars", len(prompt)),
	)

	out, err := g.next.Generate(ctx, prompt, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("completion.chars", len(out)))
	return out, nil
}

// Wrap applies the standard provider decoration: rate limit outermost, then
// the breaker, then a span around the actual call.
func Wrap(g Generator, provider, model string, limit Middleware, breaker Middleware) Generator {
	return Chain(g, limit, breaker, WithTracing(provider, model))
}
