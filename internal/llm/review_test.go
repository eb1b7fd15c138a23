package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
)

func TestReviewReturnsVerdict(t *testing.T) {
	var prompt string
	gen := llm.GeneratorFunc(func(ctx context.Context, p string, opts llm.Options) (string, error) {
		prompt = p
		return "```json\n{\"is_valid\": true, \"confidence_score\": 0.9, \"warnings\": []}\n```", nil
	})
	inv := invoice.Invoice{VendorName: invoice.String("Acme LLC")}
	raw := invoice.NewRawText(strings.Repeat("é", llm.ReviewTextChars+50))

	verdict := llm.NewReviewer(gen, llm.Options{}, nil).Review(context.Background(), inv, raw)

	var m map[string]any
	require.NoError(t, json.Unmarshal(verdict, &m))
	assert.Equal(t, true, m["is_valid"])
	assert.Equal(t, 0.9, m["confidence_score"])

	assert.Contains(t, prompt, `"vendor_name": "Acme LLC"`)
	assert.Equal(t, llm.ReviewTextChars, strings.Count(prompt, "é"), "text is cut to the review window")
}

func TestReviewReportsFailures(t *testing.T) {
	for name, gen := range map[string]llm.Generator{
		"service error": llm.GeneratorFunc(func(context.Context, string, llm.Options) (string, error) {
			return "", errors.New("throttled")
		}),
		"not json": llm.GeneratorFunc(func(context.Context, string, llm.Options) (string, error) {
			return "looks fine to me", nil
		}),
	} {
		t.Run(name, func(t *testing.T) {
			verdict := llm.NewReviewer(gen, llm.Options{}, nil).Review(context.Background(), invoice.Invoice{}, invoice.NewRawText("text"))

			var m map[string]string
			require.NoError(t, json.Unmarshal(verdict, &m))
			assert.NotEmpty(t, m["error"])
		})
	}
}
