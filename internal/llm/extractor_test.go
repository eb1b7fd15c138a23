package llm_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
)

const goodOutput = "Here is the data:\n```json\n" +
	`{"vendor_name": "Acme Widgets LLC", "invoice_number": "INV-7", "date": "2024-03-01",` +
	` "total_amount": "$1,234.50", "currency": "usd", "line_items": [{"description": "Widget", "quantity": 2, "unit_price": 10, "total": 20}],` +
	` "notes": "ignored", "confidence_score": 0.92}` + "\n```"

// scripted returns outputs[i] on call i; entries that are errors are returned as errors.
func scripted(calls *atomic.Int32, outputs ...any) llm.Generator {
	return llm.GeneratorFunc(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		i := int(calls.Add(1)) - 1
		if i >= len(outputs) {
			i = len(outputs) - 1
		}
		switch v := outputs[i].(type) {
		case error:
			return "", v
		default:
			return v.(string), nil
		}
	})
}

func fastConfig() llm.ExtractorConfig {
	cfg := llm.DefaultExtractorConfig()
	cfg.RetryDelay = 0
	return cfg
}

func TestExtractAcceptsRepairedOutput(t *testing.T) {
	var calls atomic.Int32
	x := llm.NewModelExtractor(scripted(&calls, goodOutput), fastConfig(), nil)

	inv, attempts, err := x.Extract(context.Background(), invoice.NewRawText("some invoice text"), "invoice")
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, constants.MethodModel, inv.Method)
	assert.Equal(t, "Acme Widgets LLC", invoice.Deref(inv.VendorName))
	require.NotNil(t, inv.TotalAmount)
	assert.True(t, inv.TotalAmount.Equal(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "USD", inv.Currency)
	assert.Equal(t, 0.92, inv.ConfidenceScore)
	require.Len(t, inv.LineItems, 1)
	assert.True(t, inv.LineItems[0].Total.Equal(decimal.NewFromInt(20)))
}

func TestExtractRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	gen := scripted(&calls,
		errors.New("throttled"),
		"I could not read that",
		`{"vendor_name": "Acme LLC", "total_amount": 500}`,
	)
	x := llm.NewModelExtractor(gen, fastConfig(), nil)

	inv, attempts, err := x.Extract(context.Background(), invoice.NewRawText("text"), "invoice")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, constants.MethodModel, inv.Method)
	assert.Equal(t, llm.DefaultModelConfidence, inv.ConfidenceScore)
}

func TestExtractWaitsBetweenAttempts(t *testing.T) {
	var calls atomic.Int32
	gen := scripted(&calls,
		errors.New("throttled"),
		errors.New("throttled"),
		`{"vendor_name": "Acme LLC", "total_amount": 500}`,
	)
	cfg := llm.DefaultExtractorConfig()
	cfg.RetryDelay = 20 * time.Millisecond
	x := llm.NewModelExtractor(gen, cfg, nil)

	start := time.Now()
	_, attempts, err := x.Extract(context.Background(), invoice.NewRawText("text"), "invoice")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.GreaterOrEqual(t, time.Since(start), 2*cfg.RetryDelay)
}

func TestExtractAcceptsFenceOnSameLine(t *testing.T) {
	var calls atomic.Int32
	out := "```json {\"vendor_name\":\"A\",\"total_amount\":5,\"date\":\"2024-01-01\"} ```"
	x := llm.NewModelExtractor(scripted(&calls, out), fastConfig(), nil)

	inv, attempts, err := x.Extract(context.Background(), invoice.NewRawText("text"), "invoice")
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, "A", invoice.Deref(inv.VendorName))
	assert.Equal(t, "2024-01-01", invoice.Deref(inv.Date))
}

func TestExtractExhausted(t *testing.T) {
	var calls atomic.Int32
	// one essential field only: never accepted
	gen := scripted(&calls, `{"vendor_name": "Acme LLC", "total_amount": null}`)
	x := llm.NewModelExtractor(gen, fastConfig(), nil)

	_, attempts, err := x.Extract(context.Background(), invoice.NewRawText("text"), "invoice")
	require.Error(t, err)
	assert.True(t, llm.IsExhausted(err))
	assert.ErrorIs(t, err, llm.ErrIncomplete)
	assert.Equal(t, 3, attempts)
	assert.EqualValues(t, 3, calls.Load())
}

func TestExtractStopsOnCancelledContext(t *testing.T) {
	var calls atomic.Int32
	gen := scripted(&calls, errors.New("down"))
	cfg := llm.DefaultExtractorConfig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, attempts, err := llm.NewModelExtractor(gen, cfg, nil).Extract(ctx, invoice.NewRawText("text"), "invoice")
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestExtractNormalizesModelDate(t *testing.T) {
	var calls atomic.Int32
	gen := scripted(&calls, `{"vendor": "Acme LLC", "invoice_date": "07/30/2025", "total": 12}`)
	inv, _, err := llm.NewModelExtractor(gen, fastConfig(), nil).Extract(context.Background(), invoice.NewRawText("text"), "")
	require.NoError(t, err)
	assert.Equal(t, "2025-07-30", invoice.Deref(inv.Date))
	assert.Equal(t, "Acme LLC", invoice.Deref(inv.VendorName))
}

func TestExtractDropsUnparseableModelDate(t *testing.T) {
	var calls atomic.Int32
	gen := scripted(&calls,
		`{"vendor_name": "Acme LLC", "date": "TBD", "total_amount": 12}`,
		`{"vendor_name": "Acme LLC", "date": "TBD"}`,
	)
	x := llm.NewModelExtractor(gen, fastConfig(), nil)

	inv, attempts, err := x.Extract(context.Background(), invoice.NewRawText("text"), "")
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Nil(t, inv.Date)

	// vendor alone is not enough once the bogus date no longer counts
	calls.Store(1)
	_, _, err = x.Extract(context.Background(), invoice.NewRawText("text"), "")
	require.Error(t, err)
	assert.True(t, llm.IsExhausted(err))
}

func TestExtractorPassesOptions(t *testing.T) {
	var got llm.Options
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		got = opts
		assert.Contains(t, prompt, "Return only valid JSON:")
		assert.Contains(t, prompt, "receipt text")
		return `{"vendor_name": "A Inc", "date": "2024-01-01"}`, nil
	})
	_, _, err := llm.NewModelExtractor(gen, fastConfig(), nil).Extract(context.Background(), invoice.NewRawText("x"), "receipt")
	require.NoError(t, err)
	assert.Equal(t, int32(2000), got.MaxTokens)
	assert.InDelta(t, 0.1, got.Temperature, 1e-6)
}
