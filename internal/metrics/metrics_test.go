package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/metrics"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

func TestObserveExtraction(t *testing.T) {
	m := metrics.New("test")
	m.ObserveExtraction(pipeline.Result{
		Invoice: invoice.Invoice{Method: constants.MethodFallback},
		Report:  invoice.Report{IsValid: true, QualityScore: 0.6},
		Elapsed: 20 * time.Millisecond,
	})
	m.ObserveModelAttempts(3, pipeline.ModelExhausted)
	m.ObserveOCR("pdf-native", nil)
	m.ObserveOCR("", errors.New("boom"))

	expected := `
# HELP invoice_extract_total Documents extracted, by method and validity.
# TYPE invoice_extract_total counter
invoice_extract_total{method="regex_fallback",service="test",valid="true"} 1
# HELP invoice_model_attempts_total Model calls, labelled by how the extraction ended.
# TYPE invoice_model_attempts_total counter
invoice_model_attempts_total{outcome="exhausted",service="test"} 3
# HELP invoice_ocr_total OCR runs by method and status.
# TYPE invoice_ocr_total counter
invoice_ocr_total{method="pdf-native",service="test",status="ok"} 1
invoice_ocr_total{method="unknown",service="test",status="error"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"invoice_extract_total", "invoice_model_attempts_total", "invoice_ocr_total"))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := metrics.New("test")
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/extractions/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/extractions/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(),
		`invoice_http_requests_total{method="GET",path="/api/extractions/{id}",service="test",status="404"} 2`)
}
