// Package metrics exposes Prometheus collectors for the extraction service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

const namespace = "invoice"

// Metrics owns a private registry so several services (and tests) can live
// in one process.
type Metrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	extractTotal    *prometheus.CounterVec
	extractDuration *prometheus.HistogramVec
	modelAttempts   *prometheus.CounterVec
	qualityScore    prometheus.Histogram
	ocrTotal        *prometheus.CounterVec
}

var (
	_ pipeline.Observer    = (*Metrics)(nil)
	_ pipeline.OCRObserver = (*Metrics)(nil)
)

func New(service string) *Metrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	m := &Metrics{
		registry: registry,
		service:  service,
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "http",
				Name:        "requests_total",
				Help:        "Total HTTP requests processed.",
				ConstLabels: constLabels,
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Subsystem:   "http",
				Name:        "request_duration_seconds",
				Help:        "HTTP request duration in seconds.",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{"method", "path"},
		),
		requestInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Subsystem:   "http",
				Name:        "in_flight_requests",
				Help:        "Number of in-flight HTTP requests.",
				ConstLabels: constLabels,
			},
		),
		extractTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "extract_total",
				Help:        "Documents extracted, by method and validity.",
				ConstLabels: constLabels,
			},
			[]string{"method", "valid"},
		),
		extractDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Name:        "extract_duration_seconds",
				Help:        "Time from classification to validated result.",
				Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
				ConstLabels: constLabels,
			},
			[]string{"method"},
		),
		modelAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "model_attempts_total",
				Help:        "Model calls, labelled by how the extraction ended.",
				ConstLabels: constLabels,
			},
			[]string{"outcome"},
		),
		qualityScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Name:        "quality_score",
				Help:        "Quality score of validated invoices.",
				Buckets:     []float64{0, 0.2, 0.4, 0.6, 0.8, 1},
				ConstLabels: constLabels,
			},
		),
		ocrTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "ocr_total",
				Help:        "OCR runs by method and status.",
				ConstLabels: constLabels,
			},
			[]string{"method", "status"},
		),
	}

	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.requestInFlight,
		m.extractTotal,
		m.extractDuration,
		m.modelAttempts,
		m.qualityScore,
		m.ocrTotal,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency. The path label is the chi
// route pattern so ids do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		path := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				path = p
			}
		}
		m.requestTotal.WithLabelValues(r.Method, path, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) ObserveExtraction(res pipeline.Result) {
	method := res.Method().String()
	m.extractTotal.WithLabelValues(method, strconv.FormatBool(res.Report.IsValid)).Inc()
	m.extractDuration.WithLabelValues(method).Observe(res.Elapsed.Seconds())
	m.qualityScore.Observe(res.Report.QualityScore)
}

func (m *Metrics) ObserveModelAttempts(attempts int, outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	// touch the series so a disabled model still shows up at zero
	c := m.modelAttempts.WithLabelValues(outcome)
	if attempts > 0 {
		c.Add(float64(attempts))
	}
}

func (m *Metrics) ObserveOCR(method string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	if method == "" {
		method = "unknown"
	}
	m.ocrTotal.WithLabelValues(method, status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
