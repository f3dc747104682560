package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	uploadsTotal     *prometheus.CounterVec
	extractedFields  *prometheus.HistogramVec
	correctionsTotal *prometheus.CounterVec
	exportsTotal     *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invins",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invins",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "invins",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invins",
			Subsystem: "ingest",
			Name:      "uploads_total",
			Help:      "Total invoice uploads by resulting document status.",
		},
		[]string{"service", "status"},
	)
	extractedFields := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invins",
			Subsystem: "ingest",
			Name:      "extracted_fields",
			Help:      "Distribution of extracted field count per processed document.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 8, 10, 15},
		},
		[]string{"service"},
	)
	correctionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invins",
			Subsystem: "review",
			Name:      "corrections_total",
			Help:      "Total accepted field corrections.",
		},
		[]string{"service", "field"},
	)
	exportsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invins",
			Subsystem: "review",
			Name:      "exports_total",
			Help:      "Total exports by format.",
		},
		[]string{"service", "format"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadsTotal,
		extractedFields,
		correctionsTotal,
		exportsTotal,
	)

	return &HTTPServerMetrics{
		registry:         registry,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
		uploadsTotal:     uploadsTotal,
		extractedFields:  extractedFields,
		correctionsTotal: correctionsTotal,
		exportsTotal:     exportsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses per-invoice routes so document ids do not
// explode label cardinality.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/v1/invoices/") {
		return path
	}
	rest := strings.TrimPrefix(path, "/v1/invoices/")
	idx := strings.IndexByte(rest, '/')
	if idx < 0 {
		return "/v1/invoices/{id}"
	}
	return "/v1/invoices/{id}/" + rest[idx+1:]
}

func (m *HTTPServerMetrics) RecordUpload(service, status string, fieldCount int) {
	if status == "" {
		status = "unknown"
	}
	m.uploadsTotal.WithLabelValues(service, status).Inc()
	if fieldCount >= 0 {
		m.extractedFields.WithLabelValues(service).Observe(float64(fieldCount))
	}
}

func (m *HTTPServerMetrics) RecordCorrection(service, field string) {
	if field == "" {
		field = "unknown"
	}
	m.correctionsTotal.WithLabelValues(service, field).Inc()
}

func (m *HTTPServerMetrics) RecordExport(service, format string) {
	if format == "" {
		format = "unknown"
	}
	m.exportsTotal.WithLabelValues(service, format).Inc()
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
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
