package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	reextractTotal    *prometheus.CounterVec
	reextractDuration *prometheus.HistogramVec
	reextractInFlight prometheus.Gauge
	queueLag          *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	reextractTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invins",
			Subsystem: "worker",
			Name:      "reextract_total",
			Help:      "Total re-extraction runs by status.",
		},
		[]string{"service", "status"},
	)
	reextractDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invins",
			Subsystem: "worker",
			Name:      "reextract_duration_seconds",
			Help:      "Re-extraction duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	reextractInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "invins",
			Subsystem: "worker",
			Name:      "reextract_in_flight",
			Help:      "Number of in-flight re-extraction runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invins",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between request publication and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(reextractTotal, reextractDuration, reextractInFlight, queueLag)

	return &WorkerMetrics{
		registry:          registry,
		reextractTotal:    reextractTotal,
		reextractDuration: reextractDuration,
		reextractInFlight: reextractInFlight,
		queueLag:          queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartReextract() {
	m.reextractInFlight.Inc()
}

func (m *WorkerMetrics) FinishReextract(service string, duration time.Duration, err error) {
	m.reextractInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.reextractTotal.WithLabelValues(service, status).Inc()
	m.reextractDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
