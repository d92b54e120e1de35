package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge

	queueLag         *prometheus.HistogramVec
	analysisFallback *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docpipe",
			Subsystem: "worker",
			Name:      "process_total",
			Help:      "Total work items processed by outcome.",
		},
		[]string{"service", "file_type", "outcome"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docpipe",
			Subsystem: "worker",
			Name:      "process_duration_seconds",
			Help:      "Work item processing duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "file_type"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docpipe",
			Subsystem: "worker",
			Name:      "in_flight_items",
			Help:      "Number of work items currently being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docpipe",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Time between upload and start of processing in seconds.",
			Buckets:   []float64{0.5, 1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"service"},
	)
	analysisFallback := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docpipe",
			Subsystem: "worker",
			Name:      "analysis_fallback_total",
			Help:      "Total analyses that degraded to a fallback result.",
		},
		[]string{"service"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, queueLag, analysisFallback)

	return &WorkerMetrics{
		registry:         registry,
		processTotal:     processTotal,
		processDuration:  processDuration,
		processInFlight:  processInFlight,
		queueLag:         queueLag,
		analysisFallback: analysisFallback,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) ObserveProcess(service, fileType, outcome string, duration time.Duration) {
	m.processTotal.WithLabelValues(service, fileType, outcome).Inc()
	m.processDuration.WithLabelValues(service, fileType).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) ProcessStarted() func() {
	m.processInFlight.Inc()
	return m.processInFlight.Dec
}

func (m *WorkerMetrics) RecordAnalysisFallback(service string) {
	m.analysisFallback.WithLabelValues(service).Inc()
}
