package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsRegistry holds the serving metrics on a private registry so that several
// servers (and tests) can coexist in one process.
type MetricsRegistry struct {
	registry *prometheus.Registry

	Predictions     prometheus.Counter
	PredictRequests *prometheus.CounterVec
	PredictDuration prometheus.Histogram
}

func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		registry: prometheus.NewRegistry(),

		Predictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "awesomeml_predictions_total",
				Help: "Total number of rows predicted",
			},
		),

		PredictRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "awesomeml_predict_requests_total",
				Help: "Total number of predict requests by outcome",
			},
			[]string{"status"},
		),

		PredictDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "awesomeml_predict_duration_seconds",
				Help:    "Duration of predict requests in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
		),
	}

	m.registry.MustRegister(m.Predictions, m.PredictRequests, m.PredictDuration)
	return m
}

// RecordPredict records one predict request with its outcome and row count.
func (m *MetricsRegistry) RecordPredict(status string, rows int, took time.Duration) {
	m.PredictRequests.WithLabelValues(status).Inc()
	m.PredictDuration.Observe(took.Seconds())
	if rows > 0 {
		m.Predictions.Add(float64(rows))
	}
}

func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
