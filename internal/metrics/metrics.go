// Package metrics provides Prometheus metrics collection for the
// prediction service. It covers the pipeline (prediction counts, latency,
// confidence distribution), feature extraction, the model artifact, and
// data ingestion from the stats provider.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the prediction service.
type Metrics struct {
	// Pipeline metrics
	PredictionsTotal   prometheus.Counter   // Total number of predictions generated
	PredictionFailures prometheus.Counter   // Total number of failed prediction attempts
	PredictionLatency  prometheus.Histogram // End-to-end prediction latency in seconds
	ConfidenceScores   prometheus.Histogram // Distribution of generated confidence values
	ModelAge           prometheus.Gauge     // Age of the loaded model artifact in seconds

	// Feature extraction metrics
	FeatureErrors prometheus.Counter // Total number of feature extraction errors

	// Ingestion metrics
	GamesIngested  prometheus.Counter // Total number of final games recorded
	ProviderErrors prometheus.Counter // Total number of failed stats provider requests

	// System metrics
	ErrorsTotal prometheus.Counter // Total number of errors encountered
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for
// testing, where the global registry would collide across cases).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of predictions generated",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of failed prediction attempts",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "End-to-end prediction latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		ConfidenceScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "confidence_scores",
			Help:    "Distribution of generated confidence values",
			Buckets: prometheus.LinearBuckets(50, 5, 10),
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the loaded model artifact in seconds",
		}),
		FeatureErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "feature_errors_total",
			Help: "Total number of feature extraction errors",
		}),
		GamesIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "games_ingested_total",
			Help: "Total number of final games recorded",
		}),
		ProviderErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "provider_errors_total",
			Help: "Total number of failed stats provider requests",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
