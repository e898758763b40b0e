package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure reasons used as the "reason" label.
const (
	ReasonValidation = "validation"
	ReasonInference  = "inference"
	ReasonStore      = "store"
)

var (
	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predictml_predictions_total",
		Help: "Total number of successful predictions.",
	}, []string{"model"})

	PredictionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predictml_prediction_failures_total",
		Help: "Total number of failed prediction requests.",
	}, []string{"model", "reason"})

	HistoryWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predictml_history_write_failures_total",
		Help: "Predictions returned to the caller whose history record could not be stored.",
	}, []string{"model"})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "predictml_inference_duration_seconds",
		Help:    "Duration of model inference calls.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}, []string{"model"})

	ModelDeployments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predictml_model_deployments_total",
		Help: "Total number of model artifacts deployed.",
	}, []string{"model"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predictml_http_requests_total",
		Help: "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "predictml_http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)
