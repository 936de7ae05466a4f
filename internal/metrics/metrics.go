// Package metrics defines the Prometheus collectors of the detection service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline
	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ids_detections_total",
			Help: "Detection runs by device and outcome (ok or error kind)",
		},
		[]string{"device", "outcome"},
	)

	DetectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ids_detection_duration_seconds",
			Help:    "Wall time of a detection run",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"device"},
	)

	RowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ids_rows_processed_total",
			Help: "Log rows classified",
		},
		[]string{"device"},
	)

	MissingCells = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ids_missing_cells_total",
			Help: "Feature cells that could not be coerced and were passed to the model as NaN",
		},
		[]string{"device"},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ids_predictions_total",
			Help: "Predicted rows by device and attack category",
		},
		[]string{"device", "label"},
	)

	// Sinks
	SinkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ids_sink_errors_total",
			Help: "Failed best-effort writes to result sinks",
		},
		[]string{"sink"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ids_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// MQTT
	MQTTRequestsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ids_mqtt_requests_received_total",
			Help: "CSV batches received over MQTT",
		},
	)

	MQTTRequestsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ids_mqtt_requests_dropped_total",
			Help: "CSV batches dropped because the request channel was full",
		},
	)
)

// RecordDetection records the outcome and duration of one run.
func RecordDetection(device, outcome string, elapsed time.Duration) {
	DetectionsTotal.WithLabelValues(device, outcome).Inc()
	DetectionDuration.WithLabelValues(device).Observe(elapsed.Seconds())
}

// RecordPredictions records per-label counts and the number of rows.
func RecordPredictions(device string, counts map[string]int) {
	total := 0
	for label, n := range counts {
		PredictionsTotal.WithLabelValues(device, label).Add(float64(n))
		total += n
	}
	RowsProcessed.WithLabelValues(device).Add(float64(total))
}
