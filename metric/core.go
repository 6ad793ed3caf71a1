// Package metric provides Prometheus metrics registration and the core
// pipeline metrics. Every recoverable condition in the pipeline's error
// taxonomy is observable here: window underflows, backpressure drops and
// fusion conflicts are counters, never silently swallowed.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all pipeline-level metrics (not component-specific).
type Metrics struct {
	// Service metrics
	ServiceStatus      *prometheus.GaugeVec
	ErrorsTotal        *prometheus.CounterVec
	HealthCheckStatus  *prometheus.GaugeVec
	ProcessingDuration *prometheus.HistogramVec

	// Ingestion metrics
	ReadingsReceived  *prometheus.CounterVec
	SensorReconnects  *prometheus.CounterVec
	BackpressureDrops *prometheus.CounterVec

	// Analysis metrics
	WindowsSkipped  *prometheus.CounterVec
	FeaturesEmitted *prometheus.CounterVec

	// Fusion metrics
	FusionConflicts      prometheus.Counter
	DetectionsEmitted    *prometheus.CounterVec
	DetectionsSuppressed *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all pipeline metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ServiceStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "sensorfuse",
				Subsystem: "service",
				Name:      "status",
				Help:      "Service status (0=stopped, 1=starting, 2=running, 3=stopping, 4=failed)",
			},
			[]string{"service"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sensorfuse",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"service", "type"},
		),

		HealthCheckStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "sensorfuse",
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"service"},
		),

		ProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "sensorfuse",
				Subsystem: "processing",
				Name:      "duration_seconds",
				Help:      "Stage processing duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),

		ReadingsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sensorfuse",
				Subsystem: "ingest",
				Name:      "readings_total",
				Help:      "Total sensor readings accepted onto the bus",
			},
			[]string{"sensor"},
		),

		SensorReconnects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sensorfuse",
				Subsystem: "ingest",
				Name:      "reconnects_total",
				Help:      "Total sensor reconnections",
			},
			[]string{"sensor"},
		),

		BackpressureDrops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sensorfuse",
				Subsystem: "bus",
				Name:      "backpressure_drops_total",
				Help:      "Events dropped from a subscriber queue under backpressure",
			},
			[]string{"subscriber"},
		),

		WindowsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sensorfuse",
				Subsystem: "analysis",
				Name:      "windows_skipped_total",
				Help:      "Windows skipped for too few valid samples (no FeatureVector emitted)",
			},
			[]string{"sensor"},
		),

		FeaturesEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sensorfuse",
				Subsystem: "analysis",
				Name:      "features_total",
				Help:      "FeatureVectors published per sensor",
			},
			[]string{"sensor"},
		),

		FusionConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "sensorfuse",
				Subsystem: "fusion",
				Name:      "conflicts_total",
				Help:      "Dempster-Shafer combinations abandoned for total contradiction",
			},
		),

		DetectionsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sensorfuse",
				Subsystem: "fusion",
				Name:      "detections_total",
				Help:      "Detections emitted per category",
			},
			[]string{"category"},
		),

		DetectionsSuppressed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sensorfuse",
				Subsystem: "fusion",
				Name:      "suppressed_total",
				Help:      "Candidate detections suppressed before emission",
			},
			[]string{"reason"},
		),
	}
}

// Suppression reasons for DetectionsSuppressed.
const (
	SuppressLowConfidence = "low_confidence"
	SuppressCorroboration = "corroboration"
	SuppressCooldown      = "cooldown"
)

// RecordServiceStatus updates service status metric
func (c *Metrics) RecordServiceStatus(service string, status int) {
	c.ServiceStatus.WithLabelValues(service).Set(float64(status))
}

// RecordError increments error counter
func (c *Metrics) RecordError(service, errorType string) {
	c.ErrorsTotal.WithLabelValues(service, errorType).Inc()
}

// RecordHealthStatus updates health check status
func (c *Metrics) RecordHealthStatus(service string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.HealthCheckStatus.WithLabelValues(service).Set(value)
}

// RecordProcessingDuration records stage processing time
func (c *Metrics) RecordProcessingDuration(service, operation string, duration time.Duration) {
	c.ProcessingDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordReading increments the accepted readings counter for a sensor
func (c *Metrics) RecordReading(sensor string) {
	c.ReadingsReceived.WithLabelValues(sensor).Inc()
}

// RecordReconnect increments the reconnect counter for a sensor
func (c *Metrics) RecordReconnect(sensor string) {
	c.SensorReconnects.WithLabelValues(sensor).Inc()
}

// RecordBackpressureDrop increments the drop counter for a subscriber queue
func (c *Metrics) RecordBackpressureDrop(subscriber string) {
	c.BackpressureDrops.WithLabelValues(subscriber).Inc()
}

// RecordWindowSkipped increments the underflow counter for a sensor
func (c *Metrics) RecordWindowSkipped(sensor string) {
	c.WindowsSkipped.WithLabelValues(sensor).Inc()
}

// RecordFeature increments the emitted feature counter for a sensor
func (c *Metrics) RecordFeature(sensor string) {
	c.FeaturesEmitted.WithLabelValues(sensor).Inc()
}

// RecordFusionConflict increments the total-contradiction counter
func (c *Metrics) RecordFusionConflict() {
	c.FusionConflicts.Inc()
}

// RecordDetection increments the detection counter for a category
func (c *Metrics) RecordDetection(category string) {
	c.DetectionsEmitted.WithLabelValues(category).Inc()
}

// RecordSuppressed increments the suppression counter for a reason
func (c *Metrics) RecordSuppressed(reason string) {
	c.DetectionsSuppressed.WithLabelValues(reason).Inc()
}
