package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/c360/sensorfuse/errors"
)

// Registrar defines the interface for registering component-specific metrics
type Registrar interface {
	RegisterCounter(serviceName, metricName string, counter prometheus.Counter) error
	RegisterGauge(serviceName, metricName string, gauge prometheus.Gauge) error
	RegisterHistogram(serviceName, metricName string, histogram prometheus.Histogram) error
	RegisterCounterVec(serviceName, metricName string, counterVec *prometheus.CounterVec) error
	RegisterGaugeVec(serviceName, metricName string, gaugeVec *prometheus.GaugeVec) error
	RegisterHistogramVec(serviceName, metricName string, histogramVec *prometheus.HistogramVec) error
	Unregister(serviceName, metricName string) bool
}

// Registry manages the registration and lifecycle of metrics. The core
// pipeline metrics are registered at construction; components add their own
// under a "service.metric" key.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
	registeredMetrics  map[string]prometheus.Collector
	mu                 sync.RWMutex
}

// NewRegistry creates a new metrics registry with core pipeline metrics
// and Go runtime collectors.
func NewRegistry() *Registry {
	prometheusRegistry := prometheus.NewRegistry()

	registry := &Registry{
		prometheusRegistry: prometheusRegistry,
		registeredMetrics:  make(map[string]prometheus.Collector),
	}

	registry.Metrics = NewMetrics()
	registry.registerCore()

	registry.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return registry
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the core pipeline metrics
func (r *Registry) CoreMetrics() *Metrics {
	return r.Metrics
}

// register adds a named collector, guarding against double registration both
// in our map and in the Prometheus registry.
func (r *Registry) register(serviceName, metricName, kind string, c prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", serviceName, metricName)

	if _, exists := r.registeredMetrics[key]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("metric %s already registered for service %s", metricName, serviceName),
			"Registry", kind, "duplicate metric registration")
	}

	if err := r.prometheusRegistry.Register(c); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if stderrors.As(err, &alreadyRegErr) {
			return errors.WrapInvalid(err, "Registry", kind,
				fmt.Sprintf("prometheus conflict for metric %s", metricName))
		}
		return errors.WrapFatal(err, "Registry", kind,
			"failed to register collector with prometheus")
	}

	r.registeredMetrics[key] = c
	return nil
}

// RegisterCounter registers a counter metric for a service
func (r *Registry) RegisterCounter(serviceName, metricName string, counter prometheus.Counter) error {
	return r.register(serviceName, metricName, "RegisterCounter", counter)
}

// RegisterGauge registers a gauge metric for a service
func (r *Registry) RegisterGauge(serviceName, metricName string, gauge prometheus.Gauge) error {
	return r.register(serviceName, metricName, "RegisterGauge", gauge)
}

// RegisterHistogram registers a histogram metric for a service
func (r *Registry) RegisterHistogram(serviceName, metricName string, histogram prometheus.Histogram) error {
	return r.register(serviceName, metricName, "RegisterHistogram", histogram)
}

// RegisterCounterVec registers a counter vector metric for a service
func (r *Registry) RegisterCounterVec(serviceName, metricName string, counterVec *prometheus.CounterVec) error {
	return r.register(serviceName, metricName, "RegisterCounterVec", counterVec)
}

// RegisterGaugeVec registers a gauge vector metric for a service
func (r *Registry) RegisterGaugeVec(serviceName, metricName string, gaugeVec *prometheus.GaugeVec) error {
	return r.register(serviceName, metricName, "RegisterGaugeVec", gaugeVec)
}

// RegisterHistogramVec registers a histogram vector metric for a service
func (r *Registry) RegisterHistogramVec(
	serviceName, metricName string, histogramVec *prometheus.HistogramVec) error {
	return r.register(serviceName, metricName, "RegisterHistogramVec", histogramVec)
}

// Unregister removes a metric from the registry
func (r *Registry) Unregister(serviceName, metricName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", serviceName, metricName)

	collector, exists := r.registeredMetrics[key]
	if !exists {
		return false
	}

	success := r.prometheusRegistry.Unregister(collector)
	if success {
		delete(r.registeredMetrics, key)
	}

	return success
}

// registerCore registers all core pipeline metrics
func (r *Registry) registerCore() {
	r.prometheusRegistry.MustRegister(
		r.Metrics.ServiceStatus,
		r.Metrics.ErrorsTotal,
		r.Metrics.HealthCheckStatus,
		r.Metrics.ProcessingDuration,
		r.Metrics.ReadingsReceived,
		r.Metrics.SensorReconnects,
		r.Metrics.BackpressureDrops,
		r.Metrics.WindowsSkipped,
		r.Metrics.FeaturesEmitted,
		r.Metrics.FusionConflicts,
		r.Metrics.DetectionsEmitted,
		r.Metrics.DetectionsSuppressed,
	)
}
