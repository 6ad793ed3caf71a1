package buffer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/sensorfuse/metric"
)

// bufferMetrics exposes buffer statistics as Prometheus metrics. Registration
// happens once at buffer construction; updates are cheap gauge/counter ops on
// the hot path.
type bufferMetrics struct {
	size     prometheus.Gauge
	capacity prometheus.Gauge
	writes   prometheus.Counter
	reads    prometheus.Counter
	drops    prometheus.Counter
}

func newBufferMetrics(reg *metric.Registry, prefix string) (*bufferMetrics, error) {
	m := &bufferMetrics{
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_buffer_size",
			Help: "Current number of items in the buffer",
		}),
		capacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_buffer_capacity",
			Help: "Maximum number of items the buffer can hold",
		}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_buffer_writes_total",
			Help: "Total items written to the buffer",
		}),
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_buffer_reads_total",
			Help: "Total items read from the buffer",
		}),
		drops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_buffer_drops_total",
			Help: "Total items dropped by the overflow policy",
		}),
	}

	const service = "buffer"
	if err := reg.RegisterGauge(service, prefix+"_buffer_size", m.size); err != nil {
		return nil, err
	}
	if err := reg.RegisterGauge(service, prefix+"_buffer_capacity", m.capacity); err != nil {
		return nil, err
	}
	if err := reg.RegisterCounter(service, prefix+"_buffer_writes_total", m.writes); err != nil {
		return nil, err
	}
	if err := reg.RegisterCounter(service, prefix+"_buffer_reads_total", m.reads); err != nil {
		return nil, err
	}
	if err := reg.RegisterCounter(service, prefix+"_buffer_drops_total", m.drops); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *bufferMetrics) recordWrite(size, capacity int) {
	m.writes.Inc()
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordRead(size, capacity int) {
	m.reads.Inc()
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordDrop() {
	m.drops.Inc()
}

func (m *bufferMetrics) updateSize(size, capacity int) {
	m.size.Set(float64(size))
	m.capacity.Set(float64(capacity))
}
