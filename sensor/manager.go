package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/sensorfuse/bus"
	"github.com/c360/sensorfuse/component"
	"github.com/c360/sensorfuse/errors"
	"github.com/c360/sensorfuse/health"
	"github.com/c360/sensorfuse/metric"
	"github.com/c360/sensorfuse/pkg/retry"
)

// Manager pumps every registered sensor onto the bus, one goroutine per
// sensor. A transient read fault triggers a reconnect with backoff; the
// stream after a reconnect is treated as fresh.
type Manager struct {
	sensors []Sensor
	bus     *bus.Bus
	metrics *metric.Metrics
	monitor *health.Monitor
	logger  *component.Logger

	reconnect retry.Config

	mu          sync.Mutex
	state       component.State
	wg          sync.WaitGroup
	activeCount int64
}

// NewManager creates a sensor manager
func NewManager(sensors []Sensor, b *bus.Bus, metrics *metric.Metrics,
	monitor *health.Monitor, logger *slog.Logger) *Manager {
	return &Manager{
		sensors:   sensors,
		bus:       b,
		metrics:   metrics,
		monitor:   monitor,
		logger:    component.NewLogger("sensor-manager", logger),
		reconnect: retry.Persistent(),
		state:     component.StateCreated,
	}
}

// Name returns the stage name
func (m *Manager) Name() string { return "sensor-manager" }

// Initialize validates the roster
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != component.StateCreated {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Manager", "Initialize",
			"manager already initialized")
	}
	if len(m.sensors) == 0 {
		return errors.WrapFatal(
			fmt.Errorf("%w: empty sensor roster", errors.ErrInvalidConfig),
			"Manager", "Initialize", "check sensor roster")
	}

	seen := make(map[string]bool, len(m.sensors))
	for _, s := range m.sensors {
		if seen[s.ID()] {
			return errors.WrapFatal(
				fmt.Errorf("%w: duplicate sensor id %q", errors.ErrInvalidConfig, s.ID()),
				"Manager", "Initialize", "check sensor roster")
		}
		seen[s.ID()] = true
	}

	m.state = component.StateInitialized
	return nil
}

// Start launches one pump goroutine per sensor and blocks until all exit
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state != component.StateInitialized {
		m.mu.Unlock()
		return errors.WrapInvalid(errors.ErrNotStarted, "Manager", "Start",
			"manager not initialized")
	}
	m.state = component.StateStarted
	m.mu.Unlock()

	if m.monitor != nil {
		m.monitor.UpdateHealthy(m.Name(), "all sensor pumps running")
	}

	for _, s := range m.sensors {
		m.wg.Add(1)
		go func(s Sensor) {
			defer m.wg.Done()
			m.pump(ctx, s)
		}(s)
	}

	m.wg.Wait()
	return nil
}

// pump drives one sensor: connect with backoff, read until fault or
// cancellation, reconnect on transient faults.
func (m *Manager) pump(ctx context.Context, s Sensor) {
	sensorID := s.ID()

	for ctx.Err() == nil {
		err := retry.Do(ctx, m.reconnect, func() error {
			return s.Connect(ctx)
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Error("sensor connect failed permanently", err, "sensor", sensorID)
			if m.monitor != nil {
				m.monitor.UpdateDegraded(m.Name(),
					fmt.Sprintf("sensor %s offline", sensorID))
			}
			return
		}

		m.logger.Info("sensor stream connected", "sensor", sensorID)

		if m.readLoop(ctx, s) {
			return
		}

		// Transient fault: loop back to reconnect, fresh stream
		if m.metrics != nil {
			m.metrics.RecordReconnect(sensorID)
		}
		m.logger.Warn("sensor stream lost, reconnecting", "sensor", sensorID)
	}
}

// readLoop reads until a fault. Returns true when the pump should stop for
// good (cancellation or end of stream), false to reconnect.
func (m *Manager) readLoop(ctx context.Context, s Sensor) (done bool) {
	sensorID := s.ID()

	for {
		reading, err := s.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return true
			}
			if errors.Is(err, errors.ErrEndOfStream) {
				m.logger.Info("sensor stream ended", "sensor", sensorID)
				return true
			}
			if errors.IsTransient(err) {
				return false
			}
			m.logger.Error("sensor read failed", err, "sensor", sensorID)
			if m.metrics != nil {
				m.metrics.RecordError(m.Name(), "read")
			}
			return false
		}

		if !reading.Valid() && len(reading.Channels) == 0 {
			// Malformed reading, skip the sample without failing the stream
			continue
		}

		if err := m.bus.Publish(bus.ReadingEvent{Reading: reading}); err != nil {
			m.logger.Error("publish failed, stopping pump", err, "sensor", sensorID)
			return true
		}
		if m.metrics != nil {
			m.metrics.RecordReading(sensorID)
		}
	}
}

// Stop waits for all pumps to exit within the timeout. The caller cancels
// the Start context first.
func (m *Manager) Stop(timeout time.Duration) error {
	m.mu.Lock()
	if m.state != component.StateStarted {
		m.mu.Unlock()
		return nil
	}
	m.state = component.StateStopped
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		for _, s := range m.sensors {
			_ = s.Close()
		}
		if m.monitor != nil {
			m.monitor.UpdateUnhealthy(m.Name(), "stopped")
		}
		return nil
	case <-timer.C:
		return errors.WrapTransient(
			fmt.Errorf("sensor pumps did not stop within %s", timeout),
			"Manager", "Stop", "wait for pumps")
	}
}
