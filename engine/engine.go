// Package engine wires the pipeline together: configuration in, bus, sensor
// pumps, windowed analysis, fusion, and the metrics endpoint, all supervised
// under one context.
package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/sensorfuse/analysis"
	"github.com/c360/sensorfuse/bus"
	"github.com/c360/sensorfuse/component"
	"github.com/c360/sensorfuse/config"
	"github.com/c360/sensorfuse/errors"
	"github.com/c360/sensorfuse/fusion"
	"github.com/c360/sensorfuse/health"
	"github.com/c360/sensorfuse/metric"
	"github.com/c360/sensorfuse/sensor"
)

// service status values for the service_status gauge
const (
	statusStopped = iota
	statusStarting
	statusRunning
	statusStopping
	statusFailed
)

// stopTimeout bounds how long each stage gets to drain on shutdown.
// In-flight windows are discarded, never flushed as partial vectors.
const stopTimeout = 5 * time.Second

// Engine owns the assembled pipeline
type Engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *metric.Registry
	monitor  *health.Monitor

	bus      *bus.Bus
	manager  *sensor.Manager
	pipeline *analysis.Pipeline
	fusion   *fusion.Engine
	server   *metric.Server

	stages []component.LifecycleComponent
}

// New assembles the pipeline from a validated configuration
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	registry := metric.NewRegistry()
	monitor := health.NewMonitor()
	metrics := registry.CoreMetrics()

	eventBus := bus.New(cfg.Bus.QueueCapacity, bus.WithMetrics(metrics))

	sensors := make([]sensor.Sensor, 0, len(cfg.Sensors))
	weights := make(map[string]float64, len(cfg.Sensors))
	for _, spec := range cfg.Sensors {
		sensors = append(sensors, sensor.NewSimulator(spec))
		weights[spec.ID] = spec.EffectiveReliability()
	}

	manager := sensor.NewManager(sensors, eventBus, metrics, monitor, logger)
	pipeline := analysis.NewPipeline(cfg.Analysis, eventBus, registry, monitor, logger)
	fusionEngine := fusion.NewEngine(cfg.Fusion, cfg.Analysis.AnomalyThreshold, weights,
		eventBus, registry, monitor, logger)

	var server *metric.Server
	if cfg.Metrics.Enabled {
		server = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry,
			func() bool { return monitor.AggregateHealth("sensorfuse").Healthy })
	}

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		monitor:  monitor,
		bus:      eventBus,
		manager:  manager,
		pipeline: pipeline,
		fusion:   fusionEngine,
		server:   server,
		// Consumers initialize before the producer so no reading is published
		// before its subscribers exist; Stop runs in reverse.
		stages: []component.LifecycleComponent{pipeline, fusionEngine, manager},
	}
}

// Fusion exposes the fusion stage for recent-detection inspection
func (e *Engine) Fusion() *fusion.Engine { return e.fusion }

// Registry exposes the metrics registry
func (e *Engine) Registry() *metric.Registry { return e.registry }

// Run starts the pipeline and blocks until the context is cancelled or a
// stage fails. Shutdown is cooperative: cancellation stops the sensor pumps,
// the stages drain within stopTimeout, and incomplete windows are discarded.
func (e *Engine) Run(ctx context.Context) error {
	metrics := e.registry.CoreMetrics()
	metrics.RecordServiceStatus("sensorfuse", statusStarting)

	for _, stage := range e.stages {
		if err := stage.Initialize(); err != nil {
			metrics.RecordServiceStatus("sensorfuse", statusFailed)
			return errors.Wrap(err, "Engine", "Run", "initialize "+stage.Name())
		}
	}

	// Log every detection as it emerges; this is the pipeline's visible output
	detectionSub, err := e.bus.Subscribe("detection-log", bus.KindFilter(bus.KindDetection))
	if err != nil {
		return errors.Wrap(err, "Engine", "Run", "subscribe to detections")
	}

	g, runCtx := errgroup.WithContext(ctx)

	for _, stage := range e.stages {
		stage := stage
		g.Go(func() error {
			if err := stage.Start(runCtx); err != nil {
				e.logger.Error("stage failed", "stage", stage.Name(), "error", err)
				return errors.Wrap(err, "Engine", "Run", "run "+stage.Name())
			}
			return nil
		})
	}

	g.Go(func() error {
		for {
			event, err := detectionSub.Next(runCtx)
			if err != nil {
				return nil
			}
			if de, ok := event.(bus.DetectionEvent); ok {
				d := de.Detection
				e.logger.Info("detection",
					"id", d.ID,
					"category", d.Category,
					"severity", d.Severity,
					"confidence", d.Confidence,
					"bayes", d.BayesScore,
					"sensors", d.SensorIDs())
			}
		}
	})

	if e.server != nil {
		g.Go(func() error {
			if err := e.server.Start(); err != nil {
				return errors.Wrap(err, "Engine", "Run", "run metrics server")
			}
			return nil
		})
		stopServer := context.AfterFunc(runCtx, func() {
			_ = e.server.Stop()
		})
		defer stopServer()
	}

	metrics.RecordServiceStatus("sensorfuse", statusRunning)
	metrics.RecordHealthStatus("sensorfuse", true)
	e.logger.Info("pipeline running",
		"sensors", len(e.cfg.Sensors),
		"window_size", e.cfg.Analysis.WindowSize,
		"fusion_method", e.cfg.Fusion.Method)

	runErr := g.Wait()

	metrics.RecordServiceStatus("sensorfuse", statusStopping)
	e.logger.Info("pipeline stopping")

	// Stop in reverse start order: producer first, consumers drain after
	for i := len(e.stages) - 1; i >= 0; i-- {
		if err := e.stages[i].Stop(stopTimeout); err != nil {
			e.logger.Warn("stage stop incomplete",
				"stage", e.stages[i].Name(), "error", err)
		}
	}

	detectionSub.Close()
	_ = e.bus.Close()

	metrics.RecordServiceStatus("sensorfuse", statusStopped)
	metrics.RecordHealthStatus("sensorfuse", false)

	if runErr != nil && ctx.Err() == nil {
		return runErr
	}
	return nil
}
