// Package config defines the pipeline configuration, its defaults, and
// schema-backed validation. Configuration is loaded once at startup; a bad
// config is a fatal error, never a silent fallback.
package config

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/c360/sensorfuse/errors"
	"github.com/c360/sensorfuse/types"
)

// Fusion method constants
const (
	MethodDempsterShafer  = "dempster_shafer"
	MethodBayesian        = "bayesian"
	MethodWeightedAverage = "weighted_average"
)

// Config represents the complete pipeline configuration
type Config struct {
	Bus      BusConfig      `yaml:"bus" json:"bus"`
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`
	Fusion   FusionConfig   `yaml:"fusion" json:"fusion"`
	Sensors  []SensorSpec   `yaml:"sensors" json:"sensors"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// BusConfig defines distribution bus settings
type BusConfig struct {
	// QueueCapacity is the bounded per-subscriber queue size. When a slow
	// subscriber falls behind, the oldest queued events are dropped.
	QueueCapacity int `yaml:"queue_capacity" json:"queue_capacity"`
}

// AnalysisConfig defines windowed analysis settings
type AnalysisConfig struct {
	WindowSize       int     `yaml:"window_size" json:"window_size"`
	MinValidSamples  int     `yaml:"min_valid_samples" json:"min_valid_samples"`
	AnomalyThreshold float64 `yaml:"anomaly_threshold" json:"anomaly_threshold"`
	EntropyBins      int     `yaml:"entropy_bins" json:"entropy_bins"`
	PermutationOrder int     `yaml:"permutation_order" json:"permutation_order"`
	HurstMinLength   int     `yaml:"hurst_min_length" json:"hurst_min_length"`
	Workers          int     `yaml:"workers" json:"workers"`
}

// FusionConfig defines multi-sensor fusion settings
type FusionConfig struct {
	Method               string  `yaml:"method" json:"method"`
	CorrelationHorizonMS int     `yaml:"correlation_horizon_ms" json:"correlation_horizon_ms"`
	MinConfidence        float64 `yaml:"min_confidence" json:"min_confidence"`
	MinSensors           int     `yaml:"min_sensors" json:"min_sensors"`
	CooldownMS           int     `yaml:"cooldown_ms" json:"cooldown_ms"`
	Prior                float64 `yaml:"prior" json:"prior"`
	MassSteepness        float64 `yaml:"mass_steepness" json:"mass_steepness"`
	RecentRing           int     `yaml:"recent_ring" json:"recent_ring"`
}

// CorrelationHorizon returns the correlation horizon as a duration
func (f FusionConfig) CorrelationHorizon() time.Duration {
	return time.Duration(f.CorrelationHorizonMS) * time.Millisecond
}

// Cooldown returns the dedup cooldown as a duration
func (f FusionConfig) Cooldown() time.Duration {
	return time.Duration(f.CooldownMS) * time.Millisecond
}

// SensorSpec defines one sensor instance in the roster
type SensorSpec struct {
	ID         string  `yaml:"id" json:"id"`
	Kind       string  `yaml:"kind" json:"kind"`
	Channels   int     `yaml:"channels" json:"channels"`
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate"`

	// Reliability overrides the per-kind default when > 0
	Reliability float64 `yaml:"reliability,omitempty" json:"reliability,omitempty"`

	Simulate SimulateConfig `yaml:"simulate" json:"simulate"`
}

// EffectiveReliability returns the configured reliability, or the per-kind
// default when unset.
func (s SensorSpec) EffectiveReliability() float64 {
	if s.Reliability > 0 {
		return s.Reliability
	}
	return types.ReliabilityFor(types.SensorKind(s.Kind))
}

// SimulateConfig shapes the synthetic signal a simulated sensor produces
type SimulateConfig struct {
	BaseLevel      float64 `yaml:"base_level" json:"base_level"`
	NoiseSigma     float64 `yaml:"noise_sigma" json:"noise_sigma"`
	DriftPerSample float64 `yaml:"drift_per_sample" json:"drift_per_sample"`
	SineAmplitude  float64 `yaml:"sine_amplitude" json:"sine_amplitude"`
	SineFrequency  float64 `yaml:"sine_frequency" json:"sine_frequency"`

	// SpikeEveryN injects a spike of SpikeMagnitude every N samples (0 = never)
	SpikeEveryN    int     `yaml:"spike_every_n" json:"spike_every_n"`
	SpikeMagnitude float64 `yaml:"spike_magnitude" json:"spike_magnitude"`

	// DropoutRate is the probability a reading carries zero quality
	DropoutRate float64 `yaml:"dropout_rate" json:"dropout_rate"`

	// DisconnectEveryN drops the stream every N samples to exercise
	// reconnect handling (0 = never)
	DisconnectEveryN int `yaml:"disconnect_every_n" json:"disconnect_every_n"`

	Seed int64 `yaml:"seed" json:"seed"`
}

// MetricsConfig defines the metrics HTTP endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// LoggingConfig defines structured logging settings
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`  // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text, json
}

// Default returns a configuration with production defaults applied
func Default() *Config {
	return &Config{
		Bus: BusConfig{
			QueueCapacity: 1024,
		},
		Analysis: AnalysisConfig{
			WindowSize:       256,
			MinValidSamples:  32,
			AnomalyThreshold: 3.5,
			EntropyBins:      256,
			PermutationOrder: 3,
			HurstMinLength:   32,
			Workers:          4,
		},
		Fusion: FusionConfig{
			Method:               MethodDempsterShafer,
			CorrelationHorizonMS: 2000,
			MinConfidence:        0.5,
			MinSensors:           2,
			CooldownMS:           5000,
			Prior:                0.1,
			MassSteepness:        0.5,
			RecentRing:           64,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// applyDefaults fills zero-valued fields from Default()
func (c *Config) applyDefaults() {
	def := Default()

	if c.Bus.QueueCapacity == 0 {
		c.Bus.QueueCapacity = def.Bus.QueueCapacity
	}
	if c.Analysis.WindowSize == 0 {
		c.Analysis.WindowSize = def.Analysis.WindowSize
	}
	if c.Analysis.MinValidSamples == 0 {
		c.Analysis.MinValidSamples = def.Analysis.MinValidSamples
	}
	if c.Analysis.AnomalyThreshold == 0 {
		c.Analysis.AnomalyThreshold = def.Analysis.AnomalyThreshold
	}
	if c.Analysis.EntropyBins == 0 {
		c.Analysis.EntropyBins = def.Analysis.EntropyBins
	}
	if c.Analysis.PermutationOrder == 0 {
		c.Analysis.PermutationOrder = def.Analysis.PermutationOrder
	}
	if c.Analysis.HurstMinLength == 0 {
		c.Analysis.HurstMinLength = def.Analysis.HurstMinLength
	}
	if c.Analysis.Workers == 0 {
		c.Analysis.Workers = def.Analysis.Workers
	}
	if c.Fusion.Method == "" {
		c.Fusion.Method = def.Fusion.Method
	}
	if c.Fusion.CorrelationHorizonMS == 0 {
		c.Fusion.CorrelationHorizonMS = def.Fusion.CorrelationHorizonMS
	}
	if c.Fusion.MinConfidence == 0 {
		c.Fusion.MinConfidence = def.Fusion.MinConfidence
	}
	if c.Fusion.MinSensors == 0 {
		c.Fusion.MinSensors = def.Fusion.MinSensors
	}
	if c.Fusion.CooldownMS == 0 {
		c.Fusion.CooldownMS = def.Fusion.CooldownMS
	}
	if c.Fusion.Prior == 0 {
		c.Fusion.Prior = def.Fusion.Prior
	}
	if c.Fusion.MassSteepness == 0 {
		c.Fusion.MassSteepness = def.Fusion.MassSteepness
	}
	if c.Fusion.RecentRing == 0 {
		c.Fusion.RecentRing = def.Fusion.RecentRing
	}
	if c.Metrics.Port == 0 {
		c.Metrics.Port = def.Metrics.Port
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = def.Metrics.Path
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	for i := range c.Sensors {
		if c.Sensors[i].Channels == 0 {
			c.Sensors[i].Channels = 1
		}
		if c.Sensors[i].SampleRate == 0 {
			c.Sensors[i].SampleRate = 100
		}
	}
}

// Validate checks cross-field constraints the JSON schema cannot express.
// All failures are fatal: the pipeline refuses to start on a bad config.
func (c *Config) Validate() error {
	const component = "Config"
	const method = "Validate"

	if c.Analysis.MinValidSamples > c.Analysis.WindowSize {
		return errors.WrapFatal(
			fmt.Errorf("%w: min_valid_samples %d exceeds window_size %d",
				errors.ErrInvalidConfig, c.Analysis.MinValidSamples, c.Analysis.WindowSize),
			component, method, "check analysis window")
	}
	if c.Analysis.PermutationOrder < 2 || c.Analysis.PermutationOrder > 7 {
		return errors.WrapFatal(
			fmt.Errorf("%w: permutation_order %d outside [2,7]",
				errors.ErrInvalidConfig, c.Analysis.PermutationOrder),
			component, method, "check permutation order")
	}
	switch c.Fusion.Method {
	case MethodDempsterShafer, MethodBayesian, MethodWeightedAverage:
	default:
		return errors.WrapFatal(
			fmt.Errorf("%w: unknown fusion method %q", errors.ErrInvalidConfig, c.Fusion.Method),
			component, method, "check fusion method")
	}
	if c.Fusion.MinConfidence < 0 || c.Fusion.MinConfidence > 1 {
		return errors.WrapFatal(
			fmt.Errorf("%w: min_confidence %.3f outside [0,1]",
				errors.ErrInvalidConfig, c.Fusion.MinConfidence),
			component, method, "check fusion confidence")
	}
	if c.Fusion.MinSensors < 2 {
		return errors.WrapFatal(
			fmt.Errorf("%w: min_sensors %d below corroboration minimum of 2",
				errors.ErrInvalidConfig, c.Fusion.MinSensors),
			component, method, "check corroboration minimum")
	}
	if c.Fusion.Prior <= 0 || c.Fusion.Prior >= 1 {
		return errors.WrapFatal(
			fmt.Errorf("%w: prior %.3f outside (0,1)", errors.ErrInvalidConfig, c.Fusion.Prior),
			component, method, "check fusion prior")
	}

	seen := make(map[string]bool, len(c.Sensors))
	for _, s := range c.Sensors {
		if s.ID == "" {
			return errors.WrapFatal(
				fmt.Errorf("%w: sensor with empty id", errors.ErrInvalidConfig),
				component, method, "check sensor roster")
		}
		if seen[s.ID] {
			return errors.WrapFatal(
				fmt.Errorf("%w: duplicate sensor id %q", errors.ErrInvalidConfig, s.ID),
				component, method, "check sensor roster")
		}
		seen[s.ID] = true
		if s.Reliability < 0 || s.Reliability > 1 {
			return errors.WrapFatal(
				fmt.Errorf("%w: sensor %q reliability %.3f outside [0,1]",
					errors.ErrInvalidConfig, s.ID, s.Reliability),
				component, method, "check sensor reliability")
		}
		if s.Simulate.DropoutRate < 0 || s.Simulate.DropoutRate > 1 {
			return errors.WrapFatal(
				fmt.Errorf("%w: sensor %q dropout_rate %.3f outside [0,1]",
					errors.ErrInvalidConfig, s.ID, s.Simulate.DropoutRate),
				component, method, "check sensor dropout rate")
		}
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	// Use JSON marshaling/unmarshaling for deep copy
	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}

	return &clone
}

// SafeConfig provides thread-safe access to configuration
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = Default()
	}
	return &SafeConfig{config: cfg}
}

// Get returns a deep copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically updates the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}
