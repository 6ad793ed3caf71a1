package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/sensorfuse/errors"
)

const validYAML = `
bus:
  queue_capacity: 512
analysis:
  window_size: 128
  min_valid_samples: 100
  anomaly_threshold: 3.0
fusion:
  method: bayesian
  correlation_horizon_ms: 1500
  min_sensors: 3
sensors:
  - id: emf-1
    kind: emf
    sample_rate: 200
    reliability: 0.8
  - id: thermal-1
    kind: thermal
logging:
  level: debug
  format: json
`

func TestParse_ValidConfig(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, 512, cfg.Bus.QueueCapacity)
	assert.Equal(t, 128, cfg.Analysis.WindowSize)
	assert.Equal(t, 100, cfg.Analysis.MinValidSamples)
	assert.Equal(t, MethodBayesian, cfg.Fusion.Method)
	assert.Equal(t, 1500*time.Millisecond, cfg.Fusion.CorrelationHorizon())
	assert.Equal(t, 3, cfg.Fusion.MinSensors)

	require.Len(t, cfg.Sensors, 2)
	assert.Equal(t, 0.8, cfg.Sensors[0].EffectiveReliability())
	assert.Equal(t, 0.85, cfg.Sensors[1].EffectiveReliability(),
		"unset reliability falls back to the per-kind default")
}

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("sensors:\n  - id: emf-1\n    kind: emf\n"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Bus.QueueCapacity, cfg.Bus.QueueCapacity)
	assert.Equal(t, def.Analysis.WindowSize, cfg.Analysis.WindowSize)
	assert.Equal(t, def.Analysis.AnomalyThreshold, cfg.Analysis.AnomalyThreshold)
	assert.Equal(t, def.Fusion.Method, cfg.Fusion.Method)
	assert.Equal(t, def.Fusion.CooldownMS, cfg.Fusion.CooldownMS)
	assert.Equal(t, def.Metrics.Port, cfg.Metrics.Port)
	assert.Equal(t, "info", cfg.Logging.Level)

	// Per-sensor defaults
	assert.Equal(t, 1, cfg.Sensors[0].Channels)
	assert.Equal(t, 100.0, cfg.Sensors[0].SampleRate)
}

func TestParse_RejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte("analyiss:\n  window_size: 128\n"))
	require.Error(t, err, "misspelled section must fail schema validation")
	assert.True(t, errors.IsFatal(err))
}

func TestParse_RejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("bus: [unclosed"))
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestValidate_CrossFieldConstraints(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min valid exceeds window", func(c *Config) {
			c.Analysis.WindowSize = 64
			c.Analysis.MinValidSamples = 65
		}},
		{"permutation order too high", func(c *Config) {
			c.Analysis.PermutationOrder = 8
		}},
		{"unknown fusion method", func(c *Config) {
			c.Fusion.Method = "voting"
		}},
		{"min confidence above one", func(c *Config) {
			c.Fusion.MinConfidence = 1.5
		}},
		{"min sensors below two", func(c *Config) {
			c.Fusion.MinSensors = 1
		}},
		{"prior at boundary", func(c *Config) {
			c.Fusion.Prior = 1.0
		}},
		{"duplicate sensor id", func(c *Config) {
			c.Sensors = []SensorSpec{{ID: "emf-1", Kind: "emf"}, {ID: "emf-1", Kind: "thermal"}}
		}},
		{"empty sensor id", func(c *Config) {
			c.Sensors = []SensorSpec{{Kind: "emf"}}
		}},
		{"reliability out of range", func(c *Config) {
			c.Sensors = []SensorSpec{{ID: "emf-1", Kind: "emf", Reliability: 1.2}}
		}},
		{"dropout rate out of range", func(c *Config) {
			c.Sensors = []SensorSpec{{ID: "emf-1", Kind: "emf",
				Simulate: SimulateConfig{DropoutRate: 2}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.True(t, errors.IsFatal(err))
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestConfig_Clone(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	clone := cfg.Clone()
	clone.Sensors[0].Reliability = 0.1
	clone.Analysis.WindowSize = 1

	assert.Equal(t, 0.8, cfg.Sensors[0].Reliability, "clone must not alias sensors")
	assert.Equal(t, 128, cfg.Analysis.WindowSize)
}

func TestSafeConfig_Update(t *testing.T) {
	sc := NewSafeConfig(Default())

	bad := Default()
	bad.Fusion.MinSensors = 1
	require.Error(t, sc.Update(bad), "invalid config must be rejected")

	good := Default()
	good.Analysis.WindowSize = 512
	require.NoError(t, sc.Update(good))
	assert.Equal(t, 512, sc.Get().Analysis.WindowSize)
}
