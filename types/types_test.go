package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReliabilityFor(t *testing.T) {
	assert.Equal(t, 0.90, ReliabilityFor(KindRadiation))
	assert.Equal(t, 0.70, ReliabilityFor(KindEMF))
	assert.Equal(t, 0.5, ReliabilityFor(SensorKind("gravimetric")),
		"unknown kinds fall back to 0.5")
}

func TestSensorReading_Valid(t *testing.T) {
	reading := SensorReading{
		SensorID: "emf-1",
		Channels: []float64{1.0},
		Quality:  1.0,
	}
	assert.True(t, reading.Valid())

	reading.Quality = 0
	assert.False(t, reading.Valid(), "zero quality is unusable")

	reading.Quality = 1
	reading.Channels = nil
	assert.False(t, reading.Valid(), "no channels is unusable")
}

func TestSensorReading_Clone(t *testing.T) {
	original := SensorReading{
		SensorID: "emf-1",
		Channels: []float64{1.0, 2.0},
		Quality:  1.0,
	}

	clone := original.Clone()
	clone.Channels[0] = 99

	assert.Equal(t, 1.0, original.Channels[0],
		"clone must not alias the channel slice")
}

func TestFeatureVector_Get(t *testing.T) {
	fv := FeatureVector{
		Measures: map[string]float64{
			MeasureShannonEntropy: 4.2,
		},
	}

	v, ok := fv.Get(MeasureShannonEntropy)
	require.True(t, ok)
	assert.Equal(t, 4.2, v)

	// Omitted is distinct from zero
	_, ok = fv.Get(MeasureHurstExponent)
	assert.False(t, ok, "uncomputed measure must be absent, not zero")
}

func TestEvidence_Valid(t *testing.T) {
	tests := []struct {
		name     string
		evidence Evidence
		valid    bool
	}{
		{"proper mass", Evidence{Anomaly: 0.6, Normal: 0.2, Uncertainty: 0.2}, true},
		{"full uncertainty", Evidence{Uncertainty: 1.0}, true},
		{"sum below one", Evidence{Anomaly: 0.3, Normal: 0.3}, false},
		{"negative component", Evidence{Anomaly: -0.1, Normal: 0.6, Uncertainty: 0.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.evidence.Valid())
		})
	}
}

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, SeverityCritical, SeverityFor(0.95))
	assert.Equal(t, SeverityCritical, SeverityFor(0.9))
	assert.Equal(t, SeverityHigh, SeverityFor(0.7))
	assert.Equal(t, SeverityMedium, SeverityFor(0.4))
	assert.Equal(t, SeverityLow, SeverityFor(0.39))
	assert.Equal(t, SeverityLow, SeverityFor(0))
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, CategoryThermalAnomaly, CategoryFor(KindThermal))
	assert.Equal(t, CategoryEMFSpike, CategoryFor(KindEMF))
	assert.Equal(t, CategorySeismicEvent, CategoryFor(KindSeismic))
	assert.Equal(t, CategoryUnknown, CategoryFor(SensorKind("gravimetric")))
}

func TestDetection_SensorIDs(t *testing.T) {
	d := Detection{
		Timestamp: time.Now(),
		Sensors: []SensorContribution{
			{SensorID: "emf-1"},
			{SensorID: "thermal-1"},
		},
	}
	assert.Equal(t, []string{"emf-1", "thermal-1"}, d.SensorIDs())
}
