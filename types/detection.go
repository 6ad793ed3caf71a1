package types

import "time"

// Category is the classification assigned to a detection, derived from the
// dominant contributing sensor kind.
type Category string

// Detection categories.
const (
	CategoryThermalAnomaly Category = "thermal_anomaly"
	CategorySeismicEvent   Category = "seismic_event"
	CategoryEMFSpike       Category = "emf_spike"
	CategoryMagneticEvent  Category = "magnetic_anomaly"
	CategoryAcousticEvent  Category = "acoustic_event"
	CategoryRadiationSpike Category = "radiation_spike"
	CategoryOpticalEvent   Category = "optical_event"
	CategoryRFAnomaly      Category = "rf_anomaly"
	CategoryEntropyAnomaly Category = "entropy_anomaly"
	CategoryUnknown        Category = "unknown"
)

// CategoryFor maps a sensor kind to the detection category it dominates.
func CategoryFor(kind SensorKind) Category {
	switch kind {
	case KindThermal:
		return CategoryThermalAnomaly
	case KindSeismic:
		return CategorySeismicEvent
	case KindEMF:
		return CategoryEMFSpike
	case KindMagnetic:
		return CategoryMagneticEvent
	case KindAcoustic:
		return CategoryAcousticEvent
	case KindRadiation:
		return CategoryRadiationSpike
	case KindOptical:
		return CategoryOpticalEvent
	case KindRF:
		return CategoryRFAnomaly
	case KindQuantum:
		return CategoryEntropyAnomaly
	default:
		return CategoryUnknown
	}
}

// Severity grades a detection by its fused confidence.
type Severity string

// Severity levels, ordered low to critical.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityFor maps a confidence in [0,1] to a severity band.
func SeverityFor(confidence float64) Severity {
	switch {
	case confidence >= 0.9:
		return SeverityCritical
	case confidence >= 0.7:
		return SeverityHigh
	case confidence >= 0.4:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// SensorContribution records one sensor's part in a detection.
type SensorContribution struct {
	SensorID     string
	Kind         SensorKind
	Weight       float64
	AnomalyScore float64
}

// Detection is a classified, confidence-scored fusion of evidence from at
// least two corroborating sensors within a correlation horizon. Immutable
// once emitted.
type Detection struct {
	ID         string
	Timestamp  time.Time
	Category   Category
	Severity   Severity
	Confidence float64 // Dempster-Shafer belief in the anomaly hypothesis, [0,1]
	BayesScore float64 // weighted log-odds cross-check, [0,1]

	Sensors []SensorContribution

	// Correlation window the detection was computed over.
	WindowStart time.Time
	WindowEnd   time.Time
}

// SensorIDs returns the contributing sensor identifiers.
func (d Detection) SensorIDs() []string {
	ids := make([]string, len(d.Sensors))
	for i, s := range d.Sensors {
		ids[i] = s.SensorID
	}
	return ids
}
