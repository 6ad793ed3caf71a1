// Package sensorfuse is a multi-sensor ingestion and fusion pipeline. It
// ingests continuous streams of timestamped multi-channel readings from
// heterogeneous sensors, computes statistical and information-theoretic
// features over tumbling windows, and fuses evidence across sensors into
// classified, confidence-scored detections.
//
// # Architecture
//
// Data flows strictly forward through four stages connected by an
// in-process distribution bus:
//
//	┌──────────────┐   readings   ┌──────────────┐
//	│ Sensor Pumps ├──────────────►              │
//	│ (sensor/)    │              │              │
//	└──────────────┘              │ Distribution │
//	┌──────────────┐   features   │     Bus      │
//	│  Analysis    ◄──────────────►   (bus/)     │
//	│ (analysis/)  │              │              │
//	└──────────────┘              │              │
//	┌──────────────┐  detections  │              │
//	│   Fusion     ◄──────────────►              │
//	│  (fusion/)   │              └──────────────┘
//	└──────────────┘
//
// Every subscriber owns a bounded queue; a slow consumer sheds its own
// oldest events (counted, never silent) instead of blocking producers.
// One sensor's fault never stops another sensor's analysis or the fusion
// engine.
//
// # Stages
//
//   - sensor: the producer contract, a configurable simulator, and the
//     Manager that pumps each sensor onto the bus with reconnect backoff.
//   - analysis: per-(sensor, channel) tumbling windows; Shannon,
//     permutation and spectral entropy, robust modified z-score anomaly
//     scoring, DFT peak frequency/power, Hurst exponent, higher moments.
//     One FeatureVector per completed window with enough valid samples.
//   - fusion: Dempster-Shafer combination of reliability-weighted evidence
//     within a correlation horizon, a Bayesian log-odds cross-check,
//     category classification, severity banding, and cooldown dedup.
//     A detection requires at least two corroborating sensors.
//   - engine: wires configuration, bus, stages, health, and the metrics
//     endpoint together under one supervised context.
//
// # Infrastructure
//
//   - errors: classified errors (transient/invalid/fatal) with standard
//     wrapping helpers.
//   - config: YAML configuration with JSON-schema and semantic validation.
//   - metric: Prometheus registry, core pipeline metrics, /metrics server.
//   - health: per-stage health statuses with system aggregation.
//   - pkg/buffer: bounded circular buffers with explicit overflow policies.
//   - pkg/worker: generic worker pool for window computations.
//   - pkg/retry: exponential backoff for sensor reconnects.
//
// # Binary
//
//	./bin/sensorfuse --config sensorfuse.yaml
//	./bin/sensorfuse --config sensorfuse.yaml --validate
package sensorfuse
