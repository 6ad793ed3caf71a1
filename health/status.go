// Package health provides health monitoring for pipeline stages and the
// system as a whole.
package health

import (
	"time"
)

// Status represents the health state of a pipeline stage or the system
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"` // true if status is "healthy"
	Status      string    `json:"status"`  // "healthy", "unhealthy", "degraded"
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
	Metrics     *Metrics  `json:"metrics,omitempty"`
}

// Metrics contains health-related counters for a stage
type Metrics struct {
	Uptime          time.Duration `json:"uptime"`
	ErrorCount      int           `json:"error_count"`
	EventsProcessed int64         `json:"events_processed,omitempty"`
	LastActivity    time.Time     `json:"last_activity,omitempty"`
}

// IsHealthy returns true if the status is healthy
func (s Status) IsHealthy() bool {
	return s.Status == "healthy"
}

// IsDegraded returns true if the status is degraded
func (s Status) IsDegraded() bool {
	return s.Status == "degraded"
}

// IsUnhealthy returns true if the status is unhealthy
func (s Status) IsUnhealthy() bool {
	return s.Status == "unhealthy"
}

// WithMetrics returns a copy of the status with metrics attached
func (s Status) WithMetrics(metrics *Metrics) Status {
	s.Metrics = metrics
	return s
}

// WithSubStatus adds a sub-status and returns a copy
func (s Status) WithSubStatus(subStatus Status) Status {
	// Create a new slice to avoid sharing the underlying array
	newSubStatuses := make([]Status, len(s.SubStatuses), len(s.SubStatuses)+1)
	copy(newSubStatuses, s.SubStatuses)
	s.SubStatuses = append(newSubStatuses, subStatus)
	return s
}
