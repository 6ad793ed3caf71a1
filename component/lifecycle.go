// Package component defines the lifecycle contract shared by all pipeline
// stages and the per-stage structured logger.
package component

import (
	"context"
	"time"
)

// State represents the current lifecycle state of a stage
type State int

const (
	// StateCreated indicates the stage was created but not initialized
	StateCreated State = iota
	// StateInitialized indicates the stage was initialized but not started
	StateInitialized
	// StateStarted indicates the stage is running
	StateStarted
	// StateStopped indicates the stage was stopped
	StateStopped
	// StateFailed indicates the stage failed during a lifecycle operation
	StateFailed
)

// String returns a string representation of the stage state
func (cs State) String() string {
	switch cs {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LifecycleComponent defines stages that support full lifecycle management:
//   - Initialize() error                  // Setup/create only, NO context
//   - Start(ctx context.Context) error    // Start with context passed through
//   - Stop(timeout time.Duration) error   // Stop with timeout for graceful shutdown
//
// Start blocks until the stage exits. The stage never stores the context; it
// receives it as a parameter and must return promptly once it is cancelled.
type LifecycleComponent interface {
	Name() string
	Initialize() error
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
}

// Managed tracks a stage and its lifecycle state. The engine creates a child
// context per stage so each one can be cancelled individually during
// shutdown; the stage itself never holds the context.
type Managed struct {
	Component LifecycleComponent

	// State tracks the current lifecycle state
	State State

	Context context.Context
	Cancel  context.CancelFunc

	// StartOrder tracks the order stages were started for reverse shutdown
	StartOrder int

	// LastError tracks the last error from a lifecycle operation
	LastError error
}
