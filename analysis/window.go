package analysis

import "time"

// Window accumulates samples for one (sensor, channel) pair. It is owned by
// a single goroutine; completion is tumbling: once size samples have been
// pushed the owner snapshots and resets it.
//
// Low-quality samples occupy a slot but are excluded from the snapshot, so a
// window with too few valid samples can be detected and skipped without
// failing the stream.
type Window struct {
	size    int
	values  []float64
	valid   []bool
	count   int
	started time.Time
	ended   time.Time
}

// NewWindow creates a window of the given sample size
func NewWindow(size int) *Window {
	if size < 2 {
		size = 2
	}
	return &Window{
		size:   size,
		values: make([]float64, size),
		valid:  make([]bool, size),
	}
}

// Push adds a sample. Samples with quality <= 0 count toward completion but
// not toward validity. Returns true when the window is complete.
func (w *Window) Push(value, quality float64, ts time.Time) bool {
	if w.count == 0 {
		w.started = ts
	}
	w.values[w.count] = value
	w.valid[w.count] = quality > 0
	w.count++
	w.ended = ts
	return w.count == w.size
}

// Size returns the configured window length
func (w *Window) Size() int { return w.size }

// Count returns the number of samples pushed so far
func (w *Window) Count() int { return w.count }

// Snapshot returns the valid samples in arrival order plus the window
// bounds. Call only on a complete window.
func (w *Window) Snapshot() (values []float64, start, end time.Time) {
	values = make([]float64, 0, w.count)
	for i := 0; i < w.count; i++ {
		if w.valid[i] {
			values = append(values, w.values[i])
		}
	}
	return values, w.started, w.ended
}

// Reset clears the window for the next cycle
func (w *Window) Reset() {
	w.count = 0
	w.started = time.Time{}
	w.ended = time.Time{}
}
