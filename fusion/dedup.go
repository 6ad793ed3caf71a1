package fusion

import (
	"sync"
	"time"

	"github.com/c360/sensorfuse/types"
)

// Deduper suppresses repeat detections: a candidate matching the category of
// a recent emission, sharing at least one contributing sensor, and arriving
// within the cooldown is a duplicate of the same physical event, not a new
// one.
type Deduper struct {
	cooldown time.Duration

	mu     sync.Mutex
	recent []dedupEntry
}

type dedupEntry struct {
	category  types.Category
	sensorIDs map[string]bool
	emittedAt time.Time
}

// NewDeduper creates a deduper with the given cooldown. A zero cooldown
// disables suppression.
func NewDeduper(cooldown time.Duration) *Deduper {
	return &Deduper{cooldown: cooldown}
}

// IsDuplicate reports whether the candidate should be suppressed. now is
// injected for testability.
func (d *Deduper) IsDuplicate(candidate types.Detection, now time.Time) bool {
	if d.cooldown <= 0 {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.pruneLocked(now)

	for _, entry := range d.recent {
		if entry.category != candidate.Category {
			continue
		}
		for _, id := range candidate.SensorIDs() {
			if entry.sensorIDs[id] {
				return true
			}
		}
	}
	return false
}

// Record remembers an emitted detection for the cooldown period
func (d *Deduper) Record(detection types.Detection, now time.Time) {
	if d.cooldown <= 0 {
		return
	}

	ids := make(map[string]bool, len(detection.Sensors))
	for _, s := range detection.Sensors {
		ids[s.SensorID] = true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.pruneLocked(now)
	d.recent = append(d.recent, dedupEntry{
		category:  detection.Category,
		sensorIDs: ids,
		emittedAt: now,
	})
}

// pruneLocked drops entries past the cooldown. Caller holds d.mu.
func (d *Deduper) pruneLocked(now time.Time) {
	kept := d.recent[:0]
	for _, entry := range d.recent {
		if now.Sub(entry.emittedAt) < d.cooldown {
			kept = append(kept, entry)
		}
	}
	d.recent = kept
}
