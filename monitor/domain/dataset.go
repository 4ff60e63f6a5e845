package domain

import "sync"

// Snapshot is an immutable, insertion-ordered view of the dataset.
// It is a private copy; holders may read it from any goroutine.
type Snapshot []Reading

// Last returns the most recent reading of the snapshot.
func (s Snapshot) Last() (Reading, bool) {
	if len(s) == 0 {
		return Reading{}, false
	}
	return s[len(s)-1], true
}

// Dataset is the in-memory, append-only mirror of every reading seen during the run.
// It has a single writer (the ingestion loop); Snapshot, Size and Last may be called
// from other goroutines.
type Dataset struct {
	mu       sync.RWMutex
	readings []Reading
}

// Append adds r after the newest reading.
func (d *Dataset) Append(r Reading) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readings = append(d.readings, r)
}

// Snapshot copies the current contents so that later appends are not visible to the caller.
func (d *Dataset) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(Snapshot, len(d.readings))
	copy(out, d.readings)
	return out
}

// Size returns the number of readings held.
func (d *Dataset) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.readings)
}

// Last returns the newest reading, if any.
func (d *Dataset) Last() (Reading, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.readings) == 0 {
		return Reading{}, false
	}
	return d.readings[len(d.readings)-1], true
}

// NewDataset creates a dataset seeded with readings loaded from the durable log.
// The seed slice is copied.
func NewDataset(seed []Reading) *Dataset {
	readings := make([]Reading, len(seed), len(seed)+DefaultUpdateInterval)
	copy(readings, seed)
	return &Dataset{readings: readings}
}
