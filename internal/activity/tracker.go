// Package activity tracks which workflow nodes were recently active.
// A node stays highlighted while its last-seen timestamp is younger
// than the decay window; expired records are purged, not just marked.
package activity

import (
	"sync"
	"time"
)

const (
	// DefaultWindow is how long a node stays active after its last event.
	DefaultWindow = 4000 * time.Millisecond

	// DefaultSweepInterval is how often expired records are purged.
	DefaultSweepInterval = 1000 * time.Millisecond
)

// Tracker records last-activity timestamps per node id. Arrivals and
// the periodic sweep serialize on one mutex, so an expired id can never
// be resurrected by a stale sweep.
type Tracker struct {
	mu      sync.Mutex
	window  time.Duration
	records map[string]time.Time
	now     func() time.Time

	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewTracker creates a tracker with the given decay window.
// A zero or negative window falls back to DefaultWindow.
func NewTracker(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{
		window:  window,
		records: make(map[string]time.Time),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
}

// Touch marks a node active, refreshing the window if already active.
func (t *Tracker) Touch(nodeID string) {
	if nodeID == "" {
		return
	}
	t.mu.Lock()
	t.records[nodeID] = t.now()
	t.mu.Unlock()
}

// IsActive reports whether a node's record exists and is within the
// decay window. Records past the window report inactive even before
// the next sweep purges them.
func (t *Tracker) IsActive(nodeID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts, ok := t.records[nodeID]
	return ok && t.now().Sub(ts) < t.window
}

// ActiveIDs returns the ids of all currently-active nodes.
func (t *Tracker) ActiveIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	ids := make([]string, 0, len(t.records))
	for id, ts := range t.records {
		if now.Sub(ts) < t.window {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of records, expired or not.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// Sweep purges every record whose age has reached the decay window.
func (t *Tracker) Sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for id, ts := range t.records {
		if now.Sub(ts) >= t.window {
			delete(t.records, id)
		}
	}
}

// Start begins the background sweep loop.
func (t *Tracker) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()

	t.wg.Add(1)
	go t.sweepLoop(interval)
}

// Stop stops the background sweep loop and waits for it to exit.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return
	}
	t.started = false
	t.mu.Unlock()

	close(t.stopCh)
	t.wg.Wait()
}

func (t *Tracker) sweepLoop(interval time.Duration) {
	defer t.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}
