// Package monitor runs the server-side view pipeline for one session:
// it consumes the session's event feed, correlates messages without an
// explicit agent id to a graph node, and records node activity.
package monitor

import (
	"sync"
	"time"

	"flowboard/internal/activity"
	"flowboard/internal/bus"
	"flowboard/internal/correlate"
	"flowboard/internal/graph"
	"flowboard/internal/metrics"
)

// Monitor observes one session's events and maintains its activity set.
type Monitor struct {
	session string
	tracker *activity.Tracker
	sub     *bus.Subscription
	wg      sync.WaitGroup
}

func newMonitor(b *bus.Bus, g *graph.Graph, session string, window, sweep time.Duration, m *metrics.Registry) (*Monitor, error) {
	sub, err := b.Subscribe(session)
	if err != nil {
		return nil, err
	}

	tracker := activity.NewTracker(window)
	tracker.Start(sweep)

	mon := &Monitor{
		session: session,
		tracker: tracker,
		sub:     sub,
	}

	mon.wg.Add(1)
	go func() {
		defer mon.wg.Done()
		for e := range sub.Events() {
			nodeID := e.AgentID
			if nodeID == "" && e.Text != "" {
				id, ok := correlate.Match(g, e.Text)
				if ok {
					nodeID = id
					if m != nil {
						m.CorrelationHits.Inc()
					}
				} else if m != nil {
					m.CorrelationMiss.Inc()
				}
			}
			if nodeID != "" {
				tracker.Touch(nodeID)
			}
		}
	}()

	return mon, nil
}

// Session returns the session key this monitor observes.
func (m *Monitor) Session() string { return m.session }

// Idle reports whether the monitor's activity set is empty.
func (m *Monitor) Idle() bool { return m.tracker.Len() == 0 }

// ActiveIDs returns the ids of nodes currently highlighted.
func (m *Monitor) ActiveIDs() []string { return m.tracker.ActiveIDs() }

// Stop unsubscribes from the bus and stops the decay sweep.
func (m *Monitor) Stop() {
	m.sub.Unsubscribe()
	m.wg.Wait()
	m.tracker.Stop()
}

const (
	// DefaultIdleTTL is how long a session's activity set may stay empty
	// before its monitor is reaped.
	DefaultIdleTTL = 5 * time.Minute

	// DefaultReapInterval is how often idle monitors are checked.
	DefaultReapInterval = 30 * time.Second
)

// Hub hands out one monitor per session, created lazily on first use.
// Monitors whose activity set stays empty past the idle TTL are reaped
// so an arbitrary session key cannot pin goroutines or bus sessions
// forever; a reaped session is recreated on next use.
type Hub struct {
	mu        sync.Mutex
	bus       *bus.Bus
	graph     *graph.Graph
	window    time.Duration
	sweep     time.Duration
	metrics   *metrics.Registry
	monitors  map[string]*Monitor
	idleSince map[string]time.Time
	idleTTL   time.Duration
	now       func() time.Time
	closed    bool

	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewHub creates a hub. Zero window/sweep use the tracker defaults.
func NewHub(b *bus.Bus, g *graph.Graph, window, sweep time.Duration, m *metrics.Registry) *Hub {
	return &Hub{
		bus:       b,
		graph:     g,
		window:    window,
		sweep:     sweep,
		metrics:   m,
		monitors:  make(map[string]*Monitor),
		idleSince: make(map[string]time.Time),
		idleTTL:   DefaultIdleTTL,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Get returns the monitor for a session, creating it on first use.
func (h *Hub) Get(session string) (*Monitor, error) {
	if session == "" {
		session = bus.DefaultSession
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, bus.ErrBusClosed
	}
	if mon, ok := h.monitors[session]; ok {
		return mon, nil
	}

	mon, err := newMonitor(h.bus, h.graph, session, h.window, h.sweep, h.metrics)
	if err != nil {
		return nil, err
	}
	h.monitors[session] = mon
	delete(h.idleSince, session)
	return mon, nil
}

// MonitorCount returns the number of live monitors.
func (h *Hub) MonitorCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.monitors)
}

// Start begins the background reap loop. Zero interval uses the default.
func (h *Hub) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	h.mu.Lock()
	if h.started || h.closed {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	h.wg.Add(1)
	go h.reapLoop(interval)
}

func (h *Hub) reapLoop(interval time.Duration) {
	defer h.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.Reap()
		}
	}
}

// Reap stops and removes every monitor whose activity set has been
// empty past the idle TTL. Activity resets the idle clock.
func (h *Hub) Reap() {
	now := h.now()
	var idle []*Monitor

	h.mu.Lock()
	for session, mon := range h.monitors {
		if !mon.Idle() {
			delete(h.idleSince, session)
			continue
		}
		since, ok := h.idleSince[session]
		if !ok {
			h.idleSince[session] = now
			continue
		}
		if now.Sub(since) >= h.idleTTL {
			delete(h.monitors, session)
			delete(h.idleSince, session)
			idle = append(idle, mon)
		}
	}
	h.mu.Unlock()

	for _, mon := range idle {
		mon.Stop()
	}
}

// Stop stops the reap loop and every monitor. Idempotent.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	started := h.started
	monitors := h.monitors
	h.monitors = nil
	h.idleSince = nil
	h.mu.Unlock()

	if started {
		close(h.stopCh)
		h.wg.Wait()
	}
	for _, mon := range monitors {
		mon.Stop()
	}
}
