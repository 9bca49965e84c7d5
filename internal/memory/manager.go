package memory

import (
	"github.com/kestrelhttp/core/internal/event"
	"github.com/kestrelhttp/core/internal/eventpool"
)

// Manager owns the request/temp arenas, the optional EventPool, config,
// and stats (spec §4.4). It is single-threaded per worker on the hot
// path (spec §5) but its Stats/IsHealthy accessors may be read from a
// telemetry goroutine.
type Manager struct {
	cfg          Config
	requestArena *Arena
	tempArena    *Arena
	pool         *eventpool.Pool // nil when EnableEventPool is false
	stats        Stats
}

// New constructs a Manager from cfg, creating an empty EventPool if
// enabled; the pool is not warmed up here.
func New(cfg Config) *Manager {
	m := &Manager{
		cfg:          cfg,
		requestArena: NewArena(cfg.ArenaSize),
		tempArena:    NewArena(cfg.ArenaSize),
	}
	if cfg.EnableEventPool {
		m.pool = eventpool.New(cfg.EventPoolSize)
	}
	return m
}

// AcquireEvent delegates to the EventPool if enabled, else allocates
// directly, updating pool_hits/pool_misses either way.
func (m *Manager) AcquireEvent() *event.Event {
	if m.pool != nil {
		e, reused := m.pool.AcquireTracked()
		if reused {
			m.stats.recordPoolHit()
		} else {
			m.stats.recordPoolMiss()
		}
		return e
	}
	m.stats.recordPoolMiss()
	return event.New()
}

// ReleaseEvent delegates to the EventPool if enabled, else drops the
// Event for the garbage collector. Safe to call on a partially-used
// Event (spec §5: an abandoned request must still release cleanly).
func (m *Manager) ReleaseEvent(e *event.Event) {
	if e == nil {
		return
	}
	if m.pool != nil {
		m.pool.Release(e)
		return
	}
	// No pool: nothing to do: e is already unreferenced once the caller
	// drops it.
}

// GetRequestAllocator returns the request-scoped arena handle.
func (m *Manager) GetRequestAllocator() *Arena { return m.requestArena }

// GetTempAllocator returns the temp-scoped arena handle.
func (m *Manager) GetTempAllocator() *Arena { return m.tempArena }

// Alloc is a convenience that routes to the arena named by scope, or
// performs a direct heap allocation for ScopePersistent (which by
// definition outlives both arenas).
func (m *Manager) Alloc(scope AllocationScope, n int) []byte {
	switch scope {
	case ScopeRequest:
		b := m.requestArena.Alloc(n)
		m.stats.addAllocated(uint64(n))
		m.refreshUsage()
		return b
	case ScopeTemporary:
		b := m.tempArena.Alloc(n)
		m.stats.addAllocated(uint64(n))
		m.refreshUsage()
		return b
	default: // ScopePersistent
		m.stats.addAllocated(uint64(n))
		return make([]byte, n)
	}
}

func (m *Manager) refreshUsage() {
	m.stats.setUsage(int64(m.requestArena.InUse() + m.tempArena.InUse()))
}

// ResetRequestArena resets the request arena retaining capacity,
// increments arena_resets, and triggers a GC if current_usage exceeds
// gc_threshold.
func (m *Manager) ResetRequestArena() {
	usageBeforeReset := m.stats.snapshot().CurrentUsage
	m.requestArena.Reset()
	m.stats.recordArenaReset()
	m.refreshUsage()
	if usageBeforeReset > int64(m.cfg.GCThreshold) {
		m.PerformGC()
	}
}

// ResetTempArena resets the temp arena retaining capacity. Called more
// frequently than ResetRequestArena (spec §4.4).
func (m *Manager) ResetTempArena() {
	m.tempArena.Reset()
	m.refreshUsage()
}

// PerformGC releases both arenas' backing buffers to the OS, runs pool
// maintenance, zeroes current_usage, and increments gc_runs.
func (m *Manager) PerformGC() {
	m.requestArena.FreeAll()
	m.tempArena.FreeAll()
	if m.pool != nil {
		m.pool.Maintenance()
	}
	m.stats.setUsage(0)
	m.stats.recordGCRun()
}

// Optimize adjusts EventPool size based on the observed reuse ratio and
// forces a GC if usage has drifted far past threshold (spec §4.4).
func (m *Manager) Optimize() {
	if m.pool != nil {
		ps := m.pool.Stats()
		switch {
		case ps.ReuseRatio < 0.5 && ps.PoolSize > 10:
			m.pool.Shrink(ps.PoolSize / 2)
		case ps.ReuseRatio > 0.95 && ps.PoolSize < ps.MaxSize:
			room := ps.MaxSize - ps.PoolSize
			grow := 10
			if room < grow {
				grow = room
			}
			m.pool.WarmUp(grow)
		}
	}
	if m.stats.snapshot().CurrentUsage > 2*int64(m.cfg.GCThreshold) {
		m.PerformGC()
	}
}

// IsHealthy carries spec §9's unexplained-but-binding constants
// verbatim: pool efficiency above 0.8, current/peak usage ratio below
// 0.9, and fewer than 100 GC runs so far.
func (m *Manager) IsHealthy() bool {
	snap := m.stats.snapshot()
	if m.pool != nil {
		ps := m.pool.Stats()
		if ps.Created+ps.Reused > 0 && ps.ReuseRatio <= 0.8 {
			return false
		}
	}
	if snap.PeakUsage > 0 {
		if float64(snap.CurrentUsage)/float64(snap.PeakUsage) >= 0.9 {
			return false
		}
	}
	return snap.GCRuns < 100
}

// Stats returns a point-in-time snapshot of the manager's counters.
func (m *Manager) Stats() Snapshot { return m.stats.snapshot() }

// PoolStats returns the EventPool's counters, or a zero Stats if pooling
// is disabled.
func (m *Manager) PoolStats() eventpool.Stats {
	if m.pool == nil {
		return eventpool.Stats{}
	}
	return m.pool.Stats()
}
