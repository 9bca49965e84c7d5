package memory

import "testing"

// TestArenaResetIsolatesAllocations is S5 + P7: a 4 KiB allocation in
// request i must not be observable (by reuse of the same bytes, nor by
// inflating peak usage) once reset runs before request i+1's own 4 KiB
// allocation.
func TestArenaResetIsolatesAllocations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ArenaSize = 1024
	cfg.GCThreshold = 1 << 30 // disable GC trigger for this test
	m := New(cfg)

	buf1 := m.Alloc(ScopeRequest, 4096)
	if len(buf1) != 4096 {
		t.Fatalf("expected 4096 bytes, got %d", len(buf1))
	}
	m.ResetRequestArena()

	buf2 := m.Alloc(ScopeRequest, 4096)
	if len(buf2) != 4096 {
		t.Fatalf("expected 4096 bytes, got %d", len(buf2))
	}

	if got := m.Stats().ArenaResets; got != 1 {
		t.Fatalf("expected arena_resets=1, got %d", got)
	}
	if got := m.requestArena.InUse(); got != 4096 {
		t.Fatalf("expected live usage 4096 after second alloc, not accumulated, got %d", got)
	}
}

// TestGCTrigger is the literal S6 scenario: gc_threshold=1024, simulate
// current_usage=2048, then ResetRequestArena must fire a GC and leave
// current_usage at 0.
func TestGCTrigger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GCThreshold = 1024
	m := New(cfg)

	m.Alloc(ScopeRequest, 2048)
	if got := m.Stats().CurrentUsage; got < 2048 {
		t.Fatalf("expected current_usage>=2048 before reset, got %d", got)
	}

	m.ResetRequestArena()

	if got := m.Stats().GCRuns; got != 1 {
		t.Fatalf("expected gc_runs=1, got %d", got)
	}
	if got := m.Stats().CurrentUsage; got != 0 {
		t.Fatalf("expected current_usage=0 after GC, got %d", got)
	}
}

func TestAcquireReleaseEventTracksPoolStats(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EventPoolSize = 4
	m := New(cfg)

	e := m.AcquireEvent()
	m.ReleaseEvent(e)
	e2 := m.AcquireEvent()
	m.ReleaseEvent(e2)

	stats := m.Stats()
	if stats.PoolMisses != 1 {
		t.Fatalf("expected 1 pool miss (first allocation), got %d", stats.PoolMisses)
	}
	if stats.PoolHits != 1 {
		t.Fatalf("expected 1 pool hit (second acquire reused), got %d", stats.PoolHits)
	}
}

func TestIsHealthyVerbatimThresholds(t *testing.T) {
	cfg := DefaultConfig()
	m := New(cfg)

	// With no activity yet (no pool reuse ratio established, zero peak
	// usage), the manager should report healthy.
	if !m.IsHealthy() {
		t.Fatal("expected fresh manager to be healthy")
	}

	// Drive reuse ratio below 0.8 by acquiring many fresh events without
	// ever releasing them (all misses).
	for i := 0; i < 20; i++ {
		m.AcquireEvent()
	}
	if m.IsHealthy() {
		t.Fatal("expected manager with poor reuse ratio to be unhealthy")
	}
}

func TestOptimizeShrinksUnderusedPool(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EventPoolSize = 100
	m := New(cfg)
	m.pool.WarmUp(100) // created=100, idle stack=100

	// A handful of acquire/release round-trips keeps the idle stack near
	// full while dragging the reuse ratio well under 0.5.
	for i := 0; i < 5; i++ {
		e := m.AcquireEvent()
		m.ReleaseEvent(e)
	}

	before := m.pool.Stats().PoolSize
	m.Optimize()
	after := m.pool.Stats().PoolSize
	if after >= before {
		t.Fatalf("expected pool to shrink on low reuse ratio: before=%d after=%d", before, after)
	}
}
