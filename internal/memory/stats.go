package memory

import "sync/atomic"

// Stats holds the running counters of spec §3's MemoryStats. Monotone
// counters never decrement; CurrentUsage/PeakUsage track live bytes.
// Fields are accessed via sync/atomic because IsHealthy and the
// Prometheus exporter in internal/metrics may read them from a
// telemetry goroutine while the hot path keeps writing — the same
// reasoning the teacher applies to loadbalancer.HTTPBackend.connections.
type Stats struct {
	totalAllocated uint64
	currentUsage   int64
	peakUsage      int64
	poolHits       uint64
	poolMisses     uint64
	arenaResets    uint64
	gcRuns         uint64
}

// Snapshot is an immutable copy of Stats for reporting.
type Snapshot struct {
	TotalAllocated uint64
	CurrentUsage   int64
	PeakUsage      int64
	PoolHits       uint64
	PoolMisses     uint64
	ArenaResets    uint64
	GCRuns         uint64
}

func (s *Stats) addAllocated(n uint64) { atomic.AddUint64(&s.totalAllocated, n) }

func (s *Stats) setUsage(n int64) {
	atomic.StoreInt64(&s.currentUsage, n)
	for {
		peak := atomic.LoadInt64(&s.peakUsage)
		if n <= peak {
			return
		}
		if atomic.CompareAndSwapInt64(&s.peakUsage, peak, n) {
			return
		}
	}
}

func (s *Stats) recordPoolHit()    { atomic.AddUint64(&s.poolHits, 1) }
func (s *Stats) recordPoolMiss()   { atomic.AddUint64(&s.poolMisses, 1) }
func (s *Stats) recordArenaReset() { atomic.AddUint64(&s.arenaResets, 1) }
func (s *Stats) recordGCRun()      { atomic.AddUint64(&s.gcRuns, 1) }

func (s *Stats) snapshot() Snapshot {
	return Snapshot{
		TotalAllocated: atomic.LoadUint64(&s.totalAllocated),
		CurrentUsage:   atomic.LoadInt64(&s.currentUsage),
		PeakUsage:      atomic.LoadInt64(&s.peakUsage),
		PoolHits:       atomic.LoadUint64(&s.poolHits),
		PoolMisses:     atomic.LoadUint64(&s.poolMisses),
		ArenaResets:    atomic.LoadUint64(&s.arenaResets),
		GCRuns:         atomic.LoadUint64(&s.gcRuns),
	}
}
