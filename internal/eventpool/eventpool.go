// Package eventpool implements the bounded, explicitly-accounted Event
// free list described in spec §4.2. It is deliberately not sync.Pool:
// sync.Pool cannot guarantee a hard max_size, cannot report deterministic
// reuse/created counters, and may evict entries under GC pressure at any
// time, any of which would violate the P1 round-trip property. The
// shape — clear-on-acquire, size-capped release, a package-level global
// instance — is grounded on other_examples' vnykmshr-markgo
// ResponseWriterPool, adapted from sync.Pool to an explicit LIFO slice.
package eventpool

import (
	"sync"

	"github.com/kestrelhttp/core/internal/event"
	"github.com/kestrelhttp/core/internal/kerrors"
)

// Stats mirrors spec §6's PoolStats surface.
type Stats struct {
	PoolSize   int
	MaxSize    int
	Created    uint64
	Reused     uint64
	ReuseRatio float64
}

// Pool is a fixed-capacity LIFO stack of reusable Events.
type Pool struct {
	mu      sync.Mutex
	stack   []*event.Event
	maxSize int
	created uint64
	reused  uint64
}

// New creates a pool with the given capacity. A non-positive maxSize is
// coerced to 1 — a zero-capacity pool would make acquire always allocate
// and release always discard, which is legal but almost certainly not
// what the caller meant.
func New(maxSize int) *Pool {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Pool{
		stack:   make([]*event.Event, 0, maxSize),
		maxSize: maxSize,
	}
}

// Acquire pops the top Event and resets it if the stack is non-empty,
// otherwise allocates and initializes a fresh one.
func (p *Pool) Acquire() *event.Event {
	e, _ := p.AcquireTracked()
	return e
}

// AcquireTracked is Acquire plus a hit flag, so callers that need to
// mirror the hit/miss into their own counters (MemoryManager's
// pool_hits/pool_misses) don't have to diff two Stats snapshots.
func (p *Pool) AcquireTracked() (e *event.Event, reused bool) {
	p.mu.Lock()
	n := len(p.stack)
	if n > 0 {
		e = p.stack[n-1]
		p.stack[n-1] = nil
		p.stack = p.stack[:n-1]
		p.reused++
		p.mu.Unlock()
		e.Reset()
		return e, true
	}
	p.created++
	p.mu.Unlock()
	return event.New(), false
}

// Release returns e to the pool if there is room, deferring the reset
// cost to the next Acquire so it lands on the consumer's critical path
// rather than the producer's (spec §4.2 rationale). If the pool is at
// capacity, e is simply dropped and left for the garbage collector.
func (p *Pool) Release(e *event.Event) {
	if e == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.stack) < p.maxSize {
		p.stack = append(p.stack, e)
	}
}

// WarmUp pre-allocates min(n, maxSize) Events and pushes them, accounted
// as created (not reused).
func (p *Pool) WarmUp(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	room := p.maxSize - len(p.stack)
	if n > room {
		n = room
	}
	for i := 0; i < n; i++ {
		p.stack = append(p.stack, event.New())
		p.created++
	}
}

// Shrink pops and discards Events until the stack has at most target
// entries.
func (p *Pool) Shrink(target int) {
	if target < 0 {
		target = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.stack) > target {
		last := len(p.stack) - 1
		p.stack[last] = nil
		p.stack = p.stack[:last]
	}
}

// Maintenance shrinks an overgrown pool back to a quarter of its
// configured capacity (floor 10), per spec §4.2. Intended to be called
// periodically from MemoryManager, typically after a GC pass.
func (p *Pool) Maintenance() {
	p.mu.Lock()
	floor := p.maxSize / 4
	if floor < 10 {
		floor = 10
	}
	size := len(p.stack)
	threshold := 2 * floor
	p.mu.Unlock()

	if size > threshold {
		p.Shrink(floor)
	}
}

// Stats reports the pool's current counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := p.created + p.reused
	ratio := 0.0
	if total > 0 {
		ratio = float64(p.reused) / float64(total)
	}
	return Stats{
		PoolSize:   len(p.stack),
		MaxSize:    p.maxSize,
		Created:    p.created,
		Reused:     p.reused,
		ReuseRatio: ratio,
	}
}

// Size reports the number of Events currently idle in the pool.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stack)
}

// --- process-wide singleton (spec §5) ---

var (
	globalMu   sync.Mutex
	globalPool *Pool
)

// InitGlobalPool constructs the process-wide singleton pool. Must be
// called before AcquireGlobal/ReleaseGlobal; single-worker deployments
// may use the global pool directly, multi-worker deployments should
// prefer per-worker pools (spec §5).
func InitGlobalPool(maxSize int) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalPool = New(maxSize)
}

// AcquireGlobal acquires from the global pool, failing closed if it was
// never initialized.
func AcquireGlobal() (*event.Event, error) {
	globalMu.Lock()
	p := globalPool
	globalMu.Unlock()
	if p == nil {
		return nil, kerrors.ErrGlobalPoolNotInitialized
	}
	return p.Acquire(), nil
}

// ReleaseGlobal releases to the global pool, failing closed if it was
// never initialized.
func ReleaseGlobal(e *event.Event) error {
	globalMu.Lock()
	p := globalPool
	globalMu.Unlock()
	if p == nil {
		return kerrors.ErrGlobalPoolNotInitialized
	}
	p.Release(e)
	return nil
}
