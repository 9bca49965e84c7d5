// Package memory implements the scoped memory manager described in
// spec §4.4: a request arena, a temp arena, an EventPool wrapper, usage
// telemetry, and GC triggers.
//
// Arena is a monotonic bump allocator grounded on the segment/bump
// vocabulary of other_examples' alex60217101990-opa arena package
// (segment growth on exhaustion, reset vs. free_all) scaled down to a
// single growable backing buffer rather than OPA's segmented node
// storage — this spec's arenas only ever hand out opaque []byte slices,
// never typed nodes, so one buffer per arena is enough.
package memory

import "sync"

// Arena is a bump allocator: Alloc carves a sub-slice off a backing
// buffer, growing it if exhausted; Reset rewinds the cursor to zero
// without releasing the backing buffer (capacity is retained across
// resets, matching spec §4.4's "reset_request_arena retaining
// capacity").
type Arena struct {
	mu     sync.Mutex
	buf    []byte
	cursor int
	peak   int
}

// NewArena creates an arena with the given initial capacity.
func NewArena(initialSize int) *Arena {
	if initialSize <= 0 {
		initialSize = 4096
	}
	return &Arena{buf: make([]byte, initialSize)}
}

// Alloc returns a zeroed n-byte slice carved from the arena. If the
// backing buffer is exhausted it grows (doubling, at minimum n), so
// Alloc never fails outright the way a fixed-size arena would — the
// core traps true exhaustion only at the OS/allocator level (spec §7:
// "no attempt is made to recover from host OOM").
func (a *Arena) Alloc(n int) []byte {
	if n <= 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cursor+n > len(a.buf) {
		a.grow(n)
	}
	b := a.buf[a.cursor : a.cursor+n : a.cursor+n]
	clear(b) // bytes below a rewound cursor still hold pre-Reset data
	a.cursor += n
	if a.cursor > a.peak {
		a.peak = a.cursor
	}
	return b
}

func (a *Arena) grow(need int) {
	newCap := len(a.buf) * 2
	if newCap < a.cursor+need {
		newCap = a.cursor + need
	}
	newBuf := make([]byte, newCap)
	copy(newBuf, a.buf[:a.cursor])
	a.buf = newBuf
}

// Reset rewinds the cursor to zero, retaining the backing buffer's
// capacity so a steady-state workload does not re-grow every request.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cursor = 0
}

// FreeAll releases the backing buffer entirely, returning the arena to
// its zero-capacity state. Used by perform_gc, which wants memory
// actually returned to the OS rather than merely rewound.
func (a *Arena) FreeAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buf = nil
	a.cursor = 0
	a.peak = 0
}

// InUse reports the number of bytes currently allocated (since the last
// Reset/FreeAll).
func (a *Arena) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cursor
}

// Peak reports the high-water mark of InUse since the last FreeAll.
func (a *Arena) Peak() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.peak
}

// Cap reports the backing buffer's current capacity.
func (a *Arena) Cap() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buf)
}
