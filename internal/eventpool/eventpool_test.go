package eventpool

import (
	"testing"

	"github.com/kestrelhttp/core/internal/event"
)

// TestAcquireReleaseRoundTrip is the literal S1 leak-regression scenario:
// 100 cycles of acquire -> mutate -> release against a capacity-10 pool
// should settle at reuse_count=99, created_count=1.
func TestAcquireReleaseRoundTrip(t *testing.T) {
	pool := New(10)

	for i := 0; i < 100; i++ {
		e := pool.Acquire()
		e.SetContext("request_id", event.Owned("12345"))
		e.SetContext("user_id", event.Owned("user123"))
		e.SetParam("p1", event.Owned("v1"))
		e.SetParam("p2", event.Owned("v2"))
		pool.Release(e)
	}

	stats := pool.Stats()
	if stats.Created != 1 {
		t.Errorf("expected created=1, got %d", stats.Created)
	}
	if stats.Reused != 99 {
		t.Errorf("expected reused=99, got %d", stats.Reused)
	}
	if stats.PoolSize != 1 {
		t.Errorf("expected pool size 1, got %d", stats.PoolSize)
	}
}

// TestResetIsTotal is P2: after reset, every mapping is empty and
// scalars are back at their defaults.
func TestResetIsTotal(t *testing.T) {
	pool := New(4)
	e := pool.Acquire()
	e.SetHeader("X-Custom", event.Owned("value"))
	e.SetParam("id", event.Owned("42"))
	e.SetContext("trace", event.Owned("abc"))
	e.SetStatus(500)
	if err := e.SendText(200, "hi"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	pool.Release(e)

	reused := pool.Acquire()
	if len(reused.Headers) != 0 || len(reused.Params) != 0 || len(reused.Context) != 0 {
		t.Fatal("expected all mappings empty after reuse")
	}
	if reused.Method != event.MethodGET {
		t.Fatalf("expected method reset to GET, got %v", reused.Method)
	}
	if reused.Version.String() != "HTTP/1.1" {
		t.Fatalf("expected version reset to HTTP/1.1, got %q", reused.Version.String())
	}
	if reused.Response.Status != 200 {
		t.Fatalf("expected status reset to 200, got %d", reused.Response.Status)
	}
	if reused.Response.Sent || reused.Response.Finished {
		t.Fatal("expected sent/finished reset to false")
	}
	if reused.Response.Body != nil {
		t.Fatal("expected response body cleared")
	}
}

// TestKeyOverwriteDoesNotAccumulate is P3: overwriting a context key
// twice must not grow the map beyond one entry.
func TestKeyOverwriteDoesNotAccumulate(t *testing.T) {
	pool := New(2)
	e := pool.Acquire()
	e.SetContext("k", event.Owned("v1"))
	e.SetContext("k", event.Owned("v2"))
	if len(e.Context) != 1 {
		t.Fatalf("expected exactly one context entry, got %d", len(e.Context))
	}
	v, ok := e.GetContext("k")
	if !ok || v.String() != "v2" {
		t.Fatalf("expected k=v2, got %q ok=%v", v.String(), ok)
	}
}

func TestReleaseBeyondCapacityDrops(t *testing.T) {
	pool := New(1)
	e1 := pool.Acquire()
	e2 := pool.Acquire()
	pool.Release(e1)
	pool.Release(e2)
	if got := pool.Size(); got != 1 {
		t.Fatalf("expected pool capped at 1, got %d", got)
	}
}

func TestWarmUpRespectsCapacity(t *testing.T) {
	pool := New(5)
	pool.WarmUp(100)
	if got := pool.Size(); got != 5 {
		t.Fatalf("expected warm-up capped at capacity 5, got %d", got)
	}
	if pool.Stats().Created != 5 {
		t.Fatalf("expected created=5 after warm-up, got %d", pool.Stats().Created)
	}
}

func TestMaintenanceShrinksOvergrownPool(t *testing.T) {
	pool := New(40) // floor = max(40/4,10) = 10
	pool.WarmUp(40)
	pool.Maintenance()
	if got := pool.Size(); got >= 20 {
		t.Fatalf("expected maintenance to shrink pool under 2x floor, got %d", got)
	}
}

func TestGlobalPoolFailsClosed(t *testing.T) {
	globalMu.Lock()
	globalPool = nil
	globalMu.Unlock()

	if _, err := AcquireGlobal(); err == nil {
		t.Fatal("expected AcquireGlobal to fail before InitGlobalPool")
	}

	InitGlobalPool(8)
	e, err := AcquireGlobal()
	if err != nil {
		t.Fatalf("unexpected error after init: %v", err)
	}
	if err := ReleaseGlobal(e); err != nil {
		t.Fatalf("unexpected error releasing to global pool: %v", err)
	}
}

func BenchmarkAcquireRelease(b *testing.B) {
	pool := New(64)
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		e := pool.Acquire()
		pool.Release(e)
	}
}
