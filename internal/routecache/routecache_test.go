package routecache

import "testing"

// TestLRUEviction is the literal S2 scenario: capacity 3, insert four
// keys, expect "/a" evicted and evictions=1.
func TestLRUEviction(t *testing.T) {
	c := New(3)
	c.Put("GET", "/a", "handler-a", nil, 1)
	c.Put("GET", "/b", "handler-b", nil, 2)
	c.Put("GET", "/c", "handler-c", nil, 3)
	c.Put("GET", "/d", "handler-d", nil, 4)

	if _, ok := c.Get("GET", "/a", 5); ok {
		t.Fatal("expected /a to be evicted")
	}
	stats := c.Stats()
	if stats.Evictions != 1 {
		t.Fatalf("expected 1 eviction, got %d", stats.Evictions)
	}
	if stats.Size != 3 {
		t.Fatalf("expected size 3, got %d", stats.Size)
	}

	for _, p := range []string{"/b", "/c", "/d"} {
		if _, ok := c.Get("GET", p, 6); !ok {
			t.Fatalf("expected %s to remain cached", p)
		}
	}
}

// TestHitPromotes is the literal S3 scenario: capacity 3 with
// {"/a","/b","/c"} (MRU="/c"), Get("/a") promotes it, then inserting
// "/d" must evict "/b", not "/a".
func TestHitPromotes(t *testing.T) {
	c := New(3)
	c.Put("GET", "/a", "a", nil, 1)
	c.Put("GET", "/b", "b", nil, 2)
	c.Put("GET", "/c", "c", nil, 3)

	if _, ok := c.Get("GET", "/a", 4); !ok {
		t.Fatal("expected /a hit")
	}

	c.Put("GET", "/d", "d", nil, 5)

	if _, ok := c.Get("GET", "/b", 6); ok {
		t.Fatal("expected /b to be evicted, not /a")
	}
	for _, p := range []string{"/a", "/c", "/d"} {
		if _, ok := c.Get("GET", p, 7); !ok {
			t.Fatalf("expected %s to remain cached", p)
		}
	}
}

// TestZeroCapacityAlwaysMisses covers edge case (a).
func TestZeroCapacityAlwaysMisses(t *testing.T) {
	c := New(0)
	c.Put("GET", "/x", "h", nil, 1)
	if _, ok := c.Get("GET", "/x", 2); ok {
		t.Fatal("expected zero-capacity cache to never hit")
	}
}

// TestEvictSoleEntry covers edge case (b): evicting the only entry
// leaves the cache empty and still usable.
func TestEvictSoleEntry(t *testing.T) {
	c := New(1)
	c.Put("GET", "/a", "a", nil, 1)
	c.Put("GET", "/b", "b", nil, 2)
	if _, ok := c.Get("GET", "/a", 3); ok {
		t.Fatal("expected /a evicted")
	}
	if _, ok := c.Get("GET", "/b", 4); !ok {
		t.Fatal("expected /b present")
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Fatalf("expected 1 eviction, got %d", got)
	}
}

// TestMoveHeadToHeadIsNoop covers edge case (c): repeated Gets on the
// current head must not corrupt list linkage.
func TestMoveHeadToHeadIsNoop(t *testing.T) {
	c := New(2)
	c.Put("GET", "/a", "a", nil, 1)
	c.Put("GET", "/b", "b", nil, 2) // head is now /b

	for i := 0; i < 5; i++ {
		if _, ok := c.Get("GET", "/b", int64(3+i)); !ok {
			t.Fatal("expected /b hit")
		}
	}
	keys := c.Keys()
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if keys[0].Path != "/b" {
		t.Fatalf("expected head to remain /b, got %s", keys[0].Path)
	}
}

// TestLookupKeyDoesNotEnterMap is P5: a borrowed path used for lookup
// must not create a stored key — mutating the caller's backing array
// afterward (simulated here by reusing the same Go string) cannot
// affect a stored entry because Put is the only path that retains one.
func TestLookupKeyDoesNotEnterMap(t *testing.T) {
	c := New(2)
	buf := []byte("/scratch")
	if _, ok := c.Get("GET", string(buf), 1); ok {
		t.Fatal("expected miss on unseen path")
	}
	if got := c.Stats().Size; got != 0 {
		t.Fatalf("a pure lookup must not insert a key, got size %d", got)
	}
}

func TestClearResetsCountersAndEntries(t *testing.T) {
	c := New(2)
	c.Put("GET", "/a", "a", nil, 1)
	c.Get("GET", "/a", 2)
	c.Get("GET", "/missing", 3)
	c.Clear()

	stats := c.Stats()
	if stats.Hits != 0 || stats.Misses != 0 || stats.Evictions != 0 || stats.Size != 0 {
		t.Fatalf("expected all counters and size reset, got %+v", stats)
	}
	if _, ok := c.Get("GET", "/a", 4); ok {
		t.Fatal("expected cache empty after Clear")
	}
}

func TestPutUpdatesExistingKeyInPlace(t *testing.T) {
	c := New(2)
	c.Put("GET", "/a", "v1", []Param{{Name: "id", Value: "1"}}, 1)
	c.Put("GET", "/a", "v2", []Param{{Name: "id", Value: "2"}}, 2)

	entry, ok := c.Get("GET", "/a", 3)
	if !ok {
		t.Fatal("expected /a present")
	}
	if entry.Handler.(string) != "v2" {
		t.Fatalf("expected updated handler v2, got %v", entry.Handler)
	}
	if c.Stats().Size != 1 {
		t.Fatalf("expected size to stay 1 after update, got %d", c.Stats().Size)
	}
}

func BenchmarkGetHit(b *testing.B) {
	c := New(1024)
	c.Put("GET", "/bench", "h", nil, 0)
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c.Get("GET", "/bench", int64(i))
	}
}
