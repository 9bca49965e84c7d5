package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kestrelhttp/core/internal/event"
)

func TestExactMatchAndCacheHit(t *testing.T) {
	r := New(16)
	called := 0
	r.Handle("GET", "/users", func(e *event.Event) error { called++; return nil })

	route, ok := r.Find("GET", "/users")
	if !ok || route.Kind != KindLocal {
		t.Fatalf("expected local route match, got ok=%v route=%+v", ok, route)
	}
	_ = route.Handler(nil)

	// Second lookup should be served from cache.
	route2, ok2 := r.Find("GET", "/users")
	if !ok2 || route2.Kind != KindLocal {
		t.Fatal("expected cached route match on second lookup")
	}
	if called != 1 {
		t.Fatalf("expected handler invoked exactly once by test, got %d", called)
	}
}

func TestWildcardParamCapture(t *testing.T) {
	r := New(16)
	r.Handle("GET", "/users/:id", func(e *event.Event) error { return nil })

	route, ok := r.Find("GET", "/users/42")
	if !ok {
		t.Fatal("expected match for /users/42")
	}
	if len(route.Params) != 1 || route.Params[0].Name != "id" || route.Params[0].Value != "42" {
		t.Fatalf("expected captured id=42, got %+v", route.Params)
	}
}

func TestNotFoundIsCached(t *testing.T) {
	r := New(16)
	r.Handle("GET", "/known", func(e *event.Event) error { return nil })

	if _, ok := r.Find("GET", "/missing"); ok {
		t.Fatal("expected no match for unregistered path")
	}
	// Second lookup hits the not-found cache entry.
	if _, ok := r.Find("GET", "/missing"); ok {
		t.Fatal("expected cached not-found result to still report no match")
	}
}

func TestUpstreamPrefixForwards(t *testing.T) {
	r := New(16)
	forwarded := false
	r.HandleUpstream("GET", "/api/*", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		forwarded = true
		w.WriteHeader(200)
	}))

	route, ok := r.Find("GET", "/api/v1/widgets")
	if !ok || route.Kind != KindUpstream {
		t.Fatalf("expected upstream route match, got ok=%v route=%+v", ok, route)
	}
	rec := httptest.NewRecorder()
	route.Upstream.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/widgets", nil))
	if !forwarded {
		t.Fatal("expected upstream handler to be invoked")
	}
}
