package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kestrelhttp/core/internal/eventpool"
)

func TestUpdatePoolStatsExposedViaHandler(t *testing.T) {
	m := NewMetrics()
	m.UpdatePoolStats(eventpool.Stats{PoolSize: 5, MaxSize: 10, Created: 3, Reused: 7, ReuseRatio: 0.7})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "kestrel_event_pool_size 5") {
		t.Fatalf("expected pool size gauge in output, got:\n%s", body)
	}
	if !strings.Contains(body, "kestrel_event_pool_reuse_ratio 0.7") {
		t.Fatalf("expected reuse ratio gauge in output, got:\n%s", body)
	}
}

func TestMultipleInstancesDoNotCollide(t *testing.T) {
	// Each NewMetrics uses its own registry, so constructing more than
	// one in the same process (as repeated test runs or multiple
	// engines would) must not panic on duplicate registration.
	_ = NewMetrics()
	_ = NewMetrics()
}
