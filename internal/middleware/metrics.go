package middleware

import (
	"net/http"

	"github.com/kestrelhttp/core/internal/metrics"
)

// metricsMiddleware adapts an existing Prometheus metrics collector into
// the Middleware decorator interface, for instrumenting the raw
// http.Handlers on the upstream forwarding path (router.KindUpstream
// routes bypass the Event-based Chain entirely, so they need their own
// decorator rather than a Kind-tagged Func).
type metricsMiddleware struct {
    m       *metrics.Metrics
    backend string
}

// NewMetrics wraps an already-constructed metrics.Metrics (shared with
// the rest of the engine, so scrapes see one coherent set of series) as
// a Middleware tagged with the given backend label.
func NewMetrics(m *metrics.Metrics, backend string) Middleware {
    return &metricsMiddleware{m: m, backend: backend}
}

// Wrap instruments each request with Prometheus metrics.
func (mm *metricsMiddleware) Wrap(next http.Handler) http.Handler {
    return mm.m.MetricsMiddleware(mm.backend)(next)
}