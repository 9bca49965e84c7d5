// Package upstream adapts the teacher's reverse-proxy forwarding and
// health-check logic into a router.Route kind: an Upstream route skips
// event construction entirely and hands the raw net/http request
// straight to a load-balanced backend, since request/response bytes
// crossing to another service have no need of the Event pool, route
// cache, or arena allocator that the Local route path exists for.
package upstream

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"

	"github.com/kestrelhttp/core/internal/loadbalancer"
	"github.com/kestrelhttp/core/internal/metrics"
	"github.com/kestrelhttp/core/internal/middleware"
)

// NewReverseProxy wraps backend in a standard httputil.ReverseProxy,
// tagging forwarded requests for backend-side diagnosis.
func NewReverseProxy(backend loadbalancer.Backend) *httputil.ReverseProxy {
	target, _ := url.Parse(backend.GetURL())

	proxy := httputil.NewSingleHostReverseProxy(target)

	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.Header.Set("X-Forwarded-By", "kestrel-core")
		req.Header.Set("X-Backend-Url", backend.GetURL())
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Warn("upstream proxy error", slog.String("backend", backend.GetURL()), slog.Any("error", err))
		http.Error(w, "upstream server error", http.StatusBadGateway)
	}

	return proxy
}

// Route is a router.Route's Upstream payload: a load balancer plus a
// cache of one *httputil.ReverseProxy per backend URL so repeated
// selections of the same backend don't rebuild a proxy per request.
type Route struct {
	LB      loadbalancer.LoadBalancer
	metrics middleware.Middleware // nil when no collector was supplied

	mu      sync.RWMutex
	proxies map[string]*httputil.ReverseProxy
}

// NewRoute wraps a configured LoadBalancer as a forwarding route.
func NewRoute(lb loadbalancer.LoadBalancer) *Route {
	return &Route{LB: lb, proxies: make(map[string]*httputil.ReverseProxy)}
}

// WithMetrics instruments every proxied request through m, labeled as
// the given backend group, and returns rt for chaining off NewRoute.
func (rt *Route) WithMetrics(m *metrics.Metrics, backendLabel string) *Route {
	rt.metrics = middleware.NewMetrics(m, backendLabel)
	return rt
}

// ServeHTTP selects a healthy backend via the load balancer and forwards
// the request through its cached reverse proxy, tracking connection
// counts for the least-connections algorithm.
func (rt *Route) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	backend, err := rt.LB.SelectBackend(r)
	if err != nil {
		http.Error(w, "no healthy upstream backend", http.StatusServiceUnavailable)
		return
	}

	backend.IncrementConnections()
	defer backend.DecrementConnections()

	handler := http.Handler(rt.proxyFor(backend))
	if rt.metrics != nil {
		handler = rt.metrics.Wrap(handler)
	}
	handler.ServeHTTP(w, r)
}

func (rt *Route) proxyFor(backend loadbalancer.Backend) *httputil.ReverseProxy {
	key := backend.GetURL()

	rt.mu.RLock()
	p, ok := rt.proxies[key]
	rt.mu.RUnlock()
	if ok {
		return p
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if p, ok := rt.proxies[key]; ok {
		return p
	}
	p = NewReverseProxy(backend)
	rt.proxies[key] = p
	return p
}
