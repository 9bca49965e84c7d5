// Package engine wires the Event/EventPool/RouteCache/MemoryManager/
// MiddlewareChain/Router components into a runnable HTTP server, the
// role the teacher's internal/proxy package played before this port
// generalized it into a request-handling core rather than a
// single-purpose reverse proxy. The ambient goroutines — HTTP listener,
// upstream health probing, periodic GC/optimize ticks — are supervised
// by an errgroup.Group so a failure in any one of them tears the others
// down, replacing the teacher's unsupervised `go func(){...}()` calls.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kestrelhttp/core/internal/config"
	"github.com/kestrelhttp/core/internal/event"
	"github.com/kestrelhttp/core/internal/loadbalancer"
	"github.com/kestrelhttp/core/internal/logging"
	"github.com/kestrelhttp/core/internal/memory"
	"github.com/kestrelhttp/core/internal/metrics"
	"github.com/kestrelhttp/core/internal/middleware"
	"github.com/kestrelhttp/core/internal/router"
	"github.com/kestrelhttp/core/internal/upstream"
)

// Server is the assembled engine: configuration plus every component
// from spec §4, ready to serve HTTP traffic.
type Server struct {
	cfg *config.Config

	mm     *memory.Manager
	chain  *middleware.Chain
	router *router.Router
	log    *logging.Logger
	met    *metrics.Metrics

	timingEnd func(e *event.Event)

	upstreamBackends []upstream.Backend
	healthChecker    *upstream.Checker

	httpServer     *http.Server
	tracingCleanup func()
}

// New assembles a Server from cfg. Upstream routes are registered here
// from cfg.LoadBalance; Local routes are registered via Handle before
// Start is called.
func New(cfg *config.Config) (*Server, error) {
	mm := memory.New(cfg.Memory)
	r := router.New(cfg.Server.RouteCacheSize)

	s := &Server{
		cfg:    cfg,
		mm:     mm,
		router: r,
		log:    logging.NewLogger(cfg.Tracing.ServiceName),
		met:    metrics.NewMetrics(),
	}

	// logger+cors+security is the default chain because it is exactly
	// the 3-entry combination middleware.Chain recognizes for its fast
	// path (spec §4.5); request_id/timing/rate_limit remain available
	// built-ins a caller can add with Chain().Use, at the cost of
	// falling back to the generic dispatch loop.
	chain := middleware.New(func(e *event.Event) error { return e.SendText(http.StatusNotFound, "not found") })
	_ = chain.Use(middleware.KindLogger, middleware.Logger())
	_ = chain.Use(middleware.KindCors, middleware.CORS())
	_ = chain.Use(middleware.KindSecurity, middleware.Security())
	s.chain = chain
	s.timingEnd = middleware.TimingEnd()

	if len(cfg.LoadBalance.Backends) > 0 {
		lb, err := loadbalancer.NewLoadBalancer(cfg.LoadBalance.Algorithm, cfg.LoadBalance.Backends)
		if err != nil {
			return nil, fmt.Errorf("constructing upstream load balancer: %w", err)
		}
		route := upstream.NewRoute(lb).WithMetrics(s.met, "upstream")
		r.HandleUpstream(http.MethodGet, "/upstream/*", route)
		r.HandleUpstream(http.MethodPost, "/upstream/*", route)
		r.HandleUpstream(http.MethodPut, "/upstream/*", route)
		r.HandleUpstream(http.MethodDelete, "/upstream/*", route)

		for _, b := range lb.GetBackends() {
			s.upstreamBackends = append(s.upstreamBackends, b)
		}
		s.healthChecker = upstream.NewChecker(upstream.HealthConfig{
			Enabled:  cfg.Health.Enabled,
			Interval: cfg.Health.Interval,
			Timeout:  cfg.Health.Timeout,
			Path:     cfg.Health.Path,
		})
	}

	cleanup, err := func() (func(), error) {
		if !cfg.Tracing.Enabled {
			return func() {}, nil
		}
		return initTracingFromConfig(cfg.Tracing)
	}()
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	s.tracingCleanup = cleanup

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      http.HandlerFunc(s.serveHTTP),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

// Handle registers a Local route, forwarded to the supplied router.
func (s *Server) Handle(method, path string, h router.Handler) {
	s.router.Handle(method, path, h)
}

// Memory exposes the MemoryManager so handlers can use scoped
// allocation (spec §4.4) without importing internal/memory themselves.
func (s *Server) Memory() *memory.Manager { return s.mm }

// Metrics exposes the metrics collector, e.g. for mounting its Handler
// on a separate admin listener.
func (s *Server) Metrics() *metrics.Metrics { return s.met }

// Chain exposes the middleware chain so callers can register
// additional built-ins (request_id, timing, rate_limit) or custom
// middleware before Start.
func (s *Server) Chain() *middleware.Chain { return s.chain }

// Start runs the HTTP listener plus the supervised background
// goroutines until ctx is cancelled or one of them fails.
func (s *Server) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info(ctx, "starting engine", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if s.healthChecker != nil && len(s.upstreamBackends) > 0 {
		g.Go(func() error {
			return s.healthChecker.Watch(ctx, s.upstreamBackends)
		})
	}

	g.Go(func() error {
		return s.runMaintenanceLoop(ctx)
	})

	return g.Wait()
}

// runMaintenanceLoop periodically resets the temp arena, optimizes the
// event pool, and mirrors stats into Prometheus, per spec §5's
// background-maintenance expectation.
func (s *Server) runMaintenanceLoop(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.mm.ResetTempArena()
			s.mm.Optimize()
			s.met.UpdatePoolStats(s.mm.PoolStats())
			s.met.UpdateMemoryStats(s.mm.Stats())
		}
	}
}

// Shutdown gracefully stops the HTTP listener and releases tracing
// resources.
func (s *Server) Shutdown(ctx context.Context) error {
	defer func() {
		if s.tracingCleanup != nil {
			s.tracingCleanup()
		}
	}()
	return s.httpServer.Shutdown(ctx)
}
