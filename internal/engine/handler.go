package engine

import (
	"io"
	"net/http"

	"github.com/kestrelhttp/core/internal/event"
	"github.com/kestrelhttp/core/internal/router"
)

// serveHTTP is the net/http entry point, implementing spec §2's data
// flow: route first (so an Upstream match can bypass Event entirely),
// otherwise acquire an Event, run it through the middleware chain and
// matched Local handler, serialize the response, and release the
// Event back to the pool.
func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	route, ok := s.router.Find(r.Method, r.URL.Path)
	if ok && route.Kind == router.KindUpstream {
		route.Upstream.ServeHTTP(w, r)
		return
	}

	e := s.mm.AcquireEvent()
	defer s.mm.ReleaseEvent(e)

	if err := parseInto(e, r); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	handler := dispatcherFor(route, ok)
	if err := s.chain.ExecuteWithHandler(e, handler); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s.timingEnd(e)
	writeResponse(w, e)
}

// dispatcherFor closes over this request's matched route so the shared
// Chain never needs per-request mutable state (see
// middleware.Chain.ExecuteWithHandler).
func dispatcherFor(route router.Route, ok bool) func(e *event.Event) error {
	return func(e *event.Event) error {
		if !ok || route.Kind != router.KindLocal {
			return e.SendText(http.StatusNotFound, "not found")
		}
		for _, p := range route.Params {
			e.SetParam(p.Name, event.Owned(p.Value))
		}
		return route.Handler(e)
	}
}

// parseInto fills e from an inbound *http.Request. Header values and
// the body are Owned (allocated per request); the method token and
// HTTP version string come from a small set of Static constants inside
// Event, avoiding a per-request allocation for either.
func parseInto(e *event.Event, r *http.Request) error {
	if m, ok := event.ParseMethod(r.Method); ok {
		e.Method = m
	}
	e.Path = event.Owned(r.URL.Path)
	e.Query = event.Owned(r.URL.RawQuery)

	for name, values := range r.Header {
		if len(values) > 0 {
			e.SetHeader(name, event.Owned(values[0]))
		}
	}

	if r.Body != nil {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return err
		}
		if len(body) > 0 {
			e.Body = body
		}
	}
	return nil
}

// writeResponse flushes e.Response onto w. Called only after the
// middleware chain has finished, so e.Response.Finished is expected to
// be true; a handler that never calls one of Event's Send* methods
// still gets a well-formed (if empty) response rather than a hang.
func writeResponse(w http.ResponseWriter, e *event.Event) {
	for name, v := range e.Response.Headers {
		w.Header().Set(name, v.String())
	}
	status := e.Response.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(e.Response.Body) > 0 {
		_, _ = w.Write(e.Response.Body)
	}
}
