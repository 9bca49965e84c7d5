// Package router implements route registration and lookup backed by
// the route cache (spec §4.3): exact-match and single-level wildcard
// segments, consulting internal/routecache before falling back to a
// linear scan, and caching both hits and not-found results.
package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/kestrelhttp/core/internal/event"
	"github.com/kestrelhttp/core/internal/routecache"
)

// Handler processes a matched Local route.
type Handler func(e *event.Event) error

// Kind distinguishes a route that runs in-process from one that
// forwards to an upstream backend set.
type Kind int

const (
	KindLocal Kind = iota
	KindUpstream
)

// Route is what Find returns: either a Handler (KindLocal) or an
// http.Handler forwarding to a backend set (KindUpstream). Only one of
// Handler/Upstream is populated, selected by Kind.
type Route struct {
	Kind     Kind
	Handler  Handler
	Upstream http.Handler
	Params   []routecache.Param
}

type pattern struct {
	method   string
	segments []string // ":name" segments capture; "*" matches the rest of the path without capturing
	route    Route
}

// Router matches method+path against registered patterns, using an LRU
// cache to skip the linear scan on repeat requests.
type Router struct {
	patterns []pattern
	cache    *routecache.Cache
}

// New creates a Router backed by a route cache of the given capacity.
func New(cacheSize int) *Router {
	return &Router{cache: routecache.New(cacheSize)}
}

// Handle registers a Local route. path segments prefixed with ":" are
// captured as params, e.g. "/users/:id".
func (r *Router) Handle(method, path string, h Handler) {
	r.patterns = append(r.patterns, pattern{
		method:   method,
		segments: splitPath(path),
		route:    Route{Kind: KindLocal, Handler: h},
	})
}

// HandleUpstream registers a route that forwards to h for every request
// matching method+path (typically a prefix ending in "/*").
func (r *Router) HandleUpstream(method, path string, h http.Handler) {
	r.patterns = append(r.patterns, pattern{
		method:   method,
		segments: splitPath(path),
		route:    Route{Kind: KindUpstream, Upstream: h},
	})
}

// Find resolves method+path to a Route, consulting the cache first. A
// cache hit returns the cached Route and captured params directly, spec
// §4.3's common case. On a miss, Find scans registered patterns, caches
// the result (including a not-found sentinel so repeated 404s short-
// circuit too, spec §9's deliberate difference from a literal port),
// and returns it.
func (r *Router) Find(method, path string) (Route, bool) {
	now := time.Now().UnixNano()
	if entry, ok := r.cache.Get(method, path, now); ok {
		if entry.Handler == nil {
			return Route{}, false
		}
		route := entry.Handler.(Route)
		route.Params = entry.Params
		return route, true
	}

	segments := splitPath(path)
	for _, p := range r.patterns {
		if p.method != method {
			continue
		}
		params, ok := matchSegments(p.segments, segments)
		if !ok {
			continue
		}
		route := p.route
		route.Params = params
		r.cache.Put(method, path, route, params, now)
		return route, true
	}

	r.cache.Put(method, path, nil, nil, now)
	return Route{}, false
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// matchSegments compares a registered pattern against a request's path
// segments. A trailing "*" segment in the pattern matches any remaining
// suffix (used for upstream prefix routes); ":name" segments capture.
func matchSegments(pat, req []string) ([]routecache.Param, bool) {
	var params []routecache.Param
	i := 0
	for ; i < len(pat); i++ {
		if pat[i] == "*" {
			return params, true
		}
		if i >= len(req) {
			return nil, false
		}
		if strings.HasPrefix(pat[i], ":") {
			params = append(params, routecache.Param{Name: pat[i][1:], Value: req[i]})
			continue
		}
		if pat[i] != req[i] {
			return nil, false
		}
	}
	if i != len(req) {
		return nil, false
	}
	return params, true
}
