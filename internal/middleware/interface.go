package middleware

import "net/http"

// Middleware decorates a plain net/http.Handler. The Chain/Func/Kind
// machinery in middleware.go is the fast-dispatch path for Local
// routes running against an *event.Event; Middleware exists alongside
// it for the upstream forwarding path (router.KindUpstream routes),
// which hands a raw http.ResponseWriter/*http.Request straight to a
// reverse proxy and never constructs an Event at all.
type Middleware interface {
    // Wrap decorates an HTTP handler with additional functionality,
    // returning a new handler that runs before/after it.
    Wrap(next http.Handler) http.Handler
}