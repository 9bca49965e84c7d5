package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelhttp/core/internal/event"
)

// defaultLogger is the logger logInline and Logger() write to: the
// slog.Default() in effect when this package was initialized. On the
// fast path every KindLogger entry is inlined as logInline and its own
// Func is not called; a middleware that logs elsewhere is registered
// with KindCustom.
var defaultLogger = slog.Default()

// logInline is the fast-path's inlined equivalent of Logger()'s
// function body, avoiding the indirect call spec §4.5 measures as
// expensive.
func logInline(e *event.Event) {
	defaultLogger.Info("request",
		slog.String("method", e.Method.String()),
		slog.String("path", e.Path.String()),
	)
}

// Logger returns a middleware that logs method and path at Info level.
// Registered with KindLogger so the chain can recognize it for the fast
// path.
func Logger() Func {
	return func(e *event.Event) (Result, error) {
		logInline(e)
		return ResultContinue, nil
	}
}

// corsConfig holds the fixed CORS policy applied by both the generic and
// fast-path CORS middleware.
var corsConfig = struct {
	AllowOrigin  string
	AllowMethods string
	AllowHeaders string
}{
	AllowOrigin:  "*",
	AllowMethods: "GET, POST, PUT, DELETE, OPTIONS, PATCH",
	AllowHeaders: "Content-Type, Authorization, X-Request-Id",
}

func applyCORSHeaders(e *event.Event) {
	e.SetResponseHeader("access-control-allow-origin", event.Static(corsConfig.AllowOrigin))
	e.SetResponseHeader("access-control-allow-methods", event.Static(corsConfig.AllowMethods))
	e.SetResponseHeader("access-control-allow-headers", event.Static(corsConfig.AllowHeaders))
}

// CORS returns a middleware that sets permissive CORS headers and, for
// OPTIONS preflight requests, short-circuits with a 204 (spec S4's
// literal scenario).
func CORS() Func {
	return func(e *event.Event) (Result, error) {
		applyCORSHeaders(e)
		if e.Method == event.MethodOPTIONS {
			_ = e.SendBytes(204, "text/plain", nil)
			return ResultTerminateEarly, nil
		}
		return ResultContinue, nil
	}
}

func applySecurityHeaders(e *event.Event) {
	e.SetResponseHeader("x-content-type-options", event.Static("nosniff"))
	e.SetResponseHeader("x-frame-options", event.Static("DENY"))
	e.SetResponseHeader("x-xss-protection", event.Static("1; mode=block"))
}

// Security returns a middleware that sets the standard hardening
// response headers.
func Security() Func {
	return func(e *event.Event) (Result, error) {
		applySecurityHeaders(e)
		return ResultContinue, nil
	}
}

const timingContextKey = "_timing_start_unixnano"

// Timing returns a middleware that stamps the request's start time into
// Event.Context for TimingEnd to read back.
func Timing() Func {
	return func(e *event.Event) (Result, error) {
		e.SetContext(timingContextKey, event.Owned(strconv.FormatInt(time.Now().UnixNano(), 10)))
		return ResultContinue, nil
	}
}

// TimingEnd reads the stamp Timing left and sets an X-Response-Time-Ns
// response header. It is meant to run after the handler, so it belongs
// in a post-handler hook rather than the pre-handler chain; callers
// wire it as the deferred half of a single registration (see
// internal/engine).
func TimingEnd() func(e *event.Event) {
	return func(e *event.Event) {
		v, ok := e.GetContext(timingContextKey)
		if !ok {
			return
		}
		startNanos, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return
		}
		elapsed := time.Now().UnixNano() - startNanos
		e.SetResponseHeader("x-response-time-ns", event.Owned(strconv.FormatInt(elapsed, 10)))
	}
}

// RequestID returns a middleware that generates a v4 UUID per request
// and stores it both in Event.Context (for handlers/logging) and as the
// X-Request-Id response header.
func RequestID() Func {
	return func(e *event.Event) (Result, error) {
		id := uuid.NewString()
		e.SetContext("request_id", event.Owned(id))
		e.SetResponseHeader("x-request-id", event.Owned(id))
		return ResultContinue, nil
	}
}

// RateLimit is the no-op placeholder spec §9 calls for: a real rate
// limiter needs a dedicated design (distributed counters, backoff
// policy, per-route limits) that is out of scope here. It is wired as a
// tagged middleware so a chain can reserve the slot and a future
// implementation can replace the Func without touching call sites.
func RateLimit() Func {
	return func(e *event.Event) (Result, error) {
		return ResultContinue, nil
	}
}
