// Package kerrors defines the error kinds shared across the engine core.
// Callers compare with errors.Is; MiddlewareError and AllocationFailure
// propagate to the connection handler, which maps them to HTTP 500.
package kerrors

import "errors"

var (
	// ErrAllocationFailure signals the base allocator or an arena could not
	// satisfy a request. Propagates to the caller of Execute.
	ErrAllocationFailure = errors.New("kestrel: allocation failure")

	// ErrTooManyMiddlewares is a setup-time-only error: a chain may hold at
	// most 16 middlewares.
	ErrTooManyMiddlewares = errors.New("kestrel: too many middlewares registered")

	// ErrAlreadySent is returned by a send_* call made after the response
	// has already been sent. Production behaviour is to log and drop the
	// write; tests should treat it as a programming error.
	ErrAlreadySent = errors.New("kestrel: response already sent")

	// ErrMiddlewareError wraps a middleware-originated failure. Use
	// errors.Is(err, ErrMiddlewareError) to detect it; the wrapped cause
	// carries the detail.
	ErrMiddlewareError = errors.New("kestrel: middleware error")

	// ErrGlobalPoolNotInitialized is returned by the process-wide EventPool
	// singleton when used before InitGlobalPool.
	ErrGlobalPoolNotInitialized = errors.New("kestrel: global event pool not initialized")

	// ErrInvalidRequest short-circuits to HTTP 400; raised by collaborators
	// that parse the wire request, surfaced here so the engine can map it.
	ErrInvalidRequest = errors.New("kestrel: invalid request")
)
