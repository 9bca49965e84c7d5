package middleware

import (
	"errors"
	"testing"

	"github.com/kestrelhttp/core/internal/event"
	"github.com/kestrelhttp/core/internal/kerrors"
)

func handlerCalled(called *bool) func(e *event.Event) error {
	return func(e *event.Event) error {
		*called = true
		return e.SendText(200, "ok")
	}
}

// TestFastPathCORSPreflight is the literal S4 scenario: a chain of
// logger+cors+security handling an OPTIONS request takes the fast path
// and short-circuits with 204 before the handler runs.
func TestFastPathCORSPreflight(t *testing.T) {
	called := false
	c := New(handlerCalled(&called))
	_ = c.Use(KindLogger, Logger())
	_ = c.Use(KindCors, CORS())
	_ = c.Use(KindSecurity, Security())

	if !c.fastPathEligible() {
		t.Fatal("expected logger+cors+security chain to be fast-path eligible")
	}

	e := event.New()
	e.Method = event.MethodOPTIONS

	if err := c.Execute(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatal("handler must not run for an OPTIONS preflight short-circuit")
	}
	if e.Response.Status != 204 {
		t.Fatalf("expected status 204, got %d", e.Response.Status)
	}
	if hv, ok := e.Response.Headers["access-control-allow-origin"]; !ok || hv.String() != "*" {
		t.Fatalf("expected CORS header to be set, got %v ok=%v", hv, ok)
	}
}

// TestGenericChainRunsHandlerOnContinue exercises the non-fast-path loop.
func TestGenericChainRunsHandlerOnContinue(t *testing.T) {
	called := false
	c := New(handlerCalled(&called))
	_ = c.Use(KindRequestID, RequestID())
	_ = c.Use(KindTiming, Timing())
	_ = c.Use(KindRateLimit, RateLimit())
	_ = c.UseCustom(func(e *event.Event) (Result, error) { return ResultContinue, nil })

	if c.fastPathEligible() {
		t.Fatal("a 4-entry chain without cors must not be fast-path eligible")
	}

	e := event.New()
	e.Method = event.MethodGET
	if err := c.Execute(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected handler to run")
	}
	if _, ok := e.GetContext("request_id"); !ok {
		t.Fatal("expected request_id to be set in context")
	}
}

// TestTerminateEarlySkipsHandler is P6: a ResultTerminateEarly from any
// middleware stops the chain and Execute still returns nil.
func TestTerminateEarlySkipsHandler(t *testing.T) {
	called := false
	c := New(handlerCalled(&called))
	_ = c.UseCustom(func(e *event.Event) (Result, error) { return ResultTerminateEarly, nil })
	_ = c.UseCustom(func(e *event.Event) (Result, error) {
		t.Fatal("second middleware must not run after termination")
		return ResultContinue, nil
	})

	e := event.New()
	if err := c.Execute(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatal("handler must not run after early termination")
	}
}

func TestErrorResultWrapsCause(t *testing.T) {
	cause := errors.New("boom")
	c := New(handlerCalled(new(bool)))
	_ = c.UseCustom(func(e *event.Event) (Result, error) { return ResultError, cause })

	e := event.New()
	err := c.Execute(e)
	if !errors.Is(err, kerrors.ErrMiddlewareError) {
		t.Fatalf("expected wrapped ErrMiddlewareError, got %v", err)
	}
}

func TestTooManyMiddlewaresRejected(t *testing.T) {
	c := New(handlerCalled(new(bool)))
	noop := func(e *event.Event) (Result, error) { return ResultContinue, nil }
	for i := 0; i < maxMiddlewares; i++ {
		if err := c.UseCustom(noop); err != nil {
			t.Fatalf("unexpected error registering middleware %d: %v", i, err)
		}
	}
	if err := c.UseCustom(noop); !errors.Is(err, kerrors.ErrTooManyMiddlewares) {
		t.Fatalf("expected ErrTooManyMiddlewares, got %v", err)
	}
}

func TestTimingEndReadsStamp(t *testing.T) {
	c := New(handlerCalled(new(bool)))
	_ = c.Use(KindTiming, Timing())

	e := event.New()
	if err := c.Execute(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	TimingEnd()(e)
	if _, ok := e.Response.Headers["x-response-time-ns"]; !ok {
		t.Fatal("expected x-response-time-ns header after TimingEnd")
	}
}
