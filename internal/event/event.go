// Package event defines Event, the mutable per-request value object that
// carries a parsed request down through the middleware chain and router to
// a handler, and the response the handler builds back up.
//
// The critical discipline here is string ownership (spec §9): every
// byte-string-valued field is tagged Owned or Static rather than inferred
// from length or name heuristics. Reset must free exactly the Owned
// values and leave Static ones alone.
package event

import (
	"encoding/json"

	"github.com/kestrelhttp/core/internal/kerrors"
)

// Method is the enum of the nine standard HTTP verbs.
type Method int

const (
	MethodGET Method = iota
	MethodHEAD
	MethodPOST
	MethodPUT
	MethodDELETE
	MethodCONNECT
	MethodOPTIONS
	MethodTRACE
	MethodPATCH
)

func (m Method) String() string {
	switch m {
	case MethodGET:
		return "GET"
	case MethodHEAD:
		return "HEAD"
	case MethodPOST:
		return "POST"
	case MethodPUT:
		return "PUT"
	case MethodDELETE:
		return "DELETE"
	case MethodCONNECT:
		return "CONNECT"
	case MethodOPTIONS:
		return "OPTIONS"
	case MethodTRACE:
		return "TRACE"
	case MethodPATCH:
		return "PATCH"
	default:
		return "GET"
	}
}

// ParseMethod maps a wire method token to Method. Unknown tokens map to
// the zero value (GET) — the parser is expected to reject anything else
// before it reaches the core.
func ParseMethod(s string) (Method, bool) {
	switch s {
	case "GET":
		return MethodGET, true
	case "HEAD":
		return MethodHEAD, true
	case "POST":
		return MethodPOST, true
	case "PUT":
		return MethodPUT, true
	case "DELETE":
		return MethodDELETE, true
	case "CONNECT":
		return MethodCONNECT, true
	case "OPTIONS":
		return MethodOPTIONS, true
	case "TRACE":
		return MethodTRACE, true
	case "PATCH":
		return MethodPATCH, true
	default:
		return MethodGET, false
	}
}

// strKind tags a Str as owned by the Event (freed on reset) or static,
// owned by the program (a literal, never freed). This sum type replaces
// the source's len/allowlist heuristic called out in spec §9.
type strKind uint8

const (
	kindStatic strKind = iota
	kindOwned
)

// Str is a byte string with an explicit owner. The zero value is the
// static empty string.
type Str struct {
	kind  strKind
	value string
}

// Static wraps a program-owned literal. Never freed by reset.
func Static(s string) Str { return Str{kind: kindStatic, value: s} }

// Owned wraps an Event-owned copy. Freed by reset.
func Owned(s string) Str { return Str{kind: kindOwned, value: s} }

// String returns the underlying text regardless of ownership.
func (s Str) String() string { return s.value }

// IsOwned reports whether reset must release this value.
func (s Str) IsOwned() bool { return s.kind == kindOwned }

// Empty reports whether this is the zero Str.
func (s Str) Empty() bool { return s.value == "" }

const defaultVersion = "HTTP/1.1"

// Response holds everything the serializer collaborator reads after
// Finished is set.
type Response struct {
	Status     int
	Headers    map[string]Str
	Body       []byte
	BodyOwned  bool
	Sent       bool
	Finished   bool
}

// Event is the mutable container passed down the middleware chain to the
// router and handler, and back up to the serializer.
//
// Invariant: after Reset, every mapping is empty and every optional owned
// byte string is absent (P2). Sent implies further writes are errors;
// Finished implies the response may be serialized.
type Event struct {
	Method  Method
	Path    Str
	Query   Str
	Version Str
	Body    []byte // optional owned body; nil if absent

	Headers map[string]Str
	Params  map[string]Str
	Context map[string]Str

	Response Response
}

// New allocates a freshly-initialized Event. Used by EventPool when its
// free list is empty.
func New() *Event {
	e := &Event{
		Headers: make(map[string]Str, 8),
		Params:  make(map[string]Str, 4),
		Context: make(map[string]Str, 4),
	}
	e.initScalars()
	e.Response.Headers = make(map[string]Str, 8)
	return e
}

func (e *Event) initScalars() {
	e.Method = MethodGET
	e.Version = Static(defaultVersion)
	e.Response.Status = 200
	e.Response.Sent = false
	e.Response.Finished = false
}

// clearHeaderMap frees owned keys/values (in the Go port, "freeing" a
// value means dropping the last reference to it) and empties the map
// while retaining its backing buckets, matching reset_event's capacity-
// preserving contract (spec §4.2, and the open question in spec §9 which
// this port treats as intentional).
func clearHeaderMap(m map[string]Str) {
	for k := range m {
		delete(m, k)
	}
}

// Reset clears every mapping and optional owned string and restores
// scalar defaults, per spec §4.2's reset_event algorithm. After Reset
// returns, e is observationally indistinguishable from a fresh Event up
// to map capacity (P2).
func (e *Event) Reset() {
	clearHeaderMap(e.Context)
	clearHeaderMap(e.Params)
	clearHeaderMap(e.Headers)
	clearHeaderMap(e.Response.Headers)

	e.Path = Str{}
	e.Query = Str{}
	e.Body = nil
	e.Response.Body = nil
	e.Response.BodyOwned = false

	e.initScalars()
}

// SetHeader sets a request header. Lookup is case-insensitive; storage
// key is lower-cased so both get/set agree on identity. Per the
// key-overwrite contract (spec §4.1, P3), an existing value is replaced,
// never appended to or leaked.
func (e *Event) SetHeader(name string, value Str) {
	setMapCI(e.Headers, name, value)
}

// GetHeader retrieves a request header case-insensitively.
func (e *Event) GetHeader(name string) (Str, bool) {
	v, ok := e.Headers[lowerASCII(name)]
	return v, ok
}

// SetParam sets a route-capture parameter.
func (e *Event) SetParam(name string, value Str) { e.Params[name] = value }

// GetParam retrieves a route-capture parameter.
func (e *Event) GetParam(name string) (Str, bool) { v, ok := e.Params[name]; return v, ok }

// SetContext sets a middleware/handler scratch value. If name already
// holds a value, the old value is dropped before the new one replaces it
// (spec §4.1's critical contract; in Go this is simply map assignment,
// since there is no manual free, but the contract still binds: the old
// Str must not leak into a second map key or survive Reset).
func (e *Event) SetContext(name string, value Str) { e.Context[name] = value }

// GetContext retrieves a middleware/handler scratch value.
func (e *Event) GetContext(name string) (Str, bool) { v, ok := e.Context[name]; return v, ok }

// SetStatus sets the response status code. No-op once Sent.
func (e *Event) SetStatus(code int) {
	if e.Response.Sent {
		return
	}
	e.Response.Status = code
}

// SetResponseHeader sets a response header, case-insensitive key.
func (e *Event) SetResponseHeader(name string, value Str) {
	setMapCI(e.Response.Headers, name, value)
}

func (e *Event) finish(body []byte, owned bool) error {
	if e.Response.Sent {
		return kerrors.ErrAlreadySent
	}
	e.Response.Body = body
	e.Response.BodyOwned = owned
	e.Response.Sent = true
	e.Response.Finished = true
	return nil
}

// SendText sets a text/plain body and finishes the response.
func (e *Event) SendText(status int, text string) error {
	e.SetStatus(status)
	e.SetResponseHeader("content-type", Static("text/plain; charset=utf-8"))
	return e.finish([]byte(text), true)
}

// SendHTML sets a text/html body and finishes the response.
func (e *Event) SendHTML(status int, html string) error {
	e.SetStatus(status)
	e.SetResponseHeader("content-type", Static("text/html; charset=utf-8"))
	return e.finish([]byte(html), true)
}

// SendBytes sets an arbitrary body with the given content type and
// finishes the response. The caller retains ownership semantics implied
// by contentType being Static or Owned only insofar as headers go; the
// body bytes are always treated as Event-owned once handed to SendBytes.
func (e *Event) SendBytes(status int, contentType string, body []byte) error {
	e.SetStatus(status)
	e.SetResponseHeader("content-type", Static(contentType))
	return e.finish(body, true)
}

// SendJSON marshals v and finishes the response as application/json.
// encoding/json is stdlib; no third-party JSON library appears anywhere
// in the retrieved example corpus, so this is the DESIGN.md-justified
// stdlib exception (see DESIGN.md).
func (e *Event) SendJSON(status int, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e.SetStatus(status)
	e.SetResponseHeader("content-type", Static("application/json; charset=utf-8"))
	return e.finish(body, true)
}

func setMapCI(m map[string]Str, name string, value Str) {
	m[lowerASCII(name)] = value
}

// lowerASCII lower-cases ASCII header names without pulling in
// strings.ToLower's unicode-aware path; header names are always ASCII.
func lowerASCII(s string) string {
	needsLower := false
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b[i] = c
	}
	return string(b)
}
