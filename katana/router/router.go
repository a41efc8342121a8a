// Package router implements a path-pattern dispatch table: literal/
// capture segment matching grouped by method, 404 vs 405 semantics, and
// the tie-breaking and trailing-slash rules the original path_pattern/
// router pair enforce. Grounded on nova/router.go's
// compilePattern/matchSegments/ServeHTTP, generalized from Nova's
// {name} regex-validated captures to plain {name} captures with no
// per-segment regex in the wire format; codegen-emitted validators own
// field-level constraints instead.
package router

import (
	"strings"

	"github.com/katana-http/katana/katana/arena"
	"github.com/katana-http/katana/katana/contentneg"
	"github.com/katana-http/katana/katana/headers"
	"github.com/katana-http/katana/katana/problem"
)

// ResponseWriter is the minimal surface a Handler needs to emit a
// successful response. katana/server.ResponseWriter implements it; the
// router package only depends on the interface so codegen-emitted glue
// can target it without importing the server package.
type ResponseWriter interface {
	WriteStatus(status int, reason string)
	WriteHeader(name, value string)
	EndHeaders()
	WriteBody(b []byte)
}

// Segment is one compiled piece of a route pattern.
type Segment struct {
	Literal   string
	IsCapture bool
	Name      string // capture name, only set when IsCapture
}

// PathPattern is a compiled route path, built once at registration time.
type PathPattern struct {
	raw      string
	segments []Segment
}

// CompilePathPattern parses a pattern like "/users/{id}/orders/{orderID}"
// into literal and capture segments. Percent-decoding is never performed
// here: captures are handed back exactly as they appear on the wire.
func CompilePathPattern(pattern string) PathPattern {
	trimmed := strings.TrimPrefix(pattern, "/")
	if trimmed == "" {
		return PathPattern{raw: pattern, segments: nil}
	}
	parts := strings.Split(trimmed, "/")
	segs := make([]Segment, 0, len(parts))
	for _, part := range parts {
		if len(part) >= 2 && part[0] == '{' && part[len(part)-1] == '}' {
			segs = append(segs, Segment{IsCapture: true, Name: part[1 : len(part)-1]})
		} else {
			segs = append(segs, Segment{Literal: part})
		}
	}
	return PathPattern{raw: pattern, segments: segs}
}

// String returns the original pattern text.
func (p PathPattern) String() string { return p.raw }

// match checks path (already split into segments by the caller) against
// p, returning captured parameter values by name. A literal segment
// must equal the path segment exactly; a capture accepts any segment.
// When several patterns match the same path, Dispatch keeps the one
// with the most literal segments (see specificity); registration order
// only breaks ties between equally specific patterns.
func (p PathPattern) match(parts []string) (map[string]string, bool) {
	if len(parts) != len(p.segments) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range p.segments {
		if seg.IsCapture {
			if params == nil {
				params = make(map[string]string, len(p.segments))
			}
			params[seg.Name] = parts[i]
			continue
		}
		if seg.Literal != parts[i] {
			return nil, false
		}
	}
	return params, true
}

// specificity counts literal segments; used to rank competing patterns
// so that a more literal route outranks a more captured one registered
// for the same path shape.
func (p PathPattern) specificity() int {
	n := 0
	for _, s := range p.segments {
		if !s.IsCapture {
			n++
		}
	}
	return n
}

// Handler is the dispatch target for a matched route. ctx carries the
// captured path parameters plus any per-request state a server layer
// wants to thread through; the router itself is agnostic to ctx's
// concrete type beyond the Params map it installs.
type Handler func(ctx *Context) error

// Context is handed to a matched Handler. Params holds captured path
// segment values; ResponseType is set by NegotiateResponseType when the
// route declares a Produces list.
type Context struct {
	Method       string
	Path         string
	Params       map[string]string
	ResponseType string

	// RequestContentType/Accept are populated by the caller (the server
	// layer) from the incoming request's headers before Dispatch runs
	// content negotiation.
	RequestContentType string
	Accept             string

	// RawQuery is the request-target's query string, if any, with no
	// leading '?'. Generated glue parses it with net/url for query
	// parameters (§4.8.6).
	RawQuery string

	// Headers is the full incoming header map, populated by the
	// caller. Generated glue reads header and cookie parameters from
	// it directly (§4.8.6); RequestContentType/Accept above stay as a
	// convenience duplicate since Dispatch itself needs them before a
	// Handler (and hence Headers) is even selected.
	Headers *headers.Map

	// Body is the raw request body bytes, populated by the caller for
	// operations codegen marks has_request_body; nil otherwise.
	Body []byte

	// Arena is the request-scoped allocator per §3.1's request_context
	// {arena, path_params}; codegen-emitted glue uses it for any
	// arena-backed parsing it performs.
	Arena *arena.Arena

	// Writer is where a matched Handler (generated glue, ultimately the
	// user's handler implementation) writes its successful response.
	// Dispatch never writes to it itself: a problem-details failure is
	// reported through the return value instead, per §4.4's "either
	// comes from the handler or is problem-details" contract.
	Writer ResponseWriter
}

// Route is one registered method+pattern+handler triple, plus the
// content-type lists content negotiation checks against.
type Route struct {
	Method   string
	Pattern  PathPattern
	Handler  Handler
	Consumes []string
	Produces []string
}

// Router is a method+path dispatch table. The zero value is ready to
// use; routes are added with Add and never removed (route tables are
// built once at startup from codegen-emitted bindings).
type Router struct {
	routes []Route

	// NotFound and MethodNotAllowed override the default RFC 7807
	// responses Dispatch builds; nil means use the defaults.
	NotFound         func(*Context) error
	MethodNotAllowed func(*Context) error
}

// Add registers a route. Among same-method routes that match a path,
// Dispatch prefers the one with the most literal segments whatever the
// registration order; between equally specific routes the one
// registered first wins.
func (rt *Router) Add(method, pattern string, h Handler, opts ...RouteOption) {
	r := Route{Method: method, Pattern: CompilePathPattern(pattern), Handler: h}
	for _, o := range opts {
		o(&r)
	}
	rt.routes = append(rt.routes, r)
}

// RouteOption configures optional route metadata at registration time.
type RouteOption func(*Route)

// Consumes restricts the route to requests whose Content-Type matches
// one of types, yielding 415 on mismatch.
func Consumes(types ...string) RouteOption {
	return func(r *Route) { r.Consumes = types }
}

// Produces restricts the route's representations; NegotiateResponseType
// is run against the request's Accept header before the handler runs
// (406 on no acceptable match).
func Produces(types ...string) RouteOption {
	return func(r *Route) { r.Produces = types }
}

func splitPath(path string) []string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Dispatch resolves method+path to a handler and invokes it, or returns
// a well-formed problem.Details value for 404/405/415/406: every
// response is either produced by the handler or is one of these
// enumerated problem-details statuses.
func (rt *Router) Dispatch(ctx *Context) (problem.Details, bool, error) {
	parts := splitPath(ctx.Path)

	var best *Route
	var bestParams map[string]string
	pathMatchedAnyMethod := false

	for i := range rt.routes {
		r := &rt.routes[i]
		params, ok := r.Pattern.match(parts)
		if !ok {
			continue
		}
		pathMatchedAnyMethod = true
		if r.Method != ctx.Method {
			continue
		}
		if best == nil || r.Pattern.specificity() > best.Pattern.specificity() {
			best = r
			bestParams = params
		}
	}

	if best == nil {
		if pathMatchedAnyMethod {
			if rt.MethodNotAllowed != nil {
				return problem.Details{}, false, rt.MethodNotAllowed(ctx)
			}
			return problem.MethodNotAllowed("method not allowed for " + ctx.Path), true, nil
		}
		if rt.NotFound != nil {
			return problem.Details{}, false, rt.NotFound(ctx)
		}
		return problem.NotFound("no route for " + ctx.Path), true, nil
	}

	if len(best.Consumes) > 0 {
		if ctx.RequestContentType == "" || contentneg.FindContentType(ctx.RequestContentType, best.Consumes) < 0 {
			return problem.UnsupportedMediaType("unsupported content type"), true, nil
		}
	}
	if len(best.Produces) > 0 {
		mt, ok := contentneg.NegotiateResponseType(ctx.Accept, best.Produces)
		if !ok {
			return problem.NotAcceptable("no acceptable representation"), true, nil
		}
		ctx.ResponseType = mt
	}

	ctx.Params = bestParams
	return problem.Details{}, false, best.Handler(ctx)
}
