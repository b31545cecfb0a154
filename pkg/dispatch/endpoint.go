package dispatch

import (
	"net/http"
	"slices"
	"strings"

	"github.com/sjc5/dispatch/pkg/matcher"
	"github.com/sjc5/dispatch/pkg/response"
	"github.com/sjc5/dispatch/pkg/validate"
)

/////////////////////////////////////////////////////////////////////
/////// STAGE FUNCTIONS
/////////////////////////////////////////////////////////////////////

// An Interceptor either lets the request continue by returning (nil, nil),
// or ends it by returning a response or an error. When both are returned the
// error wins.
type Interceptor func(s *Scope) (*response.Response, error)

// A Resolver produces the final response of a request that passed every
// interceptor. It must not return (nil, nil).
type Resolver func(s *Scope) (*response.Response, error)

// Resolve adapts a function returning a plain value into a Resolver that
// wraps the value as Data.
func Resolve[T any](fn func(s *Scope) (T, error)) Resolver {
	return func(s *Scope) (*response.Response, error) {
		v, err := fn(s)
		if err != nil {
			return nil, err
		}
		return response.Data(v), nil
	}
}

/////////////////////////////////////////////////////////////////////
/////// ENDPOINTS
/////////////////////////////////////////////////////////////////////

// Endpoint is one entry of the endpoint map: a route template bound to its
// validators, interceptors and resolver.
type Endpoint struct {
	Identifier string
	Template   string

	// Methods lists the allowed methods. Empty allows any method. HEAD is
	// allowed wherever GET is.
	Methods []string

	Path  validate.PathFunc
	Query validate.QueryFunc
	Body  validate.BodyFunc

	Interceptors []Interceptor
	Resolver     Resolver

	Meta EndpointMeta
}

// EndpointMeta holds zero-value samples of an endpoint's input and output
// types. Only tooling reads it.
type EndpointMeta struct {
	Params any
	Query  any
	Body   any
	Output any
}

// EndpointInfo is the read-only view of a registered endpoint.
type EndpointInfo struct {
	Identifier string
	Template   string
	Methods    []string
	Segments   []matcher.Segment
	Meta       EndpointMeta
}

type endpoint struct {
	Endpoint
	segments []matcher.Segment
	allow    string
}

func newEndpoint(e Endpoint, segments []matcher.Segment) *endpoint {
	methods := make([]string, 0, len(e.Methods)+1)
	for _, m := range e.Methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m != "" && !slices.Contains(methods, m) {
			methods = append(methods, m)
		}
	}
	if slices.Contains(methods, http.MethodGet) && !slices.Contains(methods, http.MethodHead) {
		methods = append(methods, http.MethodHead)
	}
	e.Methods = methods
	e.Interceptors = slices.Clone(e.Interceptors)
	return &endpoint{
		Endpoint: e,
		segments: segments,
		allow:    strings.Join(methods, ", "),
	}
}

func (e *endpoint) allowsMethod(method string) bool {
	return len(e.Methods) == 0 || slices.Contains(e.Methods, method)
}

func (e *endpoint) info() EndpointInfo {
	return EndpointInfo{
		Identifier: e.Identifier,
		Template:   e.Template,
		Methods:    slices.Clone(e.Methods),
		Segments:   slices.Clone(e.segments),
		Meta:       e.Meta,
	}
}
