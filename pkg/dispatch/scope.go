package dispatch

import (
	"context"
	"net/url"
	"sync"

	"github.com/sjc5/dispatch/pkg/contextutil"
	"github.com/sjc5/dispatch/pkg/matcher"
	"github.com/sjc5/dispatch/pkg/response"
	"github.com/sjc5/dispatch/pkg/tasks"
)

// Scope is the per-request context handed to validators, interceptors and
// resolvers. Each dispatch owns exactly one Scope and never shares it.
type Scope struct {
	ctx      context.Context
	req      Request
	endpoint *endpoint

	rawParams matcher.Params
	params    any
	query     any
	body      any

	mu     sync.RWMutex
	locals map[string]any

	proxy *response.Proxy
	tasks *tasks.TasksCtx
}

var scopeStore = contextutil.NewStore[*Scope]("dispatch_scope")

// ScopeFrom returns the Scope of the dispatch that owns ctx, or nil. The
// Scope is only meaningful while that dispatch is running.
func ScopeFrom(ctx context.Context) *Scope {
	return scopeStore.Get(ctx)
}

func (s *Scope) Context() context.Context { return s.ctx }
func (s *Scope) Request() Request         { return s.req }

// Identifier is empty until the request has matched an endpoint.
func (s *Scope) Identifier() string {
	if s.endpoint == nil {
		return ""
	}
	return s.endpoint.Identifier
}

// RawParams are the decoded path params exactly as the matcher produced them.
func (s *Scope) RawParams() matcher.Params { return s.rawParams }

// Params, Query and Body are the validated values, or the raw input when the
// endpoint has no validator for that group.
func (s *Scope) Params() any { return s.params }
func (s *Scope) Query() any  { return s.query }
func (s *Scope) Body() any   { return s.body }

func (s *Scope) Local(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locals[key]
}

// SetLocal stores a value for later interceptors and the resolver. Keys are
// shared by every interceptor of the request.
func (s *Scope) SetLocal(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locals == nil {
		s.locals = make(map[string]any)
	}
	s.locals[key] = value
}

// Proxy collects headers and cookies that are applied to whatever response
// the request ends with.
func (s *Scope) Proxy() *response.Proxy { return s.proxy }

func (s *Scope) Tasks() *tasks.TasksCtx { return s.tasks }

/////////////////////////////////////////////////////////////////////
/////// TYPED ACCESSORS
/////////////////////////////////////////////////////////////////////

func ParamsAs[T any](s *Scope) T { return assertOrZero[T](s.params) }
func QueryAs[T any](s *Scope) T  { return assertOrZero[T](s.query) }
func BodyAs[T any](s *Scope) T   { return assertOrZero[T](s.body) }

func LocalAs[T any](s *Scope, key string) T {
	return assertOrZero[T](s.Local(key))
}

// RawQuery returns the query as parsed from the request, regardless of any
// query validator.
func RawQuery(s *Scope) url.Values {
	return s.req.Query()
}

func assertOrZero[T any](v any) T {
	t, _ := v.(T)
	return t
}
