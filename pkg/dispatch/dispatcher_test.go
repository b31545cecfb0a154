package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sjc5/dispatch/pkg/errutil"
	"github.com/sjc5/dispatch/pkg/matcher"
	"github.com/sjc5/dispatch/pkg/response"
	"github.com/sjc5/dispatch/pkg/tasks"
	"github.com/sjc5/dispatch/pkg/validate"
)

type userParams struct {
	ID int `json:"id" validate:"required,min=1"`
}

type createUserBody struct {
	Email string `json:"email" validate:"required,email"`
}

var v = validate.New()

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func mustDispatcher(t *testing.T, endpoints []Endpoint, opts *Options) *Dispatcher {
	t.Helper()
	if opts == nil {
		opts = new(Options)
	}
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	d, err := New(endpoints, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func dispatch(t *testing.T, d *Dispatcher, method, target string, body any) *response.Response {
	t.Helper()
	req, err := NewJSONRequest(context.Background(), method, target, body)
	if err != nil {
		t.Fatalf("NewJSONRequest: %v", err)
	}
	return d.Dispatch(req)
}

func resolveData(v any) Resolver {
	return func(*Scope) (*response.Response, error) {
		return response.Data(v), nil
	}
}

type spy struct {
	calls atomic.Int32
	res   *response.Response
	err   error
}

func (s *spy) interceptor() Interceptor {
	return func(*Scope) (*response.Response, error) {
		s.calls.Add(1)
		return s.res, s.err
	}
}

func TestDispatchMatchesStaticBeforeParam(t *testing.T) {
	d := mustDispatcher(t, []Endpoint{
		{Identifier: "users.show", Template: "/users/:id", Resolver: Resolve(func(s *Scope) (string, error) {
			return "show " + s.RawParams()["id"], nil
		})},
		{Identifier: "users.active", Template: "/users/active", Resolver: resolveData("active")},
	}, nil)

	tests := []struct {
		path string
		want string
	}{
		{"/users/active", "active"},
		{"/users/42", "show 42"},
		{"/users/a%20b", "show a b"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res := dispatch(t, d, "GET", tt.path, nil)
			if res.Value() != tt.want {
				t.Errorf("Value = %v, want %q", res.Value(), tt.want)
			}
		})
	}
}

func TestDispatchNotFound(t *testing.T) {
	d := mustDispatcher(t, []Endpoint{
		{Identifier: "users.show", Template: "/users/:id", Resolver: resolveData(nil)},
	}, nil)

	for _, path := range []string{"/nope", "/users", "/users/1/extra", "", "//"} {
		res := dispatch(t, d, "GET", "/"+strings.TrimPrefix(path, "/"), nil)
		if res.Status() != 404 || res.Err().Message != "Not Found" {
			t.Errorf("%q: got %v", path, res)
		}
	}
}

func TestDispatchMethodNotAllowed(t *testing.T) {
	d := mustDispatcher(t, []Endpoint{
		{Identifier: "users.list", Template: "/users", Methods: []string{"get"}, Resolver: resolveData("list")},
		{Identifier: "any", Template: "/any", Resolver: resolveData("any")},
	}, nil)

	res := dispatch(t, d, "POST", "/users", nil)
	if res.Status() != 405 {
		t.Fatalf("Status = %d, want 405", res.Status())
	}
	if got := res.Header().Get("Allow"); got != "GET, HEAD" {
		t.Errorf("Allow = %q", got)
	}

	if res := dispatch(t, d, "HEAD", "/users", nil); res.Value() != "list" {
		t.Errorf("HEAD should be allowed where GET is, got %v", res)
	}
	if res := dispatch(t, d, "DELETE", "/any", nil); res.Value() != "any" {
		t.Errorf("empty Methods should allow any method, got %v", res)
	}
}

func TestInterceptorShortCircuit(t *testing.T) {
	first := &spy{}
	second := &spy{res: response.Errorf(http.StatusUnauthorized, "no")}
	third := &spy{}
	var resolverCalls atomic.Int32

	d := mustDispatcher(t, []Endpoint{{
		Identifier:   "guarded",
		Template:     "/guarded",
		Interceptors: []Interceptor{second.interceptor(), third.interceptor()},
		Resolver: func(*Scope) (*response.Response, error) {
			resolverCalls.Add(1)
			return response.Data("secret"), nil
		},
	}}, &Options{Interceptors: []Interceptor{first.interceptor()}})

	res := dispatch(t, d, "GET", "/guarded", nil)

	if res.Status() != 401 || res.Err().Message != "no" {
		t.Errorf("got %v, want the short-circuit response", res)
	}
	if first.calls.Load() != 1 || second.calls.Load() != 1 {
		t.Errorf("interceptors before the short-circuit ran %d, %d times", first.calls.Load(), second.calls.Load())
	}
	if third.calls.Load() != 0 || resolverCalls.Load() != 0 {
		t.Errorf("later stages ran: interceptor %d, resolver %d", third.calls.Load(), resolverCalls.Load())
	}
}

func TestInterceptorErrorWinsOverResponse(t *testing.T) {
	d := mustDispatcher(t, []Endpoint{{
		Identifier: "x",
		Template:   "/x",
		Interceptors: []Interceptor{func(*Scope) (*response.Response, error) {
			return response.Data("ignored"), errutil.New(http.StatusConflict, "conflict")
		}},
		Resolver: resolveData(nil),
	}}, nil)

	res := dispatch(t, d, "GET", "/x", nil)
	if res.Status() != 409 || res.Err().Message != "conflict" {
		t.Errorf("got %v", res)
	}
}

func TestValidationRunsBeforeInterceptors(t *testing.T) {
	interceptor := &spy{}
	d := mustDispatcher(t, []Endpoint{{
		Identifier:   "users.show",
		Template:     "/users/:id",
		Path:         validate.Path[userParams](v),
		Interceptors: []Interceptor{interceptor.interceptor()},
		Resolver: Resolve(func(s *Scope) (int, error) {
			return ParamsAs[userParams](s).ID, nil
		}),
	}}, nil)

	res := dispatch(t, d, "GET", "/users/abc", nil)
	if res.Status() != 400 || res.Err().Message != errutil.ValidationMessage {
		t.Fatalf("got %v, want a validation failure", res)
	}
	if _, ok := res.Err().FieldMessages["id"]; !ok {
		t.Errorf("FieldMessages = %v, want an entry for id", res.Err().FieldMessages)
	}
	if interceptor.calls.Load() != 0 {
		t.Errorf("interceptor ran %d times after failed validation", interceptor.calls.Load())
	}

	res = dispatch(t, d, "GET", "/users/0", nil)
	if res.Status() != 400 {
		t.Errorf("min rule: got %v", res)
	}

	res = dispatch(t, d, "GET", "/users/7", nil)
	if res.Value() != 7 || interceptor.calls.Load() != 1 {
		t.Errorf("got %v with %d interceptor calls", res, interceptor.calls.Load())
	}
}

func TestValidationOrderAndBody(t *testing.T) {
	var order []string
	d := mustDispatcher(t, []Endpoint{{
		Identifier: "users.create",
		Template:   "/orgs/:org/users",
		Methods:    []string{"POST"},
		Path: func(ctx context.Context, p map[string]string) (any, error) {
			order = append(order, "path")
			return p["org"], nil
		},
		Query: func(ctx context.Context, q url.Values) (any, error) {
			order = append(order, "query")
			return len(q), nil
		},
		Body: func(ctx context.Context, body io.Reader) (any, error) {
			order = append(order, "body")
			var dst createUserBody
			if err := v.JSONBodyInto(body, &dst); err != nil {
				return nil, err
			}
			return dst, nil
		},
		Resolver: Resolve(func(s *Scope) (string, error) {
			return ParamsAs[string](s) + ":" + BodyAs[createUserBody](s).Email, nil
		}),
	}}, nil)

	res := dispatch(t, d, "POST", "/orgs/acme/users?a=1", map[string]string{"email": "a@b.co"})
	if res.Value() != "acme:a@b.co" {
		t.Errorf("Value = %v", res.Value())
	}
	if strings.Join(order, ",") != "path,query,body" {
		t.Errorf("order = %v", order)
	}

	res = dispatch(t, d, "POST", "/orgs/acme/users", map[string]string{"email": "nope"})
	if res.Status() != 400 || len(res.Err().FieldMessages["email"]) == 0 {
		t.Errorf("got %v, fields %v", res, res.Err())
	}
}

func TestRawValuesWithoutValidators(t *testing.T) {
	d := mustDispatcher(t, []Endpoint{{
		Identifier: "raw",
		Template:   "/raw/:id?",
		Resolver: func(s *Scope) (*response.Response, error) {
			params, _ := s.Params().(matcher.Params)
			query := RawQuery(s)
			return response.Data([]any{params["id"], query.Get("q"), s.Body() == nil}), nil
		},
	}}, nil)

	got, _ := response.As[[]any](dispatch(t, d, "GET", "/raw/9?q=x", nil))
	if len(got) != 3 || got[0] != "9" || got[1] != "x" || got[2] != true {
		t.Errorf("got %v", got)
	}

	got, _ = response.As[[]any](dispatch(t, d, "GET", "/raw", nil))
	if got[0] != "" {
		t.Errorf("optional param should be absent, got %v", got[0])
	}
}

func TestValidatorContractViolation(t *testing.T) {
	var buf bytes.Buffer
	d := mustDispatcher(t, []Endpoint{{
		Identifier: "bad",
		Template:   "/bad",
		Query: func(context.Context, url.Values) (any, error) {
			return nil, errors.New("database is down")
		},
		Resolver: resolveData(nil),
	}}, &Options{Logger: slog.New(slog.NewTextHandler(&buf, nil))})

	res := dispatch(t, d, "GET", "/bad", nil)
	if res.Status() != 500 || res.Err().Message != response.DefaultErrorMessage {
		t.Errorf("got %v", res)
	}
	if !strings.Contains(buf.String(), "contract violation") {
		t.Errorf("expected contract violation to be logged, got %q", buf.String())
	}
}

func TestRedirectShape(t *testing.T) {
	d := mustDispatcher(t, []Endpoint{
		{
			Identifier: "account",
			Template:   "/account",
			Interceptors: []Interceptor{func(s *Scope) (*response.Response, error) {
				s.Proxy().SetHeader("X-Seen", "1")
				return response.Go("/login"), nil
			}},
			Resolver: resolveData("account"),
		},
		{
			Identifier: "signal",
			Template:   "/signal",
			Resolver: func(*Scope) (*response.Response, error) {
				return nil, response.Redirect("/login")
			},
		},
	}, nil)

	for _, path := range []string{"/account", "/signal"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			d.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))

			if rec.Code != 200 {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if got := rec.Header().Get(response.DefaultGoHeader); got != "/login" {
				t.Errorf("go header = %q, want /login", got)
			}
			var env map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatal(err)
			}
			if _, ok := env["error"]; ok {
				t.Errorf("redirect body must not carry an error: %s", rec.Body.String())
			}
		})
	}

	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, httptest.NewRequest("GET", "/account", nil))
	if rec.Header().Get("X-Seen") != "1" {
		t.Errorf("proxy headers must survive a short-circuit")
	}
}

func TestErrorMessageStability(t *testing.T) {
	endpoints := []Endpoint{
		{Identifier: "panic.string", Template: "/panic/string", Resolver: func(*Scope) (*response.Response, error) {
			panic("boom")
		}},
		{Identifier: "panic.error", Template: "/panic/error", Resolver: func(*Scope) (*response.Response, error) {
			panic(errors.New("boom"))
		}},
		{Identifier: "error", Template: "/error", Resolver: func(*Scope) (*response.Response, error) {
			return nil, errors.New("boom")
		}},
		{Identifier: "interceptor.panic", Template: "/interceptor", Interceptors: []Interceptor{
			func(*Scope) (*response.Response, error) { panic("boom") },
		}, Resolver: resolveData(nil)},
		{Identifier: "validator.panic", Template: "/validator", Body: func(context.Context, io.Reader) (any, error) {
			panic("boom")
		}, Resolver: resolveData(nil)},
	}

	for _, logErrors := range []bool{false, true} {
		d := mustDispatcher(t, endpoints, &Options{LogErrors: logErrors})
		for _, e := range endpoints {
			t.Run(e.Identifier, func(t *testing.T) {
				rec := httptest.NewRecorder()
				d.ServeHTTP(rec, httptest.NewRequest("GET", e.Template, nil))

				if rec.Code != 500 {
					t.Errorf("status = %d", rec.Code)
				}
				var env struct {
					Error struct {
						Message string `json:"message"`
					} `json:"error"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
					t.Fatal(err)
				}
				if env.Error.Message != "boom" {
					t.Errorf("message = %q, want boom", env.Error.Message)
				}
				if strings.Contains(rec.Body.String(), "goroutine") {
					t.Errorf("stack leaked onto the wire: %s", rec.Body.String())
				}
			})
		}
	}
}

func TestResolverContractViolations(t *testing.T) {
	d := mustDispatcher(t, []Endpoint{
		{Identifier: "nil", Template: "/nil", Resolver: func(*Scope) (*response.Response, error) {
			return nil, nil
		}},
		{Identifier: "zero", Template: "/zero", Resolver: func(*Scope) (*response.Response, error) {
			return &response.Response{}, nil
		}},
		{Identifier: "interceptor", Template: "/interceptor", Interceptors: []Interceptor{
			func(*Scope) (*response.Response, error) { return response.Go(""), nil },
		}, Resolver: resolveData(nil)},
	}, nil)

	for _, path := range []string{"/nil", "/zero", "/interceptor"} {
		res := dispatch(t, d, "GET", path, nil)
		if res.Status() != 500 || res.Err().Message != response.DefaultErrorMessage {
			t.Errorf("%s: got %v", path, res)
		}
	}
}

func TestLocalsAndScopeFrom(t *testing.T) {
	d := mustDispatcher(t, []Endpoint{{
		Identifier: "me",
		Template:   "/me",
		Interceptors: []Interceptor{func(s *Scope) (*response.Response, error) {
			s.SetLocal("user", "ada")
			return nil, nil
		}},
		Resolver: Resolve(func(s *Scope) (string, error) {
			fromCtx := ScopeFrom(s.Context())
			if fromCtx != s {
				return "", errors.New("ScopeFrom returned a different scope")
			}
			return LocalAs[string](s, "user") + "@" + fromCtx.Identifier(), nil
		}),
	}}, nil)

	if res := dispatch(t, d, "GET", "/me", nil); res.Value() != "ada@me" {
		t.Errorf("got %v (%v)", res.Value(), res.Err())
	}
	if ScopeFrom(context.Background()) != nil {
		t.Errorf("ScopeFrom on a bare context should be nil")
	}
}

func TestTasksSharedWithinOneDispatch(t *testing.T) {
	reg := tasks.NewRegistry()
	var runs atomic.Int32
	currentUser := tasks.New(reg, func(c *tasks.TasksCtxWithInput[string]) (string, error) {
		runs.Add(1)
		return "user-" + c.Input, nil
	})

	load := func(s *Scope) (*response.Response, error) {
		if _, err := currentUser.Get(s.Tasks(), "1"); err != nil {
			return nil, err
		}
		return nil, nil
	}
	d := mustDispatcher(t, []Endpoint{{
		Identifier:   "x",
		Template:     "/x",
		Interceptors: []Interceptor{load, load},
		Resolver: Resolve(func(s *Scope) (string, error) {
			return currentUser.Get(s.Tasks(), "1")
		}),
	}}, &Options{Tasks: reg})

	dispatch(t, d, "GET", "/x", nil)
	if runs.Load() != 1 {
		t.Errorf("task ran %d times in one dispatch, want 1", runs.Load())
	}
	dispatch(t, d, "GET", "/x", nil)
	if runs.Load() != 2 {
		t.Errorf("task results must not leak across dispatches, runs = %d", runs.Load())
	}
}

type recordingObserver struct {
	started  int
	finished []Info
}

type ctxKey struct{}

func (o *recordingObserver) DispatchStarted(ctx context.Context, _ Request) context.Context {
	o.started++
	return context.WithValue(ctx, ctxKey{}, "observed")
}

func (o *recordingObserver) DispatchFinished(ctx context.Context, info Info) {
	if ctx.Value(ctxKey{}) != "observed" {
		panic("observer context was not propagated")
	}
	o.finished = append(o.finished, info)
}

func TestObserverInfo(t *testing.T) {
	obs := &recordingObserver{}
	d := mustDispatcher(t, []Endpoint{
		{Identifier: "ok", Template: "/ok", Resolver: resolveData(1)},
		{Identifier: "blocked", Template: "/blocked", Interceptors: []Interceptor{
			func(*Scope) (*response.Response, error) { return response.Go("/login"), nil },
		}, Resolver: resolveData(1)},
		{Identifier: "fails", Template: "/fails", Resolver: func(*Scope) (*response.Response, error) {
			return nil, errors.New("nope")
		}},
	}, &Options{Observers: []Observer{obs}})

	dispatch(t, d, "GET", "/ok", nil)
	dispatch(t, d, "GET", "/blocked", nil)
	dispatch(t, d, "GET", "/fails", nil)
	dispatch(t, d, "GET", "/missing", nil)

	want := []struct {
		id      string
		stage   Stage
		errored bool
		kind    response.Kind
	}{
		{"ok", StageResolved, false, response.KindData},
		{"blocked", StageValidated, false, response.KindGo},
		{"fails", StageIntercepted, true, response.KindError},
		{"", StageUnmatched, true, response.KindError},
	}
	if obs.started != 4 || len(obs.finished) != 4 {
		t.Fatalf("started %d, finished %d", obs.started, len(obs.finished))
	}
	for i, w := range want {
		got := obs.finished[i]
		if got.Identifier != w.id || got.Stage != w.stage || got.Errored != w.errored || got.Response.Kind() != w.kind {
			t.Errorf("info[%d] = %+v (stage %s), want %+v", i, got, got.Stage, w)
		}
		if got.Method != "GET" {
			t.Errorf("info[%d].Method = %q", i, got.Method)
		}
	}
}

func TestNewReportsAllRegistrationErrors(t *testing.T) {
	_, err := New([]Endpoint{
		{Identifier: "a", Template: "/a", Resolver: resolveData(nil)},
		{Identifier: "a", Template: "/b", Resolver: resolveData(nil)},
		{Identifier: "c", Template: "/c"},
		{Identifier: "", Template: "/d", Resolver: resolveData(nil)},
		{Identifier: "e", Template: "/e/:id?/more", Resolver: resolveData(nil)},
		{Identifier: "f", Template: "/a", Resolver: resolveData(nil)},
		{Identifier: "g", Template: "/g", Interceptors: []Interceptor{nil}, Resolver: resolveData(nil)},
	}, &Options{Logger: quietLogger()})

	for _, target := range []error{
		ErrDuplicateEndpoint,
		ErrMissingResolver,
		ErrEmptyIdentifier,
		matcher.ErrOptionalNotLast,
		matcher.ErrConflict,
		ErrNilInterceptor,
	} {
		if !errors.Is(err, target) {
			t.Errorf("expected %v in %v", target, err)
		}
	}

	defer func() {
		if recover() == nil {
			t.Errorf("MustNew should panic on registration errors")
		}
	}()
	MustNew([]Endpoint{{Identifier: "x", Template: "/x"}}, &Options{Logger: quietLogger()})
}

func TestURLIsInverseOfDispatch(t *testing.T) {
	endpoints := []Endpoint{
		{Identifier: "home", Template: "/", Resolver: resolveData(nil)},
		{Identifier: "users.show", Template: "/users/:id", Resolver: resolveData(nil)},
		{Identifier: "posts.show", Template: "/posts/:id?", Resolver: resolveData(nil)},
		{Identifier: "files", Template: "/files/:dir/:name", Resolver: resolveData(nil)},
		{Identifier: "users.active", Template: "/users/active", Resolver: resolveData(nil)},
		{Identifier: "posts.new", Template: "/posts/new", Resolver: resolveData(nil)},
		{Identifier: "files.readme", Template: "/files/shared/README", Resolver: resolveData(nil)},
	}
	d := mustDispatcher(t, endpoints, nil)

	tests := []struct {
		id     string
		params matcher.Params
	}{
		{"home", matcher.Params{}},
		{"users.show", matcher.Params{"id": "42"}},
		{"users.show", matcher.Params{"id": "a b/c"}},
		{"posts.show", matcher.Params{}},
		{"posts.show", matcher.Params{"id": "7"}},
		{"files", matcher.Params{"dir": "docs", "name": "read me.md"}},
	}
	for _, tt := range tests {
		u, err := d.URL(tt.id, tt.params, nil)
		if err != nil {
			t.Fatalf("URL(%s): %v", tt.id, err)
		}
		m, ok := d.Matcher().Match(u)
		if !ok || m.Identifier != tt.id {
			t.Errorf("%s: %q matched %v", tt.id, u, m)
			continue
		}
		for k, want := range tt.params {
			if m.Params[k] != want {
				t.Errorf("%s: param %s = %q, want %q", tt.id, k, m.Params[k], want)
			}
		}
	}

	if _, err := d.URL("nope", nil, nil); !errors.Is(err, ErrUnknownEndpoint) {
		t.Errorf("err = %v", err)
	}
	if _, err := d.URL("users.show", nil, nil); !errors.Is(err, matcher.ErrMissingParam) {
		t.Errorf("err = %v", err)
	}

	shadowed := []struct {
		id     string
		params matcher.Params
	}{
		{"users.show", matcher.Params{"id": "active"}},
		{"posts.show", matcher.Params{"id": "new"}},
		{"files", matcher.Params{"dir": "shared", "name": "README"}},
		{"files", matcher.Params{"dir": "shared", "name": "other"}},
	}
	for _, tt := range shadowed {
		u, err := d.URL(tt.id, tt.params, matcher.Query{"q": "1"})
		if !errors.Is(err, ErrAmbiguousURL) || u != "" {
			t.Errorf("URL(%s, %v) = %q, %v; want ErrAmbiguousURL", tt.id, tt.params, u, err)
		}
	}
	if u, err := d.URL("users.show", matcher.Params{"id": "Active"}, nil); err != nil || u != "/users/Active" {
		t.Errorf("a near miss of a static segment should build: %q, %v", u, err)
	}
}

func TestEndpointsAndLookup(t *testing.T) {
	d := mustDispatcher(t, []Endpoint{
		{Identifier: "b", Template: "/b", Methods: []string{"GET"}, Resolver: resolveData(nil)},
		{Identifier: "a", Template: "/a/:id", Resolver: resolveData(nil)},
	}, nil)

	infos := d.Endpoints()
	if len(infos) != 2 || infos[0].Identifier != "a" || infos[1].Identifier != "b" {
		t.Fatalf("Endpoints = %+v", infos)
	}
	if len(infos[0].Segments) != 2 || infos[0].Segments[1].Type != matcher.SegmentRequired {
		t.Errorf("segments = %+v", infos[0].Segments)
	}

	info, ok := d.Lookup("b")
	if !ok || strings.Join(info.Methods, ",") != "GET,HEAD" {
		t.Errorf("Lookup = %+v, %v", info, ok)
	}
	if _, ok := d.Lookup("zzz"); ok {
		t.Errorf("Lookup of an unknown identifier should fail")
	}
	if !d.Matcher().Frozen() {
		t.Errorf("matcher should be frozen after New")
	}
}

func TestCustomGoHeader(t *testing.T) {
	d := mustDispatcher(t, []Endpoint{
		{Identifier: "r", Template: "/r", Resolver: func(*Scope) (*response.Response, error) {
			return response.Go("/elsewhere"), nil
		}},
	}, &Options{GoHeader: "X-App-Go"})

	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, httptest.NewRequest("GET", "/r", nil))
	if rec.Header().Get("X-App-Go") != "/elsewhere" || rec.Header().Get(response.DefaultGoHeader) != "" {
		t.Errorf("headers = %v", rec.Header())
	}
}
