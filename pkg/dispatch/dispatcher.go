// Package dispatch turns a Request into exactly one Response. A request moves
// through a fixed sequence of stages: it is matched against the endpoint
// trie, its path, query and body are validated, its interceptors run in
// order, and finally its resolver runs. Any stage may end the request early.
// Everything a stage fails with, including panics, passes through the error
// normalizer, so Dispatch never panics and never returns nil.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sjc5/dispatch/pkg/colorlog"
	"github.com/sjc5/dispatch/pkg/errutil"
	"github.com/sjc5/dispatch/pkg/matcher"
	"github.com/sjc5/dispatch/pkg/response"
	"github.com/sjc5/dispatch/pkg/tasks"
	"github.com/sjc5/dispatch/pkg/validate"
)

var (
	ErrUnknownEndpoint   = errors.New("unknown endpoint identifier")
	ErrEmptyIdentifier   = errors.New("endpoint identifier is empty")
	ErrDuplicateEndpoint = errors.New("endpoint identifier registered more than once")
	ErrMissingResolver   = errors.New("endpoint has no resolver")
	ErrNilInterceptor    = errors.New("interceptor is nil")
	// ErrAmbiguousURL means the built path would match a different endpoint
	// or bind different params, usually because a param value equals the
	// text of a static sibling ("/users/active" next to "/users/:id").
	ErrAmbiguousURL = errors.New("built URL does not match back to its endpoint")
)

const (
	errInvalidResponse    = "returned an invalid response"
	errNilResolverResult  = "returned neither a response nor an error"
	errBadValidatorResult = "returned an error that is not a validation error"
)

type Options struct {
	Matcher *matcher.Options

	// Interceptors run for every endpoint, before the endpoint's own.
	Interceptors []Interceptor

	// LogErrors logs every normalized error. It never changes the envelope.
	LogErrors bool
	Logger    *slog.Logger

	// GoHeader names the header that carries redirect targets. Defaults to
	// response.DefaultGoHeader.
	GoHeader string

	Observers []Observer
	Tasks     *tasks.Registry
}

type Dispatcher struct {
	matcher      *matcher.Matcher
	endpoints    map[string]*endpoint
	interceptors []Interceptor
	normalizer   *errutil.Normalizer
	observers    []Observer
	tasks        *tasks.Registry
	goHeader     string
	log          *slog.Logger
}

/////////////////////////////////////////////////////////////////////
/////// CONSTRUCTION
/////////////////////////////////////////////////////////////////////

// New registers every endpoint and freezes the trie. All registration
// problems are reported together.
func New(endpoints []Endpoint, opts *Options) (*Dispatcher, error) {
	if opts == nil {
		opts = new(Options)
	}

	log := opts.Logger
	if log == nil {
		log = colorlog.New("dispatch")
	}

	matcherOpts := new(matcher.Options)
	if opts.Matcher != nil {
		*matcherOpts = *opts.Matcher
	}
	if matcherOpts.Logger == nil {
		matcherOpts.Logger = log
	}

	d := &Dispatcher{
		matcher:   matcher.New(matcherOpts),
		endpoints: make(map[string]*endpoint, len(endpoints)),
		normalizer: errutil.NewNormalizer(errutil.NormalizerOptions{
			LogErrors: opts.LogErrors,
			Logger:    log,
		}),
		observers: opts.Observers,
		tasks:     opts.Tasks,
		goHeader:  opts.GoHeader,
		log:       log,
	}
	if d.tasks == nil {
		d.tasks = tasks.NewRegistry()
	}
	if d.goHeader == "" {
		d.goHeader = response.DefaultGoHeader
	}

	var errs []error
	for i, ic := range opts.Interceptors {
		if ic == nil {
			errs = append(errs, fmt.Errorf("global interceptor %d: %w", i, ErrNilInterceptor))
		}
	}
	d.interceptors = append(d.interceptors, opts.Interceptors...)

	for _, e := range endpoints {
		if err := d.register(e); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	d.matcher.Freeze()
	return d, nil
}

func MustNew(endpoints []Endpoint, opts *Options) *Dispatcher {
	d, err := New(endpoints, opts)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Dispatcher) register(e Endpoint) error {
	if e.Identifier == "" {
		return fmt.Errorf("template %q: %w", e.Template, ErrEmptyIdentifier)
	}
	if _, ok := d.endpoints[e.Identifier]; ok {
		return fmt.Errorf("endpoint %q: %w", e.Identifier, ErrDuplicateEndpoint)
	}
	if e.Resolver == nil {
		return fmt.Errorf("endpoint %q: %w", e.Identifier, ErrMissingResolver)
	}
	for i, ic := range e.Interceptors {
		if ic == nil {
			return fmt.Errorf("endpoint %q interceptor %d: %w", e.Identifier, i, ErrNilInterceptor)
		}
	}

	segments, err := d.matcher.RegisterPattern(e.Identifier, e.Template)
	if err != nil {
		return errutil.Maybe(fmt.Sprintf("endpoint %q", e.Identifier), err)
	}
	d.endpoints[e.Identifier] = newEndpoint(e, segments)
	return nil
}

/////////////////////////////////////////////////////////////////////
/////// INTROSPECTION
/////////////////////////////////////////////////////////////////////

// Endpoints returns every registered endpoint, sorted by identifier.
func (d *Dispatcher) Endpoints() []EndpointInfo {
	infos := make([]EndpointInfo, 0, len(d.endpoints))
	for _, e := range d.endpoints {
		infos = append(infos, e.info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Identifier < infos[j].Identifier
	})
	return infos
}

func (d *Dispatcher) Lookup(identifier string) (EndpointInfo, bool) {
	e, ok := d.endpoints[identifier]
	if !ok {
		return EndpointInfo{}, false
	}
	return e.info(), true
}

func (d *Dispatcher) Matcher() *matcher.Matcher { return d.matcher }
func (d *Dispatcher) GoHeader() string          { return d.goHeader }
func (d *Dispatcher) Logger() *slog.Logger      { return d.log }

// URL builds the path for an endpoint. Matching the result yields the same
// identifier and params. A path that would resolve elsewhere is rejected with
// ErrAmbiguousURL rather than returned.
func (d *Dispatcher) URL(identifier string, params matcher.Params, query matcher.Query) (string, error) {
	e, ok := d.endpoints[identifier]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEndpoint, identifier)
	}
	u, err := matcher.Build(e.segments, params, query)
	if err != nil {
		return "", err
	}
	if err := d.checkRoundTrip(e, params, u); err != nil {
		return "", err
	}
	return u, nil
}

func (d *Dispatcher) checkRoundTrip(e *endpoint, params matcher.Params, u string) error {
	path, _, _ := strings.Cut(u, "?")
	m, ok := d.matcher.Match(path)
	if !ok || m.Identifier != e.Identifier {
		got := "nothing"
		if ok {
			got = strconv.Quote(m.Identifier)
		}
		return fmt.Errorf("%w: %q for %q resolves to %s", ErrAmbiguousURL, path, e.Identifier, got)
	}
	for _, seg := range e.segments {
		if seg.Type == matcher.SegmentStatic {
			continue
		}
		if m.Params[seg.Value] != params[seg.Value] {
			return fmt.Errorf("%w: %q for %q binds %s=%q", ErrAmbiguousURL, path, e.Identifier, seg.Value, m.Params[seg.Value])
		}
	}
	return nil
}

/////////////////////////////////////////////////////////////////////
/////// DISPATCH
/////////////////////////////////////////////////////////////////////

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := d.Dispatch(FromHTTP(r))
	if err := res.Write(w, d.goHeader); err != nil {
		d.log.Error("error writing response", "error", err)
	}
}

// Dispatch runs one request to completion.
func (d *Dispatcher) Dispatch(req Request) *response.Response {
	start := time.Now()

	ctx := req.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	for _, o := range d.observers {
		ctx = d.observeStart(o, ctx, req)
	}

	s := &Scope{req: req, proxy: response.NewProxy()}
	s.ctx = scopeStore.WithValue(ctx, s)
	s.tasks = d.tasks.NewCtxFromNativeContext(s.ctx)
	defer s.tasks.CancelNativeContext()

	res, stage, errored := d.run(s)
	s.proxy.ApplyTo(res)

	info := Info{
		Identifier: s.Identifier(),
		Method:     req.Method(),
		Stage:      stage,
		Errored:    errored,
		Response:   res,
		Duration:   time.Since(start),
	}
	for i := len(d.observers) - 1; i >= 0; i-- {
		d.observeFinish(d.observers[i], s.ctx, info)
	}
	return res
}

// run returns the response together with the last stage reached and whether
// the request errored.
func (d *Dispatcher) run(s *Scope) (*response.Response, Stage, bool) {
	stage := StageUnmatched
	fail := func(err error) (*response.Response, Stage, bool) {
		return d.normalizer.Normalize(s.ctx, err), stage, true
	}

	m, ok := d.matcher.Match(s.req.Path())
	if !ok {
		return fail(errutil.ErrNotFound)
	}
	e := d.endpoints[m.Identifier]
	s.endpoint = e
	s.rawParams = m.Params
	stage = StageMatched

	if !e.allowsMethod(s.req.Method()) {
		res, stage, errored := fail(errutil.ErrMethodNotAllowed)
		res.SetHeader("Allow", e.allow)
		return res, stage, errored
	}

	if err := d.validate(s, e); err != nil {
		return fail(err)
	}
	stage = StageValidated

	for _, chain := range [][]Interceptor{d.interceptors, e.Interceptors} {
		for _, ic := range chain {
			res, err := guard(s, ic)
			if err != nil {
				return fail(err)
			}
			if res == nil {
				continue
			}
			if !res.Valid() {
				return fail(&errutil.ContractViolation{Stage: "interceptor", Detail: errInvalidResponse})
			}
			return res, stage, false
		}
	}
	stage = StageIntercepted

	res, err := guard(s, e.Resolver)
	if err != nil {
		return fail(err)
	}
	if res == nil {
		return fail(&errutil.ContractViolation{Stage: "resolver", Detail: errNilResolverResult})
	}
	if !res.Valid() {
		return fail(&errutil.ContractViolation{Stage: "resolver", Detail: errInvalidResponse})
	}
	stage = StageResolved
	return res, stage, false
}

// validate runs the path, query and body validators in that order and stops
// at the first failure. A group without a validator keeps its raw value.
func (d *Dispatcher) validate(s *Scope, e *endpoint) error {
	s.params = s.rawParams
	if e.Path != nil {
		v, err := guardValidator(func() (any, error) { return e.Path(s.ctx, s.rawParams) })
		if err != nil {
			return validatorError("path validator", err)
		}
		s.params = v
	}

	s.query = s.req.Query()
	if e.Query != nil {
		v, err := guardValidator(func() (any, error) { return e.Query(s.ctx, s.req.Query()) })
		if err != nil {
			return validatorError("query validator", err)
		}
		s.query = v
	}

	if e.Body != nil {
		v, err := guardValidator(func() (any, error) { return e.Body(s.ctx, s.req.Body()) })
		if err != nil {
			return validatorError("body validator", err)
		}
		s.body = v
	}
	return nil
}

func validatorError(stage string, err error) error {
	if validate.IsValidationError(err) {
		return err
	}
	if _, ok := response.AsGoSignal(err); ok {
		return err
	}
	var pe *errutil.PanicError
	if errors.As(err, &pe) {
		return err
	}
	return &errutil.ContractViolation{Stage: stage, Detail: errBadValidatorResult, Cause: err}
}

/////////////////////////////////////////////////////////////////////
/////// RECOVER GUARDS
/////////////////////////////////////////////////////////////////////

func guard(s *Scope, fn func(*Scope) (*response.Response, error)) (res *response.Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res, err = nil, &errutil.PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return fn(s)
}

func guardValidator(fn func() (any, error)) (v any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			v, err = nil, &errutil.PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return fn()
}

func (d *Dispatcher) observeStart(o Observer, ctx context.Context, req Request) (out context.Context) {
	out = ctx
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Error("observer panicked", "panic", rec)
			out = ctx
		}
	}()
	if next := o.DispatchStarted(ctx, req); next != nil {
		out = next
	}
	return out
}

func (d *Dispatcher) observeFinish(o Observer, ctx context.Context, info Info) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Error("observer panicked", "panic", rec)
		}
	}()
	o.DispatchFinished(ctx, info)
}
