// Package tasks memoizes work within one request. A Task runs at most once
// per (task, input) pair per TasksCtx, so interceptors and resolvers can ask
// for the same derived value without recomputing it. Tasks may depend on
// other tasks by calling them from inside their own function.
package tasks

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

type Registry struct {
	mu    sync.Mutex
	count int
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) nextID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	return r.count
}

/////////////////////////////////////////////////////////////////////
/////// CTX
/////////////////////////////////////////////////////////////////////

type TasksCtx struct {
	mu       sync.Mutex
	registry *Registry
	request  *http.Request
	context  context.Context
	cancel   context.CancelFunc
	results  map[resultKey]*result
}

type resultKey struct {
	taskID int
	input  any
}

type result struct {
	once sync.Once
	data any
	err  error
}

func (r *Registry) NewCtxFromNativeContext(parent context.Context) *TasksCtx {
	ctx, cancel := context.WithCancel(parent)
	return &TasksCtx{
		registry: r,
		context:  ctx,
		cancel:   cancel,
		results:  make(map[resultKey]*result),
	}
}

func (r *Registry) NewCtxFromRequest(req *http.Request) *TasksCtx {
	c := r.NewCtxFromNativeContext(req.Context())
	c.request = req
	return c
}

func (c *TasksCtx) Context() context.Context {
	return c.context
}

// Request is nil unless the ctx was created from an *http.Request.
func (c *TasksCtx) Request() *http.Request {
	return c.request
}

// CancelNativeContext cancels the ctx. Pending and future task runs fail
// with the context's error.
func (c *TasksCtx) CancelNativeContext() {
	c.cancel()
}

func (c *TasksCtx) getResult(key resultKey) *result {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[key]
	if !ok {
		r = &result{}
		c.results[key] = r
	}
	return r
}

type outcome struct {
	data any
	err  error
}

func (c *TasksCtx) execute(fn func() (any, error)) (any, error) {
	if err := c.context.Err(); err != nil {
		return nil, err
	}

	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- outcome{err: fmt.Errorf("task panicked: %v", rec)}
			}
		}()
		data, err := fn()
		ch <- outcome{data: data, err: err}
	}()

	select {
	case <-c.context.Done():
		return nil, c.context.Err()
	case o := <-ch:
		return o.data, o.err
	}
}

// ParallelPreload runs every prepared task concurrently and reports whether
// all of them succeeded. Results stay cached for later Get calls.
func (c *TasksCtx) ParallelPreload(prepared ...AnyPreparedTask) bool {
	if len(prepared) == 0 {
		return true
	}
	if len(prepared) == 1 {
		return prepared[0].load() == nil
	}

	errs := make([]error, len(prepared))
	var wg sync.WaitGroup
	wg.Add(len(prepared))
	for i, p := range prepared {
		go func() {
			defer wg.Done()
			errs[i] = p.load()
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return false
		}
	}
	return true
}

/////////////////////////////////////////////////////////////////////
/////// TASKS
/////////////////////////////////////////////////////////////////////

type TasksCtxWithInput[I comparable] struct {
	*TasksCtx
	Input I
}

type Task[I comparable, O any] struct {
	id int
	fn func(*TasksCtxWithInput[I]) (O, error)
}

func New[I comparable, O any](registry *Registry, fn func(*TasksCtxWithInput[I]) (O, error)) *Task[I, O] {
	return &Task[I, O]{id: registry.nextID(), fn: fn}
}

func (t *Task[I, O]) Prep(c *TasksCtx, input I) *PreparedTask[I, O] {
	return &PreparedTask[I, O]{task: t, c: c, input: input}
}

// Get is shorthand for Prep(c, input).Get().
func (t *Task[I, O]) Get(c *TasksCtx, input I) (O, error) {
	return t.Prep(c, input).Get()
}

type AnyPreparedTask interface {
	load() error
}

type PreparedTask[I comparable, O any] struct {
	task  *Task[I, O]
	c     *TasksCtx
	input I
}

func (p *PreparedTask[I, O]) load() error {
	_, err := p.Get()
	return err
}

func (p *PreparedTask[I, O]) Get() (O, error) {
	r := p.c.getResult(resultKey{taskID: p.task.id, input: p.input})
	r.once.Do(func() {
		r.data, r.err = p.c.execute(func() (any, error) {
			return p.task.fn(&TasksCtxWithInput[I]{TasksCtx: p.c, Input: p.input})
		})
	})

	var zero O
	if r.err != nil {
		return zero, r.err
	}
	o, ok := r.data.(O)
	if !ok {
		return zero, nil
	}
	return o, nil
}
