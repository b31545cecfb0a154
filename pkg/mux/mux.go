// Package mux is the HTTP boundary in front of a Dispatcher. It strips the
// mount root, runs ordinary net/http middlewares, bounds each dispatch with
// a timeout and turns transport-level panics into an error envelope.
package mux

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sjc5/dispatch/pkg/colorlog"
	"github.com/sjc5/dispatch/pkg/dispatch"
	"github.com/sjc5/dispatch/pkg/errutil"
	"github.com/sjc5/dispatch/pkg/response"
)

type HTTPMiddleware = func(http.Handler) http.Handler

const TimeoutMessage = "Request timed out"

type Options struct {
	// MountRoot is stripped from every request path before matching, so
	// "/api/" with a request for "/api/users" dispatches "/users".
	MountRoot string
	// Timeout bounds one full dispatch. Zero means no timeout.
	Timeout time.Duration
	Logger  *slog.Logger
}

type Mux struct {
	d         *dispatch.Dispatcher
	mountRoot string
	timeout   time.Duration
	log       *slog.Logger
	mws       []HTTPMiddleware
}

func New(d *dispatch.Dispatcher, opts *Options) *Mux {
	if opts == nil {
		opts = new(Options)
	}
	m := &Mux{
		d:         d,
		mountRoot: normalizeMountRoot(opts.MountRoot),
		timeout:   opts.Timeout,
		log:       opts.Logger,
	}
	if m.log == nil {
		m.log = colorlog.New("mux")
	}
	return m
}

// Use adds a middleware. Middlewares run in the order they were added, the
// first one outermost.
func (m *Mux) Use(mw HTTPMiddleware) {
	m.mws = append(m.mws, mw)
}

func (m *Mux) MountRoot() string {
	return m.mountRoot
}

// URL builds a full path for an endpoint, including the mount root.
func (m *Mux) URL(identifier string, params map[string]string, query map[string]any) (string, error) {
	u, err := m.d.URL(identifier, params, query)
	if err != nil {
		return "", err
	}
	if m.mountRoot == "" {
		return u, nil
	}
	return m.mountRoot + u, nil
}

func (m *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rw := response.NewWriter(w)
	defer func() {
		if rec := recover(); rec != nil {
			m.log.Error("panic in transport", "panic", rec, "path", r.URL.Path)
			if !rw.IsCommitted() {
				rw.InternalServerError()
			}
		}
	}()

	var handler http.Handler = http.HandlerFunc(m.serve)
	for i := len(m.mws) - 1; i >= 0; i-- {
		handler = m.mws[i](handler)
	}
	handler.ServeHTTP(rw, r)
}

func (m *Mux) serve(w http.ResponseWriter, r *http.Request) {
	r, ok := m.stripMountRoot(r)
	if !ok {
		m.write(w, response.Errorf(http.StatusNotFound, "%s", errutil.ErrNotFound.Message))
		return
	}

	if m.timeout <= 0 {
		m.write(w, m.d.Dispatch(dispatch.FromHTTP(r)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), m.timeout)
	defer cancel()
	r = r.WithContext(ctx)

	done := make(chan *response.Response, 1)
	go func() {
		done <- m.d.Dispatch(dispatch.FromHTTP(r))
	}()

	select {
	case res := <-done:
		m.write(w, res)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			m.log.Warn("dispatch timed out", "path", r.URL.Path, "timeout", m.timeout)
			m.write(w, response.Errorf(http.StatusServiceUnavailable, "%s", TimeoutMessage))
		}
	}
}

func (m *Mux) write(w http.ResponseWriter, res *response.Response) {
	if err := res.Write(w, m.d.GoHeader()); err != nil {
		m.log.Error("error writing response", "error", err)
	}
}

/////////////////////////////////////////////////////////////////////
/////// MOUNT ROOT
/////////////////////////////////////////////////////////////////////

func normalizeMountRoot(root string) string {
	root = strings.Trim(root, "/")
	if root == "" {
		return ""
	}
	return "/" + root
}

func (m *Mux) stripMountRoot(r *http.Request) (*http.Request, bool) {
	if m.mountRoot == "" {
		return r, true
	}
	p, ok := trimRoot(r.URL.Path, m.mountRoot)
	if !ok {
		return r, false
	}
	rp := ""
	if r.URL.RawPath != "" {
		if rp, ok = trimRoot(r.URL.RawPath, m.mountRoot); !ok {
			return r, false
		}
	}

	r2 := new(http.Request)
	*r2 = *r
	r2.URL = new(url.URL)
	*r2.URL = *r.URL
	r2.URL.Path = p
	r2.URL.RawPath = rp
	return r2, true
}

func trimRoot(path, root string) (string, bool) {
	if path == root {
		return "/", true
	}
	if !strings.HasPrefix(path, root+"/") {
		return "", false
	}
	return strings.TrimPrefix(path, root), true
}
