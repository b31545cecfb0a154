package mux

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sjc5/dispatch/pkg/dispatch"
	"github.com/sjc5/dispatch/pkg/response"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newTestMux(t *testing.T, opts *Options) *Mux {
	t.Helper()
	d := dispatch.MustNew([]dispatch.Endpoint{
		{Identifier: "users.show", Template: "/users/:id", Resolver: dispatch.Resolve(func(s *dispatch.Scope) (string, error) {
			return s.RawParams()["id"], nil
		})},
		{Identifier: "slow", Template: "/slow", Resolver: func(s *dispatch.Scope) (*response.Response, error) {
			select {
			case <-time.After(time.Second):
				return response.Data("late"), nil
			case <-s.Context().Done():
				return nil, s.Context().Err()
			}
		}},
	}, &dispatch.Options{Logger: quietLogger()})

	if opts == nil {
		opts = new(Options)
	}
	opts.Logger = quietLogger()
	return New(d, opts)
}

func serve(m *Mux, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestMountRoot(t *testing.T) {
	m := newTestMux(t, &Options{MountRoot: "api/"})

	tests := []struct {
		target string
		status int
		data   any
	}{
		{"/api/users/42", 200, "42"},
		{"/api/users/a%2Fb", 200, "a/b"},
		{"/users/42", 404, nil},
		{"/apix/users/42", 404, nil},
		{"/api", 404, nil},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := serve(m, "GET", tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			env := decode(t, rec)
			if tt.data != nil && env.Data != tt.data {
				t.Errorf("data = %v, want %v", env.Data, tt.data)
			}
			if tt.status == 404 && (env.Error == nil || env.Error.Message != "Not Found") {
				t.Errorf("error = %+v", env.Error)
			}
		})
	}

	u, err := m.URL("users.show", map[string]string{"id": "7"}, nil)
	if err != nil || u != "/api/users/7" {
		t.Errorf("URL = %q, %v", u, err)
	}
}

func TestTimeout(t *testing.T) {
	m := newTestMux(t, &Options{Timeout: 20 * time.Millisecond})

	rec := serve(m, "GET", "/slow")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if env := decode(t, rec); env.Error == nil || env.Error.Message != TimeoutMessage {
		t.Errorf("error = %+v", env.Error)
	}

	if rec := serve(m, "GET", "/users/1"); rec.Code != 200 {
		t.Errorf("fast requests should not time out, got %d", rec.Code)
	}
}

func TestClientCancelWritesNothing(t *testing.T) {
	m := newTestMux(t, &Options{Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/slow", nil).WithContext(ctx))
	if rec.Body.Len() != 0 && rec.Code == http.StatusServiceUnavailable {
		t.Errorf("a canceled client should not get a timeout response")
	}
}

func TestMiddlewareOrder(t *testing.T) {
	m := newTestMux(t, nil)
	var order []string
	for _, name := range []string{"outer", "inner"} {
		m.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}

	serve(m, "GET", "/users/1")
	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("order = %v", order)
	}
}

func TestRecoverTransportPanic(t *testing.T) {
	m := newTestMux(t, nil)
	m.Use(func(http.Handler) http.Handler {
		return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("middleware exploded")
		})
	})

	rec := serve(m, "GET", "/users/1")
	if rec.Code != 500 {
		t.Fatalf("status = %d", rec.Code)
	}
	if env := decode(t, rec); env.Error == nil || env.Error.Message != response.DefaultErrorMessage {
		t.Errorf("error = %+v", env.Error)
	}
}
