package healthcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthcheck(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name       string
		mw         Middleware
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"healthz get", Healthz, "GET", "/healthz", 200, "OK"},
		{"healthz head", Healthz, "HEAD", "/healthz", 200, ""},
		{"healthz case insensitive", Healthz, "GET", "/HEALTHZ", 200, "OK"},
		{"healthz post passes through", Healthz, "POST", "/healthz", http.StatusTeapot, ""},
		{"other path passes through", Healthz, "GET", "/users", http.StatusTeapot, ""},
		{"custom endpoint", OK("/up"), "GET", "/up", 200, "OK"},
		{
			"ready all passing",
			Ready("/readyz", func(context.Context) error { return nil }),
			"GET", "/readyz", 200, "OK",
		},
		{
			"ready failing check",
			Ready("/readyz", func(context.Context) error { return nil }, func(context.Context) error { return errors.New("db down") }),
			"GET", "/readyz", http.StatusServiceUnavailable, "db down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.mw(next).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.method != "HEAD" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}
