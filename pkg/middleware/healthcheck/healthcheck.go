package healthcheck

import (
	"context"
	"net/http"
	"strings"

	"github.com/sjc5/dispatch/pkg/response"
)

type Middleware func(http.Handler) http.Handler

// OK returns a middleware that responds with an HTTP 200 OK status code and the
// string "OK" in the response body for GET and HEAD requests to the given endpoint.
func OK(endpoint string) Middleware {
	return Ready(endpoint)
}

// Healthz is a middleware that responds with an HTTP 200 OK status code and the
// string "OK" in the response body for GET and HEAD requests to the "/healthz" endpoint.
var Healthz = OK("/healthz")

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Ready is OK gated on checks. The first failing check turns the answer into
// a 503 error envelope carrying its message.
func Ready(endpoint string, checks ...Check) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			isAppropriateMethod := r.Method == http.MethodGet || r.Method == http.MethodHead
			if !isAppropriateMethod || !strings.EqualFold(r.URL.Path, endpoint) {
				next.ServeHTTP(w, r)
				return
			}
			res := response.NewWriter(w)
			for _, check := range checks {
				if err := check(r.Context()); err != nil {
					res.Error(http.StatusServiceUnavailable, err.Error())
					return
				}
			}
			res.Text(http.StatusOK, "OK")
		})
	}
}
