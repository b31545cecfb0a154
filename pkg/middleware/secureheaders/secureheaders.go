package secureheaders

import "net/http"

// Defaults are the headers used by helmetjs.
// See https://github.com/helmetjs/helmet?tab=readme-ov-file#reference
var Defaults = map[string]string{
	"Content-Security-Policy":           "default-src 'self';base-uri 'self';font-src 'self' https: data:;form-action 'self';frame-ancestors 'self';img-src 'self' data:;object-src 'none';script-src 'self';script-src-attr 'none';style-src 'self' https: 'unsafe-inline';upgrade-insecure-requests",
	"Cross-Origin-Opener-Policy":        "same-origin",
	"Cross-Origin-Resource-Policy":      "same-origin",
	"Origin-Agent-Cluster":              "?1",
	"Referrer-Policy":                   "no-referrer",
	"Strict-Transport-Security":         "max-age=15552000; includeSubDomains",
	"X-Content-Type-Options":            "nosniff",
	"X-DNS-Prefetch-Control":            "off",
	"X-Download-Options":                "noopen",
	"X-Frame-Options":                   "SAMEORIGIN",
	"X-Permitted-Cross-Domain-Policies": "none",
	"X-XSS-Protection":                  "0",
}

// Middleware sets Defaults on every response.
var Middleware = New(nil)

// New merges overrides into Defaults. An empty override value drops that
// header entirely.
func New(overrides map[string]string) func(http.Handler) http.Handler {
	headers := make(map[string]string, len(Defaults))
	for k, v := range Defaults {
		headers[k] = v
	}
	for k, v := range overrides {
		k = http.CanonicalHeaderKey(k)
		if v == "" {
			delete(headers, k)
			continue
		}
		headers[k] = v
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for header, value := range headers {
				w.Header().Set(header, value)
			}
			w.Header().Del("X-Powered-By")
			next.ServeHTTP(w, r)
		})
	}
}
