// Package session reads a signed session cookie into the request scope and
// redirects to the login page when a required session is missing.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/sjc5/dispatch/pkg/dispatch"
	"github.com/sjc5/dispatch/pkg/response"
	"github.com/sjc5/dispatch/pkg/signedcookie"
)

const DefaultLocalsKey = "session"

type Opts[T any] struct {
	Cookie *signedcookie.SignedCookie[T]
	// LocalsKey names the scope local holding the *T. Defaults to
	// DefaultLocalsKey.
	LocalsKey string
	// LoginURL is where requests without a valid session are sent when
	// Required is set.
	LoginURL string
	Required bool
}

// Manager wraps a typed signed cookie with the interceptor that reads it and
// helpers that issue and clear it.
type Manager[T any] struct {
	opts Opts[T]
}

func NewManager[T any](opts Opts[T]) *Manager[T] {
	if opts.LocalsKey == "" {
		opts.LocalsKey = DefaultLocalsKey
	}
	return &Manager[T]{opts: opts}
}

// NewCookie builds a signed cookie for the given manager and cookie name.
func NewCookie[T any](m *signedcookie.Manager, name string, ttl time.Duration) *signedcookie.SignedCookie[T] {
	return &signedcookie.SignedCookie[T]{
		Manager: m,
		TTL:     ttl,
		BaseCookie: &http.Cookie{
			Name:     name,
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// Interceptor stores the session in the scope locals when present. A missing
// or invalid session ends the request with a Go response to LoginURL if the
// session is required, and is ignored otherwise.
func (m *Manager[T]) Interceptor() dispatch.Interceptor {
	return func(s *dispatch.Scope) (*response.Response, error) {
		r, ok := dispatch.HTTPRequestOf(s.Request())
		if !ok {
			r = &http.Request{Header: s.Request().Header()}
		}

		value, err := m.opts.Cookie.VerifyAndReadCookieValue(r)
		if err == nil {
			s.SetLocal(m.opts.LocalsKey, value)
			return nil, nil
		}
		if m.opts.Required {
			return response.Go(m.opts.LoginURL), nil
		}
		return nil, nil
	}
}

// Required returns a copy of m whose interceptor redirects to loginURL.
func (m *Manager[T]) Required(loginURL string) *Manager[T] {
	opts := m.opts
	opts.Required = true
	opts.LoginURL = loginURL
	return &Manager[T]{opts: opts}
}

// Get returns the session stored by the interceptor, or nil.
func (m *Manager[T]) Get(s *dispatch.Scope) *T {
	return dispatch.LocalAs[*T](s, m.opts.LocalsKey)
}

// FromContext is Get for code that only holds the request context.
func (m *Manager[T]) FromContext(ctx context.Context) *T {
	s := dispatch.ScopeFrom(ctx)
	if s == nil {
		return nil
	}
	return m.Get(s)
}

// Issue signs value and stages the cookie on the scope proxy, so it reaches
// the client whatever response the request ends with.
func (m *Manager[T]) Issue(s *dispatch.Scope, value *T) error {
	cookie, err := m.opts.Cookie.NewSignedCookie(value, nil)
	if err != nil {
		return err
	}
	s.Proxy().SetCookie(cookie)
	return nil
}

func (m *Manager[T]) Clear(s *dispatch.Scope) {
	s.Proxy().SetCookie(m.opts.Cookie.NewDeletionCookie())
}
