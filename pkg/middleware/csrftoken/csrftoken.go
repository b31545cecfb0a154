// Package csrftoken provides an interceptor that rejects cross-site state
// changing requests. Safe methods pass through. Everything else must come
// from a permitted origin and carry a token matching the session's.
package csrftoken

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/sjc5/dispatch/pkg/colorlog"
	"github.com/sjc5/dispatch/pkg/cryptoutil"
	"github.com/sjc5/dispatch/pkg/dispatch"
	"github.com/sjc5/dispatch/pkg/response"
)

type SessionOK = bool
type Token = string

type GetExpectedCSRFToken func(s *dispatch.Scope) (Token, SessionOK, error)
type GetSubmittedCSRFToken func(s *dispatch.Scope) (Token, error)

const DefaultHeader = "X-CSRF-Token"

type Opts struct {
	GetExpectedCSRFToken GetExpectedCSRFToken
	// GetSubmittedCSRFToken defaults to reading DefaultHeader.
	GetSubmittedCSRFToken GetSubmittedCSRFToken
	GetIsExempt           func(s *dispatch.Scope) bool
	// PermittedHosts restricts the Origin (or Referer) host. Empty permits
	// any host, but one must still be present.
	PermittedHosts []string
	Logger         *slog.Logger
}

func New(opts Opts) dispatch.Interceptor {
	log := opts.Logger
	if log == nil {
		log = colorlog.New("csrftoken")
	}
	getSubmitted := opts.GetSubmittedCSRFToken
	if getSubmitted == nil {
		getSubmitted = func(s *dispatch.Scope) (Token, error) {
			return s.Request().Header().Get(DefaultHeader), nil
		}
	}
	permitted := make([]string, 0, len(opts.PermittedHosts))
	for _, h := range opts.PermittedHosts {
		permitted = append(permitted, strings.ToLower(h))
	}

	internalError := func(msg string, err error) *response.Response {
		log.Error(msg, "error", err)
		return response.Error(&response.ErrorShape{
			Message: response.DefaultErrorMessage,
			Status:  http.StatusInternalServerError,
			Cause:   err,
		})
	}

	return func(s *dispatch.Scope) (*response.Response, error) {
		switch s.Request().Method() {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return nil, nil
		}

		host, err := getLowercaseHost(s.Request().Header())
		if err != nil || host == "" {
			return response.Errorf(http.StatusBadRequest, "Origin missing or invalid"), nil
		}
		if len(permitted) > 0 && !slices.Contains(permitted, host) {
			return response.Errorf(http.StatusForbidden, "Origin not permitted"), nil
		}

		if opts.GetIsExempt != nil && opts.GetIsExempt(s) {
			return nil, nil
		}

		expectedToken, sessionOK, err := opts.GetExpectedCSRFToken(s)
		if !sessionOK {
			return response.Errorf(http.StatusUnauthorized, "Unauthorized"), nil
		}
		if err != nil || expectedToken == "" {
			if err == nil {
				err = errors.New("expected token is empty")
			}
			return internalError("error getting expected CSRF token", err), nil
		}

		submittedToken, err := getSubmitted(s)
		if err != nil {
			return internalError("error getting submitted CSRF token", err), nil
		}
		if submittedToken == "" {
			return response.Errorf(http.StatusBadRequest, "CSRF token missing"), nil
		}
		if subtle.ConstantTimeCompare([]byte(submittedToken), []byte(expectedToken)) != 1 {
			return response.Errorf(http.StatusForbidden, "CSRF token mismatch"), nil
		}

		return nil, nil
	}
}

// GenerateToken returns a random URL-safe token.
func GenerateToken() (Token, error) {
	b, err := cryptoutil.RandomBytes(32)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

var errInvalidOrigin = errors.New("invalid origin")

// getLowercaseHost reads the host from Origin, falling back to Referer. An
// empty result with a nil error means neither header was sent.
func getLowercaseHost(h http.Header) (string, error) {
	raw := h.Get("Origin")
	if raw == "" {
		raw = h.Get("Referer")
	}
	if raw == "" {
		return "", nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errInvalidOrigin
	}
	return strings.ToLower(u.Host), nil
}
