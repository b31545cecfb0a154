// Package client calls endpoints either in-process or over HTTP. Both
// callers return the same *response.Response for the same request, so code
// written against Caller does not care which side of the network it runs on.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sjc5/dispatch/pkg/dispatch"
	"github.com/sjc5/dispatch/pkg/response"
)

type Caller interface {
	Call(ctx context.Context, method, target string, body any) (*response.Response, error)
}

// Local dispatches directly, without serializing the response.
type Local struct {
	Dispatcher *dispatch.Dispatcher
	Header     http.Header
}

func (l *Local) Call(ctx context.Context, method, target string, body any) (*response.Response, error) {
	req, err := dispatch.NewJSONRequest(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range l.Header {
		for _, v := range vs {
			req.Header().Add(k, v)
		}
	}
	return l.Dispatcher.Dispatch(req), nil
}

// HTTP calls a remote dispatcher. The Go header, not the body, decides
// whether a response is a redirect.
type HTTP struct {
	BaseURL  string
	Client   *http.Client
	GoHeader string
	Header   http.Header
}

func (h *HTTP) Call(ctx context.Context, method, target string, body any) (*response.Response, error) {
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error encoding request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	url := strings.TrimSuffix(h.BaseURL, "/") + target
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	for k, vs := range h.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	// Redirects are part of the envelope protocol, never followed here.
	c := *client
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	res, err := response.Decode(resp.StatusCode, resp.Header, resp.Body, h.GoHeader)
	if err != nil {
		return nil, err
	}
	for _, c := range resp.Cookies() {
		res.SetCookie(c)
	}
	return res, nil
}

// Call is a typed convenience over Caller. A Go response comes back as a
// *response.GoSignal error so callers can navigate.
func Call[T any](ctx context.Context, c Caller, method, target string, body any) (T, error) {
	var zero T
	res, err := c.Call(ctx, method, target, body)
	if err != nil {
		return zero, err
	}
	switch res.Kind() {
	case response.KindGo:
		return zero, response.Redirect(res.GoURL())
	case response.KindError:
		return zero, &Error{Shape: res.Err()}
	}
	return response.As[T](res)
}

// Error is an error envelope returned by an endpoint.
type Error struct {
	Shape *response.ErrorShape
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Shape.Status, e.Shape.Message)
}

func (e *Error) HTTPStatus() int {
	return e.Shape.Status
}
