package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Request is everything the dispatcher reads from an incoming request. It is
// satisfied by FromHTTP for the network path and by NewRequest for in-process
// calls, so both execution contexts run through the same state machine.
type Request interface {
	Method() string
	// Path is the escaped path. The matcher decodes each segment itself.
	Path() string
	Query() url.Values
	Header() http.Header
	Body() io.Reader
	Context() context.Context
}

type httpRequest struct {
	r     *http.Request
	query url.Values
}

func FromHTTP(r *http.Request) Request {
	return &httpRequest{r: r}
}

func (h *httpRequest) Method() string {
	if h.r.Method == "" {
		return http.MethodGet
	}
	return h.r.Method
}

func (h *httpRequest) Path() string {
	if h.r.URL == nil {
		return "/"
	}
	return h.r.URL.EscapedPath()
}

func (h *httpRequest) Query() url.Values {
	if h.query == nil {
		if h.r.URL == nil {
			h.query = url.Values{}
		} else {
			h.query = h.r.URL.Query()
		}
	}
	return h.query
}

func (h *httpRequest) Header() http.Header {
	return h.r.Header
}

func (h *httpRequest) Body() io.Reader {
	if h.r.Body == nil || h.r.Body == http.NoBody {
		return nil
	}
	return h.r.Body
}

func (h *httpRequest) Context() context.Context {
	return h.r.Context()
}

// HTTPRequest returns the underlying request.
func (h *httpRequest) HTTPRequest() *http.Request {
	return h.r
}

// HTTPRequestOf returns the *http.Request behind req, if there is one.
func HTTPRequestOf(req Request) (*http.Request, bool) {
	h, ok := req.(interface{ HTTPRequest() *http.Request })
	if !ok {
		return nil, false
	}
	return h.HTTPRequest(), true
}

// NewRequest builds a Request for an in-process call. target is a path with
// an optional query string, such as "/users/42?tab=posts".
func NewRequest(ctx context.Context, method, target string, body io.Reader, header http.Header) (Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if method == "" {
		method = http.MethodGet
	}
	r, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	return FromHTTP(r), nil
}

// NewJSONRequest is NewRequest with body encoded as JSON. A nil body sends
// no body at all.
func NewJSONRequest(ctx context.Context, method, target string, body any) (Request, error) {
	var reader io.Reader
	header := http.Header{}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error encoding request body: %w", err)
		}
		reader = bytes.NewReader(b)
		header.Set("Content-Type", "application/json")
	}
	return NewRequest(ctx, method, target, reader, header)
}
