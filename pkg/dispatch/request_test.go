package dispatch

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFromHTTP(t *testing.T) {
	r := httptest.NewRequest("PUT", "/users/a%2Fb?tab=posts&tab=likes", strings.NewReader("{}"))
	r.Header.Set("X-Test", "1")
	req := FromHTTP(r)

	if req.Method() != "PUT" || req.Path() != "/users/a%2Fb" {
		t.Errorf("Method, Path = %q, %q", req.Method(), req.Path())
	}
	if got := req.Query()["tab"]; len(got) != 2 || got[1] != "likes" {
		t.Errorf("Query = %v", req.Query())
	}
	if req.Header().Get("X-Test") != "1" {
		t.Errorf("Header = %v", req.Header())
	}
	body, _ := io.ReadAll(req.Body())
	if string(body) != "{}" {
		t.Errorf("Body = %q", body)
	}
	if raw, ok := HTTPRequestOf(req); !ok || raw != r {
		t.Errorf("HTTPRequestOf should return the wrapped request")
	}

	empty := FromHTTP(httptest.NewRequest("GET", "/", nil))
	if empty.Body() != nil {
		t.Errorf("a request without a body should report a nil Body")
	}
}

func TestNewJSONRequest(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	req, err := NewJSONRequest(ctx, "", "/users?limit=5", map[string]int{"n": 1})
	if err != nil {
		t.Fatal(err)
	}
	if req.Method() != "GET" || req.Path() != "/users" || req.Query().Get("limit") != "5" {
		t.Errorf("got %s %s %v", req.Method(), req.Path(), req.Query())
	}
	if req.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", req.Header().Get("Content-Type"))
	}
	if req.Context().Value(key{}) != "v" {
		t.Errorf("context was not carried through")
	}
	body, _ := io.ReadAll(req.Body())
	if string(body) != `{"n":1}` {
		t.Errorf("body = %s", body)
	}

	if _, err := NewJSONRequest(ctx, "GET", "/", make(chan int)); err == nil {
		t.Errorf("expected an encoding error")
	}
	if _, err := NewRequest(ctx, "BAD METHOD", "/", nil, nil); err == nil {
		t.Errorf("expected an invalid method error")
	}
}
