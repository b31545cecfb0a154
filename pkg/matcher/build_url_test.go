package matcher

import (
	"errors"
	"net/url"
	"reflect"
	"testing"
	"time"
)

type color int

func (c color) String() string {
	return [...]string{"red", "green"}[c]
}

func TestBuild(t *testing.T) {
	m := New(nil)
	tests := []struct {
		name     string
		template string
		params   Params
		query    Query
		expected string
		err      error
	}{
		{"root", "/", nil, nil, "/", nil},
		{"static", "/users/active", nil, nil, "/users/active", nil},
		{"required", "/users/:id", Params{"id": "42"}, nil, "/users/42", nil},
		{"required missing", "/users/:id", Params{}, nil, "", ErrMissingParam},
		{"required empty", "/users/:id", Params{"id": ""}, nil, "", ErrMissingParam},
		{"optional present", "/posts/:id?", Params{"id": "7"}, nil, "/posts/7", nil},
		{"optional absent", "/posts/:id?", nil, nil, "/posts", nil},
		{"optional empty is absent", "/posts/:id?", Params{"id": ""}, nil, "/posts", nil},
		{"lone optional absent normalizes to root", "/:page?", nil, nil, "/", nil},
		{"escapes values", "/users/:id", Params{"id": "a b/c"}, nil, "/users/a%20b%2Fc", nil},
		{"extra params ignored", "/users/:id", Params{"id": "1", "other": "x"}, nil, "/users/1", nil},
		{"scalar query", "/search", nil, Query{"q": "go lang"}, "/search?q=go+lang", nil},
		{"list query keeps order", "/search", nil, Query{"tag": []string{"b", "a"}}, "/search?tag=b&tag=a", nil},
		{"nil query skipped", "/search", nil, Query{"q": nil, "page": 2}, "/search?page=2", nil},
		{"keys sorted", "/s", nil, Query{"b": "2", "a": "1"}, "/s?a=1&b=2", nil},
		{"mixed kinds", "/s", nil, Query{"n": 1.5, "ok": true, "u": uint8(3), "c": color(1)}, "/s?c=green&n=1.5&ok=true&u=3", nil},
		{"slice of ints", "/s", nil, Query{"id": []int{3, 1}}, "/s?id=3&id=1", nil},
		{"slice of any skips nil", "/s", nil, Query{"v": []any{"x", nil, 2}}, "/s?v=x&v=2", nil},
		{"empty query", "/s", nil, Query{}, "/s", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := m.ParseTemplate(tt.template)
			if err != nil {
				t.Fatalf("ParseTemplate(%q): %v", tt.template, err)
			}
			got, err := Build(segs, tt.params, tt.query)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("Build error = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Build unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Build = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBuildQueryPointers(t *testing.T) {
	page := 3
	var missing *int
	when := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	qs, err := EncodeQuery(Query{"page": &page, "missing": missing, "when": &when})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	values, _ := url.ParseQuery(qs)
	if values.Get("page") != "3" {
		t.Errorf("page = %q", values.Get("page"))
	}
	if values.Has("missing") {
		t.Errorf("nil pointer should be skipped")
	}
	if values.Get("when") != when.String() {
		t.Errorf("when = %q, want %q", values.Get("when"), when.String())
	}
}

func TestBuildQueryUnsupported(t *testing.T) {
	if _, err := EncodeQuery(Query{"m": map[string]int{"a": 1}}); err == nil {
		t.Errorf("expected an error for a map value")
	}
}

// Every URL the builder produces must match back to the same identifier
// with exactly the params that went in.
func TestBuildMatchInverse(t *testing.T) {
	m := New(nil)
	segsByID := make(map[string][]Segment)
	for _, tt := range testTemplates {
		segs, err := m.RegisterPattern(tt.identifier, tt.template)
		if err != nil {
			t.Fatal(err)
		}
		segsByID[tt.identifier] = segs
	}
	m.Freeze()

	values := []string{"1", "abc", "a b", "a/b", "100%", "ünï", "x?y#z", ":colon", "active-not"}

	for id, segs := range segsByID {
		for _, v := range values {
			for _, includeOptional := range []bool{true, false} {
				params := Params{}
				for _, seg := range segs {
					switch seg.Type {
					case SegmentRequired:
						params[seg.Value] = v
					case SegmentOptional:
						if includeOptional {
							params[seg.Value] = v
						}
					}
				}
				query := Query{"q": v, "list": []string{v, "2"}}

				built, err := Build(segs, params, query)
				if err != nil {
					t.Fatalf("Build(%s, %v): %v", id, params, err)
				}
				u, err := url.Parse(built)
				if err != nil {
					t.Fatalf("built URL %q does not parse: %v", built, err)
				}

				match, ok := m.Match(u.EscapedPath())
				if !ok {
					t.Fatalf("Match(%q) for %s found nothing", built, id)
				}
				if match.Identifier != id {
					t.Errorf("Match(%q) = %q, want %q", built, match.Identifier, id)
				}
				if !reflect.DeepEqual(match.Params, params) {
					t.Errorf("Match(%q).Params = %v, want %v", built, match.Params, params)
				}

				q := u.Query()
				if q.Get("q") != v || !reflect.DeepEqual(q["list"], []string{v, "2"}) {
					t.Errorf("query did not round-trip for %q: %v", built, q)
				}
			}
		}
	}
}

func TestBuilderCaches(t *testing.T) {
	b := NewBuilder(nil, 4)

	got, err := b.Build("/users/:id", Params{"id": "9"}, Query{"tab": "posts"})
	if err != nil || got != "/users/9?tab=posts" {
		t.Fatalf("Build = %q, %v", got, err)
	}
	if _, ok := b.cache.Get("/users/:id"); !ok {
		t.Errorf("expected template to be cached")
	}
	if _, err := b.Build("/a/:b?/c", nil, nil); !errors.Is(err, ErrOptionalNotLast) {
		t.Errorf("expected parse error, got %v", err)
	}
}
