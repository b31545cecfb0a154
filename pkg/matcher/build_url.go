package matcher

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/sjc5/dispatch/pkg/lru"
)

// Query holds query values for Build. Supported values are strings, numbers,
// bools, fmt.Stringers, pointers to any of those, and slices of any of those.
// Nil values and nil pointers are skipped.
type Query = map[string]any

// Build renders segments into a URL path plus encoded query string. A missing
// or empty required parameter is an error. An absent optional parameter drops
// its segment along with the leading slash.
func Build(segments []Segment, params Params, query Query) (string, error) {
	var sb strings.Builder

	for _, seg := range segments {
		switch seg.Type {
		case SegmentStatic:
			sb.WriteByte('/')
			sb.WriteString(url.PathEscape(seg.Value))
		case SegmentRequired:
			v := params[seg.Value]
			if v == "" {
				return "", fmt.Errorf("%w: %q", ErrMissingParam, seg.Value)
			}
			sb.WriteByte('/')
			sb.WriteString(url.PathEscape(v))
		case SegmentOptional:
			if v := params[seg.Value]; v != "" {
				sb.WriteByte('/')
				sb.WriteString(url.PathEscape(v))
			}
		}
	}

	path := sb.String()
	if path == "" {
		path = "/"
	}

	qs, err := EncodeQuery(query)
	if err != nil {
		return "", err
	}
	if qs != "" {
		path += "?" + qs
	}
	return path, nil
}

// EncodeQuery percent-encodes query. Keys come out sorted. Slice values are
// appended once per item in order.
func EncodeQuery(query Query) (string, error) {
	if len(query) == 0 {
		return "", nil
	}
	values := make(url.Values, len(query))
	for key, raw := range query {
		if err := addQueryValue(values, key, raw); err != nil {
			return "", err
		}
	}
	return values.Encode(), nil
}

func addQueryValue(values url.Values, key string, raw any) error {
	if raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case string:
		values.Set(key, v)
		return nil
	case []string:
		for _, item := range v {
			values.Add(key, item)
		}
		return nil
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			s, ok, err := formatScalar(rv.Index(i))
			if err != nil {
				return fmt.Errorf("query key %q: %w", key, err)
			}
			if ok {
				values.Add(key, s)
			}
		}
		return nil
	}

	s, ok, err := formatScalar(rv)
	if err != nil {
		return fmt.Errorf("query key %q: %w", key, err)
	}
	if ok {
		values.Set(key, s)
	}
	return nil
}

var stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

func formatScalar(rv reflect.Value) (string, bool, error) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", false, nil
		}
		if rv.Type().Implements(stringerType) {
			break
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return "", false, nil
	}
	if rv.Type().Implements(stringerType) {
		return rv.Interface().(fmt.Stringer).String(), true, nil
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true, nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true, nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true, nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true, nil
	default:
		return "", false, fmt.Errorf("unsupported query value type %s", rv.Type())
	}
}

// Builder builds URLs straight from template strings, caching the parsed
// segments per template. It knows no trie, so it cannot tell when a param
// value collides with a static sibling. Dispatcher.URL checks that.
type Builder struct {
	m     *Matcher
	cache *lru.Cache[string, []Segment]
}

func NewBuilder(opts *Options, cacheSize int) *Builder {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	return &Builder{m: New(opts), cache: lru.NewCache[string, []Segment](cacheSize)}
}

func (b *Builder) Build(template string, params Params, query Query) (string, error) {
	segments, ok := b.cache.Get(template)
	if !ok {
		var err error
		segments, err = b.m.ParseTemplate(template)
		if err != nil {
			return "", err
		}
		b.cache.Set(template, segments)
	}
	return Build(segments, params, query)
}
