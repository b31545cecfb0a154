package matcher

import (
	"fmt"
	"strings"
)

type SegmentType uint8

const (
	SegmentStatic SegmentType = iota
	SegmentRequired
	SegmentOptional
)

func (t SegmentType) String() string {
	switch t {
	case SegmentStatic:
		return "static"
	case SegmentRequired:
		return "required"
	case SegmentOptional:
		return "optional"
	default:
		return "unknown"
	}
}

// Segment is one unit of a template. Value holds the literal text for
// static segments and the parameter name otherwise.
type Segment struct {
	Type  SegmentType
	Value string
}

func (s Segment) IsParam() bool {
	return s.Type != SegmentStatic
}

// ParseSegments splits a path on '/' and drops the empty segments produced by
// leading, trailing, or repeated separators. Templates and request paths both
// go through here.
func ParseSegments(path string) []string {
	if path == "" || path == "/" {
		return []string{}
	}

	n := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			n++
		}
	}
	segs := make([]string, 0, n+1)

	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			if i > start {
				segs = append(segs, path[start:i])
			}
			start = i + 1
		}
	}
	if start < len(path) {
		segs = append(segs, path[start:])
	}

	return segs
}

// ParseTemplate parses a template with the default markers.
func ParseTemplate(template string) ([]Segment, error) {
	return New(nil).ParseTemplate(template)
}

// ParseTemplate turns a template into typed segments. It is pure, so callers
// may memoize the result per template string.
func (m *Matcher) ParseTemplate(template string) ([]Segment, error) {
	raw := ParseSegments(template)
	segments := make([]Segment, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	prefix := string(m.paramPrefixRune)
	suffix := string(m.optionalSuffixRune)

	for i, s := range raw {
		if !strings.HasPrefix(s, prefix) {
			if strings.Contains(s, suffix) {
				return nil, fmt.Errorf("%w: %q in %q", ErrInvalidStatic, s, template)
			}
			segments = append(segments, Segment{Type: SegmentStatic, Value: s})
			continue
		}

		name := strings.TrimPrefix(s, prefix)
		segType := SegmentRequired
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			segType = SegmentOptional
			if i != len(raw)-1 {
				return nil, fmt.Errorf("%w: %q in %q", ErrOptionalNotLast, s, template)
			}
		}
		if name == "" {
			return nil, fmt.Errorf("%w: segment %d of %q", ErrEmptyParamName, i, template)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateParam, name, template)
		}
		seen[name] = struct{}{}

		segments = append(segments, Segment{Type: segType, Value: name})
	}

	return segments, nil
}

// Template renders segments back into template form using m's markers.
func (m *Matcher) Template(segments []Segment) string {
	if len(segments) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, seg := range segments {
		sb.WriteByte('/')
		switch seg.Type {
		case SegmentStatic:
			sb.WriteString(seg.Value)
		case SegmentRequired:
			sb.WriteRune(m.paramPrefixRune)
			sb.WriteString(seg.Value)
		case SegmentOptional:
			sb.WriteRune(m.paramPrefixRune)
			sb.WriteString(seg.Value)
			sb.WriteRune(m.optionalSuffixRune)
		}
	}
	return sb.String()
}
