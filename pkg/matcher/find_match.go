package matcher

import "net/url"

// Match resolves pathname to an identifier. Each segment is percent-decoded
// before comparison, so values produced by Build round-trip. Match never
// panics and runs in time proportional to the number of segments.
func (m *Matcher) Match(pathname string) (*Match, bool) {
	segments := ParseSegments(pathname)
	params := make(Params)

	current := m.root
	for _, raw := range segments {
		value := unescapeSegment(raw)

		if child, ok := current.children[value]; ok {
			current = child
			continue
		}
		if current.paramChild == nil {
			return nil, false
		}
		current = current.paramChild
		params[current.paramName] = value
	}

	if !current.terminal {
		return nil, false
	}

	return &Match{Identifier: current.identifier, Params: params}, true
}

func unescapeSegment(raw string) string {
	for i := 0; i < len(raw); i++ {
		if raw[i] == '%' {
			if v, err := url.PathUnescape(raw); err == nil {
				return v
			}
			return raw
		}
	}
	return raw
}
