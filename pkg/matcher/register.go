package matcher

import "fmt"

type segmentNode struct {
	identifier string
	terminal   bool
	children   map[string]*segmentNode
	paramChild *segmentNode
	paramName  string // set on parameter children only
}

type ConflictKind uint8

const (
	// ConflictParamName means two templates bind different parameter names
	// at the same trie position. The matcher cannot tell them apart.
	ConflictParamName ConflictKind = iota + 1
	// ConflictTerminal means two identifiers end at the same trie node.
	ConflictTerminal
)

type ConflictError struct {
	Kind       ConflictKind
	Identifier string
	Position   int
	Existing   string
	Incoming   string
}

func (e *ConflictError) Error() string {
	switch e.Kind {
	case ConflictParamName:
		return fmt.Sprintf(
			"routing conflict registering %q: segment %d binds parameter %q, but %q already uses that position",
			e.Identifier, e.Position, e.Incoming, e.Existing,
		)
	default:
		return fmt.Sprintf(
			"routing conflict registering %q: path already resolves to %q",
			e.Identifier, e.Existing,
		)
	}
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Insert adds segments to the trie under identifier. Either the whole
// template is inserted or, on error, the trie is left untouched.
func (m *Matcher) Insert(identifier string, segments []Segment) error {
	if m.frozen {
		return ErrFrozen
	}
	if err := m.check(identifier, segments); err != nil {
		return err
	}

	current := m.root
	for i, seg := range segments {
		if seg.Type == SegmentOptional {
			// absent case
			current.setTerminal(identifier)
		}
		current = m.findOrCreateChild(current, seg, identifier, i)
	}
	if !current.terminal || current.identifier != identifier {
		m.count++
	}
	current.setTerminal(identifier)

	return nil
}

// check walks the existing part of the trie that segments would reuse and
// reports the first conflict without mutating anything.
func (m *Matcher) check(identifier string, segments []Segment) error {
	current := m.root
	for i, seg := range segments {
		if seg.Type == SegmentOptional {
			if i != len(segments)-1 {
				return ErrOptionalNotLast
			}
			if err := current.checkTerminal(identifier, i); err != nil {
				return err
			}
		}

		var next *segmentNode
		if seg.Type == SegmentStatic {
			next = current.children[seg.Value]
		} else {
			next = current.paramChild
			if next != nil && next.paramName != seg.Value && !m.permissive {
				return &ConflictError{
					Kind:       ConflictParamName,
					Identifier: identifier,
					Position:   i,
					Existing:   next.paramName,
					Incoming:   seg.Value,
				}
			}
		}
		if next == nil {
			return nil
		}
		current = next
	}
	return current.checkTerminal(identifier, len(segments))
}

func (m *Matcher) findOrCreateChild(n *segmentNode, seg Segment, identifier string, position int) *segmentNode {
	if seg.Type == SegmentStatic {
		if n.children == nil {
			n.children = make(map[string]*segmentNode)
		}
		if child, ok := n.children[seg.Value]; ok {
			return child
		}
		child := new(segmentNode)
		n.children[seg.Value] = child
		return child
	}

	if n.paramChild == nil {
		n.paramChild = &segmentNode{paramName: seg.Value}
		return n.paramChild
	}
	if n.paramChild.paramName != seg.Value {
		m.log.Warn("parameter edge renamed by later template",
			"identifier", identifier,
			"position", position,
			"was", n.paramChild.paramName,
			"now", seg.Value,
		)
		n.paramChild.paramName = seg.Value
	}
	return n.paramChild
}

func (n *segmentNode) checkTerminal(identifier string, position int) error {
	if n.terminal && n.identifier != identifier {
		return &ConflictError{
			Kind:       ConflictTerminal,
			Identifier: identifier,
			Position:   position,
			Existing:   n.identifier,
			Incoming:   identifier,
		}
	}
	return nil
}

func (n *segmentNode) setTerminal(identifier string) {
	n.terminal = true
	n.identifier = identifier
}
