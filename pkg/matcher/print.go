package matcher

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Print writes a readable dump of the trie to w. Static children are sorted
// and printed before the parameter child.
func (m *Matcher) Print(w io.Writer) {
	fmt.Fprintln(w, "/")
	if m.root.terminal {
		fmt.Fprintf(w, "  => %s\n", m.root.identifier)
	}
	m.printChildren(w, m.root, 1)
}

func (m *Matcher) printChildren(w io.Writer, n *segmentNode, depth int) {
	indent := strings.Repeat("  ", depth)

	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		child := n.children[k]
		fmt.Fprintf(w, "%s/%s\n", indent, k)
		printTerminal(w, child, depth)
		m.printChildren(w, child, depth+1)
	}

	if n.paramChild != nil {
		fmt.Fprintf(w, "%s/%c%s\n", indent, m.paramPrefixRune, n.paramChild.paramName)
		printTerminal(w, n.paramChild, depth)
		m.printChildren(w, n.paramChild, depth+1)
	}
}

func printTerminal(w io.Writer, n *segmentNode, depth int) {
	if n.terminal {
		fmt.Fprintf(w, "%s  => %s\n", strings.Repeat("  ", depth), n.identifier)
	}
}
