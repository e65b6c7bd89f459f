package ast

import "strings"

// Dump renders the subtree rooted at n as an indented outline, one node per
// line, e.g. "SCRIPT\n  VAR\n    NAME a\n".
func Dump(n *Node) string {
	var sb strings.Builder
	type item struct {
		n     *Node
		depth int
	}
	stack := []item{{n, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		sb.WriteString(strings.Repeat("  ", it.depth))
		sb.WriteString(it.n.Kind.String())
		if it.n.Str != "" {
			sb.WriteByte(' ')
			sb.WriteString(it.n.Str)
		}
		if it.n.Synthetic {
			sb.WriteString(" [synthetic]")
		}
		sb.WriteByte('\n')

		for c := it.n.LastChild; c != nil; c = c.Prev {
			stack = append(stack, item{c, it.depth + 1})
		}
	}
	return sb.String()
}
