package cfg

import "github.com/l3aro/go-jsflow/pkg/ast"

// Entries returns the graph entry followed by the node of every traversed
// function, in creation order. Function bodies are entered only through
// calls, which the graph does not model, so each is treated as live.
func (g *Graph) Entries() []*Node {
	entries := []*Node{g.entry}
	for _, n := range g.order {
		if n != g.entry && n.value != nil && n.value.Kind == ast.Function {
			entries = append(entries, n)
		}
	}
	return entries
}

// Reachable returns every node reachable from starts along any edge,
// including the starts themselves.
func (g *Graph) Reachable(starts ...*Node) map[*Node]bool {
	seen := make(map[*Node]bool, len(g.order))
	stack := make([]*Node, 0, len(starts))
	for _, s := range starts {
		if s != nil && !seen[s] {
			seen[s] = true
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range n.out {
			if !seen[e.Dest] {
				seen[e.Dest] = true
				stack = append(stack, e.Dest)
			}
		}
	}
	return seen
}
