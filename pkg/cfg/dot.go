package cfg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/l3aro/go-jsflow/pkg/ast"
)

// Dot renders the AST under root and, when g is non-nil, its CFG edges in
// Graphviz format. Node ids follow pre-order AST visitation, so the output is
// stable for identical input. AST edges are black; CFG edges are red and
// labeled with their branch.
func Dot(root *ast.Node, g *Graph) string {
	d := &dotWriter{keys: make(map[*ast.Node]int), g: g}
	d.b.WriteString("digraph AST {\n")
	d.b.WriteString("  node [color=lightblue2, style=filled];\n")
	if root != nil {
		d.traverse(root)
	}
	d.b.WriteString("}\n")
	return d.b.String()
}

type dotWriter struct {
	b    strings.Builder
	keys map[*ast.Node]int
	g    *Graph
}

func (d *dotWriter) key(n *ast.Node) int {
	if k, ok := d.keys[n]; ok {
		return k
	}
	k := len(d.keys)
	d.keys[n] = k
	fmt.Fprintf(&d.b, "  node%d [label=%q];\n", k, n.Kind.String())
	return k
}

func (d *dotWriter) traverse(root *ast.Node) {
	d.key(root)
	stack := []*frame{{n: root, next: root.FirstChild}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if child := top.next; child != nil {
			top.next = child.Next
			parentKey, childKey := d.key(top.n), d.key(child)
			fmt.Fprintf(&d.b, "  node%d -> node%d [weight=1];\n", parentKey, childKey)
			stack = append(stack, &frame{n: child, next: child.FirstChild})
			continue
		}
		stack = stack[:len(stack)-1]
		d.cfgEdges(top.n)
	}
}

func (d *dotWriter) cfgEdges(n *ast.Node) {
	if d.g == nil {
		return
	}
	node := d.g.Node(n)
	if node == nil {
		return
	}
	from := d.key(n)
	lines := make([]string, 0, len(node.out))
	for _, e := range node.out {
		lines = append(lines, fmt.Sprintf("node%d -> %s [label=%q, fontcolor=\"red\", weight=0.01, color=\"red\"];\n",
			from, d.target(e.Dest), e.Branch.String()))
	}
	sort.Strings(lines)
	for _, l := range lines {
		d.b.WriteString("  ")
		d.b.WriteString(l)
	}
}

func (d *dotWriter) target(n *Node) string {
	if !d.g.IsImplicitReturn(n) {
		return fmt.Sprintf("node%d", d.key(n.value))
	}
	if n.fn == nil {
		return "RETURN"
	}
	return fmt.Sprintf("RETURN_node%d", d.key(n.fn))
}
