package cfg

import (
	"fmt"
	"math"

	"github.com/l3aro/go-jsflow/pkg/ast"
)

// Node is a CFG node. It wraps an AST statement, or is an implicit return
// sentinel when Value is nil.
type Node struct {
	value *ast.Node
	// fn is the function whose implicit return this sentinel is; nil for
	// the root's sentinel and for statement nodes.
	fn  *ast.Node
	in  []*Edge
	out []*Edge
	seq int

	// Annotation is free for use by analyses running over the graph.
	Annotation interface{}
}

// Value returns the wrapped AST node, or nil for an implicit return.
func (n *Node) Value() *ast.Node { return n.value }

// Function returns the function owning an implicit return sentinel.
func (n *Node) Function() *ast.Node { return n.fn }

// Out returns the outgoing edges in creation order.
func (n *Node) Out() []*Edge { return n.out }

// In returns the incoming edges in creation order.
func (n *Node) In() []*Edge { return n.in }

func (n *Node) String() string {
	if n.value == nil {
		return "RETURN"
	}
	return n.value.Kind.String()
}

// Edge is a labeled directed CFG edge.
type Edge struct {
	Source *Node
	Dest   *Node
	Branch Branch

	// Annotation holds per-edge analysis state when the graph was built
	// with edge annotations enabled.
	Annotation interface{}
}

// Graph is a control flow graph over one analyzed root.
type Graph struct {
	root            *ast.Node
	entry           *Node
	implicitReturn  *Node
	returns         map[*ast.Node]*Node
	nodes           map[*ast.Node]*Node
	order           []*Node
	priorities      map[*Node]int
	edgeAnnotations bool
}

// NewGraph creates an empty graph for root. Analysis.Graph is the usual way
// to obtain a populated one.
func NewGraph(root *ast.Node, edgeAnnotations bool) *Graph {
	g := &Graph{
		root:            root,
		returns:         make(map[*ast.Node]*Node),
		nodes:           make(map[*ast.Node]*Node),
		priorities:      make(map[*Node]int),
		edgeAnnotations: edgeAnnotations,
	}
	g.implicitReturn = g.newNode(nil, nil)
	return g
}

func (g *Graph) newNode(value, fn *ast.Node) *Node {
	n := &Node{value: value, fn: fn, seq: len(g.order)}
	g.order = append(g.order, n)
	return n
}

// Root returns the AST node the graph was built for.
func (g *Graph) Root() *ast.Node { return g.root }

// Entry returns the entry node.
func (g *Graph) Entry() *Node { return g.entry }

// ImplicitReturn returns the root's implicit return sentinel.
func (g *Graph) ImplicitReturn() *Node { return g.implicitReturn }

// ImplicitReturnOf returns the implicit return sentinel of a traversed
// function, or nil if none was created.
func (g *Graph) ImplicitReturnOf(fn *ast.Node) *Node {
	if fn == nil || fn == g.root {
		return g.implicitReturn
	}
	return g.returns[fn]
}

// EdgeAnnotations reports whether edges carry analysis annotations.
func (g *Graph) EdgeAnnotations() bool { return g.edgeAnnotations }

// CreateNode returns the CFG node for n, creating it on first use.
func (g *Graph) CreateNode(n *ast.Node) *Node {
	if n == nil {
		panic("cfg: CreateNode with nil AST node")
	}
	if existing, ok := g.nodes[n]; ok {
		return existing
	}
	node := g.newNode(n, nil)
	g.nodes[n] = node
	return node
}

// Node returns the CFG node for n, or nil.
func (g *Graph) Node(n *ast.Node) *Node {
	return g.nodes[n]
}

// IsImplicitReturn reports whether n is an implicit return sentinel.
func (g *Graph) IsImplicitReturn(n *Node) bool {
	return n != nil && n.value == nil
}

// Nodes returns every node in creation order. Use Comparator for a
// meaningful order.
func (g *Graph) Nodes() []*Node {
	return g.order
}

// Connect adds an edge from src to dst. A nil dst means the implicit return
// of the function enclosing src. Existing edges are never merged.
func (g *Graph) Connect(src *ast.Node, b Branch, dst *ast.Node) *Edge {
	from := g.CreateNode(src)
	if dst == nil {
		return g.ConnectNodes(from, b, g.returnFor(src))
	}
	return g.ConnectNodes(from, b, g.CreateNode(dst))
}

// ConnectToImplicitReturn adds an edge from src to its function's implicit
// return.
func (g *Graph) ConnectToImplicitReturn(src *ast.Node, b Branch) *Edge {
	return g.Connect(src, b, nil)
}

// ConnectNodes adds an edge between two existing nodes.
func (g *Graph) ConnectNodes(from *Node, b Branch, to *Node) *Edge {
	if g.IsImplicitReturn(from) {
		panic(fmt.Sprintf("cfg: edge %s out of an implicit return", b))
	}
	e := &Edge{Source: from, Dest: to, Branch: b}
	from.out = append(from.out, e)
	to.in = append(to.in, e)
	return e
}

// ConnectIfNotFound adds an edge unless one with the same source, branch and
// destination already exists.
func (g *Graph) ConnectIfNotFound(src *ast.Node, b Branch, dst *ast.Node) *Edge {
	from := g.CreateNode(src)
	to := g.returnFor(src)
	if dst != nil {
		to = g.CreateNode(dst)
	}
	for _, e := range from.out {
		if e.Dest == to && e.Branch == b {
			return e
		}
	}
	return g.ConnectNodes(from, b, to)
}

// OutEdges returns the outgoing edges of n's CFG node.
func (g *Graph) OutEdges(n *ast.Node) []*Edge {
	if node := g.nodes[n]; node != nil {
		return node.out
	}
	return nil
}

// InEdges returns the incoming edges of n's CFG node.
func (g *Graph) InEdges(n *ast.Node) []*Edge {
	if node := g.nodes[n]; node != nil {
		return node.in
	}
	return nil
}

// Successors returns the distinct destinations of n's out edges.
func (g *Graph) Successors(n *Node) []*Node {
	return distinct(n.out, func(e *Edge) *Node { return e.Dest })
}

// Predecessors returns the distinct sources of n's in edges.
func (g *Graph) Predecessors(n *Node) []*Node {
	return distinct(n.in, func(e *Edge) *Node { return e.Source })
}

func distinct(edges []*Edge, end func(*Edge) *Node) []*Node {
	var out []*Node
	seen := make(map[*Node]bool, len(edges))
	for _, e := range edges {
		n := end(e)
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// IsConnected reports whether an edge src -> dst with branch b exists.
func (g *Graph) IsConnected(src *ast.Node, b Branch, dst *ast.Node) bool {
	for _, e := range g.OutEdges(src) {
		if e.Dest.value == dst && e.Branch == b {
			return true
		}
	}
	return false
}

// Priority returns the traversal order position of n. Nodes created after
// the analysis ran sort after every prioritized node.
func (g *Graph) Priority(n *Node) int {
	if p, ok := g.priorities[n]; ok {
		return p
	}
	return math.MaxInt32 + n.seq
}

// returnFor returns the implicit return of the function enclosing src,
// creating the sentinel on first use.
func (g *Graph) returnFor(src *ast.Node) *Node {
	fn := g.enclosingFunction(src)
	if fn == nil {
		return g.implicitReturn
	}
	if ret, ok := g.returns[fn]; ok {
		return ret
	}
	ret := g.newNode(nil, fn)
	g.returns[fn] = ret
	return ret
}

func (g *Graph) enclosingFunction(n *ast.Node) *ast.Node {
	if n == g.root {
		return nil
	}
	for p := n.Parent; p != nil && p != g.root; p = p.Parent {
		if p.Kind == ast.Function {
			return p
		}
	}
	return nil
}
