package cfg

import (
	"container/heap"
	"math"
	"sort"

	"github.com/l3aro/go-jsflow/pkg/ast"
)

// prioritize numbers every node of the graph. Starting from the entry, the
// node with the smallest AST position among those discovered so far is taken
// next, which approximates the order an interpreter first reaches statements.
// Implicit returns are numbered last.
func (a *Analysis) prioritize() {
	g := a.graph
	g.priorities = make(map[*Node]int, len(g.order))
	counter := 0

	a.prioritizeFrom(g.entry, &counter)
	if a.traverseFunctions {
		for _, n := range g.order {
			if n.value != nil && n.value.Kind == ast.Function {
				a.prioritizeFrom(n, &counter)
			}
		}
	}
	// Nodes no entry reaches still need a position.
	for _, n := range g.order {
		if !g.IsImplicitReturn(n) {
			a.prioritizeFrom(n, &counter)
		}
	}

	for _, n := range g.order {
		if g.IsImplicitReturn(n) && n != g.implicitReturn {
			g.priorities[n] = counter
			counter++
		}
	}
	g.priorities[g.implicitReturn] = counter
}

func (a *Analysis) prioritizeFrom(start *Node, counter *int) {
	g := a.graph
	if _, done := g.priorities[start]; done {
		return
	}
	worklist := &nodeQueue{position: a.position}
	heap.Push(worklist, start)
	for worklist.Len() > 0 {
		cur := heap.Pop(worklist).(*Node)
		if _, done := g.priorities[cur]; done || g.IsImplicitReturn(cur) {
			continue
		}
		g.priorities[cur] = *counter
		*counter++
		for _, e := range cur.out {
			if _, done := g.priorities[e.Dest]; !done {
				heap.Push(worklist, e.Dest)
			}
		}
	}
}

func (a *Analysis) position(n *Node) int {
	if n.value == nil {
		return math.MaxInt32
	}
	if p, ok := a.positions[n.value]; ok {
		return p
	}
	return math.MaxInt32
}

// nodeQueue is a min-heap of nodes by AST position, then creation order.
type nodeQueue struct {
	nodes    []*Node
	position func(*Node) int
}

func (q *nodeQueue) Len() int { return len(q.nodes) }

func (q *nodeQueue) Less(i, j int) bool {
	pi, pj := q.position(q.nodes[i]), q.position(q.nodes[j])
	if pi != pj {
		return pi < pj
	}
	return q.nodes[i].seq < q.nodes[j].seq
}

func (q *nodeQueue) Swap(i, j int) { q.nodes[i], q.nodes[j] = q.nodes[j], q.nodes[i] }

func (q *nodeQueue) Push(x interface{}) { q.nodes = append(q.nodes, x.(*Node)) }

func (q *nodeQueue) Pop() interface{} {
	last := q.nodes[len(q.nodes)-1]
	q.nodes = q.nodes[:len(q.nodes)-1]
	return last
}

// Comparator returns an ordering function over nodes of g. With forward set
// it orders by priority, implicit returns last; otherwise the order is
// reversed for backward analyses.
func (g *Graph) Comparator(forward bool) func(a, b *Node) int {
	return func(a, b *Node) int {
		pa, pb := g.Priority(a), g.Priority(b)
		if !forward {
			pa, pb = pb, pa
		}
		switch {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		}
		return 0
	}
}

// Sorted returns the nodes of g ordered by Comparator(forward).
func (g *Graph) Sorted(forward bool) []*Node {
	nodes := make([]*Node, len(g.order))
	copy(nodes, g.order)
	cmp := g.Comparator(forward)
	sort.SliceStable(nodes, func(i, j int) bool {
		return cmp(nodes[i], nodes[j]) < 0
	})
	return nodes
}
