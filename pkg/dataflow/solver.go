package dataflow

import (
	"container/list"
	"errors"
	"fmt"

	"github.com/l3aro/go-jsflow/pkg/cfg"
)

// DefaultMaxSteps bounds Solve when no limit is given.
const DefaultMaxSteps = 100000

// ErrMaxSteps is returned when the solver has not converged within its
// step budget, which points at a transfer function that is not monotone.
var ErrMaxSteps = errors.New("dataflow: step limit exceeded")

// Problem describes a dataflow analysis over values of type L.
type Problem[L any] interface {
	// Forward reports the direction of the analysis.
	Forward() bool
	// Initial is the value of a node with no upstream neighbours, and the
	// starting value of every node.
	Initial(n *cfg.Node) L
	Join(values []L) L
	// Transfer maps the value flowing into n to the value flowing out.
	Transfer(n *cfg.Node, in L) L
	Equal(a, b L) bool
}

// Result holds the fixed point of a Problem. Entry is the value before the
// node executes and Exit the value after, whatever the direction.
type Result[L any] struct {
	Entry map[*cfg.Node]L
	Exit  map[*cfg.Node]L
	Steps int
}

// Solve computes the fixed point of p over g with a worklist seeded in
// priority order. maxSteps limits node visits; zero means DefaultMaxSteps.
func Solve[L any](g *cfg.Graph, p Problem[L], maxSteps int) (*Result[L], error) {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	forward := p.Forward()
	res := &Result[L]{
		Entry: make(map[*cfg.Node]L),
		Exit:  make(map[*cfg.Node]L),
	}
	in, out := res.Entry, res.Exit
	if !forward {
		in, out = res.Exit, res.Entry
	}

	worklist := list.New()
	queued := make(map[*cfg.Node]bool)
	visited := make(map[*cfg.Node]bool)
	for _, n := range g.Sorted(forward) {
		in[n] = p.Initial(n)
		out[n] = p.Initial(n)
		worklist.PushBack(n)
		queued[n] = true
	}

	for worklist.Len() > 0 {
		if res.Steps >= maxSteps {
			return res, fmt.Errorf("%w after %d steps", ErrMaxSteps, res.Steps)
		}
		res.Steps++

		n := worklist.Remove(worklist.Front()).(*cfg.Node)
		queued[n] = false

		upstream := neighbours(n, !forward)
		if len(upstream) == 0 {
			in[n] = p.Initial(n)
		} else {
			values := make([]L, 0, len(upstream))
			for _, m := range upstream {
				values = append(values, out[m])
			}
			in[n] = p.Join(values)
		}

		next := p.Transfer(n, in[n])
		if visited[n] && p.Equal(next, out[n]) {
			continue
		}
		visited[n] = true
		out[n] = next

		for _, m := range neighbours(n, forward) {
			if !queued[m] {
				worklist.PushBack(m)
				queued[m] = true
			}
		}
	}
	return res, nil
}

// neighbours returns the distinct successors of n, or its predecessors when
// succ is false.
func neighbours(n *cfg.Node, succ bool) []*cfg.Node {
	edges := n.In()
	if succ {
		edges = n.Out()
	}
	seen := make(map[*cfg.Node]bool, len(edges))
	var out []*cfg.Node
	for _, e := range edges {
		m := e.Source
		if succ {
			m = e.Dest
		}
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
