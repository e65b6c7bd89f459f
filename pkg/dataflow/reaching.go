package dataflow

import (
	"fmt"
	"sort"

	"github.com/l3aro/go-jsflow/pkg/cfg"
	"github.com/l3aro/go-jsflow/pkg/scope"
)

// DefSet is a set of definition IDs.
type DefSet map[int]struct{}

func (s DefSet) clone() DefSet {
	dst := make(DefSet, len(s))
	for k := range s {
		dst[k] = struct{}{}
	}
	return dst
}

// sorted returns the IDs in ascending order.
func (s DefSet) sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ReachingDefinitions is the forward problem computing which definitions of
// local bindings may reach each node.
type ReachingDefinitions struct {
	refs map[*cfg.Node][]Ref
	// defs maps definition ID to its reference.
	defs []Ref
	// defIDs parallels refs with the definition ID of each entry, or -1.
	defIDs map[*cfg.Node][]int
}

// NewReachingDefinitions numbers the definitions of g in priority order.
func NewReachingDefinitions(g *cfg.Graph, info *scope.Info) *ReachingDefinitions {
	r := &ReachingDefinitions{
		refs:   CollectRefs(g, info),
		defIDs: make(map[*cfg.Node][]int),
	}
	for _, n := range g.Sorted(true) {
		refs := r.refs[n]
		if len(refs) == 0 {
			continue
		}
		ids := make([]int, len(refs))
		for i, ref := range refs {
			ids[i] = -1
			if ref.IsDef() {
				ids[i] = len(r.defs)
				r.defs = append(r.defs, ref)
			}
		}
		r.defIDs[n] = ids
	}
	return r
}

// Definition returns the reference for a definition ID.
func (r *ReachingDefinitions) Definition(id int) Ref { return r.defs[id] }

func (r *ReachingDefinitions) Forward() bool { return true }

func (r *ReachingDefinitions) Initial(*cfg.Node) DefSet { return DefSet{} }

func (r *ReachingDefinitions) Join(values []DefSet) DefSet {
	result := make(DefSet)
	for _, v := range values {
		for id := range v {
			result[id] = struct{}{}
		}
	}
	return result
}

// Transfer computes out = gen U (in - kill), one reference at a time.
func (r *ReachingDefinitions) Transfer(n *cfg.Node, in DefSet) DefSet {
	out := in.clone()
	for i, id := range r.defIDs[n] {
		if id >= 0 {
			r.define(out, r.refs[n][i].Binding, id)
		}
	}
	return out
}

func (r *ReachingDefinitions) define(set DefSet, b *scope.Binding, id int) {
	for other := range set {
		if r.defs[other].Binding == b {
			delete(set, other)
		}
	}
	set[id] = struct{}{}
}

func (r *ReachingDefinitions) Equal(a, b DefSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// ReachingResult is the outcome of ComputeDefUseChains.
type ReachingResult struct {
	// Edges are def-use chains in priority order of the use.
	Edges []DataflowEdge
	// Reaching lists the definitions reaching the entry of each node.
	Reaching map[*cfg.Node][]VarRef
	Steps    int
}

// ComputeDefUseChains runs reaching definitions over g and connects every
// use of a local binding to the definitions that may reach it.
func ComputeDefUseChains(g *cfg.Graph, info *scope.Info, maxSteps int) (*ReachingResult, error) {
	problem := NewReachingDefinitions(g, info)
	solution, err := Solve[DefSet](g, problem, maxSteps)
	if err != nil {
		return nil, err
	}

	result := &ReachingResult{
		Reaching: make(map[*cfg.Node][]VarRef),
		Steps:    solution.Steps,
	}
	for _, n := range g.Sorted(true) {
		entry := solution.Entry[n]
		for _, id := range entry.sorted() {
			result.Reaching[n] = append(result.Reaching[n], problem.defs[id].VarRef)
		}

		current := entry.clone()
		for i, ref := range problem.refs[n] {
			if id := problem.defIDs[n][i]; id >= 0 {
				problem.define(current, ref.Binding, id)
				continue
			}
			for _, id := range current.sorted() {
				def := problem.defs[id]
				if def.Binding != ref.Binding {
					continue
				}
				result.Edges = append(result.Edges, DataflowEdge{
					DefRef:  def.VarRef,
					UseRef:  ref.VarRef,
					VarName: ref.Name,
				})
			}
		}
	}
	result.Edges = deduplicateEdges(result.Edges)
	return result, nil
}

// deduplicateEdges removes duplicate edges from the list.
func deduplicateEdges(edges []DataflowEdge) []DataflowEdge {
	seen := make(map[string]bool)
	var result []DataflowEdge

	for _, edge := range edges {
		key := fmt.Sprintf("%d:%d->%d:%d", edge.DefRef.Line, edge.DefRef.Column, edge.UseRef.Line, edge.UseRef.Column)
		if !seen[key] {
			seen[key] = true
			result = append(result, edge)
		}
	}

	return result
}
