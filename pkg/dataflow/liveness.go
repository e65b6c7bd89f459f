package dataflow

import (
	"sort"

	"github.com/l3aro/go-jsflow/pkg/cfg"
	"github.com/l3aro/go-jsflow/pkg/scope"
)

// BindingSet is a set of bindings.
type BindingSet map[*scope.Binding]struct{}

func (s BindingSet) clone() BindingSet {
	dst := make(BindingSet, len(s))
	for k := range s {
		dst[k] = struct{}{}
	}
	return dst
}

// Names returns the distinct binding names in s, sorted.
func (s BindingSet) Names() []string {
	seen := make(map[string]bool, len(s))
	names := make([]string, 0, len(s))
	for b := range s {
		if !seen[b.Name] {
			seen[b.Name] = true
			names = append(names, b.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Liveness is the backward problem computing which local bindings may still
// be read after each node. Reads from other functions are not modelled.
type Liveness struct {
	refs map[*cfg.Node][]Ref
}

// NewLiveness collects the references of g.
func NewLiveness(g *cfg.Graph, info *scope.Info) *Liveness {
	return &Liveness{refs: CollectRefs(g, info)}
}

func (l *Liveness) Forward() bool { return false }

func (l *Liveness) Initial(*cfg.Node) BindingSet { return BindingSet{} }

func (l *Liveness) Join(values []BindingSet) BindingSet {
	result := make(BindingSet)
	for _, v := range values {
		for b := range v {
			result[b] = struct{}{}
		}
	}
	return result
}

// Transfer walks the references of n backwards: stores kill, reads gen.
func (l *Liveness) Transfer(n *cfg.Node, out BindingSet) BindingSet {
	live := out.clone()
	refs := l.refs[n]
	for i := len(refs) - 1; i >= 0; i-- {
		if refs[i].IsDef() {
			delete(live, refs[i].Binding)
		} else {
			live[refs[i].Binding] = struct{}{}
		}
	}
	return live
}

func (l *Liveness) Equal(a, b BindingSet) bool {
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

// LivenessResult is the outcome of ComputeLiveness.
type LivenessResult struct {
	// LiveIn holds the bindings live on entry to each node.
	LiveIn map[*cfg.Node]BindingSet
	// LiveOut holds the bindings live on exit from each node.
	LiveOut map[*cfg.Node]BindingSet
	Steps   int
}

// ComputeLiveness runs liveness over g.
func ComputeLiveness(g *cfg.Graph, info *scope.Info, maxSteps int) (*LivenessResult, error) {
	solution, err := Solve[BindingSet](g, NewLiveness(g, info), maxSteps)
	if err != nil {
		return nil, err
	}
	return &LivenessResult{
		LiveIn:  solution.Entry,
		LiveOut: solution.Exit,
		Steps:   solution.Steps,
	}, nil
}
