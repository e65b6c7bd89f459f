// Package dce removes unreachable statements and unused bindings from a
// JavaScript syntax tree, guided by its control flow graph.
//
// Every ambiguous case retains code: a statement survives unless the graph
// proves it unreachable, and a binding survives unless the scope provider
// lists all of its reads and none of them is reachable.
package dce

import (
	"errors"
	"fmt"

	"github.com/l3aro/go-jsflow/internal/log"
	"github.com/l3aro/go-jsflow/pkg/ast"
	"github.com/l3aro/go-jsflow/pkg/cfg"
	"github.com/l3aro/go-jsflow/pkg/scope"
)

// DefaultMaxIterations bounds Eliminate when Options.MaxIterations is zero.
const DefaultMaxIterations = 100

// ErrNoProgress is returned when an iteration changed the tree without
// shrinking it, which would otherwise loop forever.
var ErrNoProgress = errors.New("dce: iteration made no progress")

// ScopeProvider resolves the bindings of a tree. It is queried again after
// every change, so it must not cache results across calls.
type ScopeProvider interface {
	Bindings(root *ast.Node) []*scope.Binding
}

// Reason says why a statement or binding was removed.
type Reason string

const (
	ReasonUnreachable   Reason = "unreachable"
	ReasonRedundantJump Reason = "redundant-jump"
	ReasonUnusedBinding Reason = "unused-binding"
	ReasonDeadStore     Reason = "dead-store"
)

// Removal records one change made to the tree.
type Removal struct {
	Kind      string `json:"kind" msgpack:"kind"`                     // Kind of the removed node
	Reason    Reason `json:"reason" msgpack:"reason"`                 // Why it was removed
	Name      string `json:"name,omitempty" msgpack:"name,omitempty"` // Binding name for binding removals
	Line      int    `json:"line" msgpack:"line"`                     // Starting line number in source
	Column    int    `json:"column" msgpack:"column"`                 // Starting column in source
	StartByte uint32 `json:"start_byte" msgpack:"start_byte"`         // Start offset in source
	EndByte   uint32 `json:"end_byte" msgpack:"end_byte"`             // End offset in source
}

func newRemoval(n *ast.Node, reason Reason, name string) Removal {
	return Removal{
		Kind:      n.Kind.String(),
		Reason:    reason,
		Name:      name,
		Line:      n.Line,
		Column:    n.Column,
		StartByte: n.StartByte,
		EndByte:   n.EndByte,
	}
}

func (r Removal) String() string {
	if r.Name != "" {
		return fmt.Sprintf("%d:%d %s %s (%s)", r.Line, r.Column, r.Reason, r.Name, r.Kind)
	}
	return fmt.Sprintf("%d:%d %s (%s)", r.Line, r.Column, r.Reason, r.Kind)
}

// Report summarizes an Eliminate run.
type Report struct {
	Removals    []Removal `json:"removals" msgpack:"removals"`         // Changes in the order they were made
	Iterations  int       `json:"iterations" msgpack:"iterations"`     // Graph rebuilds performed
	NodesBefore int       `json:"nodes_before" msgpack:"nodes_before"` // Tree size before elimination
	NodesAfter  int       `json:"nodes_after" msgpack:"nodes_after"`   // Tree size after elimination
}

// Changed reports whether anything was removed.
func (r *Report) Changed() bool { return len(r.Removals) > 0 }

// Count returns the number of removals with the given reason.
func (r *Report) Count(reason Reason) int {
	total := 0
	for _, rm := range r.Removals {
		if rm.Reason == reason {
			total++
		}
	}
	return total
}

// Options configures Eliminate.
type Options struct {
	// MaxIterations caps graph rebuilds; DefaultMaxIterations when zero.
	MaxIterations int
	// Tolerant builds graphs that leave unresolvable jumps unconnected
	// instead of panicking.
	Tolerant bool
	Logger   log.Logger
}

// Eliminate alternates unreachable code removal and unused binding removal,
// rebuilding the graph each round, until a round removes nothing.
//
// Every changing round must shrink the tree, measured first by declared
// names and then by node count; ErrNoProgress is returned otherwise.
func Eliminate(root *ast.Node, scopes ScopeProvider, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	limit := opts.MaxIterations
	if limit <= 0 {
		limit = DefaultMaxIterations
	}

	report := &Report{NodesBefore: ast.Count(root)}
	before := measure(root)
	for report.Iterations < limit {
		report.Iterations++

		analysis := cfg.NewAnalysis(true, false, cfg.WithTolerant(opts.Tolerant))
		analysis.Process(nil, root)
		g := analysis.Graph()

		removed := RemoveUnreachable(g, root)
		removed = append(removed, RemoveUnusedBindings(g, root, scopes)...)
		report.Removals = append(report.Removals, removed...)

		logger.Debug("dce iteration",
			"iteration", report.Iterations,
			"removed", len(removed),
			"nodes", ast.Count(root))

		if len(removed) == 0 {
			break
		}
		after := measure(root)
		if !after.less(before) {
			report.NodesAfter = ast.Count(root)
			return report, fmt.Errorf("%w after iteration %d", ErrNoProgress, report.Iterations)
		}
		before = after
	}
	report.NodesAfter = ast.Count(root)
	return report, nil
}

// size is the termination measure of Eliminate.
type size struct {
	names int
	nodes int
}

func (s size) less(o size) bool {
	if s.names != o.names {
		return s.names < o.names
	}
	return s.nodes < o.nodes
}

func measure(root *ast.Node) size {
	var s size
	ast.Walk(root, func(n *ast.Node) bool {
		s.nodes++
		if n.Kind == ast.Name && n.Parent != nil {
			switch n.Parent.Kind {
			case ast.Var, ast.Let, ast.Const:
				s.names++
			case ast.Function:
				if n == n.Parent.FirstChild {
					s.names++
				}
			}
		}
		return true
	})
	return s
}
