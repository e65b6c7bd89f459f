package dce

import (
	"github.com/l3aro/go-jsflow/pkg/ast"
	"github.com/l3aro/go-jsflow/pkg/cfg"
)

// maxNormalizeSteps bounds the block walk in normalize.
const maxNormalizeSteps = 64

type unreachable struct {
	g         *cfg.Graph
	root      *ast.Node
	reachable map[*cfg.Node]bool
	removed   []Removal
}

// RemoveUnreachable deletes the statements of root that no entry of g
// reaches, then the jumps that go where control would flow anyway. The
// graph must have been built for root with function traversal enabled.
//
// Function declarations are never removed, since they are hoisted. let,
// const and class declarations are kept so that references from closures
// still hit the temporal dead zone. Removed code that declares var names is
// replaced by a bare var statement to keep those names hoisted.
func RemoveUnreachable(g *cfg.Graph, root *ast.Node) []Removal {
	u := &unreachable{
		g:         g,
		root:      root,
		reachable: g.Reachable(g.Entries()...),
	}
	u.sweep()
	u.removeRedundantJumps()
	return u.removed
}

func (u *unreachable) sweep() {
	ast.Walk(u.root, func(n *ast.Node) bool {
		if n == u.root {
			return true
		}
		if n.Kind == ast.Function && u.g.Node(n) == nil {
			return false
		}
		switch {
		case ast.IsStatementList(n.Parent):
			if u.isDead(n) {
				u.removeListStatement(n)
				return false
			}
		case isStatementSlot(n):
			if u.isDead(n) {
				u.clearSlot(n)
				return false
			}
		}
		return true
	})
}

// isStatementSlot reports whether n occupies a single-statement position
// that must stay filled: a loop header part, or a body that is not a block.
func isStatementSlot(n *ast.Node) bool {
	p := n.Parent
	switch p.Kind {
	case ast.For:
		if n == p.FirstChild || n == p.Child(2) {
			return true
		}
		return n == p.LastChild && n.Kind != ast.Block
	case ast.If, ast.While, ast.Label, ast.With:
		return n != p.FirstChild && n.Kind != ast.Block
	case ast.Do:
		return n == p.FirstChild && n.Kind != ast.Block
	case ast.ForIn, ast.ForOf:
		return n == p.LastChild && n.Kind != ast.Block
	}
	return false
}

// isDead reports whether stmt has CFG nodes and none of them is reachable.
// Nested function literals are separate regions and do not count.
func (u *unreachable) isDead(stmt *ast.Node) bool {
	switch {
	case ast.IsFunctionDeclaration(stmt):
		return false
	case stmt.Kind == ast.Let, stmt.Kind == ast.Const, stmt.Kind == ast.Class:
		return false
	}
	seen, live := false, false
	ast.Walk(stmt, func(n *ast.Node) bool {
		if live {
			return false
		}
		if n.Kind == ast.Function && n != stmt {
			if ast.IsFunctionDeclaration(n) {
				live = true
			}
			return false
		}
		if node := u.g.Node(n); node != nil {
			seen = true
			if u.reachable[node] {
				live = true
				return false
			}
		}
		return true
	})
	return seen && !live
}

func (u *unreachable) removeListStatement(n *ast.Node) {
	names := hoistedVarNames(n)
	if len(names) == 0 {
		u.removed = append(u.removed, newRemoval(n, ReasonUnreachable, ""))
		n.Detach()
		return
	}
	if isBareVar(n) {
		return
	}
	u.removed = append(u.removed, newRemoval(n, ReasonUnreachable, ""))
	n.ReplaceWith(bareVar(names, n))
}

func (u *unreachable) clearSlot(n *ast.Node) {
	names := hoistedVarNames(n)
	if len(names) == 0 {
		if n.Kind == ast.Empty {
			return
		}
		u.removed = append(u.removed, newRemoval(n, ReasonUnreachable, ""))
		n.ReplaceWith(ast.NewNode(ast.Empty).CopyPosition(n))
		return
	}
	if isBareVar(n) {
		return
	}
	u.removed = append(u.removed, newRemoval(n, ReasonUnreachable, ""))
	n.ReplaceWith(bareVar(names, n))
}

// hoistedVarNames returns the distinct var names declared in n outside
// nested functions, in source order.
func hoistedVarNames(n *ast.Node) []string {
	var names []string
	seen := make(map[string]bool)
	ast.Walk(n, func(c *ast.Node) bool {
		switch c.Kind {
		case ast.Function:
			return false
		case ast.Var:
			for _, id := range ast.DeclaredNames(c) {
				if !seen[id.Str] {
					seen[id.Str] = true
					names = append(names, id.Str)
				}
			}
		}
		return true
	})
	return names
}

// isBareVar reports whether n is a var statement declaring names only.
func isBareVar(n *ast.Node) bool {
	if n.Kind != ast.Var {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.Next {
		if c.Kind != ast.Name || c.HasChildren() {
			return false
		}
	}
	return true
}

func bareVar(names []string, at *ast.Node) *ast.Node {
	decl := ast.NewNode(ast.Var).CopyPosition(at)
	for _, name := range names {
		decl.AppendChild(ast.NewName(name).CopyPosition(at))
	}
	return decl
}

func (u *unreachable) removeRedundantJumps() {
	var jumps []*ast.Node
	ast.Walk(u.root, func(n *ast.Node) bool {
		switch n.Kind {
		case ast.Break, ast.Continue:
			jumps = append(jumps, n)
		case ast.Return:
			if !n.HasChildren() {
				jumps = append(jumps, n)
			}
		}
		return true
	})

	for _, jump := range jumps {
		if !u.isRedundantJump(jump) {
			continue
		}
		u.removed = append(u.removed, newRemoval(jump, ReasonRedundantJump, ""))
		if ast.IsStatementList(jump.Parent) {
			jump.Detach()
		} else {
			jump.ReplaceWith(ast.NewNode(ast.Empty).CopyPosition(jump))
		}
	}
}

func (u *unreachable) isRedundantJump(jump *ast.Node) bool {
	node := u.g.Node(jump)
	if node == nil || !u.reachable[node] || len(node.Out()) != 1 {
		return false
	}
	for p := jump.Parent; p != nil && p.Kind != ast.Function; p = p.Parent {
		if ast.HasFinally(p) {
			return false
		}
	}
	dest := node.Out()[0].Dest.Value()
	return normalize(dest) == normalize(cfg.FollowNode(jump))
}

// normalize skips over blocks: into the first statement of a non-empty one,
// past an empty one.
func normalize(n *ast.Node) *ast.Node {
	for i := 0; n != nil && n.Kind == ast.Block && i < maxNormalizeSteps; i++ {
		first := n.FirstChild
		for first != nil && first.Kind == ast.Function {
			first = first.Next
		}
		if first != nil {
			n = cfg.FallThrough(first)
		} else {
			n = cfg.FollowNode(n)
		}
	}
	return n
}
