package dce

import (
	"github.com/l3aro/go-jsflow/pkg/ast"
	"github.com/l3aro/go-jsflow/pkg/cfg"
	"github.com/l3aro/go-jsflow/pkg/scope"
)

type bindingSweeper struct {
	g         *cfg.Graph
	root      *ast.Node
	reachable map[*cfg.Node]bool
	removed   []Removal

	// owners maps a function literal to the removable binding it is only
	// reachable through. live holds the bindings with a read in live code.
	owners map[*ast.Node]*scope.Binding
	live   map[*scope.Binding]bool
}

// RemoveUnusedBindings deletes the declarations and simple assignments of
// bindings that no reachable code reads. Bindings are resolved again after
// every round of changes, so removing one binding can free others.
//
// Initializers and assigned values that may have side effects are kept as
// expression statements.
func RemoveUnusedBindings(g *cfg.Graph, root *ast.Node, scopes ScopeProvider) []Removal {
	s := &bindingSweeper{
		g:         g,
		root:      root,
		reachable: g.Reachable(g.Entries()...),
	}
	for {
		bindings := scopes.Bindings(root)
		s.markLive(bindings)
		changed := false
		for _, b := range bindings {
			if s.isUnused(b) && s.remove(b) {
				changed = true
			}
		}
		if !changed {
			return s.removed
		}
	}
}

func (s *bindingSweeper) isUnused(b *scope.Binding) bool {
	return !b.Escaped && b.Kind.Removable() && !s.live[b]
}

// markLive computes which bindings are read by live code. A read inside a
// function that is only reachable through a removable binding counts once
// that binding is live, so functions that only call themselves or each
// other stay dead.
func (s *bindingSweeper) markLive(bindings []*scope.Binding) {
	s.owners = make(map[*ast.Node]*scope.Binding)
	s.live = make(map[*scope.Binding]bool)
	for _, b := range bindings {
		if b.Escaped || !b.Kind.Removable() || len(b.Decls) != 1 {
			continue
		}
		if fn := ownedFunction(b.Decls[0], b.Kind); fn != nil {
			s.owners[fn] = b
		}
	}

	for changed := true; changed; {
		changed = false
		for _, b := range bindings {
			if !s.live[b] && s.hasLiveRead(b) {
				s.live[b] = true
				changed = true
			}
		}
	}
}

func (s *bindingSweeper) hasLiveRead(b *scope.Binding) bool {
	for _, read := range b.Reads {
		if read.IsAttached(s.root) && s.isReachable(read) && !s.inDeadFunction(read) {
			return true
		}
	}
	return false
}

func (s *bindingSweeper) inDeadFunction(n *ast.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if owner, ok := s.owners[p]; ok && !s.live[owner] {
			return true
		}
	}
	return false
}

// ownedFunction returns the function literal declared by id: a function
// declaration, or a function expression that initializes a declarator.
func ownedFunction(id *ast.Node, kind scope.Kind) *ast.Node {
	switch kind {
	case scope.FunctionDecl:
		if fn := id.Parent; fn != nil && ast.IsFunctionDeclaration(fn) {
			return fn
		}
	case scope.Var, scope.Let, scope.Const:
		if init := id.FirstChild; init != nil && init.Kind == ast.Function {
			return init
		}
	}
	return nil
}

// isReachable reports whether the code around n can run. Nodes without a
// graph node are judged by their nearest ancestor that has one.
func (s *bindingSweeper) isReachable(n *ast.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if node := s.g.Node(p); node != nil {
			return s.reachable[node]
		}
		if p.Kind == ast.Function {
			return true
		}
	}
	return true
}

func (s *bindingSweeper) remove(b *scope.Binding) bool {
	changed := false
	for _, w := range b.Writes {
		if w.IsAttached(s.root) && scope.IsWrite(w) {
			s.removeWrite(w, b.Name)
			changed = true
		}
	}
	for _, id := range b.Decls {
		if !id.IsAttached(s.root) {
			continue
		}
		var ok bool
		if b.Kind == scope.FunctionDecl {
			ok = s.removeFunction(id, b.Name)
		} else {
			ok = s.removeDeclarator(id, b.Name)
		}
		changed = changed || ok
	}
	return changed
}

func (s *bindingSweeper) removeFunction(id *ast.Node, name string) bool {
	fn := id.Parent
	if !ast.IsFunctionDeclaration(fn) || !ast.IsStatementList(fn.Parent) {
		return false
	}
	s.removed = append(s.removed, newRemoval(fn, ReasonUnusedBinding, name))
	fn.Detach()
	return true
}

func (s *bindingSweeper) removeDeclarator(id *ast.Node, name string) bool {
	decl := id.Parent
	if decl == nil || decl.Parent == nil {
		return false
	}
	switch decl.Kind {
	case ast.Var, ast.Let, ast.Const:
	default:
		return false
	}
	slot := decl.Parent
	switch {
	case slot.Kind == ast.For && slot.FirstChild == decl:
		return s.removeForInit(decl, id, name)
	case !ast.IsStatementList(slot):
		return false
	}

	s.removed = append(s.removed, newRemoval(decl, ReasonUnusedBinding, name))
	if init := id.FirstChild; init != nil && ast.MayHaveSideEffects(init) {
		var rest []*ast.Node
		for c := id.Next; c != nil; c = c.Next {
			rest = append(rest, c)
		}
		for _, c := range rest {
			c.Detach()
		}
		init.Detach()
		stmt := ast.NewNode(ast.ExprResult, init).CopyPosition(init)
		decl.InsertAfter(stmt)
		if len(rest) > 0 {
			tail := ast.NewNode(decl.Kind, rest...).CopyPosition(decl)
			stmt.InsertAfter(tail)
		}
	}
	id.Detach()
	if !decl.HasChildren() {
		decl.Detach()
	}
	return true
}

// removeForInit drops a declarator from the initializer of a for loop. A
// side-effecting initializer survives only as the whole loop initializer.
func (s *bindingSweeper) removeForInit(decl, id *ast.Node, name string) bool {
	init := id.FirstChild
	if init != nil && ast.MayHaveSideEffects(init) {
		if decl.ChildCount() != 1 {
			return false
		}
		s.removed = append(s.removed, newRemoval(decl, ReasonUnusedBinding, name))
		decl.ReplaceWith(init.Detach())
		return true
	}
	s.removed = append(s.removed, newRemoval(decl, ReasonUnusedBinding, name))
	id.Detach()
	if !decl.HasChildren() {
		decl.ReplaceWith(ast.NewNode(ast.Empty).CopyPosition(decl))
	}
	return true
}

// removeWrite turns "x = rhs;" into "rhs;" or removes it when rhs is pure.
func (s *bindingSweeper) removeWrite(target *ast.Node, name string) {
	assign := target.Parent
	stmt := assign.Parent
	rhs := assign.LastChild
	if ast.MayHaveSideEffects(rhs) {
		s.removed = append(s.removed, newRemoval(stmt, ReasonDeadStore, name))
		assign.ReplaceWith(rhs.Detach())
		return
	}
	s.removed = append(s.removed, newRemoval(stmt, ReasonUnusedBinding, name))
	if ast.IsStatementList(stmt.Parent) {
		stmt.Detach()
		return
	}
	stmt.ReplaceWith(ast.NewNode(ast.Empty).CopyPosition(stmt))
}
