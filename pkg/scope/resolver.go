package scope

import "github.com/l3aro/go-jsflow/pkg/ast"

// Resolver computes the bindings of a syntax tree.
type Resolver struct {
	// RemoveGlobals treats top-level script bindings like locals. Without
	// it they are escaped, since other scripts may read them.
	RemoveGlobals bool
}

// Info is the resolution result for one tree.
type Info struct {
	Root *Scope

	scopes    []*Scope
	created   map[*ast.Node]*Scope
	enclosing map[*ast.Node]*Scope
	names     map[*ast.Node]*Binding
}

// Scopes returns every scope in creation order, outermost first.
func (i *Info) Scopes() []*Scope { return i.scopes }

// ScopeOf returns the scope n is evaluated in. For a scope-creating node
// that is the scope around it, not the one it creates.
func (i *Info) ScopeOf(n *ast.Node) *Scope {
	if s, ok := i.enclosing[n]; ok && s != nil {
		return s
	}
	return i.created[n]
}

// Created returns the scope created by n, or nil.
func (i *Info) Created(n *ast.Node) *Scope { return i.created[n] }

// BindingOf returns the binding a NAME node declares or references.
func (i *Info) BindingOf(name *ast.Node) *Binding { return i.names[name] }

// Bindings returns all bindings, scope by scope in creation order.
func (i *Info) Bindings() []*Binding {
	var out []*Binding
	for _, s := range i.scopes {
		out = append(out, s.order...)
	}
	return out
}

// Bindings resolves root and returns its bindings.
func (r *Resolver) Bindings(root *ast.Node) []*Binding {
	return r.Resolve(root).Bindings()
}

// Resolve builds scopes, declares bindings and attaches every reference.
func (r *Resolver) Resolve(root *ast.Node) *Info {
	info := &Info{
		created:   make(map[*ast.Node]*Scope),
		enclosing: make(map[*ast.Node]*Scope),
		names:     make(map[*ast.Node]*Binding),
	}
	inWith := make(map[*ast.Node]bool)

	ast.Walk(root, func(n *ast.Node) bool {
		var outer *Scope
		if n != root {
			outer = info.inner(n.Parent)
			inWith[n] = inWith[n.Parent] || n.Parent.Kind == ast.With
		}
		info.enclosing[n] = outer
		if n == root || createsScope(n) {
			s := newScope(n, outer, n == root || n.Kind == ast.Function || n.Kind == ast.Script)
			info.created[n] = s
			info.scopes = append(info.scopes, s)
			if n == root {
				info.Root = s
			}
		}
		info.declare(n)
		return true
	})

	ast.Walk(root, func(n *ast.Node) bool {
		switch n.Kind {
		case ast.Name:
			info.reference(n, inWith[n])
		case ast.Call:
			if callee := n.FirstChild; callee != nil && callee.Kind == ast.Name && callee.Str == "eval" {
				info.ScopeOf(n).escapeVisible()
			}
		case ast.With:
			info.ScopeOf(n).escapeVisible()
		}
		return true
	})

	if info.Root.IsGlobal() && !r.RemoveGlobals {
		for _, b := range info.Root.order {
			b.Escaped = true
		}
	}
	return info
}

// inner returns the scope children of n are evaluated in.
func (i *Info) inner(n *ast.Node) *Scope {
	if s := i.created[n]; s != nil {
		return s
	}
	return i.enclosing[n]
}

func createsScope(n *ast.Node) bool {
	switch n.Kind {
	case ast.Script, ast.Function, ast.For, ast.ForIn, ast.ForOf, ast.Switch, ast.Catch:
		return true
	case ast.Block:
		return !ast.IsFunctionBody(n)
	}
	return false
}

func (i *Info) declare(n *ast.Node) {
	switch n.Kind {
	case ast.Var:
		i.declareList(n, i.ScopeOf(n).FunctionScope(), Var)
	case ast.Let:
		i.declareList(n, i.ScopeOf(n), Let)
	case ast.Const:
		i.declareList(n, i.ScopeOf(n), Const)
	case ast.Class:
		id := n.FirstChild
		if id == nil || id.Kind != ast.Name {
			return
		}
		if !isStatementPosition(n) {
			// A class expression name is only visible inside the class.
			i.names[id] = nil
			return
		}
		b := i.bind(i.ScopeOf(n), id, Class)
		if n.Has(ast.FlagExported) {
			b.Escaped = true
		}
	case ast.Function:
		i.declareFunction(n)
	case ast.Catch:
		for _, id := range ast.PatternNames(n.FirstChild) {
			b := i.bind(i.created[n], id, CatchParam)
			if n.FirstChild.Kind != ast.Name {
				b.Escaped = true
			}
		}
	case ast.Import:
		for c := n.FirstChild; c != nil; c = c.Next {
			if c.Kind == ast.Name {
				i.bind(i.Root, c, Import).Escaped = true
			}
		}
	}
}

func (i *Info) declareList(decl *ast.Node, s *Scope, kind Kind) {
	escaped := decl.Has(ast.FlagExported)
	if p := decl.Parent; p != nil && ast.IsForInLike(p) && p.FirstChild == decl {
		escaped = true
	}
	for c := decl.FirstChild; c != nil; c = c.Next {
		switch c.Kind {
		case ast.Name:
			b := i.bind(s, c, kind)
			b.Escaped = b.Escaped || escaped
		case ast.DestructuringLHS:
			for _, id := range ast.PatternNames(c.FirstChild) {
				i.bind(s, id, kind).Escaped = true
			}
		}
	}
}

func (i *Info) declareFunction(fn *ast.Node) {
	own := i.created[fn]
	if id := fn.FirstChild; id != nil && id.Kind == ast.Name {
		if ast.IsFunctionDeclaration(fn) {
			outer := i.ScopeOf(fn)
			b := i.bind(outer, id, FunctionDecl)
			if !outer.Function || fn.Has(ast.FlagExported) {
				// Block-level function semantics differ between sloppy and
				// strict mode.
				b.Escaped = true
			}
		} else {
			i.bind(own, id, FunctionName)
		}
	}
	params := ast.FunctionParams(fn)
	if params == nil {
		return
	}
	for p := params.FirstChild; p != nil; p = p.Next {
		for _, id := range ast.PatternNames(p) {
			b := i.bind(own, id, Param)
			if p.Kind != ast.Name {
				b.Escaped = true
			}
		}
	}
}

func (i *Info) bind(s *Scope, id *ast.Node, kind Kind) *Binding {
	b := s.declare(id.Str, kind, id)
	i.names[id] = b
	return b
}

func (i *Info) reference(n *ast.Node, inWith bool) {
	if _, declared := i.names[n]; declared {
		return
	}
	s := i.ScopeOf(n)
	b := s.Lookup(n.Str)
	if n.Str == "arguments" && (b == nil || b.Kind == Global) {
		escapeParams(s.FunctionScope())
	}
	if b == nil {
		b = i.Root.declare(n.Str, Global, nil)
		b.Escaped = true
	}
	i.names[n] = b

	if inWith || n.Parent.Kind == ast.Export {
		b.Escaped = true
	}
	if IsWrite(n) {
		b.Writes = append(b.Writes, n)
	} else {
		b.Reads = append(b.Reads, n)
	}
}

// IsWrite reports whether name is the target of a simple assignment in
// statement position, which stores without observing the value.
func IsWrite(name *ast.Node) bool {
	p := name.Parent
	return p != nil && p.Kind == ast.Assign && p.FirstChild == name &&
		p.Parent != nil && p.Parent.Kind == ast.ExprResult
}

func isStatementPosition(n *ast.Node) bool {
	p := n.Parent
	if p == nil {
		return true
	}
	switch p.Kind {
	case ast.Script, ast.Block, ast.Label, ast.Export:
		return true
	}
	return false
}

// escapeParams escapes the parameters observable through arguments in fs.
// Arrow functions have no arguments object of their own.
func escapeParams(fs *Scope) {
	for fs != nil {
		for _, b := range fs.order {
			if b.Kind == Param {
				b.Escaped = true
			}
		}
		if fs.Node == nil || fs.Node.Kind != ast.Function || !fs.Node.Has(ast.FlagArrow) || fs.Parent == nil {
			return
		}
		fs = fs.Parent.FunctionScope()
	}
}
