// Package scope resolves JavaScript bindings and their references.
//
// Resolution is deliberately conservative: any construct that can reach a
// binding in a way the resolver cannot see (direct eval, with, arguments,
// exports, destructuring) marks the binding as escaped.
package scope

import "github.com/l3aro/go-jsflow/pkg/ast"

// Kind classifies how a binding was introduced.
type Kind int

const (
	Var          Kind = iota // var
	Let                      // let
	Const                    // const
	Class                    // class declaration
	FunctionDecl             // function declaration
	FunctionName             // name of a function expression, local to it
	Param                    // function parameter
	CatchParam               // catch (e)
	Import                   // import binding
	Global                   // referenced but never declared
)

var kindNames = [...]string{
	Var:          "var",
	Let:          "let",
	Const:        "const",
	Class:        "class",
	FunctionDecl: "function",
	FunctionName: "function-name",
	Param:        "param",
	CatchParam:   "catch",
	Import:       "import",
	Global:       "global",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Removable reports whether a binding of this kind may be deleted when
// unused.
func (k Kind) Removable() bool {
	switch k {
	case Var, Let, Const, FunctionDecl:
		return true
	}
	return false
}

// Binding is one declared name in one scope.
type Binding struct {
	Name string
	Kind Kind
	// Decls are the NAME nodes that declare the binding. Repeated var
	// declarations contribute one entry each.
	Decls []*ast.Node
	Scope *Scope
	// Reads are NAME references that may observe the value.
	Reads []*ast.Node
	// Writes are NAME targets of simple assignment statements (x = e;).
	Writes []*ast.Node
	// Escaped is set when references may exist that are not listed in
	// Reads.
	Escaped bool
}

// Scope is a lexical scope.
type Scope struct {
	// Node is the SCRIPT, FUNCTION, BLOCK, loop, SWITCH or CATCH that creates
	// the scope.
	Node     *ast.Node
	Parent   *Scope
	Function bool

	bindings map[string]*Binding
	order    []*Binding
}

func newScope(node *ast.Node, parent *Scope, function bool) *Scope {
	return &Scope{
		Node:     node,
		Parent:   parent,
		Function: function,
		bindings: make(map[string]*Binding),
	}
}

// Own returns the binding declared directly in s, or nil.
func (s *Scope) Own(name string) *Binding {
	return s.bindings[name]
}

// Lookup resolves name from s outward.
func (s *Scope) Lookup(name string) *Binding {
	for cur := s; cur != nil; cur = cur.Parent {
		if b := cur.bindings[name]; b != nil {
			return b
		}
	}
	return nil
}

// Bindings returns the bindings of s in declaration order.
func (s *Scope) Bindings() []*Binding {
	return s.order
}

// IsGlobal reports whether s is the outermost scope of a script.
func (s *Scope) IsGlobal() bool {
	return s.Parent == nil && s.Node != nil && s.Node.Kind == ast.Script
}

// FunctionScope returns the nearest enclosing function scope, s included.
func (s *Scope) FunctionScope() *Scope {
	cur := s
	for !cur.Function && cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

func (s *Scope) declare(name string, kind Kind, decl *ast.Node) *Binding {
	if b := s.bindings[name]; b != nil {
		if b.Kind != kind {
			b.Escaped = true
		}
		if decl != nil {
			b.Decls = append(b.Decls, decl)
		}
		return b
	}
	b := &Binding{Name: name, Kind: kind, Scope: s}
	if decl != nil {
		b.Decls = append(b.Decls, decl)
	}
	s.bindings[name] = b
	s.order = append(s.order, b)
	return b
}

// escapeVisible marks every binding visible from s as escaped.
func (s *Scope) escapeVisible() {
	for cur := s; cur != nil; cur = cur.Parent {
		for _, b := range cur.order {
			b.Escaped = true
		}
	}
}
