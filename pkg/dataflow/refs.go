package dataflow

import (
	"github.com/l3aro/go-jsflow/pkg/ast"
	"github.com/l3aro/go-jsflow/pkg/cfg"
	"github.com/l3aro/go-jsflow/pkg/scope"
)

// CollectRefs returns, for each node of g, the references to local bindings
// that the node evaluates itself, in evaluation order. Parts of the tree
// that have nodes of their own, including nested functions, are left to
// those nodes. Globals are not tracked.
func CollectRefs(g *cfg.Graph, info *scope.Info) map[*cfg.Node][]Ref {
	out := make(map[*cfg.Node][]Ref)
	for _, n := range g.Nodes() {
		v := n.Value()
		if v == nil {
			continue
		}
		c := &collector{g: g, info: info}
		c.node(v)
		if len(c.refs) > 0 {
			out[n] = c.refs
		}
	}
	return out
}

type collector struct {
	g    *cfg.Graph
	info *scope.Info
	refs []Ref
}

func (c *collector) node(v *ast.Node) {
	switch v.Kind {
	case ast.Function:
		if params := ast.FunctionParams(v); params != nil {
			for p := params.FirstChild; p != nil; p = p.Next {
				c.target(p, RefTypeDefinition)
			}
		}
	case ast.ForIn, ast.ForOf:
		c.expr(v.SecondChild())
		lhs := v.FirstChild
		switch lhs.Kind {
		case ast.Var, ast.Let, ast.Const:
			for d := lhs.FirstChild; d != nil; d = d.Next {
				if d.Kind == ast.DestructuringLHS {
					c.target(d.FirstChild, RefTypeDefinition)
				} else {
					c.target(d, RefTypeDefinition)
				}
			}
		default:
			c.target(lhs, RefTypeDefinition)
		}
	case ast.Catch:
		if p := v.FirstChild; p != nil && p.Kind != ast.Empty {
			c.target(p, RefTypeDefinition)
		}
	default:
		c.expr(v)
	}
}

func (c *collector) children(n *ast.Node) {
	for ch := n.FirstChild; ch != nil; ch = ch.Next {
		if c.g.Node(ch) == nil {
			c.expr(ch)
		}
	}
}

func (c *collector) expr(n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.Function, ast.LabelName:
	case ast.Name:
		c.add(n, RefTypeUse)
	case ast.Var, ast.Let, ast.Const:
		for d := n.FirstChild; d != nil; d = d.Next {
			switch d.Kind {
			case ast.Name:
				if init := d.FirstChild; init != nil {
					c.expr(init)
					c.add(d, RefTypeDefinition)
				}
			case ast.DestructuringLHS:
				c.expr(d.SecondChild())
				c.target(d.FirstChild, RefTypeDefinition)
			}
		}
	case ast.Class:
		id := n.FirstChild
		if id == nil || id.Kind != ast.Name {
			c.children(n)
			return
		}
		for ch := id.Next; ch != nil; ch = ch.Next {
			c.expr(ch)
		}
		c.add(id, RefTypeDefinition)
	case ast.Assign:
		c.expr(n.LastChild)
		c.target(n.FirstChild, RefTypeDefinition)
	case ast.AssignOp:
		if lhs := n.FirstChild; lhs.Kind == ast.Name {
			c.add(lhs, RefTypeUse)
			c.expr(n.LastChild)
			c.add(lhs, RefTypeUpdate)
			return
		}
		c.children(n)
	case ast.Inc, ast.Dec:
		if operand := n.FirstChild; operand.Kind == ast.Name {
			c.add(operand, RefTypeUse)
			c.add(operand, RefTypeUpdate)
			return
		}
		c.children(n)
	case ast.Import:
		for ch := n.FirstChild; ch != nil; ch = ch.Next {
			if ch.Kind == ast.Name {
				c.add(ch, RefTypeDefinition)
			}
		}
	default:
		c.children(n)
	}
}

// target records the names bound by an assignment or declaration target.
func (c *collector) target(t *ast.Node, kind RefType) {
	switch t.Kind {
	case ast.Name:
		c.add(t, kind)
	case ast.DefaultValue:
		c.expr(t.SecondChild())
		c.target(t.FirstChild, kind)
	case ast.Property:
		if t.Has(ast.FlagComputed) && t.FirstChild != t.LastChild {
			c.expr(t.FirstChild)
		}
		c.target(t.LastChild, kind)
	case ast.Pattern, ast.Rest:
		for ch := t.FirstChild; ch != nil; ch = ch.Next {
			c.target(ch, kind)
		}
	default:
		c.expr(t)
	}
}

func (c *collector) add(n *ast.Node, kind RefType) {
	b := c.info.BindingOf(n)
	if b == nil || b.Kind == scope.Global {
		return
	}
	c.refs = append(c.refs, Ref{
		VarRef: VarRef{
			Name:    n.Str,
			RefType: kind,
			Line:    n.Line,
			Column:  n.Column,
		},
		Binding: b,
		Node:    n,
	})
}
