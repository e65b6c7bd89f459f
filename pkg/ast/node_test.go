package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(nodes []*Node) []Kind {
	out := make([]Kind, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Kind)
	}
	return out
}

func TestNode_ChildList(t *testing.T) {
	a, b, c := NewNode(Empty), NewNode(Debugger), NewNode(Break)
	block := NewNode(Block, a, c)

	c.InsertBefore(b)
	assert.Equal(t, []Kind{Empty, Debugger, Break}, kinds(block.Children()))
	assert.Equal(t, 3, block.ChildCount())
	assert.Same(t, b, block.SecondChild())
	assert.Same(t, c, block.Child(2))
	assert.Nil(t, block.Child(3))

	first := NewNode(Continue)
	block.PrependChild(first)
	assert.Same(t, first, block.FirstChild)
	assert.Nil(t, first.Prev)
	assert.Same(t, a, first.Next)

	last := NewNode(Return)
	c.InsertAfter(last)
	assert.Same(t, last, block.LastChild)

	b.Detach()
	assert.Equal(t, []Kind{Continue, Empty, Break, Return}, kinds(block.Children()))
	assert.Nil(t, b.Parent)
	assert.Same(t, c, a.Next)
	assert.Same(t, a, c.Prev)

	r := NewNode(Throw)
	first.ReplaceWith(r)
	assert.Same(t, r, block.FirstChild)
	assert.Nil(t, first.Parent)

	detached := block.DetachChildren()
	assert.Len(t, detached, 4)
	assert.False(t, block.HasChildren())
	assert.Nil(t, block.LastChild)
}

func TestNode_AttachedChildPanics(t *testing.T) {
	child := NewNode(Empty)
	NewNode(Block, child)

	assert.Panics(t, func() { NewNode(Block).AppendChild(child) })
	assert.Panics(t, func() { NewNode(Empty).InsertBefore(NewNode(Empty)) })
	assert.Panics(t, func() { NewNode(Empty).ReplaceWith(NewNode(Empty)) })
}

func TestNode_Ancestry(t *testing.T) {
	name := NewName("x")
	root := NewNode(Script, NewNode(ExprResult, name))

	assert.True(t, root.IsAncestorOf(name))
	assert.False(t, name.IsAncestorOf(root))
	assert.False(t, root.IsAncestorOf(root))
	assert.True(t, name.IsAttached(root))
	assert.True(t, root.IsAttached(root))

	name.Detach()
	assert.False(t, name.IsAttached(root))
}

func TestNode_String(t *testing.T) {
	var n *Node
	assert.Equal(t, "<nil>", n.String())
	assert.Equal(t, "NAME x", NewName("x").String())
	assert.Equal(t, "BLOCK", NewNode(Block).String())
	assert.Equal(t, "UNKNOWN", Kind(-1).String())
}

func TestKindFromString(t *testing.T) {
	for k := Invalid; k <= Other; k++ {
		got, ok := KindFromString(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}
	_, ok := KindFromString("NOPE")
	assert.False(t, ok)
}

func TestWalk_SkipsChildren(t *testing.T) {
	fn := NewNode(Function, NewName("f"), NewNode(ParamList), NewNode(Block, NewNode(Return)))
	root := NewNode(Script, fn, NewNode(ExprResult, NewName("y")))

	var seen []Kind
	Walk(root, func(n *Node) bool {
		seen = append(seen, n.Kind)
		return n.Kind != Function
	})
	assert.Equal(t, []Kind{Script, Function, ExprResult, Name}, seen)
	assert.Equal(t, 8, Count(root))
	assert.Equal(t, 0, Count(nil))
}

func TestDump(t *testing.T) {
	block := NewNode(Block, NewNode(Var, NewName("a", NewString(Number, "1"))))
	block.Synthetic = true
	root := NewNode(Script, block)

	want := "SCRIPT\n" +
		"  BLOCK [synthetic]\n" +
		"    VAR\n" +
		"      NAME a\n" +
		"        NUMBER 1\n"
	assert.Equal(t, want, Dump(root))
}

func TestCloneAndEquivalence(t *testing.T) {
	orig := NewNode(If, NewName("c"), NewNode(Block, NewNode(Break)))
	orig.Line = 3

	c := Clone(orig)
	assert.True(t, IsEquivalent(orig, c))
	assert.Nil(t, c.Parent)
	assert.Equal(t, 3, c.Line)
	assert.NotSame(t, orig.FirstChild, c.FirstChild)

	c.FirstChild.Str = "d"
	assert.False(t, IsEquivalent(orig, c))

	c = Clone(orig)
	c.LastChild.AppendChild(NewNode(Empty))
	assert.False(t, IsEquivalent(orig, c))
	assert.True(t, IsEquivalent(nil, nil))
	assert.False(t, IsEquivalent(orig, nil))
}

func TestStructureHelpers(t *testing.T) {
	body := NewNode(Block)
	fn := NewNode(Function, NewName("f"), NewNode(ParamList), body)
	root := NewNode(Script, fn)

	assert.True(t, IsFunctionDeclaration(fn))
	assert.True(t, IsFunctionBody(body))
	assert.Same(t, body, FunctionBody(fn))
	assert.Equal(t, ParamList, FunctionParams(fn).Kind)
	assert.Same(t, fn, EnclosingFunction(body))
	assert.Nil(t, EnclosingFunction(fn))
	assert.True(t, IsStatementList(root))

	expr := NewNode(Function, NewNode(Empty), NewNode(ParamList), NewNode(Block))
	NewNode(ExprResult, expr)
	assert.False(t, IsFunctionDeclaration(expr))

	finally := NewNode(Block)
	try := NewNode(Try, NewNode(Block), NewNode(Catch, NewName("e"), NewNode(Block)), finally)
	assert.NotNil(t, CatchClause(try))
	assert.Same(t, finally, FinallyBlock(try))
	assert.True(t, HasFinally(try))

	tryCatch := NewNode(Try, NewNode(Block), NewNode(Catch, NewName("e"), NewNode(Block)))
	assert.Nil(t, FinallyBlock(tryCatch))
	assert.False(t, HasFinally(tryCatch))

	brk := NewNode(Break, NewString(LabelName, "outer"))
	assert.Equal(t, "outer", BreakLabel(brk))
	assert.Equal(t, "", BreakLabel(NewNode(Break)))

	cond := NewName("c")
	do := NewNode(Do, NewNode(Block), cond)
	assert.Same(t, cond, Condition(do))
	assert.True(t, Do.IsLoop())
	assert.False(t, Switch.IsLoop())
}

func TestDeclaredNames(t *testing.T) {
	// let a, {b, c: [d = 1, ...e]} = o;
	pattern := NewNode(Pattern,
		NewNode(Property, NewName("b")),
		NewString(Property, "c", NewNode(Pattern,
			NewNode(DefaultValue, NewName("d"), NewString(Number, "1")),
			NewNode(Rest, NewName("e")),
		)),
	)
	decl := NewNode(Let, NewName("a"), NewNode(DestructuringLHS, pattern, NewName("o")))

	var names []string
	for _, n := range DeclaredNames(decl) {
		names = append(names, n.Str)
	}
	assert.Equal(t, []string{"a", "b", "d", "e"}, names)
}

func TestMayHaveSideEffects(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want bool
	}{
		{"name", NewName("x"), false},
		{"literal", NewString(String, "s"), false},
		{"pure binop", NewString(BinOp, "+", NewName("a"), NewString(Number, "1")), false},
		{"assignment", NewNode(Assign, NewName("a"), NewString(Number, "1")), true},
		{"unknown call", NewNode(Call, NewName("f")), true},
		{"pure constructor", NewNode(New, NewName("Array"), NewString(Number, "3")), false},
		{"pure constructor impure arg", NewNode(Call, NewName("String"), NewNode(Call, NewName("f"))), true},
		{"Math.max", NewNode(Call, NewString(GetProp, "max", NewName("Math")), NewName("a")), false},
		{"Math.random", NewNode(Call, NewString(GetProp, "random", NewName("Math"))), true},
		{"Math constant", NewString(GetProp, "PI", NewName("Math")), false},
		{"property read", NewString(GetProp, "x", NewName("o")), true},
		{"var without initializer", NewNode(Var, NewName("a")), false},
		{"var with initializer", NewNode(Var, NewName("a", NewString(Number, "1"))), true},
		{"function expression", NewNode(Function, NewNode(Empty), NewNode(ParamList), NewNode(Block, NewNode(Call, NewName("f")))), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MayHaveSideEffects(tt.node))
		})
	}
}
