package parser

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-jsflow/pkg/ast"
)

// converter turns a tree-sitter concrete syntax tree into ast nodes.
type converter struct {
	src      []byte
	depth    int
	maxDepth int
}

type bailout struct{ line int }

func (c *converter) convert(root *sitter.Node) (script *ast.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("%w (%d) at line %d", ErrTooDeep, c.maxDepth, b.line)
		}
	}()

	script = c.node(ast.Script, root)
	c.appendStatements(script, root)
	return script, nil
}

func (c *converter) enter(n *sitter.Node) {
	c.depth++
	if c.depth > c.maxDepth {
		panic(bailout{line: int(n.StartPoint().Row) + 1})
	}
}

func (c *converter) leave() { c.depth-- }

// node creates an ast node positioned at n.
func (c *converter) node(kind ast.Kind, n *sitter.Node, children ...*ast.Node) *ast.Node {
	out := ast.NewNode(kind, children...)
	if n != nil {
		pt := n.StartPoint()
		out.Line = int(pt.Row) + 1
		out.Column = int(pt.Column)
		out.StartByte = n.StartByte()
		out.EndByte = n.EndByte()
	}
	return out
}

func (c *converter) text(n *sitter.Node) string {
	return string(c.src[n.StartByte():n.EndByte()])
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" || child.Type() == "hash_bang_line" {
			continue
		}
		out = append(out, child)
	}
	return out
}

func firstNamed(n *sitter.Node) *sitter.Node {
	if kids := namedChildren(n); len(kids) > 0 {
		return kids[0]
	}
	return nil
}

// hasToken reports whether n has a direct anonymous child with the given text.
func hasToken(n *sitter.Node, tok string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && !child.IsNamed() && child.Type() == tok {
			return true
		}
	}
	return false
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func (c *converter) appendStatements(parent *ast.Node, n *sitter.Node) {
	for _, child := range namedChildren(n) {
		if stmt := c.statement(child); stmt != nil {
			parent.AppendChild(stmt)
		}
	}
}

func (c *converter) statement(n *sitter.Node) *ast.Node {
	c.enter(n)
	defer c.leave()

	switch n.Type() {
	case "expression_statement":
		return c.node(ast.ExprResult, n, c.expression(firstNamed(n)))
	case "variable_declaration", "lexical_declaration":
		return c.declaration(n)
	case "statement_block":
		return c.block(n)
	case "if_statement":
		return c.ifStatement(n)
	case "switch_statement":
		return c.switchStatement(n)
	case "for_statement":
		return c.forStatement(n)
	case "for_in_statement", "for_of_statement":
		return c.forInStatement(n)
	case "while_statement":
		return c.node(ast.While, n,
			c.expression(n.ChildByFieldName("condition")),
			c.body(n.ChildByFieldName("body")))
	case "do_statement":
		return c.node(ast.Do, n,
			c.body(n.ChildByFieldName("body")),
			c.expression(n.ChildByFieldName("condition")))
	case "try_statement":
		return c.tryStatement(n)
	case "with_statement":
		return c.node(ast.With, n,
			c.expression(n.ChildByFieldName("object")),
			c.body(n.ChildByFieldName("body")))
	case "break_statement", "continue_statement":
		kind := ast.Break
		if n.Type() == "continue_statement" {
			kind = ast.Continue
		}
		jump := c.node(kind, n)
		if label := n.ChildByFieldName("label"); label != nil {
			jump.AppendChild(c.labelName(label))
		}
		return jump
	case "return_statement":
		ret := c.node(ast.Return, n)
		if value := firstNamed(n); value != nil {
			ret.AppendChild(c.expression(value))
		}
		return ret
	case "throw_statement":
		return c.node(ast.Throw, n, c.expression(firstNamed(n)))
	case "empty_statement":
		return c.node(ast.Empty, n)
	case "debugger_statement":
		return c.node(ast.Debugger, n)
	case "labeled_statement":
		return c.labeledStatement(n)
	case "function_declaration", "generator_function_declaration":
		return c.function(n)
	case "class_declaration":
		return c.class(n)
	case "import_statement":
		return c.importStatement(n)
	case "export_statement":
		return c.exportStatement(n)
	case "comment", "hash_bang_line":
		return nil
	}

	other := c.node(ast.Other, n)
	other.Str = n.Type()
	for _, child := range namedChildren(n) {
		other.AppendChild(c.expression(child))
	}
	return other
}

func (c *converter) block(n *sitter.Node) *ast.Node {
	b := c.node(ast.Block, n)
	c.appendStatements(b, n)
	return b
}

// body returns n as a BLOCK, wrapping single statements.
func (c *converter) body(n *sitter.Node) *ast.Node {
	if n == nil {
		return ast.NewNode(ast.Block)
	}
	if n.Type() == "statement_block" {
		return c.block(n)
	}
	b := c.node(ast.Block, n)
	if stmt := c.statement(n); stmt != nil {
		b.AppendChild(stmt)
	}
	return b
}

func (c *converter) labelName(n *sitter.Node) *ast.Node {
	l := c.node(ast.LabelName, n)
	l.Str = c.text(n)
	return l
}

func (c *converter) declaration(n *sitter.Node) *ast.Node {
	kind := ast.Var
	if n.Type() == "lexical_declaration" {
		kind = ast.Let
		if hasToken(n, "const") {
			kind = ast.Const
		}
	}
	decl := c.node(kind, n)
	for _, child := range namedChildren(n) {
		if child.Type() != "variable_declarator" {
			continue
		}
		decl.AppendChild(c.declarator(child.ChildByFieldName("name"), child.ChildByFieldName("value")))
	}
	return decl
}

func (c *converter) declarator(name, value *sitter.Node) *ast.Node {
	if name.Type() == "identifier" {
		out := c.node(ast.Name, name)
		out.Str = c.text(name)
		if value != nil {
			out.AppendChild(c.expression(value))
		}
		return out
	}
	lhs := c.node(ast.DestructuringLHS, name, c.pattern(name))
	if value != nil {
		lhs.AppendChild(c.expression(value))
	}
	return lhs
}

func (c *converter) ifStatement(n *sitter.Node) *ast.Node {
	out := c.node(ast.If, n,
		c.expression(n.ChildByFieldName("condition")),
		c.body(n.ChildByFieldName("consequence")))
	if alt := n.ChildByFieldName("alternative"); alt != nil {
		if alt.Type() == "else_clause" {
			alt = firstNamed(alt)
		}
		out.AppendChild(c.body(alt))
	}
	return out
}

func (c *converter) switchStatement(n *sitter.Node) *ast.Node {
	out := c.node(ast.Switch, n, c.expression(n.ChildByFieldName("value")))
	body := n.ChildByFieldName("body")
	if body == nil {
		return out
	}
	for _, clause := range namedChildren(body) {
		switch clause.Type() {
		case "switch_case":
			value := clause.ChildByFieldName("value")
			stmts := c.node(ast.Block, clause)
			for _, child := range namedChildren(clause) {
				if sameNode(child, value) {
					continue
				}
				if stmt := c.statement(child); stmt != nil {
					stmts.AppendChild(stmt)
				}
			}
			out.AppendChild(c.node(ast.Case, clause, c.expression(value), stmts))
		case "switch_default":
			stmts := c.node(ast.Block, clause)
			c.appendStatements(stmts, clause)
			out.AppendChild(c.node(ast.DefaultCase, clause, stmts))
		}
	}
	return out
}

func (c *converter) forStatement(n *sitter.Node) *ast.Node {
	return c.node(ast.For, n,
		c.forClause(n.ChildByFieldName("initializer"), true),
		c.forClause(n.ChildByFieldName("condition"), false),
		c.forClause(n.ChildByFieldName("increment"), false),
		c.body(n.ChildByFieldName("body")))
}

// forClause converts one of the three for(;;) header parts. Missing parts
// become EMPTY.
func (c *converter) forClause(n *sitter.Node, init bool) *ast.Node {
	if n == nil {
		return ast.NewNode(ast.Empty)
	}
	switch n.Type() {
	case "empty_statement", ";":
		return c.node(ast.Empty, n)
	case "expression_statement":
		if e := firstNamed(n); e != nil {
			return c.expression(e)
		}
		return c.node(ast.Empty, n)
	case "variable_declaration", "lexical_declaration":
		if init {
			return c.declaration(n)
		}
	}
	return c.expression(n)
}

func (c *converter) forInStatement(n *sitter.Node) *ast.Node {
	kind := ast.ForIn
	declKind := ast.Invalid
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || child.IsNamed() {
			continue
		}
		switch child.Type() {
		case "of":
			kind = ast.ForOf
		case "var":
			declKind = ast.Var
		case "let":
			declKind = ast.Let
		case "const":
			declKind = ast.Const
		}
	}

	left := n.ChildByFieldName("left")
	var lhs *ast.Node
	if declKind != ast.Invalid {
		lhs = c.node(declKind, left, c.declarator(left, nil))
	} else {
		lhs = c.target(left)
	}

	out := c.node(kind, n,
		lhs,
		c.expression(n.ChildByFieldName("right")),
		c.body(n.ChildByFieldName("body")))
	if hasToken(n, "await") {
		out.Set(ast.FlagAwaitLoop)
	}
	return out
}

func (c *converter) tryStatement(n *sitter.Node) *ast.Node {
	out := c.node(ast.Try, n, c.body(n.ChildByFieldName("body")))
	if handler := n.ChildByFieldName("handler"); handler != nil {
		param := ast.NewNode(ast.Empty)
		if p := handler.ChildByFieldName("parameter"); p != nil {
			param = c.pattern(p)
		}
		out.AppendChild(c.node(ast.Catch, handler, param, c.body(handler.ChildByFieldName("body"))))
	}
	if finalizer := n.ChildByFieldName("finalizer"); finalizer != nil {
		out.AppendChild(c.body(finalizer.ChildByFieldName("body")))
	}
	return out
}

func (c *converter) labeledStatement(n *sitter.Node) *ast.Node {
	label := n.ChildByFieldName("label")
	body := n.ChildByFieldName("body")
	if body == nil {
		for _, child := range namedChildren(n) {
			if !sameNode(child, label) {
				body = child
			}
		}
	}
	out := c.node(ast.Label, n, c.labelName(label))
	if stmt := c.statement(body); stmt != nil {
		out.AppendChild(stmt)
	} else {
		out.AppendChild(ast.NewNode(ast.Empty))
	}
	return out
}

func (c *converter) importStatement(n *sitter.Node) *ast.Node {
	out := c.node(ast.Import, n)
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		for _, child := range namedChildren(node) {
			switch child.Type() {
			case "identifier":
				out.AppendChild(c.name(child))
			case "import_specifier":
				local := child.ChildByFieldName("alias")
				if local == nil {
					local = child.ChildByFieldName("name")
				}
				if local != nil {
					out.AppendChild(c.name(local))
				}
			case "import_clause", "named_imports", "namespace_import":
				walk(child)
			}
		}
	}
	walk(n)
	return out
}

func (c *converter) exportStatement(n *sitter.Node) *ast.Node {
	out := c.node(ast.Export, n)
	if decl := n.ChildByFieldName("declaration"); decl != nil {
		stmt := c.statement(decl)
		stmt.Set(ast.FlagExported)
		out.AppendChild(stmt)
		return out
	}
	if n.ChildByFieldName("source") != nil {
		return out
	}
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "export_clause":
			for _, spec := range namedChildren(child) {
				if local := spec.ChildByFieldName("name"); local != nil && local.Type() == "identifier" {
					out.AppendChild(c.name(local))
				}
			}
		case "function_declaration", "generator_function_declaration", "class_declaration":
			stmt := c.statement(child)
			stmt.Set(ast.FlagExported)
			out.AppendChild(stmt)
		default:
			out.AppendChild(c.expression(child))
		}
	}
	return out
}

func (c *converter) name(n *sitter.Node) *ast.Node {
	out := c.node(ast.Name, n)
	out.Str = c.text(n)
	return out
}

// function converts declarations, expressions, arrows and methods.
func (c *converter) function(n *sitter.Node) *ast.Node {
	fn := c.node(ast.Function, n)
	if strings.Contains(n.Type(), "generator") || hasToken(n, "*") {
		fn.Set(ast.FlagGenerator)
	}
	if hasToken(n, "async") {
		fn.Set(ast.FlagAsync)
	}

	if name := n.ChildByFieldName("name"); name != nil && name.Type() == "identifier" && n.Type() != "method_definition" {
		fn.AppendChild(c.name(name))
	} else {
		fn.AppendChild(ast.NewNode(ast.Empty))
	}

	params := c.node(ast.ParamList, n)
	if p := n.ChildByFieldName("parameters"); p != nil {
		for _, child := range namedChildren(p) {
			params.AppendChild(c.pattern(child))
		}
	} else if p := n.ChildByFieldName("parameter"); p != nil {
		params.AppendChild(c.pattern(p))
	}
	fn.AppendChild(params)

	body := n.ChildByFieldName("body")
	switch {
	case body == nil:
		fn.AppendChild(ast.NewNode(ast.Block))
	case body.Type() == "statement_block":
		fn.AppendChild(c.block(body))
	default:
		ret := c.node(ast.Return, body, c.expression(body))
		fn.AppendChild(c.node(ast.Block, body, ret))
	}

	if n.Type() == "arrow_function" {
		fn.Set(ast.FlagArrow)
	}
	return fn
}

func (c *converter) class(n *sitter.Node) *ast.Node {
	cls := c.node(ast.Class, n)
	if name := n.ChildByFieldName("name"); name != nil {
		cls.AppendChild(c.name(name))
	} else {
		cls.AppendChild(ast.NewNode(ast.Empty))
	}

	heritage := ast.NewNode(ast.Empty)
	for _, child := range namedChildren(n) {
		if child.Type() == "class_heritage" {
			if e := firstNamed(child); e != nil {
				heritage = c.expression(e)
			}
		}
	}
	cls.AppendChild(heritage)

	members := c.node(ast.ClassMembers, n)
	if body := n.ChildByFieldName("body"); body != nil {
		for _, member := range namedChildren(body) {
			switch member.Type() {
			case "method_definition":
				members.AppendChild(c.method(member))
			case "field_definition":
				prop := c.propertyKey(member, member.ChildByFieldName("property"))
				if hasToken(member, "static") {
					prop.Set(ast.FlagStatic)
				}
				if value := member.ChildByFieldName("value"); value != nil {
					prop.AppendChild(c.expression(value))
				}
				members.AppendChild(prop)
			case "class_static_block":
				b := c.node(ast.Block, member)
				if body := member.ChildByFieldName("body"); body != nil {
					c.appendStatements(b, body)
				}
				members.AppendChild(b)
			default:
				members.AppendChild(c.expression(member))
			}
		}
	}
	cls.AppendChild(members)
	return cls
}

func (c *converter) method(n *sitter.Node) *ast.Node {
	prop := c.propertyKey(n, n.ChildByFieldName("name"))
	if hasToken(n, "static") {
		prop.Set(ast.FlagStatic)
	}
	prop.AppendChild(c.function(n))
	return prop
}

// propertyKey creates a PROPERTY for key. Computed keys become the first
// child; plain keys are stored in Str.
func (c *converter) propertyKey(at, key *sitter.Node) *ast.Node {
	prop := c.node(ast.Property, at)
	if key == nil {
		return prop
	}
	switch key.Type() {
	case "computed_property_name":
		prop.Set(ast.FlagComputed)
		prop.AppendChild(c.expression(firstNamed(key)))
	case "string":
		prop.Str = unquote(c.text(key))
	default:
		prop.Str = c.text(key)
	}
	return prop
}

// pattern converts a binding or assignment target.
func (c *converter) pattern(n *sitter.Node) *ast.Node {
	c.enter(n)
	defer c.leave()

	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return c.name(n)
	case "object_pattern", "array_pattern":
		p := c.node(ast.Pattern, n)
		p.Str = strings.TrimSuffix(n.Type(), "_pattern")
		for _, child := range namedChildren(n) {
			p.AppendChild(c.pattern(child))
		}
		return p
	case "pair_pattern":
		prop := c.propertyKey(n, n.ChildByFieldName("key"))
		prop.AppendChild(c.pattern(n.ChildByFieldName("value")))
		return prop
	case "assignment_pattern", "object_assignment_pattern":
		return c.node(ast.DefaultValue, n,
			c.pattern(n.ChildByFieldName("left")),
			c.expression(n.ChildByFieldName("right")))
	case "rest_pattern":
		return c.node(ast.Rest, n, c.pattern(firstNamed(n)))
	}
	return c.expression(n)
}

// target converts the left side of an assignment or for-in head.
func (c *converter) target(n *sitter.Node) *ast.Node {
	if n.Type() == "parenthesized_expression" {
		return c.target(firstNamed(n))
	}
	if strings.HasSuffix(n.Type(), "_pattern") {
		return c.pattern(n)
	}
	return c.expression(n)
}

func (c *converter) expression(n *sitter.Node) *ast.Node {
	if n == nil {
		return ast.NewNode(ast.Empty)
	}
	c.enter(n)
	defer c.leave()

	switch n.Type() {
	case "parenthesized_expression":
		return c.expression(firstNamed(n))
	case "identifier", "undefined", "shorthand_property_identifier":
		return c.name(n)
	case "this":
		return c.node(ast.This, n)
	case "super":
		return c.node(ast.Super, n)
	case "true":
		return c.node(ast.True, n)
	case "false":
		return c.node(ast.False, n)
	case "null":
		return c.node(ast.Null, n)
	case "number":
		kind := ast.Number
		if strings.HasSuffix(c.text(n), "n") {
			kind = ast.BigInt
		}
		lit := c.node(kind, n)
		lit.Str = c.text(n)
		return lit
	case "string":
		lit := c.node(ast.String, n)
		lit.Str = unquote(c.text(n))
		return lit
	case "regex":
		lit := c.node(ast.Regexp, n)
		lit.Str = c.text(n)
		return lit
	case "template_string":
		tpl := c.node(ast.Template, n)
		for _, child := range namedChildren(n) {
			if child.Type() == "template_substitution" {
				tpl.AppendChild(c.expression(firstNamed(child)))
			}
		}
		return tpl
	case "call_expression":
		return c.call(n)
	case "new_expression":
		out := c.node(ast.New, n, c.expression(n.ChildByFieldName("constructor")))
		if args := n.ChildByFieldName("arguments"); args != nil {
			for _, arg := range namedChildren(args) {
				out.AppendChild(c.expression(arg))
			}
		}
		return out
	case "member_expression":
		out := c.node(ast.GetProp, n, c.expression(n.ChildByFieldName("object")))
		if prop := n.ChildByFieldName("property"); prop != nil {
			out.Str = c.text(prop)
		}
		if n.ChildByFieldName("optional_chain") != nil || hasToken(n, "?.") {
			out.Set(ast.FlagOptional)
		}
		return out
	case "subscript_expression":
		out := c.node(ast.GetElem, n,
			c.expression(n.ChildByFieldName("object")),
			c.expression(n.ChildByFieldName("index")))
		if n.ChildByFieldName("optional_chain") != nil || hasToken(n, "?.") {
			out.Set(ast.FlagOptional)
		}
		return out
	case "assignment_expression":
		return c.node(ast.Assign, n,
			c.target(n.ChildByFieldName("left")),
			c.expression(n.ChildByFieldName("right")))
	case "augmented_assignment_expression":
		out := c.node(ast.AssignOp, n,
			c.target(n.ChildByFieldName("left")),
			c.expression(n.ChildByFieldName("right")))
		out.Str = c.operator(n)
		return out
	case "update_expression":
		kind := ast.Inc
		if c.operator(n) == "--" {
			kind = ast.Dec
		}
		out := c.node(kind, n, c.expression(n.ChildByFieldName("argument")))
		if first := n.Child(0); first != nil && !first.IsNamed() {
			out.Set(ast.FlagPrefix)
		}
		return out
	case "unary_expression":
		return c.unary(n)
	case "binary_expression":
		return c.binary(n)
	case "ternary_expression":
		return c.node(ast.Hook, n,
			c.expression(n.ChildByFieldName("condition")),
			c.expression(n.ChildByFieldName("consequence")),
			c.expression(n.ChildByFieldName("alternative")))
	case "sequence_expression":
		out := c.node(ast.Comma, n)
		c.flattenSequence(out, n)
		return out
	case "object":
		return c.object(n)
	case "array":
		out := c.node(ast.ArrayLit, n)
		for _, child := range namedChildren(n) {
			out.AppendChild(c.expression(child))
		}
		return out
	case "function", "function_expression", "generator_function", "arrow_function":
		return c.function(n)
	case "class":
		return c.class(n)
	case "spread_element":
		return c.node(ast.Spread, n, c.expression(firstNamed(n)))
	case "yield_expression":
		out := c.node(ast.Yield, n)
		if arg := firstNamed(n); arg != nil {
			out.AppendChild(c.expression(arg))
		}
		if hasToken(n, "*") {
			out.Set(ast.FlagGenerator)
		}
		return out
	case "await_expression":
		return c.node(ast.Await, n, c.expression(firstNamed(n)))
	case "object_pattern", "array_pattern":
		return c.pattern(n)
	case "property_identifier", "private_property_identifier":
		lit := c.node(ast.String, n)
		lit.Str = c.text(n)
		return lit
	case "statement_identifier":
		return c.labelName(n)
	}

	other := c.node(ast.Other, n)
	other.Str = n.Type()
	for _, child := range namedChildren(n) {
		other.AppendChild(c.expression(child))
	}
	return other
}

func (c *converter) call(n *sitter.Node) *ast.Node {
	callee := c.expression(n.ChildByFieldName("function"))
	args := n.ChildByFieldName("arguments")
	if args != nil && args.Type() == "template_string" {
		return c.node(ast.TaggedTemplate, n, callee, c.expression(args))
	}
	out := c.node(ast.Call, n, callee)
	if args != nil {
		for _, arg := range namedChildren(args) {
			out.AppendChild(c.expression(arg))
		}
	}
	if n.ChildByFieldName("optional_chain") != nil || hasToken(n, "?.") {
		out.Set(ast.FlagOptional)
	}
	return out
}

func (c *converter) unary(n *sitter.Node) *ast.Node {
	arg := c.expression(n.ChildByFieldName("argument"))
	switch op := c.operator(n); op {
	case "!":
		return c.node(ast.Not, n, arg)
	case "typeof":
		return c.node(ast.TypeOf, n, arg)
	case "void":
		return c.node(ast.Void, n, arg)
	case "delete":
		return c.node(ast.Delete, n, arg)
	default:
		out := c.node(ast.UnaryOp, n, arg)
		out.Str = op
		return out
	}
}

func (c *converter) binary(n *sitter.Node) *ast.Node {
	left := c.expression(n.ChildByFieldName("left"))
	right := c.expression(n.ChildByFieldName("right"))
	switch op := c.operator(n); op {
	case "&&":
		return c.node(ast.And, n, left, right)
	case "||":
		return c.node(ast.Or, n, left, right)
	case "??":
		return c.node(ast.Coalesce, n, left, right)
	case "instanceof":
		return c.node(ast.InstanceOf, n, left, right)
	case "in":
		return c.node(ast.In, n, left, right)
	default:
		out := c.node(ast.BinOp, n, left, right)
		out.Str = op
		return out
	}
}

func (c *converter) flattenSequence(out *ast.Node, n *sitter.Node) {
	for _, child := range namedChildren(n) {
		if child.Type() == "sequence_expression" {
			c.flattenSequence(out, child)
			continue
		}
		out.AppendChild(c.expression(child))
	}
}

func (c *converter) object(n *sitter.Node) *ast.Node {
	out := c.node(ast.ObjectLit, n)
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "pair":
			prop := c.propertyKey(child, child.ChildByFieldName("key"))
			prop.AppendChild(c.expression(child.ChildByFieldName("value")))
			out.AppendChild(prop)
		case "shorthand_property_identifier":
			prop := c.node(ast.Property, child, c.name(child))
			prop.Str = c.text(child)
			out.AppendChild(prop)
		case "method_definition":
			out.AppendChild(c.method(child))
		default:
			out.AppendChild(c.expression(child))
		}
	}
	return out
}

// operator returns the text of the operator field, falling back to the first
// anonymous child.
func (c *converter) operator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return c.text(op)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil && !child.IsNamed() {
			return child.Type()
		}
	}
	return ""
}

func unquote(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}
