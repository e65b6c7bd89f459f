package cfg

import (
	"fmt"

	"github.com/l3aro/go-jsflow/pkg/ast"
)

// Analysis builds a Graph from a syntax tree in a single depth-first pass.
//
// Statements get a CFG node the first time they are the source or target of
// an edge. Expressions never get nodes of their own: a condition is
// represented by the statement owning it (IF, WHILE, DO, FOR, CASE).
//
// An Analysis is not safe for concurrent use, and the tree must not be
// mutated while Process runs.
type Analysis struct {
	traverseFunctions bool
	edgeAnnotations   bool
	accumulate        bool
	tolerant          bool

	root  *ast.Node
	graph *Graph

	// positions numbers nodes in pre-order; it seeds the priority order.
	positions   map[*ast.Node]int
	posCounter  int
	handlers    []handler
	finallyExit map[*ast.Node][]*ast.Node
}

// handler is an exception handler stack entry: a TRY or a FUNCTION.
type handler struct {
	node *ast.Node
	// inCatch is set once traversal has left the try block of a TRY that
	// also has a finally; only the finally still applies.
	inCatch bool
}

// Option configures an Analysis.
type Option func(*Analysis)

// WithAccumulate keeps the nodes of previously processed roots in the graph
// when Process is called again. By default every Process call starts from an
// empty graph.
func WithAccumulate(enabled bool) Option {
	return func(a *Analysis) { a.accumulate = enabled }
}

// WithTolerant makes unresolvable break and continue targets leave the jump
// unconnected instead of panicking. Intended for editors working on
// incomplete code.
func WithTolerant(enabled bool) Option {
	return func(a *Analysis) { a.tolerant = enabled }
}

// NewAnalysis creates an Analysis. When traverseFunctions is false, nested
// function bodies are skipped and get no CFG nodes. edgeAnnotations is
// passed on to the built Graph.
func NewAnalysis(traverseFunctions, edgeAnnotations bool, opts ...Option) *Analysis {
	a := &Analysis{
		traverseFunctions: traverseFunctions,
		edgeAnnotations:   edgeAnnotations,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Graph returns the graph built by the last Process call.
func (a *Analysis) Graph() *Graph {
	return a.graph
}

// Process builds the graph for root. externs is not traversed.
func (a *Analysis) Process(externs, root *ast.Node) {
	a.root = root
	a.positions = make(map[*ast.Node]int)
	a.posCounter = 0
	a.handlers = a.handlers[:0]
	a.finallyExit = make(map[*ast.Node][]*ast.Node)

	if a.graph == nil || !a.accumulate {
		a.graph = NewGraph(root, a.edgeAnnotations)
	} else {
		a.graph.root = root
	}
	a.graph.entry = a.graph.CreateNode(fallThrough(root))

	a.traverse(root)
	a.prioritize()
}

type frame struct {
	n    *ast.Node
	next *ast.Node
}

// traverse walks the tree with an explicit stack, calling shouldTraverse
// before a node's children and visit after them.
func (a *Analysis) traverse(root *ast.Node) {
	if !a.shouldTraverse(root, nil) {
		return
	}
	stack := []*frame{{n: root, next: root.FirstChild}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if child := top.next; child != nil {
			top.next = child.Next
			if a.shouldTraverse(child, top.n) {
				stack = append(stack, &frame{n: child, next: child.FirstChild})
			} else if a.traverseFunctions && child.Kind != ast.Function {
				a.traverseFunctionLiterals(child)
			}
			continue
		}
		stack = stack[:len(stack)-1]
		a.visit(top.n)
	}
}

// traverseFunctionLiterals gives every function literal inside an expression
// its own sub-traversal. Each one is a separate graph region entered only
// through its FUNCTION node.
func (a *Analysis) traverseFunctionLiterals(expr *ast.Node) {
	var literals []*ast.Node
	ast.Walk(expr, func(n *ast.Node) bool {
		if n.Kind == ast.Function {
			literals = append(literals, n)
			return false
		}
		return true
	})
	for _, fn := range literals {
		a.traverse(fn)
	}
}

func (a *Analysis) shouldTraverse(n, parent *ast.Node) bool {
	a.positions[n] = a.posCounter
	a.posCounter++

	switch n.Kind {
	case ast.Function:
		if a.traverseFunctions || n == a.graph.entry.value {
			a.handlers = append(a.handlers, handler{node: n})
			return true
		}
		return false
	case ast.Try:
		a.handlers = append(a.handlers, handler{node: n})
		return true
	case ast.Case, ast.DefaultCase:
		ensureCaseBody(n)
	}

	if parent == nil {
		return true
	}
	switch parent.Kind {
	case ast.For, ast.ForIn, ast.ForOf:
		// Only the body; the header parts are nodes of their own.
		return n == parent.LastChild
	case ast.If, ast.While, ast.With:
		return n != parent.FirstChild
	case ast.Do:
		return n != parent.LastChild
	case ast.Switch, ast.Case, ast.Catch, ast.Label:
		return n != parent.FirstChild
	case ast.Function:
		return n == parent.LastChild
	case ast.Break, ast.Continue, ast.ExprResult, ast.Var, ast.Let, ast.Const,
		ast.Return, ast.Throw, ast.Class, ast.Import, ast.Export, ast.Other:
		return false
	case ast.Try:
		a.leaveTryRegion(n, parent)
	}
	return true
}

// leaveTryRegion updates the handler stack when traversal moves past the try
// block of parent into its catch or finally.
func (a *Analysis) leaveTryRegion(n, try *ast.Node) {
	top := len(a.handlers) - 1
	if top < 0 || a.handlers[top].node != try {
		return
	}
	switch {
	case n == try.SecondChild() && n.Kind == ast.Catch && ast.HasFinally(try):
		a.handlers[top].inCatch = true
	case n != try.FirstChild:
		a.handlers = a.handlers[:top]
	}
}

// ensureCaseBody wraps the statements of a CASE or DEFAULT_CASE into a BLOCK
// when the tree was built without one.
func ensureCaseBody(n *ast.Node) {
	first := n.FirstChild
	if n.Kind == ast.Case {
		if first == nil {
			return
		}
		first = first.Next
	}
	if first != nil && first.Kind == ast.Block && first.Next == nil {
		return
	}
	body := ast.NewNode(ast.Block)
	for c := first; c != nil; {
		next := c.Next
		body.AppendChild(c.Detach())
		c = next
	}
	n.AppendChild(body)
}

func (a *Analysis) visit(n *ast.Node) {
	switch n.Kind {
	case ast.If:
		a.handleIf(n)
	case ast.While:
		a.handleWhile(n)
	case ast.Do:
		a.handleDo(n)
	case ast.For:
		a.handleFor(n)
	case ast.ForIn, ast.ForOf:
		a.handleForIn(n)
	case ast.Switch:
		a.handleSwitch(n)
	case ast.Case:
		a.handleCase(n)
	case ast.DefaultCase:
		a.createEdge(n, Unconditional, n.FirstChild)
	case ast.Block, ast.Script:
		a.handleStmtList(n)
	case ast.Function:
		a.handleFunction(n)
	case ast.Throw:
		a.handleThrow(n)
	case ast.Try:
		a.createEdge(n, Unconditional, n.FirstChild)
	case ast.Catch:
		a.createEdge(n, Unconditional, n.LastChild)
	case ast.Break:
		a.handleBreak(n)
	case ast.Continue:
		a.handleContinue(n)
	case ast.Return:
		a.handleReturn(n)
	case ast.With:
		a.createEdge(n, Unconditional, n.LastChild)
		a.connectToPossibleExceptionHandler(n, n.FirstChild)
	case ast.Label:
	default:
		a.handleStmt(n)
	}
}

func (a *Analysis) handleIf(n *ast.Node) {
	thenBlock := n.SecondChild()
	elseBlock := thenBlock.Next
	a.createEdge(n, OnTrue, fallThrough(thenBlock))
	if elseBlock == nil {
		a.createEdge(n, OnFalse, a.follow(n))
	} else {
		a.createEdge(n, OnFalse, fallThrough(elseBlock))
	}
	a.connectToPossibleExceptionHandler(n, ast.Condition(n))
}

func (a *Analysis) handleWhile(n *ast.Node) {
	a.createEdge(n, OnTrue, fallThrough(n.SecondChild()))
	a.createEdge(n, OnFalse, a.follow(n))
	a.connectToPossibleExceptionHandler(n, ast.Condition(n))
}

func (a *Analysis) handleDo(n *ast.Node) {
	// ON_TRUE covers the first iteration as well as the repeated ones.
	a.createEdge(n, OnTrue, fallThrough(n.FirstChild))
	a.createEdge(n, OnFalse, a.follow(n))
	a.connectToPossibleExceptionHandler(n, ast.Condition(n))
}

// handleFor wires for (init; cond; iter) body. The FOR node stands for the
// condition check; init and iter are nodes of their own, which makes the
// graph isomorphic to init; while (cond) { body; iter }.
func (a *Analysis) handleFor(n *ast.Node) {
	init := n.FirstChild
	cond := init.Next
	iter := cond.Next
	body := iter.Next

	a.createEdge(init, Unconditional, n)
	a.createEdge(n, OnTrue, fallThrough(body))
	a.createEdge(n, OnFalse, a.follow(n))
	a.createEdge(iter, Unconditional, n)

	a.connectToPossibleExceptionHandler(init, init)
	a.connectToPossibleExceptionHandler(n, cond)
	a.connectToPossibleExceptionHandler(iter, iter)
}

// handleForIn wires for (item in/of collection) body. The collection is
// evaluated once, then the loop node decides whether another item exists.
func (a *Analysis) handleForIn(n *ast.Node) {
	collection := n.SecondChild()
	body := n.LastChild

	a.createEdge(collection, Unconditional, n)
	a.createEdge(n, OnTrue, fallThrough(body))
	a.createEdge(n, OnFalse, a.follow(n))
	a.connectToPossibleExceptionHandler(n, collection)
}

func (a *Analysis) handleSwitch(n *ast.Node) {
	clauses := n.SecondChild()
	switch {
	case nextOfKind(clauses, ast.Case) != nil:
		a.createEdge(n, Unconditional, nextOfKind(clauses, ast.Case))
	case clauses != nil:
		a.createEdge(n, Unconditional, clauses)
	default:
		a.createEdge(n, Unconditional, a.follow(n))
	}
	a.connectToPossibleExceptionHandler(n, n.FirstChild)
}

// handleCase sends a failed match to the next CASE. DEFAULT_CASE is only
// tried after every CASE, wherever it appears.
func (a *Analysis) handleCase(n *ast.Node) {
	a.createEdge(n, OnTrue, n.SecondChild())
	if next := nextOfKind(n.Next, ast.Case); next != nil {
		a.createEdge(n, OnFalse, next)
	} else if def := nextOfKind(n.Parent.SecondChild(), ast.DefaultCase); def != nil {
		a.createEdge(n, OnFalse, def)
	} else {
		a.createEdge(n, OnFalse, a.follow(n))
	}
	a.connectToPossibleExceptionHandler(n, n.FirstChild)
}

func (a *Analysis) handleStmtList(n *ast.Node) {
	// Function declarations are hoisted; control never enters them here.
	child := n.FirstChild
	for child != nil && child.Kind == ast.Function {
		child = child.Next
	}
	if child != nil {
		a.createEdge(n, Unconditional, fallThrough(child))
	} else {
		a.createEdge(n, Unconditional, a.follow(n))
	}

	if n.Kind != ast.Block || !n.Synthetic || n.Parent == nil {
		return
	}
	switch n.Parent.Kind {
	case ast.Case, ast.DefaultCase, ast.Try:
	default:
		a.createEdge(n, SyntheticBlock, a.follow(n))
	}
}

func (a *Analysis) handleFunction(n *ast.Node) {
	a.createEdge(n, Unconditional, fallThrough(ast.FunctionBody(n)))
	top := len(a.handlers) - 1
	if top < 0 || a.handlers[top].node != n {
		panic("cfg: handler stack out of sync at " + n.String())
	}
	a.handlers = a.handlers[:top]
}

func (a *Analysis) handleStmt(n *ast.Node) {
	a.createEdge(n, Unconditional, a.follow(n))
	a.connectToPossibleExceptionHandler(n, n)
}

// handleThrow only has exceptional successors. An exception that escapes
// every handler of the function reaches its implicit return.
func (a *Analysis) handleThrow(n *ast.Node) {
	caught, lastJump := a.routeException(n)
	if caught {
		return
	}
	if lastJump == n {
		a.createEdge(n, OnException, nil)
	} else {
		a.addFinallyExit(lastJump, nil)
	}
}

// handleBreak walks outward to the break target. The first finally crossed
// on the way gets a direct edge; the rest are chained through finallyExit so
// that each finally's exit continues to the next one.
func (a *Analysis) handleBreak(n *ast.Node) {
	label := ast.BreakLabel(n)
	cur, lastJump := n, n
	var previous *ast.Node
	for !isBreakTarget(cur, label) {
		lastJump = a.crossFinally(n, cur, previous, lastJump)
		if cur.Parent == nil || cur.Kind == ast.Function {
			a.fail("cannot find break target for %q at line %d", label, n.Line)
			return
		}
		previous, cur = cur, cur.Parent
	}
	target := followNode(n, cur, a)
	if lastJump == n {
		a.createEdge(n, Unconditional, target)
	} else {
		a.addFinallyExit(lastJump, target)
	}
}

func (a *Analysis) handleContinue(n *ast.Node) {
	label := ast.BreakLabel(n)
	cur, lastJump := n, n
	var previous *ast.Node
	for !isContinueTarget(cur, label) {
		lastJump = a.crossFinally(n, cur, previous, lastJump)
		if cur.Parent == nil || cur.Kind == ast.Function {
			a.fail("cannot find continue target for %q at line %d", label, n.Line)
			return
		}
		previous, cur = cur, cur.Parent
	}
	target := cur
	if cur.Kind == ast.For {
		target = cur.Child(2)
	}
	if lastJump == n {
		a.createEdge(n, Unconditional, target)
	} else {
		a.addFinallyExit(lastJump, target)
	}
}

// crossFinally interposes the finally of cur when a jump from n leaves its
// try or catch. It returns the new last jump.
func (a *Analysis) crossFinally(n, cur, previous, lastJump *ast.Node) *ast.Node {
	if cur.Kind != ast.Try {
		return lastJump
	}
	fin := ast.FinallyBlock(cur)
	if fin == nil || fin == previous {
		return lastJump
	}
	if lastJump == n {
		a.createEdge(lastJump, Unconditional, fallThrough(fin))
	} else {
		a.addFinallyExit(lastJump, fallThrough(fin))
	}
	return cur
}

func (a *Analysis) handleReturn(n *ast.Node) {
	var lastJump *ast.Node
	for i := len(a.handlers) - 1; i >= 0; i-- {
		h := a.handlers[i]
		if h.node.Kind == ast.Function {
			break
		}
		fin := ast.FinallyBlock(h.node)
		if fin == nil {
			continue
		}
		if lastJump == nil {
			a.createEdge(n, Unconditional, fin)
		} else {
			a.addFinallyExit(lastJump, fallThrough(fin))
		}
		lastJump = h.node
	}

	if n.HasChildren() {
		a.connectToPossibleExceptionHandler(n, n.FirstChild)
	}

	if lastJump == nil {
		a.createEdge(n, Unconditional, nil)
	} else {
		a.addFinallyExit(lastJump, nil)
	}
}

// connectToPossibleExceptionHandler adds an ON_EX edge from node to the
// innermost handler if target may throw.
func (a *Analysis) connectToPossibleExceptionHandler(node, target *ast.Node) {
	if target == nil || !mayThrowException(target) {
		return
	}
	a.routeException(node)
}

// routeException connects node to the handlers an exception thrown there
// would reach. It reports whether a catch handles it, and the last finally
// crossed otherwise.
func (a *Analysis) routeException(node *ast.Node) (caught bool, lastJump *ast.Node) {
	lastJump = node
	for i := len(a.handlers) - 1; i >= 0; i-- {
		h := a.handlers[i]
		if h.node.Kind == ast.Function {
			return false, lastJump
		}
		catch := ast.CatchClause(h.node)
		if catch != nil && !h.inCatch {
			if lastJump == node {
				a.createEdge(node, OnException, catch)
			} else {
				a.addFinallyExit(lastJump, catch)
			}
			return true, lastJump
		}
		fin := ast.FinallyBlock(h.node)
		if fin == nil {
			continue
		}
		if lastJump == node {
			a.createEdge(node, OnException, fin)
		} else {
			a.addFinallyExit(lastJump, fin)
		}
		lastJump = h.node
	}
	return false, lastJump
}

// addFinallyExit records that leaving the finally of try must continue to
// target (nil for the implicit return).
func (a *Analysis) addFinallyExit(try, target *ast.Node) {
	a.finallyExit[try] = append(a.finallyExit[try], target)
}

func (a *Analysis) createEdge(from *ast.Node, b Branch, to *ast.Node) {
	a.graph.ConnectIfNotFound(from, b, to)
}

func (a *Analysis) follow(n *ast.Node) *ast.Node {
	return followNode(n, n, a)
}

func (a *Analysis) fail(format string, args ...interface{}) {
	if a.tolerant {
		return
	}
	panic(fmt.Sprintf("cfg: "+format, args...))
}

// FollowNode returns the statement control reaches after n completes
// normally, or nil for the implicit return. It ignores pending finally
// exits, so it describes the tree rather than a particular graph.
func FollowNode(n *ast.Node) *ast.Node {
	return followNode(n, n, nil)
}

// followNode computes the follow of node. Leaving a finally block connects
// from to every target recorded for that try when a is non-nil.
func followNode(from, node *ast.Node, a *Analysis) *ast.Node {
	for {
		parent := node.Parent
		if parent == nil || parent.Kind == ast.Function || (a != nil && node == a.root) {
			return nil
		}

		switch parent.Kind {
		case ast.If:
			node = parent
			continue
		case ast.Case, ast.DefaultCase:
			// Fall through into the next clause's body, skipping its test.
			if next := parent.Next; next != nil {
				if next.Kind == ast.Case {
					return next.SecondChild()
				}
				return next.FirstChild
			}
			node = parent
			continue
		case ast.For:
			return parent.Child(2)
		case ast.ForIn, ast.ForOf, ast.While, ast.Do:
			return parent
		case ast.Try:
			fin := ast.FinallyBlock(parent)
			switch {
			case node == parent.FirstChild || node.Kind == ast.Catch:
				if fin != nil {
					return fallThrough(fin)
				}
				node = parent
				continue
			case node == fin:
				if a != nil {
					for _, target := range a.finallyExit[parent] {
						a.createEdge(from, Unconditional, target)
					}
				}
				node = parent
				continue
			}
		}

		next := node.Next
		for next != nil && next.Kind == ast.Function {
			next = next.Next
		}
		if next != nil {
			return fallThrough(next)
		}
		node = parent
	}
}

// FallThrough returns the node control enters when it falls into n.
func FallThrough(n *ast.Node) *ast.Node {
	return fallThrough(n)
}

func fallThrough(n *ast.Node) *ast.Node {
	for {
		switch n.Kind {
		case ast.Do:
			n = n.FirstChild
		case ast.For:
			n = n.FirstChild
		case ast.ForIn, ast.ForOf:
			return n.SecondChild()
		case ast.Label:
			n = n.LastChild
		default:
			return n
		}
	}
}

func nextOfKind(first *ast.Node, kind ast.Kind) *ast.Node {
	for c := first; c != nil; c = c.Next {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// isBreakTarget reports whether target is what a break with label exits.
func isBreakTarget(target *ast.Node, label string) bool {
	return isBreakStructure(target, label != "") && matchLabel(target.Parent, label)
}

func isContinueTarget(target *ast.Node, label string) bool {
	return target.Kind.IsLoop() && matchLabel(target.Parent, label)
}

// matchLabel reports whether one of the LABELs directly wrapping target has
// the given name. An empty label always matches.
func matchLabel(target *ast.Node, label string) bool {
	if label == "" {
		return true
	}
	for ; target != nil && target.Kind == ast.Label; target = target.Parent {
		if target.FirstChild.Str == label {
			return true
		}
	}
	return false
}

func isBreakStructure(n *ast.Node, labeled bool) bool {
	switch n.Kind {
	case ast.For, ast.ForIn, ast.ForOf, ast.Do, ast.While, ast.Switch:
		return true
	case ast.Block, ast.If, ast.Try:
		return labeled
	}
	return false
}

// mayThrowException reports whether evaluating n, excluding parts that are
// CFG nodes of their own, may throw. Reading an unbound name throws and
// operators may call user code through coercion, so only literals, function
// literals, declared names and the operators that never coerce are safe.
func mayThrowException(n *ast.Node) bool {
	switch n.Kind {
	case ast.Function:
		return false
	case ast.Name:
		if !isDeclaredName(n) {
			return true
		}
	case ast.TypeOf:
		// typeof of an unbound name yields "undefined".
		if c := n.FirstChild; c != nil && c.Kind == ast.Name {
			return false
		}
	case ast.Property:
		if n.Has(ast.FlagComputed) {
			return true
		}
	case ast.ExprResult, ast.Var, ast.Let, ast.Const, ast.Export, ast.Empty, ast.Debugger,
		ast.Number, ast.BigInt, ast.String, ast.Regexp, ast.True, ast.False, ast.Null,
		ast.Not, ast.Void, ast.And, ast.Or, ast.Coalesce, ast.Hook, ast.Comma,
		ast.ObjectLit, ast.ArrayLit:
	default:
		return true
	}
	for c := n.FirstChild; c != nil; c = c.Next {
		if !IsEnteringNewNode(c) && mayThrowException(c) {
			return true
		}
	}
	return false
}

// isDeclaredName reports whether the NAME n introduces a binding rather than
// reading one.
func isDeclaredName(n *ast.Node) bool {
	p := n.Parent
	if p == nil {
		return false
	}
	switch p.Kind {
	case ast.Var, ast.Let, ast.Const, ast.ParamList, ast.Import:
		return true
	case ast.Function, ast.Class, ast.Catch:
		return p.FirstChild == n
	}
	return false
}

// IsEnteringNewNode reports whether control moving from n's parent into n
// enters a different CFG node.
func IsEnteringNewNode(n *ast.Node) bool {
	parent := n.Parent
	if parent == nil {
		return true
	}
	switch parent.Kind {
	case ast.Block, ast.Script, ast.Try, ast.DefaultCase:
		return true
	case ast.Function:
		return n != parent.SecondChild()
	case ast.While, ast.Do, ast.If:
		return ast.Condition(parent) != n
	case ast.For:
		return ast.Condition(parent) != n
	case ast.ForIn, ast.ForOf:
		return n == parent.LastChild
	case ast.Switch, ast.Case, ast.Catch, ast.With:
		return n != parent.FirstChild
	}
	return false
}
