package ast

// Walk visits root and its descendants in pre-order using an explicit stack.
// Returning false from fn skips the children of the visited node.
func Walk(root *Node, fn func(n *Node) bool) {
	if root == nil {
		return
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		for c := n.LastChild; c != nil; c = c.Prev {
			stack = append(stack, c)
		}
	}
}

// Count returns the number of nodes in the subtree rooted at n.
func Count(n *Node) int {
	total := 0
	Walk(n, func(*Node) bool {
		total++
		return true
	})
	return total
}

// IsStatementList reports whether n holds a list of statements.
func IsStatementList(n *Node) bool {
	return n != nil && (n.Kind == Script || n.Kind == Block)
}

// IsFunctionDeclaration reports whether n is a named function in statement
// position, which is hoisted rather than executed in sequence.
func IsFunctionDeclaration(n *Node) bool {
	if n == nil || n.Kind != Function || n.FirstChild == nil || n.FirstChild.Kind != Name {
		return false
	}
	p := n.Parent
	return p != nil && (p.Kind == Script || p.Kind == Block || p.Kind == Label || p.Kind == Export)
}

// IsFunctionBody reports whether n is the body block of a function.
func IsFunctionBody(n *Node) bool {
	return n != nil && n.Kind == Block && n.Parent != nil && n.Parent.Kind == Function && n.Parent.LastChild == n
}

// FunctionBody returns the body block of a FUNCTION.
func FunctionBody(fn *Node) *Node {
	return fn.LastChild
}

// FunctionParams returns the PARAM_LIST of a FUNCTION.
func FunctionParams(fn *Node) *Node {
	return fn.SecondChild()
}

// EnclosingFunction returns the nearest FUNCTION strictly above n, or nil.
func EnclosingFunction(n *Node) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == Function {
			return p
		}
	}
	return nil
}

// Condition returns the condition expression of IF, WHILE, DO and FOR, or nil.
func Condition(n *Node) *Node {
	switch n.Kind {
	case If, While:
		return n.FirstChild
	case Do:
		return n.LastChild
	case For:
		return n.SecondChild()
	}
	return nil
}

// IsForInLike reports whether n is FOR_IN or FOR_OF.
func IsForInLike(n *Node) bool {
	return n.Kind == ForIn || n.Kind == ForOf
}

// CatchClause returns the CATCH of a TRY, or nil.
func CatchClause(try *Node) *Node {
	if c := try.SecondChild(); c != nil && c.Kind == Catch {
		return c
	}
	return nil
}

// FinallyBlock returns the finally block of a TRY, or nil.
func FinallyBlock(try *Node) *Node {
	last := try.LastChild
	if last != nil && last != try.FirstChild && last.Kind == Block {
		return last
	}
	return nil
}

// HasFinally reports whether a TRY has a finally block.
func HasFinally(try *Node) bool {
	return try.Kind == Try && FinallyBlock(try) != nil
}

// BreakLabel returns the label of a BREAK or CONTINUE, or "".
func BreakLabel(n *Node) string {
	if n.FirstChild != nil && n.FirstChild.Kind == LabelName {
		return n.FirstChild.Str
	}
	return ""
}

// DeclaredNames returns the NAME nodes bound by a VAR, LET or CONST,
// including names inside destructuring patterns.
func DeclaredNames(decl *Node) []*Node {
	var names []*Node
	for c := decl.FirstChild; c != nil; c = c.Next {
		switch c.Kind {
		case Name:
			names = append(names, c)
		case DestructuringLHS:
			names = append(names, PatternNames(c.FirstChild)...)
		}
	}
	return names
}

// PatternNames returns the binding NAME nodes of a destructuring target.
// Default values and computed keys are skipped.
func PatternNames(target *Node) []*Node {
	var names []*Node
	stack := []*Node{target}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch n.Kind {
		case Name:
			names = append(names, n)
		case DefaultValue:
			stack = append(stack, n.FirstChild)
		case Property:
			stack = append(stack, n.LastChild)
		case Pattern, Rest:
			for c := n.LastChild; c != nil; c = c.Prev {
				stack = append(stack, c)
			}
		}
	}
	return names
}

// IsEquivalent reports whether a and b are structurally identical, ignoring
// source positions.
func IsEquivalent(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Str != b.Str || a.Flags != b.Flags || a.Synthetic != b.Synthetic {
		return false
	}
	ca, cb := a.FirstChild, b.FirstChild
	for ; ca != nil && cb != nil; ca, cb = ca.Next, cb.Next {
		if !IsEquivalent(ca, cb) {
			return false
		}
	}
	return ca == nil && cb == nil
}

// Clone returns a deep copy of n without a parent.
func Clone(n *Node) *Node {
	c := &Node{
		Kind:      n.Kind,
		Str:       n.Str,
		Flags:     n.Flags,
		Synthetic: n.Synthetic,
		Line:      n.Line,
		Column:    n.Column,
		StartByte: n.StartByte,
		EndByte:   n.EndByte,
	}
	for ch := n.FirstChild; ch != nil; ch = ch.Next {
		c.AppendChild(Clone(ch))
	}
	return c
}
