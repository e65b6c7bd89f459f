package ast

import "fmt"

// Flags carries per-node boolean attributes.
type Flags uint16

const (
	FlagGenerator Flags = 1 << iota // function*
	FlagAsync                       // async function
	FlagArrow                       // arrow function
	FlagExported                    // declaration under an export
	FlagOptional                    // optional chain link (a?.b)
	FlagPrefix                      // ++x rather than x++
	FlagComputed                    // computed property key
	FlagStatic                      // static class member
	FlagAwaitLoop                   // for await (... of ...)
)

// Node is a single syntax tree node. Children form a doubly linked list so
// that passes can detach and splice subtrees in constant time.
type Node struct {
	Kind Kind
	// Str is the identifier for NAME and LABEL_NAME, the operator for
	// BINOP/UNARYOP/ASSIGN_OP, the property name for GETPROP/PROPERTY, and
	// the raw text for literals.
	Str   string
	Flags Flags
	// Synthetic marks a BLOCK that demarcates an externally interesting
	// region. Edges leaving it are labeled SYN_BLOCK.
	Synthetic bool

	Line      int // 1-based
	Column    int // 0-based
	StartByte uint32
	EndByte   uint32

	Parent     *Node
	FirstChild *Node
	LastChild  *Node
	Next       *Node
	Prev       *Node
}

// NewNode creates a node of the given kind with children appended in order.
func NewNode(kind Kind, children ...*Node) *Node {
	n := &Node{Kind: kind}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

// NewString creates a node carrying a string payload.
func NewString(kind Kind, s string, children ...*Node) *Node {
	n := NewNode(kind, children...)
	n.Str = s
	return n
}

// NewName is shorthand for NewString(Name, name).
func NewName(name string, children ...*Node) *Node {
	return NewString(Name, name, children...)
}

// Has reports whether all of f are set.
func (n *Node) Has(f Flags) bool { return n.Flags&f == f }

// Set sets f on the node.
func (n *Node) Set(f Flags) { n.Flags |= f }

// HasChildren reports whether the node has at least one child.
func (n *Node) HasChildren() bool { return n.FirstChild != nil }

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.Next {
		count++
	}
	return count
}

// Child returns the i-th child, or nil when out of range.
func (n *Node) Child(i int) *Node {
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.Next
	}
	return c
}

// SecondChild returns FirstChild.Next, or nil.
func (n *Node) SecondChild() *Node {
	if n.FirstChild == nil {
		return nil
	}
	return n.FirstChild.Next
}

// Children returns a snapshot of the direct children.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.Next {
		out = append(out, c)
	}
	return out
}

// AppendChild adds c as the last child. c must be detached.
func (n *Node) AppendChild(c *Node) {
	mustBeDetached(c)
	c.Parent = n
	c.Prev = n.LastChild
	if n.LastChild != nil {
		n.LastChild.Next = c
	} else {
		n.FirstChild = c
	}
	n.LastChild = c
}

// PrependChild adds c as the first child. c must be detached.
func (n *Node) PrependChild(c *Node) {
	mustBeDetached(c)
	c.Parent = n
	c.Next = n.FirstChild
	if n.FirstChild != nil {
		n.FirstChild.Prev = c
	} else {
		n.LastChild = c
	}
	n.FirstChild = c
}

// InsertBefore inserts c immediately before n. n must have a parent.
func (n *Node) InsertBefore(c *Node) {
	mustBeDetached(c)
	p := n.Parent
	if p == nil {
		panic(fmt.Sprintf("ast: InsertBefore on detached %s", n.Kind))
	}
	c.Parent = p
	c.Next = n
	c.Prev = n.Prev
	if n.Prev != nil {
		n.Prev.Next = c
	} else {
		p.FirstChild = c
	}
	n.Prev = c
}

// InsertAfter inserts c immediately after n. n must have a parent.
func (n *Node) InsertAfter(c *Node) {
	mustBeDetached(c)
	p := n.Parent
	if p == nil {
		panic(fmt.Sprintf("ast: InsertAfter on detached %s", n.Kind))
	}
	c.Parent = p
	c.Prev = n
	c.Next = n.Next
	if n.Next != nil {
		n.Next.Prev = c
	} else {
		p.LastChild = c
	}
	n.Next = c
}

// Detach removes n from its parent and returns it.
func (n *Node) Detach() *Node {
	p := n.Parent
	if p == nil {
		return n
	}
	if n.Prev != nil {
		n.Prev.Next = n.Next
	} else {
		p.FirstChild = n.Next
	}
	if n.Next != nil {
		n.Next.Prev = n.Prev
	} else {
		p.LastChild = n.Prev
	}
	n.Parent, n.Prev, n.Next = nil, nil, nil
	return n
}

// ReplaceWith puts r in n's position and detaches n.
func (n *Node) ReplaceWith(r *Node) {
	if n.Parent == nil {
		panic(fmt.Sprintf("ast: ReplaceWith on detached %s", n.Kind))
	}
	n.InsertBefore(r)
	n.Detach()
}

// DetachChildren removes and returns all children.
func (n *Node) DetachChildren() []*Node {
	children := n.Children()
	for _, c := range children {
		c.Detach()
	}
	return children
}

// CopyPosition copies source position information from src.
func (n *Node) CopyPosition(src *Node) *Node {
	n.Line, n.Column = src.Line, src.Column
	n.StartByte, n.EndByte = src.StartByte, src.EndByte
	return n
}

// IsAncestorOf reports whether n is a proper ancestor of d.
func (n *Node) IsAncestorOf(d *Node) bool {
	for p := d.Parent; p != nil; p = p.Parent {
		if p == n {
			return true
		}
	}
	return false
}

// IsAttached reports whether n is root or a descendant of root.
func (n *Node) IsAttached(root *Node) bool {
	return n == root || root.IsAncestorOf(n)
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.Str != "" {
		return fmt.Sprintf("%s %s", n.Kind, n.Str)
	}
	return n.Kind.String()
}

func mustBeDetached(c *Node) {
	if c.Parent != nil || c.Next != nil || c.Prev != nil {
		panic(fmt.Sprintf("ast: %s is still attached", c.Kind))
	}
}
