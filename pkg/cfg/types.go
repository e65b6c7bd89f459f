// Package cfg defines data structures for representing Control Flow Graphs (CFGs)
// over JavaScript syntax trees, and the analysis that builds them.
package cfg

// Branch labels a CFG edge.
type Branch int

const (
	Unconditional  Branch = iota // UNCOND: fallthrough, jumps, loop back edges
	OnTrue                       // ON_TRUE: condition evaluated truthy
	OnFalse                      // ON_FALSE: condition evaluated falsy
	OnException                  // ON_EX: an exception was thrown
	SyntheticBlock               // SYN_BLOCK: leaving a synthetic block
)

func (b Branch) String() string {
	switch b {
	case Unconditional:
		return "UNCOND"
	case OnTrue:
		return "ON_TRUE"
	case OnFalse:
		return "ON_FALSE"
	case OnException:
		return "ON_EX"
	case SyntheticBlock:
		return "SYN_BLOCK"
	default:
		return "UNKNOWN"
	}
}

// IsConditional reports whether the edge is taken depending on a condition.
func (b Branch) IsConditional() bool {
	return b == OnTrue || b == OnFalse
}

// SnapshotNode is the serializable form of a CFG node.
type SnapshotNode struct {
	ID       int    `json:"id" msgpack:"id"`             // Pre-order AST id, -1 for implicit returns
	Kind     string `json:"kind" msgpack:"kind"`         // Statement kind, or "RETURN"
	Line     int    `json:"line" msgpack:"line"`         // Starting line number in source
	Priority int    `json:"priority" msgpack:"priority"` // Position in the traversal order
	Function int    `json:"function" msgpack:"function"` // ID of the owning function, -1 for the root
}

// SnapshotEdge is the serializable form of a CFG edge.
type SnapshotEdge struct {
	From   int    `json:"from" msgpack:"from"`     // Index into Snapshot.Nodes
	To     int    `json:"to" msgpack:"to"`         // Index into Snapshot.Nodes
	Branch string `json:"branch" msgpack:"branch"` // Branch label
}

// Snapshot is a detached, serializable view of a Graph.
type Snapshot struct {
	Nodes []SnapshotNode `json:"nodes" msgpack:"nodes"` // Nodes sorted by priority
	Edges []SnapshotEdge `json:"edges" msgpack:"edges"` // Edges in source order
	Entry int            `json:"entry" msgpack:"entry"` // Index of the entry node
}
