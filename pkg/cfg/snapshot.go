package cfg

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-jsflow/pkg/ast"
)

// Snapshot returns a detached view of the graph with nodes in priority
// order. IDs are pre-order positions in the graph's root.
func (g *Graph) Snapshot() *Snapshot {
	ids := make(map[*ast.Node]int)
	next := 0
	ast.Walk(g.root, func(n *ast.Node) bool {
		ids[n] = next
		next++
		return true
	})
	id := func(n *ast.Node) int {
		if n == nil {
			return -1
		}
		if v, ok := ids[n]; ok {
			return v
		}
		return -1
	}

	sorted := g.Sorted(true)
	index := make(map[*Node]int, len(sorted))
	snap := &Snapshot{Nodes: make([]SnapshotNode, 0, len(sorted))}
	for i, n := range sorted {
		index[n] = i
		sn := SnapshotNode{
			ID:       id(n.value),
			Kind:     n.String(),
			Priority: g.Priority(n),
			Function: -1,
		}
		if n.value != nil {
			sn.Line = n.value.Line
			sn.Function = id(g.enclosingFunction(n.value))
		} else {
			sn.Function = id(n.fn)
		}
		snap.Nodes = append(snap.Nodes, sn)
	}
	for _, n := range sorted {
		for _, e := range n.out {
			snap.Edges = append(snap.Edges, SnapshotEdge{
				From:   index[e.Source],
				To:     index[e.Dest],
				Branch: e.Branch.String(),
			})
		}
	}
	if g.entry != nil {
		snap.Entry = index[g.entry]
	}
	return snap
}

// EncodeMsgpack encodes the snapshot with msgpack.
func (s *Snapshot) EncodeMsgpack() ([]byte, error) {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// EncodeJSON encodes the snapshot as indented JSON.
func (s *Snapshot) EncodeJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot decodes a msgpack snapshot produced by EncodeMsgpack.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &s, nil
}
