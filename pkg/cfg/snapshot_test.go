package cfg

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	// var a; a = a; a = a
	root := script(varDecl("a", nil), assignStmt("a", name("a")), assignStmt("a", name("a")))
	g := build(root, false)

	snap := g.Snapshot()

	require.Len(t, snap.Nodes, 5)
	assert.Len(t, snap.Edges, 4)
	assert.Equal(t, 0, snap.Entry)
	assert.Equal(t, "SCRIPT", snap.Nodes[0].Kind)
	assert.Equal(t, 1, snap.Nodes[1].ID)
	assert.Equal(t, 3, snap.Nodes[2].ID)
	assert.Equal(t, "RETURN", snap.Nodes[4].Kind)
	assert.Equal(t, -1, snap.Nodes[4].ID)
	assert.Equal(t, SnapshotEdge{From: 0, To: 1, Branch: "UNCOND"}, snap.Edges[0])

	data, err := snap.EncodeMsgpack()
	require.NoError(t, err)
	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, snap, decoded)

	raw, err := snap.EncodeJSON()
	require.NoError(t, err)
	var fromJSON Snapshot
	require.NoError(t, json.Unmarshal(raw, &fromJSON))
	assert.Equal(t, snap.Edges, fromJSON.Edges)
}

func TestReachable(t *testing.T) {
	// function f() { a(); } return; b();
	inner := callStmt("a")
	fn := function("f", inner)
	dead := callStmt("b")
	root := script(fn, ret(nil), dead)
	g := build(root, true)

	fromEntry := g.Reachable(g.Entry())
	assert.False(t, fromEntry[g.Node(inner)])
	assert.False(t, fromEntry[g.Node(dead)])

	all := g.Reachable(g.Entries()...)
	assert.True(t, all[g.Node(inner)])
	assert.True(t, all[g.ImplicitReturnOf(fn)])
	assert.False(t, all[g.Node(dead)])
}
