package dataflow

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-jsflow/pkg/ast"
	"github.com/l3aro/go-jsflow/pkg/cfg"
	"github.com/l3aro/go-jsflow/pkg/parser"
	"github.com/l3aro/go-jsflow/pkg/scope"
)

func analyze(t *testing.T, src string, traverseFunctions bool) (*ast.Node, *cfg.Graph, *scope.Info) {
	t.Helper()
	root, err := parser.ParseString(src)
	require.NoError(t, err)
	a := cfg.NewAnalysis(traverseFunctions, false)
	a.Process(nil, root)
	return root, a.Graph(), (&scope.Resolver{}).Resolve(root)
}

// chains renders edges as "name defLine->useLine".
func chains(edges []DataflowEdge) []string {
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, fmt.Sprintf("%s %d->%d", e.VarName, e.DefRef.Line, e.UseRef.Line))
	}
	return out
}

func TestComputeDefUseChains(t *testing.T) {
	tests := []struct {
		name              string
		src               string
		traverseFunctions bool
		want              []string
	}{
		{
			name: "branch merge",
			src: `var a = 1;
if (c) {
  a = 2;
}
use(a);`,
			want: []string{"a 1->5", "a 3->5"},
		},
		{
			name: "assignment kills",
			src: `var a = 1;
a = 2;
use(a);`,
			want: []string{"a 2->3"},
		},
		{
			name: "loop carried update",
			src: `var i = 0;
while (i < 3) {
  i++;
}`,
			want: []string{"i 1->2", "i 3->2", "i 1->3", "i 3->3"},
		},
		{
			name: "compound assignment reads first",
			src: `var s = 0;
s += s;
use(s);`,
			want: []string{"s 1->2", "s 1->2", "s 2->3"},
		},
		{
			name: "parameters",
			src: `function f(p) {
  return p;
}`,
			traverseFunctions: true,
			want:              []string{"p 1->2"},
		},
		{
			name: "catch parameter",
			src: `try {
  g();
} catch (e) {
  use(e);
}`,
			want: []string{"e 3->4"},
		},
		{
			name: "for-of variable",
			src: `for (const x of xs) {
  use(x);
}`,
			want: []string{"x 1->2"},
		},
		{
			name: "globals are not tracked",
			src:  `use(undeclared);`,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, g, info := analyze(t, tt.src, tt.traverseFunctions)
			result, err := ComputeDefUseChains(g, info, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, chains(result.Edges))
		})
	}
}

func TestComputeDefUseChains_Reaching(t *testing.T) {
	root, g, info := analyze(t, "var a = 1;\nvar b = a;\na = b;\n", false)
	result, err := ComputeDefUseChains(g, info, 0)
	require.NoError(t, err)

	third := g.Node(root.Child(2))
	require.NotNil(t, third)
	var names []string
	for _, ref := range result.Reaching[third] {
		names = append(names, fmt.Sprintf("%s@%d", ref.Name, ref.Line))
	}
	assert.Equal(t, []string{"a@1", "b@2"}, names)
}

func TestComputeLiveness(t *testing.T) {
	root, g, info := analyze(t, "var a = 1;\nvar b = 2;\nuse(a);\n", false)
	result, err := ComputeLiveness(g, info, 0)
	require.NoError(t, err)

	nodeAt := func(i int) *cfg.Node {
		n := g.Node(root.Child(i))
		require.NotNil(t, n)
		return n
	}
	assert.Empty(t, result.LiveIn[nodeAt(0)].Names())
	assert.Equal(t, []string{"a"}, result.LiveOut[nodeAt(0)].Names())
	assert.Equal(t, []string{"a"}, result.LiveIn[nodeAt(1)].Names())
	assert.Equal(t, []string{"a"}, result.LiveIn[nodeAt(2)].Names())
	assert.Empty(t, result.LiveOut[nodeAt(2)].Names())
}

func TestComputeLiveness_Loop(t *testing.T) {
	root, g, info := analyze(t, "var i = 0;\nwhile (i < 3) {\n  i++;\n}\nvar j = 1;\n", false)
	result, err := ComputeLiveness(g, info, 0)
	require.NoError(t, err)

	loop := g.Node(root.Child(1))
	require.NotNil(t, loop)
	assert.Equal(t, []string{"i"}, result.LiveIn[loop].Names())

	after := g.Node(root.Child(2))
	require.NotNil(t, after)
	assert.Empty(t, result.LiveIn[after].Names())
}

func TestSolve_MaxSteps(t *testing.T) {
	_, g, info := analyze(t, "var a = 1;\nuse(a);\n", false)

	_, err := Solve[DefSet](g, NewReachingDefinitions(g, info), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaxSteps))

	res, err := Solve[DefSet](g, NewReachingDefinitions(g, info), 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Steps, len(g.Nodes()))
}

func TestCollectRefs_Order(t *testing.T) {
	root, g, info := analyze(t, "var x = 1, y = x;\nx = y + x;\n", false)
	refs := CollectRefs(g, info)

	var got []string
	for _, ref := range refs[g.Node(root.Child(1))] {
		got = append(got, fmt.Sprintf("%s:%s", ref.Name, ref.RefType))
	}
	assert.Equal(t, []string{"y:use", "x:use", "x:definition"}, got)

	got = nil
	for _, ref := range refs[g.Node(root.Child(0))] {
		got = append(got, fmt.Sprintf("%s:%s", ref.Name, ref.RefType))
	}
	assert.Equal(t, []string{"x:definition", "x:use", "y:definition"}, got)
}

func TestDeduplicateEdges(t *testing.T) {
	e := DataflowEdge{
		DefRef:  VarRef{Name: "a", RefType: RefTypeDefinition, Line: 1, Column: 4},
		UseRef:  VarRef{Name: "a", RefType: RefTypeUse, Line: 2, Column: 0},
		VarName: "a",
	}
	assert.Len(t, deduplicateEdges([]DataflowEdge{e, e}), 1)
}
