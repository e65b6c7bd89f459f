package cfg

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/l3aro/go-jsflow/pkg/ast"
)

func TestPriorityOrder(t *testing.T) {
	tests := []struct {
		name              string
		root              *ast.Node
		traverseFunctions bool
		want              []string
	}{
		{
			name: "for loop",
			// for (var i = 0; i < 5; i++) { var x = 3; } if (true) {}
			root: script(
				forStmt(varDecl("i", num("0")), lt(name("i"), num("5")), inc("i"), block(varDecl("x", num("3")))),
				ifStmt(ast.NewNode(ast.True), block(), nil),
			),
			want: []string{"SCRIPT", "VAR", "FOR", "BLOCK", "VAR", "INC", "IF", "BLOCK", "RETURN"},
		},
		{
			name: "do loop",
			// do { var x = 1; } while (c); var y;
			root: script(
				doStmt(block(varDecl("x", num("1"))), name("c")),
				varDecl("y", nil),
			),
			want: []string{"SCRIPT", "BLOCK", "VAR", "DO", "VAR", "RETURN"},
		},
		{
			name: "local function",
			// function f() { a(); } b();
			root:              script(function("f", callStmt("a")), callStmt("b")),
			traverseFunctions: true,
			want:              []string{"SCRIPT", "EXPR_RESULT", "FUNCTION", "BLOCK", "EXPR_RESULT", "RETURN", "RETURN"},
		},
		{
			name: "unreachable statement",
			// return; a();
			root: script(ret(nil), callStmt("a")),
			want: []string{"SCRIPT", "RETURN", "EXPR_RESULT", "RETURN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(tt.root, tt.traverseFunctions)
			if diff := cmp.Diff(tt.want, kinds(g)); diff != "" {
				t.Errorf("priority order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComparator(t *testing.T) {
	root := script(callStmt("a"), callStmt("b"))
	g := build(root, false)

	forward := g.Comparator(true)
	backward := g.Comparator(false)
	first, second := g.Node(root.FirstChild), g.Node(root.LastChild)

	assert.Negative(t, forward(first, second))
	assert.Positive(t, backward(first, second))
	assert.Zero(t, forward(first, first))
	assert.Positive(t, forward(g.ImplicitReturn(), second))

	sorted := g.Sorted(false)
	assert.Equal(t, g.ImplicitReturn(), sorted[0])
	assert.Equal(t, g.Entry(), sorted[len(sorted)-1])
}

func TestPriority_LateNodes(t *testing.T) {
	root := script(callStmt("a"))
	g := build(root, false)

	late := g.CreateNode(callStmt("late"))
	assert.Greater(t, g.Priority(late), g.Priority(g.ImplicitReturn()))
}
