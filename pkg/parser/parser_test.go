package parser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-jsflow/pkg/ast"
)

// outline builds the expected Dump from lines written with two-space
// indentation, without the leading SCRIPT line.
func outline(lines ...string) string {
	var sb strings.Builder
	sb.WriteString("SCRIPT\n")
	for _, l := range lines {
		sb.WriteString("  ")
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func TestParse_Structure(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "var with initializer",
			src:  `var a = 1, s = "hi";`,
			want: outline(
				"VAR",
				"  NAME a",
				"    NUMBER 1",
				"  NAME s",
				"    STRING hi",
			),
		},
		{
			name: "if else wraps single statements",
			src:  `if (c) x(); else { y(); }`,
			want: outline(
				"IF",
				"  NAME c",
				"  BLOCK",
				"    EXPR_RESULT",
				"      CALL",
				"        NAME x",
				"  BLOCK",
				"    EXPR_RESULT",
				"      CALL",
				"        NAME y",
			),
		},
		{
			name: "labeled break",
			src:  `outer: while (true) { break outer; }`,
			want: outline(
				"LABEL",
				"  LABEL_NAME outer",
				"  WHILE",
				"    TRUE",
				"    BLOCK",
				"      BREAK",
				"        LABEL_NAME outer",
			),
		},
		{
			name: "function with default parameter",
			src:  `function f(a, b = 1) { return a; }`,
			want: outline(
				"FUNCTION",
				"  NAME f",
				"  PARAM_LIST",
				"    NAME a",
				"    DEFAULT_VALUE",
				"      NAME b",
				"      NUMBER 1",
				"  BLOCK",
				"    RETURN",
				"      NAME a",
			),
		},
		{
			name: "arrow expression body",
			src:  `const f = x => x + 1;`,
			want: outline(
				"CONST",
				"  NAME f",
				"    FUNCTION",
				"      EMPTY",
				"      PARAM_LIST",
				"        NAME x",
				"      BLOCK",
				"        RETURN",
				"          BINOP +",
				"            NAME x",
				"            NUMBER 1",
			),
		},
		{
			name: "logical assignment",
			src:  `x = a && b;`,
			want: outline(
				"EXPR_RESULT",
				"  ASSIGN",
				"    NAME x",
				"    AND",
				"      NAME a",
				"      NAME b",
			),
		},
		{
			name: "try catch finally",
			src:  `try { f(); } catch (e) {} finally { g(); }`,
			want: outline(
				"TRY",
				"  BLOCK",
				"    EXPR_RESULT",
				"      CALL",
				"        NAME f",
				"  CATCH",
				"    NAME e",
				"    BLOCK",
				"  BLOCK",
				"    EXPR_RESULT",
				"      CALL",
				"        NAME g",
			),
		},
		{
			name: "switch",
			src:  `switch (x) { case 1: f(); break; default: g(); }`,
			want: outline(
				"SWITCH",
				"  NAME x",
				"  CASE",
				"    NUMBER 1",
				"    BLOCK",
				"      EXPR_RESULT",
				"        CALL",
				"          NAME f",
				"      BREAK",
				"  DEFAULT_CASE",
				"    BLOCK",
				"      EXPR_RESULT",
				"        CALL",
				"          NAME g",
			),
		},
		{
			name: "empty for header",
			src:  `for (;;) {}`,
			want: outline(
				"FOR",
				"  EMPTY",
				"  EMPTY",
				"  EMPTY",
				"  BLOCK",
			),
		},
		{
			name: "for of with declaration",
			src:  `for (const x of xs) use(x);`,
			want: outline(
				"FOR_OF",
				"  CONST",
				"    NAME x",
				"  NAME xs",
				"  BLOCK",
				"    EXPR_RESULT",
				"      CALL",
				"        NAME use",
				"        NAME x",
			),
		},
		{
			name: "comments are dropped",
			src:  "// leading\nreturnValue(); /* trailing */",
			want: outline(
				"EXPR_RESULT",
				"  CALL",
				"    NAME returnValue",
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := ParseString(tt.src)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, ast.Dump(root)); diff != "" {
				t.Errorf("Dump mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Positions(t *testing.T) {
	root := MustParse("var a;\n  foo();\n")
	stmt := root.Child(1)
	require.NotNil(t, stmt)
	assert.Equal(t, ast.ExprResult, stmt.Kind)
	assert.Equal(t, 2, stmt.Line)
	assert.Equal(t, 2, stmt.Column)
	assert.Equal(t, uint32(9), stmt.StartByte)
	assert.Equal(t, uint32(15), stmt.EndByte)
}

func TestParse_FunctionFlags(t *testing.T) {
	root := MustParse("async function* g() {}\nconst h = () => 1;")

	g := root.FirstChild
	require.Equal(t, ast.Function, g.Kind)
	assert.True(t, g.Has(ast.FlagAsync|ast.FlagGenerator))
	assert.False(t, g.Has(ast.FlagArrow))

	h := root.SecondChild().FirstChild.FirstChild
	require.Equal(t, ast.Function, h.Kind)
	assert.True(t, h.Has(ast.FlagArrow))
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := ParseString("var = ;")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyntax))
	assert.Contains(t, err.Error(), "1:")
}

func TestParse_MaxDepth(t *testing.T) {
	src := strings.Repeat("{", 50) + strings.Repeat("}", 50)

	p := New(Options{MaxDepth: 10})
	defer p.Close()
	_, err := p.Parse(context.Background(), []byte(src))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooDeep))

	_, err = ParseString(src)
	assert.NoError(t, err)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.js")
	require.NoError(t, os.WriteFile(path, []byte("f();\n"), 0644))

	p := New(Options{})
	defer p.Close()

	root, err := p.ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, root.ChildCount())

	_, err = p.ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.js"))
	assert.Error(t, err)
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("if (") })
}

func TestMarkSyntheticBlocks(t *testing.T) {
	p := New(Options{SyntheticStart: "start", SyntheticEnd: "end"})
	defer p.Close()

	root, err := p.Parse(context.Background(), []byte("start(); a(); b(); end(); c(); start(); d();"))
	require.NoError(t, err)

	want := outline(
		"EXPR_RESULT",
		"  CALL",
		"    NAME start",
		"BLOCK [synthetic]",
		"  EXPR_RESULT",
		"    CALL",
		"      NAME a",
		"  EXPR_RESULT",
		"    CALL",
		"      NAME b",
		"EXPR_RESULT",
		"  CALL",
		"    NAME end",
		"EXPR_RESULT",
		"  CALL",
		"    NAME c",
		"EXPR_RESULT",
		"  CALL",
		"    NAME start",
		"EXPR_RESULT",
		"  CALL",
		"    NAME d",
	)
	if diff := cmp.Diff(want, ast.Dump(root)); diff != "" {
		t.Errorf("Dump mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkSyntheticBlocks_Nested(t *testing.T) {
	root := MustParse("function f() { s(); s(); x(); e(); e(); }")
	assert.Equal(t, 2, MarkSyntheticBlocks(root, "s", "e"))

	body := ast.FunctionBody(root.FirstChild)
	require.Equal(t, 3, body.ChildCount())
	outer := body.SecondChild()
	require.Equal(t, ast.Block, outer.Kind)
	assert.True(t, outer.Synthetic)

	require.Equal(t, 3, outer.ChildCount())
	inner := outer.SecondChild()
	assert.True(t, inner.Synthetic)
	assert.Equal(t, 1, inner.ChildCount())
}
