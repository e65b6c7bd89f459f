package dce

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-jsflow/pkg/ast"
	"github.com/l3aro/go-jsflow/pkg/parser"
	"github.com/l3aro/go-jsflow/pkg/scope"
)

func eliminate(t *testing.T, src string, removeGlobals bool) (*ast.Node, *Report) {
	t.Helper()
	root := parser.MustParse(src)
	report, err := Eliminate(root, &scope.Resolver{RemoveGlobals: removeGlobals}, Options{})
	require.NoError(t, err)
	return root, report
}

func assertTree(t *testing.T, want string, got *ast.Node) {
	t.Helper()
	expected := parser.MustParse(want)
	if diff := cmp.Diff(ast.Dump(expected), ast.Dump(got)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestEliminate_UnusedGlobals(t *testing.T) {
	root, report := eliminate(t, "var a = 3; var b = function() { alert(a); };", true)

	assert.False(t, root.HasChildren(), "expected empty program, got:\n%s", ast.Dump(root))
	assert.Equal(t, 2, report.Count(ReasonUnusedBinding))
	assert.Equal(t, 2, report.Iterations)
	assert.Greater(t, report.NodesBefore, report.NodesAfter)
}

func TestEliminate_GlobalsRetainedByDefault(t *testing.T) {
	src := "var a = 3; var b = function() { alert(a); };"
	root, report := eliminate(t, src, false)

	assertTree(t, src, root)
	assert.False(t, report.Changed())
	assert.Equal(t, 1, report.Iterations)
}

func TestEliminate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "statement after return",
			src:  "function f() { return 1; g(); } f();",
			want: "function f() { return 1; } f();",
		},
		{
			name: "statement after throw",
			src:  "function f() { throw g(); h(); } f();",
			want: "function f() { throw g(); } f();",
		},
		{
			name: "statement after break",
			src:  "function f() { while (g()) { break; h(); } } f();",
			want: "function f() { while (g()) { break; } } f();",
		},
		{
			name: "labeled break keeps loop",
			src:  "X: while (1) { break X; g(); }",
			want: "X: while (1) { break X; }",
		},
		{
			name: "unreachable var keeps hoisted name",
			src:  "function f() { return x; var x = 1; } f();",
			want: "function f() { return x; var x; } f();",
		},
		{
			name: "unreachable block with vars",
			src:  "function f() { return [a, b]; if (g()) { var a = 1; h(); var b; } } f();",
			want: "function f() { return [a, b]; var a, b; } f();",
		},
		{
			name: "unused locals",
			src:  "function f() { var a = 1; var b = g(); return 2; } f();",
			want: "function f() { g(); return 2; } f();",
		},
		{
			name: "declaration list is split around hoisted initializer",
			src:  "function f() { var a = 1, b = g(), c = 2; return a + c; } f();",
			want: "function f() { var a = 1; g(); var c = 2; return a + c; } f();",
		},
		{
			name: "write-only binding",
			src:  "function f() { var a; a = g(); a = 1; } f();",
			want: "function f() { g(); } f();",
		},
		{
			name: "unused function declaration",
			src:  "function f() { function g() {} return 1; } f();",
			want: "function f() { return 1; } f();",
		},
		{
			name: "chain of unused bindings",
			src:  "function f() { var a = 1; var b = a; var c = b; return 0; } f();",
			want: "function f() { return 0; } f();",
		},
		{
			name: "read only from unreachable code",
			src:  "function f() { var a = 1; return 0; h(a); } f();",
			want: "function f() { return 0; } f();",
		},
		{
			name: "for initializer declarator",
			src:  "function f() { for (var i = 0, n = g(); ; ) { return n; } } f();",
			want: "function f() { for (var n = g(); ; ) { return n; } } f();",
		},
		{
			name: "for initializer with side effects",
			src:  "function f() { for (var i = g(); ; ) { return 1; } } f();",
			want: "function f() { for (g(); ; ) { return 1; } } f();",
		},
		{
			name: "for update after unconditional return",
			src:  "function f() { for (var i = 0; i < 3; i++) { return i; } } f();",
			want: "function f() { for (var i = 0; i < 3; ) { return i; } } f();",
		},
		{
			name: "trailing return",
			src:  "function f() { g(); return; } f();",
			want: "function f() { g(); } f();",
		},
		{
			name: "last case break",
			src:  "function f(x) { switch (x) { case 1: g(); break; } } f(1);",
			want: "function f(x) { switch (x) { case 1: g(); } } f(1);",
		},
		{
			name: "trailing continue",
			src:  "function f() { while (g()) { h(); continue; } } f();",
			want: "function f() { while (g()) { h(); } } f();",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, report := eliminate(t, tt.src, false)
			assertTree(t, tt.want, root)
			assert.True(t, report.Changed())
		})
	}
}

func TestEliminate_Retains(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"direct eval", "function f() { var a = 1; eval('a'); } f();"},
		{"with", "function f(o) { var a = 1; with (o) { g(); } } f({});"},
		{"exported", "export var a = 1;"},
		{"destructured", "function f(o) { var { a } = o; } f({});"},
		{"let read by closure before declaration", "function f() { return function() { return x; }; let x = 1; } f();"},
		{"class in unreachable code", "function f() { return C; class C {} } f();"},
		{"function declaration in unreachable code", "function f() { return g; function g() {} } f();"},
		{"conditional break", "function f(x) { while (x) { if (g()) { break; } h(); } } f(1);"},
		{"return through finally", "function f() { try { g(); return; } finally { h(); } } f();"},
		{"break to next case", "function f(x) { switch (x) { case 1: g(); break; case 2: h(); } } f(1);"},
		{"for-in variable", "function f(o) { for (var k in o) { g(); } } f({});"},
		{"parameters", "function f(a, b) { return 1; } f();"},
		{"catch reached by a name read", "try { undeclaredVar; } catch (e) { report(e); }"},
		{"catch reached by an operator", "try { var n = a + b; } catch (e) { report(e); } use(n);"},
		{"recursive function with a live call", "function f(n) { return n ? f(n - 1) : 0; } f(3);"},
		{"mutually recursive functions with a live call", "function f() { g(); } function g() { f(); } f();"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, report := eliminate(t, tt.src, true)
			assertTree(t, tt.src, root)
			assert.False(t, report.Changed(), "removals: %v", report.Removals)
		})
	}
}

func TestEliminate_RecursiveFunctions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "self recursive",
			src:  "function f() { return f(); } h();",
			want: "h();",
		},
		{
			name: "mutually recursive",
			src:  "function f() { g(); } function g() { f(); } h();",
			want: "h();",
		},
		{
			name: "recursive function expression",
			src:  "var f = function() { f(); }; h();",
			want: "h();",
		},
		{
			name: "binding read only by a dead function",
			src:  "var x = 1; function f() { return x + f(); } h();",
			want: "h();",
		},
		{
			name: "nested recursive declaration",
			src:  "function f() { function g() { return g(); } return 1; } f();",
			want: "function f() { return 1; } f();",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, report := eliminate(t, tt.src, true)
			assertTree(t, tt.want, root)
			assert.Positive(t, report.Count(ReasonUnusedBinding))
		})
	}
}

func TestEliminate_Idempotent(t *testing.T) {
	sources := []string{
		"function f() { return x; var x = 1; g(); } f();",
		"function f() { var a = 1, b = g(), c = 2; return a + c; } f();",
		"function f(x) { switch (x) { case 1: g(); break; default: return; } h(); } f(1);",
		"function f() { for (var i = 0; i < 3; i++) { return i; } } f();",
	}
	for _, src := range sources {
		root, _ := eliminate(t, src, false)
		once := ast.Dump(root)

		report, err := Eliminate(root, &scope.Resolver{}, Options{})
		require.NoError(t, err)
		assert.False(t, report.Changed(), "second run on %q removed %v", src, report.Removals)
		assert.Equal(t, once, ast.Dump(root))
	}
}

func TestEliminate_MaxIterations(t *testing.T) {
	root := parser.MustParse("function f() { var a = 1; return 0; h(a); } f();")
	report, err := Eliminate(root, &scope.Resolver{}, Options{MaxIterations: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Iterations)
	assert.True(t, report.Changed())
}

func TestEliminate_Tolerant(t *testing.T) {
	root := parser.MustParse("function f() { g(); } f();")
	// An unresolvable jump the parser would reject, attached by hand.
	body := ast.FunctionBody(root.FirstChild)
	body.AppendChild(ast.NewNode(ast.Break, ast.NewString(ast.LabelName, "missing")))

	assert.Panics(t, func() {
		_, _ = Eliminate(root, &scope.Resolver{}, Options{})
	})

	report, err := Eliminate(root, &scope.Resolver{}, Options{Tolerant: true})
	require.NoError(t, err)
	assert.NotNil(t, report)
}

func TestReport(t *testing.T) {
	r := &Report{Removals: []Removal{
		{Kind: "VAR", Reason: ReasonUnusedBinding, Name: "a", Line: 1, Column: 4},
		{Kind: "EXPR_RESULT", Reason: ReasonUnreachable, Line: 2},
		{Kind: "VAR", Reason: ReasonUnusedBinding, Name: "b", Line: 3},
	}}

	assert.True(t, r.Changed())
	assert.Equal(t, 2, r.Count(ReasonUnusedBinding))
	assert.Equal(t, 0, r.Count(ReasonDeadStore))
	assert.Equal(t, "1:4 unused-binding a (VAR)", r.Removals[0].String())
	assert.Equal(t, "2:0 unreachable (EXPR_RESULT)", r.Removals[1].String())
}

func TestMeasure(t *testing.T) {
	assert.True(t, size{names: 1, nodes: 50}.less(size{names: 2, nodes: 3}))
	assert.True(t, size{names: 2, nodes: 3}.less(size{names: 2, nodes: 4}))
	assert.False(t, size{names: 2, nodes: 4}.less(size{names: 2, nodes: 4}))

	s := measure(parser.MustParse("var a = 1, b; function f(c) { let d; }"))
	assert.Equal(t, 4, s.names)
}
