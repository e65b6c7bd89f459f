package cfg

import "github.com/l3aro/go-jsflow/pkg/ast"

// Small tree builders so tests read close to the JavaScript they model.

func script(stmts ...*ast.Node) *ast.Node { return ast.NewNode(ast.Script, stmts...) }

func block(stmts ...*ast.Node) *ast.Node { return ast.NewNode(ast.Block, stmts...) }

func name(s string) *ast.Node { return ast.NewName(s) }

func num(s string) *ast.Node { return ast.NewString(ast.Number, s) }

func call(fn string, args ...*ast.Node) *ast.Node {
	return ast.NewNode(ast.Call, append([]*ast.Node{name(fn)}, args...)...)
}

// callStmt is fn();
func callStmt(fn string) *ast.Node { return ast.NewNode(ast.ExprResult, call(fn)) }

// assignStmt is target = value;
func assignStmt(target string, value *ast.Node) *ast.Node {
	return ast.NewNode(ast.ExprResult, ast.NewNode(ast.Assign, name(target), value))
}

func varDecl(n string, init *ast.Node) *ast.Node {
	if init == nil {
		return ast.NewNode(ast.Var, name(n))
	}
	return ast.NewNode(ast.Var, ast.NewName(n, init))
}

func lt(a, b *ast.Node) *ast.Node { return ast.NewString(ast.BinOp, "<", a, b) }

func inc(n string) *ast.Node { return ast.NewNode(ast.Inc, name(n)) }

func ifStmt(cond, then, els *ast.Node) *ast.Node {
	if els == nil {
		return ast.NewNode(ast.If, cond, then)
	}
	return ast.NewNode(ast.If, cond, then, els)
}

func whileStmt(cond, body *ast.Node) *ast.Node { return ast.NewNode(ast.While, cond, body) }

func doStmt(body, cond *ast.Node) *ast.Node { return ast.NewNode(ast.Do, body, cond) }

func forStmt(init, cond, iter, body *ast.Node) *ast.Node {
	return ast.NewNode(ast.For, init, cond, iter, body)
}

func forIn(lhs, collection, body *ast.Node) *ast.Node {
	return ast.NewNode(ast.ForIn, lhs, collection, body)
}

func empty() *ast.Node { return ast.NewNode(ast.Empty) }

func label(l string, stmt *ast.Node) *ast.Node {
	return ast.NewNode(ast.Label, ast.NewString(ast.LabelName, l), stmt)
}

func jump(kind ast.Kind, l string) *ast.Node {
	if l == "" {
		return ast.NewNode(kind)
	}
	return ast.NewNode(kind, ast.NewString(ast.LabelName, l))
}

func brk(l string) *ast.Node { return jump(ast.Break, l) }

func cont(l string) *ast.Node { return jump(ast.Continue, l) }

func ret(value *ast.Node) *ast.Node {
	if value == nil {
		return ast.NewNode(ast.Return)
	}
	return ast.NewNode(ast.Return, value)
}

func throw(value *ast.Node) *ast.Node { return ast.NewNode(ast.Throw, value) }

// try builds a TRY. catchBody and finally may be nil, not both.
func try(body, catchBody, finally *ast.Node) *ast.Node {
	n := ast.NewNode(ast.Try, body)
	if catchBody != nil {
		n.AppendChild(ast.NewNode(ast.Catch, name("e"), catchBody))
	}
	if finally != nil {
		n.AppendChild(finally)
	}
	return n
}

func function(fnName string, stmts ...*ast.Node) *ast.Node {
	id := empty()
	if fnName != "" {
		id = name(fnName)
	}
	return ast.NewNode(ast.Function, id, ast.NewNode(ast.ParamList), block(stmts...))
}

func switchStmt(disc *ast.Node, clauses ...*ast.Node) *ast.Node {
	return ast.NewNode(ast.Switch, append([]*ast.Node{disc}, clauses...)...)
}

func caseClause(value *ast.Node, stmts ...*ast.Node) *ast.Node {
	return ast.NewNode(ast.Case, value, block(stmts...))
}

func defaultClause(stmts ...*ast.Node) *ast.Node {
	return ast.NewNode(ast.DefaultCase, block(stmts...))
}

func build(root *ast.Node, traverseFunctions bool, opts ...Option) *Graph {
	a := NewAnalysis(traverseFunctions, false, opts...)
	a.Process(nil, root)
	return a.Graph()
}

// kinds lists the nodes of g in forward priority order.
func kinds(g *Graph) []string {
	var out []string
	for _, n := range g.Sorted(true) {
		out = append(out, n.String())
	}
	return out
}

func connectedToReturn(g *Graph, src *ast.Node, b Branch) bool {
	for _, e := range g.OutEdges(src) {
		if g.IsImplicitReturn(e.Dest) && e.Branch == b {
			return true
		}
	}
	return false
}
