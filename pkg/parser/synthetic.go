package parser

import "github.com/l3aro/go-jsflow/pkg/ast"

// MarkSyntheticBlocks wraps the statements between each start() and end()
// marker call of a statement list into a BLOCK flagged Synthetic. The marker
// statements stay in place around the new block. Markers without a matching
// end in the same list are ignored. It returns the number of blocks created.
func MarkSyntheticBlocks(root *ast.Node, start, end string) int {
	created := 0
	ast.Walk(root, func(n *ast.Node) bool {
		if ast.IsStatementList(n) {
			created += markList(n, start, end)
		}
		return true
	})
	return created
}

func markList(list *ast.Node, start, end string) int {
	created := 0
	for s := list.FirstChild; s != nil; s = s.Next {
		if !isMarkerCall(s, start) {
			continue
		}
		closing := matchingEnd(s, start, end)
		if closing == nil {
			continue
		}
		block := ast.NewNode(ast.Block)
		block.Synthetic = true
		block.CopyPosition(s)
		for s.Next != closing {
			block.AppendChild(s.Next.Detach())
		}
		s.InsertAfter(block)
		created++
		s = closing
	}
	return created
}

func matchingEnd(open *ast.Node, start, end string) *ast.Node {
	depth := 0
	for s := open.Next; s != nil; s = s.Next {
		switch {
		case isMarkerCall(s, start):
			depth++
		case isMarkerCall(s, end):
			if depth == 0 {
				return s
			}
			depth--
		}
	}
	return nil
}

func isMarkerCall(stmt *ast.Node, name string) bool {
	if stmt.Kind != ast.ExprResult {
		return false
	}
	call := stmt.FirstChild
	return call != nil && call.Kind == ast.Call && call.FirstChild.Kind == ast.Name && call.FirstChild.Str == name
}
