package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/l3aro/go-jsflow/internal/runner"
	"github.com/l3aro/go-jsflow/pkg/ast"
	"github.com/l3aro/go-jsflow/pkg/cfg"
	"github.com/l3aro/go-jsflow/pkg/parser"
)

// requireFile checks that path names a regular file.
func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, expected a file: %s", path)
	}
	return nil
}

// parseFile parses path with the configured parser options.
func parseFile(ctx context.Context, path string) (*ast.Node, error) {
	if err := requireFile(path); err != nil {
		return nil, err
	}
	p := parser.New(parser.Options{
		MaxDepth:       settings.MaxDepth,
		SyntheticStart: settings.SyntheticBlockStart,
		SyntheticEnd:   settings.SyntheticBlockEnd,
	})
	defer p.Close()
	return p.ParseFile(ctx, path)
}

// buildGraph runs control flow analysis over root. CFA panics on malformed
// trees; that is reported as an error here.
func buildGraph(root *ast.Node, traverseFunctions bool) (g *cfg.Graph, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("control flow analysis failed: %v", v)
		}
	}()
	a := cfg.NewAnalysis(traverseFunctions, settings.EdgeAnnotations, cfg.WithTolerant(settings.IDEMode))
	a.Process(nil, root)
	return a.Graph(), nil
}

// newRunner builds a runner from the loaded settings.
func newRunner(opts runner.Options) *runner.Runner {
	opts.MaxIterations = settings.MaxIterations
	opts.MaxDepth = settings.MaxDepth
	opts.SyntheticStart = settings.SyntheticBlockStart
	opts.SyntheticEnd = settings.SyntheticBlockEnd
	opts.Tolerant = settings.IDEMode
	opts.Workers = settings.Workers
	opts.Logger = logger
	return runner.New(opts)
}

// location formats the source position of a CFG node.
func location(n *cfg.Node) string {
	if v := n.Value(); v != nil {
		return fmt.Sprintf("%d:%d", v.Line, v.Column)
	}
	return "-"
}
