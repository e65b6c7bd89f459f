// Package parser converts JavaScript source into the ast package's node model
// using tree-sitter.
package parser

import (
	"context"
	"errors"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/l3aro/go-jsflow/pkg/ast"
)

// DefaultMaxDepth bounds the nesting depth of converted trees.
const DefaultMaxDepth = 2000

var (
	// ErrSyntax is returned when tree-sitter reports an ERROR or MISSING node.
	ErrSyntax = errors.New("syntax error")
	// ErrTooDeep is returned when the source nests deeper than MaxDepth.
	ErrTooDeep = errors.New("maximum nesting depth exceeded")
)

// Options configures a Parser.
type Options struct {
	// MaxDepth is the maximum syntax tree nesting depth. Zero means
	// DefaultMaxDepth.
	MaxDepth int
	// SyntheticStart and SyntheticEnd name marker functions whose calls
	// delimit synthetic blocks. Both must be set to take effect.
	SyntheticStart string
	SyntheticEnd   string
}

// Parser parses JavaScript into *ast.Node trees. A Parser is not safe for
// concurrent use.
type Parser struct {
	opts   Options
	parser *sitter.Parser
}

// New creates a Parser.
func New(opts Options) *Parser {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())
	return &Parser{opts: opts, parser: p}
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.parser.Close()
}

// Parse converts content into a SCRIPT node.
func (p *Parser) Parse(ctx context.Context, content []byte) (*ast.Node, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing source: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, content)
	}

	c := &converter{src: content, maxDepth: p.opts.MaxDepth}
	script, err := c.convert(root)
	if err != nil {
		return nil, err
	}
	if p.opts.SyntheticStart != "" && p.opts.SyntheticEnd != "" {
		MarkSyntheticBlocks(script, p.opts.SyntheticStart, p.opts.SyntheticEnd)
	}
	return script, nil
}

// ParseFile reads and parses the file at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*ast.Node, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	script, err := p.Parse(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return script, nil
}

// ParseString parses src with default options.
func ParseString(src string) (*ast.Node, error) {
	p := New(Options{})
	defer p.Close()
	return p.Parse(context.Background(), []byte(src))
}

// MustParse is ParseString that panics on error. It is intended for tests.
func MustParse(src string) *ast.Node {
	n, err := ParseString(src)
	if err != nil {
		panic(err)
	}
	return n
}

// syntaxError locates the first ERROR or MISSING node below root.
func syntaxError(root *sitter.Node, content []byte) error {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type() == "ERROR" || n.IsMissing() {
			pt := n.StartPoint()
			snippet := n.Content(content)
			if len(snippet) > 40 {
				snippet = snippet[:40] + "..."
			}
			return fmt.Errorf("%w at %d:%d near %q", ErrSyntax, pt.Row+1, pt.Column+1, snippet)
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			if child := n.Child(i); child != nil && (child.HasError() || child.IsMissing() || child.Type() == "ERROR") {
				stack = append(stack, child)
			}
		}
	}
	return ErrSyntax
}
