// Package runner applies dead code elimination to files, in parallel for
// directory runs, consulting the report cache when one is configured.
package runner

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/l3aro/go-jsflow/internal/log"
	"github.com/l3aro/go-jsflow/internal/scanner"
	"github.com/l3aro/go-jsflow/pkg/ast"
	"github.com/l3aro/go-jsflow/pkg/cache"
	"github.com/l3aro/go-jsflow/pkg/dce"
	"github.com/l3aro/go-jsflow/pkg/parser"
	"github.com/l3aro/go-jsflow/pkg/scope"
)

// Options configures a Runner.
type Options struct {
	RemoveGlobals  bool
	MaxIterations  int
	MaxDepth       int
	SyntheticStart string
	SyntheticEnd   string
	// Tolerant leaves unresolvable jumps unconnected instead of failing.
	Tolerant bool
	// Workers bounds concurrent files in Run. Values below one mean one.
	Workers int
	// KeepTree renders the transformed tree into Result.Tree. Cached
	// reports carry no tree, so the cache is bypassed.
	KeepTree bool
	// Cache is optional.
	Cache  *cache.ReportStore
	Logger log.Logger
}

// Result is the outcome for one file.
type Result struct {
	Path   string      `json:"path"`
	Report *dce.Report `json:"report,omitempty"`
	Cached bool        `json:"cached,omitempty"`
	Tree   string      `json:"tree,omitempty"`
	Err    error       `json:"-"`
	Error  string      `json:"error,omitempty"`
}

// Runner eliminates dead code file by file.
type Runner struct {
	opts Options
}

// New creates a Runner.
func New(opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return &Runner{opts: opts}
}

// fingerprint lists the options that change a report.
func (r *Runner) fingerprint() []interface{} {
	return []interface{}{
		"remove_globals", r.opts.RemoveGlobals,
		"max_iterations", r.opts.MaxIterations,
		"synthetic", r.opts.SyntheticStart, r.opts.SyntheticEnd,
		"tolerant", r.opts.Tolerant,
	}
}

// File processes a single file. Failures are reported in Result.Err.
func (r *Runner) File(ctx context.Context, path string) Result {
	res := Result{Path: path}
	src, err := os.ReadFile(path)
	if err != nil {
		return res.fail(fmt.Errorf("reading file %s: %w", path, err))
	}

	key := ""
	if r.opts.Cache != nil && !r.opts.KeepTree {
		key = cache.Key(src, r.fingerprint()...)
		if report, ok := r.opts.Cache.Get(key); ok {
			r.opts.Logger.Debug("cache hit", "path", path)
			res.Report = &report
			res.Cached = true
			return res
		}
	}

	root, report, err := r.Source(ctx, src)
	if err != nil {
		return res.fail(fmt.Errorf("%s: %w", path, err))
	}
	res.Report = report
	if r.opts.KeepTree {
		res.Tree = ast.Dump(root)
	}
	if key != "" {
		r.opts.Cache.Set(key, *report)
	}
	return res
}

// Source parses src and eliminates dead code from it, returning the
// transformed tree.
func (r *Runner) Source(ctx context.Context, src []byte) (root *ast.Node, report *dce.Report, err error) {
	p := parser.New(parser.Options{
		MaxDepth:       r.opts.MaxDepth,
		SyntheticStart: r.opts.SyntheticStart,
		SyntheticEnd:   r.opts.SyntheticEnd,
	})
	defer p.Close()

	root, err = p.Parse(ctx, src)
	if err != nil {
		return nil, nil, err
	}

	// Structural violations in the tree surface as panics from the CFG
	// builder; they fail this file only.
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("analysis failed: %v", v)
		}
	}()

	report, err = dce.Eliminate(root, &scope.Resolver{RemoveGlobals: r.opts.RemoveGlobals}, dce.Options{
		MaxIterations: r.opts.MaxIterations,
		Tolerant:      r.opts.Tolerant,
		Logger:        r.opts.Logger,
	})
	return root, report, err
}

// Run processes files with at most Options.Workers in flight. Results keep
// the order of files. progress, if set, is called after each file and may
// be called concurrently. Only cancellation of ctx is returned as an error.
func (r *Runner) Run(ctx context.Context, files []scanner.FileInfo, progress func(done, total int)) ([]Result, error) {
	results := make([]Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, r.opts.Workers)
	var done atomic.Int64

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()
			if err := gctx.Err(); err != nil {
				return err
			}

			results[i] = r.File(gctx, f.FullPath)
			results[i].Path = f.Path
			if results[i].Err != nil {
				r.opts.Logger.Warn("file failed", "path", f.Path, "error", results[i].Err)
			}
			if progress != nil {
				progress(int(done.Add(1)), len(files))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (res Result) fail(err error) Result {
	res.Err = err
	res.Error = err.Error()
	return res
}

// Summary aggregates results.
type Summary struct {
	Files    int                `json:"files"`
	Changed  int                `json:"changed"`
	Failed   int                `json:"failed"`
	Cached   int                `json:"cached"`
	Removals int                `json:"removals"`
	ByReason map[dce.Reason]int `json:"by_reason"`
}

// Summarize counts the outcomes in results.
func Summarize(results []Result) Summary {
	s := Summary{Files: len(results), ByReason: make(map[dce.Reason]int)}
	for _, res := range results {
		if res.Err != nil {
			s.Failed++
			continue
		}
		if res.Cached {
			s.Cached++
		}
		if res.Report.Changed() {
			s.Changed++
		}
		s.Removals += len(res.Report.Removals)
		for _, rm := range res.Report.Removals {
			s.ByReason[rm.Reason]++
		}
	}
	return s
}
