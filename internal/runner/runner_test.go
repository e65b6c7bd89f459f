package runner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-jsflow/internal/scanner"
	"github.com/l3aro/go-jsflow/pkg/cache"
	"github.com/l3aro/go-jsflow/pkg/dce"
)

const deadAfterReturn = "function f() { return 1; g(); } f();"

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func TestRunner_File(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.js": deadAfterReturn})

	res := New(Options{KeepTree: true}).File(context.Background(), filepath.Join(dir, "a.js"))
	require.NoError(t, res.Err)
	require.NotNil(t, res.Report)
	assert.Equal(t, 1, res.Report.Count(dce.ReasonUnreachable))
	assert.NotContains(t, res.Tree, "NAME g")
	assert.Contains(t, res.Tree, "NAME f")
	assert.False(t, res.Cached)
}

func TestRunner_FileErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{"bad.js": "function ( {"})
	r := New(Options{})

	res := r.File(context.Background(), filepath.Join(dir, "bad.js"))
	require.Error(t, res.Err)
	assert.NotEmpty(t, res.Error)
	assert.Nil(t, res.Report)

	res = r.File(context.Background(), filepath.Join(dir, "missing.js"))
	assert.Error(t, res.Err)
}

func TestRunner_RemoveGlobals(t *testing.T) {
	src := []byte("var a = 3; var b = function() { alert(a); };")

	root, report, err := New(Options{}).Source(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, report.Changed())
	assert.True(t, root.HasChildren())

	root, report, err = New(Options{RemoveGlobals: true}).Source(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count(dce.ReasonUnusedBinding))
	assert.False(t, root.HasChildren())
}

func TestRunner_Cache(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.js": deadAfterReturn})
	store, err := cache.OpenReportStore(t.TempDir(), 10)
	require.NoError(t, err)
	path := filepath.Join(dir, "a.js")

	first := New(Options{Cache: store}).File(context.Background(), path)
	require.NoError(t, first.Err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, store.Len())

	second := New(Options{Cache: store}).File(context.Background(), path)
	require.NoError(t, second.Err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Report, second.Report)

	// Different options miss.
	third := New(Options{Cache: store, RemoveGlobals: true}).File(context.Background(), path)
	require.NoError(t, third.Err)
	assert.False(t, third.Cached)
	assert.Equal(t, 2, store.Len())

	// Trees are never served from the cache.
	fourth := New(Options{Cache: store, KeepTree: true}).File(context.Background(), path)
	assert.False(t, fourth.Cached)
	assert.NotEmpty(t, fourth.Tree)
}

func TestRunner_Run(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.js":     deadAfterReturn,
		"b.js":     "var x = 1; use(x);",
		"lib/c.js": "while (1) { break; dead(); }",
		"lib/d.js": "if (",
	})
	files, err := scanner.Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 4)

	var mu sync.Mutex
	var calls []int
	results, err := New(Options{Workers: 2}).Run(context.Background(), files, func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 4, total)
		calls = append(calls, done)
	})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, calls)

	var paths []string
	for _, res := range results {
		paths = append(paths, res.Path)
	}
	assert.Equal(t, []string{"a.js", "b.js", "lib/c.js", "lib/d.js"}, paths)
	assert.Error(t, results[3].Err)

	s := Summarize(results)
	assert.Equal(t, 4, s.Files)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 2, s.Changed)
	assert.Equal(t, 0, s.Cached)
	assert.Equal(t, 2, s.ByReason[dce.ReasonUnreachable])
	assert.Equal(t, s.Removals, s.ByReason[dce.ReasonUnreachable]+s.ByReason[dce.ReasonRedundantJump])
}

func TestRunner_RunCanceled(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.js": "a();", "b.js": "b();"})
	files, err := scanner.Scan(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(Options{Workers: 1}).Run(ctx, files, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
