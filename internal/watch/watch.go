// Package watch reports batches of changed JavaScript files below a
// directory using OS-native notifications.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/l3aro/go-jsflow/internal/log"
	"github.com/l3aro/go-jsflow/internal/scanner"
)

// DefaultDebounce is how long a batch stays open after the last event.
const DefaultDebounce = 200 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Debounce groups events arriving within this window. Zero means
	// DefaultDebounce.
	Debounce time.Duration
	// Scan filters watched directories and reported files.
	Scan   scanner.Options
	Logger log.Logger
}

// Watcher watches a directory tree.
type Watcher struct {
	root    string
	opts    Options
	filter  *scanner.Scanner
	watcher *fsnotify.Watcher
}

// New starts watching root and every accepted directory below it.
func New(root string, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{root: abs, opts: opts, filter: scanner.New(opts.Scan), watcher: fw}
	if err := w.addTree(abs); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// WatchList returns the watched directories.
func (w *Watcher) WatchList() []string {
	list := w.watcher.WatchList()
	sort.Strings(list)
	return list
}

// rel returns the slash-separated path of p relative to the root.
func (w *Watcher) rel(p string) (string, bool) {
	rel, err := filepath.Rel(w.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// addTree watches dir and its accepted subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(p); ok && rel != "." && !w.filter.Accepts(rel, true) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}

// Run delivers changed files to handle, in sorted batches, until ctx is
// done or the watcher is closed. handle runs on the calling goroutine.
func (w *Watcher) Run(ctx context.Context, handle func(paths []string)) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(ev, pending) {
				timer.Reset(w.opts.Debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("watch error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			clear(pending)
			handle(batch)
		}
	}
}

// handleEvent records ev and reports whether a file became pending.
func (w *Watcher) handleEvent(ev fsnotify.Event, pending map[string]bool) bool {
	rel, ok := w.rel(ev.Name)
	if !ok {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if w.filter.Accepts(rel, true) {
				if err := w.addTree(ev.Name); err != nil {
					w.opts.Logger.Warn("watching new directory", "path", rel, "error", err)
				}
			}
			return false
		}
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	if !w.filter.Accepts(rel, false) {
		return false
	}
	w.opts.Logger.Debug("file changed", "path", rel, "op", ev.Op.String())
	pending[ev.Name] = true
	return true
}
