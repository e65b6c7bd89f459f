// Package scanner walks a directory tree for JavaScript sources. It honours
// configured exclude globs and nested .jsflowignore files with
// gitignore-style patterns.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileInfo represents information about a discovered file.
type FileInfo struct {
	Path     string  // Relative path from root
	FullPath string  // Absolute path
	Dialect  Dialect // Detected from extension
	Size     int64   // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden     bool     // Skip hidden files and directories (starting with .)
	FollowSymlinks bool     // Follow file symlinks (within root only)
	Extensions     []string // File extensions to collect
	Exclude        []string // Gitignore-style patterns applied from the root
	IgnoreFileName string   // Name of the per-directory ignore file
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		Extensions:     DefaultExtensions,
		Exclude:        []string{"node_modules/", ".git/", "dist/", "build/", "vendor/", "coverage/", "*.min.js"},
		IgnoreFileName: ".jsflowignore",
	}
}

// Scanner provides file tree scanning capabilities.
type Scanner struct {
	opts       Options
	extensions map[string]bool
	exclude    *Matcher
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	exts := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		exts[strings.ToLower(ext)] = true
	}
	return &Scanner{opts: opts, extensions: exts, exclude: NewMatcher(opts.Exclude...)}
}

// Accepts reports whether rel, a slash-separated path relative to a scan
// root, passes the hidden, exclude and (for files) extension filters.
// Per-directory ignore files are not consulted.
func (s *Scanner) Accepts(rel string, isDir bool) bool {
	if s.opts.SkipHidden {
		for _, part := range strings.Split(rel, "/") {
			if isHidden(part) {
				return false
			}
		}
	}
	if s.exclude.Ignored(rel, isDir) {
		return false
	}
	return isDir || s.wanted(rel)
}

// Scan returns the matching files under root sorted by relative path.
// A root naming a single file yields that file when its extension matches.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		if !s.wanted(absRoot) {
			return nil, nil
		}
		return []FileInfo{s.fileInfo(filepath.Base(absRoot), absRoot, info.Size())}, nil
	}

	matcher := NewMatcher(s.opts.Exclude...)
	var files []FileInfo

	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() && p != absRoot {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." {
				if (s.opts.SkipHidden && isHidden(d.Name())) || matcher.Ignored(rel, true) {
					return filepath.SkipDir
				}
			}
			if s.opts.IgnoreFileName != "" {
				base := rel
				if base == "." {
					base = ""
				}
				patterns, err := LoadIgnoreFile(filepath.Join(p, s.opts.IgnoreFileName), base)
				if err != nil {
					return err
				}
				matcher.Add(patterns...)
			}
			return nil
		}

		if s.opts.SkipHidden && isHidden(d.Name()) {
			return nil
		}
		if matcher.Ignored(rel, false) || !s.wanted(p) {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !s.opts.FollowSymlinks || !withinRoot(absRoot, p) {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		fi, err := os.Stat(p)
		if err != nil || fi.IsDir() {
			return nil
		}
		files = append(files, s.fileInfo(rel, p, fi.Size()))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *Scanner) wanted(p string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(p))]
}

func (s *Scanner) fileInfo(rel, full string, size int64) FileInfo {
	return FileInfo{
		Path:     rel,
		FullPath: full,
		Dialect:  DetectDialect(filepath.Ext(full)),
		Size:     size,
	}
}

// withinRoot reports whether the symlink at p resolves inside root.
func withinRoot(root, p string) bool {
	real, err := filepath.EvalSymlinks(p)
	if err != nil {
		return false
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return false
	}
	return strings.HasPrefix(real, realRoot+string(filepath.Separator))
}

func isHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".")
}

// Scan is a convenience function that scans with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}

// ScanWithOptions is a convenience function that scans with custom options.
func ScanWithOptions(root string, opts Options) ([]FileInfo, error) {
	return New(opts).Scan(root)
}
