// Package dirty tracks which source files changed content since they were
// last analyzed, so watch mode does not re-run elimination when an editor
// rewrites a file with identical bytes.
package dirty

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

type fileState struct {
	hash    string
	isDirty bool
}

// Tracker tracks dirty files based on content hashing. It is safe for
// concurrent use.
type Tracker struct {
	mu    sync.RWMutex
	files map[string]fileState
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{files: make(map[string]fileState)}
}

// computeHash computes SHA256 hash of file contents.
func computeHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("failed to hash file %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Seed records the current content of paths as clean. Unreadable files are
// skipped and returned in the error.
func (t *Tracker) Seed(paths []string) error {
	var firstErr error
	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err == nil {
			var hash string
			if hash, err = computeHash(absPath); err == nil {
				t.mu.Lock()
				t.files[absPath] = fileState{hash: hash}
				t.mu.Unlock()
				continue
			}
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CheckAndMark checks if a file has changed and marks it dirty if so.
// Returns true if the file was marked dirty (content changed or first seen).
// A file that can no longer be read is forgotten.
func (t *Tracker) CheckAndMark(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to get absolute path: %w", err)
	}

	hash, err := computeHash(absPath)
	if err != nil {
		t.Forget(absPath)
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	existing, exists := t.files[absPath]
	if exists && existing.hash == hash {
		return existing.isDirty, nil
	}
	t.files[absPath] = fileState{hash: hash, isDirty: true}
	return true, nil
}

// IsDirty checks if a file is currently marked as dirty.
func (t *Tracker) IsDirty(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	state, exists := t.files[absPath]
	return exists && state.isDirty
}

// DirtyFiles returns the files currently marked dirty, sorted.
func (t *Tracker) DirtyFiles() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]string, 0, len(t.files))
	for path, state := range t.files {
		if state.isDirty {
			result = append(result, path)
		}
	}
	sort.Strings(result)
	return result
}

// ClearDirty clears the dirty flag for specified files after they have been
// analyzed. If no files are provided, all files are cleared.
func (t *Tracker) ClearDirty(files []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(files) == 0 {
		for path, state := range t.files {
			state.isDirty = false
			t.files[path] = state
		}
		return
	}

	for _, path := range files {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		if state, exists := t.files[absPath]; exists {
			state.isDirty = false
			t.files[absPath] = state
		}
	}
}

// Forget drops a file from tracking.
func (t *Tracker) Forget(path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}
	t.mu.Lock()
	delete(t.files, absPath)
	t.mu.Unlock()
}

// Count returns the number of dirty files.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, state := range t.files {
		if state.isDirty {
			count++
		}
	}
	return count
}

// TotalCount returns the number of tracked files.
func (t *Tracker) TotalCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.files)
}
