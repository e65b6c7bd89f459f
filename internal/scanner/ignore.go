package scanner

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnorePattern is a single gitignore-style pattern compiled to a doublestar glob.
type IgnorePattern struct {
	Pattern string // Original text
	glob    string
	negate  bool
	dirOnly bool
}

// ParseIgnorePattern compiles one line of an ignore file. base is the
// slash-separated directory of the ignore file relative to the scan root,
// or "" for the root. ok is false for blank lines, comments and invalid globs.
func ParseIgnorePattern(line, base string) (p IgnorePattern, ok bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return p, false
	}
	p.Pattern = line

	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	} else if strings.HasPrefix(line, `\!`) || strings.HasPrefix(line, `\#`) {
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if line == "" {
		return p, false
	}

	// A slash anywhere but the end anchors the pattern to its ignore file.
	anchored := strings.Contains(line, "/")
	line = strings.TrimPrefix(line, "/")
	if !anchored && !strings.HasPrefix(line, "**") {
		line = "**/" + line
	}
	if base != "" {
		line = base + "/" + line
	}
	if !doublestar.ValidatePattern(line) {
		return p, false
	}
	p.glob = line
	return p, true
}

// IsNegation reports whether the pattern re-includes what it matches.
func (p IgnorePattern) IsNegation() bool {
	return p.negate
}

// Match reports whether rel, a slash-separated path relative to the scan
// root, is matched by the pattern directly or through one of its parents.
func (p IgnorePattern) Match(rel string, isDir bool) bool {
	if (isDir || !p.dirOnly) && p.match(rel) {
		return true
	}
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if p.match(dir) {
			return true
		}
	}
	return false
}

func (p IgnorePattern) match(rel string) bool {
	ok, err := doublestar.Match(p.glob, rel)
	return err == nil && ok
}

// Matcher evaluates an ordered list of patterns; the last match wins.
type Matcher struct {
	patterns []IgnorePattern
}

// NewMatcher compiles root-level patterns such as configured excludes.
func NewMatcher(lines ...string) *Matcher {
	m := &Matcher{}
	for _, line := range lines {
		if p, ok := ParseIgnorePattern(line, ""); ok {
			m.patterns = append(m.patterns, p)
		}
	}
	return m
}

// Add appends patterns after the existing ones.
func (m *Matcher) Add(patterns ...IgnorePattern) {
	m.patterns = append(m.patterns, patterns...)
}

// Len returns the number of patterns.
func (m *Matcher) Len() int {
	return len(m.patterns)
}

// Ignored reports whether rel should be skipped.
func (m *Matcher) Ignored(rel string, isDir bool) bool {
	ignored := false
	for _, p := range m.patterns {
		if p.Match(rel, isDir) {
			ignored = !p.negate
		}
	}
	return ignored
}

// LoadIgnoreFile reads the patterns of an ignore file located in base.
// A missing file yields no patterns and no error.
func LoadIgnoreFile(filename, base string) ([]IgnorePattern, error) {
	f, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", filename, err)
	}
	defer f.Close()

	var patterns []IgnorePattern
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if p, ok := ParseIgnorePattern(sc.Text(), base); ok {
			patterns = append(patterns, p)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return patterns, nil
}
