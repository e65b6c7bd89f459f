package scanner

import "strings"

// Dialect is the JavaScript flavour implied by a file extension.
type Dialect string

const (
	DialectScript   Dialect = "script"
	DialectModule   Dialect = "module"
	DialectCommonJS Dialect = "commonjs"
	DialectJSX      Dialect = "jsx"
)

var dialects = map[string]Dialect{
	".js":  DialectScript,
	".mjs": DialectModule,
	".cjs": DialectCommonJS,
	".jsx": DialectJSX,
}

// DefaultExtensions are the file extensions scanned when none are configured.
var DefaultExtensions = []string{".js", ".mjs", ".cjs", ".jsx"}

// DetectDialect returns the dialect for a file extension, or "" when the
// extension is not JavaScript.
func DetectDialect(ext string) Dialect {
	return dialects[strings.ToLower(ext)]
}
