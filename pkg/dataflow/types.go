// Package dataflow runs dataflow analyses over control flow graphs built by
// the cfg package: a generic worklist solver, reaching definitions, and
// liveness.
package dataflow

import (
	"github.com/l3aro/go-jsflow/pkg/ast"
	"github.com/l3aro/go-jsflow/pkg/scope"
)

// RefType represents the type of variable reference in data flow analysis.
type RefType string

const (
	RefTypeDefinition RefType = "definition" // Variable definition (declaration with value, assignment)
	RefTypeUpdate     RefType = "update"     // Read-modify-write (x += 1, x++)
	RefTypeUse        RefType = "use"        // Variable use (read)
)

// VarRef represents a variable reference in the source code.
type VarRef struct {
	Name    string  `json:"name" msgpack:"name"`         // Variable name
	RefType RefType `json:"ref_type" msgpack:"ref_type"` // Type of reference (definition, update, use)
	Line    int     `json:"line" msgpack:"line"`         // Line number in source
	Column  int     `json:"column" msgpack:"column"`     // Column number in source
}

// DataflowEdge connects a definition or update to a use it may reach.
type DataflowEdge struct {
	DefRef  VarRef `json:"def_ref" msgpack:"def_ref"`   // Definition or update reference
	UseRef  VarRef `json:"use_ref" msgpack:"use_ref"`   // Use reference
	VarName string `json:"var_name" msgpack:"var_name"` // Name of the variable being tracked
}

// Ref is a VarRef tied to the syntax node and binding it came from.
type Ref struct {
	VarRef
	Binding *scope.Binding
	Node    *ast.Node
}

// IsDef reports whether the reference stores to its binding.
func (r Ref) IsDef() bool { return r.RefType != RefTypeUse }
