// Package ast defines the JavaScript syntax tree consumed by the control flow
// analysis and dead code elimination passes.
package ast

// Kind is the discriminant of a Node.
type Kind int

const (
	Invalid Kind = iota

	// Statements
	Script
	Block
	If
	For
	ForIn
	ForOf
	While
	Do
	Switch
	Case
	DefaultCase
	Try
	Catch
	Break
	Continue
	Return
	Throw
	Function
	ParamList
	Label
	LabelName
	ExprResult
	Var
	Let
	Const
	Empty
	With
	Class
	ClassMembers
	Debugger
	Import
	Export

	// Expressions
	Name
	Number
	BigInt
	String
	Template
	Regexp
	True
	False
	Null
	This
	Super
	Call
	New
	GetProp
	GetElem
	Assign
	AssignOp
	Inc
	Dec
	InstanceOf
	In
	BinOp
	UnaryOp
	Not
	TypeOf
	Void
	Delete
	And
	Or
	Coalesce
	Hook
	Comma
	ObjectLit
	ArrayLit
	Property
	TaggedTemplate
	Yield
	Await
	Spread
	Rest
	Pattern
	DestructuringLHS
	DefaultValue
	Other
)

var kindNames = [...]string{
	Invalid:          "INVALID",
	Script:           "SCRIPT",
	Block:            "BLOCK",
	If:               "IF",
	For:              "FOR",
	ForIn:            "FOR_IN",
	ForOf:            "FOR_OF",
	While:            "WHILE",
	Do:               "DO",
	Switch:           "SWITCH",
	Case:             "CASE",
	DefaultCase:      "DEFAULT_CASE",
	Try:              "TRY",
	Catch:            "CATCH",
	Break:            "BREAK",
	Continue:         "CONTINUE",
	Return:           "RETURN",
	Throw:            "THROW",
	Function:         "FUNCTION",
	ParamList:        "PARAM_LIST",
	Label:            "LABEL",
	LabelName:        "LABEL_NAME",
	ExprResult:       "EXPR_RESULT",
	Var:              "VAR",
	Let:              "LET",
	Const:            "CONST",
	Empty:            "EMPTY",
	With:             "WITH",
	Class:            "CLASS",
	ClassMembers:     "CLASS_MEMBERS",
	Debugger:         "DEBUGGER",
	Import:           "IMPORT",
	Export:           "EXPORT",
	Name:             "NAME",
	Number:           "NUMBER",
	BigInt:           "BIGINT",
	String:           "STRING",
	Template:         "TEMPLATE",
	Regexp:           "REGEXP",
	True:             "TRUE",
	False:            "FALSE",
	Null:             "NULL",
	This:             "THIS",
	Super:            "SUPER",
	Call:             "CALL",
	New:              "NEW",
	GetProp:          "GETPROP",
	GetElem:          "GETELEM",
	Assign:           "ASSIGN",
	AssignOp:         "ASSIGN_OP",
	Inc:              "INC",
	Dec:              "DEC",
	InstanceOf:       "INSTANCEOF",
	In:               "IN",
	BinOp:            "BINOP",
	UnaryOp:          "UNARYOP",
	Not:              "NOT",
	TypeOf:           "TYPEOF",
	Void:             "VOID",
	Delete:           "DELPROP",
	And:              "AND",
	Or:               "OR",
	Coalesce:         "COALESCE",
	Hook:             "HOOK",
	Comma:            "COMMA",
	ObjectLit:        "OBJECTLIT",
	ArrayLit:         "ARRAYLIT",
	Property:         "PROPERTY",
	TaggedTemplate:   "TAGGED_TEMPLATE",
	Yield:            "YIELD",
	Await:            "AWAIT",
	Spread:           "SPREAD",
	Rest:             "REST",
	Pattern:          "PATTERN",
	DestructuringLHS: "DESTRUCTURING_LHS",
	DefaultValue:     "DEFAULT_VALUE",
	Other:            "OTHER",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// KindFromString returns the Kind with the given dump name.
func KindFromString(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return Invalid, false
}

// IsLoop reports whether k is one of the loop statement kinds.
func (k Kind) IsLoop() bool {
	switch k {
	case For, ForIn, ForOf, While, Do:
		return true
	}
	return false
}

// IsDeclaration reports whether k is VAR, LET or CONST.
func (k Kind) IsDeclaration() bool {
	return k == Var || k == Let || k == Const
}

// IsLiteral reports whether k is an immutable primitive literal.
func (k Kind) IsLiteral() bool {
	switch k {
	case Number, BigInt, String, True, False, Null:
		return true
	}
	return false
}
