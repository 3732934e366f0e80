// Package ast defines the Covenant abstract syntax tree: a closed tagged
// union of node variants (declarations, statements, expressions), each
// carrying a source span. Visitors dispatch by concrete type via Go type
// switches rather than embedded parent pointers — cross-references (e.g.
// a fingerprint call site pointing back to its enclosing contract) live in
// side-tables keyed by span, never as cycles in the tree itself.
package ast

import "github.com/covenant-lang/covenant/scanner"

// Node is implemented by every AST node.
type Node interface {
	node()
	Span() scanner.Span
}

// Statement is implemented by statement nodes.
type Statement interface {
	Node
	stmt()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	expr()
}

// Decl is implemented by top-level declarations.
type Decl interface {
	Node
	decl()
}

// Base embeds a source span into every concrete node.
type Base struct {
	Sp scanner.Span
}

func (b Base) Span() scanner.Span { return b.Sp }

// RiskLevel is one of low, medium, high, critical (spec.md §3, §4.4).
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseRiskLevel maps the surface-syntax risk identifier to a RiskLevel.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch s {
	case "low":
		return RiskLow, true
	case "medium":
		return RiskMedium, true
	case "high":
		return RiskHigh, true
	case "critical":
		return RiskCritical, true
	default:
		return 0, false
	}
}

// UseImport is one `use "module" [as alias]` header entry.
type UseImport struct {
	Module string
	Alias  string
}

// File is the root node: the header plus top-level declarations.
type File struct {
	Base
	Intent   string
	Scope    string
	Risk     RiskLevel
	Requires []string
	Use      []UseImport
	Decls    []Decl
}

func (f *File) node() {}

// Param is one contract parameter (name + optional declared type).
type Param struct {
	Name string
	Type Type // nil if untyped (-> Any)
}

// Section tags identify which of a contract's optional sections is present.
type SectionKind int

const (
	SectionPrecondition SectionKind = iota
	SectionPostcondition
	SectionEffects
	SectionPermissions
	SectionBody
	SectionOnFailure
)

// Effects is the parsed content of an `effects:` section.
type Effects struct {
	Modifies           []string
	Reads              []string
	Emits              []string
	TouchesNothingElse bool
}

// Permissions is the parsed content of a `permissions:` section.
type Permissions struct {
	Grants     []string
	Denies     []string
	Escalation bool
}

// Contract is a named, parameterized callable with optional sections.
type Contract struct {
	Base
	Name       string
	Params     []Param
	ReturnType Type // nil if none declared

	Async          bool
	Pure           bool
	IsExprBody     bool
	ExprBody       Expr // set when IsExprBody

	Precondition  Expr // nil if absent
	Postcondition Expr // nil if absent
	Effects       *Effects
	Permissions   *Permissions
	Body          []Statement // nil if absent (abstract contract)
	OnFailure     []Statement // nil if absent

	HasPrecondition  bool
	HasPostcondition bool
	HasEffects       bool
	HasPermissions   bool
	HasBody          bool
	HasOnFailure     bool
}

func (c *Contract) node() {}
func (c *Contract) decl() {}

// TypeDeclField is one field of a nominal TypeDecl.
type TypeDeclField struct {
	Name string
	Type Type
}

// FlowConstraint is an optional flow constraint on a TypeDecl field, e.g.
// a label that must/must-not reach another field.
type FlowConstraint struct {
	From string
	To   string
	Deny bool
}

// TypeDecl declares a nominal type with a field list and optional flow
// constraints.
type TypeDecl struct {
	Base
	Name        string
	Fields      []TypeDeclField
	Constraints []FlowConstraint
}

func (t *TypeDecl) node() {}
func (t *TypeDecl) decl() {}

// SharedState declares a named, process-wide mutable cell (spec.md §5).
type SharedState struct {
	Base
	Name       string
	Type       Type
	Access     string // free-form access attribute (e.g. "read_write")
	Isolation  string // free-form isolation attribute
	Audit      bool
	InitialVal Expr
}

func (s *SharedState) node() {}
func (s *SharedState) decl() {}
