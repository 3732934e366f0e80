package ast

// KeywordArg is one `name: value` keyword argument in a call or object
// construction.
type KeywordArg struct {
	Name  string
	Value Expr
}

// IntLit is an integer literal.
type IntLit struct {
	Base
	Value int64
}

func (l *IntLit) node() {}
func (l *IntLit) expr() {}

// FloatLit is a floating-point literal.
type FloatLit struct {
	Base
	Value float64
}

func (l *FloatLit) node() {}
func (l *FloatLit) expr() {}

// StringLit is a double-quoted string literal with escapes resolved.
type StringLit struct {
	Base
	Value string
}

func (l *StringLit) node() {}
func (l *StringLit) expr() {}

// BoolLit is true or false.
type BoolLit struct {
	Base
	Value bool
}

func (l *BoolLit) node() {}
func (l *BoolLit) expr() {}

// NullLit is the null literal.
type NullLit struct {
	Base
}

func (l *NullLit) node() {}
func (l *NullLit) expr() {}

// Ident is a bare identifier reference (variable, parameter, contract, or
// the magic postcondition-only identifier `result`).
type Ident struct {
	Base
	Name string
}

func (i *Ident) node() {}
func (i *Ident) expr() {}

// BinaryExpr is `left op right`.
type BinaryExpr struct {
	Base
	Op    string
	Left  Expr
	Right Expr
}

func (b *BinaryExpr) node() {}
func (b *BinaryExpr) expr() {}

// UnaryExpr is `op operand` (unary minus or `not`).
type UnaryExpr struct {
	Base
	Op      string
	Operand Expr
}

func (u *UnaryExpr) node() {}
func (u *UnaryExpr) expr() {}

// CallExpr is `callee(args..., kwargs...)`.
type CallExpr struct {
	Base
	Callee Expr
	Args   []Expr
	Kwargs []KeywordArg
}

func (c *CallExpr) node() {}
func (c *CallExpr) expr() {}

// MethodCallExpr is `receiver.method(args..., kwargs...)`.
type MethodCallExpr struct {
	Base
	Receiver Expr
	Method   string
	Args     []Expr
	Kwargs   []KeywordArg
}

func (m *MethodCallExpr) node() {}
func (m *MethodCallExpr) expr() {}

// MemberExpr is `object.field` member access (not a call).
type MemberExpr struct {
	Base
	Object Expr
	Field  string
}

func (m *MemberExpr) node() {}
func (m *MemberExpr) expr() {}

// IndexExpr is `object[index]`.
type IndexExpr struct {
	Base
	Object Expr
	Index  Expr
}

func (i *IndexExpr) node() {}
func (i *IndexExpr) expr() {}

// ListExpr is a list literal `[elem, ...]`.
type ListExpr struct {
	Base
	Elements []Expr
}

func (l *ListExpr) node() {}
func (l *ListExpr) expr() {}

// ObjectExpr is a capitalized-name object construction `Name(field: value, ...)`.
// All arguments must be keyword args (enforced by the parser).
type ObjectExpr struct {
	Base
	TypeName string
	Kwargs   []KeywordArg
}

func (o *ObjectExpr) node() {}
func (o *ObjectExpr) expr() {}

// OldExpr is `old(expr)`, valid only within a postcondition.
type OldExpr struct {
	Base
	X Expr
}

func (o *OldExpr) node() {}
func (o *OldExpr) expr() {}

// HasExpr is `has capability` — a capability check.
type HasExpr struct {
	Base
	Capability string
}

func (h *HasExpr) node() {}
func (h *HasExpr) expr() {}

// AwaitExpr is `await expr`. Surface syntax only: desugars to a synchronous
// evaluation of X (spec.md §4.9, §9).
type AwaitExpr struct {
	Base
	X Expr
}

func (a *AwaitExpr) node() {}
func (a *AwaitExpr) expr() {}
