// Package vm implements Covenant's stack-based bytecode interpreter
// (spec.md §4.9): call frames, a shared operand stack, checked
// arithmetic, the module dispatch table, and the contract-invocation
// protocol.
package vm

import "fmt"

// Kind tags a Value's runtime type.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindBool
	KindNull
	KindList
	KindObject
	KindHostHandle
)

// Value is the VM's dynamically-typed runtime value — the execution
// counterpart of ast.TypeTag's gradual type lattice.
type Value struct {
	Kind   Kind
	I      int64
	F      float64
	S      string
	B      bool
	List   []Value
	Object map[string]Value
	// TypeName names the nominal type an Object value was constructed
	// from (ast.ObjectExpr.TypeName), for diagnostics and field errors.
	TypeName string
	Handle   *HostHandle
}

func Int(i int64) Value      { return Value{Kind: KindInt, I: i} }
func Float(f float64) Value  { return Value{Kind: KindFloat, F: f} }
func Str(s string) Value     { return Value{Kind: KindString, S: s} }
func Bool(b bool) Value      { return Value{Kind: KindBool, B: b} }
func Null() Value            { return Value{Kind: KindNull} }
func List(els []Value) Value { return Value{Kind: KindList, List: els} }
func Object(typeName string, fields map[string]Value) Value {
	return Value{Kind: KindObject, TypeName: typeName, Object: fields}
}
func Handle(h *HostHandle) Value { return Value{Kind: KindHostHandle, Handle: h} }

// Truthy implements Covenant's boolean-coercion rule for `if`/`while`
// conditions: only Bool true is truthy; every non-Bool value is falsy,
// and no runtime type-error is raised for it.
func (v Value) Truthy() bool {
	return v.Kind == KindBool && v.B
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.I)
	case KindFloat:
		return fmt.Sprintf("%g", v.F)
	case KindString:
		return v.S
	case KindBool:
		return fmt.Sprintf("%t", v.B)
	case KindNull:
		return "null"
	case KindList:
		return fmt.Sprintf("%v", v.List)
	case KindObject:
		return fmt.Sprintf("%s%v", v.TypeName, v.Object)
	case KindHostHandle:
		return fmt.Sprintf("HostHandle(%d)", v.Handle.ID)
	default:
		return "<invalid>"
	}
}

// Equal implements value equality for the EQ/NEQ opcodes. Lists and
// objects compare structurally; host handles compare by identity.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		if numericKind(a.Kind) && numericKind(b.Kind) {
			return numericValue(a) == numericValue(b)
		}
		return false
	}
	switch a.Kind {
	case KindInt:
		return a.I == b.I
	case KindFloat:
		return a.F == b.F
	case KindString:
		return a.S == b.S
	case KindBool:
		return a.B == b.B
	case KindNull:
		return true
	case KindList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !Equal(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.Object) != len(b.Object) {
			return false
		}
		for k, v := range a.Object {
			ov, ok := b.Object[k]
			if !ok || !Equal(v, ov) {
				return false
			}
		}
		return true
	case KindHostHandle:
		return a.Handle == b.Handle
	default:
		return false
	}
}

func numericKind(k Kind) bool { return k == KindInt || k == KindFloat }

func numericValue(v Value) float64 {
	if v.Kind == KindInt {
		return float64(v.I)
	}
	return v.F
}

// HostHandle is an opaque reference to a stateful native resource
// (spec.md §9 "host module boundary"). The VM never inspects its
// contents — only modules that created it know what ID maps to.
type HostHandle struct {
	ID   int64
	Kind string
}
