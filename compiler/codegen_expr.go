package compiler

import (
	"fmt"

	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/bytecode"
)

// emitExpr lowers e, leaving exactly one value on the operand stack.
func (g *codeGen) emitExpr(e ast.Expr) error {
	switch x := e.(type) {
	case *ast.IntLit:
		g.emit(x, bytecode.OpConstLoad, g.constInt(x.Value))
	case *ast.FloatLit:
		g.emit(x, bytecode.OpConstLoad, g.constFloat(x.Value))
	case *ast.StringLit:
		g.emit(x, bytecode.OpConstLoad, g.constString(x.Value))
	case *ast.BoolLit:
		g.emit(x, bytecode.OpConstLoad, g.constBool(x.Value))
	case *ast.NullLit:
		g.emit(x, bytecode.OpConstLoad, g.constNull())
	case *ast.Ident:
		g.emit(x, bytecode.OpLocalLoad, g.identSlot(x.Name))
	case *ast.BinaryExpr:
		return g.emitBinary(x)
	case *ast.UnaryExpr:
		return g.emitUnary(x)
	case *ast.CallExpr:
		return g.emitCall(x)
	case *ast.MethodCallExpr:
		return g.emitMethodCall(x)
	case *ast.MemberExpr:
		if err := g.emitExpr(x.Object); err != nil {
			return err
		}
		g.emit(x, bytecode.OpFieldLoad, g.constString(x.Field))
	case *ast.IndexExpr:
		if err := g.emitExpr(x.Object); err != nil {
			return err
		}
		if err := g.emitExpr(x.Index); err != nil {
			return err
		}
		g.emit(x, bytecode.OpIndexLoad)
	case *ast.ListExpr:
		return g.emitListLiteral(x)
	case *ast.ObjectExpr:
		return g.emitObjectLiteral(x)
	case *ast.OldExpr:
		base, err := pathString(x.X)
		if err != nil {
			return err
		}
		g.emit(x, bytecode.OpLocalLoad, g.oldSlot(base))
	case *ast.HasExpr:
		g.emit(x, bytecode.OpConstLoad, g.constBool(g.hasCapability(x.Capability)))
	case *ast.AwaitExpr:
		// await desugars to synchronous evaluation (spec.md §4.9, §9).
		return g.emitExpr(x.X)
	default:
		return fmt.Errorf("%s: codegen: unsupported expression %T", g.contract.Name, e)
	}
	return nil
}

// identSlot resolves a bare identifier: the magic `result` name (valid
// only within a postcondition) binds to the reserved result slot;
// everything else is an ordinary local.
func (g *codeGen) identSlot(name string) int32 {
	if name == "result" && g.hasResult {
		return g.resultSlot
	}
	return g.slot(name)
}

// hasCapability resolves `has c` statically: true iff c is declared in
// the file header's `requires:` list and not denied by this contract's
// own `permissions: denies` (spec.md §9 Open Question: capability
// grants/denials are static header/section declarations, not runtime
// state — there is no dynamic capability-granting mechanism in this
// core, so `has` has no reason to be anything but a compile-time fact).
func (g *codeGen) hasCapability(name string) bool {
	declared := false
	for _, r := range g.file.Requires {
		if r == name {
			declared = true
			break
		}
	}
	if !declared {
		return false
	}
	if g.contract.Permissions != nil {
		for _, d := range g.contract.Permissions.Denies {
			if d == name {
				return false
			}
		}
	}
	return true
}

var binaryOps = map[string]bytecode.Op{
	"+": bytecode.OpAdd, "-": bytecode.OpSub, "*": bytecode.OpMul,
	"/": bytecode.OpDiv, "%": bytecode.OpMod,
	"==": bytecode.OpEq, "!=": bytecode.OpNeq,
	"<": bytecode.OpLt, "<=": bytecode.OpLte, ">": bytecode.OpGt, ">=": bytecode.OpGte,
}

func (g *codeGen) emitBinary(x *ast.BinaryExpr) error {
	switch x.Op {
	case "and":
		return g.emitShortCircuitAnd(x)
	case "or":
		return g.emitShortCircuitOr(x)
	}
	op, ok := binaryOps[x.Op]
	if !ok {
		return fmt.Errorf("%s: codegen: unknown binary operator %q", g.contract.Name, x.Op)
	}
	if err := g.emitExpr(x.Left); err != nil {
		return err
	}
	if err := g.emitExpr(x.Right); err != nil {
		return err
	}
	g.emit(x, op)
	return nil
}

// emitShortCircuitAnd compiles `left and right` without an OpDup: if
// left is false, the whole expression is false and right is never
// evaluated (spec.md §4.8 "short-circuit boolean operators compile to
// dedicated jump sequences").
func (g *codeGen) emitShortCircuitAnd(x *ast.BinaryExpr) error {
	if err := g.emitExpr(x.Left); err != nil {
		return err
	}
	jFalse := g.emit(x, bytecode.OpJmpIfFalse, 0)
	if err := g.emitExpr(x.Right); err != nil {
		return err
	}
	jEnd := g.emit(x, bytecode.OpJmp, 0)
	g.patchJump(jFalse, g.here())
	g.emit(x, bytecode.OpConstLoad, g.constBool(false))
	g.patchJump(jEnd, g.here())
	return nil
}

func (g *codeGen) emitShortCircuitOr(x *ast.BinaryExpr) error {
	if err := g.emitExpr(x.Left); err != nil {
		return err
	}
	jFalse := g.emit(x, bytecode.OpJmpIfFalse, 0)
	g.emit(x, bytecode.OpConstLoad, g.constBool(true))
	jEnd := g.emit(x, bytecode.OpJmp, 0)
	g.patchJump(jFalse, g.here())
	if err := g.emitExpr(x.Right); err != nil {
		return err
	}
	g.patchJump(jEnd, g.here())
	return nil
}

func (g *codeGen) emitUnary(x *ast.UnaryExpr) error {
	if err := g.emitExpr(x.Operand); err != nil {
		return err
	}
	switch x.Op {
	case "-":
		g.emit(x, bytecode.OpNeg)
	case "not":
		g.emit(x, bytecode.OpNot)
	default:
		return fmt.Errorf("%s: codegen: unknown unary operator %q", g.contract.Name, x.Op)
	}
	return nil
}

func (g *codeGen) emitCall(x *ast.CallExpr) error {
	callee, ok := x.Callee.(*ast.Ident)
	if !ok {
		return fmt.Errorf("%s: codegen: call target must name a contract", g.contract.Name)
	}
	if callee.Name == "range" {
		return g.emitRangeCall(x)
	}
	idx := g.mod.ContractIndex(callee.Name)
	if idx < 0 {
		return fmt.Errorf("%s: codegen: call to unknown contract %q", g.contract.Name, callee.Name)
	}
	for _, a := range x.Args {
		if err := g.emitExpr(a); err != nil {
			return err
		}
	}
	// OpCall binds every argument positionally, so keyword arguments at a
	// direct call site are matched to the callee's ParamNames by name and
	// pushed in parameter order after the positional run; a parameter
	// left without a value is a codegen error.
	params := g.mod.Contracts[idx].ParamNames
	for i := len(x.Args); i < len(params) && len(x.Kwargs) > 0; i++ {
		var val ast.Expr
		for _, kw := range x.Kwargs {
			if kw.Name == params[i] {
				val = kw.Value
			}
		}
		if val == nil {
			return fmt.Errorf("%s: codegen: call to %q has no argument for parameter %q", g.contract.Name, callee.Name, params[i])
		}
		if err := g.emitExpr(val); err != nil {
			return err
		}
	}
	g.emit(x, bytecode.OpCall, int32(idx))
	return nil
}

// emitRangeCall lowers the bare builtin `range(n)` to a call against the
// always-registered core host module (see coreModule doc in
// codegen_stmt.go), the same dispatch `emitFor` uses to fetch a
// collection's length — `range` has no user-declared contract to index
// and is deliberately not reachable through `use "core"`.
func (g *codeGen) emitRangeCall(x *ast.CallExpr) error {
	if len(x.Args) != 1 || len(x.Kwargs) != 0 {
		return fmt.Errorf("%s: codegen: range() takes exactly one positional argument", g.contract.Name)
	}
	if err := g.emitExpr(x.Args[0]); err != nil {
		return err
	}
	if err := g.emitKwargsObject(nil); err != nil {
		return err
	}
	g.emit(x, bytecode.OpCallModule, g.constString(coreModule), g.constString("range"), 1)
	return nil
}

func (g *codeGen) emitMethodCall(x *ast.MethodCallExpr) error {
	recv, ok := x.Receiver.(*ast.Ident)
	if !ok || !g.moduleNames[recv.Name] {
		return fmt.Errorf("%s: codegen: method call receiver must be an imported module", g.contract.Name)
	}
	modConst := g.constString(recv.Name)
	methodConst := g.constString(x.Method)
	for _, a := range x.Args {
		if err := g.emitExpr(a); err != nil {
			return err
		}
	}
	if err := g.emitKwargsObject(x.Kwargs); err != nil {
		return err
	}
	g.emit(x, bytecode.OpCallModule, modConst, methodConst, int32(len(x.Args)))
	return nil
}

// emitListLiteral builds a list value by repeatedly reloading it from a
// scratch slot between appends — OpListAppend may reallocate the
// backing slice, so the updated list must be written back each time
// rather than assumed to mutate in place (unlike Object field stores,
// which mutate a shared map).
func (g *codeGen) emitListLiteral(x *ast.ListExpr) error {
	tmp := g.freshSlot()
	g.emit(x, bytecode.OpListNew, 0, 0)
	g.emit(x, bytecode.OpLocalStore, tmp)
	for _, el := range x.Elements {
		g.emit(x, bytecode.OpLocalLoad, tmp)
		if err := g.emitExpr(el); err != nil {
			return err
		}
		g.emit(x, bytecode.OpListAppend)
		g.emit(x, bytecode.OpLocalStore, tmp)
	}
	g.emit(x, bytecode.OpLocalLoad, tmp)
	return nil
}

// emitObjectLiteral constructs a nominal-type value. OpListNew doubles
// as the container-allocation opcode for both lists and objects — its
// first operand selects which (1 = object); the second names the
// nominal type by const index. This keeps the opcode repertoire fixed
// at 35 entries rather than adding a dedicated OpObjectNew.
func (g *codeGen) emitObjectLiteral(x *ast.ObjectExpr) error {
	tmp := g.freshSlot()
	g.emit(x, bytecode.OpListNew, 1, g.constString(x.TypeName))
	g.emit(x, bytecode.OpLocalStore, tmp)
	for _, kw := range x.Kwargs {
		g.emit(x, bytecode.OpLocalLoad, tmp)
		if err := g.emitExpr(kw.Value); err != nil {
			return err
		}
		g.emit(x, bytecode.OpFieldStore, g.constString(kw.Name))
	}
	g.emit(x, bytecode.OpLocalLoad, tmp)
	return nil
}

// emitKwargsObject leaves a single Object value on the stack holding
// every keyword argument (empty when kwargs is empty), the convention
// OpCallModule/OpEmit use to pass keyword arguments within the fixed
// three-operand instruction width (see DESIGN.md's vm package entry).
func (g *codeGen) emitKwargsObject(kwargs []ast.KeywordArg) error {
	if len(kwargs) == 0 {
		g.emitBareOp(bytecode.OpListNew, 1, g.constString(""))
		return nil
	}
	tmp := g.freshSlot()
	g.emitBareOp(bytecode.OpListNew, 1, g.constString(""))
	g.emitBareOp(bytecode.OpLocalStore, tmp)
	for _, kw := range kwargs {
		g.emitBareOp(bytecode.OpLocalLoad, tmp)
		if err := g.emitExpr(kw.Value); err != nil {
			return err
		}
		g.emitBareOp(bytecode.OpFieldStore, g.constString(kw.Name))
	}
	g.emitBareOp(bytecode.OpLocalLoad, tmp)
	return nil
}

// emitBareOp emits an instruction with no associated source node (used
// for the synthetic kwargs-bundle scaffolding, which has no surface
// syntax of its own), tagging it with the contract's declaration span.
func (g *codeGen) emitBareOp(op bytecode.Op, ops ...int32) int {
	return g.emit(g.contract, op, ops...)
}
