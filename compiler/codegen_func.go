package compiler

import (
	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/bytecode"
)

// compileContract lowers one contract's precondition/body/postcondition/
// on_failure sections into bytecode and writes the result into
// mod.Contracts[idx], which the caller (compiler.go) has already
// pre-populated with Name/Arity/ParamNames so forward and recursive
// OpCall references resolve during codegen.
func compileContract(mod *bytecode.Module, file *ast.File, idx int, c *ast.Contract) error {
	g := newCodeGen(mod, file, c)

	for _, p := range c.Params {
		g.slot(p.Name)
	}
	g.hasResult = c.HasPostcondition || c.HasOnFailure
	if g.hasResult {
		g.resultSlot = g.freshSlot()
	}

	// Step 2: precondition (spec.md §4.9).
	var toOnFailure []int
	if c.HasPrecondition {
		if err := g.emitExpr(c.Precondition); err != nil {
			return err
		}
		if c.HasOnFailure {
			toOnFailure = append(toOnFailure, g.emit(c.Precondition, bytecode.OpJmpIfFalse, 0))
		} else {
			g.emit(c.Precondition, bytecode.OpAssertPrecondition)
		}
	}

	// Step 3: snapshot old() bases referenced in the postcondition. An
	// identifier base is copied slot-to-slot by OpOldSnapshot; a dotted
	// base is evaluated and stored into its old-slot with OpLocalStore.
	if c.HasPostcondition {
		seen := map[string]bool{}
		for _, oe := range collectOldExprs(c.Postcondition) {
			base, err := pathString(oe.X)
			if err != nil {
				return err
			}
			if seen[base] {
				continue
			}
			seen[base] = true
			if id, ok := oe.X.(*ast.Ident); ok {
				g.emit(oe, bytecode.OpOldSnapshot, g.constString(base), g.identSlot(id.Name), g.oldSlot(base))
				continue
			}
			if err := g.emitExpr(oe.X); err != nil {
				return err
			}
			g.emit(oe, bytecode.OpLocalStore, g.oldSlot(base))
		}
	}

	// Step 4: body.
	if c.IsExprBody {
		if err := g.emitExpr(c.ExprBody); err != nil {
			return err
		}
		if g.hasResult {
			g.emit(c.ExprBody, bytecode.OpLocalStore, g.resultSlot)
		} else {
			g.emit(c.ExprBody, bytecode.OpReturn)
		}
	} else {
		if err := g.emitStmts(c.Body); err != nil {
			return err
		}
	}

	onFailureOffset := int32(-1)
	if g.hasResult {
		// Step 5: epilogue — postcondition check, then return.
		epilogueStart := g.here()
		for _, j := range g.returnJumps {
			g.patchJump(j, epilogueStart)
		}
		if c.HasPostcondition {
			if err := g.emitExpr(c.Postcondition); err != nil {
				return err
			}
			if c.HasOnFailure {
				toOnFailure = append(toOnFailure, g.emit(c.Postcondition, bytecode.OpJmpIfFalse, 0))
			} else {
				g.emit(c.Postcondition, bytecode.OpAssertPostcondition)
			}
		}
		g.emit(c, bytecode.OpLocalLoad, g.resultSlot)
		g.emit(c, bytecode.OpReturn)

		if c.HasOnFailure {
			onFailureOffset = g.here()
			for _, j := range toOnFailure {
				g.patchJump(j, onFailureOffset)
			}
			g.inOnFailure = true
			if err := g.emitStmts(c.OnFailure); err != nil {
				return err
			}
			g.inOnFailure = false
		}
	}

	entryOffset := int32(len(mod.Instrs))
	for i := range g.instrs {
		if g.instrs[i].Op == bytecode.OpJmp || g.instrs[i].Op == bytecode.OpJmpIfFalse {
			g.instrs[i].Ops[0] += entryOffset
		}
	}
	mod.Instrs = append(mod.Instrs, g.instrs...)

	mod.Contracts[idx].EntryOffset = int(entryOffset)
	mod.Contracts[idx].NumLocals = int(g.nextSlot)
	if onFailureOffset >= 0 {
		mod.Contracts[idx].OnFailureOffset = int(onFailureOffset + entryOffset)
	} else {
		mod.Contracts[idx].OnFailureOffset = -1
	}
	return nil
}

// collectOldExprs walks e for every old(...) subexpression it contains
// (old() is only valid within a postcondition, spec.md §4.2 invariant).
func collectOldExprs(e ast.Expr) []*ast.OldExpr {
	var out []*ast.OldExpr
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		if e == nil {
			return
		}
		switch x := e.(type) {
		case *ast.OldExpr:
			out = append(out, x)
		case *ast.BinaryExpr:
			walk(x.Left)
			walk(x.Right)
		case *ast.UnaryExpr:
			walk(x.Operand)
		case *ast.CallExpr:
			walk(x.Callee)
			for _, a := range x.Args {
				walk(a)
			}
			for _, kw := range x.Kwargs {
				walk(kw.Value)
			}
		case *ast.MethodCallExpr:
			walk(x.Receiver)
			for _, a := range x.Args {
				walk(a)
			}
			for _, kw := range x.Kwargs {
				walk(kw.Value)
			}
		case *ast.MemberExpr:
			walk(x.Object)
		case *ast.IndexExpr:
			walk(x.Object)
			walk(x.Index)
		case *ast.ListExpr:
			for _, el := range x.Elements {
				walk(el)
			}
		case *ast.ObjectExpr:
			for _, kw := range x.Kwargs {
				walk(kw.Value)
			}
		case *ast.AwaitExpr:
			walk(x.X)
		}
	}
	walk(e)
	return out
}
