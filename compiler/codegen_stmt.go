package compiler

import (
	"fmt"

	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/bytecode"
)

// coreModule is an always-registered internal host module (never
// user-`use`-imported, unlike math/str/time/json) that backs the two
// list primitives the language needs but the fixed 35-opcode set has
// no dedicated opcode for: list length (for-loop termination) and
// range() construction. Routing these through the ordinary
// OpCallModule dispatch — rather than adding OpLen/OpRange opcodes —
// keeps the opcode repertoire fixed; see modules/core.go for the
// runtime side and DESIGN.md's compiler entry for the rationale.
const coreModule = "core"

func (g *codeGen) emitStmt(s ast.Statement) error {
	switch st := s.(type) {
	case *ast.AssignStmt:
		return g.emitAssign(st)
	case *ast.IndexAssignStmt:
		return g.emitIndexAssign(st)
	case *ast.IfStmt:
		return g.emitIf(st)
	case *ast.WhileStmt:
		return g.emitWhile(st)
	case *ast.ForStmt:
		return g.emitFor(st)
	case *ast.ReturnStmt:
		return g.emitReturn(st)
	case *ast.EmitStmt:
		return g.emitEmit(st)
	case *ast.ParallelStmt:
		for _, a := range st.Assignments {
			if err := g.emitAssign(a); err != nil {
				return err
			}
		}
		return nil
	case *ast.ExprStmt:
		if err := g.emitExpr(st.X); err != nil {
			return err
		}
		g.emit(st, bytecode.OpPop)
		return nil
	default:
		return fmt.Errorf("%s: codegen: unsupported statement %T", g.contract.Name, s)
	}
}

func (g *codeGen) emitStmts(stmts []ast.Statement) error {
	for _, s := range stmts {
		if err := g.emitStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (g *codeGen) emitAssign(st *ast.AssignStmt) error {
	if len(st.Path) == 0 {
		if err := g.emitExpr(st.Value); err != nil {
			return err
		}
		g.emit(st, bytecode.OpLocalStore, g.identSlot(st.Target))
		return nil
	}
	g.emit(st, bytecode.OpLocalLoad, g.identSlot(st.Target))
	for _, field := range st.Path[:len(st.Path)-1] {
		g.emit(st, bytecode.OpFieldLoad, g.constString(field))
	}
	if err := g.emitExpr(st.Value); err != nil {
		return err
	}
	g.emit(st, bytecode.OpFieldStore, g.constString(st.Path[len(st.Path)-1]))
	return nil
}

func (g *codeGen) emitIndexAssign(st *ast.IndexAssignStmt) error {
	if err := g.emitExpr(st.Object); err != nil {
		return err
	}
	if err := g.emitExpr(st.Index); err != nil {
		return err
	}
	if err := g.emitExpr(st.Value); err != nil {
		return err
	}
	g.emit(st, bytecode.OpIndexStore)
	return nil
}

func (g *codeGen) emitIf(st *ast.IfStmt) error {
	if err := g.emitExpr(st.Condition); err != nil {
		return err
	}
	jElse := g.emit(st, bytecode.OpJmpIfFalse, 0)
	if err := g.emitStmts(st.Then); err != nil {
		return err
	}
	if st.Else == nil {
		g.patchJump(jElse, g.here())
		return nil
	}
	jEnd := g.emit(st, bytecode.OpJmp, 0)
	g.patchJump(jElse, g.here())
	if err := g.emitStmts(st.Else); err != nil {
		return err
	}
	g.patchJump(jEnd, g.here())
	return nil
}

func (g *codeGen) emitWhile(st *ast.WhileStmt) error {
	loopStart := g.here()
	if err := g.emitExpr(st.Condition); err != nil {
		return err
	}
	jEnd := g.emit(st, bytecode.OpJmpIfFalse, 0)
	if err := g.emitStmts(st.Body); err != nil {
		return err
	}
	g.emit(st, bytecode.OpJmp, loopStart)
	g.patchJump(jEnd, g.here())
	return nil
}

// emitFor lowers `for x in collection: body` using the always-present
// core module's `len` method for the loop bound (see coreModule doc).
func (g *codeGen) emitFor(st *ast.ForStmt) error {
	listSlot := g.freshSlot()
	idxSlot := g.freshSlot()
	lenSlot := g.freshSlot()

	if err := g.emitExpr(st.Collection); err != nil {
		return err
	}
	g.emit(st, bytecode.OpLocalStore, listSlot)

	g.emit(st, bytecode.OpLocalLoad, listSlot)
	if err := g.emitKwargsObject(nil); err != nil {
		return err
	}
	g.emit(st, bytecode.OpCallModule, g.constString(coreModule), g.constString("len"), 1)
	g.emit(st, bytecode.OpLocalStore, lenSlot)

	g.emit(st, bytecode.OpConstLoad, g.constInt(0))
	g.emit(st, bytecode.OpLocalStore, idxSlot)

	loopStart := g.here()
	g.emit(st, bytecode.OpLocalLoad, idxSlot)
	g.emit(st, bytecode.OpLocalLoad, lenSlot)
	g.emit(st, bytecode.OpLt)
	jEnd := g.emit(st, bytecode.OpJmpIfFalse, 0)

	g.emit(st, bytecode.OpLocalLoad, listSlot)
	g.emit(st, bytecode.OpLocalLoad, idxSlot)
	g.emit(st, bytecode.OpIndexLoad)
	g.emit(st, bytecode.OpLocalStore, g.identSlot(st.Var))

	if err := g.emitStmts(st.Body); err != nil {
		return err
	}

	g.emit(st, bytecode.OpLocalLoad, idxSlot)
	g.emit(st, bytecode.OpConstLoad, g.constInt(1))
	g.emit(st, bytecode.OpAdd)
	g.emit(st, bytecode.OpLocalStore, idxSlot)
	g.emit(st, bytecode.OpJmp, loopStart)
	g.patchJump(jEnd, g.here())
	return nil
}

// emitReturn stores the candidate result and jumps to the epilogue when
// the contract has a postcondition or on_failure handler to run first
// (spec.md §4.9 steps 4-5); otherwise it returns directly.
func (g *codeGen) emitReturn(st *ast.ReturnStmt) error {
	if st.Value != nil {
		if err := g.emitExpr(st.Value); err != nil {
			return err
		}
	} else {
		g.emit(st, bytecode.OpConstLoad, g.constNull())
	}
	if !g.hasResult || g.inOnFailure {
		g.emit(st, bytecode.OpReturn)
		return nil
	}
	g.emit(st, bytecode.OpLocalStore, g.resultSlot)
	jmp := g.emit(st, bytecode.OpJmp, 0)
	g.returnJumps = append(g.returnJumps, jmp)
	return nil
}

func (g *codeGen) emitEmit(st *ast.EmitStmt) error {
	for _, a := range st.Args {
		if err := g.emitExpr(a); err != nil {
			return err
		}
	}
	if err := g.emitKwargsObject(st.Kwargs); err != nil {
		return err
	}
	eventIdx := g.mod.AddEvent(st.Event)
	g.emit(st, bytecode.OpEmit, eventIdx, int32(len(st.Args)))
	return nil
}
