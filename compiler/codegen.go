package compiler

import (
	"fmt"

	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/bytecode"
)

// codeGen lowers one contract's AST into a run of bytecode.Instr,
// appended to the shared module instruction stream by compileContract
// (codegen_func.go). The struct shape — a handful of maps plus a
// monotonic counter, with push/assign helper methods — mirrors rugo's
// codeGen scope bookkeeping (codegen_scope.go's pushScope/declareVar),
// simplified to Covenant's flat (non-nested-function) contract bodies.
type codeGen struct {
	mod         *bytecode.Module
	file        *ast.File
	contract    *ast.Contract
	moduleNames map[string]bool

	slots    map[string]int32
	nextSlot int32

	resultSlot  int32
	hasResult   bool
	inOnFailure bool
	returnJumps []int

	instrs []bytecode.Instr
}

func newCodeGen(mod *bytecode.Module, file *ast.File, c *ast.Contract) *codeGen {
	moduleNames := make(map[string]bool, len(file.Use))
	for _, u := range file.Use {
		name := u.Alias
		if name == "" {
			name = u.Module
		}
		moduleNames[name] = true
	}
	return &codeGen{
		mod:         mod,
		file:        file,
		contract:    c,
		moduleNames: moduleNames,
		slots:       make(map[string]int32),
	}
}

func (g *codeGen) emit(span ast.Node, op bytecode.Op, ops ...int32) int {
	var arr [3]int32
	copy(arr[:], ops)
	sp := span.Span()
	g.instrs = append(g.instrs, bytecode.Instr{
		Op: op, Ops: arr,
		Span: bytecode.SourceSpan{Line: sp.Line, Col: sp.Col},
	})
	return len(g.instrs) - 1
}

// patchJump backfills a forward jump's target once the label it jumps
// to has been emitted (spec.md §4.8: "forward jumps are back-patched:
// emit the jump with a placeholder offset, record the instruction
// position, and fill in the offset when the target label is reached").
// Offsets recorded here are relative to the start of this contract's
// instruction run; compileContract rebases every jump to an absolute
// module offset once the run is appended.
func (g *codeGen) patchJump(idx int, target int32) {
	g.instrs[idx].Ops[0] = target
}

func (g *codeGen) here() int32 { return int32(len(g.instrs)) }

func (g *codeGen) constInt(v int64) int32 {
	return g.mod.AddConst(bytecode.Const{Kind: bytecode.ConstInt, I: v})
}

func (g *codeGen) constFloat(v float64) int32 {
	return g.mod.AddConst(bytecode.Const{Kind: bytecode.ConstFloat, F: v})
}

func (g *codeGen) constString(v string) int32 {
	return g.mod.AddConst(bytecode.Const{Kind: bytecode.ConstString, S: v})
}

func (g *codeGen) constBool(v bool) int32 {
	return g.mod.AddConst(bytecode.Const{Kind: bytecode.ConstBool, B: v})
}

func (g *codeGen) constNull() int32 {
	return g.mod.AddConst(bytecode.Const{Kind: bytecode.ConstNull})
}

// pathString renders a dotted lvalue/old()-base expression the same
// way fingerprint.Compute does, so old() bases and assignment targets
// agree on a base's canonical name (spec.md §3.5 "mutated names
// (dotted paths allowed)").
func pathString(e ast.Expr) (string, error) {
	switch x := e.(type) {
	case *ast.Ident:
		return x.Name, nil
	case *ast.MemberExpr:
		base, err := pathString(x.Object)
		if err != nil {
			return "", err
		}
		return base + "." + x.Field, nil
	default:
		return "", fmt.Errorf("old()/mutation base must be an identifier or dotted member path")
	}
}
