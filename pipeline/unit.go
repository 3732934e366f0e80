// Package pipeline threads a source file through the full lexer -> parser
// -> static verification -> bytecode compilation -> VM chain, the way
// spec.md §9 and the teacher's compiler.Compiler.Run drive their own
// single-call pipelines. It is the glue cmd/ calls into; cmd/ itself only
// does flag parsing and result printing.
package pipeline

import (
	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/bytecode"
	"github.com/covenant-lang/covenant/diag"
)

// CompilationUnit is the value threaded through every pass, accumulating
// state as each stage runs (spec.md §9's "pass a CompilationUnit value
// threaded through the passes").
type CompilationUnit struct {
	Filename string
	Source   string
	File     *ast.File
	Sink     *diag.Sink
	Module   *bytecode.Module
}
