// Package compiler lowers a verified Covenant AST (ast.File) into a
// bytecode.Module (spec.md §4.8). It assumes verify.Run has already
// reported no errors — the compiler does not re-check effects,
// capabilities, or types; it only needs a well-typed, well-scoped tree
// to translate.
package compiler

import (
	"fmt"

	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/bytecode"
)

const currentCovcVersion = 1

// Compiler orchestrates bytecode lowering for one source file, mirroring
// rugo's Compiler (compiler.go: parse → resolve → generate) but with a
// verify → lower pipeline in place of parse → transpile.
type Compiler struct{}

// Compile lowers file to a bytecode.Module.
func (c *Compiler) Compile(file *ast.File) (*bytecode.Module, error) {
	mod := &bytecode.Module{Version: currentCovcVersion}

	var contracts []*ast.Contract
	for _, d := range file.Decls {
		ct, ok := d.(*ast.Contract)
		if !ok {
			continue
		}
		contracts = append(contracts, ct)
		mod.Contracts = append(mod.Contracts, bytecode.ContractEntry{
			Name:             ct.Name,
			Arity:            len(ct.Params),
			ParamNames:       paramNames(ct.Params),
			OnFailureOffset:  -1,
			HasPrecondition:  ct.HasPrecondition,
			HasPostcondition: ct.HasPostcondition,
			HasOnFailure:     ct.HasOnFailure,
		})
	}

	for i, ct := range contracts {
		if !ct.HasBody {
			// Abstract contracts (no body, no expr body) are rejected by
			// verify's E004 before compilation is ever reached; codegen
			// simply never sees one in a verified program.
			return nil, fmt.Errorf("compiling %s: contract has no body", ct.Name)
		}
		if err := compileContract(mod, file, i, ct); err != nil {
			return nil, fmt.Errorf("compiling %s: %w", ct.Name, err)
		}
	}

	mod.Instrs = append(mod.Instrs, bytecode.Instr{Op: bytecode.OpHalt})
	return mod, nil
}

func paramNames(params []ast.Param) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}
