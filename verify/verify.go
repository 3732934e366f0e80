package verify

import (
	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/diag"
	"github.com/covenant-lang/covenant/fingerprint"
)

// Run threads one parsed file through all four static verification passes
// — Intent Verification Engine, Capability/IFC, Contract Verifier, Type
// Checker — in the fixed order spec.md §9 describes ("pass a
// CompilationUnit value threaded through the passes"), reporting every
// finding into sink. It does not abort early on errors from an earlier
// pass: all four always run, so `check` reports everything in one pass
// (spec.md §6's `check FILE` contract).
func Run(file *ast.File, sink *diag.Sink) {
	contracts := map[string]*ast.Contract{}
	shared := map[string]bool{}
	for _, d := range file.Decls {
		switch n := d.(type) {
		case *ast.Contract:
			contracts[n.Name] = n
		case *ast.SharedState:
			shared[n.Name] = true
		}
	}
	labelsByType := CollectTypeLabels(file)

	for _, c := range contracts {
		fp := fingerprint.Compute(c)
		CheckIntent(file, c, fp, sink)
		CheckCapability(file, c, fp, labelsByType, sink)
		CheckContract(file, c, shared, sink)
		CheckTypes(c, contracts, sink)
	}
}
