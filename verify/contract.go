package verify

import (
	"fmt"

	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/diag"
)

// CheckContract runs the Contract Verifier pass (spec.md §4.6): a
// control-flow analysis over a contract's body, plus shared-state usage
// checks against its declared effects.
func CheckContract(file *ast.File, c *ast.Contract, sharedNames map[string]bool, sink *diag.Sink) {
	checkAllPathsReturn(c, sink)
	checkUnreachableAfterReturn(c, sink)
	checkOnFailureAtRisk(file, c, sink)
	checkPostconditionResultReachable(c, sink)
	checkSharedStateListedInEffects(c, sharedNames, sink)
}

// checkAllPathsReturn is V001: when a return type is declared, every
// control-flow path through the body must return. Not checked for
// expression-body contracts (they always "return" their value).
func checkAllPathsReturn(c *ast.Contract, sink *diag.Sink) {
	if c.IsExprBody || c.ReturnType == nil || !c.HasBody {
		return
	}
	if !allPathsReturn(c.Body) {
		sink.Report(diag.V001, diag.Error, c.Span(),
			fmt.Sprintf("contract %q declares a return type but not every path returns", c.Name), nil)
	}
}

// allPathsReturn reports whether every control-flow path through stmts
// ends in a return.
func allPathsReturn(stmts []ast.Statement) bool {
	if len(stmts) == 0 {
		return false
	}
	last := stmts[len(stmts)-1]
	switch n := last.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.IfStmt:
		if n.Else == nil {
			return false
		}
		return allPathsReturn(n.Then) && allPathsReturn(n.Else)
	default:
		return false
	}
}

// checkUnreachableAfterReturn is V002: no statement may follow an
// unconditional return within the same block.
func checkUnreachableAfterReturn(c *ast.Contract, sink *diag.Sink) {
	var walk func(stmts []ast.Statement)
	walk = func(stmts []ast.Statement) {
		for i, s := range stmts {
			if _, ok := s.(*ast.ReturnStmt); ok && i != len(stmts)-1 {
				sink.Report(diag.V002, diag.Error, stmts[i+1].Span(),
					"statement is unreachable after an unconditional return", nil)
			}
			switch n := s.(type) {
			case *ast.IfStmt:
				walk(n.Then)
				walk(n.Else)
			case *ast.WhileStmt:
				walk(n.Body)
			case *ast.ForStmt:
				walk(n.Body)
			}
		}
	}
	walk(c.Body)
}

// checkOnFailureAtRisk is V003: at risk high/critical, on_failure must
// be present.
func checkOnFailureAtRisk(file *ast.File, c *ast.Contract, sink *diag.Sink) {
	if file.Risk != ast.RiskHigh && file.Risk != ast.RiskCritical {
		return
	}
	if !c.HasOnFailure {
		sink.Report(diag.V003, diag.Error, c.Span(),
			fmt.Sprintf("contract %q is risk %s but has no on_failure section", c.Name, file.Risk), nil)
	}
}

// checkPostconditionResultReachable is V004: a postcondition that
// references `result` is meaningless if V001 holds (not every path
// returns), since `result` may be unbound.
func checkPostconditionResultReachable(c *ast.Contract, sink *diag.Sink) {
	if c.Postcondition == nil || c.IsExprBody || c.ReturnType == nil {
		return
	}
	if !referencesResult(c.Postcondition) {
		return
	}
	if !allPathsReturn(c.Body) {
		sink.Report(diag.V004, diag.Error, c.Span(),
			fmt.Sprintf("postcondition of %q references result, but not every path returns", c.Name), nil)
	}
}

func referencesResult(e ast.Expr) bool {
	found := false
	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		if e == nil || found {
			return
		}
		if id, ok := e.(*ast.Ident); ok && id.Name == "result" {
			found = true
			return
		}
		switch n := e.(type) {
		case *ast.BinaryExpr:
			walk(n.Left)
			walk(n.Right)
		case *ast.UnaryExpr:
			walk(n.Operand)
		case *ast.CallExpr:
			walk(n.Callee)
			for _, a := range n.Args {
				walk(a)
			}
		case *ast.MethodCallExpr:
			walk(n.Receiver)
			for _, a := range n.Args {
				walk(a)
			}
		case *ast.MemberExpr:
			walk(n.Object)
		case *ast.IndexExpr:
			walk(n.Object)
			walk(n.Index)
		case *ast.OldExpr:
			walk(n.X)
		}
	}
	walk(e)
	return found
}

// checkSharedStateListedInEffects is V005: a contract that reads or
// writes a `shared` cell must list that cell's name in its effects.
func checkSharedStateListedInEffects(c *ast.Contract, sharedNames map[string]bool, sink *diag.Sink) {
	if len(sharedNames) == 0 {
		return
	}
	touched := map[string]bool{}
	for _, s := range c.Body {
		collectStmtIdents(s, touched)
	}
	declared := map[string]bool{}
	if c.Effects != nil {
		for _, m := range c.Effects.Modifies {
			declared[m] = true
		}
		for _, r := range c.Effects.Reads {
			declared[r] = true
		}
	}
	for name := range sharedNames {
		if touched[name] && !declared[name] {
			sink.Report(diag.V005, diag.Error, c.Span(),
				fmt.Sprintf("shared state %q is accessed but not listed in effects", name), nil)
		}
	}
}
