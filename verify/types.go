package verify

import (
	"fmt"

	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/diag"
	"github.com/covenant-lang/covenant/scanner"
)

// CheckTypes runs the gradual Type Checker pass (spec.md §4.7). contracts
// maps every contract name declared in the file (used to resolve callee
// signatures for T001/T004); env seeds parameter types.
func CheckTypes(c *ast.Contract, contracts map[string]*ast.Contract, sink *diag.Sink) {
	env := map[string]ast.TypeTag{}
	for _, p := range c.Params {
		env[p.Name] = tagOf(p.Type)
	}
	tc := &typeChecker{contracts: contracts, sink: sink}

	if c.IsExprBody {
		bodyTag := tc.exprTag(c.ExprBody, env)
		tc.checkReturnType(c, bodyTag)
		return
	}
	tc.walkStmts(c.Body, env, c.ReturnType)
	tc.walkStmts(c.OnFailure, env, c.ReturnType)
}

type typeChecker struct {
	contracts map[string]*ast.Contract
	sink      *diag.Sink
}

// tagOf collapses a (possibly generic/nominal/annotated) surface Type
// into the TypeTag lattice used by arithmetic/comparison rules. Nil
// (untyped) and Named (nominal struct) both settle on a coarse tag since
// the checker does not track per-field nominal structure.
func tagOf(t ast.Type) ast.TypeTag {
	if t == nil {
		return ast.TAny
	}
	base, _ := ast.Unwrap(t)
	switch b := base.(type) {
	case *ast.Primitive:
		return b.Tag
	case *ast.Generic:
		if b.Name == "List" {
			return ast.TList
		}
		return ast.TObject
	case *ast.Named:
		return ast.TObject
	default:
		return ast.TAny
	}
}

func (tc *typeChecker) walkStmts(stmts []ast.Statement, env map[string]ast.TypeTag, retType ast.Type) {
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.AssignStmt:
			tag := tc.exprTagStmt(n.Value, env, n)
			if len(n.Path) == 0 {
				env[n.Target] = tag
			}
		case *ast.IndexAssignStmt:
			tc.exprTagStmt(n.Object, env, n)
			tc.exprTagStmt(n.Index, env, n)
			tc.exprTagStmt(n.Value, env, n)
		case *ast.IfStmt:
			tc.exprTagStmt(n.Condition, env, n)
			tc.walkStmts(n.Then, env, retType)
			tc.walkStmts(n.Else, env, retType)
		case *ast.WhileStmt:
			tc.exprTagStmt(n.Condition, env, n)
			tc.walkStmts(n.Body, env, retType)
		case *ast.ForStmt:
			tc.exprTagStmt(n.Collection, env, n)
			env[n.Var] = ast.TAny
			tc.walkStmts(n.Body, env, retType)
		case *ast.ReturnStmt:
			if n.Value == nil {
				continue
			}
			tag := tc.exprTagStmt(n.Value, env, n)
			tc.checkReturnTypeAt(retType, tag, n.Span())
		case *ast.EmitStmt:
			for _, a := range n.Args {
				tc.exprTagStmt(a, env, n)
			}
			for _, kw := range n.Kwargs {
				tc.exprTagStmt(kw.Value, env, n)
			}
		case *ast.ParallelStmt:
			for _, a := range n.Assignments {
				tc.walkStmts([]ast.Statement{a}, env, retType)
			}
		case *ast.ExprStmt:
			tc.exprTagStmt(n.X, env, n)
		}
	}
}

func (tc *typeChecker) exprTagStmt(e ast.Expr, env map[string]ast.TypeTag, s ast.Statement) ast.TypeTag {
	return tc.exprTagAt(e, env, s)
}

func (tc *typeChecker) exprTag(e ast.Expr, env map[string]ast.TypeTag) ast.TypeTag {
	if e == nil {
		return ast.TAny
	}
	return tc.exprTagAt(e, env, e)
}

var arithOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true}
var cmpOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (tc *typeChecker) exprTagAt(e ast.Expr, env map[string]ast.TypeTag, span ast.Node) ast.TypeTag {
	if e == nil {
		return ast.TAny
	}
	switch n := e.(type) {
	case *ast.IntLit:
		return ast.TInt
	case *ast.FloatLit:
		return ast.TFloat
	case *ast.StringLit:
		return ast.TString
	case *ast.BoolLit:
		return ast.TBool
	case *ast.NullLit:
		return ast.TNull
	case *ast.Ident:
		if t, ok := env[n.Name]; ok {
			return t
		}
		return ast.TAny
	case *ast.ListExpr:
		for _, el := range n.Elements {
			tc.exprTagAt(el, env, span)
		}
		return ast.TList
	case *ast.ObjectExpr:
		for _, kw := range n.Kwargs {
			tc.exprTagAt(kw.Value, env, span)
		}
		return ast.TObject
	case *ast.UnaryExpr:
		return tc.exprTagAt(n.Operand, env, span)
	case *ast.MemberExpr:
		tc.exprTagAt(n.Object, env, span)
		return ast.TAny
	case *ast.IndexExpr:
		tc.exprTagAt(n.Object, env, span)
		tc.exprTagAt(n.Index, env, span)
		return ast.TAny
	case *ast.OldExpr:
		return tc.exprTagAt(n.X, env, span)
	case *ast.AwaitExpr:
		return tc.exprTagAt(n.X, env, span)
	case *ast.HasExpr:
		return ast.TBool
	case *ast.MethodCallExpr:
		tc.exprTagAt(n.Receiver, env, span)
		for _, a := range n.Args {
			tc.exprTagAt(a, env, span)
		}
		return ast.TAny
	case *ast.CallExpr:
		return tc.checkCall(n, env, span)
	case *ast.BinaryExpr:
		return tc.checkBinary(n, env, span)
	default:
		return ast.TAny
	}
}

func (tc *typeChecker) checkBinary(n *ast.BinaryExpr, env map[string]ast.TypeTag, span ast.Node) ast.TypeTag {
	l := tc.exprTagAt(n.Left, env, span)
	r := tc.exprTagAt(n.Right, env, span)
	switch {
	case cmpOps[n.Op]:
		if l != ast.TAny && r != ast.TAny && l != r {
			tc.sink.Report(diag.T003, diag.Error, span.Span(),
				fmt.Sprintf("comparison %q has incomparable operand types %s and %s", n.Op, l, r), nil)
		}
		return ast.TBool
	case n.Op == "and" || n.Op == "or":
		return ast.TBool
	case arithOps[n.Op]:
		return tc.checkArith(n.Op, l, r, span)
	default:
		return ast.TAny
	}
}

// checkArith is spec.md §4.7's arithmetic table.
func (tc *typeChecker) checkArith(op string, l, r ast.TypeTag, span ast.Node) ast.TypeTag {
	if op == "/" {
		if !numeric(l) && l != ast.TAny || !numeric(r) && r != ast.TAny {
			tc.sink.Report(diag.T003, diag.Error, span.Span(),
				fmt.Sprintf("operator / requires numeric operands, found %s and %s", l, r), nil)
		}
		return ast.TFloat
	}
	if l == ast.TAny || r == ast.TAny {
		return ast.TAny
	}
	switch {
	case l == ast.TInt && r == ast.TInt:
		return ast.TInt
	case l == ast.TFloat && r == ast.TFloat:
		return ast.TFloat
	case (l == ast.TInt && r == ast.TFloat) || (l == ast.TFloat && r == ast.TInt):
		return ast.TFloat
	case l == ast.TString && r == ast.TString && op == "+":
		return ast.TString
	case l == ast.TList && r == ast.TList && op == "+":
		return ast.TList
	default:
		tc.sink.Report(diag.T003, diag.Error, span.Span(),
			fmt.Sprintf("operator %s has invalid operand types %s and %s", op, l, r), nil)
		return ast.TAny
	}
}

func numeric(t ast.TypeTag) bool { return t == ast.TInt || t == ast.TFloat }

// calleeName extracts a dotted call-target name from a CallExpr's callee,
// e.g. "fact" from a bare Ident or "m.f" from a MemberExpr chain.
func calleeName(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.Ident:
		return n.Name
	case *ast.MemberExpr:
		base := calleeName(n.Object)
		if base == "" {
			return n.Field
		}
		return base + "." + n.Field
	default:
		return ""
	}
}

func (tc *typeChecker) checkCall(n *ast.CallExpr, env map[string]ast.TypeTag, span ast.Node) ast.TypeTag {
	argTags := make([]ast.TypeTag, len(n.Args))
	for i, a := range n.Args {
		argTags[i] = tc.exprTagAt(a, env, span)
	}
	for _, kw := range n.Kwargs {
		tc.exprTagAt(kw.Value, env, span)
	}
	name := calleeName(n.Callee)
	target, ok := tc.contracts[name]
	if !ok {
		return ast.TAny
	}
	provided := len(n.Args) + len(n.Kwargs)
	if provided != len(target.Params) {
		tc.sink.Report(diag.T004, diag.Error, span.Span(),
			fmt.Sprintf("call to %q passes %d arguments, expected %d", name, provided, len(target.Params)), nil)
	}
	for i, at := range argTags {
		if i >= len(target.Params) {
			break
		}
		pt := tagOf(target.Params[i].Type)
		if at != ast.TAny && pt != ast.TAny && at != pt {
			tc.sink.Report(diag.T001, diag.Error, span.Span(),
				fmt.Sprintf("argument %d to %q has type %s, expected %s", i+1, name, at, pt), nil)
		}
	}
	return tagOf(target.ReturnType)
}

func (tc *typeChecker) checkReturnType(c *ast.Contract, bodyTag ast.TypeTag) {
	tc.checkReturnTypeAt(c.ReturnType, bodyTag, c.Span())
}

func (tc *typeChecker) checkReturnTypeAt(retType ast.Type, got ast.TypeTag, span scanner.Span) {
	if retType == nil {
		return
	}
	want := tagOf(retType)
	if want == ast.TAny || got == ast.TAny {
		return
	}
	if want != got {
		tc.sink.Report(diag.T002, diag.Error, span,
			fmt.Sprintf("return value has type %s, expected %s", got, want), nil)
	}
}
