package verify

import (
	"fmt"
	"strings"

	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/diag"
	"github.com/covenant-lang/covenant/fingerprint"
)

// CheckCapability runs the Capability/IFC pass (spec.md §4.5) over one
// contract. labelsByType resolves a nominal (Named) parameter type to its
// TypeDecl's per-field flow labels, built once per file by CollectTypeLabels.
func CheckCapability(file *ast.File, c *ast.Contract, fp *fingerprint.Fingerprint, labelsByType map[string][]string, sink *diag.Sink) {
	checkRequiresChecked(file, fp, sink)
	checkCapabilityNamesDeclared(file, c, sink)
	checkGrantsDeniesOverlap(c, sink)
	checkDeniedCapabilityUsed(c, fp, sink)
	checkTaintedToSink(c, labelsByType, sink)
}

// checkRequiresChecked is F004: every capability named in the file's
// `requires` header must be checked with `has` somewhere — decided (per
// DESIGN.md's Open Question resolution) to mean "checked at entry
// anywhere in the body", not necessarily at every use site.
func checkRequiresChecked(file *ast.File, fp *fingerprint.Fingerprint, sink *diag.Sink) {
	for _, cap := range file.Requires {
		if !fp.CapabilityChecks[cap] {
			sink.Report(diag.F004, diag.Error, file.Span(),
				fmt.Sprintf("capability %q is required by the header but never checked with has", cap), nil)
		}
	}
}

// checkCapabilityNamesDeclared is F005: every capability name referenced
// anywhere (has, grants, denies) must appear in the file's requires list.
func checkCapabilityNamesDeclared(file *ast.File, c *ast.Contract, sink *diag.Sink) {
	declared := map[string]bool{}
	for _, r := range file.Requires {
		declared[r] = true
	}
	report := func(name string) {
		if !declared[name] {
			sink.Report(diag.F005, diag.Error, c.Span(),
				fmt.Sprintf("capability %q is not declared in the header requires list", name), nil)
		}
	}
	if c.Permissions != nil {
		for _, g := range c.Permissions.Grants {
			report(g)
		}
		for _, d := range c.Permissions.Denies {
			report(d)
		}
	}
}

// checkGrantsDeniesOverlap is F006: a capability cannot be both granted
// and denied by the same contract.
func checkGrantsDeniesOverlap(c *ast.Contract, sink *diag.Sink) {
	if c.Permissions == nil {
		return
	}
	denies := map[string]bool{}
	for _, d := range c.Permissions.Denies {
		denies[d] = true
	}
	for _, g := range c.Permissions.Grants {
		if denies[g] {
			sink.Report(diag.F006, diag.Error, c.Span(),
				fmt.Sprintf("capability %q appears in both grants and denies", g), nil)
		}
	}
}

// checkDeniedCapabilityUsed is F002: the body checks (has) a capability
// that the contract's own permissions section denies — a direct
// contradiction between declared permission and observed behavior.
func checkDeniedCapabilityUsed(c *ast.Contract, fp *fingerprint.Fingerprint, sink *diag.Sink) {
	if c.Permissions == nil {
		return
	}
	for _, d := range c.Permissions.Denies {
		if fp.CapabilityChecks[d] {
			sink.Report(diag.F002, diag.Error, c.Span(),
				fmt.Sprintf("capability %q is checked but denied by this contract's own permissions", d), nil)
		}
	}
}

// checkTaintedToSink is F001 (F003 is not reported), a flow-insensitive label propagation
// (spec.md §4.5: "any assignment dst = expr unions the labels of all
// identifiers in expr into dst's label set"). Parameters start with the
// labels of their declared (possibly nominal) type; emit arguments are
// treated as the sink boundary, since emit is the language's only
// built-in way for data to leave a contract.
func checkTaintedToSink(c *ast.Contract, labelsByType map[string][]string, sink *diag.Sink) {
	labels := map[string]map[string]bool{}
	addLabels := func(name string, ls []string) {
		if len(ls) == 0 {
			return
		}
		if labels[name] == nil {
			labels[name] = map[string]bool{}
		}
		for _, l := range ls {
			labels[name][l] = true
		}
	}
	for _, p := range c.Params {
		t, ls := ast.Unwrap(p.Type)
		addLabels(p.Name, ls)
		if named, ok := t.(*ast.Named); ok {
			addLabels(p.Name, labelsByType[named.Name])
		}
	}

	grants := map[string]bool{}
	if c.Permissions != nil {
		for _, g := range c.Permissions.Grants {
			grants[g] = true
		}
	}

	exprLabels := func(e ast.Expr) map[string]bool {
		touched := map[string]bool{}
		collectIdents(e, touched)
		union := map[string]bool{}
		for name := range touched {
			for l := range labels[name] {
				union[l] = true
			}
		}
		return union
	}

	var walkStmts func(stmts []ast.Statement)
	walkStmts = func(stmts []ast.Statement) {
		for _, s := range stmts {
			switch n := s.(type) {
			case *ast.AssignStmt:
				target := n.Target
				if len(n.Path) > 0 {
					target = target + "." + strings.Join(n.Path, ".")
				}
				ls := exprLabels(n.Value)
				for l := range ls {
					addLabels(target, []string{l})
				}
			case *ast.IndexAssignStmt:
				if base := pathBaseExpr(n.Object); base != "" {
					ls := exprLabels(n.Value)
					for l := range ls {
						addLabels(base, []string{l})
					}
				}
			case *ast.IfStmt:
				walkStmts(n.Then)
				walkStmts(n.Else)
			case *ast.WhileStmt:
				walkStmts(n.Body)
			case *ast.ForStmt:
				walkStmts(n.Body)
			case *ast.EmitStmt:
				for _, a := range n.Args {
					for l := range exprLabels(a) {
						if !grants[l] {
							sink.Report(diag.F001, diag.Error, c.Span(),
								fmt.Sprintf("value labeled %q reaches emit %q without a matching grant", l, n.Event), nil)
						}
					}
				}
				for _, kw := range n.Kwargs {
					for l := range exprLabels(kw.Value) {
						if !grants[l] {
							sink.Report(diag.F001, diag.Error, c.Span(),
								fmt.Sprintf("value labeled %q reaches emit %q without a matching grant", l, n.Event), nil)
						}
					}
				}
			case *ast.ParallelStmt:
				for _, a := range n.Assignments {
					walkStmts([]ast.Statement{a})
				}
			}
		}
	}
	walkStmts(c.Body)
	walkStmts(c.OnFailure)
}

// pathBaseExpr is a thin re-export of the fingerprint package's dotted
// lvalue-base extraction logic, duplicated here (rather than exported
// from fingerprint) since it is a parser-adjacent AST helper, not part
// of the BehavioralFingerprint's own public surface.
func pathBaseExpr(e ast.Expr) string {
	var segs []string
	for {
		switch n := e.(type) {
		case *ast.Ident:
			segs = append([]string{n.Name}, segs...)
			return strings.Join(segs, ".")
		case *ast.MemberExpr:
			segs = append([]string{n.Field}, segs...)
			e = n.Object
		default:
			return ""
		}
	}
}

// CollectTypeLabels builds a TypeDecl-name -> union-of-field-labels table
// for one file, used to seed parameter label sets in checkTaintedToSink.
func CollectTypeLabels(file *ast.File) map[string][]string {
	out := map[string][]string{}
	for _, d := range file.Decls {
		td, ok := d.(*ast.TypeDecl)
		if !ok {
			continue
		}
		seen := map[string]bool{}
		var labels []string
		for _, f := range td.Fields {
			_, ls := ast.Unwrap(f.Type)
			for _, l := range ls {
				if !seen[l] {
					seen[l] = true
					labels = append(labels, l)
				}
			}
		}
		out[td.Name] = labels
	}
	return out
}
