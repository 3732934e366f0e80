// Package verify implements Covenant's four static verification passes —
// Intent Verification Engine, Capability/IFC, Contract Verifier, Type
// Checker — each consuming the AST (and, for IVE, the fingerprint) and
// reporting into a shared diag.Sink (spec.md §4.4-§4.7, §9).
package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/diag"
	"github.com/covenant-lang/covenant/fingerprint"
)

// pureAllowlist names module.method calls treated as side-effect-free for
// touches_nothing_else (E003) purposes — a deliberately small slice of the
// four minimal host modules (SPEC_FULL.md §B), not the full stdlib.
var pureAllowlist = map[string]bool{
	"math.abs": true, "math.max": true, "math.min": true,
	"math.pow": true, "math.sqrt": true, "math.floor": true, "math.ceil": true,
	"str.upper": true, "str.lower": true, "str.concat": true,
	"str.trim": true, "str.split": true, "str.len": true,
	"json.encode": true, "json.decode": true,
}

// CheckIntent runs the Intent Verification Engine over one contract and
// reports diagnostics into sink. file is the containing *ast.File (for
// the risk level and, heuristically, the declared intent/scope text).
func CheckIntent(file *ast.File, c *ast.Contract, fp *fingerprint.Fingerprint, sink *diag.Sink) {
	escalate := file.Risk == ast.RiskHigh || file.Risk == ast.RiskCritical

	checkBodyPresence(c, sink)
	checkModifiesClosure(file, c, fp, sink)
	checkEmitsClosure(c, fp, sink)
	checkTouchesNothingElse(c, fp, sink)
	checkDeclaredEffectsObserved(c, fp, sink)
	checkOldRefsInModifies(c, fp, sink)
	checkMissingSections(file, c, fp, sink, escalate)
	checkIntentScopeMismatch(file, c, sink)
	checkAchievability(c, sink)

	if fp.HasRecursion {
		sink.Report(diag.I001, diag.Info, c.Span(), fmt.Sprintf("contract %q calls itself recursively", c.Name), nil)
	}
	if depth := maxNestingDepth(c); depth > 3 {
		sink.Report(diag.I002, diag.Info, c.Span(),
			fmt.Sprintf("contract %q nests control-flow blocks %d deep (> 3)", c.Name, depth), nil)
	}
}

// checkBodyPresence is E004: a non-expression-body contract must have a
// body. The grammar has no `abstract` marker, so every contract is
// non-abstract — see DESIGN.md's Open Question decision.
func checkBodyPresence(c *ast.Contract, sink *diag.Sink) {
	if c.IsExprBody || c.HasBody {
		return
	}
	sink.Report(diag.E004, diag.Error, c.Span(),
		fmt.Sprintf("contract %q has no body section", c.Name),
		&diag.SuggestedFix{Description: "add a body section", Text: "  body:\n    pass\n"})
}

// checkModifiesClosure is E001: every mutation observed in the
// fingerprint must be declared in effects: modifies. A bare name that is
// neither a parameter nor a `shared` cell is a body-local variable, not
// an effect, and is not checked.
func checkModifiesClosure(file *ast.File, c *ast.Contract, fp *fingerprint.Fingerprint, sink *diag.Sink) {
	declared := effectSet(c, func(e *ast.Effects) []string { return e.Modifies })
	external := map[string]bool{}
	for _, p := range c.Params {
		external[p.Name] = true
	}
	for _, d := range file.Decls {
		if s, ok := d.(*ast.SharedState); ok {
			external[s.Name] = true
		}
	}
	for _, path := range sortedSet(fp.Mutates) {
		if declared[path] || (!strings.Contains(path, ".") && !external[path]) {
			continue
		}
		sink.Report(diag.E001, diag.Error, c.Span(),
			fmt.Sprintf("%q is mutated but not declared in effects: modifies", path),
			&diag.SuggestedFix{Description: "declare the mutation", Text: modifiesFixText(declared, path)})
	}
}

// checkEmitsClosure is E005: every event emitted in the body must be
// declared in effects: emits.
func checkEmitsClosure(c *ast.Contract, fp *fingerprint.Fingerprint, sink *diag.Sink) {
	declared := effectSet(c, func(e *ast.Effects) []string { return e.Emits })
	for _, ev := range sortedSet(fp.Emits) {
		if declared[ev] {
			continue
		}
		sink.Report(diag.E005, diag.Error, c.Span(),
			fmt.Sprintf("event %q is emitted but not declared in effects: emits", ev),
			&diag.SuggestedFix{Description: "declare the emit", Text: emitsFixText(declared, ev)})
	}
}

// checkTouchesNothingElse is E003: with touches_nothing_else declared,
// every call must be to the contract itself, to another local contract,
// or to an allow-listed pure host call.
func checkTouchesNothingElse(c *ast.Contract, fp *fingerprint.Fingerprint, sink *diag.Sink) {
	if c.Effects == nil || !c.Effects.TouchesNothingElse {
		return
	}
	for _, call := range sortedSet(fp.Calls) {
		if call == c.Name || !strings.Contains(call, ".") || pureAllowlist[call] {
			continue
		}
		sink.Report(diag.E003, diag.Error, c.Span(),
			fmt.Sprintf("touches_nothing_else is declared but %q is an undeclared impure call", call), nil)
	}
}

// checkDeclaredEffectsObserved is W001 (modifies/reads not observed) and
// W006 (declared emit not observed).
func checkDeclaredEffectsObserved(c *ast.Contract, fp *fingerprint.Fingerprint, sink *diag.Sink) {
	if c.Effects == nil {
		return
	}
	for _, m := range c.Effects.Modifies {
		if !fp.Mutates[m] {
			sink.Report(diag.W001, diag.Warning, c.Span(),
				fmt.Sprintf("declared modifies %q is never observed as a mutation", m), nil)
		}
	}
	for _, r := range c.Effects.Reads {
		if !fp.Reads[r] {
			sink.Report(diag.W001, diag.Warning, c.Span(),
				fmt.Sprintf("declared reads %q is never observed as a read", r), nil)
		}
	}
	for _, ev := range c.Effects.Emits {
		if !fp.Emits[ev] {
			sink.Report(diag.W006, diag.Warning, c.Span(),
				fmt.Sprintf("declared emit %q is never observed", ev), nil)
		}
	}
}

// checkOldRefsInModifies is W007: old() must reference a base that is
// declared as modified, since old() exists to snapshot a value that
// changes within the body.
func checkOldRefsInModifies(c *ast.Contract, fp *fingerprint.Fingerprint, sink *diag.Sink) {
	declared := effectSet(c, func(e *ast.Effects) []string { return e.Modifies })
	for _, base := range sortedSet(fp.OldRefs) {
		if declared[base] {
			continue
		}
		sink.Report(diag.W007, diag.Warning, c.Span(),
			fmt.Sprintf("old(%s) references a base not declared in effects: modifies", base), nil)
	}
}

// checkMissingSections is W004 (missing precondition/postcondition — an
// achievability concern) and W005 (missing effects — only when the body
// actually has external side effects, per spec.md §4.4), escalated to
// Error when escalate is set (spec.md §4.4 "auto-escalation" at risk
// high/critical).
func checkMissingSections(file *ast.File, c *ast.Contract, fp *fingerprint.Fingerprint, sink *diag.Sink, escalate bool) {
	sev := diag.Warning
	if escalate {
		sev = diag.Error
	}
	if !c.HasPrecondition {
		sink.Report(diag.W004, sev, c.Span(),
			fmt.Sprintf("contract %q has no precondition section", c.Name),
			&diag.SuggestedFix{Description: "add a precondition", Text: "  precondition:\n    true\n"})
	}
	if !c.HasPostcondition {
		sink.Report(diag.W004, sev, c.Span(),
			fmt.Sprintf("contract %q has no postcondition section", c.Name),
			&diag.SuggestedFix{Description: "add a postcondition", Text: "  postcondition:\n    true\n"})
	}
	if !c.HasEffects && fp.HasSideEffects() {
		sink.Report(diag.W005, sev, c.Span(),
			fmt.Sprintf("contract %q has no effects section", c.Name),
			&diag.SuggestedFix{Description: "add an effects section", Text: "  effects:\n    touches_nothing_else\n"})
	}
}

// checkIntentScopeMismatch is W003, a heuristic: the contract's name
// (split on underscores) should share at least one token with the file's
// declared intent text. This is a best-effort lexical check — the spec
// does not define an algorithm for "declared intent / scope mismatch", so
// any contract name entirely absent from the intent text is flagged.
func checkIntentScopeMismatch(file *ast.File, c *ast.Contract, sink *diag.Sink) {
	intentWords := wordSet(file.Intent)
	for _, tok := range strings.Split(c.Name, "_") {
		tok = strings.ToLower(tok)
		if len(tok) < 3 {
			continue
		}
		if intentWords[tok] {
			return
		}
	}
	sink.Report(diag.W003, diag.Warning, c.Span(),
		fmt.Sprintf("contract %q shares no naming overlap with the declared intent %q", c.Name, file.Intent), nil)
}

// checkAchievability flags a postcondition that mentions no identifier
// touched anywhere in the body (other than `result`), since such a
// postcondition can never depend on what the contract actually does.
func checkAchievability(c *ast.Contract, sink *diag.Sink) {
	if c.Postcondition == nil || (!c.HasBody && !c.IsExprBody) {
		return
	}
	touched := map[string]bool{}
	for _, p := range c.Params {
		touched[p.Name] = true
	}
	collectIdents(c.Postcondition, touched)
	bodyIdents := map[string]bool{}
	for _, s := range c.Body {
		collectStmtIdents(s, bodyIdents)
	}
	if c.IsExprBody {
		collectIdents(c.ExprBody, bodyIdents)
	}
	for name := range touched {
		if name == "result" {
			continue
		}
		if bodyIdents[name] {
			return
		}
	}
	sink.Report(diag.W004, diag.Warning, c.Span(),
		fmt.Sprintf("postcondition of %q does not reference anything the body touches", c.Name), nil)
}

func effectSet(c *ast.Contract, pick func(*ast.Effects) []string) map[string]bool {
	out := map[string]bool{}
	if c.Effects == nil {
		return out
	}
	for _, v := range pick(c.Effects) {
		out[v] = true
	}
	return out
}

func modifiesFixText(declared map[string]bool, add string) string {
	return effectsFixText("modifies", declared, add)
}

func emitsFixText(declared map[string]bool, add string) string {
	return effectsFixText("emits", declared, add)
}

func effectsFixText(label string, declared map[string]bool, add string) string {
	items := sortedSet(declared)
	items = append(items, add)
	sort.Strings(items)
	return fmt.Sprintf("  effects:\n    %s [%s]\n", label, strings.Join(items, ", "))
}

func sortedSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func wordSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		out[w] = true
	}
	return out
}

// maxNestingDepth computes the deepest nesting of control-flow blocks
// (if/while/for) in c's body, for I002.
func maxNestingDepth(c *ast.Contract) int {
	if c.IsExprBody {
		return 0
	}
	return blockDepth(c.Body)
}

func blockDepth(stmts []ast.Statement) int {
	max := 0
	for _, s := range stmts {
		d := 0
		switch n := s.(type) {
		case *ast.IfStmt:
			d = 1 + maxInt(blockDepth(n.Then), blockDepth(n.Else))
		case *ast.WhileStmt:
			d = 1 + blockDepth(n.Body)
		case *ast.ForStmt:
			d = 1 + blockDepth(n.Body)
		}
		if d > max {
			max = d
		}
	}
	return max
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// collectIdents adds every bare identifier name referenced in e to out.
func collectIdents(e ast.Expr, out map[string]bool) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *ast.Ident:
		out[n.Name] = true
	case *ast.BinaryExpr:
		collectIdents(n.Left, out)
		collectIdents(n.Right, out)
	case *ast.UnaryExpr:
		collectIdents(n.Operand, out)
	case *ast.CallExpr:
		collectIdents(n.Callee, out)
		for _, a := range n.Args {
			collectIdents(a, out)
		}
		for _, kw := range n.Kwargs {
			collectIdents(kw.Value, out)
		}
	case *ast.MethodCallExpr:
		collectIdents(n.Receiver, out)
		for _, a := range n.Args {
			collectIdents(a, out)
		}
	case *ast.MemberExpr:
		collectIdents(n.Object, out)
	case *ast.IndexExpr:
		collectIdents(n.Object, out)
		collectIdents(n.Index, out)
	case *ast.ListExpr:
		for _, el := range n.Elements {
			collectIdents(el, out)
		}
	case *ast.ObjectExpr:
		for _, kw := range n.Kwargs {
			collectIdents(kw.Value, out)
		}
	case *ast.OldExpr:
		collectIdents(n.X, out)
	case *ast.AwaitExpr:
		collectIdents(n.X, out)
	}
}

func collectStmtIdents(s ast.Statement, out map[string]bool) {
	switch n := s.(type) {
	case *ast.AssignStmt:
		out[n.Target] = true
		collectIdents(n.Value, out)
	case *ast.IndexAssignStmt:
		collectIdents(n.Object, out)
		collectIdents(n.Index, out)
		collectIdents(n.Value, out)
	case *ast.IfStmt:
		collectIdents(n.Condition, out)
		for _, s2 := range n.Then {
			collectStmtIdents(s2, out)
		}
		for _, s2 := range n.Else {
			collectStmtIdents(s2, out)
		}
	case *ast.WhileStmt:
		collectIdents(n.Condition, out)
		for _, s2 := range n.Body {
			collectStmtIdents(s2, out)
		}
	case *ast.ForStmt:
		out[n.Var] = true
		collectIdents(n.Collection, out)
		for _, s2 := range n.Body {
			collectStmtIdents(s2, out)
		}
	case *ast.ReturnStmt:
		collectIdents(n.Value, out)
	case *ast.EmitStmt:
		for _, a := range n.Args {
			collectIdents(a, out)
		}
	case *ast.ParallelStmt:
		for _, a := range n.Assignments {
			collectStmtIdents(a, out)
		}
	case *ast.ExprStmt:
		collectIdents(n.X, out)
	}
}
