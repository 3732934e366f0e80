// Package fingerprint computes the BehavioralFingerprint of a contract by
// syntactic inspection of its body, without executing it (spec.md §3, §4.3).
package fingerprint

import (
	"sort"
	"strings"

	"github.com/covenant-lang/covenant/ast"
)

// Fingerprint is the set-valued summary of a contract's observable
// behavior, computed purely from its AST.
type Fingerprint struct {
	Reads             map[string]bool
	Mutates           map[string]bool
	Calls             map[string]bool
	Emits             map[string]bool
	OldRefs           map[string]bool
	CapabilityChecks  map[string]bool
	HasBranching      bool
	HasLooping        bool
	HasRecursion      bool
}

func newFingerprint() *Fingerprint {
	return &Fingerprint{
		Reads:            map[string]bool{},
		Mutates:          map[string]bool{},
		Calls:            map[string]bool{},
		Emits:            map[string]bool{},
		OldRefs:          map[string]bool{},
		CapabilityChecks: map[string]bool{},
	}
}

// HasSideEffects reports whether fp observed any external side effect —
// a mutation, an emitted event, or an impure call — per spec.md §4.4's
// "body has external side effects".
func (fp *Fingerprint) HasSideEffects() bool {
	return len(fp.Mutates) > 0 || len(fp.Emits) > 0 || len(fp.Calls) > 0
}

// Compute walks c's body (and on_failure, if present) and returns its
// BehavioralFingerprint. The postcondition contributes only its old()
// bases to OldRefs; its other reads and calls are not recorded.
func Compute(c *ast.Contract) *Fingerprint {
	fp := newFingerprint()
	w := &walker{fp: fp, contractName: c.Name}
	if c.IsExprBody {
		w.walkExpr(c.ExprBody)
	}
	for _, s := range c.Body {
		w.walkStmt(s)
	}
	for _, s := range c.OnFailure {
		w.walkStmt(s)
	}
	if c.Postcondition != nil {
		pw := &walker{fp: newFingerprint(), contractName: c.Name}
		pw.walkExpr(c.Postcondition)
		for base := range pw.fp.OldRefs {
			fp.OldRefs[base] = true
		}
	}
	return fp
}

type walker struct {
	fp           *Fingerprint
	contractName string
	depth        int
}

func (w *walker) walkBlock(stmts []ast.Statement) {
	w.depth++
	if w.depth > 3 {
		// depth beyond 3 is reported by the intent verifier (I002); the
		// fingerprint itself does not cap recursion into nested blocks.
	}
	for _, s := range stmts {
		w.walkStmt(s)
	}
	w.depth--
}

func (w *walker) walkStmt(s ast.Statement) {
	switch n := s.(type) {
	case *ast.AssignStmt:
		w.addMutation(joinPath(n.Target, n.Path))
		w.walkExpr(n.Value)
	case *ast.IndexAssignStmt:
		if base := pathBase(n.Object); base != "" {
			w.addMutation(base)
		}
		w.walkExpr(n.Object)
		w.walkExpr(n.Index)
		w.walkExpr(n.Value)
	case *ast.IfStmt:
		w.fp.HasBranching = true
		w.walkExpr(n.Condition)
		w.walkBlock(n.Then)
		w.walkBlock(n.Else)
	case *ast.WhileStmt:
		w.fp.HasLooping = true
		w.walkExpr(n.Condition)
		w.walkBlock(n.Body)
	case *ast.ForStmt:
		w.fp.HasLooping = true
		w.walkExpr(n.Collection)
		w.walkBlock(n.Body)
	case *ast.ReturnStmt:
		if n.Value != nil {
			w.walkExpr(n.Value)
		}
	case *ast.EmitStmt:
		w.fp.Emits[n.Event] = true
		for _, a := range n.Args {
			w.walkExpr(a)
		}
		for _, kw := range n.Kwargs {
			w.walkExpr(kw.Value)
		}
	case *ast.ParallelStmt:
		for _, a := range n.Assignments {
			w.walkStmt(a)
		}
	case *ast.ExprStmt:
		w.walkExpr(n.X)
	}
}

func (w *walker) walkExpr(e ast.Expr) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *ast.BinaryExpr:
		w.walkExpr(n.Left)
		w.walkExpr(n.Right)
	case *ast.UnaryExpr:
		w.walkExpr(n.Operand)
	case *ast.CallExpr:
		if name := calleeName(n.Callee); name != "" {
			w.fp.Calls[name] = true
			if name == w.contractName {
				w.fp.HasRecursion = true
			}
		}
		for _, a := range n.Args {
			w.walkExpr(a)
		}
		for _, kw := range n.Kwargs {
			w.walkExpr(kw.Value)
		}
	case *ast.MethodCallExpr:
		if base := pathBase(n.Receiver); base != "" {
			w.fp.Calls[base+"."+n.Method] = true
		}
		w.walkExpr(n.Receiver)
		for _, a := range n.Args {
			w.walkExpr(a)
		}
		for _, kw := range n.Kwargs {
			w.walkExpr(kw.Value)
		}
	case *ast.MemberExpr:
		if base := pathBase(n); base != "" {
			w.fp.Reads[base] = true
		}
		w.walkExpr(n.Object)
	case *ast.IndexExpr:
		w.walkExpr(n.Object)
		w.walkExpr(n.Index)
	case *ast.ListExpr:
		for _, el := range n.Elements {
			w.walkExpr(el)
		}
	case *ast.ObjectExpr:
		for _, kw := range n.Kwargs {
			w.walkExpr(kw.Value)
		}
	case *ast.OldExpr:
		if base := pathBase(n.X); base != "" {
			w.fp.OldRefs[base] = true
		}
		w.walkExpr(n.X)
	case *ast.HasExpr:
		w.fp.CapabilityChecks[n.Capability] = true
	case *ast.AwaitExpr:
		w.walkExpr(n.X)
	case *ast.Ident:
		w.fp.Reads[n.Name] = true
	}
}

func (w *walker) addMutation(path string) {
	if path != "" {
		w.fp.Mutates[path] = true
	}
}

// calleeName extracts a dotted call target name, e.g. `m.f` from a
// MemberExpr-based callee, or a bare name from an Ident callee.
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

// pathBase extracts the root dotted path of an expression used as an
// lvalue or old()/mutation base, e.g. `a.b.c` from nested MemberExprs.
func pathBase(e ast.Expr) string {
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

func joinPath(target string, path []string) string {
	if len(path) == 0 {
		return target
	}
	return target + "." + strings.Join(path, ".")
}

// sortedKeys returns the keys of a string-set sorted lexicographically,
// used both for deterministic canonicalization (hash.go) and for display.
func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
