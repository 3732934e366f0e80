package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/diag"
	"github.com/covenant-lang/covenant/fingerprint"
	"github.com/covenant-lang/covenant/parser"
)

func parseFirst(t *testing.T, src string) (*ast.File, *ast.Contract) {
	t.Helper()
	f, err := parser.Parse(src, "test.cov")
	require.NoError(t, err)
	require.NotEmpty(t, f.Decls)
	for _, d := range f.Decls {
		if c, ok := d.(*ast.Contract); ok {
			return f, c
		}
	}
	require.Fail(t, "source declares no contract")
	return f, nil
}

func hasCode(diags []diag.Diagnostic, code string) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestCheckIntentFlagsUndeclaredMutation(t *testing.T) {
	src := `intent "transfer funds"
scope payments.transfer
risk low

contract transfer_funds(from: Object, to: Object, amount: Int):
  effects:
    modifies [from.balance]
  body:
    from.balance = from.balance - amount
    to.balance = to.balance + amount
`
	f, c := parseFirst(t, src)
	fp := fingerprint.Compute(c)
	sink := diag.NewSink()
	CheckIntent(f, c, fp, sink)
	assert.True(t, hasCode(sink.All(), diag.E001))
}

func TestCheckIntentFlagsMissingBody(t *testing.T) {
	src := `intent "stub contract"
scope demo.stub
risk low

contract stub_thing():
  precondition:
    true
`
	f, c := parseFirst(t, src)
	fp := fingerprint.Compute(c)
	sink := diag.NewSink()
	CheckIntent(f, c, fp, sink)
	assert.True(t, hasCode(sink.All(), diag.E004))
}

func TestCheckIntentEscalatesAtHighRisk(t *testing.T) {
	src := `intent "withdraw funds"
scope payments.withdraw
risk high

contract withdraw_funds(amount: Int):
  body:
    return amount
`
	f, c := parseFirst(t, src)
	fp := fingerprint.Compute(c)
	sink := diag.NewSink()
	CheckIntent(f, c, fp, sink)
	for _, d := range sink.All() {
		if d.Code == diag.W004 || d.Code == diag.W005 {
			assert.Equal(t, diag.Error, d.Severity)
		}
	}
	assert.True(t, sink.HasErrors())
}

func TestCheckIntentNoEscalationAtLowRisk(t *testing.T) {
	src := `intent "withdraw funds"
scope payments.withdraw
risk low

contract withdraw_funds(amount: Int):
  body:
    return amount
`
	f, c := parseFirst(t, src)
	fp := fingerprint.Compute(c)
	sink := diag.NewSink()
	CheckIntent(f, c, fp, sink)
	for _, d := range sink.All() {
		if d.Code == diag.W004 || d.Code == diag.W005 {
			assert.Equal(t, diag.Warning, d.Severity)
		}
	}
}

func TestCheckIntentPureContractNoEffectsSectionNoW005(t *testing.T) {
	src := `intent "add two numbers"
scope math.add
risk low

contract add_numbers(a: Int, b: Int) -> Int:
  precondition:
    true
  postcondition:
    true
  body:
    return a + b
`
	f, c := parseFirst(t, src)
	fp := fingerprint.Compute(c)
	require.False(t, fp.HasSideEffects())
	sink := diag.NewSink()
	CheckIntent(f, c, fp, sink)
	assert.False(t, hasCode(sink.All(), diag.W005))
}

func TestCheckIntentRecursionInfo(t *testing.T) {
	src := `intent "compute factorial"
scope math.factorial
risk low

contract fact(n: Int) -> Int:
  precondition:
    n >= 0
  effects:
    touches_nothing_else
  body:
    if n <= 1:
      return 1
    return n * fact(n - 1)
  postcondition:
    result >= 1
`
	f, c := parseFirst(t, src)
	fp := fingerprint.Compute(c)
	sink := diag.NewSink()
	CheckIntent(f, c, fp, sink)
	assert.True(t, hasCode(sink.All(), diag.I001))
	assert.False(t, sink.HasErrors())
}

func TestCheckIntentTouchesNothingElseFlagsImpureCall(t *testing.T) {
	src := `intent "fetch page"
scope net.fetch
risk low

contract fetch_page(url: String):
  effects:
    touches_nothing_else
  body:
    http.get(url)
`
	f, c := parseFirst(t, src)
	fp := fingerprint.Compute(c)
	sink := diag.NewSink()
	CheckIntent(f, c, fp, sink)
	assert.True(t, hasCode(sink.All(), diag.E003))
}

func TestCheckIntentOldRefNotInModifiesWarns(t *testing.T) {
	src := `intent "bump counter"
scope counters.bump
risk low

contract bump(x: Int) -> Int:
  postcondition:
    result == old(x) + 1
  body:
    return x + 1
`
	f, c := parseFirst(t, src)
	fp := fingerprint.Compute(c)
	sink := diag.NewSink()
	CheckIntent(f, c, fp, sink)
	assert.True(t, hasCode(sink.All(), diag.W007))
}
