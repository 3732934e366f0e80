package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covenant-lang/covenant/diag"
	"github.com/covenant-lang/covenant/parser"
)

func TestRunFactorialHasNoErrors(t *testing.T) {
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
	f, err := parser.Parse(src, "test.cov")
	require.NoError(t, err)
	sink := diag.NewSink()
	Run(f, sink)
	assert.False(t, sink.HasErrors())
	assert.True(t, hasCode(sink.All(), diag.I001))
}

func TestRunTransferEffectsViolationIsError(t *testing.T) {
	src := `intent "transfer funds"
scope payments.transfer
risk medium

contract transfer_funds(from: Object, to: Object, amount: Int):
  effects:
    modifies [from.balance]
  body:
    from.balance = from.balance - amount
    to.balance = to.balance + amount
`
	f, err := parser.Parse(src, "test.cov")
	require.NoError(t, err)
	sink := diag.NewSink()
	Run(f, sink)
	assert.True(t, sink.HasErrors())
	assert.True(t, hasCode(sink.Errors(), diag.E001))
}
