package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/covenant-lang/covenant/diag"
)

func TestCheckContractFlagsMissingReturnPath(t *testing.T) {
	src := `intent "compute abs"
scope math.abs
risk low

contract abs_value(n: Int) -> Int:
  body:
    if n < 0:
      return 0 - n
`
	f, c := parseFirst(t, src)
	sink := diag.NewSink()
	CheckContract(f, c, nil, sink)
	assert.True(t, hasCode(sink.All(), diag.V001))
}

func TestCheckContractAllPathsReturnWithElse(t *testing.T) {
	src := `intent "compute abs"
scope math.abs
risk low

contract abs_value(n: Int) -> Int:
  body:
    if n < 0:
      return 0 - n
    else:
      return n
`
	f, c := parseFirst(t, src)
	sink := diag.NewSink()
	CheckContract(f, c, nil, sink)
	assert.False(t, hasCode(sink.All(), diag.V001))
}

func TestCheckContractUnreachableAfterReturn(t *testing.T) {
	src := `intent "compute abs"
scope math.abs
risk low

contract weird(n: Int) -> Int:
  body:
    return n
    return 0
`
	f, c := parseFirst(t, src)
	sink := diag.NewSink()
	CheckContract(f, c, nil, sink)
	assert.True(t, hasCode(sink.All(), diag.V002))
}

func TestCheckContractOnFailureRequiredAtHighRisk(t *testing.T) {
	src := `intent "withdraw funds"
scope payments.withdraw
risk critical

contract withdraw_funds(amount: Int):
  body:
    return
`
	f, c := parseFirst(t, src)
	sink := diag.NewSink()
	CheckContract(f, c, nil, sink)
	assert.True(t, hasCode(sink.All(), diag.V003))
}

func TestCheckContractSharedStateNotInEffects(t *testing.T) {
	src := `intent "increment counter"
scope counters.increment
risk low

contract bump_counter():
  body:
    counter = counter + 1
`
	f, c := parseFirst(t, src)
	sink := diag.NewSink()
	CheckContract(f, c, map[string]bool{"counter": true}, sink)
	assert.True(t, hasCode(sink.All(), diag.V005))
}
