package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covenant-lang/covenant/diag"
	"github.com/covenant-lang/covenant/modules"
	"github.com/covenant-lang/covenant/parser"
	"github.com/covenant-lang/covenant/verify"
	"github.com/covenant-lang/covenant/vm"
)

// compileSrc parses, verifies (failing the test if verify reports any
// error), and compiles src, returning a Machine ready to invoke.
func compileSrc(t *testing.T, src string) *vm.Machine {
	t.Helper()
	f, err := parser.Parse(src, "test.cov")
	require.NoError(t, err)
	sink := diag.NewSink()
	verify.Run(f, sink)
	require.False(t, sink.HasErrors(), "unexpected verify errors: %v", sink.Errors())

	c := &Compiler{}
	mod, err := c.Compile(f)
	require.NoError(t, err)
	return vm.New(mod, vm.NewModuleTable(modules.Core{}))
}

func TestCompileFactorialRecursive(t *testing.T) {
	m := compileSrc(t, `intent "compute factorial"
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
`)
	v, err := m.Invoke(context.Background(), "fact", []vm.Value{vm.Int(5)}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(120), v.I)
}

func TestCompilePreconditionTrapsWithoutOnFailure(t *testing.T) {
	m := compileSrc(t, `intent "compute factorial"
scope math.factorial
risk low

contract fact(n: Int) -> Int:
  precondition:
    n >= 0
  effects:
    touches_nothing_else
  body:
    return 1
`)
	_, err := m.Invoke(context.Background(), "fact", []vm.Value{vm.Int(-1)}, nil)
	require.Error(t, err)
	rerr, ok := err.(*vm.RuntimeError)
	require.True(t, ok)
	assert.Equal(t, vm.ErrPreconditionFailed, rerr.Code)
}

func TestCompileOnFailureProducesFallback(t *testing.T) {
	m := compileSrc(t, `intent "withdraw with floor"
scope payments.withdraw
risk medium

contract withdraw(balance: Int, amount: Int) -> Int:
  precondition:
    amount <= balance
  effects:
    touches_nothing_else
  body:
    return balance - amount
  on_failure:
    return balance
`)
	v, err := m.Invoke(context.Background(), "withdraw", []vm.Value{vm.Int(10), vm.Int(99)}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), v.I)
}

func TestCompilePostconditionWithOld(t *testing.T) {
	m := compileSrc(t, `intent "transfer funds"
scope payments.transfer
risk medium

contract transfer(from: Object, to: Object, amount: Int) -> Bool:
  precondition:
    amount <= from.balance
  effects:
    modifies [from.balance, to.balance]
  body:
    from.balance = from.balance - amount
    to.balance = to.balance + amount
    return true
  postcondition:
    from.balance == old(from.balance) - amount
`)
	from := vm.Object("Account", map[string]vm.Value{"balance": vm.Int(100)})
	to := vm.Object("Account", map[string]vm.Value{"balance": vm.Int(0)})
	v, err := m.Invoke(context.Background(), "transfer", []vm.Value{from, to, vm.Int(30)}, nil)
	require.NoError(t, err)
	assert.True(t, v.B)
}

func TestCompileForLoopOverList(t *testing.T) {
	m := compileSrc(t, `intent "sum a list"
scope math.sum_list
risk low

contract sum_list(xs: List) -> Int:
  body:
    total = 0
    for x in xs:
      total = total + x
    return total
`)
	v, err := m.Invoke(context.Background(), "sum_list", []vm.Value{
		vm.List([]vm.Value{vm.Int(1), vm.Int(2), vm.Int(3)}),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(6), v.I)
}

func TestCompileEmitRecordsEvent(t *testing.T) {
	m := compileSrc(t, `intent "notify balance change"
scope payments.notify
risk low

contract notify(amount: Int):
  effects:
    emits [balance_changed]
  body:
    emit balance_changed(amount: amount)
`)
	_, err := m.Invoke(context.Background(), "notify", []vm.Value{vm.Int(42)}, nil)
	require.NoError(t, err)
	events := m.Emitted()
	require.Len(t, events, 1)
	assert.Equal(t, "balance_changed", events[0].Name)
	assert.Equal(t, int64(42), events[0].Kwargs["amount"].I)
}

func TestCompileCheckedOverflowTraps(t *testing.T) {
	m := compileSrc(t, `intent "multiply two numbers"
scope math.multiply
risk low

contract multiply(a: Int, b: Int) -> Int:
  body:
    return a * b
`)
	_, err := m.Invoke(context.Background(), "multiply", []vm.Value{vm.Int(1 << 62), vm.Int(4)}, nil)
	require.Error(t, err)
	rerr, ok := err.(*vm.RuntimeError)
	require.True(t, ok)
	assert.Equal(t, vm.ErrIntegerOverflow, rerr.Code)
}
