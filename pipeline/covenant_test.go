package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covenant-lang/covenant/bytecode"
	"github.com/covenant-lang/covenant/diag"
	"github.com/covenant-lang/covenant/vm"
)

// writeSrc drops src into a temp .cov file so Parse can exercise the
// on-disk path exactly as the CLI does.
func writeSrc(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "unit.cov")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// TestFactorialEndToEnd exercises spec.md §8 scenario 1: fact(10) ==
// 3628800, no check errors, recursion flagged as I001.
func TestFactorialEndToEnd(t *testing.T) {
	path := writeSrc(t, `intent "compute factorial"
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
	unit, err := Parse(path)
	require.NoError(t, err)

	sink := Check(unit)
	assert.False(t, sink.HasErrors())
	found := false
	for _, d := range sink.All() {
		if d.Code == diag.I001 {
			found = true
		}
	}
	assert.True(t, found, "expected I001 recursion flag")

	mod, err := Compile(unit)
	require.NoError(t, err)

	v, _, err := Invoke(context.Background(), mod, "", []vm.Value{vm.Int(10)}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3628800), v.I)
}

// TestTransferEffectsViolationEndToEnd exercises spec.md §8 scenario 2: a
// contract that declares `modifies [from.balance]` but also mutates
// `to.balance` in its body fails `check` with E001.
func TestTransferEffectsViolationEndToEnd(t *testing.T) {
	path := writeSrc(t, `intent "transfer funds"
scope payments.transfer
risk medium

contract transfer_funds(from: Object, to: Object, amount: Int):
  effects:
    modifies [from.balance]
  body:
    from.balance = from.balance - amount
    to.balance = to.balance + amount
`)
	unit, err := Parse(path)
	require.NoError(t, err)

	sink := Check(unit)
	require.True(t, sink.HasErrors())
	found := false
	for _, d := range sink.Errors() {
		if d.Code == diag.E001 {
			found = true
		}
	}
	assert.True(t, found, "expected E001 effects violation")
}

// TestBytecodeRoundTrip compiles a contract, serializes it to the .covc
// wire format, deserializes it back, and confirms it still executes —
// the `build` then `exec` CLI path.
func TestBytecodeRoundTrip(t *testing.T) {
	path := writeSrc(t, `intent "add two numbers"
scope math.add
risk low

contract add(a: Int, b: Int) -> Int:
  body:
    return a + b
`)
	unit, err := Parse(path)
	require.NoError(t, err)
	require.False(t, Check(unit).HasErrors())
	mod, err := Compile(unit)
	require.NoError(t, err)

	data := bytecode.Serialize(mod)
	roundTripped, err := bytecode.Deserialize(data)
	require.NoError(t, err)

	v, _, err := Invoke(context.Background(), roundTripped, "add", []vm.Value{vm.Int(2), vm.Int(3)}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.I)
}

// TestRangeBuiltinEndToEnd exercises spec.md's `range(n)` builtin: a bare
// `range(5)` call must reach the core module's dispatch (codegen has no
// other path to it) and drive a `for` loop summing 0+1+2+3+4 == 10.
func TestRangeBuiltinEndToEnd(t *testing.T) {
	path := writeSrc(t, `intent "sum a range"
scope math.sum_range
risk low

contract sum_range(n: Int) -> Int:
  body:
    total = 0
    for x in range(n):
      total = total + x
    return total
`)
	unit, err := Parse(path)
	require.NoError(t, err)
	require.False(t, Check(unit).HasErrors())

	mod, err := Compile(unit)
	require.NoError(t, err)

	v, _, err := Invoke(context.Background(), mod, "", []vm.Value{vm.Int(5)}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), v.I)
}

func TestParseArgAutoDetection(t *testing.T) {
	cases := []struct {
		in        string
		wantKey   string
		wantKind  vm.Kind
	}{
		{"n=10", "n", vm.KindInt},
		{"x=1.5", "x", vm.KindFloat},
		{"ok=true", "ok", vm.KindBool},
		{"v=null", "v", vm.KindNull},
		{"obj={\"a\":1}", "obj", vm.KindObject},
		{"arr=[1,2]", "arr", vm.KindList},
		{"s=hello", "s", vm.KindString},
	}
	for _, c := range cases {
		key, val, err := ParseArg(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.wantKey, key)
		assert.Equal(t, c.wantKind, val.Kind)
	}

	_, _, err := ParseArg("noequals")
	assert.Error(t, err)
}
