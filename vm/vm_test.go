package vm

import (
	"context"
	"testing"

	"github.com/covenant-lang/covenant/bytecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFactorial assembles a tiny module by hand (independent of the
// compiler) implementing:
//
//	contract fact(n: Int) -> Int:
//	  body:
//	    if n <= 1: return 1
//	    return n * fact(n - 1)
func buildFactorial() *bytecode.Module {
	m := &bytecode.Module{Version: 1}
	one := m.AddConst(bytecode.Const{Kind: bytecode.ConstInt, I: 1})
	emptyKw := bytecode.Const{Kind: bytecode.ConstNull}
	_ = emptyKw

	instrs := []bytecode.Instr{
		/*0*/ {Op: bytecode.OpLocalLoad, Ops: [3]int32{0}},
		/*1*/ {Op: bytecode.OpConstLoad, Ops: [3]int32{one}},
		/*2*/ {Op: bytecode.OpLte},
		/*3*/ {Op: bytecode.OpJmpIfFalse, Ops: [3]int32{6}},
		/*4*/ {Op: bytecode.OpConstLoad, Ops: [3]int32{one}},
		/*5*/ {Op: bytecode.OpReturn},
		/*6*/ {Op: bytecode.OpLocalLoad, Ops: [3]int32{0}},
		/*7*/ {Op: bytecode.OpLocalLoad, Ops: [3]int32{0}},
		/*8*/ {Op: bytecode.OpConstLoad, Ops: [3]int32{one}},
		/*9*/ {Op: bytecode.OpSub},
		/*10*/ {Op: bytecode.OpCall, Ops: [3]int32{0}},
		/*11*/ {Op: bytecode.OpMul},
		/*12*/ {Op: bytecode.OpReturn},
	}
	m.Instrs = instrs
	m.Contracts = append(m.Contracts, bytecode.ContractEntry{
		Name: "fact", EntryOffset: 0, Arity: 1, ParamNames: []string{"n"}, NumLocals: 1,
		OnFailureOffset: -1,
	})
	return m
}

func TestInvokeFactorial(t *testing.T) {
	m := New(buildFactorial(), nil)
	result, err := m.Invoke(context.Background(), "fact", []Value{Int(5)}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(120), result.I)
}

func TestInvokeMissingArgument(t *testing.T) {
	m := New(buildFactorial(), nil)
	_, err := m.Invoke(context.Background(), "fact", nil, nil)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrMissingArgument, rerr.Code)
}

func TestInvokeUnknownContract(t *testing.T) {
	m := New(buildFactorial(), nil)
	_, err := m.Invoke(context.Background(), "nope", nil, nil)
	require.Error(t, err)
}

func buildOverflowModule() *bytecode.Module {
	m := &bytecode.Module{Version: 1}
	maxInt := m.AddConst(bytecode.Const{Kind: bytecode.ConstInt, I: 9223372036854775807})
	one := m.AddConst(bytecode.Const{Kind: bytecode.ConstInt, I: 1})
	m.Instrs = []bytecode.Instr{
		{Op: bytecode.OpConstLoad, Ops: [3]int32{maxInt}},
		{Op: bytecode.OpConstLoad, Ops: [3]int32{one}},
		{Op: bytecode.OpAdd},
		{Op: bytecode.OpReturn},
	}
	m.Contracts = append(m.Contracts, bytecode.ContractEntry{
		Name: "overflow", EntryOffset: 0, Arity: 0, OnFailureOffset: -1,
	})
	return m
}

func TestInvokeCheckedOverflowTraps(t *testing.T) {
	m := New(buildOverflowModule(), nil)
	_, err := m.Invoke(context.Background(), "overflow", nil, nil)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrIntegerOverflow, rerr.Code)
}

func buildDivZeroModule() *bytecode.Module {
	m := &bytecode.Module{Version: 1}
	ten := m.AddConst(bytecode.Const{Kind: bytecode.ConstInt, I: 10})
	zero := m.AddConst(bytecode.Const{Kind: bytecode.ConstInt, I: 0})
	m.Instrs = []bytecode.Instr{
		{Op: bytecode.OpConstLoad, Ops: [3]int32{ten}},
		{Op: bytecode.OpConstLoad, Ops: [3]int32{zero}},
		{Op: bytecode.OpDiv},
		{Op: bytecode.OpReturn},
	}
	m.Contracts = append(m.Contracts, bytecode.ContractEntry{Name: "divz", EntryOffset: 0, OnFailureOffset: -1})
	return m
}

func TestInvokeDivisionByZeroTraps(t *testing.T) {
	m := New(buildDivZeroModule(), nil)
	_, err := m.Invoke(context.Background(), "divz", nil, nil)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrDivisionByZero, rerr.Code)
}

func buildPreconditionModule(holds bool) *bytecode.Module {
	m := &bytecode.Module{Version: 1}
	b := m.AddConst(bytecode.Const{Kind: bytecode.ConstBool, B: holds})
	one := m.AddConst(bytecode.Const{Kind: bytecode.ConstInt, I: 1})
	m.Instrs = []bytecode.Instr{
		{Op: bytecode.OpConstLoad, Ops: [3]int32{b}},
		{Op: bytecode.OpAssertPrecondition},
		{Op: bytecode.OpConstLoad, Ops: [3]int32{one}},
		{Op: bytecode.OpReturn},
	}
	m.Contracts = append(m.Contracts, bytecode.ContractEntry{Name: "guarded", EntryOffset: 0, OnFailureOffset: -1, HasPrecondition: true})
	return m
}

func TestInvokePreconditionFailureTraps(t *testing.T) {
	m := New(buildPreconditionModule(false), nil)
	_, err := m.Invoke(context.Background(), "guarded", nil, nil)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrPreconditionFailed, rerr.Code)
}

func TestInvokePreconditionHoldsReturnsResult(t *testing.T) {
	m := New(buildPreconditionModule(true), nil)
	result, err := m.Invoke(context.Background(), "guarded", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.I)
}

type stubModule struct {
	name   string
	result Value
}

func (s *stubModule) Name() string { return s.name }
func (s *stubModule) Call(_ context.Context, _ string, _ []Value, _ map[string]Value) (Value, error) {
	return s.result, nil
}

func TestInvokeCallModuleDispatches(t *testing.T) {
	m := &bytecode.Module{Version: 1}
	modName := m.AddConst(bytecode.Const{Kind: bytecode.ConstString, S: "math"})
	methodName := m.AddConst(bytecode.Const{Kind: bytecode.ConstString, S: "abs"})
	negFive := m.AddConst(bytecode.Const{Kind: bytecode.ConstInt, I: -5})
	m.Instrs = []bytecode.Instr{
		{Op: bytecode.OpConstLoad, Ops: [3]int32{negFive}},
		{Op: bytecode.OpListNew},
		{Op: bytecode.OpCallModule, Ops: [3]int32{modName, methodName, 1}},
		{Op: bytecode.OpReturn},
	}
	m.Contracts = append(m.Contracts, bytecode.ContractEntry{Name: "absval", EntryOffset: 0, OnFailureOffset: -1})

	tbl := NewModuleTable(&stubModule{name: "math", result: Int(5)})
	machine := New(m, tbl)
	result, err := machine.Invoke(context.Background(), "absval", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.I)
}

func TestInvokeEmitRecordsEvent(t *testing.T) {
	m := &bytecode.Module{Version: 1}
	eventIdx := m.AddEvent("Done")
	oneC := m.AddConst(bytecode.Const{Kind: bytecode.ConstInt, I: 1})
	m.Instrs = []bytecode.Instr{
		{Op: bytecode.OpConstLoad, Ops: [3]int32{oneC}},
		{Op: bytecode.OpListNew},
		{Op: bytecode.OpEmit, Ops: [3]int32{eventIdx, 1}},
		{Op: bytecode.OpConstLoad, Ops: [3]int32{oneC}},
		{Op: bytecode.OpReturn},
	}
	m.Contracts = append(m.Contracts, bytecode.ContractEntry{Name: "emits", EntryOffset: 0, OnFailureOffset: -1})

	machine := New(m, nil)
	_, err := machine.Invoke(context.Background(), "emits", nil, nil)
	require.NoError(t, err)
	require.Len(t, machine.Emitted(), 1)
	assert.Equal(t, "Done", machine.Emitted()[0].Name)
}
