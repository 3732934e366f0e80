package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModule() *Module {
	m := &Module{Version: currentVersion}
	idx := m.AddConst(Const{Kind: ConstInt, I: 42})
	m.AddConst(Const{Kind: ConstString, S: "hello"})
	m.AddConst(Const{Kind: ConstFloat, F: 3.5})
	m.AddEvent("Transferred")
	m.Contracts = append(m.Contracts, ContractEntry{
		Name: "fact", EntryOffset: 0, Arity: 1, ParamNames: []string{"n"}, NumLocals: 2,
		OnFailureOffset: -1, HasPrecondition: true,
	})
	m.Instrs = []Instr{
		{Op: OpConstLoad, Ops: [3]int32{idx, 0, 0}, Span: SourceSpan{Line: 1, Col: 1}},
		{Op: OpReturn, Span: SourceSpan{Line: 1, Col: 5}},
	}
	return m
}

func TestSerializeRoundTrip(t *testing.T) {
	m := sampleModule()
	data := Serialize(m)
	got, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, m.Consts, got.Consts)
	assert.Equal(t, m.Events, got.Events)
	assert.Equal(t, m.Contracts, got.Contracts)
	assert.Equal(t, m.Instrs, got.Instrs)
}

func TestSerializeRoundTripByteIdentical(t *testing.T) {
	m := sampleModule()
	a := Serialize(m)
	got, err := Deserialize(a)
	require.NoError(t, err)
	b := Serialize(got)
	assert.Equal(t, a, b)
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	_, err := Deserialize([]byte{0, 0, 0, 0, 1})
	assert.Error(t, err)
}

func TestDeserializeRejectsUnsupportedVersion(t *testing.T) {
	data := Serialize(sampleModule())
	data[4] = 99
	_, err := Deserialize(data)
	assert.Error(t, err)
}

func TestAddConstDeduplicates(t *testing.T) {
	m := &Module{}
	i1 := m.AddConst(Const{Kind: ConstInt, I: 1})
	i2 := m.AddConst(Const{Kind: ConstInt, I: 1})
	assert.Equal(t, i1, i2)
	assert.Len(t, m.Consts, 1)
}

func TestFindContract(t *testing.T) {
	m := sampleModule()
	ce, ok := m.FindContract("fact")
	assert.True(t, ok)
	assert.Equal(t, 1, ce.Arity)
	_, ok = m.FindContract("missing")
	assert.False(t, ok)
}

func TestOpcodeCount(t *testing.T) {
	assert.Equal(t, Op(35), OpHalt+1)
}
