package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/diag"
	"github.com/covenant-lang/covenant/parser"
)

func contractsByName(f *ast.File) map[string]*ast.Contract {
	out := map[string]*ast.Contract{}
	for _, d := range f.Decls {
		if c, ok := d.(*ast.Contract); ok {
			out[c.Name] = c
		}
	}
	return out
}

func TestCheckTypesDivisionAlwaysFloat(t *testing.T) {
	src := `intent "halve"
scope math.halve
risk low

contract halve(n: Int) -> Float:
  body:
    return n / 2
`
	f, err := parser.Parse(src, "test.cov")
	require.NoError(t, err)
	c := f.Decls[0].(*ast.Contract)
	sink := diag.NewSink()
	CheckTypes(c, contractsByName(f), sink)
	assert.False(t, hasCode(sink.All(), diag.T002))
}

func TestCheckTypesReturnMismatch(t *testing.T) {
	src := `intent "label value"
scope strings.label
risk low

contract label_value(n: Int) -> String:
  body:
    return n + 1
`
	f, err := parser.Parse(src, "test.cov")
	require.NoError(t, err)
	c := f.Decls[0].(*ast.Contract)
	sink := diag.NewSink()
	CheckTypes(c, contractsByName(f), sink)
	assert.True(t, hasCode(sink.All(), diag.T002))
}

func TestCheckTypesInvalidOperands(t *testing.T) {
	src := `intent "combine"
scope misc.combine
risk low

contract combine(a: Int, b: Bool) -> Int:
  body:
    return a + b
`
	f, err := parser.Parse(src, "test.cov")
	require.NoError(t, err)
	c := f.Decls[0].(*ast.Contract)
	sink := diag.NewSink()
	CheckTypes(c, contractsByName(f), sink)
	assert.True(t, hasCode(sink.All(), diag.T003))
}

func TestCheckTypesArityMismatch(t *testing.T) {
	src := `intent "compute factorial"
scope math.factorial
risk low

contract fact(n: Int) -> Int:
  body:
    return 1

contract caller() -> Int:
  body:
    return fact(1, 2)
`
	f, err := parser.Parse(src, "test.cov")
	require.NoError(t, err)
	contracts := contractsByName(f)
	sink := diag.NewSink()
	CheckTypes(contracts["caller"], contracts, sink)
	assert.True(t, hasCode(sink.All(), diag.T004))
}

func TestCheckTypesArgumentMismatch(t *testing.T) {
	src := `intent "greet"
scope strings.greet
risk low

contract greet(name: String) -> String:
  body:
    return name

contract caller() -> String:
  body:
    return greet(1)
`
	f, err := parser.Parse(src, "test.cov")
	require.NoError(t, err)
	contracts := contractsByName(f)
	sink := diag.NewSink()
	CheckTypes(contracts["caller"], contracts, sink)
	assert.True(t, hasCode(sink.All(), diag.T001))
}
