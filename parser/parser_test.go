package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covenant-lang/covenant/ast"
)

const header = `intent "demo"
scope demo.test
risk low
`

func TestParseMinimalContract(t *testing.T) {
	src := header + `
contract add(a: Int, b: Int) -> Int:
  body:
    return a + b
`
	f, err := Parse(src, "test.cov")
	require.NoError(t, err)
	require.Len(t, f.Decls, 1)
	c, ok := f.Decls[0].(*ast.Contract)
	require.True(t, ok)
	assert.Equal(t, "add", c.Name)
	assert.Len(t, c.Params, 2)
	assert.True(t, c.HasBody)
	assert.Len(t, c.Body, 1)
}

func TestParseExpressionBodyContract(t *testing.T) {
	src := header + "\ncontract double(n: Int) -> Int = n * 2\n"
	f, err := Parse(src, "test.cov")
	require.NoError(t, err)
	c := f.Decls[0].(*ast.Contract)
	assert.True(t, c.IsExprBody)
	assert.NotNil(t, c.ExprBody)
}

func TestParseMissingHeaderIsError(t *testing.T) {
	_, err := Parse("contract foo():\n  body:\n    return 1\n", "test.cov")
	require.Error(t, err)
}

func TestParseScopeRequiresTwoSegments(t *testing.T) {
	_, err := Parse("intent \"x\"\nscope demo\nrisk low\n", "test.cov")
	require.Error(t, err)
}

func TestParseFactorial(t *testing.T) {
	src := header + `
contract fact(n: Int) -> Int:
  precondition:
    n >= 0
  body:
    if n <= 1:
      return 1
    return n * fact(n - 1)
`
	f, err := Parse(src, "test.cov")
	require.NoError(t, err)
	c := f.Decls[0].(*ast.Contract)
	assert.True(t, c.HasPrecondition)
	require.Len(t, c.Body, 2)
	ifStmt, ok := c.Body[0].(*ast.IfStmt)
	require.True(t, ok)
	assert.Len(t, ifStmt.Then, 1)
}

func TestParseEffectsAndPermissions(t *testing.T) {
	src := header + `
contract transfer(from: Object, to: Object, amount: Int):
  effects:
    modifies [from.balance, to.balance]
    emits [Transferred]
  permissions:
    grants [wallet.debit]
    denies [wallet.admin]
  body:
    from.balance = from.balance - amount
    to.balance = to.balance + amount
    emit Transferred(amount: amount)
`
	f, err := Parse(src, "test.cov")
	require.NoError(t, err)
	c := f.Decls[0].(*ast.Contract)
	require.NotNil(t, c.Effects)
	assert.Equal(t, []string{"from.balance", "to.balance"}, c.Effects.Modifies)
	assert.Equal(t, []string{"Transferred"}, c.Effects.Emits)
	require.NotNil(t, c.Permissions)
	assert.Equal(t, []string{"wallet.debit"}, c.Permissions.Grants)
	require.Len(t, c.Body, 3)
	assign, ok := c.Body[0].(*ast.AssignStmt)
	require.True(t, ok)
	assert.Equal(t, "from", assign.Target)
	assert.Equal(t, []string{"balance"}, assign.Path)
}

func TestParseObjectConstructionRequiresKeywordArgs(t *testing.T) {
	src := header + `
contract make() -> Object:
  body:
    return Point(x: 1, y: 2)
`
	f, err := Parse(src, "test.cov")
	require.NoError(t, err)
	c := f.Decls[0].(*ast.Contract)
	ret := c.Body[0].(*ast.ReturnStmt)
	obj, ok := ret.Value.(*ast.ObjectExpr)
	require.True(t, ok)
	assert.Equal(t, "Point", obj.TypeName)
	assert.Len(t, obj.Kwargs, 2)
}

func TestParseObjectConstructionRejectsPositionalArgs(t *testing.T) {
	src := header + `
contract make() -> Object:
  body:
    return Point(1, 2)
`
	_, err := Parse(src, "test.cov")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires keyword arguments")
}

func TestParseTypeDecl(t *testing.T) {
	src := header + `
type Account:
  balance: Int
  owner: String [sensitive]
`
	f, err := Parse(src, "test.cov")
	require.NoError(t, err)
	td := f.Decls[0].(*ast.TypeDecl)
	require.Len(t, td.Fields, 2)
	assert.Equal(t, "owner", td.Fields[1].Name)
	annotated, ok := td.Fields[1].Type.(*ast.Annotated)
	require.True(t, ok)
	assert.Equal(t, []string{"sensitive"}, annotated.Labels)
}

func TestParseOldAndHas(t *testing.T) {
	src := header + `
contract bump(x: Int) -> Int:
  postcondition:
    result == old(x) + 1
  effects:
    modifies [x]
  permissions:
    grants [cap.bump]
  body:
    x = x + 1
    return x
`
	f, err := Parse(src, "test.cov")
	require.NoError(t, err)
	c := f.Decls[0].(*ast.Contract)
	require.NotNil(t, c.Postcondition)
	bin, ok := c.Postcondition.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "==", bin.Op)
	_, ok = bin.Right.(*ast.BinaryExpr)
	require.True(t, ok)
}

func TestParseMaxExpressionDepth(t *testing.T) {
	src := header + "\ncontract deep() -> Int:\n  body:\n    return "
	for i := 0; i < 300; i++ {
		src += "("
	}
	src += "1"
	for i := 0; i < 300; i++ {
		src += ")"
	}
	src += "\n"
	_, err := Parse(src, "test.cov")
	require.Error(t, err)
}
