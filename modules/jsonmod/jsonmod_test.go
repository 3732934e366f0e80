package jsonmod

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covenant-lang/covenant/vm"
)

func TestJSONParseWholeNumberBecomesInt(t *testing.T) {
	j := JSON{}
	v, err := j.Call(context.Background(), "parse", []vm.Value{vm.Str(`{"a": 1, "b": 1.5}`)}, nil)
	require.NoError(t, err)
	require.Equal(t, vm.KindObject, v.Kind)
	assert.Equal(t, vm.KindInt, v.Object["a"].Kind)
	assert.Equal(t, int64(1), v.Object["a"].I)
	assert.Equal(t, vm.KindFloat, v.Object["b"].Kind)
}

func TestJSONEncodeRoundTrip(t *testing.T) {
	j := JSON{}
	obj := vm.Object("", map[string]vm.Value{"n": vm.Int(42)})
	encoded, err := j.Call(context.Background(), "encode", []vm.Value{obj}, nil)
	require.NoError(t, err)

	decoded, err := j.Call(context.Background(), "parse", []vm.Value{encoded}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), decoded.Object["n"].I)
}

func TestJSONParseInvalidIsError(t *testing.T) {
	j := JSON{}
	_, err := j.Call(context.Background(), "parse", []vm.Value{vm.Str("{not json")}, nil)
	assert.Error(t, err)
}

func TestJSONPrettyIndents(t *testing.T) {
	j := JSON{}
	v, err := j.Call(context.Background(), "pretty", []vm.Value{vm.List([]vm.Value{vm.Int(1), vm.Int(2)})}, nil)
	require.NoError(t, err)
	assert.Contains(t, v.S, "\n")
}
