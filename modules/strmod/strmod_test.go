package strmod

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covenant-lang/covenant/vm"
)

func TestStrMethods(t *testing.T) {
	s := Str{}
	cases := []struct {
		method string
		args   []vm.Value
		want   vm.Value
	}{
		{"contains", []vm.Value{vm.Str("hello world"), vm.Str("world")}, vm.Bool(true)},
		{"starts_with", []vm.Value{vm.Str("hello"), vm.Str("he")}, vm.Bool(true)},
		{"ends_with", []vm.Value{vm.Str("hello"), vm.Str("lo")}, vm.Bool(true)},
		{"trim", []vm.Value{vm.Str("  hi  ")}, vm.Str("hi")},
		{"upper", []vm.Value{vm.Str("hi")}, vm.Str("HI")},
		{"lower", []vm.Value{vm.Str("HI")}, vm.Str("hi")},
		{"index", []vm.Value{vm.Str("hello"), vm.Str("l")}, vm.Int(2)},
		{"replace", []vm.Value{vm.Str("aaa"), vm.Str("a"), vm.Str("b")}, vm.Str("bbb")},
	}
	for _, c := range cases {
		t.Run(c.method, func(t *testing.T) {
			got, err := s.Call(context.Background(), c.method, c.args, nil)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestStrSplit(t *testing.T) {
	s := Str{}
	got, err := s.Call(context.Background(), "split", []vm.Value{vm.Str("a,b,c"), vm.Str(",")}, nil)
	require.NoError(t, err)
	require.Len(t, got.List, 3)
	assert.Equal(t, "b", got.List[1].S)
}

func TestStrWrongArgType(t *testing.T) {
	s := Str{}
	_, err := s.Call(context.Background(), "upper", []vm.Value{vm.Int(1)}, nil)
	assert.Error(t, err)
}
