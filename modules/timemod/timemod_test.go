package timemod

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covenant-lang/covenant/vm"
)

func TestTimeSleepRejectsOverLimit(t *testing.T) {
	tm := Time{}
	_, err := tm.Call(context.Background(), "sleep", []vm.Value{vm.Float(61)}, nil)
	assert.Error(t, err)
}

func TestTimeSleepWithinLimit(t *testing.T) {
	tm := Time{}
	_, err := tm.Call(context.Background(), "sleep", []vm.Value{vm.Float(0)}, nil)
	require.NoError(t, err)
}

func TestTimeFormatAndParseRoundTrip(t *testing.T) {
	tm := Time{}
	const layout = "2006-01-02"
	formatted, err := tm.Call(context.Background(), "format", []vm.Value{vm.Float(0), vm.Str(layout)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "1970-01-01", formatted.S)

	parsed, err := tm.Call(context.Background(), "parse", []vm.Value{vm.Str("1970-01-02"), vm.Str(layout)}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 86400, parsed.F, 1)
}

func TestTimeMillisReturnsInt(t *testing.T) {
	tm := Time{}
	v, err := tm.Call(context.Background(), "millis", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, vm.KindInt, v.Kind)
}
