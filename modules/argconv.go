package modules

import (
	"fmt"

	"github.com/covenant-lang/covenant/vm"
)

// Float64Arg coerces a VM value to a float64, accepting both Int and
// Float (Covenant's numeric types cross-promote freely, spec.md §4.7).
func Float64Arg(v vm.Value) (float64, error) {
	switch v.Kind {
	case vm.KindFloat:
		return v.F, nil
	case vm.KindInt:
		return float64(v.I), nil
	default:
		return 0, fmt.Errorf("expected a number, got %s", kindName(v.Kind))
	}
}

// IntArg requires an Int argument.
func IntArg(v vm.Value) (int64, error) {
	if v.Kind != vm.KindInt {
		return 0, fmt.Errorf("expected an Int, got %s", kindName(v.Kind))
	}
	return v.I, nil
}

// StringArg requires a String argument.
func StringArg(v vm.Value) (string, error) {
	if v.Kind != vm.KindString {
		return "", fmt.Errorf("expected a String, got %s", kindName(v.Kind))
	}
	return v.S, nil
}

func kindName(k vm.Kind) string {
	switch k {
	case vm.KindInt:
		return "Int"
	case vm.KindFloat:
		return "Float"
	case vm.KindString:
		return "String"
	case vm.KindBool:
		return "Bool"
	case vm.KindNull:
		return "Null"
	case vm.KindList:
		return "List"
	case vm.KindObject:
		return "Object"
	case vm.KindHostHandle:
		return "HostHandle"
	default:
		return "unknown"
	}
}

// RequireArgs returns an error unless args has exactly n elements.
func RequireArgs(method string, args []vm.Value, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s: expected %d argument(s), got %d", method, n, len(args))
	}
	return nil
}
