// Package mathmod provides Covenant's "math" host module: mathematical
// functions and constants (spec.md SPEC_FULL.md §B), grounded on rugo's
// modules/math ({math.go,runtime.go}) method set, adapted from Go-source
// generation to direct vm.HostModule dispatch.
package mathmod

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/covenant-lang/covenant/modules"
	"github.com/covenant-lang/covenant/vm"
)

type Math struct{}

func (Math) Name() string { return "math" }

func (m Math) Call(_ context.Context, method string, args []vm.Value, _ map[string]vm.Value) (vm.Value, error) {
	switch method {
	case "pi":
		return vm.Float(math.Pi), modules.RequireArgs(method, args, 0)
	case "e":
		return vm.Float(math.E), modules.RequireArgs(method, args, 0)
	case "inf":
		return vm.Float(math.Inf(1)), modules.RequireArgs(method, args, 0)
	case "nan":
		return vm.Float(math.NaN()), modules.RequireArgs(method, args, 0)
	case "random":
		return vm.Float(rand.Float64()), modules.RequireArgs(method, args, 0)
	}

	if err := modules.RequireArgs(method, args, arity(method)); err != nil {
		return vm.Value{}, err
	}

	switch method {
	case "abs":
		n, err := modules.Float64Arg(args[0])
		return vm.Float(math.Abs(n)), err
	case "ceil":
		n, err := modules.Float64Arg(args[0])
		return vm.Int(int64(math.Ceil(n))), err
	case "floor":
		n, err := modules.Float64Arg(args[0])
		return vm.Int(int64(math.Floor(n))), err
	case "round":
		n, err := modules.Float64Arg(args[0])
		return vm.Int(int64(math.Round(n))), err
	case "max":
		a, err := modules.Float64Arg(args[0])
		if err != nil {
			return vm.Value{}, err
		}
		b, err := modules.Float64Arg(args[1])
		return vm.Float(math.Max(a, b)), err
	case "min":
		a, err := modules.Float64Arg(args[0])
		if err != nil {
			return vm.Value{}, err
		}
		b, err := modules.Float64Arg(args[1])
		return vm.Float(math.Min(a, b)), err
	case "pow":
		base, err := modules.Float64Arg(args[0])
		if err != nil {
			return vm.Value{}, err
		}
		exp, err := modules.Float64Arg(args[1])
		return vm.Float(math.Pow(base, exp)), err
	case "sqrt":
		n, err := modules.Float64Arg(args[0])
		return vm.Float(math.Sqrt(n)), err
	case "log":
		n, err := modules.Float64Arg(args[0])
		return vm.Float(math.Log(n)), err
	case "log2":
		n, err := modules.Float64Arg(args[0])
		return vm.Float(math.Log2(n)), err
	case "log10":
		n, err := modules.Float64Arg(args[0])
		return vm.Float(math.Log10(n)), err
	case "sin":
		n, err := modules.Float64Arg(args[0])
		return vm.Float(math.Sin(n)), err
	case "cos":
		n, err := modules.Float64Arg(args[0])
		return vm.Float(math.Cos(n)), err
	case "tan":
		n, err := modules.Float64Arg(args[0])
		return vm.Float(math.Tan(n)), err
	case "is_nan":
		n, err := modules.Float64Arg(args[0])
		return vm.Bool(math.IsNaN(n)), err
	case "is_inf":
		n, err := modules.Float64Arg(args[0])
		return vm.Bool(math.IsInf(n, 0)), err
	case "clamp":
		n, err := modules.Float64Arg(args[0])
		if err != nil {
			return vm.Value{}, err
		}
		lo, err := modules.Float64Arg(args[1])
		if err != nil {
			return vm.Value{}, err
		}
		hi, err := modules.Float64Arg(args[2])
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Float(math.Max(lo, math.Min(hi, n))), nil
	case "random_int":
		lo, err := modules.IntArg(args[0])
		if err != nil {
			return vm.Value{}, err
		}
		hi, err := modules.IntArg(args[1])
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Int(rand.Int64N(hi-lo) + lo), nil
	default:
		return vm.Value{}, fmt.Errorf("math: unknown method %q", method)
	}
}

func arity(method string) int {
	switch method {
	case "abs", "ceil", "floor", "round", "sqrt", "log", "log2", "log10",
		"sin", "cos", "tan", "is_nan", "is_inf":
		return 1
	case "max", "min", "pow", "random_int":
		return 2
	case "clamp":
		return 3
	default:
		return 0
	}
}
