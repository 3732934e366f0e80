// Package strmod provides Covenant's "str" host module: string
// utilities, grounded on rugo's modules/str ({str.go,runtime.go}) method
// set, adapted to direct vm.HostModule dispatch.
package strmod

import (
	"context"
	"fmt"
	"strings"

	"github.com/covenant-lang/covenant/modules"
	"github.com/covenant-lang/covenant/vm"
)

type Str struct{}

func (Str) Name() string { return "str" }

func (Str) Call(_ context.Context, method string, args []vm.Value, _ map[string]vm.Value) (vm.Value, error) {
	switch method {
	case "contains":
		s, t, err := two(method, args)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Bool(strings.Contains(s, t)), nil
	case "split":
		s, sep, err := two(method, args)
		if err != nil {
			return vm.Value{}, err
		}
		parts := strings.Split(s, sep)
		out := make([]vm.Value, len(parts))
		for i, p := range parts {
			out[i] = vm.Str(p)
		}
		return vm.List(out), nil
	case "trim":
		s, err := one(method, args)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Str(strings.TrimSpace(s)), nil
	case "starts_with":
		s, t, err := two(method, args)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Bool(strings.HasPrefix(s, t)), nil
	case "ends_with":
		s, t, err := two(method, args)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Bool(strings.HasSuffix(s, t)), nil
	case "replace":
		if err := modules.RequireArgs(method, args, 3); err != nil {
			return vm.Value{}, err
		}
		s, err := modules.StringArg(args[0])
		if err != nil {
			return vm.Value{}, err
		}
		old, err := modules.StringArg(args[1])
		if err != nil {
			return vm.Value{}, err
		}
		new, err := modules.StringArg(args[2])
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Str(strings.ReplaceAll(s, old, new)), nil
	case "upper":
		s, err := one(method, args)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Str(strings.ToUpper(s)), nil
	case "lower":
		s, err := one(method, args)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Str(strings.ToLower(s)), nil
	case "index":
		s, t, err := two(method, args)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Int(int64(strings.Index(s, t))), nil
	default:
		return vm.Value{}, fmt.Errorf("str: unknown method %q", method)
	}
}

func one(method string, args []vm.Value) (string, error) {
	if err := modules.RequireArgs(method, args, 1); err != nil {
		return "", err
	}
	return modules.StringArg(args[0])
}

func two(method string, args []vm.Value) (string, string, error) {
	if err := modules.RequireArgs(method, args, 2); err != nil {
		return "", "", err
	}
	a, err := modules.StringArg(args[0])
	if err != nil {
		return "", "", err
	}
	b, err := modules.StringArg(args[1])
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}
