// Package modules holds the host modules the VM dispatches OpCallModule
// instructions to. Unlike rugo's modules package (which emits Go source
// that the compiler splices into a generated program),
// Covenant compiles to bytecode run by an interpreter, so a host module
// here is just a vm.HostModule: a Call method the VM invokes directly.
// There is no source-generation step to register into.
package modules

import (
	"context"
	"fmt"

	"github.com/covenant-lang/covenant/vm"
)

// maxRangeLen bounds core.range()'s result size (spec.md §4.9's list of
// runtime limits: call-depth 256, loop-iteration 1,000,000; range() gets
// its own cap since a single range() call can otherwise materialize an
// arbitrarily large list in one step, unlike a loop that is at least
// metered one iteration at a time).
const maxRangeLen = 10_000_000

// Core is the always-registered internal host module (never user-`use`-
// imported) backing the list primitives the fixed 35-opcode set has no
// dedicated opcode for: length and range construction. The compiler
// emits ordinary OpCallModule instructions addressed to "core" for every
// `for x in collection` loop (compiler/codegen_stmt.go's emitFor) and for
// surface-syntax range(n) calls.
type Core struct{}

func (Core) Name() string { return "core" }

func (Core) Call(_ context.Context, method string, args []vm.Value, _ map[string]vm.Value) (vm.Value, error) {
	switch method {
	case "len":
		return coreLen(args)
	case "range":
		return coreRange(args)
	default:
		return vm.Value{}, fmt.Errorf("core: unknown method %q", method)
	}
}

func coreLen(args []vm.Value) (vm.Value, error) {
	if len(args) != 1 {
		return vm.Value{}, fmt.Errorf("core.len: expected 1 argument, got %d", len(args))
	}
	switch args[0].Kind {
	case vm.KindList:
		return vm.Int(int64(len(args[0].List))), nil
	case vm.KindString:
		return vm.Int(int64(len(args[0].S))), nil
	case vm.KindObject:
		return vm.Int(int64(len(args[0].Object))), nil
	default:
		return vm.Value{}, fmt.Errorf("core.len: value has no length")
	}
}

func coreRange(args []vm.Value) (vm.Value, error) {
	if len(args) != 1 || args[0].Kind != vm.KindInt {
		return vm.Value{}, fmt.Errorf("core.range: expected a single integer argument")
	}
	n := args[0].I
	if n < 0 {
		return vm.Value{}, fmt.Errorf("core.range: negative length %d", n)
	}
	if n > maxRangeLen {
		return vm.Value{}, fmt.Errorf("core.range: length %d exceeds limit of %d", n, maxRangeLen)
	}
	out := make([]vm.Value, n)
	for i := int64(0); i < n; i++ {
		out[i] = vm.Int(i)
	}
	return vm.List(out), nil
}
