package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/covenant-lang/covenant/bytecode"
	"github.com/covenant-lang/covenant/compiler"
	"github.com/covenant-lang/covenant/diag"
	"github.com/covenant-lang/covenant/modules"
	"github.com/covenant-lang/covenant/modules/jsonmod"
	"github.com/covenant-lang/covenant/modules/mathmod"
	"github.com/covenant-lang/covenant/modules/strmod"
	"github.com/covenant-lang/covenant/modules/timemod"
	"github.com/covenant-lang/covenant/parser"
	"github.com/covenant-lang/covenant/verify"
	"github.com/covenant-lang/covenant/vm"
)

// DefaultModules returns the host module table every Covenant program
// runs against: the always-present "core" module (len/range, backing
// `for`-loop codegen) plus the four in-scope domain modules (SPEC_FULL.md
// §B).
func DefaultModules() vm.ModuleTable {
	return vm.NewModuleTable(
		modules.Core{},
		mathmod.Math{},
		strmod.Str{},
		timemod.Time{},
		jsonmod.JSON{},
	)
}

// Parse reads filename and lexes/parses it into a CompilationUnit. A
// malformed source file (scanner/parser error, not a diagnostic-worthy
// static violation) comes back as a plain Go error, matching the
// teacher's ast.Compiler.ParseFile wrapping scanner errors.
func Parse(filename string) (*CompilationUnit, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	f, err := parser.Parse(string(src), filename)
	if err != nil {
		return nil, err
	}
	return &CompilationUnit{Filename: filename, Source: string(src), File: f}, nil
}

// Check runs verify.Run's four static passes (intent, capability,
// contract, types, each contract fed by its fingerprint) over unit,
// recording findings into a fresh Sink. It never returns early on errors — spec.md §6's `check
// FILE` always reports everything in one pass.
func Check(unit *CompilationUnit) *diag.Sink {
	sink := diag.NewSink()
	verify.Run(unit.File, sink)
	unit.Sink = sink
	return sink
}

// Compile lowers unit.File to bytecode. Callers should only call this
// after Check reports no errors — Compile does not re-run verification.
func Compile(unit *CompilationUnit) (*bytecode.Module, error) {
	c := &compiler.Compiler{}
	mod, err := c.Compile(unit.File)
	if err != nil {
		return nil, err
	}
	unit.Module = mod
	return mod, nil
}

// SelectContract resolves which contract to invoke: name if non-empty,
// otherwise the module's sole contract. It errors if name is empty and
// the module declares no contract or more than one, or if no contract
// has the given name.
func SelectContract(mod *bytecode.Module, name string) (bytecode.ContractEntry, error) {
	if name == "" {
		switch len(mod.Contracts) {
		case 0:
			return bytecode.ContractEntry{}, fmt.Errorf("module declares no contracts")
		case 1:
			return mod.Contracts[0], nil
		default:
			return bytecode.ContractEntry{}, fmt.Errorf("module declares %d contracts; pass -c NAME to pick one", len(mod.Contracts))
		}
	}
	entry, ok := mod.FindContract(name)
	if !ok {
		return bytecode.ContractEntry{}, fmt.Errorf("no contract named %q", name)
	}
	return entry, nil
}

// Invoke runs contract name in mod with args/kwargs, using the default
// host module table.
func Invoke(ctx context.Context, mod *bytecode.Module, name string, args []vm.Value, kwargs map[string]vm.Value) (vm.Value, *vm.Machine, error) {
	entry, err := SelectContract(mod, name)
	if err != nil {
		return vm.Value{}, nil, err
	}
	m := vm.New(mod, DefaultModules())
	result, err := m.Invoke(ctx, entry.Name, args, kwargs)
	return result, m, err
}

// ParseArg splits a `k=v` CLI argument and decodes v per spec.md §6's
// auto-detection order: integer -> float -> boolean -> null -> JSON
// object/array -> string.
func ParseArg(kv string) (string, vm.Value, error) {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], decodeArgValue(kv[i+1:]), nil
		}
	}
	return "", vm.Value{}, fmt.Errorf("invalid --arg %q: expected k=v", kv)
}

func decodeArgValue(s string) vm.Value {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return vm.Int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return vm.Float(f)
	}
	if s == "true" || s == "false" {
		return vm.Bool(s == "true")
	}
	if s == "null" {
		return vm.Null()
	}
	if len(s) > 0 && (s[0] == '{' || s[0] == '[') {
		var raw interface{}
		if err := json.Unmarshal([]byte(s), &raw); err == nil {
			return jsonToValue(raw)
		}
	}
	return vm.Str(s)
}

// WriteCovc serializes mod and writes it to outPath (the `build` verb).
func WriteCovc(mod *bytecode.Module, outPath string) error {
	return os.WriteFile(outPath, bytecode.Serialize(mod), 0o644)
}

// ReadCovc loads a precompiled bytecode file (the `exec` verb).
func ReadCovc(path string) (*bytecode.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return bytecode.Deserialize(data)
}

func jsonToValue(v interface{}) vm.Value {
	switch val := v.(type) {
	case map[string]interface{}:
		fields := make(map[string]vm.Value, len(val))
		for k, child := range val {
			fields[k] = jsonToValue(child)
		}
		return vm.Object("", fields)
	case []interface{}:
		out := make([]vm.Value, len(val))
		for i, child := range val {
			out[i] = jsonToValue(child)
		}
		return vm.List(out)
	case string:
		return vm.Str(val)
	case bool:
		return vm.Bool(val)
	case float64:
		if val == float64(int64(val)) {
			return vm.Int(int64(val))
		}
		return vm.Float(val)
	default:
		return vm.Null()
	}
}
