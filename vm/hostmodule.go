package vm

import "context"

// HostModule is the dispatch contract every native module implements
// (spec.md §9 design note: "(method, positionalArgs, kwargs) -> (Value,
// error)"). OpCallModule resolves a module by name and invokes Call
// directly — no codegen-time string splicing, unlike the teacher's
// Go-transpilation approach.
type HostModule interface {
	Name() string
	Call(ctx context.Context, method string, args []Value, kwargs map[string]Value) (Value, error)
}

// ModuleTable is the set of host modules a Machine can dispatch
// OpCallModule into, keyed by module name as it appears in Covenant
// source (e.g. "math", "str").
type ModuleTable map[string]HostModule

// NewModuleTable builds a ModuleTable from a list of modules, keyed by
// each module's own Name().
func NewModuleTable(mods ...HostModule) ModuleTable {
	t := make(ModuleTable, len(mods))
	for _, m := range mods {
		t[m.Name()] = m
	}
	return t
}
