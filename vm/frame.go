package vm

import "github.com/covenant-lang/covenant/bytecode"

// frame is one activation record on the VM's call stack. locals holds
// parameters, locally-assigned names, and dedicated old()-snapshot
// slots (before the body runs, OpOldSnapshot copies an identifier
// base's live slot into its old-slot, and a dotted base is evaluated and
// stored there with OpLocalStore, so a postcondition's `old(x)` reads back via an ordinary
// OpLocalLoad — spec.md §4.6 describes a separate "old-table" but
// nothing requires it to be a distinct array, and folding it into
// locals keeps the opcode set's slot-addressing uniform).
type frame struct {
	contract bytecode.ContractEntry
	ip       int
	locals   []Value
	// names maps a local slot index back to its source identifier, used
	// only for diagnostics (trap messages, trace rendering).
	names []string
}

func newFrame(ce bytecode.ContractEntry, nLocals int) *frame {
	return &frame{
		contract: ce,
		ip:       ce.EntryOffset,
		locals:   make([]Value, nLocals),
		names:    make([]string, nLocals),
	}
}
