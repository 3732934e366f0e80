package bytecode

// ConstKind tags the type of one constant-pool entry.
type ConstKind byte

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstString
	ConstBool
	ConstNull
)

// Const is one constant-pool entry.
type Const struct {
	Kind ConstKind
	I    int64
	F    float64
	S    string
	B    bool
}

// ContractEntry is one row of the per-module contract symbol table.
type ContractEntry struct {
	Name        string
	EntryOffset int // instruction index where the contract's code begins
	Arity       int
	ParamNames  []string
	// NumLocals is the total local-slot count the compiler assigned
	// this contract (parameters plus every assigned name in body and
	// on_failure), sized once so the VM can preallocate a frame.
	NumLocals    int
	HasOnFailure bool
	// OnFailureOffset is the instruction index of the on_failure handler,
	// or -1 if the contract has none.
	OnFailureOffset int
	HasPrecondition  bool
	HasPostcondition bool
}

// Module is one compiled Covenant program: a constant pool, an event
// name table, a contract symbol table, and a flat instruction stream
// shared by every contract (each contract's code is a contiguous slice
// located by its ContractEntry.EntryOffset).
type Module struct {
	Version    byte
	Consts     []Const
	Events     []string
	Contracts  []ContractEntry
	Instrs     []Instr
}

// AddConst appends c and returns its index, reusing an existing identical
// entry when one exists (kept small and linear — constant pools in
// practice stay in the tens of entries for hand-written contracts).
func (m *Module) AddConst(c Const) int32 {
	for i, existing := range m.Consts {
		if existing == c {
			return int32(i)
		}
	}
	m.Consts = append(m.Consts, c)
	return int32(len(m.Consts) - 1)
}

// AddEvent interns an event name and returns its index.
func (m *Module) AddEvent(name string) int32 {
	for i, e := range m.Events {
		if e == name {
			return int32(i)
		}
	}
	m.Events = append(m.Events, name)
	return int32(len(m.Events) - 1)
}

// FindContract returns the symbol-table entry for name, or ok=false.
func (m *Module) FindContract(name string) (ContractEntry, bool) {
	for _, c := range m.Contracts {
		if c.Name == name {
			return c, true
		}
	}
	return ContractEntry{}, false
}

// ContractIndex returns the symbol-table index for name, or -1.
func (m *Module) ContractIndex(name string) int {
	for i, c := range m.Contracts {
		if c.Name == name {
			return i
		}
	}
	return -1
}
