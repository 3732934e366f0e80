package diag

// Static diagnostic codes, per spec.md §7. Each is fixed for the life of
// the format: tooling depends on these strings staying stable.
const (
	// Intent Verification Engine (§4.4) errors.
	E001 = "E001" // mutation not listed in effects: modifies
	E003 = "E003" // touches_nothing_else violated by an undeclared call
	E004 = "E004" // body section missing on a non-abstract contract
	E005 = "E005" // body emits an event not in effects: emits

	// Intent Verification Engine warnings.
	W001 = "W001" // declared effect not observed
	W003 = "W003" // declared intent / scope mismatch
	W004 = "W004" // achievability issue
	W005 = "W005" // missing effects block on a side-effecting body
	W006 = "W006" // declared emit not observed
	W007 = "W007" // old() references a base not in modifies
	W008 = "W008" // reserved for future intent-verification warnings

	// Intent Verification Engine info.
	I001 = "I001" // recursion detected
	I002 = "I002" // nesting depth > 3

	// Capability / IFC (§4.5).
	F001 = "F001" // tainted-to-sink flow
	F002 = "F002" // permission denied by the contract's own denies
	F003 = "F003" // read of a source not in grants
	F004 = "F004" // capability required by header requires not checked
	F005 = "F005" // undeclared capability name
	F006 = "F006" // capability appears in both grants and denies

	// Contract Verifier (§4.6).
	V001 = "V001" // not every path returns when a return type is declared
	V002 = "V002" // statements after an unconditional return
	V003 = "V003" // on_failure missing at high/critical risk
	V004 = "V004" // postcondition references result but V001 holds
	V005 = "V005" // shared state accessed without listing it in effects

	// Type Checker (§4.7).
	T001 = "T001" // argument type mismatch
	T002 = "T002" // return type mismatch
	T003 = "T003" // invalid operand types
	T004 = "T004" // arity mismatch
)
