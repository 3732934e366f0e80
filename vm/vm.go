package vm

import (
	"context"
	"math"

	"github.com/covenant-lang/covenant/bytecode"
)

const (
	// maxCallDepth is spec.md §4.9's call-depth counter limit.
	maxCallDepth = 256
	// maxLoopIterations is the per-loop-site iteration cap (spec.md §4.9).
	maxLoopIterations = 1_000_000
)

// EmittedEvent is one `emit` observed during a contract invocation,
// collected so callers (the `run`/`exec` CLI verbs) can report the
// effect trail alongside the return value.
type EmittedEvent struct {
	Name     string
	Args     []Value
	Kwargs   map[string]Value
	Contract string
}

// Machine is one instance of the Covenant bytecode interpreter, bound
// to a compiled Module and a fixed set of host modules.
type Machine struct {
	mod     *bytecode.Module
	modules ModuleTable
	stack   []Value
	frames  []*frame
	emitted []EmittedEvent
	// loopCounters tracks backward-jump counts keyed by jump target alone
	// (shared by every frame and never reset during the Machine's
	// lifetime), approximating spec.md §4.9's "iteration counter per loop
	// site" without the compiler needing a dedicated loop-entry opcode.
	loopCounters map[int]int
}

// New constructs a Machine ready to invoke contracts in mod.
func New(mod *bytecode.Module, modules ModuleTable) *Machine {
	if modules == nil {
		modules = ModuleTable{}
	}
	return &Machine{mod: mod, modules: modules}
}

// Emitted returns every event emitted since the Machine was created.
func (m *Machine) Emitted() []EmittedEvent { return m.emitted }

func (m *Machine) push(v Value) { m.stack = append(m.stack, v) }

func (m *Machine) pop() Value {
	n := len(m.stack)
	v := m.stack[n-1]
	m.stack = m.stack[:n-1]
	return v
}

func (m *Machine) popN(n int) []Value {
	start := len(m.stack) - n
	out := make([]Value, n)
	copy(out, m.stack[start:])
	m.stack = m.stack[:start]
	return out
}

// Invoke runs the contract-invocation protocol (spec.md §4.9 steps 1-6)
// for the named contract with the given positional and keyword
// arguments, returning its result or a *RuntimeError.
func (m *Machine) Invoke(ctx context.Context, name string, args []Value, kwargs map[string]Value) (Value, error) {
	ce, ok := m.mod.FindContract(name)
	if !ok {
		return Value{}, newTrap(ErrMissingArgument, name, 0, 0, "unknown contract %q", name)
	}
	if len(m.frames) >= maxCallDepth {
		return Value{}, newTrap(ErrCallDepthExceeded, name, 0, 0, "call depth exceeded %d", maxCallDepth)
	}

	// Step 1: push the new frame, bind parameters.
	f := newFrame(ce, ce.NumLocals)
	for i, p := range ce.ParamNames {
		f.names[i] = p
		if i < len(args) {
			f.locals[i] = args[i]
			continue
		}
		if v, ok := kwargs[p]; ok {
			f.locals[i] = v
			continue
		}
		return Value{}, newTrap(ErrMissingArgument, name, 0, 0, "missing argument %q", p)
	}
	m.frames = append(m.frames, f)
	defer func() { m.frames = m.frames[:len(m.frames)-1] }()

	result, err := m.run(ctx, f)
	return result, err
}

func (m *Machine) currentFrame() *frame { return m.frames[len(m.frames)-1] }

// run executes instructions starting at f.ip until OpReturn or OpHalt,
// implementing steps 2-6 of the invocation protocol around the body
// itself (precondition/postcondition/on_failure are compiled into the
// instruction stream by the compiler as ordinary control flow guarded
// by OpAssertPrecondition/OpAssertPostcondition, so the interpreter
// loop below is uniform for all of them).
func (m *Machine) run(ctx context.Context, f *frame) (Value, error) {
	instrs := m.mod.Instrs
	baseStack := len(m.stack)
	for {
		if f.ip < 0 || f.ip >= len(instrs) {
			return Value{}, newTrap(ErrTypeError, f.contract.Name, 0, 0, "instruction pointer out of range")
		}
		ins := instrs[f.ip]
		nextIP := f.ip + 1

		switch ins.Op {
		case bytecode.OpConstLoad:
			m.push(constToValue(m.mod.Consts[ins.Ops[0]]))

		case bytecode.OpLocalLoad:
			m.push(f.locals[ins.Ops[0]])

		case bytecode.OpLocalStore:
			f.locals[ins.Ops[0]] = m.pop()

		case bytecode.OpFieldLoad:
			name := m.mod.Consts[ins.Ops[0]].S
			obj := m.pop()
			if obj.Kind != KindObject {
				return Value{}, m.trap(f, ins, ErrTypeError, "field load on non-object")
			}
			m.push(obj.Object[name])

		case bytecode.OpFieldStore:
			name := m.mod.Consts[ins.Ops[0]].S
			val := m.pop()
			obj := m.pop()
			if obj.Kind != KindObject {
				return Value{}, m.trap(f, ins, ErrTypeError, "field store on non-object")
			}
			obj.Object[name] = val

		case bytecode.OpListNew:
			if ins.Ops[0] == 0 {
				m.push(List(nil))
			} else {
				typeName := m.mod.Consts[ins.Ops[1]].S
				m.push(Object(typeName, make(map[string]Value)))
			}

		case bytecode.OpListAppend:
			val := m.pop()
			list := m.pop()
			if list.Kind != KindList {
				return Value{}, m.trap(f, ins, ErrTypeError, "append on non-list")
			}
			list.List = append(list.List, val)
			m.push(list)

		case bytecode.OpIndexLoad:
			idx := m.pop()
			obj := m.pop()
			v, rerr := m.indexLoad(f, ins, obj, idx)
			if rerr != nil {
				return Value{}, rerr
			}
			m.push(v)

		case bytecode.OpIndexStore:
			val := m.pop()
			idx := m.pop()
			obj := m.pop()
			if rerr := m.indexStore(f, ins, obj, idx, val); rerr != nil {
				return Value{}, rerr
			}

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
			b := m.pop()
			a := m.pop()
			v, rerr := m.arith(f, ins, ins.Op, a, b)
			if rerr != nil {
				return Value{}, rerr
			}
			m.push(v)

		case bytecode.OpNeg:
			a := m.pop()
			switch a.Kind {
			case KindInt:
				m.push(Int(-a.I))
			case KindFloat:
				m.push(Float(-a.F))
			default:
				return Value{}, m.trap(f, ins, ErrTypeError, "unary - on non-numeric")
			}

		case bytecode.OpEq:
			b := m.pop()
			a := m.pop()
			m.push(Bool(Equal(a, b)))

		case bytecode.OpNeq:
			b := m.pop()
			a := m.pop()
			m.push(Bool(!Equal(a, b)))

		case bytecode.OpLt, bytecode.OpLte, bytecode.OpGt, bytecode.OpGte:
			b := m.pop()
			a := m.pop()
			v, rerr := m.compare(f, ins, ins.Op, a, b)
			if rerr != nil {
				return Value{}, rerr
			}
			m.push(v)

		case bytecode.OpAnd:
			b := m.pop()
			a := m.pop()
			m.push(Bool(a.Truthy() && b.Truthy()))

		case bytecode.OpOr:
			b := m.pop()
			a := m.pop()
			m.push(Bool(a.Truthy() || b.Truthy()))

		case bytecode.OpNot:
			a := m.pop()
			m.push(Bool(!a.Truthy()))

		case bytecode.OpJmp:
			target := int(ins.Ops[0])
			if target <= f.ip {
				if m.countLoopIteration(target) {
					return Value{}, m.trap(f, ins, ErrLoopLimitExceeded, "loop iterations exceeded %d", maxLoopIterations)
				}
			}
			nextIP = target

		case bytecode.OpJmpIfFalse:
			cond := m.pop()
			if !cond.Truthy() {
				target := int(ins.Ops[0])
				if target <= f.ip {
					if m.countLoopIteration(target) {
						return Value{}, m.trap(f, ins, ErrLoopLimitExceeded, "loop iterations exceeded %d", maxLoopIterations)
					}
				}
				nextIP = target
			}

		case bytecode.OpCall:
			target, ok := m.mod.FindContract(m.mod.Contracts[ins.Ops[0]].Name)
			if !ok {
				return Value{}, m.trap(f, ins, ErrMissingArgument, "unknown contract index %d", ins.Ops[0])
			}
			args := m.popN(target.Arity)
			v, err := m.Invoke(ctx, target.Name, args, nil)
			if err != nil {
				return Value{}, err
			}
			m.push(v)

		case bytecode.OpCallModule:
			moduleName := m.mod.Consts[ins.Ops[0]].S
			methodName := m.mod.Consts[ins.Ops[1]].S
			posCount := int(ins.Ops[2])
			kwObj := m.pop()
			args := m.popN(posCount)
			mod, ok := m.modules[moduleName]
			if !ok {
				return Value{}, m.trap(f, ins, ErrHostModuleError, "unknown module %q", moduleName)
			}
			v, err := mod.Call(ctx, methodName, args, kwObj.Object)
			if err != nil {
				return Value{}, newTrap(ErrHostModuleError, f.contract.Name, ins.Span.Line, ins.Span.Col, "%s.%s: %v", moduleName, methodName, err)
			}
			m.push(v)

		case bytecode.OpReturn:
			result := Value{}
			if len(m.stack) > baseStack {
				result = m.pop()
			}
			m.stack = m.stack[:baseStack]
			return result, nil

		case bytecode.OpEmit:
			eventName := m.mod.Events[ins.Ops[0]]
			posCount := int(ins.Ops[1])
			kwObj := m.pop()
			args := m.popN(posCount)
			m.emitted = append(m.emitted, EmittedEvent{
				Name: eventName, Args: args, Kwargs: kwObj.Object, Contract: f.contract.Name,
			})

		case bytecode.OpOldSnapshot:
			srcSlot := int(ins.Ops[1])
			dstSlot := int(ins.Ops[2])
			f.locals[dstSlot] = f.locals[srcSlot]

		case bytecode.OpAssertPrecondition:
			cond := m.pop()
			if !cond.Truthy() {
				return Value{}, newTrap(ErrPreconditionFailed, f.contract.Name, ins.Span.Line, ins.Span.Col, "precondition failed")
			}

		case bytecode.OpAssertPostcondition:
			cond := m.pop()
			if !cond.Truthy() {
				return Value{}, newTrap(ErrPostconditionFailed, f.contract.Name, ins.Span.Line, ins.Span.Col, "postcondition failed")
			}

		case bytecode.OpPop:
			m.pop()

		case bytecode.OpHalt:
			result := Value{}
			if len(m.stack) > baseStack {
				result = m.pop()
			}
			return result, nil

		default:
			return Value{}, m.trap(f, ins, ErrTypeError, "unknown opcode %v", ins.Op)
		}

		f.ip = nextIP
	}
}

func (m *Machine) trap(f *frame, ins bytecode.Instr, code ErrorCode, format string, args ...any) *RuntimeError {
	return newTrap(code, f.contract.Name, ins.Span.Line, ins.Span.Col, format, args...)
}

// countLoopIteration increments the backward-jump counter for target
// and reports whether it has now exceeded the per-loop-site cap.
func (m *Machine) countLoopIteration(target int) bool {
	if m.loopCounters == nil {
		m.loopCounters = make(map[int]int)
	}
	m.loopCounters[target]++
	return m.loopCounters[target] > maxLoopIterations
}

func constToValue(c bytecode.Const) Value {
	switch c.Kind {
	case bytecode.ConstInt:
		return Int(c.I)
	case bytecode.ConstFloat:
		return Float(c.F)
	case bytecode.ConstString:
		return Str(c.S)
	case bytecode.ConstBool:
		return Bool(c.B)
	default:
		return Null()
	}
}

func (m *Machine) indexLoad(f *frame, ins bytecode.Instr, obj, idx Value) (Value, *RuntimeError) {
	switch obj.Kind {
	case KindList:
		if idx.Kind != KindInt {
			return Value{}, m.trap(f, ins, ErrTypeError, "list index must be Int")
		}
		i := int(idx.I)
		if i < 0 || i >= len(obj.List) {
			return Value{}, m.trap(f, ins, ErrTypeError, "list index out of range")
		}
		return obj.List[i], nil
	case KindObject:
		if idx.Kind != KindString {
			return Value{}, m.trap(f, ins, ErrTypeError, "object index must be String")
		}
		return obj.Object[idx.S], nil
	default:
		return Value{}, m.trap(f, ins, ErrTypeError, "index on non-indexable value")
	}
}

func (m *Machine) indexStore(f *frame, ins bytecode.Instr, obj, idx, val Value) *RuntimeError {
	switch obj.Kind {
	case KindList:
		if idx.Kind != KindInt {
			return m.trap(f, ins, ErrTypeError, "list index must be Int")
		}
		i := int(idx.I)
		if i < 0 || i >= len(obj.List) {
			return m.trap(f, ins, ErrTypeError, "list index out of range")
		}
		obj.List[i] = val
		return nil
	case KindObject:
		if idx.Kind != KindString {
			return m.trap(f, ins, ErrTypeError, "object index must be String")
		}
		obj.Object[idx.S] = val
		return nil
	default:
		return m.trap(f, ins, ErrTypeError, "index-store on non-indexable value")
	}
}

// arith implements spec.md §4.7's arithmetic table with checked 64-bit
// integer overflow (spec.md §4.9: "+ - * / use overflow-checked 64-bit
// integer ops; overflow -> runtime error with code").
func (m *Machine) arith(f *frame, ins bytecode.Instr, op bytecode.Op, a, b Value) (Value, *RuntimeError) {
	if a.Kind == KindString && b.Kind == KindString && op == bytecode.OpAdd {
		return Str(a.S + b.S), nil
	}
	if a.Kind == KindList && b.Kind == KindList && op == bytecode.OpAdd {
		out := make([]Value, 0, len(a.List)+len(b.List))
		out = append(out, a.List...)
		out = append(out, b.List...)
		return List(out), nil
	}
	if !numericKind(a.Kind) || !numericKind(b.Kind) {
		return Value{}, m.trap(f, ins, ErrTypeError, "arithmetic on non-numeric operands")
	}

	// Division always yields Float (spec.md §4.7).
	if op == bytecode.OpDiv {
		bf := numericValue(b)
		if bf == 0 {
			return Value{}, m.trap(f, ins, ErrDivisionByZero, "division by zero")
		}
		return Float(numericValue(a) / bf), nil
	}

	if a.Kind == KindInt && b.Kind == KindInt {
		return m.checkedIntArith(f, ins, op, a.I, b.I)
	}

	af, bf := numericValue(a), numericValue(b)
	switch op {
	case bytecode.OpAdd:
		return Float(af + bf), nil
	case bytecode.OpSub:
		return Float(af - bf), nil
	case bytecode.OpMul:
		return Float(af * bf), nil
	case bytecode.OpMod:
		if bf == 0 {
			return Value{}, m.trap(f, ins, ErrDivisionByZero, "modulo by zero")
		}
		return Float(math.Mod(af, bf)), nil
	default:
		return Value{}, m.trap(f, ins, ErrTypeError, "unsupported arithmetic opcode")
	}
}

func (m *Machine) checkedIntArith(f *frame, ins bytecode.Instr, op bytecode.Op, a, b int64) (Value, *RuntimeError) {
	switch op {
	case bytecode.OpAdd:
		sum := a + b
		if (b > 0 && sum < a) || (b < 0 && sum > a) {
			return Value{}, m.trap(f, ins, ErrIntegerOverflow, "integer overflow in addition")
		}
		return Int(sum), nil
	case bytecode.OpSub:
		diff := a - b
		if (b < 0 && diff < a) || (b > 0 && diff > a) {
			return Value{}, m.trap(f, ins, ErrIntegerOverflow, "integer overflow in subtraction")
		}
		return Int(diff), nil
	case bytecode.OpMul:
		if a == 0 || b == 0 {
			return Int(0), nil
		}
		prod := a * b
		if prod/b != a {
			return Value{}, m.trap(f, ins, ErrIntegerOverflow, "integer overflow in multiplication")
		}
		return Int(prod), nil
	case bytecode.OpMod:
		if b == 0 {
			return Value{}, m.trap(f, ins, ErrDivisionByZero, "modulo by zero")
		}
		return Int(a % b), nil
	default:
		return Value{}, m.trap(f, ins, ErrTypeError, "unsupported arithmetic opcode")
	}
}

func (m *Machine) compare(f *frame, ins bytecode.Instr, op bytecode.Op, a, b Value) (Value, *RuntimeError) {
	if a.Kind == KindString && b.Kind == KindString {
		switch op {
		case bytecode.OpLt:
			return Bool(a.S < b.S), nil
		case bytecode.OpLte:
			return Bool(a.S <= b.S), nil
		case bytecode.OpGt:
			return Bool(a.S > b.S), nil
		case bytecode.OpGte:
			return Bool(a.S >= b.S), nil
		}
	}
	if !numericKind(a.Kind) || !numericKind(b.Kind) {
		return Value{}, m.trap(f, ins, ErrTypeError, "comparison on non-numeric operands")
	}
	af, bf := numericValue(a), numericValue(b)
	switch op {
	case bytecode.OpLt:
		return Bool(af < bf), nil
	case bytecode.OpLte:
		return Bool(af <= bf), nil
	case bytecode.OpGt:
		return Bool(af > bf), nil
	case bytecode.OpGte:
		return Bool(af >= bf), nil
	default:
		return Value{}, m.trap(f, ins, ErrTypeError, "unsupported comparison opcode")
	}
}
