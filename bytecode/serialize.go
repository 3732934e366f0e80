package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// magic is the 4-byte `.covc` file signature (spec.md §6: "magic
// `\xCOCOV` (4 bytes)"), read here as a literal 4-byte tag rather than a
// hex escape sequence, since `\xCO` is not a valid two-digit hex byte.
var magic = [4]byte{0xC0, 'C', 'O', 'V'}

const currentVersion = 1

// Serialize writes m in the `.covc` wire format: magic, version,
// constant pool, event-name table, contract table, instruction stream —
// all integers little-endian (spec.md §6).
func Serialize(m *Module) []byte {
	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.WriteByte(currentVersion)

	writeU32(&buf, uint32(len(m.Consts)))
	for _, c := range m.Consts {
		writeConst(&buf, c)
	}

	writeU32(&buf, uint32(len(m.Events)))
	for _, e := range m.Events {
		writeString(&buf, e)
	}

	writeU32(&buf, uint32(len(m.Contracts)))
	for _, c := range m.Contracts {
		writeString(&buf, c.Name)
		writeU32(&buf, uint32(c.EntryOffset))
		writeU32(&buf, uint32(c.Arity))
		writeU32(&buf, uint32(len(c.ParamNames)))
		for _, p := range c.ParamNames {
			writeString(&buf, p)
		}
		writeU32(&buf, uint32(c.NumLocals))
		writeBool(&buf, c.HasOnFailure)
		writeI32(&buf, int32(c.OnFailureOffset))
		writeBool(&buf, c.HasPrecondition)
		writeBool(&buf, c.HasPostcondition)
	}

	instrBytes := serializeInstrs(m.Instrs)
	writeU32(&buf, uint32(len(instrBytes)))
	buf.Write(instrBytes)

	return buf.Bytes()
}

func serializeInstrs(instrs []Instr) []byte {
	var buf bytes.Buffer
	for _, ins := range instrs {
		buf.WriteByte(byte(ins.Op))
		for _, op := range ins.Ops {
			writeI32(&buf, op)
		}
		writeI32(&buf, int32(ins.Span.Line))
		writeI32(&buf, int32(ins.Span.Col))
	}
	return buf.Bytes()
}

// Deserialize parses the `.covc` wire format back into a Module.
func Deserialize(data []byte) (*Module, error) {
	r := bytes.NewReader(data)
	var got [4]byte
	if _, err := r.Read(got[:]); err != nil || got != magic {
		return nil, fmt.Errorf("bytecode: bad magic bytes")
	}
	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("bytecode: truncated version byte")
	}
	if version != currentVersion {
		return nil, fmt.Errorf("bytecode: unsupported version %d", version)
	}
	m := &Module{Version: version}

	nConsts, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nConsts; i++ {
		c, err := readConst(r)
		if err != nil {
			return nil, err
		}
		m.Consts = append(m.Consts, c)
	}

	nEvents, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nEvents; i++ {
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		m.Events = append(m.Events, s)
	}

	nContracts, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nContracts; i++ {
		var ce ContractEntry
		ce.Name, err = readString(r)
		if err != nil {
			return nil, err
		}
		off, err := readU32(r)
		if err != nil {
			return nil, err
		}
		ce.EntryOffset = int(off)
		arity, err := readU32(r)
		if err != nil {
			return nil, err
		}
		ce.Arity = int(arity)
		nParams, err := readU32(r)
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < nParams; j++ {
			p, err := readString(r)
			if err != nil {
				return nil, err
			}
			ce.ParamNames = append(ce.ParamNames, p)
		}
		numLocals, err := readU32(r)
		if err != nil {
			return nil, err
		}
		ce.NumLocals = int(numLocals)
		ce.HasOnFailure, err = readBool(r)
		if err != nil {
			return nil, err
		}
		onFailOff, err := readI32(r)
		if err != nil {
			return nil, err
		}
		ce.OnFailureOffset = int(onFailOff)
		ce.HasPrecondition, err = readBool(r)
		if err != nil {
			return nil, err
		}
		ce.HasPostcondition, err = readBool(r)
		if err != nil {
			return nil, err
		}
		m.Contracts = append(m.Contracts, ce)
	}

	instrLen, err := readU32(r)
	if err != nil {
		return nil, err
	}
	instrBytes := make([]byte, instrLen)
	if _, err := r.Read(instrBytes); err != nil {
		return nil, fmt.Errorf("bytecode: truncated instruction stream: %w", err)
	}
	instrs, err := deserializeInstrs(instrBytes)
	if err != nil {
		return nil, err
	}
	m.Instrs = instrs
	return m, nil
}

func deserializeInstrs(data []byte) ([]Instr, error) {
	r := bytes.NewReader(data)
	var out []Instr
	for r.Len() > 0 {
		opByte, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		var ins Instr
		ins.Op = Op(opByte)
		for i := range ins.Ops {
			v, err := readI32(r)
			if err != nil {
				return nil, err
			}
			ins.Ops[i] = v
		}
		line, err := readI32(r)
		if err != nil {
			return nil, err
		}
		col, err := readI32(r)
		if err != nil {
			return nil, err
		}
		ins.Span = SourceSpan{Line: int(line), Col: int(col)}
		out = append(out, ins)
	}
	return out, nil
}

func writeConst(buf *bytes.Buffer, c Const) {
	buf.WriteByte(byte(c.Kind))
	switch c.Kind {
	case ConstInt:
		writeI64(buf, c.I)
	case ConstFloat:
		writeF64(buf, c.F)
	case ConstString:
		writeString(buf, c.S)
	case ConstBool:
		writeBool(buf, c.B)
	case ConstNull:
	}
}

func readConst(r *bytes.Reader) (Const, error) {
	kindByte, err := r.ReadByte()
	if err != nil {
		return Const{}, err
	}
	c := Const{Kind: ConstKind(kindByte)}
	switch c.Kind {
	case ConstInt:
		v, err := readI64(r)
		if err != nil {
			return Const{}, err
		}
		c.I = v
	case ConstFloat:
		v, err := readF64(r)
		if err != nil {
			return Const{}, err
		}
		c.F = v
	case ConstString:
		v, err := readString(r)
		if err != nil {
			return Const{}, err
		}
		c.S = v
	case ConstBool:
		v, err := readBool(r)
		if err != nil {
			return Const{}, err
		}
		c.B = v
	case ConstNull:
	}
	return c, nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeI32(buf *bytes.Buffer, v int32) { writeU32(buf, uint32(v)) }

func writeI64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func writeF64(buf *bytes.Buffer, v float64) {
	writeI64(buf, int64(math.Float64bits(v)))
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, fmt.Errorf("bytecode: truncated u32: %w", err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readI32(r *bytes.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}

func readI64(r *bytes.Reader) (int64, error) {
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, fmt.Errorf("bytecode: truncated i64: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func readF64(r *bytes.Reader) (float64, error) {
	v, err := readI64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

func readBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, fmt.Errorf("bytecode: truncated bool: %w", err)
	}
	return b != 0, nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return "", fmt.Errorf("bytecode: truncated string: %w", err)
	}
	return string(b), nil
}
