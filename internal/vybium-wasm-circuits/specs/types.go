// Package specs defines the data model shared by the tracer and the circuit:
// the static instruction listing, the execution events, the memory, init
// memory and jump tables, and the fixed-shift encodings that pack their rows
// into single field elements.
package specs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedValueType is returned for floating point operand types
	ErrUnsupportedValueType = errors.New("unsupported value type")

	// ErrUnknownValueType is returned for value type tags outside the known set
	ErrUnknownValueType = errors.New("unknown value type")

	// ErrUnrepresentable is returned when an operand does not fit its encoding slot
	ErrUnrepresentable = errors.New("operand not representable")

	// ErrUnknownOpcodeClass is returned for opcode class tags outside the closed set
	ErrUnknownOpcodeClass = errors.New("unknown opcode class")

	// ErrClassMismatch is returned when an event's step detail disagrees with
	// the class of the instruction it claims to execute
	ErrClassMismatch = errors.New("step class does not match instruction")

	// ErrMissingInitMemory is returned when a heap cell is touched without a
	// declared initial value
	ErrMissingInitMemory = errors.New("heap cell has no initial value")

	// ErrOffsetOverflow is returned when a memory address leaves the 16-bit
	// offset space
	ErrOffsetOverflow = errors.New("memory offset overflows 16 bits")
)

// VarType is the declared type of a value held in memory
type VarType uint8

const (
	U8 VarType = iota + 1
	I8
	U16
	I16
	U32
	I32
	U64
	I64
	F32
	F64
)

// IntegerTypes lists every value type the circuit can represent
var IntegerTypes = []VarType{U8, I8, U16, I16, U32, I32, U64, I64}

var varTypeNames = map[VarType]string{
	0:   "none",
	U8:  "u8",
	I8:  "i8",
	U16: "u16",
	I16: "i16",
	U32: "u32",
	I32: "i32",
	U64: "u64",
	I64: "i64",
	F32: "f32",
	F64: "f64",
}

// String returns the textual type name
func (t VarType) String() string {
	if name, ok := varTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("VarType(%d)", uint8(t))
}

// Size returns the width of the type in bytes, or 0 for types the circuit
// cannot represent
func (t VarType) Size() int {
	switch t {
	case U8, I8:
		return 1
	case U16, I16:
		return 2
	case U32, I32:
		return 4
	case U64, I64:
		return 8
	default:
		return 0
	}
}

// Validate rejects floating point and unknown types
func (t VarType) Validate() error {
	switch {
	case t.Size() > 0:
		return nil
	case t == F32 || t == F64:
		return fmt.Errorf("%s: %w", t, ErrUnsupportedValueType)
	default:
		return fmt.Errorf("%s: %w", t, ErrUnknownValueType)
	}
}

// Fits reports whether value is a canonical representative of the type,
// i.e. all bytes above the type's width are zero
func (t VarType) Fits(value uint64) bool {
	size := t.Size()
	if size == 0 {
		return false
	}
	if size == 8 {
		return true
	}
	return value>>(8*size) == 0
}

// ParseVarType parses a textual type name
func ParseVarType(s string) (VarType, error) {
	for t, name := range varTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownValueType)
}

// LocationType distinguishes heap cells from operand stack slots
type LocationType uint8

const (
	Heap  LocationType = 0
	Stack LocationType = 1
)

// String returns the location name
func (l LocationType) String() string {
	switch l {
	case Heap:
		return "heap"
	case Stack:
		return "stack"
	default:
		return fmt.Sprintf("LocationType(%d)", uint8(l))
	}
}

// AccessType is the kind of a memory table row
type AccessType uint8

const (
	Read  AccessType = 1
	Write AccessType = 2
	Init  AccessType = 3
)

// String returns the access name
func (a AccessType) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	case Init:
		return "init"
	default:
		return fmt.Sprintf("AccessType(%d)", uint8(a))
	}
}

// OpcodeClass is the closed set of instruction classes the event table
// dispatches on
type OpcodeClass uint16

const (
	ClassConst OpcodeClass = iota + 1
	ClassDrop
	ClassLocalGet
	ClassReturn
	ClassBrIfNez
	ClassCall
	ClassBinOp
	ClassComparison
	ClassLoad
	ClassStore
)

// OpcodeClasses lists every class in selector order
var OpcodeClasses = []OpcodeClass{
	ClassConst,
	ClassDrop,
	ClassLocalGet,
	ClassReturn,
	ClassBrIfNez,
	ClassCall,
	ClassBinOp,
	ClassComparison,
	ClassLoad,
	ClassStore,
}

var classNames = map[OpcodeClass]string{
	ClassConst:      "const",
	ClassDrop:       "drop",
	ClassLocalGet:   "local.get",
	ClassReturn:     "return",
	ClassBrIfNez:    "br_if_nez",
	ClassCall:       "call",
	ClassBinOp:      "binop",
	ClassComparison: "compare",
	ClassLoad:       "load",
	ClassStore:      "store",
}

// String returns the class name
func (c OpcodeClass) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("OpcodeClass(%d)", uint16(c))
}

// Valid reports whether c belongs to the closed set
func (c OpcodeClass) Valid() bool {
	_, ok := classNames[c]
	return ok
}

// ParseOpcodeClass parses a class name
func ParseOpcodeClass(s string) (OpcodeClass, error) {
	for c, name := range classNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownOpcodeClass)
}

// BinaryOp selects the arithmetic performed by a BinOp instruction
type BinaryOp uint16

const (
	OpAdd BinaryOp = iota + 1
	OpSub
	OpMul
)

// BinaryOps lists every arithmetic operator
var BinaryOps = []BinaryOp{OpAdd, OpSub, OpMul}

// String returns the operator name
func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	default:
		return fmt.Sprintf("BinaryOp(%d)", uint16(op))
	}
}

// Apply computes the operator on width-bit operands, wrapping modulo 2^width
func (op BinaryOp) Apply(t VarType, lhs, rhs uint64) uint64 {
	var r uint64
	switch op {
	case OpAdd:
		r = lhs + rhs
	case OpSub:
		r = lhs - rhs
	case OpMul:
		r = lhs * rhs
	}
	return truncate(t, r)
}

// ComparisonOp selects the relation tested by a Comparison instruction
type ComparisonOp uint16

const (
	OpEq ComparisonOp = iota + 1
	OpNe
	OpLtU
	OpGtU
	OpLeU
	OpGeU
)

// ComparisonOps lists every relation
var ComparisonOps = []ComparisonOp{OpEq, OpNe, OpLtU, OpGtU, OpLeU, OpGeU}

// String returns the relation name
func (op ComparisonOp) String() string {
	switch op {
	case OpEq:
		return "eq"
	case OpNe:
		return "ne"
	case OpLtU:
		return "lt_u"
	case OpGtU:
		return "gt_u"
	case OpLeU:
		return "le_u"
	case OpGeU:
		return "ge_u"
	default:
		return fmt.Sprintf("ComparisonOp(%d)", uint16(op))
	}
}

// Apply evaluates the relation, returning 1 or 0
func (op ComparisonOp) Apply(lhs, rhs uint64) uint64 {
	var r bool
	switch op {
	case OpEq:
		r = lhs == rhs
	case OpNe:
		r = lhs != rhs
	case OpLtU:
		r = lhs < rhs
	case OpGtU:
		r = lhs > rhs
	case OpLeU:
		r = lhs <= rhs
	case OpGeU:
		r = lhs >= rhs
	}
	if r {
		return 1
	}
	return 0
}

func truncate(t VarType, v uint64) uint64 {
	if size := t.Size(); size > 0 && size < 8 {
		return v & (1<<(8*size) - 1)
	}
	return v
}
