package specs

import (
	"fmt"
	"math"
)

// Opcode is the static payload of an instruction: its class and up to two
// immediate operands.
//
// Operand meaning per class:
//
//	Const       Arg0 value type, Arg1 immediate value
//	Drop        -
//	LocalGet    Arg0 value type, Arg1 stack depth of the local
//	Return      Arg0 slots dropped, Arg1 type of the kept value (0 keeps nothing)
//	BrIfNez     Arg1 destination iid
//	Call        Arg1 callee fid
//	BinOp       Arg0 operator, Arg1 operand type
//	Comparison  Arg0 relation, Arg1 operand type
//	Load        Arg0 value type, Arg1 static offset
//	Store       Arg0 value type, Arg1 static offset
//
// The packed form is class<<48 | Arg0<<32 | Arg1, which always fits in the
// 64-bit opcode slot of the instruction encoding.
type Opcode struct {
	Class OpcodeClass `json:"class"`
	Arg0  uint16      `json:"arg0"`
	Arg1  uint32      `json:"arg1"`
}

// NewConst builds a constant push. The immediate must be canonical for its
// type and must fit the 32-bit operand slot.
func NewConst(t VarType, value uint64) (Opcode, error) {
	if err := t.Validate(); err != nil {
		return Opcode{}, err
	}
	if !t.Fits(value) {
		return Opcode{}, fmt.Errorf("const %d does not fit %s: %w", value, t, ErrUnrepresentable)
	}
	if value > math.MaxUint32 {
		return Opcode{}, fmt.Errorf("const %#x exceeds 32-bit immediate: %w", value, ErrUnrepresentable)
	}
	return Opcode{Class: ClassConst, Arg0: uint16(t), Arg1: uint32(value)}, nil
}

// NewDrop builds a drop
func NewDrop() Opcode {
	return Opcode{Class: ClassDrop}
}

// NewLocalGet builds a local read at the given stack depth
func NewLocalGet(t VarType, depth uint32) (Opcode, error) {
	if err := t.Validate(); err != nil {
		return Opcode{}, err
	}
	if depth == 0 || depth > math.MaxUint16 {
		return Opcode{}, fmt.Errorf("local depth %d: %w", depth, ErrUnrepresentable)
	}
	return Opcode{Class: ClassLocalGet, Arg0: uint16(t), Arg1: depth}, nil
}

// NewReturn builds a return dropping drop slots and keeping at most one
// value of type keep. A zero keep type keeps nothing.
func NewReturn(drop uint16, keep VarType) (Opcode, error) {
	if keep != 0 {
		if err := keep.Validate(); err != nil {
			return Opcode{}, err
		}
	}
	return Opcode{Class: ClassReturn, Arg0: drop, Arg1: uint32(keep)}, nil
}

// NewBrIfNez builds a conditional branch to dst within the current function
func NewBrIfNez(dst uint16) Opcode {
	return Opcode{Class: ClassBrIfNez, Arg1: uint32(dst)}
}

// NewCall builds a call of function fid
func NewCall(fid uint16) Opcode {
	return Opcode{Class: ClassCall, Arg1: uint32(fid)}
}

// NewBinOp builds an arithmetic instruction over i32 or i64 operands
func NewBinOp(op BinaryOp, t VarType) (Opcode, error) {
	if op < OpAdd || op > OpMul {
		return Opcode{}, fmt.Errorf("binary operator %d: %w", op, ErrUnrepresentable)
	}
	if err := checkNumericType(t); err != nil {
		return Opcode{}, err
	}
	return Opcode{Class: ClassBinOp, Arg0: uint16(op), Arg1: uint32(t)}, nil
}

// NewComparison builds a relational instruction over i32 or i64 operands
func NewComparison(op ComparisonOp, t VarType) (Opcode, error) {
	if op < OpEq || op > OpGeU {
		return Opcode{}, fmt.Errorf("comparison %d: %w", op, ErrUnrepresentable)
	}
	if err := checkNumericType(t); err != nil {
		return Opcode{}, err
	}
	return Opcode{Class: ClassComparison, Arg0: uint16(op), Arg1: uint32(t)}, nil
}

// NewLoad builds a heap load of type t at address+offset
func NewLoad(t VarType, offset uint16) (Opcode, error) {
	if err := t.Validate(); err != nil {
		return Opcode{}, err
	}
	return Opcode{Class: ClassLoad, Arg0: uint16(t), Arg1: uint32(offset)}, nil
}

// NewStore builds a heap store of type t at address+offset
func NewStore(t VarType, offset uint16) (Opcode, error) {
	if err := t.Validate(); err != nil {
		return Opcode{}, err
	}
	return Opcode{Class: ClassStore, Arg0: uint16(t), Arg1: uint32(offset)}, nil
}

func checkNumericType(t VarType) error {
	if t == F32 || t == F64 {
		return fmt.Errorf("%s: %w", t, ErrUnsupportedValueType)
	}
	if t != I32 && t != I64 {
		return fmt.Errorf("numeric operand type %s: %w", t, ErrUnrepresentable)
	}
	return nil
}

// Validate checks that the payload is well formed for its class
func (o Opcode) Validate() error {
	var err error
	switch o.Class {
	case ClassConst:
		_, err = NewConst(varTypeOperand(uint32(o.Arg0)), uint64(o.Arg1))
	case ClassDrop:
		if o.Arg0 != 0 || o.Arg1 != 0 {
			err = fmt.Errorf("drop carries operands: %w", ErrUnrepresentable)
		}
	case ClassLocalGet:
		_, err = NewLocalGet(varTypeOperand(uint32(o.Arg0)), o.Arg1)
	case ClassReturn:
		if o.Arg1 > math.MaxUint8 {
			err = fmt.Errorf("return keep type %d: %w", o.Arg1, ErrUnknownValueType)
		} else {
			_, err = NewReturn(o.Arg0, VarType(o.Arg1))
		}
	case ClassBrIfNez, ClassCall:
		if o.Arg0 != 0 || o.Arg1 > math.MaxUint16 {
			err = fmt.Errorf("%s operands %d/%d: %w", o.Class, o.Arg0, o.Arg1, ErrUnrepresentable)
		}
	case ClassBinOp:
		_, err = NewBinOp(BinaryOp(o.Arg0), varTypeOperand(o.Arg1))
	case ClassComparison:
		_, err = NewComparison(ComparisonOp(o.Arg0), varTypeOperand(o.Arg1))
	case ClassLoad, ClassStore:
		if o.Arg1 > math.MaxUint16 {
			err = fmt.Errorf("%s offset %d: %w", o.Class, o.Arg1, ErrUnrepresentable)
		} else {
			err = varTypeOperand(uint32(o.Arg0)).Validate()
		}
	default:
		err = fmt.Errorf("class %d: %w", o.Class, ErrUnknownOpcodeClass)
	}
	return err
}

func varTypeOperand(v uint32) VarType {
	if v > math.MaxUint8 {
		return 0
	}
	return VarType(v)
}

// Encode packs the opcode into 64 bits
func (o Opcode) Encode() uint64 {
	return uint64(o.Class)<<OpcodeClassShift | uint64(o.Arg0)<<OpcodeArg0Shift | uint64(o.Arg1)<<OpcodeArg1Shift
}

// DecodeOpcode unpacks a 64-bit opcode
func DecodeOpcode(v uint64) Opcode {
	return Opcode{
		Class: OpcodeClass(v >> OpcodeClassShift),
		Arg0:  uint16(v >> OpcodeArg0Shift),
		Arg1:  uint32(v >> OpcodeArg1Shift),
	}
}

// String renders the opcode in assembly-like form
func (o Opcode) String() string {
	switch o.Class {
	case ClassConst:
		return fmt.Sprintf("%s.const %d", VarType(o.Arg0), o.Arg1)
	case ClassDrop:
		return "drop"
	case ClassLocalGet:
		return fmt.Sprintf("local.get %s depth=%d", VarType(o.Arg0), o.Arg1)
	case ClassReturn:
		return fmt.Sprintf("return drop=%d keep=%s", o.Arg0, VarType(o.Arg1))
	case ClassBrIfNez:
		return fmt.Sprintf("br_if_nez %d", o.Arg1)
	case ClassCall:
		return fmt.Sprintf("call %d", o.Arg1)
	case ClassBinOp:
		return fmt.Sprintf("%s.%s", varTypeOperand(o.Arg1), BinaryOp(o.Arg0))
	case ClassComparison:
		return fmt.Sprintf("%s.%s", varTypeOperand(o.Arg1), ComparisonOp(o.Arg0))
	case ClassLoad:
		return fmt.Sprintf("%s.load offset=%d", VarType(o.Arg0), o.Arg1)
	case ClassStore:
		return fmt.Sprintf("%s.store offset=%d", VarType(o.Arg0), o.Arg1)
	default:
		return fmt.Sprintf("unknown(%#x)", o.Encode())
	}
}
