package specs

import "fmt"

// InstructionEntry is one static instruction of the compiled program.
// Together the entries form the universe the event table looks up into.
type InstructionEntry struct {
	Moid   uint16 `json:"moid"`
	Mmid   uint16 `json:"mmid"`
	Fid    uint16 `json:"fid"`
	Bid    uint16 `json:"bid"`
	Iid    uint16 `json:"iid"`
	Opcode Opcode `json:"opcode"`
}

// Address returns the instruction address without its opcode
func (e InstructionEntry) Address() string {
	return fmt.Sprintf("%d:%d:%d:%d", e.Moid, e.Fid, e.Bid, e.Iid)
}

// InitMemoryEntry declares the value of a heap cell before execution
type InitMemoryEntry struct {
	Mmid   uint16 `json:"mmid"`
	Offset uint16 `json:"offset"`
	Value  uint64 `json:"value"`
}

// MemoryTableEntry is one memory access. Entries of the memory table are
// ordered by (LType, Mmid, Offset, Eid, Emid).
type MemoryTableEntry struct {
	Eid    uint64       `json:"eid"`
	Emid   uint16       `json:"emid"`
	Mmid   uint16       `json:"mmid"`
	Offset uint16       `json:"offset"`
	LType  LocationType `json:"ltype"`
	AType  AccessType   `json:"atype"`
	VType  VarType      `json:"vtype"`
	Value  uint64       `json:"value"`
}

// Less orders entries by the canonical memory key
func (e MemoryTableEntry) Less(o MemoryTableEntry) bool {
	if e.LType != o.LType {
		return e.LType < o.LType
	}
	if e.Mmid != o.Mmid {
		return e.Mmid < o.Mmid
	}
	if e.Offset != o.Offset {
		return e.Offset < o.Offset
	}
	if e.Eid != o.Eid {
		return e.Eid < o.Eid
	}
	return e.Emid < o.Emid
}

// SameLocation reports whether both entries address the same cell
func (e MemoryTableEntry) SameLocation(o MemoryTableEntry) bool {
	return e.LType == o.LType && e.Mmid == o.Mmid && e.Offset == o.Offset
}

// JumpTableEntry records one control transfer: the step that performed it,
// the jump that was active at that step, and the transferring instruction.
type JumpTableEntry struct {
	Eid         uint64 `json:"eid"`
	LastJumpEid uint64 `json:"last_jump_eid"`
	Moid        uint16 `json:"moid"`
	Fid         uint16 `json:"fid"`
	Bid         uint16 `json:"bid"`
	Iid         uint16 `json:"iid"`
}

// EventEntry is one executed step
type EventEntry struct {
	// Eid counts steps from 1
	Eid uint64
	// Sp is the stack pointer before the step: the first free slot
	Sp          uint64
	LastJumpEid uint64
	Instruction InstructionEntry
	Step        StepInfo
}

// StepInfo carries the operands observed while executing one step.
//
// The set of implementations is closed, one per OpcodeClass.
type StepInfo interface {
	Class() OpcodeClass
	isStepInfo()
}

// ConstStep pushes an immediate
type ConstStep struct {
	VType VarType
	Value uint64
}

// DropStep discards the top of stack
type DropStep struct{}

// LocalGetStep copies the slot Depth below the stack pointer to the top
type LocalGetStep struct {
	VType VarType
	Depth uint32
	Value uint64
}

// ReturnStep leaves the current function, dropping Drop slots below the
// kept value. KeepType is zero when nothing is kept.
type ReturnStep struct {
	Drop      uint16
	KeepType  VarType
	KeepValue uint64
}

// BrIfNezStep pops a condition and branches to Dst when it is nonzero
type BrIfNezStep struct {
	Condition uint64
	Dst       uint16
}

// CallStep transfers control to function Callee
type CallStep struct {
	Callee uint16
}

// BinOpStep pops two operands and pushes Lhs op Rhs
type BinOpStep struct {
	Op     BinaryOp
	VType  VarType
	Lhs    uint64
	Rhs    uint64
	Result uint64
}

// ComparisonStep pops two operands and pushes the i32 truth value of the
// relation
type ComparisonStep struct {
	Op     ComparisonOp
	VType  VarType
	Lhs    uint64
	Rhs    uint64
	Result uint64
}

// LoadStep pops an address and pushes the heap cell at Addr+Offset
type LoadStep struct {
	VType  VarType
	Offset uint16
	Addr   uint32
	Value  uint64
}

// StoreStep pops a value and an address and writes the heap cell at
// Addr+Offset
type StoreStep struct {
	VType  VarType
	Offset uint16
	Addr   uint32
	Value  uint64
}

func (ConstStep) Class() OpcodeClass      { return ClassConst }
func (DropStep) Class() OpcodeClass       { return ClassDrop }
func (LocalGetStep) Class() OpcodeClass   { return ClassLocalGet }
func (ReturnStep) Class() OpcodeClass     { return ClassReturn }
func (BrIfNezStep) Class() OpcodeClass    { return ClassBrIfNez }
func (CallStep) Class() OpcodeClass       { return ClassCall }
func (BinOpStep) Class() OpcodeClass      { return ClassBinOp }
func (ComparisonStep) Class() OpcodeClass { return ClassComparison }
func (LoadStep) Class() OpcodeClass       { return ClassLoad }
func (StoreStep) Class() OpcodeClass      { return ClassStore }

func (ConstStep) isStepInfo()      {}
func (DropStep) isStepInfo()       {}
func (LocalGetStep) isStepInfo()   {}
func (ReturnStep) isStepInfo()     {}
func (BrIfNezStep) isStepInfo()    {}
func (CallStep) isStepInfo()       {}
func (BinOpStep) isStepInfo()      {}
func (ComparisonStep) isStepInfo() {}
func (LoadStep) isStepInfo()       {}
func (StoreStep) isStepInfo()      {}

// EffectiveAddress returns the heap offset accessed by a load
func (s LoadStep) EffectiveAddress() uint64 { return uint64(s.Addr) + uint64(s.Offset) }

// EffectiveAddress returns the heap offset accessed by a store
func (s StoreStep) EffectiveAddress() uint64 { return uint64(s.Addr) + uint64(s.Offset) }
