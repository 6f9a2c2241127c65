package specs

import (
	"github.com/holiman/uint256"
)

// Bit positions of every packed encoding. Lookups on both sides of every
// cross-table argument are built from these; changing one requires
// re-deriving every lookup expression.
const (
	// Memory table row
	MemoryValueShift  = 0   // 64 bits
	MemoryVTypeShift  = 64  // 13 bits
	MemoryATypeShift  = 77  // 2 bits
	MemoryLTypeShift  = 79  // 1 bit
	MemoryOffsetShift = 80  // 16 bits
	MemoryMmidShift   = 96  // 16 bits
	MemoryEmidShift   = 112 // 16 bits
	MemoryEidShift    = 128 // up to field capacity

	// Instruction table row
	InstructionOpcodeShift = 0 // 64 bits
	InstructionIidShift    = 64
	InstructionBidShift    = 80
	InstructionFidShift    = 96
	InstructionMmidShift   = 112
	InstructionMoidShift   = 128

	// Init memory table row. The presence bit keeps a zero cell at (0, 0)
	// distinct from the zero padding row.
	InitValueShift    = 0 // 64 bits
	InitOffsetShift   = 64
	InitMmidShift     = 80
	InitPresenceShift = 96

	// Jump table row
	JumpIidShift         = 0
	JumpBidShift         = 16
	JumpFidShift         = 32
	JumpMoidShift        = 48
	JumpLastJumpEidShift = 64 // 64 bits
	JumpEidShift         = 128

	// Opcode, inside the 64-bit opcode slot
	OpcodeArg1Shift  = 0 // 32 bits
	OpcodeArg0Shift  = 32
	OpcodeClassShift = 48

	// Sized-value table entry
	SizedByteShift  = 0
	SizedVTypeShift = 8
	SizedPosShift   = 12
)

const (
	mask16 = 1<<16 - 1
	mask13 = 1<<13 - 1
	mask2  = 1<<2 - 1
	mask1  = 1
)

type packedField struct {
	value uint64
	shift uint
}

func pack(fields ...packedField) *uint256.Int {
	acc := new(uint256.Int)
	for _, f := range fields {
		term := new(uint256.Int).Lsh(uint256.NewInt(f.value), f.shift)
		acc.Or(acc, term)
	}
	return acc
}

func unpack(v *uint256.Int, shift uint, mask uint64) uint64 {
	return new(uint256.Int).Rsh(v, shift).Uint64() & mask
}

// Encode packs the memory row
func (e MemoryTableEntry) Encode() *uint256.Int {
	return pack(
		packedField{e.Value, MemoryValueShift},
		packedField{uint64(e.VType), MemoryVTypeShift},
		packedField{uint64(e.AType), MemoryATypeShift},
		packedField{uint64(e.LType), MemoryLTypeShift},
		packedField{uint64(e.Offset), MemoryOffsetShift},
		packedField{uint64(e.Mmid), MemoryMmidShift},
		packedField{uint64(e.Emid), MemoryEmidShift},
		packedField{e.Eid, MemoryEidShift},
	)
}

// DecodeMemory unpacks a memory row encoding
func DecodeMemory(v *uint256.Int) MemoryTableEntry {
	return MemoryTableEntry{
		Value:  unpack(v, MemoryValueShift, ^uint64(0)),
		VType:  VarType(unpack(v, MemoryVTypeShift, mask13)),
		AType:  AccessType(unpack(v, MemoryATypeShift, mask2)),
		LType:  LocationType(unpack(v, MemoryLTypeShift, mask1)),
		Offset: uint16(unpack(v, MemoryOffsetShift, mask16)),
		Mmid:   uint16(unpack(v, MemoryMmidShift, mask16)),
		Emid:   uint16(unpack(v, MemoryEmidShift, mask16)),
		Eid:    unpack(v, MemoryEidShift, ^uint64(0)),
	}
}

// Encode packs the instruction row
func (e InstructionEntry) Encode() *uint256.Int {
	return pack(
		packedField{e.Opcode.Encode(), InstructionOpcodeShift},
		packedField{uint64(e.Iid), InstructionIidShift},
		packedField{uint64(e.Bid), InstructionBidShift},
		packedField{uint64(e.Fid), InstructionFidShift},
		packedField{uint64(e.Mmid), InstructionMmidShift},
		packedField{uint64(e.Moid), InstructionMoidShift},
	)
}

// DecodeInstruction unpacks an instruction row encoding
func DecodeInstruction(v *uint256.Int) InstructionEntry {
	return InstructionEntry{
		Opcode: DecodeOpcode(unpack(v, InstructionOpcodeShift, ^uint64(0))),
		Iid:    uint16(unpack(v, InstructionIidShift, mask16)),
		Bid:    uint16(unpack(v, InstructionBidShift, mask16)),
		Fid:    uint16(unpack(v, InstructionFidShift, mask16)),
		Mmid:   uint16(unpack(v, InstructionMmidShift, mask16)),
		Moid:   uint16(unpack(v, InstructionMoidShift, mask16)),
	}
}

// Encode packs the init memory row
func (e InitMemoryEntry) Encode() *uint256.Int {
	return pack(
		packedField{e.Value, InitValueShift},
		packedField{uint64(e.Offset), InitOffsetShift},
		packedField{uint64(e.Mmid), InitMmidShift},
		packedField{1, InitPresenceShift},
	)
}

// DecodeInitMemory unpacks an init memory row encoding. The second result
// is false for the padding row.
func DecodeInitMemory(v *uint256.Int) (InitMemoryEntry, bool) {
	e := InitMemoryEntry{
		Value:  unpack(v, InitValueShift, ^uint64(0)),
		Offset: uint16(unpack(v, InitOffsetShift, mask16)),
		Mmid:   uint16(unpack(v, InitMmidShift, mask16)),
	}
	return e, unpack(v, InitPresenceShift, mask1) == 1
}

// Encode packs the jump row
func (e JumpTableEntry) Encode() *uint256.Int {
	return pack(
		packedField{uint64(e.Iid), JumpIidShift},
		packedField{uint64(e.Bid), JumpBidShift},
		packedField{uint64(e.Fid), JumpFidShift},
		packedField{uint64(e.Moid), JumpMoidShift},
		packedField{e.LastJumpEid, JumpLastJumpEidShift},
		packedField{e.Eid, JumpEidShift},
	)
}

// DecodeJump unpacks a jump row encoding
func DecodeJump(v *uint256.Int) JumpTableEntry {
	return JumpTableEntry{
		Iid:         uint16(unpack(v, JumpIidShift, mask16)),
		Bid:         uint16(unpack(v, JumpBidShift, mask16)),
		Fid:         uint16(unpack(v, JumpFidShift, mask16)),
		Moid:        uint16(unpack(v, JumpMoidShift, mask16)),
		LastJumpEid: unpack(v, JumpLastJumpEidShift, ^uint64(0)),
		Eid:         unpack(v, JumpEidShift, ^uint64(0)),
	}
}

// EncodeSizedValue packs a (byte position, type, byte) triple of the
// sized-value table
func EncodeSizedValue(pos int, t VarType, b uint8) uint64 {
	return uint64(pos)<<SizedPosShift | uint64(t)<<SizedVTypeShift | uint64(b)<<SizedByteShift
}
