package specs

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	bounds16 = []uint16{0, 1, math.MaxUint16 - 1, math.MaxUint16}
	bounds64 = []uint64{0, 1, math.MaxUint32, math.MaxUint64}
)

func TestInstructionEncodingBoundaries(t *testing.T) {
	seen := make(map[string]InstructionEntry)

	for _, moid := range bounds16 {
		for _, mmid := range bounds16 {
			for _, fid := range bounds16 {
				for _, bid := range bounds16 {
					for _, iid := range bounds16 {
						for _, op := range bounds64 {
							e := InstructionEntry{
								Moid:   moid,
								Mmid:   mmid,
								Fid:    fid,
								Bid:    bid,
								Iid:    iid,
								Opcode: DecodeOpcode(op),
							}
							enc := e.Encode()
							require.Equal(t, e, DecodeInstruction(enc))

							key := enc.Hex()
							if prev, ok := seen[key]; ok {
								t.Fatalf("encoding collision between %+v and %+v", prev, e)
							}
							seen[key] = e
						}
					}
				}
			}
		}
	}
	require.Len(t, seen, 4*4*4*4*4*4)
}

func TestInstructionEncodingLayout(t *testing.T) {
	e := InstructionEntry{Moid: 5, Mmid: 4, Fid: 3, Bid: 2, Iid: 1, Opcode: DecodeOpcode(0x0102030405060708)}
	require.Equal(t, "0x500040003000200010102030405060708", e.Encode().Hex())
}

func TestMemoryEncodingBoundaries(t *testing.T) {
	vtypes := []VarType{U8, I32, I64}
	seen := make(map[string]struct{})

	for _, eid := range bounds64 {
		for _, emid := range bounds16 {
			for _, offset := range bounds16 {
				for _, ltype := range []LocationType{Heap, Stack} {
					for _, atype := range []AccessType{Read, Write, Init} {
						for _, vtype := range vtypes {
							for _, value := range bounds64 {
								e := MemoryTableEntry{
									Eid:    eid,
									Emid:   emid,
									Mmid:   emid ^ 0x5a5a,
									Offset: offset,
									LType:  ltype,
									AType:  atype,
									VType:  vtype,
									Value:  value,
								}
								enc := e.Encode()
								require.Equal(t, e, DecodeMemory(enc))
								seen[enc.Hex()] = struct{}{}
							}
						}
					}
				}
			}
		}
	}
	require.Len(t, seen, 4*4*4*2*3*3*4)
}

func TestMemoryEncodingsDifferOnlyInChangedFields(t *testing.T) {
	read := MemoryTableEntry{Eid: 2, Emid: 1, Offset: 0, LType: Stack, AType: Read, VType: I32, Value: 42}
	write := read
	write.Offset = 1
	write.AType = Write

	diff := middleWordDiff(read, write)
	require.Equal(t, uint64(1)<<(MemoryOffsetShift-64)|uint64(Read^Write)<<(MemoryATypeShift-64), diff)
}

// middleWordDiff xors the two encodings and returns bits 64..127. Both
// entries must agree on every other bit.
func middleWordDiff(a, b MemoryTableEntry) uint64 {
	x := a.Encode()
	x.Xor(x, b.Encode())
	words := x.Bytes32()
	var mid uint64
	for _, w := range words[16:24] {
		mid = mid<<8 | uint64(w)
	}
	x.Rsh(x, 64)
	x.Lsh(x, 64)
	if x.Cmp(new(uint256.Int).Lsh(uint256.NewInt(mid), 64)) != 0 {
		return math.MaxUint64
	}
	return mid
}

func TestInitMemoryEncoding(t *testing.T) {
	zero := InitMemoryEntry{}
	enc := zero.Encode()
	require.False(t, enc.IsZero())

	got, present := DecodeInitMemory(enc)
	require.True(t, present)
	require.Equal(t, zero, got)

	e := InitMemoryEntry{Mmid: math.MaxUint16, Offset: math.MaxUint16, Value: math.MaxUint64}
	got, present = DecodeInitMemory(e.Encode())
	require.True(t, present)
	require.Equal(t, e, got)

	_, present = DecodeInitMemory(new(uint256.Int))
	require.False(t, present)
}

func TestJumpEncodingBoundaries(t *testing.T) {
	for _, eid := range bounds64 {
		for _, lje := range bounds64 {
			for _, v := range bounds16 {
				e := JumpTableEntry{Eid: eid, LastJumpEid: lje, Moid: v, Fid: ^v, Bid: v / 2, Iid: v ^ 1}
				require.Equal(t, e, DecodeJump(e.Encode()))
			}
		}
	}
}

func TestSizedValueEncoding(t *testing.T) {
	require.Equal(t, uint64(0), EncodeSizedValue(0, 0, 0))
	require.Equal(t, uint64(7<<12|8<<8|0xff), EncodeSizedValue(7, I64, 0xff))
	require.NotEqual(t, EncodeSizedValue(1, U8, 0), EncodeSizedValue(0, U8, 0))
}
