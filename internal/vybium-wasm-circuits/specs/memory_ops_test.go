package specs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustOpcode(t *testing.T) func(Opcode, error) Opcode {
	return func(op Opcode, err error) Opcode {
		t.Helper()
		require.NoError(t, err)
		return op
	}
}

func TestConstDropExpansion(t *testing.T) {
	must := mustOpcode(t)
	constInstr := InstructionEntry{Iid: 0, Opcode: must(NewConst(I32, 0))}
	dropInstr := InstructionEntry{Iid: 1, Opcode: NewDrop()}

	events := []EventEntry{
		{Eid: 1, Sp: 0, Instruction: constInstr, Step: ConstStep{VType: I32, Value: 0}},
		{Eid: 2, Sp: 1, Instruction: dropInstr, Step: DropStep{}},
	}

	memory, err := DeriveMemoryTable(events, nil)
	require.NoError(t, err)
	require.Equal(t, []MemoryTableEntry{
		{Eid: 1, Emid: 1, Offset: 0, LType: Stack, AType: Write, VType: I32, Value: 0},
	}, memory)
	require.Equal(t, uint64(1), CountMops(memory))

	require.Equal(t, int64(1), StackDelta(events[0].Step))
	require.Equal(t, int64(-1), StackDelta(events[1].Step))
	require.Equal(t, uint64(1), Mops(events[0].Step))
	require.Equal(t, uint64(0), Mops(events[1].Step))
}

func TestLocalGetExpansion(t *testing.T) {
	must := mustOpcode(t)
	instr := InstructionEntry{Iid: 1, Opcode: must(NewLocalGet(I32, 1))}
	ev := EventEntry{Eid: 2, Sp: 1, Instruction: instr, Step: LocalGetStep{VType: I32, Depth: 1, Value: 42}}

	ops, err := MemoryOps(ev)
	require.NoError(t, err)
	require.Equal(t, []MemoryTableEntry{
		{Eid: 2, Emid: 1, Offset: 0, LType: Stack, AType: Read, VType: I32, Value: 42},
		{Eid: 2, Emid: 1, Offset: 1, LType: Stack, AType: Write, VType: I32, Value: 42},
	}, ops)
	require.Len(t, ops, int(Mops(ev.Step)))
}

func TestExpansionMatchesDeclaredMops(t *testing.T) {
	must := mustOpcode(t)
	tests := []struct {
		name   string
		opcode Opcode
		step   StepInfo
		sp     uint64
	}{
		{"return keep", must(NewReturn(2, I64)), ReturnStep{Drop: 2, KeepType: I64, KeepValue: 9}, 5},
		{"return void", must(NewReturn(3, 0)), ReturnStep{Drop: 3}, 3},
		{"br_if_nez", NewBrIfNez(4), BrIfNezStep{Condition: 1, Dst: 4}, 1},
		{"call", NewCall(2), CallStep{Callee: 2}, 0},
		{"binop", must(NewBinOp(OpAdd, I32)), BinOpStep{Op: OpAdd, VType: I32, Lhs: 1, Rhs: 2, Result: 3}, 2},
		{"compare", must(NewComparison(OpLtU, I64)), ComparisonStep{Op: OpLtU, VType: I64, Lhs: 1, Rhs: 2, Result: 1}, 2},
		{"load", must(NewLoad(I32, 4)), LoadStep{VType: I32, Offset: 4, Addr: 8, Value: 7}, 1},
		{"store", must(NewStore(I64, 0)), StoreStep{VType: I64, Addr: 8, Value: 7}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := EventEntry{Eid: 3, Sp: tt.sp, Instruction: InstructionEntry{Opcode: tt.opcode}, Step: tt.step}
			ops, err := MemoryOps(ev)
			require.NoError(t, err)
			require.Len(t, ops, int(Mops(tt.step)))

			seen := make(map[[3]uint64]bool)
			for _, op := range ops {
				key := [3]uint64{uint64(op.LType), uint64(op.Offset), uint64(op.Emid)}
				require.False(t, seen[key], "duplicate (location, emid) in %v", ops)
				seen[key] = true
			}
		})
	}
}

func TestReturnMovesKeptValue(t *testing.T) {
	must := mustOpcode(t)
	ev := EventEntry{
		Eid:         7,
		Sp:          5,
		Instruction: InstructionEntry{Opcode: must(NewReturn(2, I32))},
		Step:        ReturnStep{Drop: 2, KeepType: I32, KeepValue: 11},
	}
	ops, err := MemoryOps(ev)
	require.NoError(t, err)
	require.Equal(t, uint16(4), ops[0].Offset)
	require.Equal(t, Read, ops[0].AType)
	require.Equal(t, uint16(2), ops[1].Offset)
	require.Equal(t, Write, ops[1].AType)
	require.Equal(t, int64(-2), StackDelta(ev.Step))
}

func TestDeriveHeapInit(t *testing.T) {
	must := mustOpcode(t)
	store := InstructionEntry{Mmid: 1, Iid: 2, Opcode: must(NewStore(I32, 4))}
	load := InstructionEntry{Mmid: 1, Iid: 4, Opcode: must(NewLoad(I32, 0))}
	events := []EventEntry{
		{Eid: 3, Sp: 2, Instruction: store, Step: StoreStep{VType: I32, Offset: 4, Addr: 6, Value: 99}},
		{Eid: 5, Sp: 1, Instruction: load, Step: LoadStep{VType: I32, Addr: 10, Value: 99}},
	}

	_, err := DeriveMemoryTable(events, nil)
	require.ErrorIs(t, err, ErrMissingInitMemory)

	memory, err := DeriveMemoryTable(events, []InitMemoryEntry{{Mmid: 1, Offset: 10, Value: 5}})
	require.NoError(t, err)

	require.Equal(t, MemoryTableEntry{Mmid: 1, Offset: 10, LType: Heap, AType: Init, VType: I32, Value: 5}, memory[0])
	require.Equal(t, MemoryTableEntry{Eid: 3, Emid: 1, Mmid: 1, Offset: 10, LType: Heap, AType: Write, VType: I32, Value: 99}, memory[1])
	require.Equal(t, MemoryTableEntry{Eid: 5, Emid: 1, Mmid: 1, Offset: 10, LType: Heap, AType: Read, VType: I32, Value: 99}, memory[2])
	require.Equal(t, uint64(6), CountMops(memory))

	for i := 1; i < len(memory); i++ {
		require.True(t, memory[i-1].Less(memory[i]), "row %d out of order", i)
	}
}

func TestExpansionErrors(t *testing.T) {
	must := mustOpcode(t)

	_, err := MemoryOps(EventEntry{Eid: 1, Instruction: InstructionEntry{Opcode: NewDrop()}, Step: ConstStep{VType: I32}})
	require.ErrorIs(t, err, ErrClassMismatch)

	_, err = MemoryOps(EventEntry{
		Eid:         1,
		Sp:          0,
		Instruction: InstructionEntry{Opcode: must(NewLocalGet(I32, 1))},
		Step:        LocalGetStep{VType: I32, Depth: 1},
	})
	require.ErrorIs(t, err, ErrOffsetOverflow)

	_, err = MemoryOps(EventEntry{Eid: 1})
	require.Error(t, err)
}

func TestOpcodeBuildErrors(t *testing.T) {
	_, err := NewConst(F32, 0)
	require.ErrorIs(t, err, ErrUnsupportedValueType)

	_, err = NewConst(I64, 1<<32)
	require.ErrorIs(t, err, ErrUnrepresentable)

	_, err = NewConst(U8, 256)
	require.ErrorIs(t, err, ErrUnrepresentable)

	_, err = NewBinOp(OpAdd, F64)
	require.ErrorIs(t, err, ErrUnsupportedValueType)

	_, err = NewBinOp(OpMul, U16)
	require.ErrorIs(t, err, ErrUnrepresentable)

	_, err = NewLocalGet(I32, 0)
	require.ErrorIs(t, err, ErrUnrepresentable)

	require.ErrorIs(t, Opcode{Class: 99}.Validate(), ErrUnknownOpcodeClass)
	require.ErrorIs(t, Opcode{Class: ClassConst, Arg0: uint16(I32) | 0x100}.Validate(), ErrUnknownValueType)
}

func TestOpcodeRoundTrip(t *testing.T) {
	must := mustOpcode(t)
	for _, op := range []Opcode{
		must(NewConst(I32, 0xffffffff)),
		NewDrop(),
		must(NewLocalGet(I64, 65535)),
		must(NewReturn(65535, I32)),
		NewBrIfNez(65535),
		NewCall(1),
		must(NewComparison(OpGeU, I64)),
		must(NewStore(U8, 65535)),
	} {
		require.NoError(t, op.Validate(), op.String())
		require.Equal(t, op, DecodeOpcode(op.Encode()))
		require.NotZero(t, op.Encode()>>OpcodeClassShift)
	}
}

func TestTablesValidate(t *testing.T) {
	must := mustOpcode(t)
	tables := &Tables{
		Instructions: []InstructionEntry{{Opcode: must(NewConst(I32, 1))}},
		Events: []EventEntry{
			{Eid: 1, Instruction: InstructionEntry{Opcode: must(NewConst(I32, 1))}, Step: ConstStep{VType: F32, Value: 1}},
		},
	}
	require.ErrorIs(t, tables.Validate(), ErrUnsupportedValueType)

	tables.Events[0].Step = ConstStep{VType: I32, Value: 1}
	require.NoError(t, tables.Validate())

	tables.Memory = []MemoryTableEntry{{VType: F64}}
	require.ErrorIs(t, tables.Validate(), ErrUnsupportedValueType)
}
