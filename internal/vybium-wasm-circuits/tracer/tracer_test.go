package tracer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

func compile(t *testing.T, m *Module) *Program {
	t.Helper()
	p, err := Compile(m)
	require.NoError(t, err)
	return p
}

func single(body ...specs.Opcode) *Module {
	return &Module{Functions: []Function{{Name: "main", Body: body}}}
}

func TestExecuteDemo(t *testing.T) {
	tables, err := Execute(compile(t, DemoModule()), 0)
	require.NoError(t, err)

	require.Len(t, tables.Events, 24)
	require.Len(t, tables.Instructions, 25)
	require.Len(t, tables.InitMemory, 2)
	require.Equal(t, []specs.JumpTableEntry{{Eid: 4, LastJumpEid: 0, Fid: 0, Iid: 3}}, tables.Jumps)

	for i, ev := range tables.Events {
		require.Equal(t, uint64(i+1), ev.Eid)
		require.Equal(t, ev.Instruction.Opcode.Class, ev.Step.Class())
	}

	// call enters add with the call as the active jump, return restores it
	require.Equal(t, uint64(0), tables.Events[3].LastJumpEid)
	require.Equal(t, uint64(4), tables.Events[4].LastJumpEid)
	require.Equal(t, uint16(1), tables.Events[4].Instruction.Fid)
	require.Equal(t, uint64(4), tables.Events[7].LastJumpEid)
	require.Equal(t, uint64(0), tables.Events[8].LastJumpEid)
	require.Equal(t, uint16(4), tables.Events[8].Instruction.Iid)

	require.Equal(t, specs.ReturnStep{Drop: 2, KeepType: specs.I32, KeepValue: 12}, tables.Events[7].Step)
	require.Equal(t, specs.StoreStep{VType: specs.I32, Offset: 0, Addr: 16, Value: 12}, tables.Events[8].Step)
	require.Equal(t, specs.LoadStep{VType: specs.I32, Offset: 4, Addr: 12, Value: 12}, tables.Events[10].Step)
	require.Equal(t, specs.BrIfNezStep{Condition: 1, Dst: 11}, tables.Events[13].Step)
	require.Equal(t, uint16(11), tables.Events[14].Instruction.Iid)
	require.Equal(t, specs.LoadStep{VType: specs.I32, Offset: 4, Addr: 16, Value: 9}, tables.Events[15].Step)
	require.Equal(t, specs.BinOpStep{Op: specs.OpMul, VType: specs.I64, Lhs: 3, Rhs: 4, Result: 12}, tables.Events[18].Step)
	require.Equal(t, specs.ComparisonStep{Op: specs.OpGtU, VType: specs.I64, Lhs: 12, Rhs: 12, Result: 0}, tables.Events[20].Step)

	require.Len(t, tables.Memory, 39)
	require.Equal(t, uint64(37), specs.CountMops(tables.Memory))
}

func TestExecuteStackPointer(t *testing.T) {
	tables, err := Execute(compile(t, DemoModule()), 0)
	require.NoError(t, err)

	for i := 0; i+1 < len(tables.Events); i++ {
		ev := tables.Events[i]
		want := int64(ev.Sp) + specs.StackDelta(ev.Step)
		require.Equal(t, want, int64(tables.Events[i+1].Sp), "event %d", ev.Eid)
	}
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name   string
		module *Module
		want   error
	}{
		{
			name:   "drop on empty stack",
			module: single(specs.NewDrop()),
			want:   ErrStackUnderflow,
		},
		{
			name: "branch on i64",
			module: single(
				must(specs.NewConst(specs.I64, 1)),
				specs.NewBrIfNez(0),
			),
			want: ErrTypeMismatch,
		},
		{
			name: "load of undeclared cell",
			module: single(
				must(specs.NewConst(specs.I32, 8)),
				must(specs.NewLoad(specs.I32, 0)),
				must(specs.NewReturn(0, 0)),
			),
			want: ErrUninitializedHeap,
		},
		{
			name: "store past 16-bit heap",
			module: single(
				must(specs.NewConst(specs.I32, 0xffff)),
				must(specs.NewConst(specs.I32, 1)),
				must(specs.NewStore(specs.I32, 1)),
				must(specs.NewReturn(0, 0)),
			),
			want: specs.ErrOffsetOverflow,
		},
		{
			name: "cell used at two types",
			module: &Module{
				Functions: []Function{{Name: "main", Body: []specs.Opcode{
					must(specs.NewConst(specs.I32, 4)),
					must(specs.NewLoad(specs.I32, 0)),
					must(specs.NewConst(specs.I32, 4)),
					must(specs.NewLoad(specs.I64, 0)),
					must(specs.NewReturn(0, 0)),
				}}},
				Data: []DataSegment{{Offset: 4, Value: 1}},
			},
			want: ErrTypeMismatch,
		},
		{
			name: "return keeping the wrong type",
			module: single(
				must(specs.NewConst(specs.I32, 1)),
				must(specs.NewReturn(0, specs.I64)),
			),
			want: ErrTypeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Execute(compile(t, tt.module), 0)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStepLimit(t *testing.T) {
	p := compile(t, single(
		must(specs.NewConst(specs.I32, 1)),
		specs.NewBrIfNez(0),
	))
	vm, err := NewVMState(p, 0)
	require.NoError(t, err)
	vm.MaxSteps = 100

	require.ErrorIs(t, vm.Run(), ErrStepLimit)
	require.Equal(t, uint64(100), vm.Eid)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		module *Module
	}{
		{name: "nil module"},
		{name: "no functions", module: &Module{}},
		{name: "empty body", module: &Module{Functions: []Function{{Name: "main"}}}},
		{name: "unknown callee", module: single(specs.NewCall(3))},
		{name: "branch past end", module: single(specs.NewBrIfNez(1))},
		{name: "float opcode", module: single(specs.Opcode{Class: specs.ClassConst, Arg0: uint16(specs.F32)})},
		{
			name: "cell declared twice",
			module: &Module{
				Functions: []Function{{Name: "main", Body: []specs.Opcode{specs.NewDrop()}}},
				Data:      []DataSegment{{Offset: 1}, {Offset: 1}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.module)
			require.Error(t, err)
		})
	}
}

func TestCompileLayout(t *testing.T) {
	m := DemoModule()
	m.Moid, m.Mmid = 2, 3
	m.Data = []DataSegment{{Offset: 20, Value: 9}, {Offset: 16}}
	p := compile(t, m)

	require.Equal(t, []specs.InitMemoryEntry{
		{Mmid: 3, Offset: 16},
		{Mmid: 3, Offset: 20, Value: 9},
	}, p.InitMemory)

	instr, err := p.Fetch(1, 2)
	require.NoError(t, err)
	require.Equal(t, specs.InstructionEntry{
		Moid:   2,
		Mmid:   3,
		Fid:    1,
		Iid:    2,
		Opcode: must(specs.NewBinOp(specs.OpAdd, specs.I32)),
	}, instr)

	_, err = p.Fetch(1, 4)
	require.Error(t, err)
}
