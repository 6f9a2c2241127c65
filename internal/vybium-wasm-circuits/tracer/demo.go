package tracer

import (
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

func must(op specs.Opcode, err error) specs.Opcode {
	if err != nil {
		panic(err)
	}
	return op
}

// DemoModule returns a small program touching every opcode class: a call
// with arguments and a kept result, heap stores and loads, a taken branch,
// i64 arithmetic and comparisons.
func DemoModule() *Module {
	main := []specs.Opcode{
		must(specs.NewConst(specs.I32, 16)),
		must(specs.NewConst(specs.I32, 5)),
		must(specs.NewConst(specs.I32, 7)),
		specs.NewCall(1),
		must(specs.NewStore(specs.I32, 0)),
		must(specs.NewConst(specs.I32, 12)),
		must(specs.NewLoad(specs.I32, 4)),
		must(specs.NewConst(specs.I32, 12)),
		must(specs.NewComparison(specs.OpEq, specs.I32)),
		specs.NewBrIfNez(11),
		must(specs.NewReturn(0, 0)),
		must(specs.NewConst(specs.I32, 16)),
		must(specs.NewLoad(specs.I32, 4)),
		must(specs.NewConst(specs.I64, 3)),
		must(specs.NewConst(specs.I64, 4)),
		must(specs.NewBinOp(specs.OpMul, specs.I64)),
		must(specs.NewConst(specs.I64, 12)),
		must(specs.NewComparison(specs.OpGtU, specs.I64)),
		specs.NewDrop(),
		specs.NewDrop(),
		must(specs.NewReturn(0, 0)),
	}
	add := []specs.Opcode{
		must(specs.NewLocalGet(specs.I32, 2)),
		must(specs.NewLocalGet(specs.I32, 2)),
		must(specs.NewBinOp(specs.OpAdd, specs.I32)),
		must(specs.NewReturn(2, specs.I32)),
	}

	return &Module{
		Functions: []Function{
			{Name: "main", Body: main},
			{Name: "add", Body: add},
		},
		Data: []DataSegment{
			{Offset: 16, Value: 0},
			{Offset: 20, Value: 9},
		},
	}
}
