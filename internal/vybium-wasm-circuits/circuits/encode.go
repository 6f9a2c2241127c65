package circuits

import (
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

// Gate-side counterparts of the packed encodings in specs/encoding.go. Each
// builds the same sum of shifted fields, so a row assigned from Encode()
// matches the expression evaluated over its columns.

type shifted struct {
	expr  plonk.Expression
	shift uint
}

func packExpr(fields ...shifted) plonk.Expression {
	terms := make([]plonk.Expression, len(fields))
	for i, f := range fields {
		terms[i] = plonk.Shl(f.expr, f.shift)
	}
	return plonk.Add(terms...)
}

// memoryExpr are the fields of a memory row encoding
type memoryExpr struct {
	eid, emid, mmid, offset, ltype, atype, vtype, value plonk.Expression
}

func (m memoryExpr) encode() plonk.Expression {
	return packExpr(
		shifted{m.value, specs.MemoryValueShift},
		shifted{m.vtype, specs.MemoryVTypeShift},
		shifted{m.atype, specs.MemoryATypeShift},
		shifted{m.ltype, specs.MemoryLTypeShift},
		shifted{m.offset, specs.MemoryOffsetShift},
		shifted{m.mmid, specs.MemoryMmidShift},
		shifted{m.emid, specs.MemoryEmidShift},
		shifted{m.eid, specs.MemoryEidShift},
	)
}

// instructionExpr are the fields of an instruction row encoding
type instructionExpr struct {
	moid, mmid, fid, bid, iid, opcode plonk.Expression
}

func (e instructionExpr) encode() plonk.Expression {
	return packExpr(
		shifted{e.opcode, specs.InstructionOpcodeShift},
		shifted{e.iid, specs.InstructionIidShift},
		shifted{e.bid, specs.InstructionBidShift},
		shifted{e.fid, specs.InstructionFidShift},
		shifted{e.mmid, specs.InstructionMmidShift},
		shifted{e.moid, specs.InstructionMoidShift},
	)
}

func encodeInit(mmid, offset, value plonk.Expression) plonk.Expression {
	return packExpr(
		shifted{value, specs.InitValueShift},
		shifted{offset, specs.InitOffsetShift},
		shifted{mmid, specs.InitMmidShift},
		shifted{plonk.One(), specs.InitPresenceShift},
	)
}

// jumpExpr are the fields of a jump row encoding
type jumpExpr struct {
	eid, lastJumpEid, moid, fid, bid, iid plonk.Expression
}

func (j jumpExpr) encode() plonk.Expression {
	return packExpr(
		shifted{j.iid, specs.JumpIidShift},
		shifted{j.bid, specs.JumpBidShift},
		shifted{j.fid, specs.JumpFidShift},
		shifted{j.moid, specs.JumpMoidShift},
		shifted{j.lastJumpEid, specs.JumpLastJumpEidShift},
		shifted{j.eid, specs.JumpEidShift},
	)
}

// opcodeExpr packs an opcode from its class and operand expressions
func opcodeExpr(class specs.OpcodeClass, arg0, arg1 plonk.Expression) plonk.Expression {
	return packExpr(
		shifted{plonk.Uint(uint64(class)), specs.OpcodeClassShift},
		shifted{arg0, specs.OpcodeArg0Shift},
		shifted{arg1, specs.OpcodeArg1Shift},
	)
}
