package circuits

import (
	"math/bits"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/core"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

// numericType is the operand type of a numeric instruction: i32, or i64
// when is64 is set
type numericType struct {
	is64 plonk.Column
}

func configureNumericType(ctx *eventContext) numericType {
	t := numericType{is64: ctx.cs.AdviceColumn(ctx.name("is64"))}
	ctx.cs.CreateGate(ctx.name("is64 boolean"), plonk.Mul(ctx.sel, plonk.Bool(t.is64.Cur())))
	return t
}

// vtype is I32 or I64
func (t numericType) vtype() plonk.Expression {
	return plonk.Add(plonk.Uint(uint64(specs.I32)), plonk.Mul(t.is64.Cur(), plonk.Uint(uint64(specs.I64-specs.I32))))
}

// modulus is 2^32 or 2^64
func (t numericType) modulus() plonk.Expression {
	var span fr.Element
	lo, hi := core.PowerOfTwo(32), core.PowerOfTwo(64)
	span.Sub(&hi, &lo)
	return plonk.Add(plonk.Const(lo), plonk.Scale(t.is64.Cur(), span))
}

func (t numericType) assign(asg *plonk.Assignment, row int, vtype specs.VarType) error {
	_, err := asg.AssignAdviceUint(t.is64, row, boolUint(vtype == specs.I64))
	return err
}

// operatorFlags one-hot encodes the operator of a numeric instruction. The
// packed operator is sum(flag_i * op_i).
type operatorFlags struct {
	flags []plonk.Column
	ops   []uint64
}

func configureOperatorFlags(ctx *eventContext, names []string, ops []uint64) operatorFlags {
	f := operatorFlags{ops: ops}
	polys := make([]plonk.Expression, 0, len(names)+1)
	sum := make([]plonk.Expression, 0, len(names))
	for _, name := range names {
		col := ctx.cs.AdviceColumn(ctx.name("is " + name))
		f.flags = append(f.flags, col)
		polys = append(polys, plonk.Mul(ctx.sel, plonk.Bool(col.Cur())))
		sum = append(sum, col.Cur())
	}
	polys = append(polys, plonk.Mul(ctx.sel, plonk.Sub(plonk.Add(sum...), plonk.One())))
	ctx.cs.CreateGate(ctx.name("operator"), polys...)
	return f
}

func (f operatorFlags) flag(i int) plonk.Expression { return f.flags[i].Cur() }

func (f operatorFlags) packed() plonk.Expression {
	terms := make([]plonk.Expression, len(f.flags))
	for i, col := range f.flags {
		terms[i] = plonk.Mul(col.Cur(), plonk.Uint(f.ops[i]))
	}
	return plonk.Add(terms...)
}

func (f operatorFlags) assign(asg *plonk.Assignment, row int, op uint64) error {
	for i, col := range f.flags {
		if _, err := asg.AssignAdviceUint(col, row, boolUint(f.ops[i] == op)); err != nil {
			return err
		}
	}
	return nil
}

// binOpConfig computes lhs op rhs modulo 2^width.
//
//	add: lhs + rhs = res + carry * 2^width
//	sub: lhs + carry * 2^width = rhs + res
//	mul: lhs * rhs = res + hi * 2^width
type binOpConfig struct {
	op    operatorFlags
	typ   numericType
	lhs   *TValueConfig
	rhs   *TValueConfig
	res   *TValueConfig
	hi    *Value64Config
	carry plonk.Column
}

func configureBinOp(ctx *eventContext) *binOpConfig {
	ops := make([]uint64, len(specs.BinaryOps))
	names := make([]string, len(specs.BinaryOps))
	for i, op := range specs.BinaryOps {
		ops[i], names[i] = uint64(op), op.String()
	}

	c := &binOpConfig{
		op:    configureOperatorFlags(ctx, names, ops),
		typ:   configureNumericType(ctx),
		lhs:   ConfigureTValue(ctx.cs, "binop lhs", ctx.sel, ctx.rng),
		rhs:   ConfigureTValue(ctx.cs, "binop rhs", ctx.sel, ctx.rng),
		res:   ConfigureTValue(ctx.cs, "binop res", ctx.sel, ctx.rng),
		hi:    ConfigureValue64(ctx.cs, "binop hi", ctx.sel, ctx.rng),
		carry: ctx.cs.AdviceColumn("binop carry"),
	}

	sel, vtype, m := ctx.sel, c.typ.vtype(), c.typ.modulus()
	isAdd, isSub, isMul := c.op.flag(0), c.op.flag(1), c.op.flag(2)
	lhs, rhs, res, carry := c.lhs.Value(), c.rhs.Value(), c.res.Value(), c.carry.Cur()

	ctx.cs.CreateGate("binop",
		plonk.Mul(sel, plonk.Sub(c.lhs.VType(), vtype)),
		plonk.Mul(sel, plonk.Sub(c.rhs.VType(), vtype)),
		plonk.Mul(sel, plonk.Sub(c.res.VType(), vtype)),
		plonk.Mul(sel, plonk.Bool(carry)),
		plonk.Mul(sel, isMul, carry),
		plonk.Mul(sel, plonk.Add(isAdd, isSub), c.hi.Value()),
		plonk.Mul(sel, isAdd, plonk.Sub(plonk.Add(lhs, rhs), plonk.Add(res, plonk.Mul(carry, m)))),
		plonk.Mul(sel, isSub, plonk.Sub(plonk.Add(lhs, plonk.Mul(carry, m)), plonk.Add(rhs, res))),
		plonk.Mul(sel, isMul, plonk.Sub(plonk.Mul(lhs, rhs), plonk.Add(res, plonk.Mul(c.hi.Value(), m)))),
	)

	ctx.lookupMemory("rhs read", sel, specs.Stack, specs.Read, ctx.stackAt(plonk.One()), 1, c.rhs.VType(), rhs)
	ctx.lookupMemory("lhs read", sel, specs.Stack, specs.Read, ctx.stackAt(plonk.Uint(2)), 1, c.lhs.VType(), lhs)
	ctx.lookupMemory("res write", sel, specs.Stack, specs.Write, ctx.stackAt(plonk.Uint(2)), 2, c.res.VType(), res)
	return c
}

func (c *binOpConfig) exprs() classExprs {
	return classExprs{
		opcode:  opcodeExpr(specs.ClassBinOp, c.op.packed(), c.typ.vtype()),
		spDelta: plonk.Int(-1),
		mops:    plonk.Uint(3),
	}
}

func (c *binOpConfig) assign(asg *plonk.Assignment, row int, ev specs.EventEntry) error {
	s := stepAs[specs.BinOpStep](ev)
	width := uint(8 * s.VType.Size())

	var carry, hi uint64
	switch s.Op {
	case specs.OpAdd:
		sum, c := bits.Add64(s.Lhs, s.Rhs, 0)
		carry = c
		if width < 64 {
			carry = sum >> width
		}
	case specs.OpSub:
		carry = boolUint(s.Lhs < s.Rhs)
	case specs.OpMul:
		h, l := bits.Mul64(s.Lhs, s.Rhs)
		hi = h
		if width < 64 {
			hi = l >> width
		}
	}

	w := &rowWriter{asg: asg, row: row}
	w.do(func(asg *plonk.Assignment, row int) error { return c.op.assign(asg, row, uint64(s.Op)) })
	w.do(func(asg *plonk.Assignment, row int) error { return c.typ.assign(asg, row, s.VType) })
	w.do(func(asg *plonk.Assignment, row int) error { return c.lhs.Assign(asg, row, s.VType, s.Lhs) })
	w.do(func(asg *plonk.Assignment, row int) error { return c.rhs.Assign(asg, row, s.VType, s.Rhs) })
	w.do(func(asg *plonk.Assignment, row int) error { return c.res.Assign(asg, row, s.VType, s.Result) })
	w.do(func(asg *plonk.Assignment, row int) error { return c.hi.Assign(asg, row, hi) })
	w.uint(c.carry, carry)
	return w.err
}

// comparisonConfig evaluates an unsigned relation and pushes it as an i32.
//
// eq comes from an is-zero gadget on lhs - rhs. lt is witnessed and proven by
// a 64-bit decomposition of diff = lt ? rhs - lhs - 1 : lhs - rhs, which is
// non-negative in exactly the claimed case.
type comparisonConfig struct {
	op   operatorFlags
	typ  numericType
	lhs  *TValueConfig
	rhs  *TValueConfig
	res  plonk.Column
	eq   *IsZeroConfig
	lt   plonk.Column
	diff *Value64Config
}

func configureComparison(ctx *eventContext) *comparisonConfig {
	ops := make([]uint64, len(specs.ComparisonOps))
	names := make([]string, len(specs.ComparisonOps))
	for i, op := range specs.ComparisonOps {
		ops[i], names[i] = uint64(op), op.String()
	}

	c := &comparisonConfig{
		op:   configureOperatorFlags(ctx, names, ops),
		typ:  configureNumericType(ctx),
		lhs:  ConfigureTValue(ctx.cs, "compare lhs", ctx.sel, ctx.rng),
		rhs:  ConfigureTValue(ctx.cs, "compare rhs", ctx.sel, ctx.rng),
		res:  ctx.cs.AdviceColumn("compare res"),
		lt:   ctx.cs.AdviceColumn("compare lt"),
		diff: ConfigureValue64(ctx.cs, "compare diff", ctx.sel, ctx.rng),
	}

	sel, vtype := ctx.sel, c.typ.vtype()
	lhs, rhs, lt := c.lhs.Value(), c.rhs.Value(), c.lt.Cur()
	c.eq = ConfigureIsZero(ctx.cs, "compare eq", sel, plonk.Sub(lhs, rhs))
	eq := c.eq.IsZero()

	relation := plonk.Add(
		plonk.Mul(c.op.flag(0), eq),
		plonk.Mul(c.op.flag(1), plonk.Not(eq)),
		plonk.Mul(c.op.flag(2), lt),
		plonk.Mul(c.op.flag(3), plonk.Not(lt), plonk.Not(eq)),
		plonk.Mul(c.op.flag(4), plonk.Add(lt, eq)),
		plonk.Mul(c.op.flag(5), plonk.Not(lt)),
	)

	ctx.cs.CreateGate("compare",
		plonk.Mul(sel, plonk.Sub(c.lhs.VType(), vtype)),
		plonk.Mul(sel, plonk.Sub(c.rhs.VType(), vtype)),
		plonk.Mul(sel, plonk.Bool(lt)),
		plonk.Mul(sel, plonk.Sub(c.diff.Value(), plonk.Add(
			plonk.Mul(lt, plonk.Sub(plonk.Sub(rhs, lhs), plonk.One())),
			plonk.Mul(plonk.Not(lt), plonk.Sub(lhs, rhs)),
		))),
		plonk.Mul(sel, plonk.Sub(c.res.Cur(), relation)),
	)

	i32 := plonk.Uint(uint64(specs.I32))
	ctx.lookupMemory("rhs read", sel, specs.Stack, specs.Read, ctx.stackAt(plonk.One()), 1, c.rhs.VType(), rhs)
	ctx.lookupMemory("lhs read", sel, specs.Stack, specs.Read, ctx.stackAt(plonk.Uint(2)), 1, c.lhs.VType(), lhs)
	ctx.lookupMemory("res write", sel, specs.Stack, specs.Write, ctx.stackAt(plonk.Uint(2)), 2, i32, c.res.Cur())
	return c
}

func (c *comparisonConfig) exprs() classExprs {
	return classExprs{
		opcode:  opcodeExpr(specs.ClassComparison, c.op.packed(), c.typ.vtype()),
		spDelta: plonk.Int(-1),
		mops:    plonk.Uint(3),
	}
}

func (c *comparisonConfig) assign(asg *plonk.Assignment, row int, ev specs.EventEntry) error {
	s := stepAs[specs.ComparisonStep](ev)

	lt := s.Lhs < s.Rhs
	diff := s.Lhs - s.Rhs
	if lt {
		diff = s.Rhs - s.Lhs - 1
	}

	w := &rowWriter{asg: asg, row: row}
	w.do(func(asg *plonk.Assignment, row int) error { return c.op.assign(asg, row, uint64(s.Op)) })
	w.do(func(asg *plonk.Assignment, row int) error { return c.typ.assign(asg, row, s.VType) })
	w.do(func(asg *plonk.Assignment, row int) error { return c.lhs.Assign(asg, row, s.VType, s.Lhs) })
	w.do(func(asg *plonk.Assignment, row int) error { return c.rhs.Assign(asg, row, s.VType, s.Rhs) })
	w.do(func(asg *plonk.Assignment, row int) error {
		return c.eq.Assign(asg, row, core.Sub(core.NewElement(s.Lhs), core.NewElement(s.Rhs)))
	})
	w.do(func(asg *plonk.Assignment, row int) error { return c.diff.Assign(asg, row, diff) })
	w.uint(c.lt, boolUint(lt))
	w.uint(c.res, s.Result)
	return w.err
}
