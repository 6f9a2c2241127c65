package circuits

import (
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/core"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

// returnConfig leaves the current function. When a value is kept it is read
// from the top of stack and written drop slots further down.
//
// The step after a return resumes the caller: its last_jump_eid, function
// and instruction are looked up in the jump row of the call being returned
// from, which is the row keyed by the returning step's last_jump_eid.
//
// A return with last_jump_eid 0 leaves the entry function and ends the trace.
type returnConfig struct {
	drop      plonk.Column
	isKeep    plonk.Column
	keep      *TValueConfig
	fromEntry *IsZeroConfig
}

func configureReturn(ctx *eventContext) *returnConfig {
	c := &returnConfig{
		drop:   ctx.cs.AdviceColumn("return drop"),
		isKeep: ctx.cs.AdviceColumn("return is keep"),
	}
	keep := plonk.Mul(ctx.sel, c.isKeep.Cur())
	c.keep = ConfigureTValue(ctx.cs, "return keep", keep, ctx.rng)

	ctx.rng.LookupCommon(ctx.cs, "return drop range", plonk.Mul(ctx.sel, c.drop.Cur()))
	ctx.cs.CreateGate("return keep",
		plonk.Mul(ctx.sel, plonk.Bool(c.isKeep.Cur())),
		plonk.Mul(ctx.sel, plonk.Not(c.isKeep.Cur()), c.keep.VType()),
	)

	ctx.lookupMemory("stack read", keep, specs.Stack, specs.Read,
		ctx.stackAt(plonk.One()), 1, c.keep.VType(), c.keep.Value())
	ctx.lookupMemory("stack write", keep, specs.Stack, specs.Write,
		ctx.stackAt(plonk.Add(plonk.One(), c.drop.Cur())), 2, c.keep.VType(), c.keep.Value())

	ev := ctx.event
	c.fromEntry = ConfigureIsZero(ctx.cs, "return last jump eid", ctx.sel, ev.lastJumpEid.Cur())
	ctx.cs.CreateGate("return from entry halts", plonk.Mul(ctx.nextEnabled(), c.fromEntry.IsZero()))

	ctx.rng.LookupCommon(ctx.cs, "return continuation iid range",
		plonk.Mul(ctx.nextEnabled(), plonk.Sub(ev.iid.Next(), plonk.One())))
	ctx.jump.Lookup(ctx.cs, ctx.name("continuation"), plonk.Mul(ctx.nextEnabled(), jumpExpr{
		eid:         ev.lastJumpEid.Cur(),
		lastJumpEid: ev.lastJumpEid.Next(),
		moid:        ev.moid.Next(),
		fid:         ev.fid.Next(),
		bid:         ev.bid.Next(),
		iid:         plonk.Sub(ev.iid.Next(), plonk.One()),
	}.encode()))
	return c
}

func (c *returnConfig) exprs() classExprs {
	return classExprs{
		opcode:  opcodeExpr(specs.ClassReturn, c.drop.Cur(), c.keep.VType()),
		spDelta: plonk.Neg(c.drop.Cur()),
		mops:    plonk.Shl(c.isKeep.Cur(), 1),
	}
}

func (c *returnConfig) assign(asg *plonk.Assignment, row int, ev specs.EventEntry) error {
	s := stepAs[specs.ReturnStep](ev)
	w := &rowWriter{asg: asg, row: row}
	w.uint(c.drop, uint64(s.Drop))
	w.uint(c.isKeep, boolUint(s.KeepType != 0))
	w.do(func(asg *plonk.Assignment, row int) error {
		return c.fromEntry.Assign(asg, row, core.NewElement(ev.LastJumpEid))
	})
	if w.err != nil {
		return w.err
	}
	if s.KeepType == 0 {
		return nil
	}
	return c.keep.Assign(asg, row, s.KeepType, s.KeepValue)
}

// brIfNezConfig pops an i32 condition and continues at dst when it is
// nonzero, at the following instruction otherwise
type brIfNezConfig struct {
	dst    plonk.Column
	cond   *TValueConfig
	isZero *IsZeroConfig
}

func configureBrIfNez(ctx *eventContext) *brIfNezConfig {
	c := &brIfNezConfig{
		dst:  ctx.cs.AdviceColumn("br_if_nez dst"),
		cond: ConfigureTValue(ctx.cs, "br_if_nez cond", ctx.sel, ctx.rng),
	}
	c.isZero = ConfigureIsZero(ctx.cs, "br_if_nez cond", ctx.sel, c.cond.Value())

	ev := ctx.event
	iz := c.isZero.IsZero()
	ctx.rng.LookupCommon(ctx.cs, "br_if_nez dst range", plonk.Mul(ctx.sel, c.dst.Cur()))
	ctx.cs.CreateGate("br_if_nez",
		plonk.Mul(ctx.sel, plonk.Sub(c.cond.VType(), plonk.Uint(uint64(specs.I32)))),
		plonk.Mul(ctx.nextEnabled(), plonk.Sub(ev.iid.Next(), plonk.Add(
			plonk.Mul(plonk.Not(iz), c.dst.Cur()),
			plonk.Mul(iz, plonk.Add(ev.iid.Cur(), plonk.One())),
		))),
	)

	ctx.lookupMemory("stack read", ctx.sel, specs.Stack, specs.Read,
		ctx.stackAt(plonk.One()), 1, c.cond.VType(), c.cond.Value())
	return c
}

func (c *brIfNezConfig) exprs() classExprs {
	return classExprs{
		opcode:  opcodeExpr(specs.ClassBrIfNez, plonk.Zero(), c.dst.Cur()),
		spDelta: plonk.Int(-1),
		mops:    plonk.One(),
	}
}

func (c *brIfNezConfig) assign(asg *plonk.Assignment, row int, ev specs.EventEntry) error {
	s := stepAs[specs.BrIfNezStep](ev)
	w := &rowWriter{asg: asg, row: row}
	w.uint(c.dst, uint64(s.Dst))
	w.do(func(asg *plonk.Assignment, row int) error { return c.cond.Assign(asg, row, specs.I32, s.Condition) })
	w.do(func(asg *plonk.Assignment, row int) error { return c.isZero.Assign(asg, row, core.NewElement(s.Condition)) })
	return w.err
}

// callConfig enters function callee at its first instruction and records
// the transfer in the jump table
type callConfig struct {
	callee plonk.Column
}

func configureCall(ctx *eventContext) *callConfig {
	c := &callConfig{callee: ctx.cs.AdviceColumn("call callee")}

	ev := ctx.event
	ctx.rng.LookupCommon(ctx.cs, "call callee range", plonk.Mul(ctx.sel, c.callee.Cur()))
	ctx.cs.CreateGate("call target",
		plonk.Mul(ctx.nextEnabled(), plonk.Sub(ev.fid.Next(), c.callee.Cur())),
		plonk.Mul(ctx.nextEnabled(), ev.iid.Next()),
	)

	jump := plonk.Mul(ctx.sel, jumpExpr{
		eid:         ev.eid.Cur(),
		lastJumpEid: ev.lastJumpEid.Cur(),
		moid:        ev.moid.Cur(),
		fid:         ev.fid.Cur(),
		bid:         ev.bid.Cur(),
		iid:         ev.iid.Cur(),
	}.encode())
	ctx.jump.Lookup(ctx.cs, ctx.name("jump"), jump)
	ctx.jump.RequireIssuer(ctx.cs, "jump issued by call", jump)
	return c
}

func (c *callConfig) exprs() classExprs {
	return classExprs{
		opcode:  opcodeExpr(specs.ClassCall, plonk.Zero(), c.callee.Cur()),
		spDelta: plonk.Zero(),
		mops:    plonk.Zero(),
	}
}

func (c *callConfig) assign(asg *plonk.Assignment, row int, ev specs.EventEntry) error {
	s := stepAs[specs.CallStep](ev)
	_, err := asg.AssignAdviceUint(c.callee, row, uint64(s.Callee))
	return err
}
