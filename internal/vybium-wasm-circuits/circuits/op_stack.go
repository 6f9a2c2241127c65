package circuits

import (
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

// constConfig pushes the 32-bit immediate of the instruction
type constConfig struct {
	value *TValueConfig
}

func configureConst(ctx *eventContext) *constConfig {
	c := &constConfig{value: ConfigureTValue(ctx.cs, "const value", ctx.sel, ctx.rng)}

	// The immediate occupies the 32-bit operand slot of the opcode
	highBytes := make([]plonk.Expression, 0, 4)
	for i := 4; i < 8; i++ {
		highBytes = append(highBytes, plonk.Mul(ctx.sel, c.value.bytes[i].Cur()))
	}
	ctx.cs.CreateGate("const immediate width", highBytes...)

	ctx.lookupMemory("stack write", ctx.sel, specs.Stack, specs.Write,
		ctx.stackAt(plonk.Zero()), 1, c.value.VType(), c.value.Value())
	return c
}

func (c *constConfig) exprs() classExprs {
	return classExprs{
		opcode:  opcodeExpr(specs.ClassConst, c.value.VType(), c.value.Value()),
		spDelta: plonk.One(),
		mops:    plonk.One(),
	}
}

func (c *constConfig) assign(asg *plonk.Assignment, row int, ev specs.EventEntry) error {
	s := stepAs[specs.ConstStep](ev)
	return c.value.Assign(asg, row, s.VType, s.Value)
}

// dropConfig discards the top of stack without touching memory
type dropConfig struct{}

func configureDrop(*eventContext) *dropConfig {
	return &dropConfig{}
}

func (*dropConfig) exprs() classExprs {
	return classExprs{
		opcode:  opcodeExpr(specs.ClassDrop, plonk.Zero(), plonk.Zero()),
		spDelta: plonk.Int(-1),
		mops:    plonk.Zero(),
	}
}

// localGetConfig copies the slot depth below the stack pointer to the top
type localGetConfig struct {
	depth plonk.Column
	value *TValueConfig
}

func configureLocalGet(ctx *eventContext) *localGetConfig {
	c := &localGetConfig{
		depth: ctx.cs.AdviceColumn("local.get depth"),
		value: ConfigureTValue(ctx.cs, "local.get value", ctx.sel, ctx.rng),
	}
	ctx.rng.LookupCommon(ctx.cs, "local.get depth range", plonk.Mul(ctx.sel, c.depth.Cur()))

	ctx.lookupMemory("stack read", ctx.sel, specs.Stack, specs.Read,
		ctx.stackAt(c.depth.Cur()), 1, c.value.VType(), c.value.Value())
	ctx.lookupMemory("stack write", ctx.sel, specs.Stack, specs.Write,
		ctx.stackAt(plonk.Zero()), 1, c.value.VType(), c.value.Value())
	return c
}

func (c *localGetConfig) exprs() classExprs {
	return classExprs{
		opcode:  opcodeExpr(specs.ClassLocalGet, c.value.VType(), c.depth.Cur()),
		spDelta: plonk.One(),
		mops:    plonk.Uint(2),
	}
}

func (c *localGetConfig) assign(asg *plonk.Assignment, row int, ev specs.EventEntry) error {
	s := stepAs[specs.LocalGetStep](ev)
	if _, err := asg.AssignAdviceUint(c.depth, row, uint64(s.Depth)); err != nil {
		return err
	}
	return c.value.Assign(asg, row, s.VType, s.Value)
}
