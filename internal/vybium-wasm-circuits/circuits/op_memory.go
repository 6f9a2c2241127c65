package circuits

import (
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

// heapAccess holds the columns shared by loads and stores: the static
// offset, the i32 address popped from the stack and the value moved
type heapAccess struct {
	offset plonk.Column
	addr   *TValueConfig
	value  *TValueConfig
}

func configureHeapAccess(ctx *eventContext) heapAccess {
	h := heapAccess{
		offset: ctx.cs.AdviceColumn(ctx.name("offset")),
		addr:   ConfigureTValue(ctx.cs, ctx.name("addr"), ctx.sel, ctx.rng),
		value:  ConfigureTValue(ctx.cs, ctx.name("value"), ctx.sel, ctx.rng),
	}
	ctx.rng.LookupCommon(ctx.cs, ctx.name("offset range"), plonk.Mul(ctx.sel, h.offset.Cur()))
	ctx.cs.CreateGate(ctx.name("address type"),
		plonk.Mul(ctx.sel, plonk.Sub(h.addr.VType(), plonk.Uint(uint64(specs.I32)))),
	)
	return h
}

// effectiveAddress is addr + offset, the heap cell accessed
func (h heapAccess) effectiveAddress() plonk.Expression {
	return plonk.Add(h.addr.Value(), h.offset.Cur())
}

func (h heapAccess) opcode(class specs.OpcodeClass) plonk.Expression {
	return opcodeExpr(class, h.value.VType(), h.offset.Cur())
}

func (h heapAccess) assign(asg *plonk.Assignment, row int, offset uint16, addr uint32, vtype specs.VarType, value uint64) error {
	if _, err := asg.AssignAdviceUint(h.offset, row, uint64(offset)); err != nil {
		return err
	}
	if err := h.addr.Assign(asg, row, specs.I32, uint64(addr)); err != nil {
		return err
	}
	return h.value.Assign(asg, row, vtype, value)
}

// loadConfig replaces the address on top of stack with the heap value at
// address + offset
type loadConfig struct {
	heapAccess
}

func configureLoad(ctx *eventContext) *loadConfig {
	c := &loadConfig{heapAccess: configureHeapAccess(ctx)}
	sel := ctx.sel

	ctx.lookupMemory("addr read", sel, specs.Stack, specs.Read, ctx.stackAt(plonk.One()), 1, c.addr.VType(), c.addr.Value())
	ctx.lookupMemory("heap read", sel, specs.Heap, specs.Read, c.effectiveAddress(), 1, c.value.VType(), c.value.Value())
	ctx.lookupMemory("value write", sel, specs.Stack, specs.Write, ctx.stackAt(plonk.One()), 2, c.value.VType(), c.value.Value())
	return c
}

func (c *loadConfig) exprs() classExprs {
	return classExprs{
		opcode:  c.opcode(specs.ClassLoad),
		spDelta: plonk.Zero(),
		mops:    plonk.Uint(3),
	}
}

func (c *loadConfig) assign(asg *plonk.Assignment, row int, ev specs.EventEntry) error {
	s := stepAs[specs.LoadStep](ev)
	return c.heapAccess.assign(asg, row, s.Offset, s.Addr, s.VType, s.Value)
}

// storeConfig pops a value and an address and writes the value to the heap
// cell at address + offset
type storeConfig struct {
	heapAccess
}

func configureStore(ctx *eventContext) *storeConfig {
	c := &storeConfig{heapAccess: configureHeapAccess(ctx)}
	sel := ctx.sel

	ctx.lookupMemory("value read", sel, specs.Stack, specs.Read, ctx.stackAt(plonk.One()), 1, c.value.VType(), c.value.Value())
	ctx.lookupMemory("addr read", sel, specs.Stack, specs.Read, ctx.stackAt(plonk.Uint(2)), 1, c.addr.VType(), c.addr.Value())
	ctx.lookupMemory("heap write", sel, specs.Heap, specs.Write, c.effectiveAddress(), 1, c.value.VType(), c.value.Value())
	return c
}

func (c *storeConfig) exprs() classExprs {
	return classExprs{
		opcode:  c.opcode(specs.ClassStore),
		spDelta: plonk.Int(-2),
		mops:    plonk.Uint(3),
	}
}

func (c *storeConfig) assign(asg *plonk.Assignment, row int, ev specs.EventEntry) error {
	s := stepAs[specs.StoreStep](ev)
	return c.heapAccess.assign(asg, row, s.Offset, s.Addr, s.VType, s.Value)
}
