package circuits

import (
	"fmt"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

// EventConfig is the step table: one row per executed step, dispatching to
// exactly one opcode class per enabled row.
//
// The class set is closed. Every class owns its private columns and hands
// back three expressions (packed opcode, stack pointer delta, memory
// operation count) which the event table sums under the class selectors.
type EventConfig struct {
	enable      plonk.Column
	eid         plonk.Column
	moid        plonk.Column
	fid         plonk.Column
	bid         plonk.Column
	iid         plonk.Column
	mmid        plonk.Column
	sp          plonk.Column
	lastJumpEid plonk.Column
	opcode      plonk.Column
	restMops    plonk.Column

	selectors map[specs.OpcodeClass]plonk.Column

	constOp      *constConfig
	dropOp       *dropConfig
	localGetOp   *localGetConfig
	returnOp     *returnConfig
	brIfNezOp    *brIfNezConfig
	callOp       *callConfig
	binOp        *binOpConfig
	comparisonOp *comparisonConfig
	loadOp       *loadConfig
	storeOp      *storeConfig
}

// classExprs are the artifacts every opcode class contributes to the shared
// event gates. Each is read only where the class selector is set.
type classExprs struct {
	opcode  plonk.Expression
	spDelta plonk.Expression
	mops    plonk.Expression
}

// eventContext is what an opcode class sees while it configures itself
type eventContext struct {
	cs     *plonk.ConstraintSystem
	rng    *RangeConfig
	memory *MemoryConfig
	jump   *JumpConfig
	event  *EventConfig
	class  specs.OpcodeClass
	sel    plonk.Expression
}

func (c *eventContext) name(s string) string {
	return fmt.Sprintf("%s %s", c.class, s)
}

// nextEnabled is sel gated by the presence of a following step
func (c *eventContext) nextEnabled() plonk.Expression {
	return plonk.Mul(c.sel, c.event.enable.Next())
}

// stackAt is the stack slot depth below the current stack pointer
func (c *eventContext) stackAt(depth plonk.Expression) plonk.Expression {
	return plonk.Sub(c.event.sp.Cur(), depth)
}

// lookupMemory registers a memory access of this step, active where gate is 1
func (c *eventContext) lookupMemory(name string, gate plonk.Expression, ltype specs.LocationType, atype specs.AccessType,
	offset plonk.Expression, emid uint16, vtype, value plonk.Expression) {
	c.rng.LookupCommon(c.cs, c.name(name+" offset range"), plonk.Mul(gate, offset))
	c.memory.Lookup(c.cs, c.name(name), plonk.Mul(gate, memoryExpr{
		eid:    c.event.eid.Cur(),
		emid:   plonk.Uint(uint64(emid)),
		mmid:   c.event.mmid.Cur(),
		offset: offset,
		ltype:  plonk.Uint(uint64(ltype)),
		atype:  plonk.Uint(uint64(atype)),
		vtype:  vtype,
		value:  value,
	}.encode()))
}

// ConfigureEvent declares the event table, every opcode class and the
// lookups into the instruction, memory and jump tables
func ConfigureEvent(cs *plonk.ConstraintSystem, rng *RangeConfig, instruction *InstructionConfig,
	memory *MemoryConfig, jump *JumpConfig) *EventConfig {
	e := &EventConfig{
		enable:      cs.AdviceColumn("event enable"),
		eid:         cs.AdviceColumn("event eid"),
		moid:        cs.AdviceColumn("event moid"),
		fid:         cs.AdviceColumn("event fid"),
		bid:         cs.AdviceColumn("event bid"),
		iid:         cs.AdviceColumn("event iid"),
		mmid:        cs.AdviceColumn("event mmid"),
		sp:          cs.AdviceColumn("event sp"),
		lastJumpEid: cs.AdviceColumn("event last jump eid"),
		opcode:      cs.AdviceColumn("event opcode"),
		restMops:    cs.AdviceColumn("event rest mops"),
		selectors:   make(map[specs.OpcodeClass]plonk.Column, len(specs.OpcodeClasses)),
	}
	cs.EnableEquality(e.restMops)

	for _, class := range specs.OpcodeClasses {
		e.selectors[class] = cs.AdviceColumn(fmt.Sprintf("event sel %s", class))
	}

	var (
		enable = e.enable.Cur()
		next   = e.enable.Next()

		sels, opcodes, spDeltas, mops []plonk.Expression
		sequential, keepsJump         []plonk.Expression
	)

	for _, class := range specs.OpcodeClasses {
		sel := e.selectors[class].Cur()
		ctx := &eventContext{cs: cs, rng: rng, memory: memory, jump: jump, event: e, class: class, sel: sel}

		var exprs classExprs
		switch class {
		case specs.ClassConst:
			e.constOp = configureConst(ctx)
			exprs = e.constOp.exprs()
		case specs.ClassDrop:
			e.dropOp = configureDrop(ctx)
			exprs = e.dropOp.exprs()
		case specs.ClassLocalGet:
			e.localGetOp = configureLocalGet(ctx)
			exprs = e.localGetOp.exprs()
		case specs.ClassReturn:
			e.returnOp = configureReturn(ctx)
			exprs = e.returnOp.exprs()
		case specs.ClassBrIfNez:
			e.brIfNezOp = configureBrIfNez(ctx)
			exprs = e.brIfNezOp.exprs()
		case specs.ClassCall:
			e.callOp = configureCall(ctx)
			exprs = e.callOp.exprs()
		case specs.ClassBinOp:
			e.binOp = configureBinOp(ctx)
			exprs = e.binOp.exprs()
		case specs.ClassComparison:
			e.comparisonOp = configureComparison(ctx)
			exprs = e.comparisonOp.exprs()
		case specs.ClassLoad:
			e.loadOp = configureLoad(ctx)
			exprs = e.loadOp.exprs()
		case specs.ClassStore:
			e.storeOp = configureStore(ctx)
			exprs = e.storeOp.exprs()
		default:
			panic(fmt.Sprintf("circuits: no configuration for %s", class))
		}

		sels = append(sels, sel)
		opcodes = append(opcodes, plonk.Mul(sel, exprs.opcode))
		spDeltas = append(spDeltas, plonk.Mul(sel, exprs.spDelta))
		mops = append(mops, plonk.Mul(sel, exprs.mops))

		switch class {
		case specs.ClassCall, specs.ClassReturn:
		case specs.ClassBrIfNez:
			keepsJump = append(keepsJump, sel)
		default:
			keepsJump = append(keepsJump, sel)
			sequential = append(sequential, sel)
		}

		cs.CreateGate(fmt.Sprintf("event sel %s boolean", class), plonk.Bool(sel))
	}

	cs.CreateGate("event enable",
		plonk.Bool(enable),
		plonk.Mul(plonk.Not(enable), next),
	)

	cs.CreateGate("event dispatch",
		plonk.Sub(plonk.Add(sels...), enable),
		plonk.Sub(e.opcode.Cur(), plonk.Add(opcodes...)),
	)

	cs.CreateGate("event eid",
		plonk.Mul(enable, plonk.Sub(e.eid.Cur(), plonk.Add(e.eid.Prev(), plonk.One()))),
	)

	cs.CreateGate("event sp",
		plonk.Mul(next, plonk.Sub(e.sp.Next(), plonk.Add(e.sp.Cur(), plonk.Add(spDeltas...)))),
	)

	cs.CreateGate("event rest mops",
		plonk.Mul(enable, plonk.Sub(e.restMops.Cur(), plonk.Add(e.restMops.Next(), plonk.Add(mops...)))),
		plonk.Mul(plonk.Not(enable), e.restMops.Cur()),
	)

	cs.CreateGate("event last jump eid",
		plonk.Mul(next, plonk.Add(keepsJump...), plonk.Sub(e.lastJumpEid.Next(), e.lastJumpEid.Cur())),
		plonk.Mul(next, e.selectors[specs.ClassCall].Cur(), plonk.Sub(e.lastJumpEid.Next(), e.eid.Cur())),
		plonk.Mul(enable, plonk.Not(e.enable.Prev()), e.lastJumpEid.Cur()),
	)

	sameFunction := append([]plonk.Expression{e.selectors[specs.ClassBrIfNez].Cur()}, sequential...)
	cs.CreateGate("event sequential flow",
		plonk.Mul(next, plonk.Add(sequential...), plonk.Sub(e.iid.Next(), plonk.Add(e.iid.Cur(), plonk.One()))),
		plonk.Mul(next, plonk.Add(sameFunction...), plonk.Sub(e.fid.Next(), e.fid.Cur())),
	)

	instruction.Lookup(cs, "event instruction", plonk.Mul(enable, instructionExpr{
		moid:   e.moid.Cur(),
		mmid:   e.mmid.Cur(),
		fid:    e.fid.Cur(),
		bid:    e.bid.Cur(),
		iid:    e.iid.Cur(),
		opcode: e.opcode.Cur(),
	}.encode()))

	// Packed lookups only identify rows when every field fits its slot.
	// eid needs no check: it counts up from 1.
	for _, col := range []plonk.Column{e.moid, e.fid, e.bid, e.iid, e.mmid, e.sp, e.lastJumpEid} {
		rng.LookupCommon(cs, cs.ColumnName(col)+" range", plonk.Mul(enable, col.Cur()))
	}

	return e
}

// Assign writes one row per event and returns the row-0 rest_mops cell,
// which carries the total number of memory operations the trace declares
func (e *EventConfig) Assign(asg *plonk.Assignment, events []specs.EventEntry) (plonk.Cell, error) {
	if len(events) > asg.Rows() {
		return plonk.Cell{}, fmt.Errorf("%d events exceed %d rows", len(events), asg.Rows())
	}

	var rest uint64
	for _, ev := range events {
		rest += specs.Mops(ev.Step)
	}
	restCell, err := asg.AssignAdviceUint(e.restMops, 0, rest)
	if err != nil {
		return plonk.Cell{}, err
	}

	for row, ev := range events {
		class := ev.Step.Class()
		if class != ev.Instruction.Opcode.Class {
			panic(fmt.Sprintf("circuits: event %d carries %s step for %s instruction", ev.Eid, class, ev.Instruction.Opcode.Class))
		}

		w := &rowWriter{asg: asg, row: row}
		w.uint(e.enable, 1)
		w.uint(e.eid, ev.Eid)
		w.uint(e.moid, uint64(ev.Instruction.Moid))
		w.uint(e.fid, uint64(ev.Instruction.Fid))
		w.uint(e.bid, uint64(ev.Instruction.Bid))
		w.uint(e.iid, uint64(ev.Instruction.Iid))
		w.uint(e.mmid, uint64(ev.Instruction.Mmid))
		w.uint(e.sp, ev.Sp)
		w.uint(e.lastJumpEid, ev.LastJumpEid)
		w.uint(e.opcode, ev.Instruction.Opcode.Encode())
		w.uint(e.restMops, rest)
		for _, c := range specs.OpcodeClasses {
			w.uint(e.selectors[c], boolUint(c == class))
		}

		switch class {
		case specs.ClassConst:
			w.do(func(asg *plonk.Assignment, row int) error { return e.constOp.assign(asg, row, ev) })
		case specs.ClassDrop:
		case specs.ClassLocalGet:
			w.do(func(asg *plonk.Assignment, row int) error { return e.localGetOp.assign(asg, row, ev) })
		case specs.ClassReturn:
			w.do(func(asg *plonk.Assignment, row int) error { return e.returnOp.assign(asg, row, ev) })
		case specs.ClassBrIfNez:
			w.do(func(asg *plonk.Assignment, row int) error { return e.brIfNezOp.assign(asg, row, ev) })
		case specs.ClassCall:
			w.do(func(asg *plonk.Assignment, row int) error { return e.callOp.assign(asg, row, ev) })
		case specs.ClassBinOp:
			w.do(func(asg *plonk.Assignment, row int) error { return e.binOp.assign(asg, row, ev) })
		case specs.ClassComparison:
			w.do(func(asg *plonk.Assignment, row int) error { return e.comparisonOp.assign(asg, row, ev) })
		case specs.ClassLoad:
			w.do(func(asg *plonk.Assignment, row int) error { return e.loadOp.assign(asg, row, ev) })
		case specs.ClassStore:
			w.do(func(asg *plonk.Assignment, row int) error { return e.storeOp.assign(asg, row, ev) })
		default:
			panic(fmt.Sprintf("circuits: event %d has unknown class %s", ev.Eid, class))
		}
		if w.err != nil {
			return plonk.Cell{}, fmt.Errorf("event %d: %w", ev.Eid, w.err)
		}

		rest -= specs.Mops(ev.Step)
	}

	return restCell, nil
}

// stepAs extracts the step detail an opcode class expects. A mismatch is a
// programming error in the dispatch, not a property of the trace.
func stepAs[T specs.StepInfo](ev specs.EventEntry) T {
	s, ok := ev.Step.(T)
	if !ok {
		var want T
		panic(fmt.Sprintf("circuits: event %d: %T assigned where %T expected", ev.Eid, ev.Step, want))
	}
	return s
}
