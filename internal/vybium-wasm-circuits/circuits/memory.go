package circuits

import (
	"fmt"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

// MemoryConfig is the global memory table.
//
// Rows are sorted by (ltype, mmid, offset, eid, emid). The order is never
// computed in-circuit: chained row-diff gadgets prove that every key
// difference is non-negative given all higher-priority keys are unchanged.
// Every key field is checked against the common range, so a difference in
// that range between two in-range keys can only be an increase.
type MemoryConfig struct {
	enable plonk.Column

	ltype  *RowDiffConfig
	mmid   *RowDiffConfig
	offset *RowDiffConfig
	eid    *RowDiffConfig
	emid   *RowDiffConfig

	isRead  plonk.Column
	isWrite plonk.Column
	isInit  plonk.Column
	vtype   plonk.Column
	value   *Value64Config

	sameLocation plonk.Column
	restMops     plonk.Column

	target plonk.Expression
}

// ConfigureMemory declares the memory table and all of its constraints
func ConfigureMemory(cs *plonk.ConstraintSystem, rng *RangeConfig, init *InitMemoryConfig) *MemoryConfig {
	m := &MemoryConfig{enable: cs.AdviceColumn("memory enable")}
	enable := m.enable.Cur()

	m.ltype = ConfigureRowDiff(cs, "memory ltype", enable)
	m.mmid = ConfigureRowDiff(cs, "memory mmid", enable)
	m.offset = ConfigureRowDiff(cs, "memory offset", enable)
	m.eid = ConfigureRowDiff(cs, "memory eid", enable)
	m.emid = ConfigureRowDiff(cs, "memory emid", enable)

	m.isRead = cs.AdviceColumn("memory is read")
	m.isWrite = cs.AdviceColumn("memory is write")
	m.isInit = cs.AdviceColumn("memory is init")
	m.vtype = cs.AdviceColumn("memory vtype")
	m.value = ConfigureValue64(cs, "memory value", enable, rng)

	m.sameLocation = cs.AdviceColumn("memory same location")
	m.restMops = cs.AdviceColumn("memory rest mops")
	cs.EnableEquality(m.restMops)

	isRead, isWrite, isInit := m.isRead.Cur(), m.isWrite.Cur(), m.isInit.Cur()
	ltype := m.ltype.Data()
	sameLocation := m.sameLocation.Cur()

	cs.CreateGate("memory enable",
		plonk.Bool(enable),
		plonk.Mul(plonk.Not(enable), m.enable.Next()),
	)

	cs.CreateGate("memory access type",
		plonk.Bool(isRead),
		plonk.Bool(isWrite),
		plonk.Bool(isInit),
		plonk.Sub(plonk.Add(isRead, isWrite, isInit), enable),
		plonk.Mul(enable, plonk.Bool(ltype)),
	)

	cs.CreateGate("memory same location",
		plonk.Mul(enable, plonk.Sub(sameLocation,
			plonk.Mul(m.enable.Prev(), m.ltype.Same(), m.mmid.Same(), m.offset.Same()))),
		plonk.Mul(plonk.Not(enable), sameLocation),
	)

	// Lexicographic order
	rng.LookupCommon(cs, "memory sort ltype", plonk.Mul(enable, m.ltype.Diff()))
	rng.LookupCommon(cs, "memory sort mmid", plonk.Mul(enable, m.ltype.Same(), m.mmid.Diff()))
	rng.LookupCommon(cs, "memory sort offset", plonk.Mul(enable, m.ltype.Same(), m.mmid.Same(), m.offset.Diff()))
	rng.LookupCommon(cs, "memory sort eid", plonk.Mul(enable, sameLocation, m.eid.Diff()))
	rng.LookupCommon(cs, "memory sort emid", plonk.Mul(enable, sameLocation, m.eid.Same(), m.emid.Diff()))

	for _, key := range []*RowDiffConfig{m.mmid, m.offset, m.eid, m.emid} {
		rng.LookupCommon(cs, cs.ColumnName(key.data)+" range", plonk.Mul(enable, key.Data()))
	}
	rng.LookupCommon(cs, "memory vtype range", plonk.Mul(enable, m.vtype.Cur()))
	rng.LookupSized(cs, "memory vtype known", plonk.Mul(enable,
		plonk.Add(plonk.Uint(7<<specs.SizedPosShift), plonk.Shl(m.vtype.Cur(), specs.SizedVTypeShift))))

	cs.CreateGate("memory unique key",
		plonk.Mul(enable, sameLocation, m.eid.Same(), m.emid.Same()),
	)

	cs.CreateGate("memory read continuity",
		plonk.Mul(sameLocation, isRead, plonk.Sub(m.value.Value(), m.value.value.Prev())),
		plonk.Mul(sameLocation, isRead, plonk.Sub(m.vtype.Cur(), m.vtype.Prev())),
	)

	cs.CreateGate("memory init placement",
		plonk.Mul(sameLocation, isInit),
		plonk.Mul(ltype, isInit),
	)

	cs.CreateGate("memory stack first touch",
		plonk.Mul(enable, plonk.Not(sameLocation), ltype, plonk.Not(isWrite)),
	)

	init.Lookup(cs, "memory heap first touch", plonk.Mul(enable, plonk.Not(sameLocation), plonk.Not(ltype),
		encodeInit(m.mmid.Data(), m.offset.Data(), m.value.Value())))

	cs.CreateGate("memory rest mops",
		plonk.Mul(enable, plonk.Sub(m.restMops.Cur(), plonk.Add(m.restMops.Next(), isRead, isWrite))),
		plonk.Mul(plonk.Not(enable), m.restMops.Cur()),
	)

	atype := plonk.Add(isRead, plonk.Shl(isWrite, 1), plonk.Mul(plonk.Uint(uint64(specs.Init)), isInit))
	m.target = plonk.Mul(enable, memoryExpr{
		eid:    m.eid.Data(),
		emid:   m.emid.Data(),
		mmid:   m.mmid.Data(),
		offset: m.offset.Data(),
		ltype:  ltype,
		atype:  atype,
		vtype:  m.vtype.Cur(),
		value:  m.value.Value(),
	}.encode())

	return m
}

// Lookup constrains an encoded memory access expression to the rows of the
// memory table
func (m *MemoryConfig) Lookup(cs *plonk.ConstraintSystem, name string, input plonk.Expression) {
	cs.LookupAny(name, input, m.target)
}

// Assign writes the sorted memory rows and ties the row-0 rest_mops cell to
// the event table's
func (m *MemoryConfig) Assign(asg *plonk.Assignment, entries []specs.MemoryTableEntry, eventRestMops plonk.Cell) error {
	if len(entries) > asg.Rows() {
		return fmt.Errorf("%d memory rows exceed %d rows", len(entries), asg.Rows())
	}

	keys := [5][]uint64{}
	for i := range keys {
		keys[i] = make([]uint64, len(entries))
	}
	for row, e := range entries {
		keys[0][row] = uint64(e.LType)
		keys[1][row] = uint64(e.Mmid)
		keys[2][row] = uint64(e.Offset)
		keys[3][row] = e.Eid
		keys[4][row] = uint64(e.Emid)
	}
	for i, rd := range []*RowDiffConfig{m.ltype, m.mmid, m.offset, m.eid, m.emid} {
		if err := rd.Assign(asg, keys[i]); err != nil {
			return err
		}
	}

	rest := specs.CountMops(entries)
	restCell, err := asg.AssignAdviceUint(m.restMops, 0, rest)
	if err != nil {
		return err
	}

	for row, e := range entries {
		w := &rowWriter{asg: asg, row: row}
		w.uint(m.enable, 1)
		w.uint(m.isRead, boolUint(e.AType == specs.Read))
		w.uint(m.isWrite, boolUint(e.AType == specs.Write))
		w.uint(m.isInit, boolUint(e.AType == specs.Init))
		w.uint(m.vtype, uint64(e.VType))
		w.uint(m.sameLocation, boolUint(row > 0 && entries[row-1].SameLocation(e)))
		w.uint(m.restMops, rest)
		if w.err != nil {
			return w.err
		}
		if err := m.value.Assign(asg, row, e.Value); err != nil {
			return err
		}
		if e.AType != specs.Init {
			rest--
		}
	}

	return asg.Constrain(eventRestMops, restCell)
}
