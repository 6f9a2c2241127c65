package specs

import (
	"fmt"
	"math"
	"sort"
)

// StackDelta returns sp(next) - sp(cur) for a step
func StackDelta(step StepInfo) int64 {
	switch s := step.(type) {
	case ConstStep, LocalGetStep:
		return 1
	case DropStep, BrIfNezStep, BinOpStep, ComparisonStep:
		return -1
	case ReturnStep:
		return -int64(s.Drop)
	case CallStep, LoadStep:
		return 0
	case StoreStep:
		return -2
	default:
		panic(fmt.Sprintf("specs: unknown step %T", step))
	}
}

// Mops returns the number of non-init memory operations a step performs
func Mops(step StepInfo) uint64 {
	switch s := step.(type) {
	case DropStep, CallStep:
		return 0
	case ConstStep, BrIfNezStep:
		return 1
	case LocalGetStep:
		return 2
	case ReturnStep:
		if s.KeepType != 0 {
			return 2
		}
		return 0
	case BinOpStep, ComparisonStep, LoadStep, StoreStep:
		return 3
	default:
		panic(fmt.Sprintf("specs: unknown step %T", step))
	}
}

// stepMemory builds the memory rows of one event. Stack slots are addressed
// relative to the stack pointer before the step; sp itself is the first free
// slot, so the top of stack lives at sp-1.
type stepMemory struct {
	event EventEntry
	ops   []MemoryTableEntry
	err   error
}

func (m *stepMemory) access(ltype LocationType, atype AccessType, offset int64, emid uint16, vtype VarType, value uint64) {
	if m.err != nil {
		return
	}
	if offset < 0 || offset > math.MaxUint16 {
		m.err = fmt.Errorf("%s %s at %d: %w", ltype, atype, offset, ErrOffsetOverflow)
		return
	}
	m.ops = append(m.ops, MemoryTableEntry{
		Eid:    m.event.Eid,
		Emid:   emid,
		Mmid:   m.event.Instruction.Mmid,
		Offset: uint16(offset),
		LType:  ltype,
		AType:  atype,
		VType:  vtype,
		Value:  value,
	})
}

func (m *stepMemory) stackRead(depth int64, emid uint16, vtype VarType, value uint64) {
	m.access(Stack, Read, int64(m.event.Sp)-depth, emid, vtype, value)
}

func (m *stepMemory) stackWrite(depth int64, emid uint16, vtype VarType, value uint64) {
	m.access(Stack, Write, int64(m.event.Sp)-depth, emid, vtype, value)
}

// MemoryOps expands an event into the memory rows it performs.
//
//	Const       W sp
//	LocalGet    R sp-depth, W sp
//	Return      R sp-1, W sp-1-drop (only when a value is kept)
//	BrIfNez     R sp-1
//	BinOp       R sp-1 (rhs), R sp-2 (lhs), W sp-2 (result, emid 2)
//	Comparison  R sp-1 (rhs), R sp-2 (lhs), W sp-2 (i32 result, emid 2)
//	Load        R sp-1 (address), heap R addr+offset, W sp-1 (emid 2)
//	Store       R sp-1 (value), R sp-2 (address), heap W addr+offset
//
// emid orders operations of one step on the same location: a read of a slot
// precedes a write of it.
func MemoryOps(e EventEntry) ([]MemoryTableEntry, error) {
	if e.Step == nil {
		return nil, fmt.Errorf("event %d has no step detail", e.Eid)
	}
	if e.Step.Class() != e.Instruction.Opcode.Class {
		return nil, fmt.Errorf("event %d: %s step for %s: %w", e.Eid, e.Step.Class(), e.Instruction.Opcode.Class, ErrClassMismatch)
	}

	m := &stepMemory{event: e}
	switch s := e.Step.(type) {
	case ConstStep:
		m.stackWrite(0, 1, s.VType, s.Value)
	case DropStep, CallStep:
	case LocalGetStep:
		m.stackRead(int64(s.Depth), 1, s.VType, s.Value)
		m.stackWrite(0, 1, s.VType, s.Value)
	case ReturnStep:
		if s.KeepType != 0 {
			m.stackRead(1, 1, s.KeepType, s.KeepValue)
			m.stackWrite(1+int64(s.Drop), 2, s.KeepType, s.KeepValue)
		}
	case BrIfNezStep:
		m.stackRead(1, 1, I32, s.Condition)
	case BinOpStep:
		m.stackRead(1, 1, s.VType, s.Rhs)
		m.stackRead(2, 1, s.VType, s.Lhs)
		m.stackWrite(2, 2, s.VType, s.Result)
	case ComparisonStep:
		m.stackRead(1, 1, s.VType, s.Rhs)
		m.stackRead(2, 1, s.VType, s.Lhs)
		m.stackWrite(2, 2, I32, s.Result)
	case LoadStep:
		m.stackRead(1, 1, I32, uint64(s.Addr))
		m.access(Heap, Read, int64(s.EffectiveAddress()), 1, s.VType, s.Value)
		m.stackWrite(1, 2, s.VType, s.Value)
	case StoreStep:
		m.stackRead(1, 1, s.VType, s.Value)
		m.stackRead(2, 1, I32, uint64(s.Addr))
		m.access(Heap, Write, int64(s.EffectiveAddress()), 1, s.VType, s.Value)
	default:
		return nil, fmt.Errorf("event %d: step %T: %w", e.Eid, e.Step, ErrUnknownOpcodeClass)
	}
	if m.err != nil {
		return nil, fmt.Errorf("event %d: %w", e.Eid, m.err)
	}
	return m.ops, nil
}

type heapCell struct {
	mmid   uint16
	offset uint16
}

// DeriveMemoryTable expands all events into memory rows, prepends one Init
// row per touched heap cell carrying its declared initial value, and returns
// the rows in canonical order.
func DeriveMemoryTable(events []EventEntry, init []InitMemoryEntry) ([]MemoryTableEntry, error) {
	initValues := make(map[heapCell]uint64, len(init))
	for _, e := range init {
		initValues[heapCell{e.Mmid, e.Offset}] = e.Value
	}

	entries := make([]MemoryTableEntry, 0, len(events)*2)
	firstHeap := make(map[heapCell]MemoryTableEntry)
	for _, ev := range events {
		ops, err := MemoryOps(ev)
		if err != nil {
			return nil, err
		}
		for _, op := range ops {
			if op.LType != Heap {
				continue
			}
			cell := heapCell{op.Mmid, op.Offset}
			if first, ok := firstHeap[cell]; !ok || op.Less(first) {
				firstHeap[cell] = op
			}
		}
		entries = append(entries, ops...)
	}

	for cell, first := range firstHeap {
		value, ok := initValues[cell]
		if !ok {
			return nil, fmt.Errorf("mmid %d offset %d: %w", cell.mmid, cell.offset, ErrMissingInitMemory)
		}
		entries = append(entries, MemoryTableEntry{
			Mmid:   cell.mmid,
			Offset: cell.offset,
			LType:  Heap,
			AType:  Init,
			VType:  first.VType,
			Value:  value,
		})
	}

	SortMemoryTable(entries)
	return entries, nil
}

// SortMemoryTable sorts rows by (LType, Mmid, Offset, Eid, Emid)
func SortMemoryTable(entries []MemoryTableEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Less(entries[j])
	})
}

// CountMops returns the number of non-init rows
func CountMops(entries []MemoryTableEntry) uint64 {
	var n uint64
	for _, e := range entries {
		if e.AType != Init {
			n++
		}
	}
	return n
}
