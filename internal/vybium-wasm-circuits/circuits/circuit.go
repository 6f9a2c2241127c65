package circuits

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/utils"
)

// ErrCapacity is returned when a trace does not fit the configured circuit
var ErrCapacity = errors.New("trace exceeds circuit capacity")

// Config is the full circuit configuration: every table and the lookups
// between them, declared once and independent of any trace
type Config struct {
	Range       *RangeConfig
	Instruction *InstructionConfig
	InitMemory  *InitMemoryConfig
	Memory      *MemoryConfig
	Jump        *JumpConfig
	Event       *EventConfig

	k           uint
	commonRange uint64
}

// Configure declares all tables on cs, leaves first
func Configure(cs *plonk.ConstraintSystem, cfg *utils.Config) *Config {
	c := &Config{k: cfg.K, commonRange: cfg.CommonRange()}
	c.Range = ConfigureRange(cs, cfg.CommonRangeBits)
	c.Instruction = ConfigureInstruction(cs)
	c.InitMemory = ConfigureInitMemory(cs)
	c.Memory = ConfigureMemory(cs, c.Range, c.InitMemory)
	c.Jump = ConfigureJump(cs, c.Range)
	c.Event = ConfigureEvent(cs, c.Range, c.Instruction, c.Memory, c.Jump)
	return c
}

// CheckCapacity rejects tables that cannot be laid out in the circuit:
// tables longer than the row count, or identifiers, addresses and stack
// pointers outside the common range
func (c *Config) CheckCapacity(t *specs.Tables) error {
	rows := 1 << c.k
	if n := t.MaxRows(); n > rows {
		return fmt.Errorf("%d table rows, circuit has %d: %w", n, rows, ErrCapacity)
	}

	inRange := func(what string, v uint64) error {
		if v >= c.commonRange {
			return fmt.Errorf("%s %d outside common range %d: %w", what, v, c.commonRange, ErrCapacity)
		}
		return nil
	}

	for _, m := range t.Memory {
		for _, f := range []struct {
			name  string
			value uint64
		}{
			{"memory mmid", uint64(m.Mmid)},
			{"memory offset", uint64(m.Offset)},
			{"memory eid", m.Eid},
			{"memory emid", uint64(m.Emid)},
		} {
			if err := inRange(f.name, f.value); err != nil {
				return err
			}
		}
	}
	for _, j := range t.Jumps {
		if err := inRange("jump eid", j.Eid); err != nil {
			return err
		}
	}
	for _, ev := range t.Events {
		if err := inRange("event sp", ev.Sp); err != nil {
			return fmt.Errorf("event %d: %w", ev.Eid, err)
		}
	}
	for _, instr := range t.Instructions {
		for _, f := range []struct {
			name  string
			value uint16
		}{
			{"moid", instr.Moid},
			{"mmid", instr.Mmid},
			{"fid", instr.Fid},
			{"bid", instr.Bid},
			{"iid", instr.Iid},
		} {
			if err := inRange(f.name, uint64(f.value)); err != nil {
				return fmt.Errorf("instruction %s: %w", instr.Address(), err)
			}
		}

		var err error
		switch op := instr.Opcode; op.Class {
		case specs.ClassLocalGet, specs.ClassBrIfNez, specs.ClassCall, specs.ClassLoad, specs.ClassStore:
			err = inRange(fmt.Sprintf("%s operand", op.Class), uint64(op.Arg1))
		case specs.ClassReturn:
			err = inRange("return drop", uint64(op.Arg0))
		}
		if err != nil {
			return fmt.Errorf("instruction %s: %w", instr.Address(), err)
		}
	}
	return nil
}

// Circuit is one (program, trace) instance ready for assignment
type Circuit struct {
	tables *specs.Tables
}

// NewCircuit validates the tables and sorts a copy of the memory table into
// canonical order. The circuit proves the order; it never establishes it.
func NewCircuit(tables *specs.Tables) (*Circuit, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}

	t := *tables
	t.Memory = append([]specs.MemoryTableEntry(nil), tables.Memory...)
	specs.SortMemoryTable(t.Memory)
	return &Circuit{tables: &t}, nil
}

// Tables returns the tables the circuit assigns, memory in canonical order
func (c *Circuit) Tables() *specs.Tables {
	return c.tables
}

// Synthesize assigns every table.
//
// Tables write disjoint columns and are assigned concurrently. The only
// ordering edge runs from the event table to the memory table, which needs
// the event table's row-0 rest_mops cell for its copy constraint.
func (c *Circuit) Synthesize(ctx context.Context, cfg *Config, asg *plonk.Assignment) error {
	if err := cfg.CheckCapacity(c.tables); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	restMops := make(chan plonk.Cell, 1)

	g.Go(func() error {
		return cfg.Range.Assign(asg)
	})
	g.Go(func() error {
		return cfg.Instruction.Assign(asg, c.tables.Instructions)
	})
	g.Go(func() error {
		return cfg.InitMemory.Assign(asg, c.tables.InitMemory)
	})
	g.Go(func() error {
		return cfg.Jump.Assign(asg, c.tables.Jumps)
	})
	g.Go(func() error {
		cell, err := cfg.Event.Assign(asg, c.tables.Events)
		if err != nil {
			return fmt.Errorf("event table: %w", err)
		}
		restMops <- cell
		return nil
	})
	g.Go(func() error {
		select {
		case cell := <-restMops:
			if err := cfg.Memory.Assign(asg, c.tables.Memory, cell); err != nil {
				return fmt.Errorf("memory table: %w", err)
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	return g.Wait()
}
