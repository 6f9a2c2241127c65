package circuits

import (
	"fmt"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/core"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

// InstructionConfig is the static program table: one packed
// (moid, mmid, fid, bid, iid, opcode) entry per compiled instruction
type InstructionConfig struct {
	table plonk.Column
}

// ConfigureInstruction declares the instruction table
func ConfigureInstruction(cs *plonk.ConstraintSystem) *InstructionConfig {
	return &InstructionConfig{table: cs.TableColumn("instruction table")}
}

// Lookup constrains an encoded instruction expression to the table
func (c *InstructionConfig) Lookup(cs *plonk.ConstraintSystem, name string, expr plonk.Expression) {
	cs.Lookup(name, expr, c.table)
}

// Assign loads the compiled program
func (c *InstructionConfig) Assign(asg *plonk.Assignment, entries []specs.InstructionEntry) error {
	if len(entries) > asg.Rows() {
		return fmt.Errorf("%d instructions exceed %d rows", len(entries), asg.Rows())
	}
	for row, e := range entries {
		if err := asg.AssignTable(c.table, row, core.FromUint256(e.Encode())); err != nil {
			return err
		}
	}
	return nil
}

// InitMemoryConfig is the table of declared initial heap values
type InitMemoryConfig struct {
	table plonk.Column
}

// ConfigureInitMemory declares the init memory table
func ConfigureInitMemory(cs *plonk.ConstraintSystem) *InitMemoryConfig {
	return &InitMemoryConfig{table: cs.TableColumn("init memory table")}
}

// Lookup constrains an encoded init entry expression to the table
func (c *InitMemoryConfig) Lookup(cs *plonk.ConstraintSystem, name string, expr plonk.Expression) {
	cs.Lookup(name, expr, c.table)
}

// Assign loads the initial heap
func (c *InitMemoryConfig) Assign(asg *plonk.Assignment, entries []specs.InitMemoryEntry) error {
	if len(entries) > asg.Rows() {
		return fmt.Errorf("%d init memory entries exceed %d rows", len(entries), asg.Rows())
	}
	for row, e := range entries {
		if err := asg.AssignTable(c.table, row, core.FromUint256(e.Encode())); err != nil {
			return err
		}
	}
	return nil
}
