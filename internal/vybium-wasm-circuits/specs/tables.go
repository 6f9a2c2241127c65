package specs

import (
	"fmt"
)

// Tables bundles everything the circuit is assigned from: the compiled
// program, its initial heap, and one execution of it.
type Tables struct {
	Instructions []InstructionEntry `json:"instructions"`
	InitMemory   []InitMemoryEntry  `json:"init_memory"`
	Events       []EventEntry       `json:"events"`
	Memory       []MemoryTableEntry `json:"memory"`
	Jumps        []JumpTableEntry   `json:"jumps"`
}

// Validate performs the build-time representability checks: every opcode
// and step must use an integer value type and every step must agree with the
// class of its instruction. Trace semantics are not revalidated here; they
// are proven by the circuit.
func (t *Tables) Validate() error {
	for i, instr := range t.Instructions {
		if err := instr.Opcode.Validate(); err != nil {
			return fmt.Errorf("instruction %d (%s): %w", i, instr.Address(), err)
		}
	}
	for _, e := range t.Events {
		if err := ValidateStep(e.Step); err != nil {
			return fmt.Errorf("event %d: %w", e.Eid, err)
		}
		if e.Step.Class() != e.Instruction.Opcode.Class {
			return fmt.Errorf("event %d: %s step for %s: %w", e.Eid, e.Step.Class(), e.Instruction.Opcode.Class, ErrClassMismatch)
		}
	}
	for i, m := range t.Memory {
		if err := m.VType.Validate(); err != nil {
			return fmt.Errorf("memory row %d: %w", i, err)
		}
	}
	return nil
}

// ValidateStep checks that a step's operand types are representable
func ValidateStep(step StepInfo) error {
	switch s := step.(type) {
	case nil:
		return fmt.Errorf("missing step detail: %w", ErrUnknownOpcodeClass)
	case ConstStep:
		return s.VType.Validate()
	case LocalGetStep:
		return s.VType.Validate()
	case ReturnStep:
		if s.KeepType == 0 {
			return nil
		}
		return s.KeepType.Validate()
	case BinOpStep:
		return checkNumericType(s.VType)
	case ComparisonStep:
		return checkNumericType(s.VType)
	case LoadStep:
		return s.VType.Validate()
	case StoreStep:
		return s.VType.Validate()
	case DropStep, BrIfNezStep, CallStep:
		return nil
	default:
		return fmt.Errorf("step %T: %w", step, ErrUnknownOpcodeClass)
	}
}

// WithDerivedMemory returns a copy of t whose memory table is derived from
// its events and init memory
func (t *Tables) WithDerivedMemory() (*Tables, error) {
	memory, err := DeriveMemoryTable(t.Events, t.InitMemory)
	if err != nil {
		return nil, err
	}
	out := *t
	out.Memory = memory
	return &out, nil
}

// MaxRows returns the length of the longest table
func (t *Tables) MaxRows() int {
	n := len(t.Instructions)
	for _, l := range []int{len(t.InitMemory), len(t.Events), len(t.Memory), len(t.Jumps)} {
		if l > n {
			n = l
		}
	}
	return n
}
