// Package tracer executes programs of the supported opcode subset and
// records the tables the circuit is assigned from: the static instruction
// listing, the initial heap, one event per step and one jump per call.
package tracer

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

var (
	// ErrStackUnderflow is returned when a step pops more than the stack holds
	ErrStackUnderflow = errors.New("stack underflow")

	// ErrTypeMismatch is returned when a slot or cell is used at a type
	// other than the one it holds
	ErrTypeMismatch = errors.New("value type mismatch")

	// ErrUninitializedHeap is returned when a load reads a cell that was
	// neither declared nor stored
	ErrUninitializedHeap = errors.New("uninitialized heap cell")

	// ErrStepLimit is returned when execution does not finish in time
	ErrStepLimit = errors.New("step limit exceeded")

	// ErrBadProgram is returned for structurally invalid modules
	ErrBadProgram = errors.New("invalid program")
)

// Function is a straight list of instructions; its index in the module is
// its fid and the position of an instruction in Body is its iid
type Function struct {
	Name string
	Body []specs.Opcode
}

// DataSegment declares the initial value of one heap cell
type DataSegment struct {
	Offset uint16
	Value  uint64
}

// Module is a compiled program with one memory instance
type Module struct {
	Moid      uint16
	Mmid      uint16
	Functions []Function
	Data      []DataSegment
}

// Program is a compiled module: its instruction table, initial heap and an
// address index for fetching
type Program struct {
	Module       *Module
	Instructions []specs.InstructionEntry
	InitMemory   []specs.InitMemoryEntry

	index map[[2]uint16]int
}

// Compile validates the module and lays out its static tables. Blocks are
// not modeled; every instruction carries bid 0.
func Compile(m *Module) (*Program, error) {
	if m == nil {
		return nil, fmt.Errorf("module cannot be nil: %w", ErrBadProgram)
	}
	if len(m.Functions) == 0 || len(m.Functions) > math.MaxUint16 {
		return nil, fmt.Errorf("module has %d functions: %w", len(m.Functions), ErrBadProgram)
	}

	p := &Program{
		Module:       m,
		Instructions: make([]specs.InstructionEntry, 0),
		InitMemory:   make([]specs.InitMemoryEntry, 0, len(m.Data)),
		index:        make(map[[2]uint16]int),
	}

	for fid, fn := range m.Functions {
		if len(fn.Body) == 0 || len(fn.Body) > math.MaxUint16 {
			return nil, fmt.Errorf("function %d has %d instructions: %w", fid, len(fn.Body), ErrBadProgram)
		}
		for iid, op := range fn.Body {
			if err := op.Validate(); err != nil {
				return nil, fmt.Errorf("function %d instruction %d (%s): %w", fid, iid, op, err)
			}
			if err := checkTargets(m, len(fn.Body), op); err != nil {
				return nil, fmt.Errorf("function %d instruction %d (%s): %w", fid, iid, op, err)
			}
			p.index[[2]uint16{uint16(fid), uint16(iid)}] = len(p.Instructions)
			p.Instructions = append(p.Instructions, specs.InstructionEntry{
				Moid:   m.Moid,
				Mmid:   m.Mmid,
				Fid:    uint16(fid),
				Iid:    uint16(iid),
				Opcode: op,
			})
		}
	}

	seen := make(map[uint16]bool, len(m.Data))
	for _, d := range m.Data {
		if seen[d.Offset] {
			return nil, fmt.Errorf("heap cell %d declared twice: %w", d.Offset, ErrBadProgram)
		}
		seen[d.Offset] = true
		p.InitMemory = append(p.InitMemory, specs.InitMemoryEntry{Mmid: m.Mmid, Offset: d.Offset, Value: d.Value})
	}
	sort.Slice(p.InitMemory, func(i, j int) bool {
		return p.InitMemory[i].Offset < p.InitMemory[j].Offset
	})

	return p, nil
}

func checkTargets(m *Module, bodyLen int, op specs.Opcode) error {
	switch op.Class {
	case specs.ClassCall:
		if int(op.Arg1) >= len(m.Functions) {
			return fmt.Errorf("call of unknown function %d: %w", op.Arg1, ErrBadProgram)
		}
	case specs.ClassBrIfNez:
		if int(op.Arg1) >= bodyLen {
			return fmt.Errorf("branch to %d past end of function: %w", op.Arg1, ErrBadProgram)
		}
	}
	return nil
}

// Fetch returns the instruction at (fid, iid)
func (p *Program) Fetch(fid, iid uint16) (specs.InstructionEntry, error) {
	i, ok := p.index[[2]uint16{fid, iid}]
	if !ok {
		return specs.InstructionEntry{}, fmt.Errorf("no instruction at function %d iid %d", fid, iid)
	}
	return p.Instructions[i], nil
}
