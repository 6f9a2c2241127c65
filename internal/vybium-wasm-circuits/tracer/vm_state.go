package tracer

import (
	"fmt"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

// DefaultMaxSteps bounds a run unless overridden
const DefaultMaxSteps = 1 << 16

// StackSlot is one typed operand stack slot
type StackSlot struct {
	VType specs.VarType
	Value uint64
}

// heapCell is a typed heap cell. Cells are value-granular: a cell holds one
// value of the type it was first used at.
type heapCell struct {
	vtype specs.VarType
	value uint64
	typed bool
}

// frame is an active call: where to resume and the jump that was active
// when the call was made
type frame struct {
	fid         uint16
	iid         uint16
	lastJumpEid uint64
}

// VMState represents the complete state of the tracer
type VMState struct {
	// Program memory (read-only)
	Program *Program

	// Operand stack; len(Stack) is the stack pointer
	Stack []StackSlot

	// Heap of the module's memory instance
	Heap map[uint16]*heapCell

	// Call frames
	Frames []frame

	// Execution state
	Fid         uint16
	Iid         uint16
	Eid         uint64
	LastJumpEid uint64
	MaxSteps    uint64
	Halting     bool

	recorder *TraceRecorder
}

// NewVMState creates a tracer positioned at the first instruction of entry
func NewVMState(program *Program, entry uint16) (*VMState, error) {
	if program == nil {
		return nil, fmt.Errorf("program cannot be nil")
	}
	if int(entry) >= len(program.Module.Functions) {
		return nil, fmt.Errorf("entry function %d: %w", entry, ErrBadProgram)
	}

	heap := make(map[uint16]*heapCell, len(program.InitMemory))
	for _, e := range program.InitMemory {
		heap[e.Offset] = &heapCell{value: e.Value}
	}

	return &VMState{
		Program:  program,
		Stack:    make([]StackSlot, 0, 64),
		Heap:     heap,
		Frames:   make([]frame, 0),
		Fid:      entry,
		Iid:      0,
		Eid:      0,
		MaxSteps: DefaultMaxSteps,
		recorder: NewTraceRecorder(program),
	}, nil
}

// Run executes until the entry function returns
func (vm *VMState) Run() error {
	for !vm.Halting {
		if vm.Eid >= vm.MaxSteps {
			return fmt.Errorf("after %d steps: %w", vm.Eid, ErrStepLimit)
		}
		if err := vm.Step(); err != nil {
			return fmt.Errorf("execution failed at step %d, function %d iid %d: %w",
				vm.Eid+1, vm.Fid, vm.Iid, err)
		}
	}
	return nil
}

// Step executes one instruction and records it
func (vm *VMState) Step() error {
	if vm.Halting {
		return fmt.Errorf("machine already halted")
	}

	inst, err := vm.Program.Fetch(vm.Fid, vm.Iid)
	if err != nil {
		return err
	}

	event := specs.EventEntry{
		Eid:         vm.Eid + 1,
		Sp:          uint64(len(vm.Stack)),
		LastJumpEid: vm.LastJumpEid,
		Instruction: inst,
	}
	vm.Eid++

	step, err := vm.ExecuteInstruction(event)
	if err != nil {
		return fmt.Errorf("failed to execute %s: %w", inst.Opcode, err)
	}
	event.Step = step
	vm.recorder.RecordEvent(event)
	return nil
}

// ExecuteInstruction dispatches to the handler of the instruction's class.
// It returns the operands observed by the step.
func (vm *VMState) ExecuteInstruction(event specs.EventEntry) (specs.StepInfo, error) {
	op := event.Instruction.Opcode
	switch op.Class {
	case specs.ClassConst:
		return vm.execConst(op)
	case specs.ClassDrop:
		return vm.execDrop()
	case specs.ClassLocalGet:
		return vm.execLocalGet(op)
	case specs.ClassReturn:
		return vm.execReturn(op)
	case specs.ClassBrIfNez:
		return vm.execBrIfNez(op)
	case specs.ClassCall:
		return vm.execCall(event, op)
	case specs.ClassBinOp:
		return vm.execBinOp(op)
	case specs.ClassComparison:
		return vm.execComparison(op)
	case specs.ClassLoad:
		return vm.execLoad(op)
	case specs.ClassStore:
		return vm.execStore(op)
	default:
		return nil, fmt.Errorf("class %d: %w", op.Class, specs.ErrUnknownOpcodeClass)
	}
}

// StackPush pushes a typed value
func (vm *VMState) StackPush(vtype specs.VarType, value uint64) {
	vm.Stack = append(vm.Stack, StackSlot{VType: vtype, Value: value})
}

// StackPop pops the top of stack, which must hold a value of type want
func (vm *VMState) StackPop(want specs.VarType) (uint64, error) {
	if len(vm.Stack) == 0 {
		return 0, ErrStackUnderflow
	}
	top := vm.Stack[len(vm.Stack)-1]
	if top.VType != want {
		return 0, fmt.Errorf("top of stack is %s, want %s: %w", top.VType, want, ErrTypeMismatch)
	}
	vm.Stack = vm.Stack[:len(vm.Stack)-1]
	return top.Value, nil
}

// IncrementIP moves to the next instruction of the current function
func (vm *VMState) IncrementIP() {
	vm.Iid++
}

// Tables returns the tables recorded so far
func (vm *VMState) Tables() (*specs.Tables, error) {
	return vm.recorder.Tables()
}

// Execute runs function entry of program to completion and returns the
// recorded tables with the memory table derived
func Execute(program *Program, entry uint16) (*specs.Tables, error) {
	vm, err := NewVMState(program, entry)
	if err != nil {
		return nil, err
	}
	if err := vm.Run(); err != nil {
		return nil, err
	}
	return vm.Tables()
}
