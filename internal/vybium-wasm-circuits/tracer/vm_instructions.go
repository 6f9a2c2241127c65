package tracer

import (
	"fmt"
	"math"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

// execConst pushes the immediate
func (vm *VMState) execConst(op specs.Opcode) (specs.StepInfo, error) {
	vtype := specs.VarType(op.Arg0)
	value := uint64(op.Arg1)
	vm.StackPush(vtype, value)
	vm.IncrementIP()
	return specs.ConstStep{VType: vtype, Value: value}, nil
}

// execDrop discards the top of stack
func (vm *VMState) execDrop() (specs.StepInfo, error) {
	if len(vm.Stack) == 0 {
		return nil, ErrStackUnderflow
	}
	vm.Stack = vm.Stack[:len(vm.Stack)-1]
	vm.IncrementIP()
	return specs.DropStep{}, nil
}

// execLocalGet copies the slot depth below the stack pointer to the top
func (vm *VMState) execLocalGet(op specs.Opcode) (specs.StepInfo, error) {
	vtype := specs.VarType(op.Arg0)
	depth := op.Arg1
	if uint64(depth) > uint64(len(vm.Stack)) {
		return nil, fmt.Errorf("local at depth %d with %d slots: %w", depth, len(vm.Stack), ErrStackUnderflow)
	}
	slot := vm.Stack[len(vm.Stack)-int(depth)]
	if slot.VType != vtype {
		return nil, fmt.Errorf("local is %s, want %s: %w", slot.VType, vtype, ErrTypeMismatch)
	}
	vm.StackPush(vtype, slot.Value)
	vm.IncrementIP()
	return specs.LocalGetStep{VType: vtype, Depth: depth, Value: slot.Value}, nil
}

// execReturn drops the frame's slots, keeping at most one value, and resumes
// the caller after its call. Returning from the entry function halts.
func (vm *VMState) execReturn(op specs.Opcode) (specs.StepInfo, error) {
	drop := int(op.Arg0)
	keepType := specs.VarType(op.Arg1)
	step := specs.ReturnStep{Drop: op.Arg0, KeepType: keepType}

	sp := len(vm.Stack)
	if keepType != 0 {
		if sp < drop+1 {
			return nil, fmt.Errorf("return of %d slots with %d: %w", drop+1, sp, ErrStackUnderflow)
		}
		top := vm.Stack[sp-1]
		if top.VType != keepType {
			return nil, fmt.Errorf("returned value is %s, want %s: %w", top.VType, keepType, ErrTypeMismatch)
		}
		step.KeepValue = top.Value
		vm.Stack = append(vm.Stack[:sp-1-drop], top)
	} else {
		if sp < drop {
			return nil, fmt.Errorf("return of %d slots with %d: %w", drop, sp, ErrStackUnderflow)
		}
		vm.Stack = vm.Stack[:sp-drop]
	}

	if len(vm.Frames) == 0 {
		vm.Halting = true
		return step, nil
	}
	f := vm.Frames[len(vm.Frames)-1]
	vm.Frames = vm.Frames[:len(vm.Frames)-1]
	vm.Fid = f.fid
	vm.Iid = f.iid + 1
	vm.LastJumpEid = f.lastJumpEid
	return step, nil
}

// execBrIfNez pops an i32 condition and branches when it is nonzero
func (vm *VMState) execBrIfNez(op specs.Opcode) (specs.StepInfo, error) {
	cond, err := vm.StackPop(specs.I32)
	if err != nil {
		return nil, err
	}
	if cond != 0 {
		vm.Iid = uint16(op.Arg1)
	} else {
		vm.IncrementIP()
	}
	return specs.BrIfNezStep{Condition: cond, Dst: uint16(op.Arg1)}, nil
}

// execCall pushes a frame, records the jump and enters the callee
func (vm *VMState) execCall(event specs.EventEntry, op specs.Opcode) (specs.StepInfo, error) {
	callee := uint16(op.Arg1)
	instr := event.Instruction

	vm.recorder.RecordJump(specs.JumpTableEntry{
		Eid:         event.Eid,
		LastJumpEid: vm.LastJumpEid,
		Moid:        instr.Moid,
		Fid:         instr.Fid,
		Bid:         instr.Bid,
		Iid:         instr.Iid,
	})
	vm.Frames = append(vm.Frames, frame{fid: vm.Fid, iid: vm.Iid, lastJumpEid: vm.LastJumpEid})
	vm.LastJumpEid = event.Eid
	vm.Fid = callee
	vm.Iid = 0
	return specs.CallStep{Callee: callee}, nil
}

// execBinOp pops rhs then lhs and pushes lhs op rhs
func (vm *VMState) execBinOp(op specs.Opcode) (specs.StepInfo, error) {
	vtype := specs.VarType(op.Arg1)
	binop := specs.BinaryOp(op.Arg0)
	rhs, err := vm.StackPop(vtype)
	if err != nil {
		return nil, err
	}
	lhs, err := vm.StackPop(vtype)
	if err != nil {
		return nil, err
	}
	res := binop.Apply(vtype, lhs, rhs)
	vm.StackPush(vtype, res)
	vm.IncrementIP()
	return specs.BinOpStep{Op: binop, VType: vtype, Lhs: lhs, Rhs: rhs, Result: res}, nil
}

// execComparison pops rhs then lhs and pushes the i32 truth value
func (vm *VMState) execComparison(op specs.Opcode) (specs.StepInfo, error) {
	vtype := specs.VarType(op.Arg1)
	cmp := specs.ComparisonOp(op.Arg0)
	rhs, err := vm.StackPop(vtype)
	if err != nil {
		return nil, err
	}
	lhs, err := vm.StackPop(vtype)
	if err != nil {
		return nil, err
	}
	res := cmp.Apply(lhs, rhs)
	vm.StackPush(specs.I32, res)
	vm.IncrementIP()
	return specs.ComparisonStep{Op: cmp, VType: vtype, Lhs: lhs, Rhs: rhs, Result: res}, nil
}

// execLoad pops an address and pushes the heap cell at address + offset
func (vm *VMState) execLoad(op specs.Opcode) (specs.StepInfo, error) {
	vtype := specs.VarType(op.Arg0)
	offset := uint16(op.Arg1)
	addr, err := vm.StackPop(specs.I32)
	if err != nil {
		return nil, err
	}
	cell, err := vm.heapCell(addr, offset, vtype)
	if err != nil {
		return nil, err
	}
	vm.StackPush(vtype, cell.value)
	vm.IncrementIP()
	return specs.LoadStep{VType: vtype, Offset: offset, Addr: uint32(addr), Value: cell.value}, nil
}

// execStore pops a value and an address and writes the heap cell at
// address + offset
func (vm *VMState) execStore(op specs.Opcode) (specs.StepInfo, error) {
	vtype := specs.VarType(op.Arg0)
	offset := uint16(op.Arg1)
	value, err := vm.StackPop(vtype)
	if err != nil {
		return nil, err
	}
	addr, err := vm.StackPop(specs.I32)
	if err != nil {
		return nil, err
	}
	cell, err := vm.heapCell(addr, offset, vtype)
	if err != nil {
		return nil, err
	}
	cell.value = value
	vm.IncrementIP()
	return specs.StoreStep{VType: vtype, Offset: offset, Addr: uint32(addr), Value: value}, nil
}

// heapCell resolves address + offset to a declared cell and binds the cell
// to vtype on first use. Every later access must use the same type.
func (vm *VMState) heapCell(addr uint64, offset uint16, vtype specs.VarType) (*heapCell, error) {
	ea := addr + uint64(offset)
	if ea > math.MaxUint16 {
		return nil, fmt.Errorf("address %d + %d: %w", addr, offset, specs.ErrOffsetOverflow)
	}
	cell, ok := vm.Heap[uint16(ea)]
	if !ok {
		return nil, fmt.Errorf("cell %d: %w", ea, ErrUninitializedHeap)
	}
	if !cell.typed {
		if !vtype.Fits(cell.value) {
			return nil, fmt.Errorf("cell %d holds %#x, not a %s: %w", ea, cell.value, vtype, ErrTypeMismatch)
		}
		cell.vtype = vtype
		cell.typed = true
	}
	if cell.vtype != vtype {
		return nil, fmt.Errorf("cell %d is %s, accessed as %s: %w", ea, cell.vtype, vtype, ErrTypeMismatch)
	}
	return cell, nil
}
