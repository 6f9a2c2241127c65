package specs

import (
	"encoding/json"
	"fmt"
)

// MarshalText implements encoding.TextMarshaler
func (t VarType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (t *VarType) UnmarshalText(b []byte) error {
	v, err := ParseVarType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (c OpcodeClass) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("class %d: %w", uint16(c), ErrUnknownOpcodeClass)
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *OpcodeClass) UnmarshalText(b []byte) error {
	v, err := ParseOpcodeClass(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (l LocationType) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (l *LocationType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "heap":
		*l = Heap
	case "stack":
		*l = Stack
	default:
		return fmt.Errorf("unknown location type %q", b)
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (a AccessType) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (a *AccessType) UnmarshalText(b []byte) error {
	for _, v := range []AccessType{Read, Write, Init} {
		if v.String() == string(b) {
			*a = v
			return nil
		}
	}
	return fmt.Errorf("unknown access type %q", b)
}

// MarshalText implements encoding.TextMarshaler
func (op BinaryOp) MarshalText() ([]byte, error) { return []byte(op.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (op *BinaryOp) UnmarshalText(b []byte) error {
	for _, v := range BinaryOps {
		if v.String() == string(b) {
			*op = v
			return nil
		}
	}
	return fmt.Errorf("unknown binary operator %q", b)
}

// MarshalText implements encoding.TextMarshaler
func (op ComparisonOp) MarshalText() ([]byte, error) { return []byte(op.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (op *ComparisonOp) UnmarshalText(b []byte) error {
	for _, v := range ComparisonOps {
		if v.String() == string(b) {
			*op = v
			return nil
		}
	}
	return fmt.Errorf("unknown comparison %q", b)
}

// stepJSON is the flattened wire form of every StepInfo variant
type stepJSON struct {
	Class     OpcodeClass  `json:"class"`
	VType     VarType      `json:"vtype,omitempty"`
	Value     uint64       `json:"value,omitempty"`
	Depth     uint32       `json:"depth,omitempty"`
	Drop      uint16       `json:"drop,omitempty"`
	KeepType  VarType      `json:"keep_type,omitempty"`
	KeepValue uint64       `json:"keep_value,omitempty"`
	Condition uint64       `json:"condition,omitempty"`
	Dst       uint16       `json:"dst,omitempty"`
	Callee    uint16       `json:"callee,omitempty"`
	BinaryOp  BinaryOp     `json:"binop,omitempty"`
	Relation  ComparisonOp `json:"relation,omitempty"`
	Lhs       uint64       `json:"lhs,omitempty"`
	Rhs       uint64       `json:"rhs,omitempty"`
	Result    uint64       `json:"result,omitempty"`
	Offset    uint16       `json:"offset,omitempty"`
	Addr      uint32       `json:"addr,omitempty"`
}

type eventJSON struct {
	Eid         uint64           `json:"eid"`
	Sp          uint64           `json:"sp"`
	LastJumpEid uint64           `json:"last_jump_eid"`
	Instruction InstructionEntry `json:"instruction"`
	Step        stepJSON         `json:"step"`
}

// MarshalJSON implements json.Marshaler
func (e EventEntry) MarshalJSON() ([]byte, error) {
	if e.Step == nil {
		return nil, fmt.Errorf("event %d has no step detail", e.Eid)
	}
	s := stepJSON{Class: e.Step.Class()}
	switch st := e.Step.(type) {
	case ConstStep:
		s.VType, s.Value = st.VType, st.Value
	case DropStep:
	case LocalGetStep:
		s.VType, s.Depth, s.Value = st.VType, st.Depth, st.Value
	case ReturnStep:
		s.Drop, s.KeepType, s.KeepValue = st.Drop, st.KeepType, st.KeepValue
	case BrIfNezStep:
		s.Condition, s.Dst = st.Condition, st.Dst
	case CallStep:
		s.Callee = st.Callee
	case BinOpStep:
		s.BinaryOp, s.VType, s.Lhs, s.Rhs, s.Result = st.Op, st.VType, st.Lhs, st.Rhs, st.Result
	case ComparisonStep:
		s.Relation, s.VType, s.Lhs, s.Rhs, s.Result = st.Op, st.VType, st.Lhs, st.Rhs, st.Result
	case LoadStep:
		s.VType, s.Offset, s.Addr, s.Value = st.VType, st.Offset, st.Addr, st.Value
	case StoreStep:
		s.VType, s.Offset, s.Addr, s.Value = st.VType, st.Offset, st.Addr, st.Value
	}
	return json.Marshal(eventJSON{
		Eid:         e.Eid,
		Sp:          e.Sp,
		LastJumpEid: e.LastJumpEid,
		Instruction: e.Instruction,
		Step:        s,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (e *EventEntry) UnmarshalJSON(b []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s := raw.Step

	var step StepInfo
	switch s.Class {
	case ClassConst:
		step = ConstStep{VType: s.VType, Value: s.Value}
	case ClassDrop:
		step = DropStep{}
	case ClassLocalGet:
		step = LocalGetStep{VType: s.VType, Depth: s.Depth, Value: s.Value}
	case ClassReturn:
		step = ReturnStep{Drop: s.Drop, KeepType: s.KeepType, KeepValue: s.KeepValue}
	case ClassBrIfNez:
		step = BrIfNezStep{Condition: s.Condition, Dst: s.Dst}
	case ClassCall:
		step = CallStep{Callee: s.Callee}
	case ClassBinOp:
		step = BinOpStep{Op: s.BinaryOp, VType: s.VType, Lhs: s.Lhs, Rhs: s.Rhs, Result: s.Result}
	case ClassComparison:
		step = ComparisonStep{Op: s.Relation, VType: s.VType, Lhs: s.Lhs, Rhs: s.Rhs, Result: s.Result}
	case ClassLoad:
		step = LoadStep{VType: s.VType, Offset: s.Offset, Addr: s.Addr, Value: s.Value}
	case ClassStore:
		step = StoreStep{VType: s.VType, Offset: s.Offset, Addr: s.Addr, Value: s.Value}
	default:
		return fmt.Errorf("event %d: class %d: %w", raw.Eid, s.Class, ErrUnknownOpcodeClass)
	}

	*e = EventEntry{
		Eid:         raw.Eid,
		Sp:          raw.Sp,
		LastJumpEid: raw.LastJumpEid,
		Instruction: raw.Instruction,
		Step:        step,
	}
	return nil
}
