package tracer

import (
	"fmt"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

// TraceRecorder accumulates the events and jumps of one run
type TraceRecorder struct {
	program *Program
	events  []specs.EventEntry
	jumps   []specs.JumpTableEntry
}

// NewTraceRecorder creates an empty recorder for program
func NewTraceRecorder(program *Program) *TraceRecorder {
	return &TraceRecorder{
		program: program,
		events:  make([]specs.EventEntry, 0),
		jumps:   make([]specs.JumpTableEntry, 0),
	}
}

// RecordEvent appends one executed step
func (r *TraceRecorder) RecordEvent(e specs.EventEntry) {
	r.events = append(r.events, e)
}

// RecordJump appends one control transfer
func (r *TraceRecorder) RecordJump(j specs.JumpTableEntry) {
	r.jumps = append(r.jumps, j)
}

// Tables assembles the recorded run with the program's static tables and
// derives the memory table from the events
func (r *TraceRecorder) Tables() (*specs.Tables, error) {
	t := &specs.Tables{
		Instructions: r.program.Instructions,
		InitMemory:   r.program.InitMemory,
		Events:       r.events,
		Jumps:        r.jumps,
	}
	out, err := t.WithDerivedMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to derive memory table: %w", err)
	}
	return out, nil
}
