package vybiumwasmcircuits

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/tracer"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/utils"
)

// Tables is a program and one execution of it, as assigned to the circuit
type Tables = specs.Tables

// Module is a program of the supported opcode subset
type Module = tracer.Module

// Function is one function of a Module
type Function = tracer.Function

// DataSegment declares the initial value of one heap cell
type DataSegment = tracer.DataSegment

// Opcode is one instruction of a Function
type Opcode = specs.Opcode

// Config is the circuit configuration
type Config = utils.Config

// DefaultConfig returns a configuration admitting the full 16-bit
// identifier space
func DefaultConfig() *Config {
	return utils.DefaultConfig()
}

// Failure is one violated constraint
type Failure struct {
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Index int    `json:"index"`
	Row   int    `json:"row"`
}

// String renders the failure
func (f Failure) String() string {
	if f.Kind == "gate" {
		return fmt.Sprintf("gate %q polynomial %d not satisfied at row %d", f.Name, f.Index, f.Row)
	}
	return fmt.Sprintf("%s %q violated at row %d", f.Kind, f.Name, f.Row)
}

// Report is the outcome of checking one trace
type Report struct {
	// Accepted is true when every constraint holds
	Accepted bool `json:"accepted"`

	// Failures lists violated constraints, capped at Config.MaxFailures
	Failures []Failure `json:"failures,omitempty"`

	// TotalFailures counts every violated constraint
	TotalFailures int `json:"total_failures"`

	K                uint   `json:"k"`
	Events           int    `json:"events"`
	MemoryRows       int    `json:"memory_rows"`
	ProgramDigest    string `json:"program_digest"`
	InitMemoryDigest string `json:"init_memory_digest"`
	CircuitDigest    string `json:"circuit_digest"`
}

// ReadTables decodes a JSON bundle
func ReadTables(r io.Reader) (*Tables, error) {
	var t Tables
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, &CircuitError{Code: ErrInvalidInput, Message: "failed to decode tables", Cause: err}
	}
	return &t, nil
}

// WriteTables encodes t as an indented JSON bundle
func WriteTables(w io.Writer, t *Tables) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// Trace compiles m and executes function entry, returning the tables of the
// run with the memory table derived
func Trace(m *Module, entry uint16) (*Tables, error) {
	p, err := tracer.Compile(m)
	if err != nil {
		return nil, &CircuitError{Code: ErrInvalidInput, Message: "failed to compile module", Cause: err}
	}
	tables, err := tracer.Execute(p, entry)
	if err != nil {
		return nil, &CircuitError{Code: ErrTraceExecution, Message: "failed to trace module", Cause: err}
	}
	return tables, nil
}

// DemoModule returns a small program exercising every opcode class
func DemoModule() *Module {
	return tracer.DemoModule()
}

// SizeFor returns the smallest k that holds the tables and a common range
// of 2^commonRangeBits
func SizeFor(t *Tables, commonRangeBits uint) uint {
	k := utils.RequiredK(t.MaxRows())
	if k < commonRangeBits {
		k = commonRangeBits
	}
	return k
}
