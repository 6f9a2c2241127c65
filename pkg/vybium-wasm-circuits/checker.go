package vybiumwasmcircuits

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/circuits"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
)

// Checker is the public interface of the trace circuit
type Checker interface {
	// Check assigns the tables to the circuit and reports every violated
	// constraint. A rejected trace is not an error; the report says so.
	Check(ctx context.Context, tables *Tables) (*Report, error)

	// Config returns a copy of the checker's configuration
	Config() *Config
}

// checkerImpl is the internal implementation of Checker
type checkerImpl struct {
	config *Config
	log    log.Logger
}

// NewChecker creates a checker. A nil logger logs to the root logger.
func NewChecker(config *Config, logger log.Logger) (Checker, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, &CircuitError{Code: ErrInvalidConfig, Message: "invalid configuration", Cause: err}
	}
	if logger == nil {
		logger = log.Root()
	}
	return &checkerImpl{config: config.Clone(), log: logger}, nil
}

// Config returns a copy of the configuration
func (c *checkerImpl) Config() *Config {
	return c.config.Clone()
}

// Check runs the full pipeline: derive the memory table when absent, attest
// the program digest, configure, synthesize and verify
func (c *checkerImpl) Check(ctx context.Context, tables *Tables) (*Report, error) {
	if tables == nil {
		return nil, &CircuitError{Code: ErrInvalidInput, Message: "tables cannot be nil"}
	}

	if tables.Memory == nil {
		derived, err := tables.WithDerivedMemory()
		if err != nil {
			return nil, &CircuitError{Code: ErrInvalidInput, Message: "failed to derive memory table", Cause: err}
		}
		c.log.Debug("Derived memory table", "rows", len(derived.Memory))
		tables = derived
	}

	programDigest := circuits.ProgramDigest(tables.Instructions)
	report := &Report{
		K:                c.config.K,
		Events:           len(tables.Events),
		MemoryRows:       len(tables.Memory),
		ProgramDigest:    circuits.FormatDigest(programDigest),
		InitMemoryDigest: circuits.FormatDigest(circuits.InitMemoryDigest(tables.InitMemory)),
	}

	if c.config.ExpectedProgramDigest != "" {
		want, err := circuits.ParseDigest(c.config.ExpectedProgramDigest)
		if err != nil {
			return nil, &CircuitError{Code: ErrInvalidConfig, Message: "malformed expected program digest", Cause: err}
		}
		if !want.Equal(programDigest) {
			c.log.Warn("Program digest mismatch", "want", c.config.ExpectedProgramDigest, "have", report.ProgramDigest)
			return nil, &CircuitError{Code: ErrDigestMismatch, Message: "program digest " + report.ProgramDigest + " != " + c.config.ExpectedProgramDigest}
		}
	}

	circuit, err := circuits.NewCircuit(tables)
	if err != nil {
		return nil, &CircuitError{Code: ErrInvalidInput, Message: "tables are not representable", Cause: err}
	}

	cs := plonk.NewConstraintSystem()
	cfg := circuits.Configure(cs, c.config)
	if err := cfg.CheckCapacity(circuit.Tables()); err != nil {
		return nil, &CircuitError{Code: ErrCapacityExceeded, Message: "trace does not fit the circuit", Cause: err}
	}

	digest, err := circuits.CircuitDigest(cs)
	if err != nil {
		return nil, &CircuitError{Code: ErrUnknown, Message: "failed to digest circuit", Cause: err}
	}
	report.CircuitDigest = hexutil.Encode(digest[:])

	c.log.Info("Synthesizing circuit", "k", c.config.K, "events", report.Events, "memory", report.MemoryRows,
		"jumps", len(tables.Jumps), "program", report.ProgramDigest)

	asg := plonk.NewAssignment(cs, c.config.K)
	if err := circuit.Synthesize(ctx, cfg, asg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &CircuitError{Code: ErrSynthesis, Message: "failed to assign circuit", Cause: err}
	}

	failures := plonk.NewMockProver(cs, asg).Verify()
	report.TotalFailures = len(failures)
	report.Accepted = len(failures) == 0

	limit := len(failures)
	if c.config.MaxFailures > 0 && limit > c.config.MaxFailures {
		limit = c.config.MaxFailures
	}
	for _, f := range failures[:limit] {
		report.Failures = append(report.Failures, Failure{Kind: f.Kind.String(), Name: f.Name, Index: f.Index, Row: f.Row})
	}

	if report.Accepted {
		c.log.Info("Trace accepted", "events", report.Events, "circuit", report.CircuitDigest)
	} else {
		c.log.Warn("Trace rejected", "failures", report.TotalFailures, "first", failures[0].String())
	}
	return report, nil
}
