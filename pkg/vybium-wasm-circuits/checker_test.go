package vybiumwasmcircuits

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/utils"
)

func testConfig() *Config {
	return DefaultConfig().WithK(13).WithCommonRangeBits(13)
}

func demoTables(t *testing.T) *Tables {
	t.Helper()
	tables, err := Trace(DemoModule(), 0)
	require.NoError(t, err)
	return tables
}

func TestCheckAcceptsDemo(t *testing.T) {
	checker, err := NewChecker(testConfig(), nil)
	require.NoError(t, err)

	report, err := checker.Check(context.Background(), demoTables(t))
	require.NoError(t, err)
	require.True(t, report.Accepted)
	require.Empty(t, report.Failures)
	require.Equal(t, 24, report.Events)
	require.Equal(t, 39, report.MemoryRows)
	require.Len(t, report.ProgramDigest, 2+2*utils.DigestBytes)
	require.Len(t, report.InitMemoryDigest, 2+2*utils.DigestBytes)
	require.Len(t, report.CircuitDigest, 66)
}

func TestCheckDerivesMissingMemory(t *testing.T) {
	tables := demoTables(t)
	tables.Memory = nil

	checker, err := NewChecker(testConfig(), nil)
	require.NoError(t, err)

	report, err := checker.Check(context.Background(), tables)
	require.NoError(t, err)
	require.True(t, report.Accepted)
	require.Equal(t, 39, report.MemoryRows)
}

func TestCheckBundleFromJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTables(&buf, demoTables(t)))

	tables, err := ReadTables(&buf)
	require.NoError(t, err)

	checker, err := NewChecker(testConfig(), nil)
	require.NoError(t, err)
	report, err := checker.Check(context.Background(), tables)
	require.NoError(t, err)
	require.True(t, report.Accepted)
}

func TestCheckRejectsForgedRead(t *testing.T) {
	tables := demoTables(t)
	forged := false
	for i, m := range tables.Memory {
		if m.LType == specs.Heap && m.AType == specs.Read {
			tables.Memory[i].Value++
			forged = true
			break
		}
	}
	require.True(t, forged)

	checker, err := NewChecker(testConfig().WithMaxFailures(2), nil)
	require.NoError(t, err)

	report, err := checker.Check(context.Background(), tables)
	require.NoError(t, err)
	require.False(t, report.Accepted)
	require.Len(t, report.Failures, 2)
	require.GreaterOrEqual(t, report.TotalFailures, 2)
}

func TestCheckProgramAttestation(t *testing.T) {
	tables := demoTables(t)

	checker, err := NewChecker(testConfig(), nil)
	require.NoError(t, err)
	report, err := checker.Check(context.Background(), tables)
	require.NoError(t, err)

	pinned, err := NewChecker(testConfig().WithExpectedProgramDigest(report.ProgramDigest), nil)
	require.NoError(t, err)
	_, err = pinned.Check(context.Background(), tables)
	require.NoError(t, err)

	tables.Instructions[0].Opcode.Arg1++
	_, err = pinned.Check(context.Background(), tables)
	require.ErrorIs(t, err, ErrDigest)

	// A lone hash element is not a digest
	_, err = NewChecker(testConfig().WithExpectedProgramDigest(report.ProgramDigest[:18]), nil)
	require.ErrorIs(t, err, ErrConfig)
}

func TestCheckErrors(t *testing.T) {
	_, err := NewChecker(DefaultConfig().WithK(4), nil)
	require.ErrorIs(t, err, ErrConfig)

	checker, err := NewChecker(testConfig().WithCommonRangeBits(8), nil)
	require.NoError(t, err)

	_, err = checker.Check(context.Background(), nil)
	require.ErrorIs(t, err, ErrInput)

	tables := demoTables(t)
	tables.Jumps[0].Eid = 300
	_, err = checker.Check(context.Background(), tables)
	require.ErrorIs(t, err, ErrCapacity)

	tables = demoTables(t)
	tables.Instructions[0].Opcode.Arg0 = uint16(specs.F64)
	_, err = checker.Check(context.Background(), tables)
	require.ErrorIs(t, err, ErrInput)

	_, err = ReadTables(bytes.NewBufferString("{"))
	require.ErrorIs(t, err, ErrInput)
}

func TestTraceErrors(t *testing.T) {
	_, err := Trace(&Module{}, 0)
	require.ErrorIs(t, err, ErrInput)

	m := &Module{Functions: []Function{{Name: "main", Body: []Opcode{specs.NewDrop()}}}}
	_, err = Trace(m, 0)
	require.ErrorIs(t, err, ErrTrace)
}

func TestSizeFor(t *testing.T) {
	tables := demoTables(t)
	require.Equal(t, uint(13), SizeFor(tables, 8))
	require.Equal(t, uint(16), SizeFor(tables, 16))
}

func TestCheckerConfigIsCopied(t *testing.T) {
	config := testConfig()
	checker, err := NewChecker(config, nil)
	require.NoError(t, err)

	config.WithK(20)
	require.Equal(t, uint(13), checker.Config().K)
}
