package plonk

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/core"
)

// counterCircuit declares a column that increments by one on enabled rows,
// a range lookup on it and a dynamic lookup from a second column into it.
type counterCircuit struct {
	cs      *ConstraintSystem
	enable  Column
	counter Column
	probe   Column
	small   Column
}

func newCounterCircuit() *counterCircuit {
	cs := NewConstraintSystem()
	c := &counterCircuit{
		cs:      cs,
		enable:  cs.AdviceColumn("enable"),
		counter: cs.AdviceColumn("counter"),
		probe:   cs.AdviceColumn("probe"),
		small:   cs.TableColumn("small"),
	}
	cs.EnableEquality(c.counter)
	cs.EnableEquality(c.probe)

	cs.CreateGate("counter step",
		Bool(c.enable.Cur()),
		Mul(c.enable.Cur(), Sub(c.counter.Cur(), Add(c.counter.Prev(), One()))),
	)
	cs.Lookup("counter small", Mul(c.enable.Cur(), c.counter.Cur()), c.small)
	cs.LookupAny("probe in counter", c.probe.Cur(), Mul(c.enable.Cur(), c.counter.Cur()))
	return c
}

func (c *counterCircuit) assign(t *testing.T, n int) *Assignment {
	asg := NewAssignment(c.cs, 4)
	for i := 0; i < 8; i++ {
		require.NoError(t, asg.AssignTable(c.small, i, core.NewElement(uint64(i))))
	}
	for row := 0; row < n; row++ {
		_, err := asg.AssignAdviceUint(c.enable, row, 1)
		require.NoError(t, err)
		_, err = asg.AssignAdviceUint(c.counter, row, uint64(row+1))
		require.NoError(t, err)
	}
	return asg
}

func TestMockProverAccepts(t *testing.T) {
	c := newCounterCircuit()
	asg := c.assign(t, 5)

	_, err := asg.AssignAdviceUint(c.probe, 3, 4)
	require.NoError(t, err)

	require.Empty(t, NewMockProver(c.cs, asg).Verify())
}

func TestMockProverReportsGateAndRow(t *testing.T) {
	c := newCounterCircuit()
	asg := c.assign(t, 5)
	asg.Set(c.counter, 2, core.NewElement(9))

	failures := NewMockProver(c.cs, asg).Verify()
	require.NotEmpty(t, failures)

	var gates []VerifyFailure
	for _, f := range failures {
		if f.Kind == GateFailure {
			gates = append(gates, f)
		}
	}
	require.Equal(t, []VerifyFailure{
		{Kind: GateFailure, Name: "counter step", Index: 1, Row: 2},
		{Kind: GateFailure, Name: "counter step", Index: 1, Row: 3},
	}, gates)
	require.Contains(t, failures, VerifyFailure{Kind: LookupFailure, Name: "counter small", Row: 2})
}

func TestMockProverFirstRowReadsZeroPrevious(t *testing.T) {
	c := newCounterCircuit()
	asg := c.assign(t, 3)
	asg.Set(c.counter, 0, core.NewElement(2))
	asg.Set(c.counter, 1, core.NewElement(3))
	asg.Set(c.counter, 2, core.NewElement(4))

	failures := NewMockProver(c.cs, asg).Verify()
	require.Equal(t, []VerifyFailure{{Kind: GateFailure, Name: "counter step", Index: 1, Row: 0}}, failures)
}

func TestMockProverDynamicLookup(t *testing.T) {
	c := newCounterCircuit()
	asg := c.assign(t, 3)
	_, err := asg.AssignAdviceUint(c.probe, 7, 6)
	require.NoError(t, err)

	failures := NewMockProver(c.cs, asg).Verify()
	require.Equal(t, []VerifyFailure{{Kind: LookupFailure, Name: "probe in counter", Row: 7}}, failures)
}

func TestMockProverCopyConstraints(t *testing.T) {
	c := newCounterCircuit()
	asg := c.assign(t, 3)

	a, err := asg.AssignAdviceUint(c.probe, 0, 2)
	require.NoError(t, err)
	require.NoError(t, asg.Constrain(a, Cell{Column: c.counter, Row: 1}))
	require.Empty(t, NewMockProver(c.cs, asg).Verify())

	asg.Set(c.probe, 0, core.NewElement(3))
	failures := NewMockProver(c.cs, asg).Verify()
	require.Len(t, failures, 1)
	require.Equal(t, CopyFailure, failures[0].Kind)

	err = asg.Constrain(a, Cell{Column: c.enable, Row: 0})
	require.ErrorIs(t, err, ErrEqualityNotEnabled)
}

func TestAssignmentBounds(t *testing.T) {
	c := newCounterCircuit()
	asg := NewAssignment(c.cs, 2)

	_, err := asg.AssignAdviceUint(c.counter, 4, 1)
	require.ErrorIs(t, err, ErrRowOutOfRange)
	require.ErrorIs(t, asg.AssignTable(c.small, -1, core.One), ErrRowOutOfRange)

	_, err = asg.AssignAdviceUint(c.small, 0, 1)
	require.Error(t, err)

	below := asg.Value(c.counter, -1)
	require.True(t, below.IsZero())
	above := asg.Value(c.counter, 4)
	require.True(t, above.IsZero())
}

func TestDescribeIsDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, newCounterCircuit().cs.Describe(&a))
	require.NoError(t, newCounterCircuit().cs.Describe(&b))
	require.Equal(t, a.String(), b.String())
	require.Contains(t, a.String(), "gate counter step[1]")
	require.Contains(t, a.String(), "counter@prev")
}
