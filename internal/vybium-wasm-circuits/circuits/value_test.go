package circuits

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/core"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/utils"
)

type valueCircuit struct {
	cs     *plonk.ConstraintSystem
	rng    *RangeConfig
	enable plonk.Column
	value  *TValueConfig
	isZero *IsZeroConfig
}

func newValueCircuit() *valueCircuit {
	cs := plonk.NewConstraintSystem()
	c := &valueCircuit{
		cs:     cs,
		rng:    ConfigureRange(cs, 8),
		enable: cs.AdviceColumn("enable"),
	}
	c.value = ConfigureTValue(cs, "v", c.enable.Cur(), c.rng)
	c.isZero = ConfigureIsZero(cs, "v", c.enable.Cur(), c.value.Value())
	return c
}

func (c *valueCircuit) newAssignment(t *testing.T) *plonk.Assignment {
	asg := plonk.NewAssignment(c.cs, utils.MinK)
	require.NoError(t, c.rng.Assign(asg))
	return asg
}

func (c *valueCircuit) assignRow(t *testing.T, asg *plonk.Assignment, row int, vtype specs.VarType, value uint64) {
	_, err := asg.AssignAdviceUint(c.enable, row, 1)
	require.NoError(t, err)
	require.NoError(t, c.value.Assign(asg, row, vtype, value))
	require.NoError(t, c.isZero.Assign(asg, row, core.NewElement(value)))
}

func (c *valueCircuit) assign(t *testing.T, vtype specs.VarType, value uint64) *plonk.Assignment {
	asg := c.newAssignment(t)
	c.assignRow(t, asg, 0, vtype, value)
	return asg
}

func TestSizedValueBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		vtype specs.VarType
		value uint64
		ok    bool
	}{
		{"u8 max", specs.U8, 0xff, true},
		{"u8 overflow", specs.U8, 0x100, false},
		{"i16 max", specs.I16, 0xffff, true},
		{"i16 overflow", specs.I16, 0x10000, false},
		{"i32 max", specs.I32, 0xffffffff, true},
		{"u32 overflow", specs.U32, 1 << 32, false},
		{"i64 max", specs.I64, ^uint64(0), true},
		{"zero", specs.U8, 0, true},
		{"float type", specs.F32, 1, false},
	}

	c := newValueCircuit()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := plonk.NewMockProver(c.cs, c.assign(t, tt.vtype, tt.value)).Verify()
			if tt.ok {
				require.Empty(t, failures)
			} else {
				require.True(t, hasFailure(failures, plonk.LookupFailure, ""), "failures: %v", failures)
			}
		})
	}
}

func TestSizedValueByteCoverage(t *testing.T) {
	c := newValueCircuit()
	for _, vtype := range specs.IntegerTypes {
		t.Run(vtype.String(), func(t *testing.T) {
			asg := c.newAssignment(t)
			row := 0
			for pos := 0; pos < vtype.Size(); pos++ {
				for b := uint64(0); b < 256; b++ {
					c.assignRow(t, asg, row, vtype, b<<(8*pos))
					row++
				}
			}
			require.Empty(t, plonk.NewMockProver(c.cs, asg).Verify())

			rejected := make(map[int]bool)
			for pos := vtype.Size(); pos < 8; pos++ {
				c.assignRow(t, asg, row, vtype, 1<<(8*pos))
				rejected[row] = true
				row++
			}

			failures := plonk.NewMockProver(c.cs, asg).Verify()
			failed := make(map[int]bool)
			for _, f := range failures {
				require.Equal(t, plonk.LookupFailure, f.Kind, "failure: %v", f)
				require.True(t, rejected[f.Row], "unexpected failure: %v", f)
				failed[f.Row] = true
			}
			require.Equal(t, rejected, failed)
		})
	}
}

func TestValueBytesGate(t *testing.T) {
	c := newValueCircuit()
	asg := c.assign(t, specs.I32, 0x01020304)
	asg.Set(c.value.bytes[1], 0, core.NewElement(0x04))

	failures := plonk.NewMockProver(c.cs, asg).Verify()
	require.True(t, hasFailure(failures, plonk.GateFailure, "v bytes"))
}

func TestIsZero(t *testing.T) {
	c := newValueCircuit()

	for _, v := range []uint64{0, 1, 0xdeadbeef} {
		asg := c.assign(t, specs.I32, v)
		require.Empty(t, plonk.NewMockProver(c.cs, asg).Verify())
	}

	asg := c.assign(t, specs.I32, 5)
	asg.Set(c.isZero.isZero, 0, core.One)
	require.True(t, hasFailure(plonk.NewMockProver(c.cs, asg).Verify(), plonk.GateFailure, "v is zero"))
}
