package circuits

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/core"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

// Value64Config decomposes a 64-bit value into little-endian bytes:
// value = sum(byte_i * 256^i), each byte in the byte table.
type Value64Config struct {
	value plonk.Column
	bytes [8]plonk.Column
}

// ConfigureValue64 declares the decomposition, active where enable is 1
func ConfigureValue64(cs *plonk.ConstraintSystem, name string, enable plonk.Expression, rng *RangeConfig) *Value64Config {
	v := &Value64Config{value: cs.AdviceColumn(name)}

	terms := make([]plonk.Expression, 8)
	for i := range v.bytes {
		v.bytes[i] = cs.AdviceColumn(fmt.Sprintf("%s byte%d", name, i))
		terms[i] = plonk.Shl(v.bytes[i].Cur(), uint(8*i))
		rng.LookupByte(cs, fmt.Sprintf("%s byte%d range", name, i), plonk.Mul(enable, v.bytes[i].Cur()))
	}

	cs.CreateGate(name+" bytes", plonk.Mul(enable, plonk.Sub(v.value.Cur(), plonk.Add(terms...))))
	return v
}

// Value queries the combined value
func (v *Value64Config) Value() plonk.Expression { return v.value.Cur() }

// Assign writes value and its bytes at row
func (v *Value64Config) Assign(asg *plonk.Assignment, row int, value uint64) error {
	if _, err := asg.AssignAdviceUint(v.value, row, value); err != nil {
		return err
	}
	for i := range v.bytes {
		if _, err := asg.AssignAdviceUint(v.bytes[i], row, (value>>(8*i))&0xff); err != nil {
			return err
		}
	}
	return nil
}

// TValueConfig is a typed value: a Value64 decomposition plus a vtype
// column, with every byte looked up in the sized-value table against vtype.
// A witnessed (vtype, value) is therefore canonical for its type.
type TValueConfig struct {
	*Value64Config
	vtype plonk.Column
}

// ConfigureTValue declares a typed value, active where enable is 1
func ConfigureTValue(cs *plonk.ConstraintSystem, name string, enable plonk.Expression, rng *RangeConfig) *TValueConfig {
	t := &TValueConfig{
		Value64Config: ConfigureValue64(cs, name, enable, rng),
		vtype:         cs.AdviceColumn(name + " vtype"),
	}

	// A small integer vtype cannot shift an entry into another byte position
	rng.LookupCommon(cs, name+" vtype range", plonk.Mul(enable, t.vtype.Cur()))
	for i := range t.bytes {
		entry := plonk.Add(
			plonk.Uint(uint64(i)<<specs.SizedPosShift),
			plonk.Shl(t.vtype.Cur(), specs.SizedVTypeShift),
			plonk.Shl(t.bytes[i].Cur(), specs.SizedByteShift),
		)
		rng.LookupSized(cs, fmt.Sprintf("%s byte%d sized", name, i), plonk.Mul(enable, entry))
	}
	return t
}

// VType queries the declared type
func (t *TValueConfig) VType() plonk.Expression { return t.vtype.Cur() }

// Assign writes a typed value at row
func (t *TValueConfig) Assign(asg *plonk.Assignment, row int, vtype specs.VarType, value uint64) error {
	if _, err := asg.AssignAdviceUint(t.vtype, row, uint64(vtype)); err != nil {
		return err
	}
	return t.Value64Config.Assign(asg, row, value)
}

// IsZeroConfig witnesses whether an expression is zero:
//
//	x * inv = 1 - is_zero
//	x * is_zero = 0
type IsZeroConfig struct {
	x      plonk.Expression
	inv    plonk.Column
	isZero plonk.Column
}

// ConfigureIsZero declares the gadget for x, active where enable is 1
func ConfigureIsZero(cs *plonk.ConstraintSystem, name string, enable, x plonk.Expression) *IsZeroConfig {
	z := &IsZeroConfig{
		x:      x,
		inv:    cs.AdviceColumn(name + " inv"),
		isZero: cs.AdviceColumn(name + " is zero"),
	}
	cs.CreateGate(name+" is zero",
		plonk.Mul(enable, plonk.Sub(plonk.Mul(x, z.inv.Cur()), plonk.Not(z.isZero.Cur()))),
		plonk.Mul(enable, x, z.isZero.Cur()),
	)
	return z
}

// IsZero is 1 iff x is zero
func (z *IsZeroConfig) IsZero() plonk.Expression { return z.isZero.Cur() }

// Assign writes the witness for the value x takes at row
func (z *IsZeroConfig) Assign(asg *plonk.Assignment, row int, x fr.Element) error {
	if _, err := asg.AssignAdvice(z.inv, row, core.Inverse(x)); err != nil {
		return err
	}
	isZero := uint64(0)
	if x.IsZero() {
		isZero = 1
	}
	_, err := asg.AssignAdviceUint(z.isZero, row, isZero)
	return err
}
