// Package circuits declares and assigns the tables of the trace-to-constraint
// compiler: range tables, the instruction and init memory universes, the
// memory, jump and event tables, and the per-opcode sub-configurations of the
// event table.
package circuits

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/core"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

// SizedTableSize is the number of entries of the sized-value table
var SizedTableSize = sizedTableSize()

func sizedTableSize() int {
	n := 0
	for _, t := range specs.IntegerTypes {
		n += t.Size()*256 + (8 - t.Size())
	}
	return n
}

// RangeConfig holds the lookup universes used for range proofs:
//
//   - byte table: {0, ..., 255}
//   - sized-value table: pos<<12 | vtype<<8 | byte, where only byte 0 is
//     admitted at positions at or above the width of vtype
//   - common range table: {0, ..., 2^bits - 1}, used for sort differences
//     and identifiers
type RangeConfig struct {
	byteTable   plonk.Column
	sizedTable  plonk.Column
	commonTable plonk.Column
	commonBits  uint
}

// ConfigureRange declares the range tables
func ConfigureRange(cs *plonk.ConstraintSystem, commonBits uint) *RangeConfig {
	return &RangeConfig{
		byteTable:   cs.TableColumn("range byte"),
		sizedTable:  cs.TableColumn("range sized value"),
		commonTable: cs.TableColumn("range common"),
		commonBits:  commonBits,
	}
}

// LookupByte constrains expr to {0, ..., 255}
func (r *RangeConfig) LookupByte(cs *plonk.ConstraintSystem, name string, expr plonk.Expression) {
	cs.Lookup(name, expr, r.byteTable)
}

// LookupSized constrains an encoded (pos, vtype, byte) triple to the
// sized-value table
func (r *RangeConfig) LookupSized(cs *plonk.ConstraintSystem, name string, expr plonk.Expression) {
	cs.Lookup(name, expr, r.sizedTable)
}

// LookupCommon constrains expr to the common range
func (r *RangeConfig) LookupCommon(cs *plonk.ConstraintSystem, name string, expr plonk.Expression) {
	cs.Lookup(name, expr, r.commonTable)
}

// CommonRange returns the size of the common range table
func (r *RangeConfig) CommonRange() int {
	return 1 << r.commonBits
}

// Assign fills the three tables
func (r *RangeConfig) Assign(asg *plonk.Assignment) error {
	if r.CommonRange() > asg.Rows() {
		return fmt.Errorf("common range of %d exceeds %d rows", r.CommonRange(), asg.Rows())
	}
	if SizedTableSize > asg.Rows() {
		return fmt.Errorf("sized-value table of %d entries exceeds %d rows", SizedTableSize, asg.Rows())
	}

	for i := 0; i < 256; i++ {
		if err := asg.AssignTable(r.byteTable, i, core.NewElement(uint64(i))); err != nil {
			return err
		}
	}

	row := 0
	for _, t := range specs.IntegerTypes {
		for pos := 0; pos < 8; pos++ {
			allowed := 1
			if pos < t.Size() {
				allowed = 256
			}
			for b := 0; b < allowed; b++ {
				v := core.NewElement(specs.EncodeSizedValue(pos, t, uint8(b)))
				if err := asg.AssignTable(r.sizedTable, row, v); err != nil {
					return err
				}
				row++
			}
		}
	}

	var v fr.Element
	for i := 0; i < r.CommonRange(); i++ {
		v.SetUint64(uint64(i))
		if err := asg.AssignTable(r.commonTable, i, v); err != nil {
			return err
		}
	}
	return nil
}
