package circuits

import (
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/core"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
)

// RowDiffConfig witnesses whether a column changed from the previous row.
//
// Per row it keeps data, a boolean same and the inverse of the difference
// to the previous row (zero when the difference is zero). On enabled rows:
//
//	(cur - prev) * inv = 1 - same
//	(cur - prev) * same = 0
type RowDiffConfig struct {
	data plonk.Column
	same plonk.Column
	inv  plonk.Column
}

// ConfigureRowDiff declares the gadget for one key column
func ConfigureRowDiff(cs *plonk.ConstraintSystem, name string, enable plonk.Expression) *RowDiffConfig {
	r := &RowDiffConfig{
		data: cs.AdviceColumn(name),
		same: cs.AdviceColumn(name + " same"),
		inv:  cs.AdviceColumn(name + " inv"),
	}

	cs.CreateGate(name+" row diff",
		plonk.Mul(enable, plonk.Sub(plonk.Mul(r.Diff(), r.inv.Cur()), plonk.Not(r.same.Cur()))),
		plonk.Mul(enable, r.Diff(), r.same.Cur()),
	)
	return r
}

// Data queries the key on the current row
func (r *RowDiffConfig) Data() plonk.Expression { return r.data.Cur() }

// Same is 1 iff the key equals the previous row's
func (r *RowDiffConfig) Same() plonk.Expression { return r.same.Cur() }

// Diff is cur - prev
func (r *RowDiffConfig) Diff() plonk.Expression { return plonk.Sub(r.data.Cur(), r.data.Prev()) }

// Assign writes the column values for rows 0..len(values)-1
func (r *RowDiffConfig) Assign(asg *plonk.Assignment, values []uint64) error {
	diffs, inverses := core.RowDifferences(core.ElementsFromUint64(values))
	for row, v := range values {
		if _, err := asg.AssignAdviceUint(r.data, row, v); err != nil {
			return err
		}
		same := uint64(0)
		if diffs[row].IsZero() {
			same = 1
		}
		if _, err := asg.AssignAdviceUint(r.same, row, same); err != nil {
			return err
		}
		if _, err := asg.AssignAdvice(r.inv, row, inverses[row]); err != nil {
			return err
		}
	}
	return nil
}
