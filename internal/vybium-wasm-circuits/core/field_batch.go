package core

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// RowDifferences computes the adjacent differences of a column together with
// their inverses.
//
// diffs[i] = values[i] - values[i-1], with values[-1] taken as zero.
// inverses[i] = diffs[i]^-1, or zero when diffs[i] is zero.
//
// The inverses are computed with Montgomery's batch inversion trick, which
// needs a single field inversion for the whole column. Zero differences are
// common (sorted keys repeat) and are passed through unchanged.
func RowDifferences(values []fr.Element) (diffs, inverses []fr.Element) {
	if len(values) == 0 {
		return nil, nil
	}

	diffs = make([]fr.Element, len(values))
	var prev fr.Element
	for i := range values {
		diffs[i].Sub(&values[i], &prev)
		prev = values[i]
	}

	return diffs, fr.BatchInvert(diffs)
}

// ElementsFromUint64 lifts a slice of uint64 into the field
func ElementsFromUint64(values []uint64) []fr.Element {
	out := make([]fr.Element, len(values))
	for i, v := range values {
		out[i].SetUint64(v)
	}
	return out
}
