package circuits

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
)

// rowWriter assigns cells of a single row, keeping the first error
type rowWriter struct {
	asg *plonk.Assignment
	row int
	err error
}

func (w *rowWriter) uint(col plonk.Column, v uint64) plonk.Cell {
	if w.err != nil {
		return plonk.Cell{}
	}
	cell, err := w.asg.AssignAdviceUint(col, w.row, v)
	w.err = err
	return cell
}

func (w *rowWriter) elem(col plonk.Column, v fr.Element) plonk.Cell {
	if w.err != nil {
		return plonk.Cell{}
	}
	cell, err := w.asg.AssignAdvice(col, w.row, v)
	w.err = err
	return cell
}

func (w *rowWriter) do(fn func(*plonk.Assignment, int) error) {
	if w.err != nil {
		return
	}
	w.err = fn(w.asg, w.row)
}

func boolUint(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
