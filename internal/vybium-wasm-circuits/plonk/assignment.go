package plonk

import (
	"errors"
	"fmt"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/core"
)

var (
	// ErrRowOutOfRange is returned when a cell lies outside the 2^k rows
	ErrRowOutOfRange = errors.New("row out of range")

	// ErrEqualityNotEnabled is returned when a copy constraint touches a
	// column without equality enabled
	ErrEqualityNotEnabled = errors.New("equality not enabled")
)

// Assignment holds the witness and table values of one circuit instance.
//
// Each table of the circuit writes a disjoint set of columns, so concurrent
// writers never touch the same column slice. Copy constraints are shared and
// guarded by a mutex.
type Assignment struct {
	cs     *ConstraintSystem
	k      uint
	rows   int
	advice [][]fr.Element
	tables [][]fr.Element

	mu     sync.Mutex
	copies [][2]Cell
}

// NewAssignment allocates an all-zero assignment of 2^k rows for cs
func NewAssignment(cs *ConstraintSystem, k uint) *Assignment {
	rows := 1 << k
	advice := make([][]fr.Element, cs.NumAdvice())
	for i := range advice {
		advice[i] = make([]fr.Element, rows)
	}
	tables := make([][]fr.Element, cs.NumTables())
	for i := range tables {
		tables[i] = make([]fr.Element, rows)
	}

	return &Assignment{
		cs:     cs,
		k:      k,
		rows:   rows,
		advice: advice,
		tables: tables,
		copies: make([][2]Cell, 0),
	}
}

// K returns the log2 of the number of rows
func (a *Assignment) K() uint { return a.k }

// Rows returns the number of rows
func (a *Assignment) Rows() int { return a.rows }

// ConstraintSystem returns the system the assignment was built for
func (a *Assignment) ConstraintSystem() *ConstraintSystem { return a.cs }

// AssignAdvice writes a witness value
func (a *Assignment) AssignAdvice(col Column, row int, v fr.Element) (Cell, error) {
	if col.Kind != Advice {
		return Cell{}, fmt.Errorf("assign %q: not an advice column", a.cs.ColumnName(col))
	}
	if row < 0 || row >= a.rows {
		return Cell{}, fmt.Errorf("assign %q at row %d: %w", a.cs.ColumnName(col), row, ErrRowOutOfRange)
	}
	a.advice[col.Index][row] = v
	return Cell{Column: col, Row: row}, nil
}

// AssignAdviceUint writes a witness value given as uint64
func (a *Assignment) AssignAdviceUint(col Column, row int, v uint64) (Cell, error) {
	return a.AssignAdvice(col, row, core.NewElement(v))
}

// AssignTable writes a lookup table value
func (a *Assignment) AssignTable(col Column, row int, v fr.Element) error {
	if col.Kind != Table {
		return fmt.Errorf("assign %q: not a table column", a.cs.ColumnName(col))
	}
	if row < 0 || row >= a.rows {
		return fmt.Errorf("assign table %q at row %d: %w", a.cs.ColumnName(col), row, ErrRowOutOfRange)
	}
	a.tables[col.Index][row] = v
	return nil
}

// Constrain records a copy constraint between two assigned cells
func (a *Assignment) Constrain(x, y Cell) error {
	for _, c := range []Cell{x, y} {
		if !a.cs.HasEquality(c.Column) {
			return fmt.Errorf("copy constraint on %q: %w", a.cs.ColumnName(c.Column), ErrEqualityNotEnabled)
		}
	}
	a.mu.Lock()
	a.copies = append(a.copies, [2]Cell{x, y})
	a.mu.Unlock()
	return nil
}

// Copies returns a snapshot of the recorded copy constraints
func (a *Assignment) Copies() [][2]Cell {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([][2]Cell, len(a.copies))
	copy(out, a.copies)
	return out
}

// Value reads a cell. Rows outside the matrix read as zero.
func (a *Assignment) Value(col Column, row int) fr.Element {
	if row < 0 || row >= a.rows {
		return core.Zero
	}
	switch col.Kind {
	case Advice:
		return a.advice[col.Index][row]
	case Table:
		return a.tables[col.Index][row]
	default:
		return core.Zero
	}
}

// Set overwrites an advice cell without bounds reporting. It exists for
// tamper tests that need to corrupt an otherwise valid witness.
func (a *Assignment) Set(col Column, row int, v fr.Element) {
	a.advice[col.Index][row] = v
}
