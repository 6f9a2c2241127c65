// Package plonk implements the Plonkish constraint system the circuit tables
// are declared against.
//
// A circuit is a rectangular matrix of 2^k rows. Advice columns carry the
// witness, table columns carry fixed lookup universes. Gates are polynomials
// over the current, previous and next rows that must vanish everywhere;
// lookups assert that an expression evaluated on a row is a member of a table
// column or of another expression evaluated over all rows.
package plonk

import "fmt"

// ColumnKind distinguishes witness columns from lookup tables
type ColumnKind uint8

const (
	// Advice columns hold witness values supplied by the prover
	Advice ColumnKind = iota

	// Table columns hold a fixed lookup universe
	Table
)

// String returns the kind name
func (k ColumnKind) String() string {
	switch k {
	case Advice:
		return "advice"
	case Table:
		return "table"
	default:
		return fmt.Sprintf("ColumnKind(%d)", uint8(k))
	}
}

// Column identifies one column of the circuit matrix
type Column struct {
	Kind  ColumnKind
	Index int
}

// Cur queries the column on the current row
func (c Column) Cur() Expression {
	return Query{Column: c, Rotation: Cur}
}

// Prev queries the column on the previous row
func (c Column) Prev() Expression {
	return Query{Column: c, Rotation: Prev}
}

// Next queries the column on the next row
func (c Column) Next() Expression {
	return Query{Column: c, Rotation: Next}
}

// Cell is a single assigned position in the matrix
type Cell struct {
	Column Column
	Row    int
}
