package plonk

import (
	"fmt"
	"io"
)

// Gate is a named group of polynomials that must vanish on every row
type Gate struct {
	Name  string
	Polys []Expression
}

// Lookup asserts that Input, evaluated on every row, is a value of the
// table column Table. The zero value is always a member.
type Lookup struct {
	Name  string
	Input Expression
	Table Column
}

// DynamicLookup asserts that Input, evaluated on every row, equals Target
// evaluated on some row. The zero value is always a member.
type DynamicLookup struct {
	Name   string
	Input  Expression
	Target Expression
}

type columnMeta struct {
	name     string
	equality bool
}

// ConstraintSystem collects the columns, gates and lookups of a circuit.
//
// It is populated once during configuration and is read-only afterwards.
type ConstraintSystem struct {
	advice         []columnMeta
	tables         []columnMeta
	gates          []Gate
	lookups        []Lookup
	dynamicLookups []DynamicLookup
}

// NewConstraintSystem creates an empty constraint system
func NewConstraintSystem() *ConstraintSystem {
	return &ConstraintSystem{
		advice:         make([]columnMeta, 0),
		tables:         make([]columnMeta, 0),
		gates:          make([]Gate, 0),
		lookups:        make([]Lookup, 0),
		dynamicLookups: make([]DynamicLookup, 0),
	}
}

// AdviceColumn declares a witness column
func (cs *ConstraintSystem) AdviceColumn(name string) Column {
	cs.advice = append(cs.advice, columnMeta{name: name})
	return Column{Kind: Advice, Index: len(cs.advice) - 1}
}

// TableColumn declares a fixed lookup table column
func (cs *ConstraintSystem) TableColumn(name string) Column {
	cs.tables = append(cs.tables, columnMeta{name: name})
	return Column{Kind: Table, Index: len(cs.tables) - 1}
}

// EnableEquality allows cells of an advice column to take part in copy
// constraints
func (cs *ConstraintSystem) EnableEquality(c Column) {
	if c.Kind != Advice {
		panic(fmt.Sprintf("plonk: equality on %s column %q", c.Kind, cs.ColumnName(c)))
	}
	cs.advice[c.Index].equality = true
}

// CreateGate registers a gate
func (cs *ConstraintSystem) CreateGate(name string, polys ...Expression) {
	if len(polys) == 0 {
		panic(fmt.Sprintf("plonk: gate %q has no polynomials", name))
	}
	cs.gates = append(cs.gates, Gate{Name: name, Polys: polys})
}

// Lookup registers a lookup of input into a table column
func (cs *ConstraintSystem) Lookup(name string, input Expression, table Column) {
	if table.Kind != Table {
		panic(fmt.Sprintf("plonk: lookup %q targets %s column", name, table.Kind))
	}
	cs.lookups = append(cs.lookups, Lookup{Name: name, Input: input, Table: table})
}

// LookupAny registers a lookup of input into target evaluated over all rows
func (cs *ConstraintSystem) LookupAny(name string, input, target Expression) {
	cs.dynamicLookups = append(cs.dynamicLookups, DynamicLookup{Name: name, Input: input, Target: target})
}

// ColumnName returns the declared name of c
func (cs *ConstraintSystem) ColumnName(c Column) string {
	switch c.Kind {
	case Advice:
		return cs.advice[c.Index].name
	case Table:
		return cs.tables[c.Index].name
	default:
		return fmt.Sprintf("%s[%d]", c.Kind, c.Index)
	}
}

// HasEquality reports whether c may take part in copy constraints
func (cs *ConstraintSystem) HasEquality(c Column) bool {
	return c.Kind == Advice && cs.advice[c.Index].equality
}

// NumAdvice returns the number of advice columns
func (cs *ConstraintSystem) NumAdvice() int { return len(cs.advice) }

// NumTables returns the number of table columns
func (cs *ConstraintSystem) NumTables() int { return len(cs.tables) }

// Gates returns the registered gates
func (cs *ConstraintSystem) Gates() []Gate { return cs.gates }

// Lookups returns the registered table lookups
func (cs *ConstraintSystem) Lookups() []Lookup { return cs.lookups }

// DynamicLookups returns the registered dynamic lookups
func (cs *ConstraintSystem) DynamicLookups() []DynamicLookup { return cs.dynamicLookups }

// Describe writes a canonical textual description of the constraint system.
// Two systems with the same description constrain the same relation.
func (cs *ConstraintSystem) Describe(w io.Writer) error {
	for i, c := range cs.advice {
		if _, err := fmt.Fprintf(w, "advice %d %s equality=%t\n", i, c.name, c.equality); err != nil {
			return err
		}
	}
	for i, c := range cs.tables {
		if _, err := fmt.Fprintf(w, "table %d %s\n", i, c.name); err != nil {
			return err
		}
	}
	for _, g := range cs.gates {
		for i, p := range g.Polys {
			if _, err := fmt.Fprintf(w, "gate %s[%d] %s\n", g.Name, i, Format(p, cs.ColumnName)); err != nil {
				return err
			}
		}
	}
	for _, l := range cs.lookups {
		if _, err := fmt.Fprintf(w, "lookup %s %s in %s\n", l.Name, Format(l.Input, cs.ColumnName), cs.ColumnName(l.Table)); err != nil {
			return err
		}
	}
	for _, l := range cs.dynamicLookups {
		if _, err := fmt.Fprintf(w, "lookup_any %s %s in %s\n", l.Name, Format(l.Input, cs.ColumnName), Format(l.Target, cs.ColumnName)); err != nil {
			return err
		}
	}
	return nil
}
