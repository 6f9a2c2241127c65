package plonk

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/sync/errgroup"
)

// FailureKind classifies a constraint violation
type FailureKind int

const (
	// GateFailure means a gate polynomial did not vanish
	GateFailure FailureKind = iota

	// LookupFailure means a lookup input was not found in its universe
	LookupFailure

	// CopyFailure means two copy-constrained cells differ
	CopyFailure
)

// String returns the kind name
func (k FailureKind) String() string {
	switch k {
	case GateFailure:
		return "gate"
	case LookupFailure:
		return "lookup"
	case CopyFailure:
		return "copy"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// VerifyFailure reports one violated constraint
type VerifyFailure struct {
	Kind FailureKind
	// Name is the gate or lookup name; copy failures carry the column names
	Name string
	// Index is the polynomial index within a gate
	Index int
	Row   int
}

// String renders the failure
func (f VerifyFailure) String() string {
	switch f.Kind {
	case GateFailure:
		return fmt.Sprintf("gate %q polynomial %d not satisfied at row %d", f.Name, f.Index, f.Row)
	case LookupFailure:
		return fmt.Sprintf("lookup %q input not in table at row %d", f.Name, f.Row)
	default:
		return fmt.Sprintf("copy constraint %s violated at row %d", f.Name, f.Row)
	}
}

// MockProver evaluates every constraint directly against an assignment.
//
// It is the debug-mode checker: instead of producing a proof it reports every
// gate, lookup and copy constraint that the witness violates.
type MockProver struct {
	cs  *ConstraintSystem
	asg *Assignment
}

// NewMockProver creates a checker for the given assignment
func NewMockProver(cs *ConstraintSystem, asg *Assignment) *MockProver {
	return &MockProver{cs: cs, asg: asg}
}

// Verify returns all violated constraints, sorted by kind, name, index and
// row. An empty result means the witness is accepted.
func (p *MockProver) Verify() []VerifyFailure {
	var (
		mu       sync.Mutex
		failures []VerifyFailure
		g        errgroup.Group
	)
	g.SetLimit(runtime.GOMAXPROCS(0))

	collect := func(fs []VerifyFailure) {
		if len(fs) == 0 {
			return
		}
		mu.Lock()
		failures = append(failures, fs...)
		mu.Unlock()
	}

	for _, gate := range p.cs.Gates() {
		for i, poly := range gate.Polys {
			g.Go(func() error {
				collect(p.checkGate(gate.Name, i, poly))
				return nil
			})
		}
	}

	tables := make([]map[fr.Element]struct{}, p.cs.NumTables())
	for i := range tables {
		tables[i] = p.tableUniverse(Column{Kind: Table, Index: i})
	}
	for _, l := range p.cs.Lookups() {
		g.Go(func() error {
			collect(p.checkLookup(l.Name, l.Input, tables[l.Table.Index]))
			return nil
		})
	}

	for _, l := range p.cs.DynamicLookups() {
		g.Go(func() error {
			universe := p.expressionUniverse(l.Target)
			collect(p.checkLookup(l.Name, l.Input, universe))
			return nil
		})
	}

	collect(p.checkCopies())

	_ = g.Wait()

	sort.Slice(failures, func(i, j int) bool {
		a, b := failures[i], failures[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Row < b.Row
	})
	return failures
}

func (p *MockProver) evaluate(e Expression, row int) fr.Element {
	return Evaluate(e, func(c Column, rot Rotation) fr.Element {
		return p.asg.Value(c, row+int(rot))
	})
}

func (p *MockProver) checkGate(name string, idx int, poly Expression) []VerifyFailure {
	var out []VerifyFailure
	for row := 0; row < p.asg.Rows(); row++ {
		v := p.evaluate(poly, row)
		if !v.IsZero() {
			out = append(out, VerifyFailure{Kind: GateFailure, Name: name, Index: idx, Row: row})
		}
	}
	return out
}

func (p *MockProver) tableUniverse(c Column) map[fr.Element]struct{} {
	universe := make(map[fr.Element]struct{}, p.asg.Rows()+1)
	universe[fr.Element{}] = struct{}{}
	for row := 0; row < p.asg.Rows(); row++ {
		universe[p.asg.Value(c, row)] = struct{}{}
	}
	return universe
}

func (p *MockProver) expressionUniverse(target Expression) map[fr.Element]struct{} {
	universe := make(map[fr.Element]struct{}, p.asg.Rows()+1)
	universe[fr.Element{}] = struct{}{}
	for row := 0; row < p.asg.Rows(); row++ {
		universe[p.evaluate(target, row)] = struct{}{}
	}
	return universe
}

func (p *MockProver) checkLookup(name string, input Expression, universe map[fr.Element]struct{}) []VerifyFailure {
	var out []VerifyFailure
	for row := 0; row < p.asg.Rows(); row++ {
		v := p.evaluate(input, row)
		if _, ok := universe[v]; !ok {
			out = append(out, VerifyFailure{Kind: LookupFailure, Name: name, Row: row})
		}
	}
	return out
}

func (p *MockProver) checkCopies() []VerifyFailure {
	var out []VerifyFailure
	for _, c := range p.asg.Copies() {
		a := p.asg.Value(c[0].Column, c[0].Row)
		b := p.asg.Value(c[1].Column, c[1].Row)
		if !a.Equal(&b) {
			out = append(out, VerifyFailure{
				Kind: CopyFailure,
				Name: fmt.Sprintf("%s[%d] == %s[%d]", p.cs.ColumnName(c[0].Column), c[0].Row, p.cs.ColumnName(c[1].Column), c[1].Row),
				Row:  c[0].Row,
			})
		}
	}
	return out
}
