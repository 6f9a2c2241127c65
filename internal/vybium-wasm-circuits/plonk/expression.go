package plonk

import (
	"fmt"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/core"
)

// Rotation is a row offset relative to the row a constraint is evaluated on
type Rotation int

const (
	Prev Rotation = -1
	Cur  Rotation = 0
	Next Rotation = 1
)

// Expression is a polynomial over column queries.
//
// The variant set is closed: Constant, Query, Sum, Product and Negated.
type Expression interface {
	isExpression()
}

// Constant is a field constant
type Constant struct {
	Value fr.Element
}

// Query reads a column at a rotation
type Query struct {
	Column   Column
	Rotation Rotation
}

// Sum adds its terms
type Sum struct {
	Terms []Expression
}

// Product multiplies its factors
type Product struct {
	Factors []Expression
}

// Negated is the additive inverse of Inner
type Negated struct {
	Inner Expression
}

func (Constant) isExpression() {}
func (Query) isExpression()    {}
func (Sum) isExpression()      {}
func (Product) isExpression()  {}
func (Negated) isExpression()  {}

// Const wraps a field element
func Const(v fr.Element) Expression {
	return Constant{Value: v}
}

// Uint wraps an unsigned integer constant
func Uint(v uint64) Expression {
	return Constant{Value: core.NewElement(v)}
}

// Int wraps a signed integer constant
func Int(v int64) Expression {
	return Constant{Value: core.NewSignedElement(v)}
}

// Zero is the constant 0
func Zero() Expression {
	return Constant{}
}

// One is the constant 1
func One() Expression {
	return Constant{Value: core.One}
}

// Add sums the given terms
func Add(terms ...Expression) Expression {
	switch len(terms) {
	case 0:
		return Zero()
	case 1:
		return terms[0]
	}
	return Sum{Terms: terms}
}

// Mul multiplies the given factors
func Mul(factors ...Expression) Expression {
	switch len(factors) {
	case 0:
		return One()
	case 1:
		return factors[0]
	}
	return Product{Factors: factors}
}

// Sub returns a - b
func Sub(a, b Expression) Expression {
	return Sum{Terms: []Expression{a, Negated{Inner: b}}}
}

// Neg returns -a
func Neg(a Expression) Expression {
	return Negated{Inner: a}
}

// Scale returns a * c
func Scale(a Expression, c fr.Element) Expression {
	return Product{Factors: []Expression{a, Constant{Value: c}}}
}

// Shl returns a * 2^shift
func Shl(a Expression, shift uint) Expression {
	if shift == 0 {
		return a
	}
	return Scale(a, core.PowerOfTwo(shift))
}

// Not returns 1 - a for a boolean a
func Not(a Expression) Expression {
	return Sub(One(), a)
}

// Bool returns a * (1 - a), which vanishes iff a is 0 or 1
func Bool(a Expression) Expression {
	return Mul(a, Not(a))
}

// Evaluate computes e, resolving column queries through query
func Evaluate(e Expression, query func(Column, Rotation) fr.Element) fr.Element {
	switch e := e.(type) {
	case Constant:
		return e.Value
	case Query:
		return query(e.Column, e.Rotation)
	case Sum:
		var acc fr.Element
		for _, t := range e.Terms {
			v := Evaluate(t, query)
			acc.Add(&acc, &v)
		}
		return acc
	case Product:
		acc := core.One
		for _, f := range e.Factors {
			v := Evaluate(f, query)
			if v.IsZero() {
				return core.Zero
			}
			acc.Mul(&acc, &v)
		}
		return acc
	case Negated:
		v := Evaluate(e.Inner, query)
		v.Neg(&v)
		return v
	default:
		panic(fmt.Sprintf("plonk: unknown expression %T", e))
	}
}

// Format renders e with column names resolved through name
func Format(e Expression, name func(Column) string) string {
	var sb strings.Builder
	format(&sb, e, name)
	return sb.String()
}

func format(sb *strings.Builder, e Expression, name func(Column) string) {
	switch e := e.(type) {
	case Constant:
		sb.WriteString(e.Value.String())
	case Query:
		sb.WriteString(name(e.Column))
		switch e.Rotation {
		case Prev:
			sb.WriteString("@prev")
		case Next:
			sb.WriteString("@next")
		}
	case Sum:
		sb.WriteByte('(')
		for i, t := range e.Terms {
			if i > 0 {
				sb.WriteString(" + ")
			}
			format(sb, t, name)
		}
		sb.WriteByte(')')
	case Product:
		sb.WriteByte('(')
		for i, f := range e.Factors {
			if i > 0 {
				sb.WriteString(" * ")
			}
			format(sb, f, name)
		}
		sb.WriteByte(')')
	case Negated:
		sb.WriteByte('-')
		format(sb, e.Inner, name)
	default:
		panic(fmt.Sprintf("plonk: unknown expression %T", e))
	}
}
