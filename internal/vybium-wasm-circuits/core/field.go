// Package core provides the BN254 scalar field primitives shared by every
// table of the circuit.
//
// Cells, constants and packed encodings all live in the scalar field of
// BN254. The field is wide enough (~254 bits) to hold the 128+ bit packed
// tuples used by the memory, instruction and jump lookups without wrapping.
package core

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"
)

// MaxShift is the largest power of two kept in the shift table
const MaxShift = 253

var (
	// Zero is the additive identity
	Zero fr.Element

	// One is the multiplicative identity
	One = NewElement(1)

	pow2 [MaxShift + 1]fr.Element
)

func init() {
	pow2[0].SetOne()
	for i := 1; i <= MaxShift; i++ {
		pow2[i].Double(&pow2[i-1])
	}
}

// NewElement creates a field element from a uint64
func NewElement(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

// NewSignedElement creates a field element from an int64, mapping negative
// values to their additive inverse
func NewSignedElement(v int64) fr.Element {
	var e fr.Element
	e.SetInt64(v)
	return e
}

// PowerOfTwo returns 2^shift
func PowerOfTwo(shift uint) fr.Element {
	if shift > MaxShift {
		panic(fmt.Sprintf("core: shift %d exceeds field capacity", shift))
	}
	return pow2[shift]
}

// FromUint256 reduces a 256-bit integer into the field
func FromUint256(v *uint256.Int) fr.Element {
	b := v.Bytes32()
	var e fr.Element
	e.SetBytes(b[:])
	return e
}

// FromBig reduces a big integer into the field
func FromBig(v *big.Int) fr.Element {
	var e fr.Element
	e.SetBigInt(v)
	return e
}

// ToUint256 returns the canonical representative of e
func ToUint256(e fr.Element) *uint256.Int {
	b := e.Bytes()
	return new(uint256.Int).SetBytes32(b[:])
}

// ToUint64 returns the canonical representative of e if it fits in 64 bits
func ToUint64(e fr.Element) (uint64, error) {
	if !e.IsUint64() {
		return 0, fmt.Errorf("field element %s does not fit in 64 bits", e.String())
	}
	return e.Uint64(), nil
}

// Sub returns a - b
func Sub(a, b fr.Element) fr.Element {
	var r fr.Element
	r.Sub(&a, &b)
	return r
}

// Inverse returns a^-1, or zero when a is zero
func Inverse(a fr.Element) fr.Element {
	var r fr.Element
	r.Inverse(&a)
	return r
}
