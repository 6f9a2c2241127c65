package core

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestPowerOfTwo(t *testing.T) {
	tests := []struct {
		shift uint
	}{
		{0}, {1}, {63}, {64}, {128}, {200}, {MaxShift},
	}

	for _, tt := range tests {
		want := new(big.Int).Lsh(big.NewInt(1), tt.shift)
		got := PowerOfTwo(tt.shift)
		require.Equal(t, FromBig(want), got, "2^%d", tt.shift)
	}

	require.Panics(t, func() { PowerOfTwo(MaxShift + 1) })
}

func TestUint256RoundTrip(t *testing.T) {
	v := new(uint256.Int).Lsh(uint256.NewInt(0xdeadbeef), 128)
	v.Or(v, uint256.NewInt(42))

	e := FromUint256(v)
	require.Equal(t, v, ToUint256(e))

	low, err := ToUint64(NewElement(42))
	require.NoError(t, err)
	require.Equal(t, uint64(42), low)

	_, err = ToUint64(e)
	require.Error(t, err)
}

func TestSignedElement(t *testing.T) {
	minusOne := NewSignedElement(-1)
	var sum fr.Element
	sum.Add(&minusOne, &One)
	require.True(t, sum.IsZero())
}

func TestRowDifferences(t *testing.T) {
	values := ElementsFromUint64([]uint64{3, 3, 7, 7, 10})
	diffs, inverses := RowDifferences(values)

	require.Len(t, diffs, 5)
	require.Equal(t, NewElement(3), diffs[0])
	require.True(t, diffs[1].IsZero())
	require.True(t, inverses[1].IsZero())
	require.Equal(t, NewElement(4), diffs[2])

	for i := range diffs {
		if diffs[i].IsZero() {
			continue
		}
		var p fr.Element
		p.Mul(&diffs[i], &inverses[i])
		require.True(t, p.IsOne(), "row %d", i)
	}

	d, inv := RowDifferences(nil)
	require.Nil(t, d)
	require.Nil(t, inv)
}
