package utils

import "math/bits"

// RequiredK returns the smallest circuit size parameter whose 2^k rows hold
// rows table entries, never below MinK
func RequiredK(rows int) uint {
	k := uint(0)
	if rows > 1 {
		k = uint(bits.Len(uint(rows - 1)))
	}
	return max(k, MinK)
}
