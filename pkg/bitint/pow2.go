/*
Package bitint holds the power-of-two helpers used to size transform windows
and sample rings. Both functions are branch-light, allocation free and safe to
call from the audio callback.

Ring and window sizes must be powers of two so that cursor wraparound is a
mask instead of a modulo:

	capacity := bitint.NextPowerOfTwo(window * 2) // 1024*2 -> 2048
	mask := uint64(capacity - 1)
	slot := cursor & mask

NextPowerOfTwo subtracts one before taking the bit length so that exact powers
of two map onto themselves (8 -> bits.Len(7) = 3 -> 1<<3 = 8) while every other
value rounds up (9 -> bits.Len(8) = 4 -> 16).
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size. Sizes <= 0 yield 1.
//
//	Input  Output
//	0      1
//	4      4
//	5      8
//	1000   1024
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two. A power of two
// has exactly one bit set, so clearing the lowest set bit leaves zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
