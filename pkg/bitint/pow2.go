// SPDX-License-Identifier: MIT
//
// Package bitint provides power-of-two helpers used for FFT and ring
// buffer sizing. All operations are O(1), allocation-free and safe to
// call from real-time code.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
// Powers of two map to themselves; non-positive input returns 1.
//
// The size-1 subtraction is what keeps exact powers of two from being
// doubled: bits.Len(7) is 3 so 8 stays 8, while bits.Len(8) would be 4.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// Powers of two have exactly one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
