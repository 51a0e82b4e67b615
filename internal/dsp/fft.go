// SPDX-License-Identifier: MIT
//
// Package dsp holds the per-frame signal path of the visualizer: the
// Hann window, the radix-2 FFT, the amplitude extractor and the
// spectral-to-bar mapper. Everything here runs on the render context;
// no type in this package is safe for concurrent use.
package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"musviz/pkg/bitint"
)

// FFT computes the discrete Fourier transform of real input using a
// recursive radix-2 decimation-in-time Cooley-Tukey algorithm. The
// size is fixed at construction and must be a power of two.
//
// Recursion depth is log2(n), so a few kilobytes of stack even at
// n=8192; a transform of that size completes in well under a
// millisecond, a small fraction of a 60 Hz frame.
type FFT struct {
	n int
}

// NewFFT creates an FFT of the given size. size must be a power of two.
func NewFFT(size int) (*FFT, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", size)
	}
	return &FFT{n: size}, nil
}

// Size returns the transform length.
func (f *FFT) Size() int {
	return f.n
}

// Transform computes the length-n complex spectrum of src into dst.
// Both slices must have length Size(). Bins [0, n/2) cover 0 Hz to the
// Nyquist rate; the upper half is the conjugate mirror and is never
// consulted downstream. Allocation-free.
func (f *FFT) Transform(dst []complex128, src []float64) error {
	if len(dst) != f.n || len(src) != f.n {
		return fmt.Errorf("fft buffers must have length %d, got dst=%d src=%d", f.n, len(dst), len(src))
	}
	recurse(dst, src, 1)
	return nil
}

// recurse splits src into even/odd strided subsequences, transforms
// each half into the halves of dst, then combines with the butterfly
// out[k] = E[k] + W*O[k], out[k+n/2] = E[k] - W*O[k] where the twiddle
// W = exp(-i*2*pi*k/n).
func recurse(dst []complex128, src []float64, stride int) {
	n := len(dst)
	if n == 1 {
		dst[0] = complex(src[0], 0)
		return
	}

	half := n / 2
	recurse(dst[:half], src, stride*2)
	recurse(dst[half:], src[stride:], stride*2)

	for k := 0; k < half; k++ {
		t := float64(k) / float64(n)
		w := cmplx.Exp(complex(0, -2*math.Pi*t))
		e := dst[k]
		v := w * dst[k+half]
		dst[k] = e + v
		dst[k+half] = e - v
	}
}

// Amp reduces a complex bin to a scalar as max(|Re|, |Im|). This is a
// deliberate infinity-norm approximation of the magnitude: cheaper
// than Hypot, and only relative bar heights matter downstream, not
// calibrated decibel values.
func Amp(z complex128) float64 {
	a := math.Abs(real(z))
	b := math.Abs(imag(z))
	if a > b {
		return a
	}
	return b
}
