// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the tapering function applied to the sample
// snapshot before the transform.
type WindowFunc int

const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	BlackmanNuttall
	Nuttall
	Lanczos
	BartlettHann
)

// ParseWindowFunc converts a name (case-insensitive) to a WindowFunc.
// Returns Hann and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "nuttall":
		return Nuttall, nil
	case "lanczos":
		return Lanczos, nil
	case "bartletthann":
		return BartlettHann, nil
	default:
		return Hann, fmt.Errorf("unknown window function name: %q", name)
	}
}

// MakeWindow computes n tapering coefficients for the given function.
// The slice is computed once and shared read-only by the caller.
//
// Hann is computed directly as 0.5*(1 - cos(2*pi*i/(n-1))); it reduces
// the spectral leakage of the rectangular truncation of a continuous
// stream. The remaining shapes come from gonum's dsp/window package,
// applied to a slice of ones.
func MakeWindow(n int, fn WindowFunc) []float64 {
	coeffs := make([]float64, n)

	if fn == Hann {
		for i := range coeffs {
			coeffs[i] = hann(i, n)
		}
		return coeffs
	}

	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch fn {
	case Hamming:
		window.Hamming(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case BartlettHann:
		window.BartlettHann(coeffs)
	default:
		window.Hann(coeffs)
	}
	return coeffs
}

func hann(i, n int) float64 {
	return 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(n-1)))
}
