// SPDX-License-Identifier: MIT
/*
Package fft turns a window of real time-domain samples into spectrum
coefficients and back.

For a window x of N samples the forward transform is

	real[k] =  Σ x[n]·cos(2πkn/N)
	imag[k] = -Σ x[n]·sin(2πkn/N)

for every bin k in 0..N-1, and the inverse is

	x[n] = (1/N)·Σ (real[k]·cos(2πkn/N) − imag[k]·sin(2πkn/N))

Two implementations share the Transform interface: DFT evaluates the sums
directly in O(N²) for any N, and FFT uses gonum's radix-2 complex transform for
power-of-two N. Their output agrees within floating point tolerance. Both write
into caller-provided slices and never allocate after construction, so a
Transform can run once per render tick without GC pressure. A Transform keeps
internal scratch space and is not safe for concurrent use.
*/
package fft

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSize is returned for window sizes a transform cannot handle.
var ErrSize = errors.New("invalid transform size")

// Transform converts between an N-sample window and N spectrum bins.
type Transform interface {
	// Forward writes the coefficients of samples into real and imag.
	// All three slices must have length Size().
	Forward(real, imag, samples []float64)

	// Inverse writes the time-domain window described by real and imag into dst.
	// All three slices must have length Size().
	Inverse(dst, real, imag []float64)

	// Size returns the window length N.
	Size() int
}

// Kind names a Transform implementation in configuration.
type Kind string

const (
	KindFFT Kind = "fft"
	KindDFT Kind = "dft"
)

// ParseKind converts a configuration name (case-insensitive) to a Kind.
func ParseKind(name string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(name))) {
	case KindFFT, "":
		return KindFFT, nil
	case KindDFT:
		return KindDFT, nil
	default:
		return KindFFT, fmt.Errorf("unknown transform %q (want fft or dft)", name)
	}
}

// New builds the Transform of the given kind for windows of n samples.
func New(kind Kind, n int) (Transform, error) {
	switch kind {
	case KindDFT:
		d, err := NewDFT(n)
		if err != nil {
			return nil, err
		}
		return d, nil
	case KindFFT:
		f, err := NewFFT(n)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown transform kind %q", kind)
	}
}

// Forward returns the spectrum of samples using the definitional sums. It
// allocates its results; the analysis loop uses a Transform instead.
func Forward(samples []float64) (real, imag []float64) {
	n := len(samples)
	real = make([]float64, n)
	imag = make([]float64, n)
	if n == 0 {
		return real, imag
	}
	t, _ := NewDFT(n)
	t.Forward(real, imag, samples)
	return real, imag
}

// Inverse reconstructs the window described by real and imag, which must have
// equal length.
func Inverse(real, imag []float64) []float64 {
	n := len(real)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	t, _ := NewDFT(n)
	t.Inverse(out, real, imag)
	return out
}

func checkLengths(n int, slices ...[]float64) {
	for _, s := range slices {
		if len(s) != n {
			panic(fmt.Sprintf("fft: slice length %d does not match transform size %d", len(s), n))
		}
	}
}
