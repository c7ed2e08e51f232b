// SPDX-License-Identifier: MIT
package fft

import (
	"fmt"

	"wavescope/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT is the radix-2 drop-in for DFT. gonum's complex transform yields all N
// bins (including the mirrored upper half the display curve expects) with the
// same sign convention as the forward sums; its inverse is unnormalised, so
// Inverse scales by 1/N.
type FFT struct {
	n      int
	plan   *fourier.CmplxFFT
	seq    []complex128 // pre-allocated time-domain buffer
	coeffs []complex128 // pre-allocated frequency-domain buffer
}

// NewFFT builds a fast transform for power-of-two windows of n samples.
func NewFFT(n int) (*FFT, error) {
	if !bitint.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: fft size must be a power of 2, got %d", ErrSize, n)
	}
	return &FFT{
		n:      n,
		plan:   fourier.NewCmplxFFT(n),
		seq:    make([]complex128, n),
		coeffs: make([]complex128, n),
	}, nil
}

func (f *FFT) Size() int { return f.n }

func (f *FFT) Forward(real, imag, samples []float64) {
	checkLengths(f.n, real, imag, samples)
	for i, x := range samples {
		f.seq[i] = complex(x, 0)
	}
	f.plan.Coefficients(f.coeffs, f.seq)
	for k, c := range f.coeffs {
		real[k] = realPart(c)
		imag[k] = imagPart(c)
	}
}

func (f *FFT) Inverse(dst, real, imag []float64) {
	checkLengths(f.n, dst, real, imag)
	for k := range f.coeffs {
		f.coeffs[k] = complex(real[k], imag[k])
	}
	f.plan.Sequence(f.seq, f.coeffs)
	scale := 1 / float64(f.n)
	for i, c := range f.seq {
		dst[i] = realPart(c) * scale
	}
}

// The parameter names real and imag shadow the builtins inside the methods
// above, so the component accessors are reached through these helpers.
func realPart(c complex128) float64 { return real(c) }
func imagPart(c complex128) float64 { return imag(c) }
