package fft

import (
	"fmt"
	"math"
)

// DFT evaluates the transform sums directly. Angles are looked up in a table of
// N cosines and sines indexed by k·n mod N, which keeps every term exact to the
// table entry instead of accumulating phase error.
type DFT struct {
	n   int
	cos []float64
	sin []float64
}

// NewDFT builds a direct transform for windows of n samples, n >= 1.
func NewDFT(n int) (*DFT, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: dft needs at least one sample, got %d", ErrSize, n)
	}
	d := &DFT{
		n:   n,
		cos: make([]float64, n),
		sin: make([]float64, n),
	}
	for i := range n {
		angle := 2 * math.Pi * float64(i) / float64(n)
		d.cos[i] = math.Cos(angle)
		d.sin[i] = math.Sin(angle)
	}
	return d, nil
}

func (d *DFT) Size() int { return d.n }

func (d *DFT) Forward(real, imag, samples []float64) {
	checkLengths(d.n, real, imag, samples)
	for k := range d.n {
		var re, im float64
		idx := 0
		for _, x := range samples {
			re += x * d.cos[idx]
			im -= x * d.sin[idx]
			idx += k
			if idx >= d.n {
				idx -= d.n
			}
		}
		real[k] = re
		imag[k] = im
	}
}

func (d *DFT) Inverse(dst, real, imag []float64) {
	checkLengths(d.n, dst, real, imag)
	scale := 1 / float64(d.n)
	for n := range d.n {
		var acc float64
		idx := 0
		for k := range d.n {
			acc += real[k]*d.cos[idx] - imag[k]*d.sin[idx]
			idx += n
			if idx >= d.n {
				idx -= d.n
			}
		}
		dst[n] = acc * scale
	}
}
