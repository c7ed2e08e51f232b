package fft

import "math"

// LogMagnitude writes the display curve log10(1 + |X[k]|) − 1 for every bin.
// Near-silent bins come out negative (−1 for an exact zero); they are not
// clamped.
func LogMagnitude(dst, real, imag []float64) {
	checkLengths(len(dst), real, imag)
	for k := range dst {
		dst[k] = math.Log10(1+math.Hypot(real[k], imag[k])) - 1
	}
}

// BinFrequency returns the centre frequency in Hz of bin k for an n-point
// transform at sampleRate. Bins above n/2 mirror negative frequencies and are
// reported as such.
func BinFrequency(k, n int, sampleRate float64) float64 {
	if n <= 0 || k < 0 || k >= n {
		return 0
	}
	if k > n/2 {
		k -= n
	}
	return float64(k) * sampleRate / float64(n)
}
