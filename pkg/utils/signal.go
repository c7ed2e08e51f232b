// Package utils generates synthetic signals for tests and benchmarks across the
// module: analysis windows, decoded sample buffers and interleaved frames.
package utils

import "math"

// SineWindow returns n samples of a unit-amplitude sine at frequency Hz.
func SineWindow(n int, sampleRate, frequency float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * frequency * float64(i) / sampleRate)
	}
	return out
}

// ComplexWindow returns a 440 Hz fundamental plus two harmonics, peaking below 1.
func ComplexWindow(n int, sampleRate float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		tm := float64(i) / sampleRate
		out[i] = math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
	}
	return out
}

// SineSamples is SineWindow scaled by amplitude and narrowed to float32, the
// format decoded buffers use.
func SineSamples(n int, sampleRate, frequency, amplitude float64) []float32 {
	out := make([]float32, n)
	for i, v := range SineWindow(n, sampleRate, frequency) {
		out[i] = float32(v * amplitude)
	}
	return out
}

// Interleave merges equally long per-channel slices into one frame-major slice:
// L0 R0 L1 R1 ... Shorter channels are padded with zeros.
func Interleave(channels ...[]float32) []float32 {
	frames := 0
	for _, ch := range channels {
		frames = max(frames, len(ch))
	}
	out := make([]float32, frames*len(channels))
	for c, ch := range channels {
		for f, v := range ch {
			out[f*len(channels)+c] = v
		}
	}
	return out
}

// FindPeakBin returns the index of the largest value in magnitudes[startBin:endBin+1].
// Out of range bounds are clamped; an empty slice yields 0.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	startBin = max(startBin, 0)
	endBin = min(endBin, len(magnitudes)-1)
	if startBin > endBin {
		return startBin
	}

	peakBin := startBin
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > magnitudes[peakBin] {
			peakBin = bin
		}
	}
	return peakBin
}
