package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Band is a named frequency range. Level is the mean log magnitude of the
// bins whose centre lies in [LowHz, HighHz), or -1 when no bin does.
type Band struct {
	Name   string
	LowHz  float64
	HighHz float64
	Level  float64
}

// DefaultBands returns the usual six-way split up to Nyquist.
func DefaultBands(sampleRate float64) []Band {
	return []Band{
		{Name: "sub", LowHz: 20, HighHz: 60},
		{Name: "bass", LowHz: 60, HighHz: 250},
		{Name: "lowMid", LowHz: 250, HighHz: 500},
		{Name: "mid", LowHz: 500, HighHz: 2000},
		{Name: "highMid", LowHz: 2000, HighHz: 4000},
		{Name: "treble", LowHz: 4000, HighHz: sampleRate / 2},
	}
}

// FillBands sets the Level of every band from frame's magnitude curve. Only
// the non-negative frequency half of the spectrum is used.
func FillBands(bands []Band, frame *Frame) {
	n := frame.Size()
	if n == 0 || frame.SampleRate <= 0 {
		for i := range bands {
			bands[i].Level = -1
		}
		return
	}

	nyquistBin := n / 2
	binHz := frame.SampleRate / float64(n)
	for i := range bands {
		b := &bands[i]
		lo := max(int(math.Ceil(b.LowHz/binHz)), 0)
		hi := min(int(math.Ceil(b.HighHz/binHz)), nyquistBin+1)
		if lo >= hi {
			b.Level = -1
			continue
		}
		b.Level = floats.Sum(frame.Magnitude[lo:hi]) / float64(hi-lo)
	}
}
