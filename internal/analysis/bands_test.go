package analysis

import (
	"math"
	"testing"
)

func TestFillBands(t *testing.T) {
	const n = 1024
	f := &Frame{
		SampleRate: testSampleRate,
		Wave:       make([]float64, n),
		Magnitude:  make([]float64, n),
	}
	for i := range f.Magnitude {
		f.Magnitude[i] = -1
	}
	// A tone at bin 23 (~990 Hz) lands in "mid".
	f.Magnitude[23] = 2

	bands := DefaultBands(testSampleRate)
	FillBands(bands, f)

	for _, b := range bands {
		if b.Name == "mid" {
			if b.Level <= -1 {
				t.Errorf("mid level = %v, want above the floor", b.Level)
			}
			continue
		}
		if b.Level != -1 {
			t.Errorf("%s level = %v, want -1", b.Name, b.Level)
		}
	}

	binHz := testSampleRate / float64(n)
	lo, hi := math.Ceil(500/binHz), math.Ceil(2000/binHz)
	want := (-1*(hi-lo-1) + 2) / (hi - lo)
	if got := bands[3].Level; math.Abs(got-want) > 1e-12 {
		t.Errorf("mid level = %v, want %v", got, want)
	}
}

func TestFillBandsTooNarrow(t *testing.T) {
	f := &Frame{SampleRate: testSampleRate, Wave: make([]float64, 16), Magnitude: make([]float64, 16)}
	bands := DefaultBands(testSampleRate)
	FillBands(bands, f)
	// With 2756 Hz bins the sub band holds no bin centre.
	if bands[0].Level != -1 {
		t.Errorf("sub level = %v, want -1", bands[0].Level)
	}

	FillBands(bands, &Frame{})
	for _, b := range bands {
		if b.Level != -1 {
			t.Errorf("%s level on empty frame = %v", b.Name, b.Level)
		}
	}
}
