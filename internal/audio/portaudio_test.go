// SPDX-License-Identifier: MIT
package audio

import (
	"testing"
	"time"
)

func TestTailPeriods(t *testing.T) {
	tests := []struct {
		latency time.Duration
		frames  int
		want    uint32
	}{
		{0, 441, 1},
		{10 * time.Millisecond, 441, 2},
		{25 * time.Millisecond, 441, 4},
		{100 * time.Millisecond, 4410, 2},
	}
	for _, tt := range tests {
		if got := tailPeriods(tt.latency, tt.frames, 44100); got != tt.want {
			t.Errorf("tailPeriods(%v, %d) = %d, want %d", tt.latency, tt.frames, got, tt.want)
		}
	}
}

func TestPortAudioHostActiveUntilTailPlayed(t *testing.T) {
	e, r := newTestEngine(t, make([]float32, 1000), 1, 2)
	h := &PortAudioHost{engine: e, tailLength: 3}
	h.running.Store(true)
	e.Start()

	out := make([]float32, testFrameSize*2)
	h.process(out)
	if !h.Active() {
		t.Fatal("host inactive mid-clip")
	}

	h.process(out) // completes the clip
	if e.State() != Complete {
		t.Fatalf("state = %v, want complete", e.State())
	}
	if !h.Active() {
		t.Error("host should stay active while the last period is still in the device")
	}
	if r.Available() != 1000 {
		t.Errorf("ring holds %d samples, want all 1000 for the final windows", r.Available())
	}

	h.process(out)
	if !h.Active() {
		t.Error("host went inactive before the output latency elapsed")
	}
	h.process(out)
	if h.Active() {
		t.Error("host still active after the tail was played")
	}
}

func TestPortAudioHostInactiveWhenStopped(t *testing.T) {
	e, _ := newTestEngine(t, make([]float32, 1000), 1, 2)
	h := &PortAudioHost{engine: e, tailLength: 3}
	e.Start()
	if h.Active() {
		t.Error("host active before Start")
	}
}
