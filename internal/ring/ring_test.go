// SPDX-License-Identifier: MIT
package ring

import (
	"errors"
	"sync"
	"testing"
)

func seq(start, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(start + i)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		capacity int
		wantErr  bool
	}{
		{1, false},
		{8, false},
		{2048, false},
		{0, true},
		{-4, true},
		{1000, true},
	}
	for _, tt := range tests {
		r, err := New(tt.capacity)
		if tt.wantErr {
			if !errors.Is(err, ErrCapacity) {
				t.Errorf("New(%d): expected ErrCapacity, got %v", tt.capacity, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%d): unexpected error %v", tt.capacity, err)
		}
		if r.Capacity() != tt.capacity {
			t.Errorf("Capacity() = %d, want %d", r.Capacity(), tt.capacity)
		}
		if r.Available() != 0 {
			t.Errorf("new ring should be empty, Available() = %d", r.Available())
		}
	}
}

func TestWriteReadFIFO(t *testing.T) {
	r, _ := New(16)

	if n := r.Write(seq(0, 5)); n != 5 {
		t.Fatalf("Write returned %d, want 5", n)
	}
	if n := r.Write(seq(5, 3)); n != 3 {
		t.Fatalf("Write returned %d, want 3", n)
	}
	if r.Available() != 8 {
		t.Fatalf("Available() = %d, want 8", r.Available())
	}

	dst := make([]float32, 4)
	for want := 0; want < 8; want += 4 {
		if n := r.Read(dst); n != 4 {
			t.Fatalf("Read returned %d, want 4", n)
		}
		for i, v := range dst {
			if v != float32(want+i) {
				t.Errorf("sample %d = %v, want %v", want+i, v, want+i)
			}
		}
	}
	if r.Available() != 0 {
		t.Errorf("Available() after drain = %d, want 0", r.Available())
	}
}

func TestReadIsAllOrNothing(t *testing.T) {
	r, _ := New(8)
	r.Write(seq(0, 3))

	dst := make([]float32, 4)
	if n := r.Read(dst); n != 0 {
		t.Fatalf("Read with 3 available returned %d, want 0", n)
	}
	if r.Available() != 3 {
		t.Errorf("failed read must not consume, Available() = %d", r.Available())
	}

	if n := r.Read(make([]float32, 16)); n != 0 {
		t.Errorf("Read larger than capacity returned %d, want 0", n)
	}
	if n := r.Read(nil); n != 0 {
		t.Errorf("Read(nil) returned %d, want 0", n)
	}
}

func TestWrapAround(t *testing.T) {
	r, _ := New(8)
	dst := make([]float32, 3)

	// Many write/read cycles push both cursors far past the capacity.
	next := 0
	for cycle := 0; cycle < 1000; cycle++ {
		r.Write(seq(next, 3))
		if n := r.Read(dst); n != 3 {
			t.Fatalf("cycle %d: Read returned %d", cycle, n)
		}
		for i, v := range dst {
			if v != float32(next+i) {
				t.Fatalf("cycle %d: got %v, want %v", cycle, v, next+i)
			}
		}
		next += 3
	}
	if r.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", r.Dropped())
	}
}

func TestDropOldest(t *testing.T) {
	r, _ := New(8)

	// 12 samples into 8 slots: 0..3 are lost, 4..11 remain.
	r.Write(seq(0, 6))
	r.Write(seq(6, 6))

	if r.Available() != 8 {
		t.Fatalf("Available() = %d, want capacity 8", r.Available())
	}

	dst := make([]float32, 4)
	if n := r.Read(dst); n != 4 {
		t.Fatalf("Read returned %d, want 4", n)
	}
	for i, v := range dst {
		if v != float32(4+i) {
			t.Errorf("dst[%d] = %v, want %v", i, v, 4+i)
		}
	}
	if r.Dropped() != 4 {
		t.Errorf("Dropped() = %d, want 4", r.Dropped())
	}

	if n := r.Read(dst); n != 4 || dst[0] != 8 || dst[3] != 11 {
		t.Errorf("second read = %d %v, want 8..11", n, dst)
	}
}

func TestWriteLargerThanCapacity(t *testing.T) {
	r, _ := New(4)

	if n := r.Write(seq(0, 10)); n != 10 {
		t.Fatalf("Write returned %d, want 10", n)
	}
	dst := make([]float32, 4)
	if n := r.Read(dst); n != 4 {
		t.Fatalf("Read returned %d, want 4", n)
	}
	for i, v := range dst {
		if v != float32(6+i) {
			t.Errorf("dst[%d] = %v, want %v", i, v, 6+i)
		}
	}
	if r.Dropped() != 6 {
		t.Errorf("Dropped() = %d, want 6", r.Dropped())
	}
}

func TestReset(t *testing.T) {
	r, _ := New(8)
	r.Write(seq(0, 5))
	r.Reset()
	if r.Available() != 0 {
		t.Errorf("Available() after Reset = %d, want 0", r.Available())
	}
	r.Write(seq(100, 2))
	dst := make([]float32, 2)
	if n := r.Read(dst); n != 2 || dst[0] != 100 || dst[1] != 101 {
		t.Errorf("read after reset = %d %v", n, dst)
	}
}

// TestConcurrentProducerConsumer runs a free-running producer against a
// window-sized consumer. Windows must contain consecutive samples and windows
// must never go backwards; gaps between windows are allowed drops.
func TestConcurrentProducerConsumer(t *testing.T) {
	const (
		capacity = 256
		window   = 64
		period   = 37
		total    = 1 << 20
	)
	r, _ := New(capacity)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]float32, period)
		for next := 0; next < total; next += period {
			for i := range buf {
				buf[i] = float32(next + i)
			}
			r.Write(buf)
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	dst := make([]float32, window)
	last := float32(-1)
	windows := 0
	for {
		select {
		case <-done:
			if windows == 0 {
				t.Log("producer finished before any window was read")
			}
			return
		default:
		}
		if r.Available() < window {
			continue
		}
		if r.Read(dst) != window {
			continue
		}
		windows++
		if dst[0] <= last {
			t.Fatalf("window went backwards: first %v after %v", dst[0], last)
		}
		for i := 1; i < window; i++ {
			if dst[i] != dst[i-1]+1 {
				t.Fatalf("window not contiguous at %d: %v then %v", i, dst[i-1], dst[i])
			}
		}
		last = dst[window-1]
	}
}

func TestHotPathZeroAllocs(t *testing.T) {
	r, _ := New(2048)
	in := seq(0, 512)
	out := make([]float32, 1024)

	allocs := testing.AllocsPerRun(100, func() {
		r.Write(in)
		r.Write(in)
		_ = r.Available()
		_ = r.Read(out)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in ring hot path, got %.1f", allocs)
	}
}

func BenchmarkWrite(b *testing.B) {
	r, _ := New(2048)
	in := seq(0, 512)
	b.ReportAllocs()
	for b.Loop() {
		r.Write(in)
	}
}

func BenchmarkReadWindow(b *testing.B) {
	r, _ := New(2048)
	in := seq(0, 1024)
	out := make([]float32, 1024)
	b.ReportAllocs()
	for b.Loop() {
		r.Write(in)
		r.Read(out)
	}
}
