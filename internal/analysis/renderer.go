// SPDX-License-Identifier: MIT
package analysis

// Frame is one analysed window. Its slices are owned by the Loop and reused
// on every tick: a Renderer that keeps data past Render must copy it.
type Frame struct {
	Seq        uint64  // 0 until the first window is analysed
	SampleRate float64 // of the clip, for bin to Hz conversion

	Wave           []float64 // the N time-domain samples
	Magnitude      []float64 // log10(1 + |X[k]|) - 1 for every bin
	Reconstruction []float64 // inverse transform of the spectrum, nil when disabled
}

// Size returns the window length N.
func (f *Frame) Size() int { return len(f.Wave) }

// Renderer consumes frames on the analysis goroutine. Render is called once
// per analysed window and must not block for long; it may return an error,
// which is counted and logged but never stops the loop.
type Renderer interface {
	Render(frame *Frame) error
	Close() error
}

// Source reports whether the producer is still feeding the ring.
type Source interface {
	Active() bool
}

// RendererFunc adapts a function to a Renderer with a no-op Close.
type RendererFunc func(frame *Frame) error

func (f RendererFunc) Render(frame *Frame) error { return f(frame) }
func (f RendererFunc) Close() error              { return nil }

var _ Renderer = RendererFunc(nil)
