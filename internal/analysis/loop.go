// SPDX-License-Identifier: MIT
/*
Package analysis is the consumer side of the playback hand-off. On every
render tick the Loop takes exactly one window of N mono samples from the
ring, transforms it, and publishes the wave, its log magnitude spectrum and
optionally the inverse reconstruction to a set of renderers.

A tick analyses nothing, and the previous frame stays current, when the
source is not active or fewer than N samples are buffered. Windows never
overlap: every sample is analysed at most once.

The Loop is driven from a single goroutine, either a front-end's own update
loop through Tick or the ticker in Run.
*/
package analysis

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"wavescope/internal/fft"
	"wavescope/internal/log"
	"wavescope/internal/ring"
)

var logger = log.New("analysis")

// Options configures a Loop.
type Options struct {
	WindowSize  int
	Transform   fft.Kind
	Reconstruct bool
	SampleRate  float64
	Renderers   []Renderer
}

// Stats are counters kept since the Loop was created.
type Stats struct {
	Analyzed     uint64 // windows transformed and published
	Inactive     uint64 // ticks skipped because the source was not active
	Underruns    uint64 // ticks skipped for lack of a full window
	RenderErrors uint64
	Dropped      uint64 // samples the ring overwrote before they were read
}

type Loop struct {
	ring      *ring.Ring
	transform fft.Transform
	renderers []Renderer

	window []float32 // ring read scratch
	real   []float64
	imag   []float64
	frame  Frame

	analyzed     atomic.Uint64
	inactive     atomic.Uint64
	underruns    atomic.Uint64
	renderErrors atomic.Uint64
}

// NewLoop builds a Loop reading windows of opts.WindowSize samples from r. All
// working memory is allocated here.
func NewLoop(r *ring.Ring, opts Options) (*Loop, error) {
	if r == nil {
		return nil, fmt.Errorf("analysis loop needs a sample ring")
	}
	n := opts.WindowSize
	if n > r.Capacity() {
		return nil, fmt.Errorf("window of %d samples exceeds ring capacity %d", n, r.Capacity())
	}
	transform, err := fft.New(opts.Transform, n)
	if err != nil {
		return nil, err
	}

	l := &Loop{
		ring:      r,
		transform: transform,
		renderers: opts.Renderers,
		window:    make([]float32, n),
		real:      make([]float64, n),
		imag:      make([]float64, n),
		frame: Frame{
			SampleRate: opts.SampleRate,
			Wave:       make([]float64, n),
			Magnitude:  make([]float64, n),
		},
	}
	if opts.Reconstruct {
		l.frame.Reconstruction = make([]float64, n)
	}
	return l, nil
}

// Tick analyses at most one window. It reports whether a new frame was
// published.
func (l *Loop) Tick(active bool) bool {
	if !active {
		l.inactive.Add(1)
		return false
	}

	n := len(l.window)
	if l.ring.Available() < n || l.ring.Read(l.window) != n {
		l.underruns.Add(1)
		return false
	}

	f := &l.frame
	for i, s := range l.window {
		f.Wave[i] = float64(s)
	}
	l.transform.Forward(l.real, l.imag, f.Wave)
	fft.LogMagnitude(f.Magnitude, l.real, l.imag)
	if f.Reconstruction != nil {
		l.transform.Inverse(f.Reconstruction, l.real, l.imag)
	}
	f.Seq++
	l.analyzed.Add(1)

	for _, r := range l.renderers {
		if err := r.Render(f); err != nil {
			if l.renderErrors.Add(1) == 1 {
				logger.Warnf("renderer %T failed: %v", r, err)
			} else {
				logger.Debugf("renderer %T failed: %v", r, err)
			}
		}
	}
	return true
}

// Drain analyses every full window still in the ring and returns how many
// frames it published. Front-ends call it once when the source stops being
// active, so the last samples played are still shown.
func (l *Loop) Drain() int {
	n := 0
	for l.ring.Available() >= len(l.window) && l.Tick(true) {
		n++
	}
	return n
}

// Frame returns the current frame. It is all zeros until the first window is
// analysed and otherwise the most recent one.
func (l *Loop) Frame() *Frame { return &l.frame }

func (l *Loop) Stats() Stats {
	return Stats{
		Analyzed:     l.analyzed.Load(),
		Inactive:     l.inactive.Load(),
		Underruns:    l.underruns.Load(),
		RenderErrors: l.renderErrors.Load(),
		Dropped:      l.ring.Dropped(),
	}
}

// Run ticks tickRate times per second until ctx is cancelled or src stops
// being active after having been active. It is the driver for front-ends
// without an update loop of their own.
func (l *Loop) Run(ctx context.Context, src Source, tickRate int) error {
	if tickRate <= 0 {
		return fmt.Errorf("invalid tick rate %d", tickRate)
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	logger.Infof("Running headless at %d ticks/s, window %d", tickRate, len(l.window))
	seenActive := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			active := src.Active()
			l.Tick(active)
			if active {
				seenActive = true
			} else if seenActive {
				l.Drain()
				return nil
			}
		}
	}
}

// Close closes every renderer and returns the first error.
func (l *Loop) Close() error {
	var first error
	for _, r := range l.renderers {
		if err := r.Close(); err != nil && first == nil {
			first = fmt.Errorf("close renderer %T: %w", r, err)
		}
	}
	return first
}

// LogStats writes the counters at info level.
func (l *Loop) LogStats() {
	s := l.Stats()
	logger.Infof("Analyzed %d windows (%d inactive ticks, %d underruns, %d render errors, %d samples dropped)",
		s.Analyzed, s.Inactive, s.Underruns, s.RenderErrors, s.Dropped)
}
