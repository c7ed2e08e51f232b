// SPDX-License-Identifier: MIT
/*
Package ring implements the single-producer/single-consumer sample ring that
hands mono samples from the audio callback to the analysis loop.

The ring owns two monotonically increasing cursors. The producer only ever
stores the write cursor and the consumer only ever stores the read cursor, so
no lock is needed; publication order comes from sync/atomic, which is
sequentially consistent in Go. The producer raises a claim cursor before it
overwrites any slot and publishes the write cursor after the slots are filled;
the consumer loads the write cursor before any slot and the claim cursor after
its copy, which tells it whether the copy could have been torn.

Overflow policy is drop-oldest. The producer never waits for, or even looks
at, the consumer: playback must not depend on the visualizer keeping up. When
the consumer discovers it has been lapped it skips forward to the oldest sample
still in the ring and counts what it lost. Slots are accessed atomically so a
lapped read is a detectable stale read rather than a data race.

Thread assignment:
  - Write: producer (audio callback) only
  - Available, Read, Reset: consumer (analysis loop) only
  - Dropped, Capacity: any goroutine
*/
package ring

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"wavescope/pkg/bitint"
)

// ErrCapacity is returned when the requested capacity is not a power of two.
var ErrCapacity = errors.New("ring capacity must be a positive power of two")

// Ring is a fixed-capacity SPSC circular buffer of float32 samples.
type Ring struct {
	// Producer and consumer cursors live on separate cache lines. claim is
	// raised before slots are overwritten and write after they are filled.
	claim atomic.Uint64
	write atomic.Uint64
	_pad1 [48]byte
	read  atomic.Uint64
	_pad2 [56]byte

	dropped atomic.Uint64
	slots   []atomic.Uint32 // math.Float32bits of each sample
	mask    uint64
}

// New allocates a ring of the given capacity, which must be a power of two.
func New(capacity int) (*Ring, error) {
	if !bitint.IsPowerOfTwo(capacity) {
		return nil, fmt.Errorf("%w: got %d", ErrCapacity, capacity)
	}
	return &Ring{
		slots: make([]atomic.Uint32, capacity),
		mask:  uint64(capacity - 1),
	}, nil
}

// Capacity returns the number of sample slots.
func (r *Ring) Capacity() int {
	return len(r.slots)
}

// Write appends samples and returns how many were accepted, which is always
// len(samples). Unread samples older than Capacity are overwritten. It never
// blocks and never allocates.
func (r *Ring) Write(samples []float32) int {
	n := len(samples)
	w := r.write.Load()

	// Anything beyond one capacity's worth would be overwritten in this same
	// call, so only the newest Capacity samples are stored.
	if n > len(r.slots) {
		skip := n - len(r.slots)
		samples = samples[skip:]
		w += uint64(skip)
	}

	end := w + uint64(len(samples))
	r.claim.Store(end)
	for i, s := range samples {
		r.slots[(w+uint64(i))&r.mask].Store(math.Float32bits(s))
	}
	r.write.Store(end)
	return n
}

// Available returns the number of unread samples, never more than Capacity.
func (r *Ring) Available() int {
	avail := r.write.Load() - r.read.Load()
	if c := uint64(len(r.slots)); avail > c {
		return int(c)
	}
	return int(avail)
}

// Read fills dst with the oldest unread samples and advances the read cursor.
// It is all or nothing: if fewer than len(dst) samples are available, or the
// producer overwrote part of the window while it was being copied, Read
// returns 0 and dst contents are unspecified. Callers check Available first.
func (r *Ring) Read(dst []float32) int {
	n := uint64(len(dst))
	if n == 0 || n > uint64(len(r.slots)) {
		return 0
	}

	c := uint64(len(r.slots))
	w := r.write.Load()
	rd := r.resync(r.read.Load(), w)

	if w-rd < n {
		return 0
	}

	for i := range dst {
		dst[i] = math.Float32frombits(r.slots[(rd+uint64(i))&r.mask].Load())
	}

	// Slots below claim-c may have been reused since the copy started.
	if cl := r.claim.Load(); cl-rd > c {
		r.resync(rd, cl)
		return 0
	}

	r.read.Store(rd + n)
	return int(n)
}

// resync moves the read cursor past samples the producer has overwritten and
// returns the cursor to read from.
func (r *Ring) resync(rd, w uint64) uint64 {
	c := uint64(len(r.slots))
	if w-rd <= c {
		return rd
	}
	oldest := w - c
	r.dropped.Add(oldest - rd)
	r.read.Store(oldest)
	return oldest
}

// Dropped returns the total number of samples overwritten before they could be
// read.
func (r *Ring) Dropped() uint64 {
	return r.dropped.Load()
}

// Reset discards every unread sample. Consumer only.
func (r *Ring) Reset() {
	r.read.Store(r.write.Load())
}
