// SPDX-License-Identifier: MIT
/*
Package audio plays a decoded clip through an output device and feeds the
analysis ring with what is being played.

The Engine is the producer side of the hand-off: the host calls Produce once
per output period from its real-time thread. Produce copies the next frames of
the clip into the output, downmixes them to mono for the ring and advances the
playback cursor.

Thread Safety:
  - Produce runs on the host's callback goroutine and never allocates, locks
    or logs
  - State and Position are atomic and can be read from any goroutine
  - Start is called once from the control goroutine before the host starts
*/
package audio

import (
	"errors"
	"fmt"
	"sync/atomic"

	"wavescope/internal/ring"
)

// State is the playback lifecycle. It only moves forward:
// Idle -> Playing -> Complete.
type State uint32

const (
	Idle State = iota
	Playing
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("State(%d)", uint32(s))
	}
}

type Engine struct {
	buffer      *SampleBuffer
	ring        *ring.Ring
	outChannels int

	// Mono scratch sized for one configured period. Longer periods are
	// processed in scratch-sized chunks.
	mono []float32

	current atomic.Int64
	state   atomic.Uint32
}

// NewEngine prepares playback of buffer into outChannels output channels. Mono
// copies of every produced frame are written to r.
func NewEngine(buffer *SampleBuffer, r *ring.Ring, outChannels, framesPerBuffer int) (*Engine, error) {
	if buffer == nil {
		return nil, errors.New("engine needs a sample buffer")
	}
	if r == nil {
		return nil, errors.New("engine needs a sample ring")
	}
	if outChannels < 1 {
		return nil, fmt.Errorf("invalid output channel count %d", outChannels)
	}
	if framesPerBuffer < 1 {
		return nil, fmt.Errorf("invalid frames per buffer %d", framesPerBuffer)
	}

	return &Engine{
		buffer:      buffer,
		ring:        r,
		outChannels: outChannels,
		mono:        make([]float32, framesPerBuffer),
	}, nil
}

// Start begins playback. An empty clip completes immediately. Calling Start
// after playback has begun has no effect.
func (e *Engine) Start() State {
	next := Playing
	if e.buffer.Frames == 0 {
		next = Complete
	}
	e.state.CompareAndSwap(uint32(Idle), uint32(next))
	return e.State()
}

func (e *Engine) State() State { return State(e.state.Load()) }

// Position returns the number of frames already handed to the output.
func (e *Engine) Position() int { return int(e.current.Load()) }

func (e *Engine) OutputChannels() int { return e.outChannels }

func (e *Engine) Buffer() *SampleBuffer { return e.buffer }

// Produce fills one interleaved output period. It returns how many frames came
// from the clip and the state after the call. Frames past the end of the clip,
// and every frame while Idle or Complete, are silence.
func (e *Engine) Produce(out []float32) (int, State) {
	state := e.State()
	if state != Playing {
		clear(out)
		return 0, state
	}

	ch := e.buffer.Channels
	outCh := e.outChannels
	requested := len(out) / outCh
	cur := int(e.current.Load())
	n := min(requested, e.buffer.Frames-cur)
	src := e.buffer.Samples[cur*ch : (cur+n)*ch]

	for done := 0; done < n; {
		chunk := min(n-done, len(e.mono))
		mono := e.mono[:chunk]
		downmix(mono, src[done*ch:(done+chunk)*ch], ch)

		dst := out[done*outCh : (done+chunk)*outCh]
		for i, v := range mono {
			frame := dst[i*outCh : i*outCh+outCh]
			for c := range frame {
				frame[c] = v
			}
		}
		e.ring.Write(mono)
		done += chunk
	}
	clear(out[n*outCh:])

	cur += n
	e.current.Store(int64(cur))
	if cur >= e.buffer.Frames {
		e.state.Store(uint32(Complete))
		return n, Complete
	}
	return n, Playing
}
