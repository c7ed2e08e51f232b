// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"
)

// PortAudioHost plays an Engine through a PortAudio float32 output stream.
// PortAudio calls process once per period on its own thread.
type PortAudioHost struct {
	engine  *Engine
	device  Device
	latency float64
	stream  *portaudio.Stream
	running atomic.Bool

	// Periods delivered since the engine completed, and how many of them it
	// takes for the output latency to elapse.
	tail       atomic.Uint32
	tailLength uint32
}

// OpenPortAudioHost opens, but does not start, an output stream on device.
// PortAudio must already be initialized.
func OpenPortAudioHost(engine *Engine, device Device, framesPerBuffer int, lowLatency bool) (*PortAudioHost, error) {
	if device.info == nil {
		return nil, fmt.Errorf("device %d (%s) has no PortAudio handle", device.Index, device.Name)
	}

	latency := device.info.DefaultHighOutputLatency
	if lowLatency {
		latency = device.DefaultLowOutputLatency
	}

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   device.info,
			Channels: engine.OutputChannels(),
			Latency:  latency,
		},
		SampleRate:      float64(engine.Buffer().SampleRate),
		FramesPerBuffer: framesPerBuffer,
		Flags:           portaudio.ClipOff,
	}

	h := &PortAudioHost{
		engine:     engine,
		device:     device,
		latency:    latency.Seconds() * 1000,
		tailLength: tailPeriods(latency, framesPerBuffer, engine.Buffer().SampleRate),
	}
	stream, err := portaudio.OpenStream(params, h.process)
	if err != nil {
		return nil, fmt.Errorf("open output stream on %q: %w", device.Name, err)
	}
	h.stream = stream
	return h, nil
}

// process is the real-time callback. It delegates to Produce and counts the
// periods played after completion.
func (h *PortAudioHost) process(out []float32) {
	if _, state := h.engine.Produce(out); state == Complete {
		h.tail.Add(1)
	}
}

func (h *PortAudioHost) Start() error {
	if err := h.stream.Start(); err != nil {
		return fmt.Errorf("start output stream: %w", err)
	}
	h.running.Store(true)
	return nil
}

func (h *PortAudioHost) Stop() error {
	if !h.running.Swap(false) {
		return nil
	}
	if err := h.stream.Stop(); err != nil {
		return fmt.Errorf("stop output stream: %w", err)
	}
	return nil
}

func (h *PortAudioHost) Close() error {
	if h.stream == nil {
		return nil
	}
	if err := h.Stop(); err != nil {
		return err
	}
	err := h.stream.Close()
	h.stream = nil
	if err != nil {
		return fmt.Errorf("close output stream: %w", err)
	}
	return nil
}

// Active stays true after the engine completes until the last period has
// had time to leave the device, like Pa_IsStreamActive.
func (h *PortAudioHost) Active() bool {
	if !h.running.Load() {
		return false
	}
	return h.engine.State() == Playing || h.tail.Load() < h.tailLength
}

// tailPeriods is the number of periods, counting the one that completes the
// clip, after which the output latency has elapsed.
func tailPeriods(latency time.Duration, framesPerBuffer, sampleRate int) uint32 {
	period := time.Duration(framesPerBuffer) * time.Second / time.Duration(sampleRate)
	if period <= 0 {
		return 1
	}
	return uint32(1 + (latency+period-1)/period)
}

// LatencyMillis is the output latency requested from the device.
func (h *PortAudioHost) LatencyMillis() float64 { return h.latency }

var _ Host = (*PortAudioHost)(nil)
