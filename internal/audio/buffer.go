package audio

import "fmt"

// SampleBuffer is a fully decoded clip held in memory. Samples are interleaved
// frame by frame (L0 R0 L1 R1 ...) and normalised to [-1, 1).
type SampleBuffer struct {
	Samples    []float32
	Frames     int
	Channels   int
	SampleRate int
}

// NewSampleBuffer wraps interleaved samples. len(samples) must be a multiple of
// channels.
func NewSampleBuffer(samples []float32, channels, sampleRate int) (*SampleBuffer, error) {
	if channels < 1 {
		return nil, fmt.Errorf("sample buffer needs at least one channel, got %d", channels)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("%d samples do not divide into %d channels", len(samples), channels)
	}
	return &SampleBuffer{
		Samples:    samples,
		Frames:     len(samples) / channels,
		Channels:   channels,
		SampleRate: sampleRate,
	}, nil
}

// Duration returns the clip length in seconds.
func (b *SampleBuffer) Duration() float64 {
	return float64(b.Frames) / float64(b.SampleRate)
}

// downmix averages each interleaved frame of src into one mono sample in dst.
// len(src) must be len(dst)*channels.
func downmix(dst, src []float32, channels int) {
	if channels == 1 {
		copy(dst, src)
		return
	}
	scale := 1 / float32(channels)
	for i := range dst {
		frame := src[i*channels : i*channels+channels]
		var sum float32
		for _, s := range frame {
			sum += s
		}
		dst[i] = sum * scale
	}
}
