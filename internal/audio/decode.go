package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE

	// The extensible fmt chunk carries the real format code in the first two
	// bytes of its SubFormat GUID.
	extensibleSubFormatOffset = 24
)

// ErrNotWAV is returned when the input is not a WAV file this decoder plays.
var ErrNotWAV = errors.New("not a PCM or float WAV file")

// DecodeWAV reads a whole WAV file into memory as normalised float32 samples.
// 8, 16, 24 and 32-bit integer PCM and 32-bit IEEE float are supported, in
// plain or extensible fmt chunks.
func DecodeWAV(path string) (*SampleBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotWAV)
	}

	format := dec.WavAudioFormat
	if format == wavFormatExtensible {
		if format, err = extensibleSubFormat(f); err != nil {
			return nil, fmt.Errorf("%s: read extensible format: %w", path, err)
		}
		// Start over on the rewound file.
		dec = wav.NewDecoder(f)
		if !dec.IsValidFile() {
			return nil, fmt.Errorf("%s: %w", path, ErrNotWAV)
		}
	}

	bitDepth := int(dec.BitDepth)
	switch {
	case format == wavFormatPCM && (bitDepth == 8 || bitDepth == 16 || bitDepth == 24 || bitDepth == 32):
	case format == wavFormatFloat && bitDepth == 32:
	default:
		return nil, fmt.Errorf("%s: unsupported format %#x at %d bits: %w", path, format, bitDepth, ErrNotWAV)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	channels := int(dec.NumChans)
	frames := len(pcm.Data) / channels
	samples := make([]float32, frames*channels)

	if format == wavFormatFloat {
		// The decoder hands back the raw 32-bit words.
		for i := range samples {
			samples[i] = math.Float32frombits(uint32(int32(pcm.Data[i])))
		}
		return NewSampleBuffer(samples, channels, int(dec.SampleRate))
	}

	scale := 1 / float64(int64(1)<<(bitDepth-1))
	offset := 0
	if bitDepth == 8 {
		// 8-bit WAV is unsigned with silence at 128.
		offset = 128
	}
	for i := range samples {
		samples[i] = float32(float64(pcm.Data[i]-offset) * scale)
	}

	return NewSampleBuffer(samples, channels, int(dec.SampleRate))
}

// extensibleSubFormat walks the RIFF chunks of r to the fmt chunk and returns
// the format code of its SubFormat GUID. r is rewound afterwards.
func extensibleSubFormat(r io.ReadSeeker) (uint16, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	defer r.Seek(0, io.SeekStart)

	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return 0, err
	}
	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, err
		}
		if ch.ID != riff.FmtID {
			ch.Drain()
			continue
		}
		body := make([]byte, ch.Size)
		if _, err := io.ReadFull(r, body); err != nil {
			return 0, err
		}
		if len(body) < extensibleSubFormatOffset+2 {
			return 0, fmt.Errorf("extensible fmt chunk of %d bytes has no SubFormat", len(body))
		}
		return binary.LittleEndian.Uint16(body[extensibleSubFormatOffset:]), nil
	}
}
