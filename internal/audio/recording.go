package audio

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"wavescope/internal/analysis"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// RecordSource selects which curve of each frame a Recorder captures.
type RecordSource string

const (
	RecordWave           RecordSource = "wave"
	RecordReconstruction RecordSource = "reconstruction"
)

// ParseRecordSource converts a configuration name (case-insensitive).
func ParseRecordSource(name string) (RecordSource, error) {
	switch RecordSource(strings.ToLower(strings.TrimSpace(name))) {
	case RecordWave, "":
		return RecordWave, nil
	case RecordReconstruction:
		return RecordReconstruction, nil
	default:
		return RecordWave, fmt.Errorf("unknown recording source %q (want wave or reconstruction)", name)
	}
}

// Recorder writes every analysed window to a mono WAV file, so the file holds
// exactly what the spectrum view was computed from. It runs on the analysis
// goroutine as a renderer.
type Recorder struct {
	sampleRate int
	bitDepth   int
	source     RecordSource

	isRecording int32 // atomic flag
	mu          sync.Mutex
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // reused for every window
	windows     uint64
}

// NewRecorder prepares a recorder for windows of windowSize samples.
func NewRecorder(sampleRate, bitDepth, windowSize int, source RecordSource) (*Recorder, error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported recording bit depth %d", bitDepth)
	}
	return &Recorder{
		sampleRate: sampleRate,
		bitDepth:   bitDepth,
		source:     source,
		sampleBuf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			Data:           make([]int, windowSize),
			SourceBitDepth: bitDepth,
		},
	}, nil
}

func (r *Recorder) Start(filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if atomic.LoadInt32(&r.isRecording) == 1 {
		return fmt.Errorf("already recording")
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	r.outputFile = file
	r.wavEncoder = wav.NewEncoder(file, r.sampleRate, r.bitDepth, 1, wavFormatPCM)
	r.windows = 0

	atomic.StoreInt32(&r.isRecording, 1)
	return nil
}

func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if atomic.LoadInt32(&r.isRecording) == 0 {
		return nil
	}
	atomic.StoreInt32(&r.isRecording, 0)

	if r.wavEncoder != nil {
		if err := r.wavEncoder.Close(); err != nil {
			return err
		}
		r.wavEncoder = nil
	}
	if r.outputFile != nil {
		if err := r.outputFile.Close(); err != nil {
			return err
		}
		r.outputFile = nil
	}
	return nil
}

// Windows returns how many windows the current or last recording holds.
func (r *Recorder) Windows() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.windows
}

// Render appends the selected curve of frame. Reconstruction falls back to the
// wave when the frame carries none.
func (r *Recorder) Render(frame *analysis.Frame) error {
	if atomic.LoadInt32(&r.isRecording) == 0 {
		return nil
	}

	data := frame.Wave
	if r.source == RecordReconstruction && frame.Reconstruction != nil {
		data = frame.Reconstruction
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wavEncoder == nil {
		return nil
	}

	if cap(r.sampleBuf.Data) < len(data) {
		r.sampleBuf.Data = make([]int, len(data))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(data)]

	full := float64(int64(1)<<(r.bitDepth-1) - 1)
	for i, v := range data {
		r.sampleBuf.Data[i] = int(math.Round(math.Max(-1, math.Min(1, v)) * full))
	}

	if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
		return fmt.Errorf("write window to WAV: %w", err)
	}
	r.windows++
	return nil
}

func (r *Recorder) Close() error {
	return r.Stop()
}

var _ analysis.Renderer = (*Recorder)(nil)
