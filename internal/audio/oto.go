package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	float32Size = 4

	drainPoll   = 5 * time.Millisecond
	drainMargin = 250 * time.Millisecond
)

// otoPlayer is the part of *oto.Player the host drives.
type otoPlayer interface {
	Play()
	Pause()
	IsPlaying() bool
	SetBufferSize(bufferSize int)
	Close() error
}

// OtoHost plays an Engine through oto, which pulls little-endian float32
// frames from an io.Reader on its own goroutine. It needs no device selection
// and serves platforms without PortAudio.
//
// The player buffer is capped at one period so the engine, and with it the
// analysed windows, run at most a period ahead of what is heard.
type OtoHost struct {
	engine *Engine
	ctx    *oto.Context
	player otoPlayer

	period       time.Duration // one period of audio
	drainTimeout time.Duration

	mu      sync.Mutex // setup and control only
	started bool
}

// OpenOtoHost creates the process-wide oto context for the engine's format.
func OpenOtoHost(engine *Engine, framesPerBuffer int) (*OtoHost, error) {
	rate := engine.Buffer().SampleRate
	op := &oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: engine.OutputChannels(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(framesPerBuffer) * time.Second / time.Duration(rate),
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("create oto context: %w", err)
	}
	<-ready

	h := newOtoHost(engine, ctx.NewPlayer(newEngineReader(engine, framesPerBuffer)), framesPerBuffer)
	h.ctx = ctx
	return h, nil
}

func newOtoHost(engine *Engine, player otoPlayer, framesPerBuffer int) *OtoHost {
	player.SetBufferSize(framesPerBuffer * engine.OutputChannels() * float32Size)
	period := time.Duration(framesPerBuffer) * time.Second / time.Duration(engine.Buffer().SampleRate)
	return &OtoHost{
		engine:       engine,
		player:       player,
		period:       period,
		drainTimeout: 4*period + drainMargin,
	}
}

func (h *OtoHost) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started && h.player != nil {
		h.player.Play()
		h.started = true
	}
	return nil
}

// Stop halts playback. Once the engine has completed, the buffered tail is
// played out first; an interrupted clip is paused at once.
func (h *OtoHost) Stop() error {
	h.mu.Lock()
	player, started := h.player, h.started
	h.started = false
	h.mu.Unlock()

	if !started || player == nil {
		return nil
	}
	if h.engine.State() == Complete {
		h.drain(player)
	}
	player.Pause()
	return nil
}

// drain waits until the player has handed its buffer to the device, then for
// the device buffer itself.
func (h *OtoHost) drain(player otoPlayer) {
	deadline := time.Now().Add(h.drainTimeout)
	for player.IsPlaying() {
		if time.Now().After(deadline) {
			logger.Warnf("oto buffer not drained after %v", h.drainTimeout)
			return
		}
		time.Sleep(drainPoll)
	}
	time.Sleep(h.period)
}

func (h *OtoHost) Close() error {
	if err := h.Stop(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.player == nil {
		return nil
	}
	err := h.player.Close()
	h.player = nil
	if err != nil {
		return fmt.Errorf("close oto player: %w", err)
	}
	if h.ctx == nil {
		return nil
	}
	return h.ctx.Suspend()
}

// Active stays true after the engine completes until oto has played out what
// it buffered.
func (h *OtoHost) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started || h.player == nil {
		return false
	}
	return h.engine.State() == Playing || h.player.IsPlaying()
}

var _ Host = (*OtoHost)(nil)

// engineReader adapts Produce to oto's pull model. Reads are capped at one
// period so the scratch never grows.
type engineReader struct {
	engine  *Engine
	scratch []float32
}

func newEngineReader(engine *Engine, framesPerBuffer int) *engineReader {
	return &engineReader{
		engine:  engine,
		scratch: make([]float32, framesPerBuffer*engine.OutputChannels()),
	}
}

func (r *engineReader) Read(p []byte) (int, error) {
	outCh := r.engine.OutputChannels()
	frames := min(len(p)/(float32Size*outCh), len(r.scratch)/outCh)
	if frames == 0 {
		return 0, nil
	}

	out := r.scratch[:frames*outCh]
	n, state := r.engine.Produce(out)
	if n == 0 && state == Complete {
		return 0, io.EOF
	}

	for i, v := range out {
		binary.LittleEndian.PutUint32(p[i*float32Size:], math.Float32bits(v))
	}
	return len(out) * float32Size, nil
}
