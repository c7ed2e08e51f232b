package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"wavescope/cmd"
	"wavescope/internal/analysis"
	"wavescope/internal/audio"
	"wavescope/internal/config"
	"wavescope/internal/fft"
	"wavescope/internal/log"
	"wavescope/internal/render/window"
	"wavescope/internal/ring"
	"wavescope/internal/transport"
	"wavescope/internal/transport/udp"
	"wavescope/internal/tui"
	"wavescope/pkg/build"
)

const wsSendInterval = 33 * time.Millisecond

// main runs in three phases:
//
// 1. Startup (cold path): build info, arguments, config, decode, device and
//    stream setup. Any failure releases what was acquired and exits 1.
//
// 2. Playback (hot path): the host callback feeds the ring while the chosen
//    front-end drains it once per tick.
//
// 3. Shutdown (cold path): stop and close the stream, reset the ring, close
//    the renderers and log the loop statistics.
func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if err := build.Initialize(); err != nil {
		log.Debugf("Build info incomplete: %v", err)
	}

	opts, err := cmd.ParseArgs(args, os.Getenv, os.Stdout, os.Stderr)
	if err != nil {
		return 1
	}
	if opts.Command == cmd.CommandNone {
		return 0
	}

	cfg, err := config.LoadConfig(os.Getenv("ENV_CONFIG"))
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}
	if err := log.Configure(cfg.LogLevel, cfg.Debug); err != nil {
		log.Warnf("%v", err)
	}

	// One thread for the audio callback, one for rendering and I/O.
	runtime.GOMAXPROCS(2)

	switch opts.Command {
	case cmd.CommandList:
		err = listDevices()
	case cmd.CommandPlay:
		err = play(cfg, opts.Path)
	}
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}
	return 0
}

func listDevices() error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	devices, err := audio.Devices()
	if err != nil {
		return err
	}
	audio.ListDevices(os.Stdout, devices)
	return nil
}

// teardown releases resources in reverse order of acquisition.
type teardown []func()

func (t *teardown) push(f func()) { *t = append(*t, f) }

func (t teardown) run() {
	for i := len(t) - 1; i >= 0; i-- {
		t[i]()
	}
}

func play(cfg *config.Config, path string) error {
	var td teardown
	defer td.run()

	// ==================== STARTUP PHASE (Cold Path) ====================

	buf, err := audio.DecodeWAV(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: %s <file.wav>\n", build.Get().Name)
		return err
	}
	log.Infof("Loaded %s: %d frames, %d channels, %d Hz (%.1fs)",
		path, buf.Frames, buf.Channels, buf.SampleRate, buf.Duration())

	kind, err := fft.ParseKind(cfg.Analysis.Transform)
	if err != nil {
		return err
	}
	n := cfg.Analysis.WindowSize

	if cfg.Analysis.ReconstructPlayback {
		if err := analysis.Reconstruct(context.Background(), buf.Samples, buf.Channels, n, kind); err != nil {
			return fmt.Errorf("reconstruct playback buffer: %w", err)
		}
	}

	r, err := ring.New(cfg.RingCapacity())
	if err != nil {
		return err
	}
	td.push(r.Reset)

	engine, err := audio.NewEngine(buf, r, cfg.OutputChannels(buf.Channels), cfg.Audio.FramesPerBuffer)
	if err != nil {
		return err
	}

	renderers, err := buildRenderers(cfg, &td, buf.SampleRate)
	if err != nil {
		return err
	}

	loop, err := analysis.NewLoop(r, analysis.Options{
		WindowSize:  n,
		Transform:   kind,
		Reconstruct: cfg.Analysis.Reconstruct,
		SampleRate:  float64(buf.SampleRate),
		Renderers:   renderers,
	})
	if err != nil {
		return err
	}
	td.push(loop.LogStats)

	host, err := openHost(cfg, engine, &td)
	if err != nil {
		return err
	}

	// ==================== PLAYBACK PHASE (Hot Path) ====================

	if engine.Start() == audio.Complete {
		log.Warnf("%s holds no audio", path)
		return nil
	}
	if err := host.Start(); err != nil {
		return err
	}

	title := fmt.Sprintf("%s - %s", build.Get().Name, filepath.Base(path))
	switch strings.ToLower(cfg.Render.Mode) {
	case config.RenderWindow:
		err = window.Run(window.NewGame(title, loop, host, cfg.Render.Height), cfg.Analysis.TickRate)
	case config.RenderTerminal:
		err = tui.Run(tui.NewSpectrumModel(title, loop, host, cfg.Analysis.TickRate))
	default:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		err = loop.Run(ctx, host, cfg.Analysis.TickRate)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	log.Infof("Playback %s at frame %d of %d", engine.State(), engine.Position(), buf.Frames)
	return err
}

// openHost opens the configured output backend. The host is stopped and
// closed by td.
func openHost(cfg *config.Config, engine *audio.Engine, td *teardown) (audio.Host, error) {
	backend, err := audio.ParseBackend(cfg.Audio.Backend)
	if err != nil {
		return nil, err
	}

	var host audio.Host
	switch backend {
	case audio.BackendOto:
		h, err := audio.OpenOtoHost(engine, cfg.Audio.FramesPerBuffer)
		if err != nil {
			return nil, err
		}
		host = h
	default:
		if err := audio.Initialize(); err != nil {
			return nil, err
		}
		td.push(func() {
			if err := audio.Terminate(); err != nil {
				log.Warnf("%v", err)
			}
		})

		devices, err := audio.Devices()
		if err != nil {
			return nil, err
		}
		device, err := chooseDevice(cfg, devices, engine.OutputChannels())
		if err != nil {
			return nil, err
		}

		h, err := audio.OpenPortAudioHost(engine, device, cfg.Audio.FramesPerBuffer, cfg.Audio.LowLatency)
		if err != nil {
			return nil, err
		}
		log.Debugf("Output latency %.1fms", h.LatencyMillis())
		host = h
	}

	td.push(func() {
		if err := host.Stop(); err != nil {
			log.Warnf("%v", err)
		}
		if err := host.Close(); err != nil {
			log.Warnf("%v", err)
		}
	})
	return host, nil
}

// chooseDevice applies the selection rule for a stream of channels outputs,
// which follows the file unless audio.output_channels overrides it.
func chooseDevice(cfg *config.Config, devices []audio.Device, channels int) (audio.Device, error) {
	device, err := audio.SelectOutputDevice(devices, channels, cfg.Audio.OutputDevice)
	if err != nil {
		return audio.Device{}, fmt.Errorf("%d-channel output: %w", channels, err)
	}
	if cfg.Audio.OutputDevice >= 0 && device.Index != cfg.Audio.OutputDevice {
		log.Warnf("Output device %d unavailable for %d channels, using automatic selection",
			cfg.Audio.OutputDevice, channels)
	}
	log.Infof("Output device [%d] %s (%s), %d channels", device.Index, device.Name, device.HostAPIName, channels)
	return device, nil
}

// buildRenderers creates the configured sinks. Each is closed by td.
func buildRenderers(cfg *config.Config, td *teardown, sampleRate int) ([]analysis.Renderer, error) {
	var renderers []analysis.Renderer
	add := func(r analysis.Renderer) {
		renderers = append(renderers, r)
		td.push(func() {
			if err := r.Close(); err != nil {
				log.Warnf("Close renderer: %v", err)
			}
		})
	}

	if cfg.Recording.Enabled {
		source, err := audio.ParseRecordSource(cfg.Recording.Source)
		if err != nil {
			return nil, err
		}
		rec, err := audio.NewRecorder(sampleRate, cfg.Recording.BitDepth, cfg.Analysis.WindowSize, source)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(cfg.Recording.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("create recording directory: %w", err)
		}
		name := filepath.Join(cfg.Recording.OutputDir,
			"wavescope-"+time.Now().UTC().Format("02-01-2006-150405")+".wav")
		if err := rec.Start(name); err != nil {
			return nil, err
		}
		add(rec)
	}

	if cfg.Transport.WebSocketEnabled {
		ws := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress, wsSendInterval, float64(sampleRate))
		if err := ws.Start(); err != nil {
			ws.Close()
			return nil, err
		}
		add(ws)
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return nil, err
		}
		pub, err := udp.NewUDPPublisher(cfg.Transport.UDPSendInterval, sender, cfg.Analysis.WindowSize)
		if err != nil {
			sender.Close()
			return nil, err
		}
		pub.Start()
		add(pub)
	}

	if cfg.Debug {
		add(transport.NewLoggingTransport())
	}
	return renderers, nil
}
