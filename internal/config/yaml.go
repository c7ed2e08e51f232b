// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"wavescope/internal/fft"
	"wavescope/internal/log"
	"wavescope/pkg/bitint"

	"gopkg.in/yaml.v3"
)

var logger = log.New("config")

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug logging.
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	Audio     AudioConfig     `yaml:"audio"`     // Playback settings.
	Analysis  AnalysisConfig  `yaml:"analysis"`  // Spectrum analysis settings.
	Render    RenderConfig    `yaml:"render"`    // Front-end settings.
	Recording RecordingConfig `yaml:"recording"` // Analysed window capture.
	Transport TransportConfig `yaml:"transport"` // Network sinks.
}

// AudioConfig holds settings related to audio output.
type AudioConfig struct {
	Backend         string `yaml:"backend"`           // "portaudio" or "oto".
	OutputDevice    int    `yaml:"output_device"`     // PortAudio device index (-1 for automatic selection).
	OutputChannels  int    `yaml:"output_channels"`   // Channels opened on the output device (0 follows the file).
	FramesPerBuffer int    `yaml:"frames_per_buffer"` // Frames per output period.
	LowLatency      bool   `yaml:"low_latency"`       // Request the device's low output latency.
}

// AnalysisConfig holds settings for the spectrum pipeline.
type AnalysisConfig struct {
	WindowSize          int    `yaml:"window_size"`          // Samples per analysed window (N).
	RingWindows         int    `yaml:"ring_windows"`         // Ring capacity in windows, rounded up to a power of two.
	Transform           string `yaml:"transform"`            // "fft" or "dft".
	Reconstruct         bool   `yaml:"reconstruct"`          // Compute the inverse transform every tick.
	ReconstructPlayback bool   `yaml:"reconstruct_playback"` // Play the round-tripped clip instead of the original.
	TickRate            int    `yaml:"tick_rate"`            // Render ticks per second.
}

// RenderConfig holds front-end settings.
type RenderConfig struct {
	Mode   string `yaml:"mode"`   // "window", "terminal" or "headless".
	Height int    `yaml:"height"` // Window height in pixels.
}

// RecordingConfig holds settings related to capturing analysed windows.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Write analysed windows to a WAV file.
	OutputDir string `yaml:"output_dir"` // Directory to save recordings.
	BitDepth  int    `yaml:"bit_depth"`  // 16, 24 or 32.
	Source    string `yaml:"source"`     // "wave" or "reconstruction".
}

// TransportConfig holds settings related to sending frames over the network.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Serve JSON frames over WebSocket.
	WebSocketAddress string        `yaml:"websocket_address"`  // Listen address (e.g., ":8080").
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send magnitude packets over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between UDP packets.
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			Backend:         DefaultBackend,
			OutputDevice:    DefaultOutputDevice,
			OutputChannels:  DefaultOutputChannels,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
		},
		Analysis: AnalysisConfig{
			WindowSize:  DefaultWindowSize,
			RingWindows: DefaultRingWindows,
			Transform:   DefaultTransform,
			TickRate:    DefaultTickRate,
		},
		Render: RenderConfig{
			Mode:   DefaultRenderMode,
			Height: DefaultHeight,
		},
		Recording: RecordingConfig{
			OutputDir: DefaultRecordingDir,
			BitDepth:  DefaultBitDepth,
			Source:    DefaultRecordingSource,
		},
		Transport: TransportConfig{
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range []string{"config.yaml", "wavescope.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, v ...any) { errs = append(errs, fmt.Errorf(format, v...)) }

	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		add("log_level %q is not one of debug, info, warn, error, fatal", c.LogLevel)
	}

	// Audio
	switch strings.ToLower(c.Audio.Backend) {
	case "portaudio", "oto":
	default:
		add("audio.backend %q must be portaudio or oto", c.Audio.Backend)
	}
	if c.Audio.OutputDevice < MinDeviceID {
		add("audio.output_device must be >= %d, got %d", MinDeviceID, c.Audio.OutputDevice)
	}
	if c.Audio.OutputChannels < FileChannels || c.Audio.OutputChannels > MaxOutputChannels {
		add("audio.output_channels must be 0 (follow the file) or 1..%d, got %d", MaxOutputChannels, c.Audio.OutputChannels)
	}
	if c.Audio.FramesPerBuffer < 1 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		add("audio.frames_per_buffer must be 1..%d, got %d", MaxBufferFrames, c.Audio.FramesPerBuffer)
	}

	// Analysis
	kind, err := fft.ParseKind(c.Analysis.Transform)
	if err != nil {
		add("analysis.transform: %w", err)
	}
	switch {
	case c.Analysis.WindowSize < 1 || c.Analysis.WindowSize > MaxWindowSize:
		add("analysis.window_size must be 1..%d, got %d", MaxWindowSize, c.Analysis.WindowSize)
	case kind == fft.KindFFT && !bitint.IsPowerOfTwo(c.Analysis.WindowSize):
		add("analysis.window_size must be a power of 2 for the fft transform, got %d", c.Analysis.WindowSize)
	}
	if c.Analysis.RingWindows < MinRingWindows {
		add("analysis.ring_windows must be >= %d, got %d", MinRingWindows, c.Analysis.RingWindows)
	}
	if c.Analysis.TickRate < 1 || c.Analysis.TickRate > MaxTickRate {
		add("analysis.tick_rate must be 1..%d, got %d", MaxTickRate, c.Analysis.TickRate)
	}

	// Render
	switch strings.ToLower(c.Render.Mode) {
	case RenderWindow, RenderTerminal, RenderHeadless:
	default:
		add("render.mode %q must be window, terminal or headless", c.Render.Mode)
	}
	if c.Render.Height < 1 {
		add("render.height must be positive, got %d", c.Render.Height)
	}

	// Recording
	if c.Recording.Enabled {
		switch c.Recording.BitDepth {
		case 16, 24, 32:
		default:
			add("recording.bit_depth must be 16, 24 or 32, got %d", c.Recording.BitDepth)
		}
		if c.Recording.OutputDir == "" {
			add("recording.output_dir must be set when recording is enabled")
		}
		switch strings.ToLower(c.Recording.Source) {
		case "wave", "":
		case "reconstruction":
			if !c.Analysis.Reconstruct {
				add("recording.source reconstruction needs analysis.reconstruct")
			}
		default:
			add("recording.source %q must be wave or reconstruction", c.Recording.Source)
		}
	}

	// Transport
	if c.Transport.WebSocketEnabled && c.Transport.WebSocketAddress == "" {
		add("transport.websocket_address must be set when the websocket sink is enabled")
	}
	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			add("transport.udp_target_address must be set when UDP is enabled")
		} else if !strings.Contains(c.Transport.UDPTargetAddress, ":") {
			add("transport.udp_target_address '%s' appears invalid (missing port?)", c.Transport.UDPTargetAddress)
		}
		if c.Transport.UDPSendInterval <= 0 {
			add("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}

	return errors.Join(errs...)
}

// OutputChannels is the stream channel count for a file with fileChannels
// channels: the configured count, or the file's own when it is 0.
func (c *Config) OutputChannels(fileChannels int) int {
	if c.Audio.OutputChannels == FileChannels {
		return fileChannels
	}
	return c.Audio.OutputChannels
}

// RingCapacity is the ring size in samples: the window times ring_windows,
// rounded up to a power of two.
func (c *Config) RingCapacity() int {
	return bitint.NextPowerOfTwo(c.Analysis.WindowSize * max(c.Analysis.RingWindows, MinRingWindows))
}

// applyEnvOverrides applies ENV_* variables on top of the file or defaults.
// Malformed values are ignored with a warning.
func (cfg *Config) applyEnvOverrides() {
	// ENV_{...}
	// These are general overrides.
	envBool("ENV_DEBUG", "debug", &cfg.Debug)
	envString("ENV_LOG_LEVEL", "log_level", &cfg.LogLevel)

	// ENV_AUDIO_{...}
	envString("ENV_AUDIO_BACKEND", "audio.backend", &cfg.Audio.Backend)
	envInt("ENV_AUDIO_OUTPUT_DEVICE", "audio.output_device", &cfg.Audio.OutputDevice)
	envInt("ENV_AUDIO_OUTPUT_CHANNELS", "audio.output_channels", &cfg.Audio.OutputChannels)
	envInt("ENV_AUDIO_FRAMES_PER_BUFFER", "audio.frames_per_buffer", &cfg.Audio.FramesPerBuffer)

	// ENV_ANALYSIS_{...}
	envInt("ENV_ANALYSIS_WINDOW_SIZE", "analysis.window_size", &cfg.Analysis.WindowSize)
	envString("ENV_ANALYSIS_TRANSFORM", "analysis.transform", &cfg.Analysis.Transform)
	envBool("ENV_ANALYSIS_RECONSTRUCT", "analysis.reconstruct", &cfg.Analysis.Reconstruct)
	envBool("ENV_ANALYSIS_RECONSTRUCT_PLAYBACK", "analysis.reconstruct_playback", &cfg.Analysis.ReconstructPlayback)

	// ENV_RENDER_{...}
	envString("ENV_RENDER_MODE", "render.mode", &cfg.Render.Mode)

	// ENV_RECORDING_{...}
	envBool("ENV_RECORDING_ENABLED", "recording.enabled", &cfg.Recording.Enabled)

	// ENV_WEBSOCKET_{...} and ENV_UDP_{...}
	// These are specific to the transport layer.
	envBool("ENV_WEBSOCKET_ENABLED", "transport.websocket_enabled", &cfg.Transport.WebSocketEnabled)
	envString("ENV_WEBSOCKET_ADDRESS", "transport.websocket_address", &cfg.Transport.WebSocketAddress)
	envBool("ENV_UDP_ENABLED", "transport.udp_enabled", &cfg.Transport.UDPEnabled)
	envString("ENV_UDP_TARGET_ADDRESS", "transport.udp_target_address", &cfg.Transport.UDPTargetAddress)
	envDuration("ENV_UDP_SEND_INTERVAL", "transport.udp_send_interval", &cfg.Transport.UDPSendInterval)
}

func envString(name, key string, dst *string) {
	if val, ok := os.LookupEnv(name); ok {
		*dst = val
		logger.Infof("Overriding %s from env: %s", key, val)
	}
}

func envBool(name, key string, dst *bool) {
	val, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		logger.Warnf("Ignoring %s=%q: %v", name, val, err)
		return
	}
	*dst = b
	logger.Infof("Overriding %s from env: %v", key, b)
}

func envInt(name, key string, dst *int) {
	val, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		logger.Warnf("Ignoring %s=%q: %v", name, val, err)
		return
	}
	*dst = n
	logger.Infof("Overriding %s from env: %d", key, n)
}

func envDuration(name, key string, dst *time.Duration) {
	val, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		logger.Warnf("Ignoring %s=%q: %v", name, val, err)
		return
	}
	*dst = d
	logger.Infof("Overriding %s from env: %s", key, d)
}
