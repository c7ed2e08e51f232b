package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for playback and analysis.
const (
	// Playback
	DefaultBackend         = "portaudio"
	DefaultOutputDevice    = MinDeviceID // Pick a capable default
	DefaultOutputChannels  = FileChannels
	DefaultFramesPerBuffer = 512 // Balanced latency/performance
	DefaultLowLatency      = true

	// Analysis
	DefaultWindowSize  = 1024
	DefaultRingWindows = 2
	DefaultTransform   = "fft"
	DefaultTickRate    = 60

	// Rendering
	DefaultRenderMode = "window"
	DefaultHeight     = 400

	// Recording
	DefaultRecordingDir    = "./recordings"
	DefaultBitDepth        = 16
	DefaultRecordingSource = "wave"

	// Transport
	DefaultWebSocketAddress = ":8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond // ~30Hz

	// Hardware and processing limits
	MinDeviceID       = -1 // -1 lets the device rule choose
	FileChannels      = 0  // Open as many output channels as the file has
	MaxOutputChannels = 8
	MaxBufferFrames   = 8192
	MaxWindowSize     = 1 << 16
	MinRingWindows    = 2
	MaxTickRate       = 1000
)

// Render modes.
const (
	RenderWindow   = "window"
	RenderTerminal = "terminal"
	RenderHeadless = "headless"
)
