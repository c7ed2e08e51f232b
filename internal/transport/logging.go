package transport

import (
	"wavescope/internal/analysis"
	"wavescope/internal/fft"
	"wavescope/internal/log"

	"gonum.org/v1/gonum/floats"
)

var frameLog = log.New("frames")

// LoggingTransport logs at debug level: the peak bin of every frame, and
// anything passed to Send.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	frameLog.Debugf("Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received data.
func (lt *LoggingTransport) Send(data any) error {
	frameLog.Debugf("(%T) %+v", data, data)
	return nil // Logging transport never fails to "send"
}

// Render logs the strongest non-negative frequency bin of frame.
func (lt *LoggingTransport) Render(frame *analysis.Frame) error {
	if log.GetLevel() > log.LevelDebug {
		return nil
	}
	n := frame.Size()
	if n == 0 {
		return nil
	}
	peak := floats.MaxIdx(frame.Magnitude[:n/2+1])
	frameLog.Debugf("#%d peak bin %d (%.1f Hz) at %.3f",
		frame.Seq, peak, fft.BinFrequency(peak, n, frame.SampleRate), frame.Magnitude[peak])
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	frameLog.Debugf("Close called")
	return nil
}

// Ensure LoggingTransport satisfies the interfaces at compile time.
var (
	_ Transport         = (*LoggingTransport)(nil)
	_ analysis.Renderer = (*LoggingTransport)(nil)
)
