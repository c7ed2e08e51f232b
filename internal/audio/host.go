package audio

import (
	"fmt"
	"strings"

	"wavescope/internal/log"
)

var logger = log.New("audio")

// Host drives an Engine from an output device. Start begins pulling periods,
// Stop halts them, Close releases the device. Active reports whether periods
// of the clip are still being played.
type Host interface {
	Start() error
	Stop() error
	Close() error
	Active() bool
}

// Backend names a Host implementation in configuration.
type Backend string

const (
	BackendPortAudio Backend = "portaudio"
	BackendOto       Backend = "oto"
)

// ParseBackend converts a configuration name (case-insensitive) to a Backend.
func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(name))) {
	case BackendPortAudio, "":
		return BackendPortAudio, nil
	case BackendOto:
		return BackendOto, nil
	default:
		return BackendPortAudio, fmt.Errorf("unknown audio backend %q (want portaudio or oto)", name)
	}
}
