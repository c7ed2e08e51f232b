package audio

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gordonklaus/portaudio"
)

// DefaultSinkName is the device name PulseAudio and PipeWire give their
// default output through the ALSA host API.
const DefaultSinkName = "Default Sink"

// ErrNoSuitableDevice is returned when no output device has enough channels.
var ErrNoSuitableDevice = errors.New("no suitable output device")

// PortAudio entry points, replaced in tests.
var (
	paLibInitialize              = portaudio.Initialize
	paLibTerminate               = portaudio.Terminate
	paLibDevicesFunc             = portaudio.Devices
	paLibDefaultOutputDeviceFunc = portaudio.DefaultOutputDevice
	paDevicesFunc                = paDevices
)

// Device describes one output-capable endpoint.
type Device struct {
	Index                   int
	Name                    string
	HostAPIName             string
	MaxOutputChannels       int
	DefaultSampleRate       float64
	DefaultLowOutputLatency time.Duration
	IsDefault               bool

	info *portaudio.DeviceInfo
}

// CanPlay reports whether the device can open a stream with channels outputs.
func (d Device) CanPlay(channels int) bool {
	return d.MaxOutputChannels >= channels
}

// Initialize sets up the PortAudio subsystem.
// This must be called before any audio operations and paired with a Terminate() call.
func Initialize() error {
	if err := paLibInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
func Terminate() error {
	if err := paLibTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// Devices returns every PortAudio device. PortAudio must be initialized.
func Devices() ([]Device, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}

	// A missing default output is not fatal; selection falls back to names.
	def, _ := paLibDefaultOutputDeviceFunc()

	devices := make([]Device, len(infos))
	for i, info := range infos {
		d := Device{
			Index:                   i,
			Name:                    info.Name,
			MaxOutputChannels:       info.MaxOutputChannels,
			DefaultSampleRate:       info.DefaultSampleRate,
			DefaultLowOutputLatency: info.DefaultLowOutputLatency,
			IsDefault:               def != nil && info == def,
			info:                    info,
		}
		if info.HostApi != nil {
			d.HostAPIName = info.HostApi.Name
		}
		if info.Name == DefaultSinkName {
			d.IsDefault = true
		}
		devices[i] = d
	}
	return devices, nil
}

// SelectOutputDevice picks where playback goes. A preferred index >= 0 wins if
// that device can play channels outputs; an unusable preference falls through
// to the automatic rule: the first capable device flagged as default, then the
// first capable device of any kind.
func SelectOutputDevice(devices []Device, channels, preferred int) (Device, error) {
	if preferred >= 0 && preferred < len(devices) && devices[preferred].CanPlay(channels) {
		return devices[preferred], nil
	}

	for _, d := range devices {
		if d.IsDefault && d.CanPlay(channels) {
			return d, nil
		}
	}
	for _, d := range devices {
		if d.CanPlay(channels) {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%d devices, none with %d output channels: %w",
		len(devices), channels, ErrNoSuitableDevice)
}

// ListDevices writes one entry per output-capable device.
func ListDevices(w io.Writer, devices []Device) {
	fmt.Fprintf(w, "\nAvailable Output Devices\n\n")
	for _, d := range devices {
		if d.MaxOutputChannels == 0 {
			continue
		}
		marker := ""
		if d.IsDefault {
			marker = " [default]"
		}
		fmt.Fprintf(w, "[%d] %s (%s)%s\n", d.Index, d.Name, d.HostAPIName, marker)
		fmt.Fprintf(w, "    Output channels: %d\n", d.MaxOutputChannels)
		fmt.Fprintf(w, "    Default sample rate: %.0f Hz\n", d.DefaultSampleRate)
		fmt.Fprintf(w, "    Low output latency: %.2fms\n", d.DefaultLowOutputLatency.Seconds()*1000)
		fmt.Fprintln(w)
	}
}

func paDevices() ([]*portaudio.DeviceInfo, error) {
	devices, err := paLibDevicesFunc()
	if err != nil {
		return nil, err
	}
	if devices == nil {
		return []*portaudio.DeviceInfo{}, nil
	}
	return devices, nil
}
