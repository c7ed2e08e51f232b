package transport

import (
	"wavescope/internal/analysis"
)

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Payload is the JSON message sent for every analysed frame. Slices are
// copies, so a Payload stays valid after the Loop moves on.
type Payload struct {
	Type           string             `json:"type"`
	Seq            uint64             `json:"seq"`
	SampleRate     float64            `json:"sample_rate"`
	Wave           []float64          `json:"wave"`
	Magnitude      []float64          `json:"magnitude"`
	Reconstruction []float64          `json:"reconstruction,omitempty"`
	Bands          map[string]float64 `json:"bands"`
}

// NewPayload snapshots frame together with its band levels.
func NewPayload(frame *analysis.Frame, bands []analysis.Band) *Payload {
	p := &Payload{
		Type:       "frame",
		Seq:        frame.Seq,
		SampleRate: frame.SampleRate,
		Wave:       append([]float64(nil), frame.Wave...),
		Magnitude:  append([]float64(nil), frame.Magnitude...),
		Bands:      make(map[string]float64, len(bands)),
	}
	if frame.Reconstruction != nil {
		p.Reconstruction = append([]float64(nil), frame.Reconstruction...)
	}
	for _, b := range bands {
		p.Bands[b.Name] = b.Level
	}
	return p
}
