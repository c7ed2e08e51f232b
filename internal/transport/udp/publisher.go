// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"wavescope/internal/analysis"
	"wavescope/internal/log"
)

var logger = log.New("udp")

// UDPPublisher packs the latest magnitude spectrum into a binary packet and
// sends it over UDP at a fixed interval, independent of the render rate.
// Render, called on the analysis goroutine, only copies the magnitudes of
// the non-negative frequency bins (N/2 + 1) into a staging buffer.
type UDPPublisher struct {
	sender   *UDPSender    // The underlying UDP sender instance.
	interval time.Duration // The interval at which packets are sent.

	ticker   *time.Ticker   // Ticker that triggers packet sending.
	doneChan chan struct{}  // Channel used to signal the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects access to ticker and doneChan during Start/Stop.

	sequenceNum uint32 // Monotonically increasing sequence number for packets.

	latestMu  sync.Mutex // Protects latest and hasLatest.
	latest    []float64  // Magnitudes of the most recent frame.
	hasLatest bool       // False until the first frame arrives.

	// Pre-allocated buffers to reduce allocations in the hot path (buildAndSendPacket).
	udpMagBuffer []float64     // Snapshot of latest taken under latestMu.
	udpF32Buffer []float32     // Buffer to hold float32 magnitudes for binary packing.
	packetBuffer *bytes.Buffer // Reusable buffer for constructing the binary packet.
}

// NewUDPPublisher creates and initializes a new UDPPublisher for windows of
// windowSize samples. If the provided interval is invalid (<= 0), it defaults
// to 16ms (~60Hz).
func NewUDPPublisher(interval time.Duration, sender *UDPSender, windowSize int) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	if windowSize < 1 {
		return nil, fmt.Errorf("UDPPublisher: invalid window size %d", windowSize)
	}

	if interval <= 0 {
		interval = 16 * time.Millisecond // Default to ~60Hz if invalid
		logger.Warnf("Invalid interval provided, defaulting to %s", interval)
	}

	requiredLen := windowSize/2 + 1
	if size := packetSize(requiredLen); size > maxDatagram {
		return nil, fmt.Errorf("UDPPublisher: window of %d samples needs %d-byte packets: %w",
			windowSize, size, ErrPacketTooLarge)
	}
	logger.Infof("Initializing (Interval: %s, Bins: %d)", interval, requiredLen)

	return &UDPPublisher{
		sender:       sender,
		interval:     interval,
		latest:       make([]float64, requiredLen),
		udpMagBuffer: make([]float64, requiredLen),
		udpF32Buffer: make([]float32, requiredLen),
		packetBuffer: bytes.NewBuffer(make([]byte, 0, packetSize(requiredLen))),
	}, nil
}

// Render stores the magnitudes of frame for the next packet.
func (p *UDPPublisher) Render(frame *analysis.Frame) error {
	p.latestMu.Lock()
	copy(p.latest, frame.Magnitude)
	p.hasLatest = true
	p.latestMu.Unlock()
	return nil
}

// Start begins the periodic publishing process.
// It launches a goroutine that ticks at the configured interval, calling
// buildAndSendPacket on each tick until Stop is called.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	// Prevent starting if already running
	if p.ticker != nil {
		p.mu.Unlock()
		logger.Warnf("Start called but already running.")
		return
	}

	// Initialize resources for this run
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{} // Reset stopOnce for this run

	// Capture local variables for the goroutine to avoid data races on p.ticker/p.doneChan
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock() // Unlock before starting the potentially long-running goroutine

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		logger.Infof("Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				// Time to send a packet
				p.buildAndSendPacket()
			case <-doneChan:
				// Stop signal received
				logger.Infof("Publisher goroutine received stop signal.")
				return
			}
		}
	}()
}

// Stop gracefully signals the publisher goroutine to terminate and waits for it to exit.
// It stops the internal ticker and closes the done channel.
// It is safe to call Stop multiple times; subsequent calls are no-ops.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	// Check if already stopped or never started
	if p.ticker == nil {
		p.mu.Unlock()
		logger.Debugf("Stop called but not running.")
		return nil
	}

	// Use sync.Once to ensure stop logic (closing channel, stopping ticker) runs only once
	p.stopOnce.Do(func() {
		logger.Infof("Initiating stop sequence...")
		close(p.doneChan) // Signal the goroutine to exit
		p.ticker.Stop()   // Stop the ticker
		p.ticker = nil    // Mark as stopped
	})

	p.mu.Unlock() // Unlock before waiting

	// Wait for the publisher goroutine to finish processing the stop signal
	logger.Debugf("Waiting for publisher goroutine to finish...")
	p.wg.Wait()
	logger.Infof("Publisher goroutine finished.")
	return nil
}

/*
UDP Packet Structure (BigEndian) - See visual diagram below

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Magnitude Count   | uint16         | 2            | Number of floats (N)    |
| Magnitudes        | []float32      | N * 4        | Array of FFT magnitudes |
+-----------------------------------------------------------------------------+

Visual Layout:

|<---- 4 Bytes ---->|<------ 8 Bytes ------>|<-- 2 Bytes -->|<----- N * 4 Bytes ----->|
+-------------------+-----------------------+---------------+-------------------------+
|  Sequence Number  |       Timestamp       |   Magnitude   |       Magnitudes        |
|      (uint32)     |        (int64)        |     Count     |      (N * float32)      |
|                   |                       |     (uint16)  |                         |
+-------------------+-----------------------+---------------+-------------------------+
*/

// buildAndSendPacket is the core function executed on each ticker interval.
// It performs the following steps:
// 1. Snapshots the latest magnitudes (nothing is sent before the first frame).
// 2. Converts magnitudes from float64 to float32.
// 3. Packs the sequence number, timestamp, count, and magnitudes into a binary buffer.
// 4. Sends the resulting packet using the UDPSender.
func (p *UDPPublisher) buildAndSendPacket() {
	// --- 1. Fetch Data ---
	p.latestMu.Lock()
	if !p.hasLatest {
		p.latestMu.Unlock()
		return
	}
	copy(p.udpMagBuffer, p.latest)
	p.latestMu.Unlock()

	// --- 2. Convert Data ---
	for i, v := range p.udpMagBuffer {
		p.udpF32Buffer[i] = float32(v)
	}

	// --- 3. Pack Data ---
	p.sequenceNum++
	if err := p.pack(time.Now().UnixNano()); err != nil {
		logger.Errorf("Error packing data into binary buffer: %v", err)
		return // Skip sending this packet
	}

	// --- 4. Send Data ---
	packetBytes := p.packetBuffer.Bytes()
	if err := p.sender.Send(packetBytes); err == nil {
		// Log successful sends only at Debug level to avoid flooding logs.
		logger.Debugf("Sent packet %d (%d bytes)", p.sequenceNum, len(packetBytes))
	}
}

// pack writes the header and payload for the current sequence number into
// packetBuffer using BigEndian byte order.
func (p *UDPPublisher) pack(timestamp int64) error {
	p.packetBuffer.Reset()

	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint16(len(p.udpF32Buffer)))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.udpF32Buffer)
	}
	return err
}

// Close stops the publisher goroutine and closes the sender it owns.
func (p *UDPPublisher) Close() error {
	logger.Debugf("Close called, stopping publisher...")
	if err := p.Stop(); err != nil {
		return err
	}
	return p.sender.Close()
}

var _ analysis.Renderer = (*UDPPublisher)(nil)
