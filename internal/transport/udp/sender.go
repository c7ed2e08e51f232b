package udp

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
)

const (
	// sequence number, timestamp, bin count
	headerSize = 4 + 8 + 2

	// Largest UDP payload over IPv4. Spectrum packets are never fragmented
	// across datagrams, so a window whose packet exceeds this is refused.
	maxDatagram = 65507
)

var (
	ErrPacketTooLarge = errors.New("spectrum packet exceeds the UDP datagram limit")
	errSenderClosed   = errors.New("UDP sender is closed")
)

// packetSize is the encoded size of a packet carrying bins magnitudes.
func packetSize(bins int) int { return headerSize + 4*bins }

// UDPSender writes spectrum packets to one connected UDP peer. Delivery is
// best effort: failed writes are counted, the first is logged as a warning
// and the rest at debug level so a missing listener cannot flood the log.
type UDPSender struct {
	conn *net.UDPConn
	mu   sync.Mutex // guards conn against Close
	sent atomic.Uint64
	lost atomic.Uint64
}

// NewUDPSender connects to targetAddress ("host:port").
func NewUDPSender(targetAddress string) (*UDPSender, error) {
	addr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("resolve UDP target %q: %w", targetAddress, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial UDP target %q: %w", targetAddress, err)
	}
	logger.Infof("Sending spectrum packets to %s", conn.RemoteAddr())
	return &UDPSender{conn: conn}, nil
}

// Send writes packet as one datagram.
func (s *UDPSender) Send(packet []byte) error {
	if len(packet) > maxDatagram {
		return fmt.Errorf("%d bytes: %w", len(packet), ErrPacketTooLarge)
	}

	s.mu.Lock()
	if s.conn == nil {
		s.mu.Unlock()
		return errSenderClosed
	}
	_, err := s.conn.Write(packet)
	s.mu.Unlock()

	if err != nil {
		if s.lost.Add(1) == 1 {
			logger.Warnf("Packet lost: %v", err)
		} else {
			logger.Debugf("Packet lost: %v", err)
		}
		return fmt.Errorf("send spectrum packet: %w", err)
	}
	s.sent.Add(1)
	return nil
}

// Stats reports packets written and packets whose write failed.
func (s *UDPSender) Stats() (sent, lost uint64) {
	return s.sent.Load(), s.lost.Load()
}

// Close closes the connection. Later sends fail; repeated calls are no-ops.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	sent, lost := s.Stats()
	logger.Infof("Closing connection to %s after %d packets (%d lost)", s.conn.RemoteAddr(), sent, lost)
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("close UDP connection: %w", err)
	}
	return nil
}
