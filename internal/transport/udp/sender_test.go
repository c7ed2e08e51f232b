package udp

import (
	"errors"
	"testing"
	"time"
)

func TestSenderCountsDelivered(t *testing.T) {
	listener := listenUDP(t)
	sender, err := NewUDPSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewUDPSender: %v", err)
	}
	defer sender.Close()

	for i := 0; i < 3; i++ {
		if err := sender.Send([]byte{byte(i)}); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	if sent, lost := sender.Stats(); sent != 3 || lost != 0 {
		t.Errorf("Stats() = (%d, %d), want (3, 0)", sent, lost)
	}

	buf := make([]byte, 8)
	listener.SetReadDeadline(time.Now().Add(time.Second))
	if n, _, err := listener.ReadFromUDP(buf); err != nil || n != 1 || buf[0] != 0 {
		t.Errorf("first datagram = %v (n=%d, err=%v), want [0]", buf[:n], n, err)
	}
}

func TestSenderRejectsOversizedPacket(t *testing.T) {
	sender, err := NewUDPSender(listenUDP(t).LocalAddr().String())
	if err != nil {
		t.Fatalf("NewUDPSender: %v", err)
	}
	defer sender.Close()

	err = sender.Send(make([]byte, maxDatagram+1))
	if !errors.Is(err, ErrPacketTooLarge) {
		t.Fatalf("Send() error = %v, want ErrPacketTooLarge", err)
	}
	if sent, lost := sender.Stats(); sent != 0 || lost != 0 {
		t.Errorf("Stats() = (%d, %d), oversized packet should not be counted", sent, lost)
	}
}

func TestSenderClosed(t *testing.T) {
	sender, err := NewUDPSender(listenUDP(t).LocalAddr().String())
	if err != nil {
		t.Fatalf("NewUDPSender: %v", err)
	}
	if err := sender.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sender.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := sender.Send([]byte{1}); !errors.Is(err, errSenderClosed) {
		t.Errorf("Send after Close error = %v, want errSenderClosed", err)
	}
}

func TestPacketSize(t *testing.T) {
	tests := []struct {
		bins int
		want int
	}{
		{0, headerSize},
		{1, headerSize + 4},
		{513, headerSize + 4*513},
	}
	for _, tt := range tests {
		if got := packetSize(tt.bins); got != tt.want {
			t.Errorf("packetSize(%d) = %d, want %d", tt.bins, got, tt.want)
		}
	}
}
