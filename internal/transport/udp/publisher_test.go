// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"musviz/internal/transport"
)

// loopbackListener binds an ephemeral local UDP port and returns the
// address to send to.
func loopbackListener(t *testing.T) (*net.UDPConn, string) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, conn.LocalAddr().String()
}

func readPacket(t *testing.T, conn *net.UDPConn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 2048)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatal(err)
	}
	return buf[:n]
}

func TestPublishWireFormat(t *testing.T) {
	listener, addr := loopbackListener(t)

	sender, err := NewSender(addr)
	if err != nil {
		t.Fatal(err)
	}
	pub, err := NewPublisher(time.Millisecond, sender, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()

	frame := &transport.BarFrame{Bars: []float64{0.25, 0.5, 1.0, 1.5}}
	if err := pub.Publish(frame); err != nil {
		t.Fatal(err)
	}

	packet := readPacket(t, listener)
	r := bytes.NewReader(packet)

	var seq uint32
	var timestamp int64
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &seq); err != nil {
		t.Fatal(err)
	}
	if err := binary.Read(r, binary.BigEndian, &timestamp); err != nil {
		t.Fatal(err)
	}
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		t.Fatal(err)
	}

	if seq != 1 {
		t.Errorf("sequence = %d, want 1", seq)
	}
	if timestamp <= 0 {
		t.Errorf("timestamp = %d, want positive", timestamp)
	}
	if count != 4 {
		t.Fatalf("bar count = %d, want 4", count)
	}

	bars := make([]float32, count)
	if err := binary.Read(r, binary.BigEndian, &bars); err != nil {
		t.Fatal(err)
	}
	for i, want := range frame.Bars {
		if bars[i] != float32(want) {
			t.Errorf("bar %d = %v, want %v", i, bars[i], want)
		}
	}
	if r.Len() != 0 {
		t.Errorf("%d trailing bytes in packet", r.Len())
	}
}

func TestPublishRateLimit(t *testing.T) {
	listener, addr := loopbackListener(t)

	sender, err := NewSender(addr)
	if err != nil {
		t.Fatal(err)
	}
	pub, err := NewPublisher(time.Hour, sender, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()

	frame := &transport.BarFrame{Bars: []float64{0.1, 0.2}}
	if err := pub.Publish(frame); err != nil {
		t.Fatal(err)
	}
	if err := pub.Publish(frame); err != nil {
		t.Fatal(err)
	}

	readPacket(t, listener)

	// The second publish fell inside the interval and was dropped.
	listener.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	buf := make([]byte, 2048)
	if n, _, err := listener.ReadFromUDP(buf); err == nil {
		t.Fatalf("unexpected second packet of %d bytes", n)
	}

	if pub.sequenceNum != 1 {
		t.Fatalf("sequence advanced to %d on a dropped frame", pub.sequenceNum)
	}
}

func TestPublishBarCountMismatch(t *testing.T) {
	_, addr := loopbackListener(t)

	sender, err := NewSender(addr)
	if err != nil {
		t.Fatal(err)
	}
	pub, err := NewPublisher(time.Millisecond, sender, 8)
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()

	frame := &transport.BarFrame{Bars: []float64{1}}
	if err := pub.Publish(frame); err == nil {
		t.Fatal("mismatched bar count accepted")
	}
}

func TestNewPublisherValidation(t *testing.T) {
	if _, err := NewPublisher(time.Millisecond, nil, 4); err == nil {
		t.Error("nil sender accepted")
	}

	_, addr := loopbackListener(t)
	sender, err := NewSender(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer sender.Close()

	if _, err := NewPublisher(time.Millisecond, sender, 0); err == nil {
		t.Error("zero bar count accepted")
	}
}

func TestSenderClosedSend(t *testing.T) {
	_, addr := loopbackListener(t)
	sender, err := NewSender(addr)
	if err != nil {
		t.Fatal(err)
	}
	if err := sender.Close(); err != nil {
		t.Fatal(err)
	}
	if err := sender.Close(); err != nil {
		t.Fatalf("second close errored: %v", err)
	}
	if err := sender.Send([]byte{1, 2, 3}); err == nil {
		t.Fatal("send on closed sender succeeded")
	}
}
