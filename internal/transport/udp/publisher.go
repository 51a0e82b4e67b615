// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	applog "musviz/internal/log"
	"musviz/internal/transport"
)

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------+
| Field           | Data Type | Size (Bytes) | Description              |
|-----------------|-----------|--------------|--------------------------|
| Sequence Number | uint32    | 4            | Monotonically increasing |
| Timestamp       | int64     | 8            | Nanoseconds since epoch  |
| Bar Count       | uint16    | 2            | Number of floats (N)     |
| Bars            | []float32 | N * 4        | Bar intensities [0, 1.5] |
+-----------------------------------------------------------------------+
*/

// Publisher packs bar frames into the binary packet format above and
// sends them over UDP. It is driven synchronously from the render
// loop; frames arriving faster than the configured interval are
// dropped. Buffers are pre-allocated so steady-state publishing does
// not allocate.
type Publisher struct {
	sender   *Sender
	interval time.Duration
	lastSend time.Time

	sequenceNum  uint32
	f32Buffer    []float32
	packetBuffer *bytes.Buffer
}

// NewPublisher creates a Publisher sending at most one packet per
// interval. If the provided interval is invalid (<= 0), it defaults
// to 16ms (~60Hz).
func NewPublisher(interval time.Duration, sender *Sender, barCount int) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	if barCount < 1 {
		return nil, fmt.Errorf("udp publisher: bar count must be positive, got %d", barCount)
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("udp publisher: invalid interval provided, defaulting to %s", interval)
	}

	return &Publisher{
		sender:       sender,
		interval:     interval,
		f32Buffer:    make([]float32, barCount),
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Publish packs one frame and sends it, subject to the interval
// limit. A frame with a different bar count than configured is an
// error.
func (p *Publisher) Publish(frame *transport.BarFrame) error {
	now := time.Now()
	if now.Sub(p.lastSend) < p.interval {
		return nil
	}
	p.lastSend = now

	if len(frame.Bars) != len(p.f32Buffer) {
		return fmt.Errorf("udp publisher: frame has %d bars, configured for %d",
			len(frame.Bars), len(p.f32Buffer))
	}
	for i, v := range frame.Bars {
		p.f32Buffer[i] = float32(v)
	}

	p.sequenceNum++
	timestamp := now.UnixNano()
	barCount := uint16(len(p.f32Buffer))

	p.packetBuffer.Reset()
	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, barCount)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.f32Buffer)
	}
	if err != nil {
		return fmt.Errorf("udp publisher: packing packet: %w", err)
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		return err
	}
	applog.Debugf("udp publisher: sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
	return nil
}

// Close closes the underlying sender.
func (p *Publisher) Close() error {
	return p.sender.Close()
}
