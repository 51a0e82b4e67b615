// SPDX-License-Identifier: MIT
/*
Package transport delivers visualization frames to external consumers:
a WebSocket broadcast for browser overlays and a binary UDP feed for
lighting rigs and native clients.

Transports are driven synchronously from the render loop, once per
frame, and rate-limit internally. Nothing here runs on the
audio-delivery context.
*/
package transport

// BarFrame is one render frame of visualization output.
type BarFrame struct {
	Bars     []float64 `json:"bars"`
	Smear    []float64 `json:"smear"`
	HasAudio bool      `json:"hasAudio"`
	Error    string    `json:"error,omitempty"`
}

// Transport publishes bar frames to an external consumer. Publish is
// called once per render frame; implementations drop frames that
// exceed their own send rate.
type Transport interface {
	Publish(frame *BarFrame) error
	Close() error
}
