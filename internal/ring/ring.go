// SPDX-License-Identifier: MIT
/*
Package ring implements the capture buffer between the audio callback
and the render loop: a fixed-capacity single-producer single-consumer
ring of mono samples.

Synchronization model:
  - The audio callback is the only writer of the sample slots and the
    cursor. The render loop is the only reader of both.
  - The cursor is an absolute frame count published with an atomic
    store after the sample writes it covers. Go's sync/atomic gives the
    store release semantics and the load acquire semantics, so every
    sample write is visible to the reader before the cursor that
    exposes it. No locks anywhere.
  - Slots more than capacity frames behind the cursor are being reused
    by the writer; the reader only ever consumes the trailing window
    ending at the cursor it loaded.
*/
package ring

import (
	"fmt"
	"sync/atomic"

	"musviz/pkg/bitint"
)

// Ring is the sample capture buffer. Capacity is fixed at construction
// and must be a power of two so slot indexing is a single mask.
type Ring struct {
	buf    []float32
	mask   uint64
	cursor atomic.Uint64 // absolute frames written, published last
}

// New creates a Ring holding size samples. size must be a power of two.
func New(size int) (*Ring, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("ring size must be a power of 2, got %d", size)
	}
	return &Ring{
		buf:  make([]float32, size),
		mask: uint64(size - 1),
	}, nil
}

// Size returns the capacity in samples.
func (r *Ring) Size() int {
	return len(r.buf)
}

// Push stores one mono sample per frame of the interleaved input and
// then publishes the advanced cursor. Only channel 0 is analyzed.
//
// Producer side only. Non-blocking, allocation-free, O(frames).
func (r *Ring) Push(frames []float32, channels int) {
	if channels < 1 || len(frames) == 0 {
		return
	}
	w := r.cursor.Load()
	n := uint64(len(frames) / channels)
	for i := uint64(0); i < n; i++ {
		r.buf[(w+i)&r.mask] = frames[int(i)*channels]
	}
	r.cursor.Store(w + n) // release: sample writes above happen-before this
}

// Snapshot copies the most recent Size() samples, oldest first, ending
// at the last published cursor. Slots never written read as zero, so a
// freshly started stream yields a quiet, mostly flat spectrum rather
// than an error.
//
// Consumer side only. len(dst) must equal Size().
func (r *Ring) Snapshot(dst []float32) {
	n := uint64(len(r.buf))
	c := r.cursor.Load() // acquire: see every write up to c
	if c < n {
		// Not yet wrapped: leading zeros, then samples 0..c in order.
		for i := range dst[:n-c] {
			dst[i] = 0
		}
		copy(dst[n-c:], r.buf[:c])
		return
	}
	pos := c & r.mask
	copy(dst, r.buf[pos:])
	copy(dst[n-pos:], r.buf[:pos])
}

// Cursor returns the absolute number of frames written so far.
func (r *Ring) Cursor() uint64 {
	return r.cursor.Load()
}

// Reset zeroes the buffer and cursor. Must only be called from the
// render context after the producer has been detached; a producer
// still attached would race the zeroing.
func (r *Ring) Reset() {
	for i := range r.buf {
		r.buf[i] = 0
	}
	r.cursor.Store(0)
}
