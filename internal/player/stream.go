// SPDX-License-Identifier: MIT
package player

import (
	"math"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

// SampleSink receives the interleaved frames the playback callback
// just produced. The capture ring implements it. Push must be
// non-blocking and allocation-free: it runs on the audio-delivery
// context.
type SampleSink interface {
	Push(frames []float32, channels int)
}

// audioStream abstracts the PortAudio stream so the switch protocol
// can be exercised without an audio device.
type audioStream interface {
	Start() error
	Stop() error
	Close() error
}

// StreamOpener opens an output stream that invokes cb from the
// audio-delivery context to fill each buffer.
type StreamOpener func(channels int, sampleRate float64, framesPerBuffer int, cb func(out []float32)) (audioStream, error)

// PortAudioOpener returns a StreamOpener bound to the given output
// device ID. DefaultDeviceID opens the system default device.
func PortAudioOpener(deviceID int) StreamOpener {
	return func(channels int, sampleRate float64, framesPerBuffer int, cb func(out []float32)) (audioStream, error) {
		if deviceID == DefaultDeviceID {
			return portaudio.OpenDefaultStream(0, channels, sampleRate, framesPerBuffer, cb)
		}

		device, err := OutputDevice(deviceID)
		if err != nil {
			return nil, err
		}
		params := portaudio.StreamParameters{
			Output: portaudio.StreamDeviceParameters{
				Device:   device,
				Channels: channels,
				Latency:  device.DefaultHighOutputLatency,
			},
			SampleRate:      sampleRate,
			FramesPerBuffer: framesPerBuffer,
		}
		return portaudio.OpenStream(params, cb)
	}
}

// playback is the hot-path state shared between the audio-delivery
// context (fill) and the render context (cursor reads, seeks, volume
// and pause flips). Everything crossing that boundary is atomic; the
// PCM slice itself is immutable for the life of the stream.
type playback struct {
	pcm      []float32 // interleaved, immutable
	channels int
	rate     float64
	frames   int64 // total frame count, immutable

	frame   atomic.Int64  // next frame to emit
	volBits atomic.Uint64 // float64 bits of the volume in [0, 1]
	paused  atomic.Bool

	sink SampleSink
}

func newPlayback(t *Track, sink SampleSink, volume float64) *playback {
	pb := &playback{
		pcm:      t.pcm.samples,
		channels: t.pcm.channels,
		rate:     t.pcm.sampleRate,
		frames:   t.Frames(),
		sink:     sink,
	}
	pb.setVolume(volume)
	return pb
}

// fill produces one buffer of output frames. Runs on the
// audio-delivery context: no allocation, no blocking, no logging.
// Past the end of the track, and while paused, it emits silence; the
// sink still sees every buffer so the bars decay instead of freezing.
func (pb *playback) fill(out []float32) {
	frames := len(out) / pb.channels
	vol := float32(math.Float64frombits(pb.volBits.Load()))

	if pb.paused.Load() {
		for i := range out {
			out[i] = 0
		}
	} else {
		f := pb.frame.Load()
		for i := 0; i < frames; i++ {
			base := f * int64(pb.channels)
			for c := 0; c < pb.channels; c++ {
				if f < pb.frames {
					out[i*pb.channels+c] = pb.pcm[base+int64(c)] * vol
				} else {
					out[i*pb.channels+c] = 0
				}
			}
			if f < pb.frames {
				f++
			}
		}
		pb.frame.Store(f)
	}

	if pb.sink != nil {
		pb.sink.Push(out, pb.channels)
	}
}

func (pb *playback) setVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	pb.volBits.Store(math.Float64bits(v))
}

// seekTo jumps to the given frame, clamped to the track bounds.
func (pb *playback) seekTo(frame int64) {
	if frame < 0 {
		frame = 0
	} else if frame > pb.frames {
		frame = pb.frames
	}
	pb.frame.Store(frame)
}

// played returns seconds of audio emitted so far.
func (pb *playback) played() float64 {
	return float64(pb.frame.Load()) / pb.rate
}

// length returns the total track length in seconds.
func (pb *playback) length() float64 {
	return float64(pb.frames) / pb.rate
}
