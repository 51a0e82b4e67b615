// SPDX-License-Identifier: MIT
/*
Package player owns the track and playback lifecycle: the playlist,
the decoded PCM resources, the output stream feeding the audio device
and the attach/detach protocol that keeps the capture ring consistent
across track switches.

All Player methods run on the render/update context. The only code
running on the audio-delivery context is playback.fill, which shares
nothing with the Player beyond the atomics inside playback.
*/
package player

import (
	"fmt"

	"musviz/internal/log"
)

// advanceEpsilon is how close to the end of a track played-time must
// get before auto-advance fires.
const advanceEpsilon = 0.1

// Processor is the render-side spectral consumer the player
// coordinates with on track switches.
type Processor interface {
	SetSampleRate(rate float64)
	Reset()
}

// Player manages the playlist, the active output stream and the
// switch protocol. Not safe for concurrent use; it belongs to the
// render context.
type Player struct {
	opener          StreamOpener
	sink            SampleSink
	proc            Processor
	framesPerBuffer int

	playlist Playlist
	current  int

	stream audioStream
	pb     *playback

	volume  float64
	playing bool
	ended   bool // auto-advance latch for the current track
	loadErr error
}

// NewPlayer wires a player to the capture sink and the spectral
// processor. opener abstracts the audio device; pass
// PortAudioOpener(deviceID) in production.
func NewPlayer(sink SampleSink, proc Processor, opener StreamOpener, framesPerBuffer int) *Player {
	return &Player{
		opener:          opener,
		sink:            sink,
		proc:            proc,
		framesPerBuffer: framesPerBuffer,
		volume:          0.5,
	}
}

// AddTrack decodes the file at path and appends it to the playlist.
// A decode failure sets the sticky error flag and leaves the playlist
// and playback state unchanged.
func (p *Player) AddTrack(path string) error {
	t, err := LoadTrack(path)
	if err != nil {
		p.loadErr = err
		return err
	}
	p.playlist.Add(t)
	log.Debugf("added track %q (%.1fs, %d ch, %.0f Hz)",
		t.Title, t.Duration().Seconds(), t.Channels(), t.SampleRate())
	return nil
}

// SwitchTrack stops the current stream, resets the spectral state and
// starts the track at index, resolved with wraparound (-1 selects the
// last track, Len() selects index 0). No-op on an empty playlist.
//
// The order is load-bearing: the old producer must be detached before
// the ring and bar state are zeroed, otherwise a late callback writes
// stale samples into freshly reset memory and the previous track
// bleeds into the first frames of the new one.
func (p *Player) SwitchTrack(index int) {
	if p.playlist.Len() == 0 {
		return
	}
	idx := p.playlist.Resolve(index)

	p.detach()
	p.proc.Reset()

	t := p.playlist.Track(idx)
	p.proc.SetSampleRate(t.SampleRate())

	pb := newPlayback(t, p.sink, p.volume)
	stream, err := p.opener(t.Channels(), t.SampleRate(), p.framesPerBuffer, pb.fill)
	if err != nil {
		p.loadErr = fmt.Errorf("attaching %q: %w", t.Title, err)
		return
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		p.loadErr = fmt.Errorf("starting %q: %w", t.Title, err)
		return
	}

	p.stream = stream
	p.pb = pb
	p.current = idx
	p.playing = true
	p.ended = false
	p.loadErr = nil
	log.Infof("playing [%d] %s", idx, t.Title)
}

// Next switches to the following track, wrapping to the first.
func (p *Player) Next() {
	p.SwitchTrack(p.current + 1)
}

// Previous switches to the preceding track, wrapping to the last.
func (p *Player) Previous() {
	p.SwitchTrack(p.current - 1)
}

// Stop halts playback and detaches the stream. The playlist and the
// current index are untouched.
func (p *Player) Stop() {
	p.detach()
}

// detach stops and closes the active stream. When Stop returns, the
// audio subsystem guarantees the callback is no longer running, so
// the capture ring may be reset safely afterwards.
func (p *Player) detach() {
	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			log.Warnf("stopping stream: %v", err)
		}
		if err := p.stream.Close(); err != nil {
			log.Warnf("closing stream: %v", err)
		}
		p.stream = nil
	}
	p.pb = nil
	p.playing = false
}

// TogglePause flips the pause state. The stream keeps running and
// emits silence while paused, so the bars decay instead of freezing.
func (p *Player) TogglePause() {
	if p.pb == nil {
		return
	}
	p.pb.paused.Store(!p.pb.paused.Load())
}

// Paused reports whether playback is paused.
func (p *Player) Paused() bool {
	return p.pb != nil && p.pb.paused.Load()
}

// Seek moves the play position by delta seconds, clamped to the track
// bounds. Seeking back out of the end window re-arms auto-advance.
func (p *Player) Seek(delta float64) {
	if p.pb == nil {
		return
	}
	target := p.pb.frame.Load() + int64(delta*p.pb.rate)
	p.pb.seekTo(target)
	if p.pb.played() < p.pb.length()-advanceEpsilon {
		p.ended = false
	}
}

// SetVolume sets the output volume in [0, 1].
func (p *Player) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	p.volume = v
	if p.pb != nil {
		p.pb.setVolume(v)
	}
}

// Volume returns the current output volume.
func (p *Player) Volume() float64 {
	return p.volume
}

// TimePlayed returns seconds of the current track played so far.
func (p *Player) TimePlayed() float64 {
	if p.pb == nil {
		return 0
	}
	return p.pb.played()
}

// TimeLength returns the current track's length in seconds.
func (p *Player) TimeLength() float64 {
	if p.pb == nil {
		return 0
	}
	return p.pb.length()
}

// Update runs the per-frame lifecycle work: auto-advance to the next
// track once played-time enters the end epsilon. The ended latch
// makes it fire exactly once per track; on the last track playback
// simply runs out.
func (p *Player) Update() {
	if !p.playing || p.ended || p.pb == nil {
		return
	}
	if p.pb.length() <= 0 {
		return
	}
	if p.pb.played() >= p.pb.length()-advanceEpsilon {
		p.ended = true
		if p.current+1 < p.playlist.Len() {
			p.SwitchTrack(p.current + 1)
		}
	}
}

// Playing reports whether a stream is attached and started.
func (p *Player) Playing() bool {
	return p.playing
}

// HasAudio reports whether audio is actively being produced.
func (p *Player) HasAudio() bool {
	return p.playing && p.pb != nil && !p.pb.paused.Load()
}

// Err returns the sticky load/attach error, nil when the last switch
// succeeded. Cleared by the next successful SwitchTrack.
func (p *Player) Err() error {
	return p.loadErr
}

// CurrentIndex returns the current playlist index.
func (p *Player) CurrentIndex() int {
	return p.current
}

// CurrentTrack returns the current track, or nil on an empty
// playlist.
func (p *Player) CurrentTrack() *Track {
	if p.playlist.Len() == 0 {
		return nil
	}
	return p.playlist.Track(p.current)
}

// TrackCount returns the number of tracks in the playlist.
func (p *Player) TrackCount() int {
	return p.playlist.Len()
}

// Tracks exposes the playlist contents, read-only.
func (p *Player) Tracks() []*Track {
	return p.playlist.Tracks()
}

// Close detaches the stream. The playlist's decoded PCM is left to
// the garbage collector.
func (p *Player) Close() {
	p.detach()
}
