// SPDX-License-Identifier: MIT
package player

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
)

// Track is one playable audio item: its source path, display metadata
// and the fully decoded PCM resource. Tracks are immutable once
// loaded and generally persist for the process lifetime.
type Track struct {
	Path   string
	Title  string
	Artist string
	Album  string

	pcm *pcmData
}

// LoadTrack decodes the file at path and reads its metadata tags.
// Returns an error if the file cannot be opened or decoded; a missing
// or unreadable tag block is not an error, the file name stands in
// for the title.
func LoadTrack(path string) (*Track, error) {
	pcm, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	t := &Track{
		Path:  path,
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		pcm:   pcm,
	}

	if f, err := os.Open(path); err == nil {
		if m, err := tag.ReadFrom(f); err == nil {
			if title := m.Title(); title != "" {
				t.Title = title
			}
			t.Artist = m.Artist()
			t.Album = m.Album()
		}
		f.Close()
	}

	return t, nil
}

// SampleRate returns the track's native sample rate in Hz.
func (t *Track) SampleRate() float64 {
	return t.pcm.sampleRate
}

// Channels returns the interleaved channel count.
func (t *Track) Channels() int {
	return t.pcm.channels
}

// Frames returns the total number of sample frames.
func (t *Track) Frames() int64 {
	return int64(len(t.pcm.samples) / t.pcm.channels)
}

// Duration returns the total play time of the track.
func (t *Track) Duration() time.Duration {
	if t.pcm.sampleRate <= 0 {
		return 0
	}
	seconds := float64(t.Frames()) / t.pcm.sampleRate
	return time.Duration(seconds * float64(time.Second))
}
