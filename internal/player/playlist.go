// SPDX-License-Identifier: MIT
package player

// Playlist is an ordered, insertion-order sequence of tracks. The
// current index lives in the Player; an empty playlist has no current
// track.
type Playlist struct {
	tracks []*Track
}

// Add appends a track.
func (pl *Playlist) Add(t *Track) {
	pl.tracks = append(pl.tracks, t)
}

// Len returns the number of tracks.
func (pl *Playlist) Len() int {
	return len(pl.tracks)
}

// Track returns the track at index i, which must be in range.
func (pl *Playlist) Track(i int) *Track {
	return pl.tracks[i]
}

// Tracks returns the backing slice, read-only.
func (pl *Playlist) Tracks() []*Track {
	return pl.tracks
}

// Resolve maps any integer index onto a valid track index with
// wraparound: -1 selects the last track, Len() selects index 0.
// Must not be called on an empty playlist.
func (pl *Playlist) Resolve(i int) int {
	n := len(pl.tracks)
	return ((i % n) + n) % n
}
