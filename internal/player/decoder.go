// SPDX-License-Identifier: MIT
package player

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// pcmData is the decoded form of a track: interleaved float32 samples
// in [-1, 1]. Tracks are decoded fully at load time so the playback
// callback only ever copies from a fixed slice, keeping the
// audio-delivery hot path allocation-free and non-blocking.
type pcmData struct {
	samples    []float32
	sampleRate float64
	channels   int
}

// decodeFile detects the format by file extension and decodes the
// whole file to interleaved float32 PCM.
func decodeFile(path string) (*pcmData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav":
		return decodeWAV(f)
	case ".mp3":
		return decodeMP3(f)
	case ".ogg":
		return decodeOGG(f)
	case ".flac":
		return decodeFLAC(f)
	default:
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}
}

func decodeWAV(f *os.File) (*pcmData, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	samples := make([]float32, len(buf.Data))
	switch bitDepth {
	case 8:
		// 8-bit WAV is unsigned.
		for i, s := range buf.Data {
			samples[i] = float32(s-128) / 128
		}
	default:
		scale := float32(int64(1) << (bitDepth - 1))
		for i, s := range buf.Data {
			samples[i] = float32(s) / scale
		}
	}

	return &pcmData{
		samples:    samples,
		sampleRate: float64(buf.Format.SampleRate),
		channels:   buf.Format.NumChannels,
	}, nil
}

func decodeMP3(f *os.File) (*pcmData, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}

	// The decoder always emits 16-bit little-endian stereo.
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("reading MP3 PCM data: %w", err)
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float32(s) / 32768
	}

	return &pcmData{
		samples:    samples,
		sampleRate: float64(dec.SampleRate()),
		channels:   2,
	}, nil
}

func decodeOGG(f *os.File) (*pcmData, error) {
	samples, format, err := oggvorbis.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	return &pcmData{
		samples:    samples,
		sampleRate: float64(format.SampleRate),
		channels:   format.Channels,
	}, nil
}

func decodeFLAC(f *os.File) (*pcmData, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	bps := uint(info.BitsPerSample)
	scale := float32(int64(1) << (bps - 1))

	samples := make([]float32, 0, int(info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading FLAC frame: %w", err)
		}
		n := int(frame.Subframes[0].NSamples)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, float32(frame.Subframes[ch].Samples[i])/scale)
			}
		}
	}

	return &pcmData{
		samples:    samples,
		sampleRate: float64(info.SampleRate),
		channels:   channels,
	}, nil
}
