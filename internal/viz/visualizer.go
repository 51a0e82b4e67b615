// SPDX-License-Identifier: MIT
/*
Package viz owns the per-frame pipeline of the visualizer: snapshot
the capture ring, apply the window, transform, and map the spectrum to
bars. One Visualizer instance carries every piece of state the
pipeline needs (no package globals) and all of its methods run on the
render context only. The audio callback touches nothing here except
the ring it was handed.
*/
package viz

import (
	"musviz/internal/dsp"
	"musviz/internal/ring"
)

// Config selects the pipeline dimensions and the mapper tuning.
type Config struct {
	Analyzer dsp.AnalyzerConfig
	Window   dsp.WindowFunc
}

// Visualizer is the single-instance context object of the spectral
// pipeline. All buffers are allocated once at construction, so Update
// is allocation-free.
type Visualizer struct {
	ring     *ring.Ring
	window   []float64 // immutable after construction
	analyzer *dsp.Analyzer
	fft      *dsp.FFT

	snap     []float32    // raw snapshot of the ring
	samples  []float64    // windowed copy fed to the transform
	spectrum []complex128 // owned exclusively by the render path
}

// New builds the pipeline. The ring is shared with the audio producer;
// everything else is private to the render context.
func New(cfg Config, r *ring.Ring) (*Visualizer, error) {
	n := cfg.Analyzer.FFTSize

	fft, err := dsp.NewFFT(n)
	if err != nil {
		return nil, err
	}
	analyzer, err := dsp.NewAnalyzer(cfg.Analyzer)
	if err != nil {
		return nil, err
	}

	return &Visualizer{
		ring:     r,
		window:   dsp.MakeWindow(n, cfg.Window),
		analyzer: analyzer,
		fft:      fft,
		snap:     make([]float32, n),
		samples:  make([]float64, n),
		spectrum: make([]complex128, n),
	}, nil
}

// Update runs one frame of the pipeline: copy the most recent N
// samples ending at the published cursor, window them, transform, and
// advance the bar state by dt seconds.
func (v *Visualizer) Update(dt float64) {
	v.ring.Snapshot(v.snap)
	for i, s := range v.snap {
		v.samples[i] = float64(s) * v.window[i]
	}
	v.fft.Transform(v.spectrum, v.samples)
	v.analyzer.Process(v.spectrum, dt)
}

// Bars returns the smoothed bar intensities in [0, 1.5]. Read-only;
// refreshed by Update.
func (v *Visualizer) Bars() []float64 {
	return v.analyzer.Bars()
}

// Smear returns the motion-blur trail values, same contract as Bars.
func (v *Visualizer) Smear() []float64 {
	return v.analyzer.Smear()
}

// BarCount returns the number of bars.
func (v *Visualizer) BarCount() int {
	return v.analyzer.BarCount()
}

// SetSampleRate re-derives the bar frequency bands for a new stream
// rate. Called on track switch, render context only.
func (v *Visualizer) SetSampleRate(rate float64) {
	v.analyzer.SetSampleRate(rate)
}

// Reset clears the capture ring, the bar state and the persistent
// energy scalars. Must only run after the old stream's producer has
// been detached; see the track switch protocol in the player package.
func (v *Visualizer) Reset() {
	v.ring.Reset()
	v.analyzer.Reset()
	for i := range v.spectrum {
		v.spectrum[i] = 0
	}
}
