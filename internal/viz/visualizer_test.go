// SPDX-License-Identifier: MIT
package viz

import (
	"math"
	"testing"

	"musviz/internal/dsp"
	"musviz/internal/ring"
	"musviz/pkg/utils"
)

func testPipeline(t *testing.T) (*Visualizer, *ring.Ring) {
	t.Helper()
	cfg := Config{
		Analyzer: dsp.DefaultAnalyzerConfig(),
		Window:   dsp.Hann,
	}
	r, err := ring.New(cfg.Analyzer.FFTSize)
	if err != nil {
		t.Fatal(err)
	}
	v, err := New(cfg, r)
	if err != nil {
		t.Fatal(err)
	}
	return v, r
}

func TestNewRejectsBadConfig(t *testing.T) {
	r, _ := ring.New(8192)

	cfg := Config{Analyzer: dsp.DefaultAnalyzerConfig()}
	cfg.Analyzer.FFTSize = 1000
	if _, err := New(cfg, r); err == nil {
		t.Error("non power of two fft size accepted")
	}

	cfg = Config{Analyzer: dsp.DefaultAnalyzerConfig()}
	cfg.Analyzer.Bars = 0
	if _, err := New(cfg, r); err == nil {
		t.Error("zero bar count accepted")
	}
}

// A full window of silence must leave every bar at zero.
func TestUpdateSilence(t *testing.T) {
	v, r := testPipeline(t)

	r.Push(make([]float32, 8192), 1)
	v.Update(1.0 / 60)

	for i, b := range v.Bars() {
		if b != 0 {
			t.Fatalf("bar %d = %v on silence, want 0", i, b)
		}
	}
}

// A 440 Hz sine must light the bar covering 440 Hz strictly above
// every bar from 5 kHz up.
func TestUpdateSineSelectivity(t *testing.T) {
	v, r := testPipeline(t)
	const rate = 44100.0

	sine := utils.GenerateSineWave(8192, rate, 440)
	mono := make([]float32, len(sine))
	for i, s := range sine {
		mono[i] = float32(s)
	}
	r.Push(mono, 1)

	for frame := 0; frame < 30; frame++ {
		v.Update(1.0 / 60)
	}

	bars := v.Bars()
	low := barIndexFor(v, rate, 440)
	hi := barIndexFor(v, rate, 5000)
	if low < 0 || hi < 0 {
		t.Fatalf("bar lookup failed: low=%d hi=%d", low, hi)
	}
	for i := hi; i < len(bars); i++ {
		if bars[low] <= bars[i] {
			t.Fatalf("bar %d (440 Hz) = %v not above bar %d = %v", low, bars[low], i, bars[i])
		}
	}
}

// barIndexFor locates the bar whose geometric frequency range contains
// freq, mirroring the mapper's own band construction.
func barIndexFor(v *Visualizer, rate, freq float64) int {
	const freqMin = 20.0
	ratio := (rate / 2) / freqMin
	bars := v.BarCount()
	for i := 0; i < bars; i++ {
		f0 := freqMin * math.Pow(ratio, float64(i)/float64(bars))
		f1 := freqMin * math.Pow(ratio, float64(i+1)/float64(bars))
		if freq >= f0 && freq < f1 {
			return i
		}
	}
	return -1
}

// Reset must clear the ring and the bar state so nothing from the
// previous track leaks into the first frames of the next one.
func TestResetClearsState(t *testing.T) {
	v, r := testPipeline(t)

	sine := utils.GenerateSineWave(8192, 44100, 440)
	mono := make([]float32, len(sine))
	for i, s := range sine {
		mono[i] = float32(s)
	}
	r.Push(mono, 1)
	for frame := 0; frame < 10; frame++ {
		v.Update(1.0 / 60)
	}

	v.Reset()
	for i, b := range v.Bars() {
		if b != 0 {
			t.Fatalf("bar %d = %v after reset, want 0", i, b)
		}
	}
	for i, s := range v.Smear() {
		if s != 0 {
			t.Fatalf("smear %d = %v after reset, want 0", i, s)
		}
	}

	// The ring was cleared too: the next update sees silence.
	v.Update(1.0 / 60)
	for i, b := range v.Bars() {
		if b != 0 {
			t.Fatalf("bar %d = %v after reset+update, want 0", i, b)
		}
	}
}

func TestUpdateHotPath(t *testing.T) {
	v, r := testPipeline(t)
	r.Push(make([]float32, 8192), 1)

	v.Update(1.0 / 60) // warm-up
	allocs := testing.AllocsPerRun(20, func() {
		v.Update(1.0 / 60)
	})
	if allocs > 0 {
		t.Errorf("expected zero allocations in Update, got %.1f", allocs)
	}
}

func BenchmarkUpdate(b *testing.B) {
	cfg := Config{Analyzer: dsp.DefaultAnalyzerConfig(), Window: dsp.Hann}
	r, _ := ring.New(cfg.Analyzer.FFTSize)
	v, _ := New(cfg, r)

	sine := utils.GenerateComplexWave(8192, 44100)
	mono := make([]float32, len(sine))
	for i, s := range sine {
		mono[i] = float32(s)
	}
	r.Push(mono, 1)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		v.Update(1.0 / 60)
	}
}
