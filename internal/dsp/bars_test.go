// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"testing"
)

func testAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	az, err := NewAnalyzer(DefaultAnalyzerConfig())
	if err != nil {
		t.Fatal(err)
	}
	return az
}

func TestNewAnalyzerValidation(t *testing.T) {
	bad := []AnalyzerConfig{
		func() AnalyzerConfig { c := DefaultAnalyzerConfig(); c.FFTSize = 1000; return c }(),
		func() AnalyzerConfig { c := DefaultAnalyzerConfig(); c.Bars = 0; return c }(),
		func() AnalyzerConfig { c := DefaultAnalyzerConfig(); c.SampleRate = 0; return c }(),
		func() AnalyzerConfig { c := DefaultAnalyzerConfig(); c.FreqMin = 0; return c }(),
		func() AnalyzerConfig { c := DefaultAnalyzerConfig(); c.FreqMin = 30000; return c }(),
	}
	for i, cfg := range bad {
		if _, err := NewAnalyzer(cfg); err == nil {
			t.Errorf("config %d accepted, want error", i)
		}
	}
}

// Band edges must be non-decreasing and every band non-empty, at any
// combination of bar count and sample rate.
func TestBandLayout(t *testing.T) {
	for _, bars := range []int{16, 32, 64, 128} {
		for _, rate := range []float64{22050, 44100, 48000, 96000} {
			cfg := DefaultAnalyzerConfig()
			cfg.Bars = bars
			cfg.SampleRate = rate
			az, err := NewAnalyzer(cfg)
			if err != nil {
				t.Fatalf("bars=%d rate=%v: %v", bars, rate, err)
			}

			half := cfg.FFTSize / 2
			prevLo := -1
			for i, b := range az.bands {
				if b.hi <= b.lo {
					t.Fatalf("bars=%d rate=%v: band %d empty (%d, %d)", bars, rate, i, b.lo, b.hi)
				}
				if b.lo < prevLo {
					t.Fatalf("bars=%d rate=%v: band %d lower edge decreased", bars, rate, i)
				}
				if b.hi > half {
					t.Fatalf("bars=%d rate=%v: band %d exceeds nyquist bin", bars, rate, i)
				}
				prevLo = b.lo
			}
		}
	}
}

// Silence must produce zero bars with no NaN: the epsilon floor covers
// the division.
func TestProcessSilence(t *testing.T) {
	az := testAnalyzer(t)
	spectrum := make([]complex128, az.cfg.FFTSize)

	for frame := 0; frame < 10; frame++ {
		az.Process(spectrum, 1.0/60)
	}
	for i, v := range az.Bars() {
		if math.IsNaN(v) {
			t.Fatalf("bar %d is NaN", i)
		}
		if v > 1e-9 {
			t.Fatalf("bar %d = %v on silence, want 0", i, v)
		}
	}
}

// barFor returns the bar whose band contains the bin of freq.
func barFor(az *Analyzer, freq float64) int {
	bin := int(math.Round(freq * float64(az.cfg.FFTSize) / az.cfg.SampleRate))
	for i, b := range az.bands {
		if bin >= b.lo && bin < b.hi {
			return i
		}
	}
	return -1
}

// Energy at 440 Hz must light the 440 Hz bar strictly above any bar
// covering 5 kHz and up.
func TestProcessSineSelectivity(t *testing.T) {
	az := testAnalyzer(t)
	spectrum := make([]complex128, az.cfg.FFTSize)

	bin := int(math.Round(440 * float64(az.cfg.FFTSize) / az.cfg.SampleRate))
	spectrum[bin] = complex(100, 0)

	for frame := 0; frame < 30; frame++ {
		az.Process(spectrum, 1.0/60)
	}

	low := barFor(az, 440)
	if low < 0 {
		t.Fatal("no bar covers 440 Hz")
	}
	hi := barFor(az, 5000)
	if hi < 0 {
		t.Fatal("no bar covers 5 kHz")
	}

	bars := az.Bars()
	for i := hi; i < len(bars); i++ {
		if bars[low] <= bars[i] {
			t.Fatalf("bar %d (440 Hz) = %v not above bar %d = %v", low, bars[low], i, bars[i])
		}
	}
}

// Bars stay inside [0, PeakClamp] no matter how hot the input or how
// long the frame.
func TestProcessClamp(t *testing.T) {
	az := testAnalyzer(t)
	spectrum := make([]complex128, az.cfg.FFTSize)
	for k := range spectrum {
		spectrum[k] = complex(1e6, -1e6)
	}

	for _, dt := range []float64{1.0 / 60, 0.25, 2.0} {
		for frame := 0; frame < 20; frame++ {
			az.Process(spectrum, dt)
		}
	}
	for i, v := range az.Bars() {
		if v < 0 || v > az.cfg.PeakClamp {
			t.Fatalf("bar %d = %v outside [0, %v]", i, v, az.cfg.PeakClamp)
		}
	}
	for i, v := range az.Smear() {
		if v < 0 || v > az.cfg.PeakClamp {
			t.Fatalf("smear %d = %v outside [0, %v]", i, v, az.cfg.PeakClamp)
		}
	}
}

// Given identical inputs and deltas, two analyzers stay in lockstep:
// no hidden state beyond the explicit fields.
func TestProcessDeterministic(t *testing.T) {
	a := testAnalyzer(t)
	b := testAnalyzer(t)
	spectrum := make([]complex128, a.cfg.FFTSize)
	for k := range spectrum {
		spectrum[k] = complex(float64(k%97), float64(k%31))
	}

	for frame := 0; frame < 25; frame++ {
		a.Process(spectrum, 1.0/60)
		b.Process(spectrum, 1.0/60)
	}
	for i := range a.bars {
		if a.bars[i] != b.bars[i] || a.smear[i] != b.smear[i] {
			t.Fatalf("bar %d diverged: %v/%v vs %v/%v", i, a.bars[i], a.smear[i], b.bars[i], b.smear[i])
		}
	}
	if a.bassHistory != b.bassHistory || a.overallLevel != b.overallLevel {
		t.Fatal("energy state diverged")
	}
}

// Attack must outrun decay: a burst rises in fewer frames than it
// takes to fall back.
func TestAttackFasterThanDecay(t *testing.T) {
	az := testAnalyzer(t)
	loud := make([]complex128, az.cfg.FFTSize)
	bin := int(math.Round(440 * float64(az.cfg.FFTSize) / az.cfg.SampleRate))
	loud[bin] = complex(100, 0)
	quiet := make([]complex128, az.cfg.FFTSize)

	const dt = 1.0 / 60
	bar := barFor(az, 440)

	az.Process(loud, dt)
	afterOneAttack := az.Bars()[bar]
	if afterOneAttack <= 0 {
		t.Fatal("bar did not rise on attack")
	}

	for frame := 0; frame < 60; frame++ {
		az.Process(loud, dt)
	}
	peak := az.Bars()[bar]

	az.Process(quiet, dt)
	afterOneDecay := az.Bars()[bar]

	rise := afterOneAttack
	fall := peak - afterOneDecay
	if fall >= rise {
		t.Fatalf("decay step %v not slower than attack step %v", fall, rise)
	}
}

func TestSetSampleRateRebuildsBands(t *testing.T) {
	az := testAnalyzer(t)
	before := az.bands[len(az.bands)-1]

	az.SetSampleRate(96000)
	after := az.bands[len(az.bands)-1]
	if before == after {
		t.Fatal("bands unchanged after sample rate switch")
	}
	if az.cfg.SampleRate != 96000 {
		t.Fatalf("sample rate = %v, want 96000", az.cfg.SampleRate)
	}
}

func TestReset(t *testing.T) {
	az := testAnalyzer(t)
	spectrum := make([]complex128, az.cfg.FFTSize)
	for k := range spectrum {
		spectrum[k] = complex(50, 50)
	}
	for frame := 0; frame < 10; frame++ {
		az.Process(spectrum, 1.0/60)
	}

	az.Reset()
	for i := range az.bars {
		if az.bars[i] != 0 || az.smear[i] != 0 {
			t.Fatalf("bar %d not zeroed: %v/%v", i, az.bars[i], az.smear[i])
		}
	}
	if az.bassHistory != 0 || az.overallLevel != 0 {
		t.Fatal("energy state not zeroed")
	}
}

func TestProcessHotPath(t *testing.T) {
	az := testAnalyzer(t)
	spectrum := make([]complex128, az.cfg.FFTSize)
	for k := range spectrum {
		spectrum[k] = complex(float64(k), 1)
	}

	az.Process(spectrum, 1.0/60) // warm-up
	allocs := testing.AllocsPerRun(100, func() {
		az.Process(spectrum, 1.0/60)
	})
	if allocs > 0 {
		t.Errorf("expected zero allocations in Process, got %.1f", allocs)
	}
}

func BenchmarkProcess(b *testing.B) {
	az, _ := NewAnalyzer(DefaultAnalyzerConfig())
	spectrum := make([]complex128, 8192)
	for k := range spectrum {
		spectrum[k] = complex(float64(k%211), float64(k%53))
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		az.Process(spectrum, 1.0/60)
	}
}
