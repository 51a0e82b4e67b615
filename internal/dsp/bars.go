// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math"

	"musviz/pkg/bitint"
)

// AnalyzerConfig holds the tuning parameters of the spectral-to-bar
// mapper. The constants are perceptual tuning, not correctness
// constraints, but their relative roles are fixed: attack faster than
// decay, boost concentrated at the low bars, compression via square
// root.
type AnalyzerConfig struct {
	SampleRate float64 // active sample rate in Hz
	FFTSize    int     // transform length, power of two
	Bars       int     // number of output bars
	FreqMin    float64 // lower edge of the lowest bar in Hz

	BassBars  int     // number of low bars receiving boost
	BassBoost float64 // boost gain at bar 0, decaying linearly to BassBars

	AttackBase      float64 // rise rate per second
	AttackBassScale float64 // added rise rate per unit of bass history
	DecayBase       float64 // fall rate per second
	DecayBassScale  float64 // added fall rate per unit of bass history

	LevelBlend float64 // EMA retention for the overall level (e.g. 0.95)
	LevelScale float64 // how much the overall level lifts quiet targets
	BassBlend  float64 // EMA retention for the bass history
	PeakClamp  float64 // upper bound for bar values (e.g. 1.5)
	SmearDecay float64 // smear trail chase rate per second
	AmpFloor   float64 // epsilon floor for the spectrum maximum
}

// DefaultAnalyzerConfig returns the tuning used by the player.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		SampleRate:      44100,
		FFTSize:         8192,
		Bars:            64,
		FreqMin:         20,
		BassBars:        8,
		BassBoost:       3.5,
		AttackBase:      20,
		AttackBassScale: 10,
		DecayBase:       4.5,
		DecayBassScale:  2,
		LevelBlend:      0.95,
		LevelScale:      0.5,
		BassBlend:       0.9,
		PeakClamp:       1.5,
		SmearDecay:      6,
		AmpFloor:        1e-6,
	}
}

type band struct {
	lo, hi int // fft bin range [lo, hi), hi > lo
}

// Analyzer aggregates a complex spectrum into logarithmically spaced
// bars with bass emphasis, soft compression and asymmetric temporal
// smoothing. All state that persists across frames lives in explicit
// fields; given the same spectrum, prior state and frame delta the
// output is deterministic.
type Analyzer struct {
	cfg   AnalyzerConfig
	bands []band

	bars  []float64 // smoothed intensities in [0, PeakClamp]
	smear []float64 // motion-blur trail, rendering only

	bassHistory  float64 // slow EMA of the lowest bar's target
	overallLevel float64 // slow EMA of the raw normalized amplitude
}

// NewAnalyzer validates the config and precomputes the bar bands.
func NewAnalyzer(cfg AnalyzerConfig) (*Analyzer, error) {
	if !bitint.IsPowerOfTwo(cfg.FFTSize) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", cfg.FFTSize)
	}
	if cfg.Bars < 1 {
		return nil, fmt.Errorf("bar count must be positive, got %d", cfg.Bars)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", cfg.SampleRate)
	}
	if cfg.FreqMin <= 0 || cfg.FreqMin >= cfg.SampleRate/2 {
		return nil, fmt.Errorf("freq min %f out of range (0, nyquist)", cfg.FreqMin)
	}

	az := &Analyzer{
		cfg:   cfg,
		bands: make([]band, cfg.Bars),
		bars:  make([]float64, cfg.Bars),
		smear: make([]float64, cfg.Bars),
	}
	az.recalculate()
	return az, nil
}

// recalculate rebuilds the bar frequency bands for the current sample
// rate. Bar i spans the geometric interpolation
//
//	f(t) = FreqMin * (nyquist/FreqMin)^t, t = i/Bars .. (i+1)/Bars
//
// converted to bins by k = round(f*N/rate). Narrow bands at low
// frequencies, wide at high, matching perceptual pitch spacing. A band
// that would collapse is forced one bin wide, so every band is
// non-empty and edges stay non-decreasing.
func (az *Analyzer) recalculate() {
	n := az.cfg.FFTSize
	half := n / 2
	freqMin := az.cfg.FreqMin
	freqMax := az.cfg.SampleRate / 2
	ratio := freqMax / freqMin

	for i := 0; i < az.cfg.Bars; i++ {
		t0 := float64(i) / float64(az.cfg.Bars)
		t1 := float64(i+1) / float64(az.cfg.Bars)
		f0 := freqMin * math.Pow(ratio, t0)
		f1 := freqMin * math.Pow(ratio, t1)

		k0 := int(math.Round(f0 * float64(n) / az.cfg.SampleRate))
		k1 := int(math.Round(f1 * float64(n) / az.cfg.SampleRate))
		if k0 > half-1 {
			k0 = half - 1
		}
		if k1 <= k0 {
			k1 = k0 + 1
		}
		if k1 > half {
			k1 = half
		}
		az.bands[i] = band{lo: k0, hi: k1}
	}
}

// SetSampleRate switches the analyzer to a new stream rate, rebuilding
// the bands. Bar state is left alone; callers switching tracks reset
// separately.
func (az *Analyzer) SetSampleRate(rate float64) {
	if rate <= 0 || rate == az.cfg.SampleRate {
		return
	}
	az.cfg.SampleRate = rate
	az.recalculate()
}

// Process maps one spectrum to bar targets and advances the smoothed
// bar state by dt seconds. spectrum must have length FFTSize; only
// bins [0, FFTSize/2) are consulted. Allocation-free.
//
// Per band the bin amplitudes are aggregated by max: punchier on
// transients than the mean, which suits a music visualizer.
func (az *Analyzer) Process(spectrum []complex128, dt float64) {
	half := az.cfg.FFTSize / 2

	// Spectrum maximum, floored so silence divides cleanly to zero
	// instead of NaN.
	maxAmp := az.cfg.AmpFloor
	for k := 0; k < half; k++ {
		if a := Amp(spectrum[k]); a > maxAmp {
			maxAmp = a
		}
	}

	for i, b := range az.bands {
		agg := 0.0
		for k := b.lo; k < b.hi && k < half; k++ {
			if a := Amp(spectrum[k]); a > agg {
				agg = a
			}
		}
		raw := agg / maxAmp

		// The overall level tracks the raw pre-boost amplitude so loud
		// boosted bass does not inflate it.
		az.overallLevel = az.overallLevel*az.cfg.LevelBlend + raw*(1-az.cfg.LevelBlend)

		boosted := raw
		if i < az.cfg.BassBars {
			boosted *= 1 + (1-float64(i)/float64(az.cfg.BassBars))*az.cfg.BassBoost
		}

		// Square root compression lifts low-to-mid amplitudes, then the
		// overall level keeps quiet passages visible, bounded above.
		target := math.Sqrt(boosted)
		target *= 1 + az.overallLevel*az.cfg.LevelScale
		if target > az.cfg.PeakClamp {
			target = az.cfg.PeakClamp
		}

		// A recent bass hit speeds up attack and decay for every bar.
		if i == 0 {
			az.bassHistory = az.bassHistory*az.cfg.BassBlend + target*(1-az.cfg.BassBlend)
		}

		var rate float64
		if target > az.bars[i] {
			rate = az.cfg.AttackBase + az.bassHistory*az.cfg.AttackBassScale
		} else {
			rate = az.cfg.DecayBase + az.bassHistory*az.cfg.DecayBassScale
		}
		step := rate * dt
		if step > 1 {
			step = 1 // long frames must not overshoot the target
		}
		az.bars[i] += (target - az.bars[i]) * step
		if az.bars[i] < 0 {
			az.bars[i] = 0
		} else if az.bars[i] > az.cfg.PeakClamp {
			az.bars[i] = az.cfg.PeakClamp
		}

		// The smear trail snaps up with the bar and drifts down after
		// it, leaving the motion-blur tail the renderer draws.
		if az.bars[i] > az.smear[i] {
			az.smear[i] = az.bars[i]
		} else {
			chase := az.cfg.SmearDecay * dt
			if chase > 1 {
				chase = 1
			}
			az.smear[i] += (az.bars[i] - az.smear[i]) * chase
		}
	}
}

// Bars returns the smoothed bar intensities. The slice is owned by the
// analyzer and must be treated as read-only.
func (az *Analyzer) Bars() []float64 {
	return az.bars
}

// Smear returns the motion-blur trail values, same contract as Bars.
func (az *Analyzer) Smear() []float64 {
	return az.smear
}

// BarCount returns the number of bars.
func (az *Analyzer) BarCount() int {
	return az.cfg.Bars
}

// Reset zeroes bar state and the persistent energy scalars. Called on
// every track switch so stale spectral energy from the previous track
// cannot bleed into the first frames of the next one.
func (az *Analyzer) Reset() {
	for i := range az.bars {
		az.bars[i] = 0
		az.smear[i] = 0
	}
	az.bassHistory = 0
	az.overallLevel = 0
}
