// Package spectrum converts PCM audio into per-bin frequency magnitudes in
// [0,1], the same readings a browser AnalyserNode hands to a visualiser.
package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Analyzer keeps the most recent FFTSize samples and produces smoothed,
// normalized magnitudes on demand. Write and Frequencies may be called from
// different goroutines.
type Analyzer struct {
	cfg    Config
	window []float64
	fft    *fourier.FFT

	mu         sync.Mutex
	buf        []float64 // ring of the last FFTSize samples
	pos        int
	written    int
	sampleRate int
	smoothed   []float64
	frame      []float64
	coeff      []complex128
}

// New creates an analyzer.
func New(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid spectrum config: %w", err)
	}
	return &Analyzer{
		cfg:      cfg,
		window:   blackman(cfg.FFTSize),
		fft:      fourier.NewFFT(cfg.FFTSize),
		buf:      make([]float64, cfg.FFTSize),
		smoothed: make([]float64, cfg.FFTSize/2),
		frame:    make([]float64, cfg.FFTSize),
		coeff:    make([]complex128, cfg.FFTSize/2+1),
	}, nil
}

// blackman returns the window applied before transforming.
func blackman(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return window.Blackman(w)
}

// Config returns the analyzer configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Write appends mono PCM16 samples.
func (a *Analyzer) Write(samples []int16, sampleRate int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.sampleRate = sampleRate
	for _, s := range samples {
		a.push(float64(s) / 32768.0)
	}
}

// WriteFloat appends mono samples already normalized to [-1,1].
func (a *Analyzer) WriteFloat(samples []float64, sampleRate int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.sampleRate = sampleRate
	for _, s := range samples {
		a.push(s)
	}
}

func (a *Analyzer) push(v float64) {
	a.buf[a.pos] = v
	a.pos = (a.pos + 1) % len(a.buf)
	if a.written < len(a.buf) {
		a.written++
	}
}

// Frequencies analyses the current window and returns one magnitude per bin
// (restricted to the configured band) mapped onto [0,1]. Before any audio
// has been written it returns the idle reading []float64{0}.
//
// Every call advances the time smoothing, so call it once per tick.
func (a *Analyzer) Frequencies() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.written == 0 {
		return []float64{0}
	}

	n := len(a.buf)
	for i := 0; i < n; i++ {
		// Oldest sample first.
		v := a.buf[(a.pos+i)%n]
		a.frame[i] = v * a.window[i]
	}
	a.coeff = a.fft.Coefficients(a.coeff, a.frame)

	tau := a.cfg.SmoothingTimeConstant
	for k := range a.smoothed {
		mag := cmplx.Abs(a.coeff[k]) / float64(n)
		a.smoothed[k] = tau*a.smoothed[k] + (1-tau)*mag
	}

	lo, hi := a.band()
	out := make([]float64, 0, hi-lo)
	span := a.cfg.MaxDecibels - a.cfg.MinDecibels
	for k := lo; k < hi; k++ {
		db := 20 * math.Log10(a.smoothed[k])
		v := (db - a.cfg.MinDecibels) / span
		switch {
		case math.IsNaN(v) || v < 0:
			v = 0
		case v > 1:
			v = 1
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return []float64{0}
	}
	return out
}

// band returns the half-open bin range selected by MinHz/MaxHz.
func (a *Analyzer) band() (lo, hi int) {
	bins := len(a.smoothed)
	if a.sampleRate <= 0 {
		return 0, bins
	}
	binHz := float64(a.sampleRate) / float64(len(a.buf))

	lo, hi = 0, bins
	if a.cfg.MinHz > 0 {
		lo = int(math.Ceil(a.cfg.MinHz / binHz))
	}
	if a.cfg.MaxHz > 0 {
		hi = int(math.Floor(a.cfg.MaxHz/binHz)) + 1
	}
	if lo > bins {
		lo = bins
	}
	if hi > bins {
		hi = bins
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// BinFrequency returns the centre frequency of bin k at the last seen
// sample rate, or 0 when no audio has been written.
func (a *Analyzer) BinFrequency(k int) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sampleRate <= 0 {
		return 0
	}
	return float64(k) * float64(a.sampleRate) / float64(len(a.buf))
}

// Reset forgets all audio and smoothing history.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.buf {
		a.buf[i] = 0
	}
	for i := range a.smoothed {
		a.smoothed[i] = 0
	}
	a.pos, a.written = 0, 0
}
