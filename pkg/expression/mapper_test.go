package expression

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestUpdateExpression_Scenarios(t *testing.T) {
	tests := []struct {
		name         string
		samples      []float64
		prev         float64
		cfg          Config
		wantSmoothed float64
	}{
		{
			name:         "half scale from rest",
			samples:      []float64{0.5},
			prev:         0,
			cfg:          Config{SmoothingFactor: 0.3, MinHeight: 0.1, MaxHeight: 25, NormalizationDivisor: 1},
			wantSmoothed: 0.35,
		},
		{
			name:         "empty samples decay",
			samples:      nil,
			prev:         0.8,
			cfg:          Config{SmoothingFactor: 0.3, MinHeight: 0.1, MaxHeight: 25, NormalizationDivisor: 1},
			wantSmoothed: 0.8 * 0.3,
		},
		{
			name:         "empty samples decay other factor",
			samples:      []float64{},
			prev:         0.8,
			cfg:          Config{SmoothingFactor: 0.9, MinHeight: 0, MaxHeight: 10, NormalizationDivisor: 2},
			wantSmoothed: 0.8 * 0.9,
		},
		{
			name:         "peak above divisor saturates",
			samples:      []float64{0.1, 4, 0.2},
			prev:         0,
			cfg:          Config{SmoothingFactor: 0, MinHeight: 0, MaxHeight: 10, NormalizationDivisor: 2},
			wantSmoothed: 1,
		},
		{
			name:         "negative magnitudes read as silence",
			samples:      []float64{-3, -0.5},
			prev:         0.5,
			cfg:          Config{SmoothingFactor: 0.5, MinHeight: 0, MaxHeight: 10, NormalizationDivisor: 1},
			wantSmoothed: 0.25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			height, smoothed := UpdateExpression(tt.samples, tt.prev, tt.cfg)
			if math.Abs(smoothed-tt.wantSmoothed) > eps {
				t.Errorf("smoothed = %v, want %v", smoothed, tt.wantSmoothed)
			}
			wantHeight := tt.cfg.MinHeight + (tt.cfg.MaxHeight-tt.cfg.MinHeight)*tt.wantSmoothed
			if math.Abs(height-wantHeight) > eps {
				t.Errorf("mouthHeight = %v, want %v", height, wantHeight)
			}
		})
	}
}

func TestNormalizeAmplitude(t *testing.T) {
	tests := []struct {
		raw, divisor, want float64
	}{
		{0.5, 1, 0.5},
		{3, 1, 1},
		{-1, 1, 0},
		{0, 1, 0},
		{50, 100, 0.5},
		{0.2, 0, 1},
		{0, 0, 0},
		{-0.2, 0, 0},
	}
	for _, tt := range tests {
		got := NormalizeAmplitude(tt.raw, tt.divisor)
		if math.Abs(got-tt.want) > eps {
			t.Errorf("NormalizeAmplitude(%v, %v) = %v, want %v", tt.raw, tt.divisor, got, tt.want)
		}
	}
}

func TestPeakAmplitude(t *testing.T) {
	if got := PeakAmplitude(nil); got != 0 {
		t.Errorf("PeakAmplitude(nil) = %v, want 0", got)
	}
	if got := PeakAmplitude([]float64{0.2, 0.9, 0.1}); got != 0.9 {
		t.Errorf("PeakAmplitude = %v, want 0.9", got)
	}
	if got := PeakAmplitude([]float64{math.NaN(), 0.4}); got != 0.4 {
		t.Errorf("PeakAmplitude with NaN = %v, want 0.4", got)
	}
	if got := PeakAmplitude([]float64{-2, -1}); got != -1 {
		t.Errorf("PeakAmplitude negatives = %v, want -1", got)
	}
}

func TestUpdateExpression_StaysInBounds(t *testing.T) {
	cfg := Config{SmoothingFactor: 0.3, MinHeight: 0.1, MaxHeight: 12.5, NormalizationDivisor: 1}
	inputs := [][]float64{
		{0.5}, {100}, {-100}, nil, {math.Inf(1)}, {math.Inf(-1)}, {0, 0.99, 0.01}, {1e-12},
	}

	smoothed := 0.0
	for i := 0; i < 200; i++ {
		var height float64
		height, smoothed = UpdateExpression(inputs[i%len(inputs)], smoothed, cfg)

		if smoothed < 0 || smoothed > 1 {
			t.Fatalf("tick %d: smoothed %v outside [0,1]", i, smoothed)
		}
		if height < cfg.MinHeight || height > cfg.MaxHeight {
			t.Fatalf("tick %d: mouthHeight %v outside [%v,%v]", i, height, cfg.MinHeight, cfg.MaxHeight)
		}
	}
}

func TestUpdateExpression_ClampsOutOfRangeInputs(t *testing.T) {
	cfg := Config{SmoothingFactor: 1.7, MinHeight: 0, MaxHeight: 1, NormalizationDivisor: 1}
	_, smoothed := UpdateExpression([]float64{1}, 3, cfg)
	if smoothed != 1 {
		t.Errorf("smoothed = %v, want 1 with prev and factor clamped", smoothed)
	}

	cfg.SmoothingFactor = -1
	_, smoothed = UpdateExpression([]float64{0.25}, -4, cfg)
	if math.Abs(smoothed-0.25) > eps {
		t.Errorf("smoothed = %v, want 0.25 with factor clamped to 0", smoothed)
	}
}

func TestUpdateExpression_SilenceConvergesToZero(t *testing.T) {
	cfg := DefaultConfig()

	for _, start := range []float64{1, 0.73, 0.2, 1e-6} {
		smoothed := start
		for i := 0; i < 100; i++ {
			_, next := UpdateExpression([]float64{0, 0, 0}, smoothed, cfg)
			if next > smoothed {
				t.Fatalf("start %v tick %d: smoothed rose %v -> %v", start, i, smoothed, next)
			}
			smoothed = next
		}
		if smoothed > 1e-9 {
			t.Errorf("start %v: smoothed = %v after 100 silent ticks, want ~0", start, smoothed)
		}
	}
}

func TestMouthHeight_SwappedBounds(t *testing.T) {
	cfg := Config{MinHeight: 10, MaxHeight: 2}
	for _, s := range []float64{0, 0.5, 1} {
		h := MouthHeight(s, cfg)
		if h < 2 || h > 10 {
			t.Errorf("MouthHeight(%v) = %v, want within [2,10]", s, h)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"factor too high", func(c *Config) { c.SmoothingFactor = 1.1 }, true},
		{"factor negative", func(c *Config) { c.SmoothingFactor = -0.1 }, true},
		{"negative min", func(c *Config) { c.MinHeight = -1 }, true},
		{"max below min", func(c *Config) { c.MaxHeight = 0.05 }, true},
		{"zero divisor", func(c *Config) { c.NormalizationDivisor = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScaledConfig(t *testing.T) {
	cfg := ScaledConfig(100)
	if math.Abs(cfg.MaxHeight-12.5) > eps {
		t.Errorf("MaxHeight at size 100 = %v, want 12.5", cfg.MaxHeight)
	}
	if cfg.MinHeight != 0.1 {
		t.Errorf("MinHeight = %v, want 0.1 (unscaled)", cfg.MinHeight)
	}

	tiny := ScaledConfig(0.5)
	if tiny.MaxHeight < tiny.MinHeight {
		t.Errorf("MaxHeight %v dropped below MinHeight %v", tiny.MaxHeight, tiny.MinHeight)
	}
}
