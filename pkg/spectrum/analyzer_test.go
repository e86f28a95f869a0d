package spectrum

import (
	"math"
	"testing"
)

func sine(freq, amp float64, rate, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amp * 32767 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestAnalyzer_IdleReading(t *testing.T) {
	a, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := a.Frequencies()
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("Frequencies before audio = %v, want [0]", got)
	}
}

func TestAnalyzer_SilenceIsZero(t *testing.T) {
	a, _ := New(DefaultConfig())
	a.Write(make([]int16, 2048), 16000)

	for i, v := range a.Frequencies() {
		if v != 0 {
			t.Fatalf("bin %d = %v, want 0 for silence", i, v)
		}
	}
}

func TestAnalyzer_SinePeaksAtItsBin(t *testing.T) {
	cfg := DefaultConfig()
	a, _ := New(cfg)

	const rate = 16000
	binHz := float64(rate) / float64(cfg.FFTSize)
	freq := 32 * binHz // exactly bin 32

	var got []float64
	for i := 0; i < 10; i++ {
		a.Write(sine(freq, 0.01, rate, cfg.FFTSize), rate)
		got = a.Frequencies()
	}

	if len(got) != cfg.FFTSize/2 {
		t.Fatalf("len = %d, want %d", len(got), cfg.FFTSize/2)
	}

	peak := 0
	for k, v := range got {
		if v > got[peak] {
			peak = k
		}
		if v < 0 || v > 1 {
			t.Fatalf("bin %d = %v outside [0,1]", k, v)
		}
	}
	if peak < 31 || peak > 33 {
		t.Errorf("peak bin = %d, want ~32", peak)
	}
	if got[peak] < 0.5 {
		t.Errorf("peak value = %v, want a loud reading", got[peak])
	}
	if f := a.BinFrequency(peak); math.Abs(f-freq) > 2*binHz {
		t.Errorf("BinFrequency(%d) = %v, want ~%v", peak, f, freq)
	}
}

func TestAnalyzer_SmoothingDecays(t *testing.T) {
	cfg := DefaultConfig()
	a, _ := New(cfg)

	const rate = 16000
	a.Write(sine(1000, 0.8, rate, cfg.FFTSize), rate)
	loud := maxOf(a.Frequencies())

	a.Write(make([]int16, cfg.FFTSize), rate)
	prev := loud
	for i := 0; i < 5; i++ {
		cur := maxOf(a.Frequencies())
		if cur > prev {
			t.Fatalf("reading %d rose during silence: %v -> %v", i, prev, cur)
		}
		prev = cur
	}
	if prev >= loud {
		t.Errorf("reading did not decay: %v -> %v", loud, prev)
	}
}

func TestAnalyzer_BandLimits(t *testing.T) {
	a, _ := New(VoiceConfig())
	a.Write(sine(440, 0.3, 16000, 1024), 16000)

	// 15.625 Hz bins: ceil(80/15.625)=6 .. floor(4000/15.625)=256 inclusive.
	if got := len(a.Frequencies()); got != 251 {
		t.Errorf("band-limited len = %d, want 251", got)
	}
}

func TestAnalyzer_Reset(t *testing.T) {
	a, _ := New(DefaultConfig())
	a.Write(sine(500, 0.5, 16000, 1024), 16000)
	a.Frequencies()
	a.Reset()

	got := a.Frequencies()
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("Frequencies after Reset = %v, want [0]", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"voice", func(c *Config) { *c = VoiceConfig() }, false},
		{"not power of two", func(c *Config) { c.FFTSize = 1000 }, true},
		{"too small", func(c *Config) { c.FFTSize = 16 }, true},
		{"smoothing one", func(c *Config) { c.SmoothingTimeConstant = 1 }, true},
		{"inverted db", func(c *Config) { c.MinDecibels = -20 }, true},
		{"inverted band", func(c *Config) { c.MinHz, c.MaxHz = 500, 100 }, true},
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
	if _, err := New(Config{FFTSize: 3}); err == nil {
		t.Error("New should reject an invalid config")
	}
}

func TestBlackmanWindow(t *testing.T) {
	w := blackman(64)
	if len(w) != 64 {
		t.Fatalf("len = %d, want 64", len(w))
	}
	if math.Abs(w[0]) > 1e-9 || math.Abs(w[63]) > 1e-9 {
		t.Errorf("edges = %v, %v, want 0", w[0], w[63])
	}
	for i := range w {
		if w[i] < -1e-9 || w[i] > 1 {
			t.Errorf("w[%d] = %v, outside [0,1]", i, w[i])
		}
		if math.Abs(w[i]-w[63-i]) > 1e-12 {
			t.Errorf("w[%d] = %v, w[%d] = %v, want symmetric", i, w[i], 63-i, w[63-i])
		}
	}
}

func maxOf(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		m = math.Max(m, x)
	}
	return m
}
