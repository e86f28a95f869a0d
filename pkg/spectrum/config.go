package spectrum

import "fmt"

// Config mirrors the knobs of a browser AnalyserNode.
type Config struct {
	// FFTSize is the analysis window in samples. Must be a power of two.
	FFTSize int `yaml:"fft_size" json:"fft_size"`

	// SmoothingTimeConstant blends each reading with the previous one
	// (0 = no smoothing, just below 1 = very slow).
	SmoothingTimeConstant float64 `yaml:"smoothing_time_constant" json:"smoothing_time_constant"`

	// MinDecibels and MaxDecibels map magnitudes onto [0,1].
	MinDecibels float64 `yaml:"min_decibels" json:"min_decibels"`
	MaxDecibels float64 `yaml:"max_decibels" json:"max_decibels"`

	// MinHz and MaxHz restrict the returned bins to a band. Zero disables
	// the respective limit.
	MinHz float64 `yaml:"min_hz" json:"min_hz"`
	MaxHz float64 `yaml:"max_hz" json:"max_hz"`
}

// DefaultConfig returns AnalyserNode defaults with a 1024 point window.
func DefaultConfig() Config {
	return Config{
		FFTSize:               1024,
		SmoothingTimeConstant: 0.8,
		MinDecibels:           -100,
		MaxDecibels:           -30,
	}
}

// VoiceConfig limits the band to where speech energy lives.
func VoiceConfig() Config {
	cfg := DefaultConfig()
	cfg.MinHz = 80
	cfg.MaxHz = 4000
	return cfg
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.FFTSize < 32 || c.FFTSize > 32768 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("fft_size must be a power of two in [32,32768], got %d", c.FFTSize)
	}
	if c.SmoothingTimeConstant < 0 || c.SmoothingTimeConstant >= 1 {
		return fmt.Errorf("smoothing_time_constant must be in [0,1), got %v", c.SmoothingTimeConstant)
	}
	if c.MinDecibels >= c.MaxDecibels {
		return fmt.Errorf("min_decibels (%v) must be below max_decibels (%v)", c.MinDecibels, c.MaxDecibels)
	}
	if c.MinHz < 0 || c.MaxHz < 0 {
		return fmt.Errorf("band limits must not be negative")
	}
	if c.MaxHz > 0 && c.MinHz >= c.MaxHz {
		return fmt.Errorf("min_hz (%v) must be below max_hz (%v)", c.MinHz, c.MaxHz)
	}
	return nil
}
