// Package audioio provides audio capture and playback behind small
// Source/Sink interfaces.
//
// Backends:
//   - portaudio: microphone capture through PortAudio
//   - oto: speaker playback through oto
//   - file: WAV file source paced in real time
//   - mock: synthetic audio for tests and headless runs
package audioio

import (
	"fmt"
	"time"
)

// Backend names an audio implementation.
type Backend string

const (
	// BackendAuto picks portaudio for capture and oto for playback.
	BackendAuto      Backend = "auto"
	BackendPortAudio Backend = "portaudio"
	BackendOto       Backend = "oto"
	BackendFile      Backend = "file"
	BackendMock      Backend = "mock"
)

// Config holds audio configuration.
type Config struct {
	Backend Backend `yaml:"backend" json:"backend"`

	// SampleRate in Hz. Default 24000, what realtime speech APIs emit.
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`

	// Channels, 1 for mono.
	Channels int `yaml:"channels" json:"channels"`

	// BufferDuration is the length of one chunk.
	BufferDuration time.Duration `yaml:"buffer_duration" json:"buffer_duration"`

	// Device selects an input device by name (portaudio) or a WAV path
	// (file). Empty means the system default.
	Device string `yaml:"device" json:"device"`
}

// DefaultConfig returns mono 24 kHz audio in 20 ms chunks.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     24000,
		Channels:       1,
		BufferDuration: 20 * time.Millisecond,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	switch c.Backend {
	case "", BackendAuto, BackendPortAudio, BackendOto, BackendFile, BackendMock:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

// BufferSize returns frames per chunk.
func (c *Config) BufferSize() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}

// BufferBytes returns the byte size of one chunk of PCM16.
func (c *Config) BufferBytes() int {
	return c.BufferSize() * c.Channels * 2
}
