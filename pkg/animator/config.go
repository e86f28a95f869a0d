package animator

import (
	"fmt"
	"time"
)

// Config controls the animation loop.
type Config struct {
	// TickRate is how many times per second the face is advanced.
	TickRate float64 `yaml:"tick_rate" json:"tick_rate"`

	// Epsilon is the dead zone below which a frame counts as unchanged and
	// is not emitted.
	Epsilon float64 `yaml:"epsilon" json:"epsilon"`

	// SampleHold is how long externally supplied magnitudes, or the last
	// fed audio, keep driving the face before it falls back to silence.
	SampleHold time.Duration `yaml:"sample_hold" json:"sample_hold"`

	// EventBuffer is the capacity of the event queue.
	EventBuffer int `yaml:"event_buffer" json:"event_buffer"`
}

// DefaultConfig returns a 60 Hz loop.
func DefaultConfig() Config {
	return Config{
		TickRate:    60,
		Epsilon:     0.001,
		SampleHold:  250 * time.Millisecond,
		EventBuffer: 64,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.TickRate <= 0 || c.TickRate > 1000 {
		return fmt.Errorf("tick_rate must be in (0,1000], got %v", c.TickRate)
	}
	if c.Epsilon < 0 {
		return fmt.Errorf("epsilon must not be negative, got %v", c.Epsilon)
	}
	if c.SampleHold <= 0 {
		return fmt.Errorf("sample_hold must be positive, got %v", c.SampleHold)
	}
	if c.EventBuffer < 0 {
		return fmt.Errorf("event_buffer must not be negative, got %d", c.EventBuffer)
	}
	return nil
}

// withDefaults replaces every field Validate would reject with its
// DefaultConfig value.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if !(c.TickRate > 0 && c.TickRate <= 1000) {
		c.TickRate = def.TickRate
	}
	if !(c.Epsilon >= 0) {
		c.Epsilon = def.Epsilon
	}
	if c.SampleHold <= 0 {
		c.SampleHold = def.SampleHold
	}
	if c.EventBuffer < 0 {
		c.EventBuffer = def.EventBuffer
	}
	return c
}

// Interval returns the time between ticks.
func (c *Config) Interval() time.Duration {
	return time.Duration(float64(time.Second) / c.TickRate)
}
