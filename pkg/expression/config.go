package expression

import "fmt"

// Reference size the figure geometry is drawn at. Every length scales by
// size/ReferenceSize.
const ReferenceSize = 200.0

// DefaultSize is the pixel size a figure gets when none is requested.
const DefaultSize = 100.0

// Config tunes how amplitude readings become a mouth aperture.
type Config struct {
	// SmoothingFactor is the weight kept from the previous smoothed value
	// (0 = follow input instantly, 1 = never move).
	SmoothingFactor float64 `yaml:"smoothing_factor" json:"smoothing_factor"`

	// MinHeight and MaxHeight bound the mouth aperture. MaxHeight is given
	// at ReferenceSize and scales with the figure; MinHeight is absolute so a
	// closed mouth stays a thin line at any size.
	MinHeight float64 `yaml:"min_height" json:"min_height"`
	MaxHeight float64 `yaml:"max_height" json:"max_height"`

	// NormalizationDivisor is the raw reading that maps to full scale.
	NormalizationDivisor float64 `yaml:"normalization_divisor" json:"normalization_divisor"`
}

// DefaultConfig returns the tuning of a figure drawn at ReferenceSize.
func DefaultConfig() Config {
	return Config{
		SmoothingFactor:      0.3,
		MinHeight:            0.1,
		MaxHeight:            25,
		NormalizationDivisor: 1,
	}
}

// ScaledConfig returns DefaultConfig with MaxHeight scaled to size.
func ScaledConfig(size float64) Config {
	return DefaultConfig().Scaled(size)
}

// Scaled returns a copy whose MaxHeight is converted from ReferenceSize to
// size.
func (c Config) Scaled(size float64) Config {
	if size <= 0 {
		size = DefaultSize
	}
	c.MaxHeight *= size / ReferenceSize
	if c.MaxHeight < c.MinHeight {
		c.MaxHeight = c.MinHeight
	}
	return c
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.SmoothingFactor < 0 || c.SmoothingFactor > 1 {
		return fmt.Errorf("smoothing_factor must be in [0,1], got %v", c.SmoothingFactor)
	}
	if c.MinHeight < 0 {
		return fmt.Errorf("min_height must not be negative, got %v", c.MinHeight)
	}
	if c.MaxHeight < c.MinHeight {
		return fmt.Errorf("max_height (%v) must not be below min_height (%v)", c.MaxHeight, c.MinHeight)
	}
	if c.NormalizationDivisor <= 0 {
		return fmt.Errorf("normalization_divisor must be positive, got %v", c.NormalizationDivisor)
	}
	return nil
}
