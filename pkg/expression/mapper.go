// Package expression turns audio amplitude and pointer position into the
// drawing parameters of the sphere figure: mouth aperture and pupil offsets.
//
// Everything here is synchronous and allocation free. The smoothed amplitude
// is passed in and returned rather than held globally; Face is the stateful
// convenience wrapper that stores it for one figure.
package expression

import "math"

// PeakAmplitude returns the largest reading in samples, or 0 when there is
// none. NaN readings are ignored.
func PeakAmplitude(samples []float64) float64 {
	peak := math.Inf(-1)
	for _, s := range samples {
		if s > peak {
			peak = s
		}
	}
	if math.IsInf(peak, -1) {
		return 0
	}
	return peak
}

// NormalizeAmplitude maps a raw peak onto [0,1]. Negative peaks read as
// silence. A non-positive divisor saturates any positive peak.
func NormalizeAmplitude(raw, divisor float64) float64 {
	if divisor <= 0 {
		if raw > 0 {
			return 1
		}
		return 0
	}
	return clamp(raw/divisor, 0, 1)
}

// UpdateExpression advances the smoothed amplitude by one tick and returns
// the resulting mouth height together with the new accumulator value.
//
// prevSmoothed should be 0 for the first tick of a figure.
func UpdateExpression(samples []float64, prevSmoothed float64, cfg Config) (mouthHeight, smoothed float64) {
	normalized := NormalizeAmplitude(PeakAmplitude(samples), cfg.NormalizationDivisor)

	k := clamp(cfg.SmoothingFactor, 0, 1)
	prev := clamp(prevSmoothed, 0, 1)
	smoothed = clamp(prev*k+normalized*(1-k), 0, 1)

	return MouthHeight(smoothed, cfg), smoothed
}

// MouthHeight interpolates the aperture for a smoothed amplitude.
func MouthHeight(smoothed float64, cfg Config) float64 {
	lo, hi := cfg.MinHeight, cfg.MaxHeight
	if hi < lo {
		lo, hi = hi, lo
	}
	return clamp(lo+(hi-lo)*clamp(smoothed, 0, 1), lo, hi)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
