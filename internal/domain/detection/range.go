package detection

import (
	"errors"
	"fmt"
)

// ColorRange is the acceptance region of the target color.
// The hue interval is inclusive and does not wrap through 0 degrees.
type ColorRange struct {
	// HueMin is the lowest accepted hue in degrees.
	HueMin float64 `yaml:"hue_min"`
	// HueMax is the highest accepted hue in degrees.
	HueMax float64 `yaml:"hue_max"`
	// SaturationMin is the lowest accepted saturation.
	SaturationMin float64 `yaml:"saturation_min"`
	// ValueMin is the lowest accepted brightness.
	ValueMin float64 `yaml:"value_min"`
}

// Green is the default target: hues 80..160 with at least 30% saturation and brightness.
//
//nolint:gochecknoglobals // Immutable default shared by config and tests.
var Green = ColorRange{
	HueMin:        80,
	HueMax:        160,
	SaturationMin: 0.3,
	ValueMin:      0.3,
}

var (
	// ErrInvalidHue is returned for hue bounds outside [0, 360] or in the wrong order.
	ErrInvalidHue = errors.New("invalid hue bounds")
	// ErrInvalidThreshold is returned for saturation or value thresholds outside [0, 1].
	ErrInvalidThreshold = errors.New("invalid threshold")
)

// Validate checks that the range is well formed.
func (r ColorRange) Validate() error {
	if r.HueMin < 0 || r.HueMax > 360 || r.HueMin > r.HueMax {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidHue, r.HueMin, r.HueMax)
	}

	if r.SaturationMin < 0 || r.SaturationMin > 1 {
		return fmt.Errorf("%w: saturation_min %g", ErrInvalidThreshold, r.SaturationMin)
	}

	if r.ValueMin < 0 || r.ValueMin > 1 {
		return fmt.Errorf("%w: value_min %g", ErrInvalidThreshold, r.ValueMin)
	}

	return nil
}

// Contains reports whether c falls inside the range.
func (r ColorRange) Contains(c HSV) bool {
	return c.Hue >= r.HueMin && c.Hue <= r.HueMax &&
		c.Saturation >= r.SaturationMin &&
		c.Value >= r.ValueMin
}
