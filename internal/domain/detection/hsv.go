package detection

import "math"

// HSV is a color in the hue/saturation/value model.
type HSV struct {
	// Hue is the color angle in degrees, within [0, 360).
	Hue float64
	// Saturation is the colorfulness relative to brightness, within [0, 1].
	Saturation float64
	// Value is the brightness, within [0, 1].
	Value float64
}

// ToHSV converts 8-bit RGB components to HSV.
// Achromatic colors (grays) report a hue of 0.
func ToHSV(r, g, b uint8) HSV {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255

	maxC := math.Max(rf, math.Max(gf, bf))
	minC := math.Min(rf, math.Min(gf, bf))
	delta := maxC - minC

	hsv := HSV{Value: maxC}
	if maxC > 0 {
		hsv.Saturation = delta / maxC
	}

	if delta == 0 {
		return hsv
	}

	var hue float64

	switch maxC {
	case rf:
		hue = (gf - bf) / delta
	case gf:
		hue = 2 + (bf-rf)/delta
	default:
		hue = 4 + (rf-gf)/delta
	}

	hue *= 60
	if hue < 0 {
		hue += 360
	}

	if hue >= 360 {
		hue -= 360
	}

	hsv.Hue = hue

	return hsv
}
