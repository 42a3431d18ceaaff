// Package detection decides whether the target color is present in a frame.
//
// A frame is reduced to a sparse probe grid (see frame.Sample); each probe is
// converted to hue/saturation/value and tested against a ColorRange. The first
// matching probe ends the scan.
package detection
