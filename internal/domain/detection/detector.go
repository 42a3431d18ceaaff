package detection

import "github.com/oshokin/green-sentinel/internal/domain/frame"

// Detector tests frames for the presence of a color range.
// It holds no mutable state and is safe for concurrent use.
type Detector struct {
	// colors is the acceptance region probes are tested against.
	colors ColorRange
	// stride is the probe grid spacing in pixels.
	stride int
}

// NewDetector creates a detector probing every stride-th pixel against colors.
func NewDetector(colors ColorRange, stride int) *Detector {
	if stride < 1 {
		stride = frame.DefaultStride
	}

	return &Detector{
		colors: colors,
		stride: stride,
	}
}

// Range returns the configured color range.
func (d *Detector) Range() ColorRange {
	return d.colors
}

// Stride returns the probe grid spacing.
func (d *Detector) Stride() int {
	return d.stride
}

// Detect reports whether any probe of f matches the color range.
// The scan stops at the first match, so absence costs the whole grid and presence
// usually much less. f must be non-nil and fully decoded.
func (d *Detector) Detect(f frame.Frame) bool {
	for x, y := range frame.Sample(f.Width(), f.Height(), d.stride) {
		if d.colors.Contains(ToHSV(f.RGB(x, y))) {
			return true
		}
	}

	return false
}
