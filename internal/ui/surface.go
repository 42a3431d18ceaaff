package ui

import "sync/atomic"

// Surface records which panel the pipeline wants shown. Safe for concurrent use.
type Surface struct {
	// hidden is true while the stop control replaces the preview.
	hidden atomic.Bool
}

// NewSurface creates a surface showing the preview.
func NewSurface() *Surface {
	return new(Surface)
}

// SetPreviewVisible shows the preview (true) or the stop control (false).
func (s *Surface) SetPreviewVisible(visible bool) {
	s.hidden.Store(!visible)
}

// PreviewVisible reports whether the preview is shown.
func (s *Surface) PreviewVisible() bool {
	return !s.hidden.Load()
}
