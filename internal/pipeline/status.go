package pipeline

import (
	"time"

	"github.com/oshokin/green-sentinel/internal/domain/alarm"
)

// Status is a read-only snapshot of the pipeline.
type Status struct {
	// State is the alarm state.
	State alarm.State `json:"-"`
	// StateName is State rendered for JSON consumers.
	StateName string `json:"state"`
	// SessionID identifies the active alarm; empty while monitoring.
	SessionID string `json:"session_id,omitempty"`
	// TriggeredAt is when the active alarm was raised.
	TriggeredAt time.Time `json:"triggered_at,omitzero"`
	// Fallback is true when the active alarm uses the ring fallback.
	Fallback bool `json:"fallback,omitempty"`
	// LastSilencedAt is when the last alarm was silenced.
	LastSilencedAt time.Time `json:"last_silenced_at,omitzero"`
	// LastSilencedBy is who silenced the last alarm.
	LastSilencedBy *alarm.Actor `json:"last_silenced_by,omitempty"`
	// Generation counts frame source acquisitions.
	Generation uint64 `json:"generation"`
	// FramesAnalyzed is the number of frames run through the detector.
	FramesAnalyzed uint64 `json:"frames_analyzed"`
	// FramesDropped is the number of frames replaced before analysis.
	FramesDropped uint64 `json:"frames_dropped"`
}

// clone returns a copy that shares no pointers with s.
func (s *Status) clone() *Status {
	c := *s
	c.LastSilencedBy = s.LastSilencedBy.Clone()

	return &c
}
