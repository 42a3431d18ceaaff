package effector

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/green-sentinel/internal/device/audio"
	"github.com/oshokin/green-sentinel/internal/device/haptic"
	"github.com/oshokin/green-sentinel/internal/logger"
	"github.com/oshokin/green-sentinel/internal/metrics"
)

// Options configures the alarm effects.
type Options struct {
	// Sound is the primary alarm sound resource, played in a loop.
	Sound string
	// FallbackSound is handed to the ringer when the primary sound cannot start.
	FallbackSound string
	// Pattern is the vibration waveform; empty means haptic.DefaultPattern.
	Pattern haptic.Pattern
	// Metrics records activations, fallbacks and release failures. May be nil.
	Metrics *metrics.Metrics
}

// Session holds the devices of one active alarm.
type Session struct {
	// ID identifies the alarm in logs and status reports.
	ID uuid.UUID
	// StartedAt is when the alarm was raised.
	StartedAt time.Time
	// Fallback is true when the ring path replaced the primary sound.
	Fallback bool

	// sound is the playing alert; never nil for a live session.
	sound SoundHandle
	// vibration is the running waveform; nil when the actuator failed.
	vibration VibrationHandle
	// released is set once Deactivate has run.
	released bool
}

// Released reports whether the session devices have been released.
func (s *Session) Released() bool {
	return s.released
}

// Effector starts and stops the alarm effects. It is driven from a single goroutine.
type Effector struct {
	// audio plays the primary sound.
	audio AudioDevice
	// ringer is the fallback alert.
	ringer Ringer
	// haptic drives the vibration actuator.
	haptic HapticActuator
	// opts holds resources and the waveform.
	opts Options
	// now returns the current time, replaceable in tests.
	now func() time.Time
}

// New creates an effector. A nil ringer rings the terminal bell on stderr,
// a nil actuator disables vibration.
func New(audioDevice AudioDevice, ringer Ringer, actuator HapticActuator, opts Options) *Effector {
	if ringer == nil {
		ringer = FromBell(audio.NewBell(nil, nil, audio.DefaultBellInterval))
	}

	if actuator == nil {
		actuator = FromVibrator(haptic.NewVibrator(nil))
	}

	if len(opts.Pattern) == 0 {
		opts.Pattern = haptic.DefaultPattern
	}

	return &Effector{
		audio:  audioDevice,
		ringer: ringer,
		haptic: actuator,
		opts:   opts,
		now:    time.Now,
	}
}

// Activate raises the alarm: looping sound (or the ring fallback) plus vibration.
// It always returns a live session.
func (e *Effector) Activate(ctx context.Context) *Session {
	s := &Session{
		ID:        uuid.New(),
		StartedAt: e.now(),
	}

	ctx = logger.WithKV(logger.WithName(ctx, "effector"), "session_id", s.ID.String())

	if e.audio != nil {
		sound, err := e.audio.StartLoopingSound(ctx, e.opts.Sound)
		if err == nil {
			s.sound = sound
		} else {
			logger.WarnKV(ctx, "Alarm sound unavailable, using fallback ring", "error", err)
		}
	}

	if s.sound == nil {
		s.sound = e.ringer.Ring(ctx, e.opts.FallbackSound)
		s.Fallback = true
		e.opts.Metrics.SoundFallback()
	}

	vibration, err := e.haptic.StartRepeatingVibration(ctx, e.opts.Pattern)
	if err != nil {
		logger.WarnKV(ctx, "Vibration unavailable, alarm continues with sound only", "error", err)
	} else {
		s.vibration = vibration
	}

	e.opts.Metrics.AlarmTriggered()
	logger.InfoKV(ctx, "Alarm activated", "fallback", s.Fallback, "vibration", s.vibration != nil)

	return s
}

// Deactivate releases the session devices. Sound and vibration are released
// independently; failures are logged and counted, never returned. Releasing an
// already released or nil session does nothing.
func (e *Effector) Deactivate(ctx context.Context, s *Session) {
	if s == nil || s.released {
		return
	}

	s.released = true
	ctx = logger.WithKV(logger.WithName(ctx, "effector"), "session_id", s.ID.String())

	if s.sound != nil {
		if err := s.sound.Stop(); err != nil {
			logger.ErrorKV(ctx, "Failed to release alarm sound", "error", err)
			e.opts.Metrics.ReleaseFailed("audio")
		}
	}

	if s.vibration != nil {
		if err := s.vibration.Cancel(); err != nil {
			logger.ErrorKV(ctx, "Failed to cancel vibration", "error", err)
			e.opts.Metrics.ReleaseFailed("haptic")
		}
	}

	e.opts.Metrics.AlarmReleased()
	logger.InfoKV(ctx, "Alarm deactivated", "duration", e.now().Sub(s.StartedAt).String())
}
