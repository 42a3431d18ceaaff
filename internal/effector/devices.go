package effector

import (
	"context"

	"github.com/oshokin/green-sentinel/internal/device/audio"
	"github.com/oshokin/green-sentinel/internal/device/haptic"
)

// SoundHandle is a playing sound.
type SoundHandle interface {
	Stop() error
}

// AudioDevice starts the primary alarm sound.
type AudioDevice interface {
	StartLoopingSound(ctx context.Context, resourceID string) (SoundHandle, error)
}

// Ringer is the fallback alert path. It cannot fail to start.
type Ringer interface {
	Ring(ctx context.Context, resourceID string) SoundHandle
}

// VibrationHandle is a running vibration waveform.
type VibrationHandle interface {
	Cancel() error
}

// HapticActuator starts the vibration waveform.
type HapticActuator interface {
	StartRepeatingVibration(ctx context.Context, pattern haptic.Pattern) (VibrationHandle, error)
}

// playerDevice adapts audio.Player to AudioDevice.
type playerDevice struct {
	player *audio.Player
}

// FromPlayer exposes p as the primary audio device.
//
//nolint:ireturn // Adapter constructor.
func FromPlayer(p *audio.Player) AudioDevice {
	return playerDevice{player: p}
}

func (d playerDevice) StartLoopingSound(ctx context.Context, resourceID string) (SoundHandle, error) {
	playback, err := d.player.StartLoopingSound(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	return playback, nil
}

// bellRinger adapts audio.Bell to Ringer.
type bellRinger struct {
	bell *audio.Bell
}

// FromBell exposes b as the fallback ringer.
//
//nolint:ireturn // Adapter constructor.
func FromBell(b *audio.Bell) Ringer {
	return bellRinger{bell: b}
}

func (r bellRinger) Ring(ctx context.Context, resourceID string) SoundHandle {
	return r.bell.Ring(ctx, resourceID)
}

// vibratorActuator adapts haptic.Vibrator to HapticActuator.
type vibratorActuator struct {
	vibrator *haptic.Vibrator
}

// FromVibrator exposes v as the haptic actuator.
//
//nolint:ireturn // Adapter constructor.
func FromVibrator(v *haptic.Vibrator) HapticActuator {
	return vibratorActuator{vibrator: v}
}

func (a vibratorActuator) StartRepeatingVibration(ctx context.Context, pattern haptic.Pattern) (VibrationHandle, error) {
	vib, err := a.vibrator.StartRepeatingVibration(ctx, pattern)
	if err != nil {
		return nil, err
	}

	return vib, nil
}
