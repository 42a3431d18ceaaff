package sentinel

import (
	"os"

	"github.com/oshokin/green-sentinel/internal/config"
	"github.com/oshokin/green-sentinel/internal/device/audio"
	"github.com/oshokin/green-sentinel/internal/device/haptic"
	"github.com/oshokin/green-sentinel/internal/effector"
	"github.com/oshokin/green-sentinel/internal/metrics"
)

// newEffector builds the alarm devices from the alarm settings.
func newEffector(cfg *config.Alarm, m *metrics.Metrics) *effector.Effector {
	player := audio.NewPlayer(cfg.Player)
	bell := audio.NewBell(player, os.Stderr, cfg.BellInterval)

	var motor haptic.Motor = haptic.NopMotor{}
	if cfg.MotorPath != "" {
		motor = haptic.NewFileMotor(cfg.MotorPath)
	}

	return effector.New(
		effector.FromPlayer(player),
		effector.FromBell(bell),
		effector.FromVibrator(haptic.NewVibrator(motor)),
		effector.Options{
			Sound:         cfg.SoundFile,
			FallbackSound: cfg.FallbackSoundFile,
			Pattern:       cfg.VibrationPattern,
			Metrics:       m,
		},
	)
}
