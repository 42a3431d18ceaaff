package audio

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/oshokin/green-sentinel/internal/logger"
)

// DefaultBellInterval is the pause between two terminal bells.
const DefaultBellInterval = time.Second

// bellCharacter makes terminals beep.
const bellCharacter = "\a"

// Bell is the fallback alert. It plays the fallback sound once when it can and
// then rings the terminal bell until stopped, so an alarm is never silent.
type Bell struct {
	// player plays the fallback sound; nil skips it.
	player *Player
	// out receives the bell characters.
	out io.Writer
	// interval is the pause between bells.
	interval time.Duration
}

// NewBell returns a fallback ringer writing to out every interval.
func NewBell(player *Player, out io.Writer, interval time.Duration) *Bell {
	if interval <= 0 {
		interval = DefaultBellInterval
	}

	if out == nil {
		out = os.Stderr
	}

	return &Bell{
		player:   player,
		out:      out,
		interval: interval,
	}
}

// Ring starts the fallback alert. It never fails: a missing fallback sound only
// leaves the bell.
func (b *Bell) Ring(ctx context.Context, resourceID string) *Playback {
	ctx = logger.WithName(ctx, "bell")

	var once *Playback

	if b.player != nil && resourceID != "" {
		var err error

		once, err = b.player.PlayOnce(ctx, resourceID)
		if err != nil {
			logger.WarnKV(ctx, "Fallback sound unavailable, ringing bell only", "error", err)
		}
	}

	return newPlayback(ctx, func(ctx context.Context) {
		if once != nil {
			defer func() { _ = once.Stop() }()
		}

		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			if _, err := io.WriteString(b.out, bellCharacter); err != nil {
				logger.DebugKV(ctx, "Bell write failed", "error", err)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	})
}
