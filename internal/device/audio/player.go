package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/oshokin/green-sentinel/internal/logger"
)

// fileToken is replaced by the sound file path in player commands.
const fileToken = "{file}"

// minLoopDelay keeps a player that exits immediately from spinning the CPU.
const minLoopDelay = 200 * time.Millisecond

var (
	// ErrNoPlayer indicates no usable command-line player was found.
	ErrNoPlayer = errors.New("no audio player available")
	// ErrNoSound indicates the sound resource is missing.
	ErrNoSound = errors.New("sound resource not found")
)

// candidates returns the player commands tried on the current OS, in order.
func candidates() [][]string {
	switch strings.ToLower(runtime.GOOS) {
	case "darwin":
		return [][]string{{"afplay", fileToken}}
	case "windows":
		return [][]string{{
			"powershell.exe", "-NoProfile", "-NonInteractive", "-Command",
			"(New-Object Media.SoundPlayer '" + fileToken + "').PlaySync()",
		}}
	default:
		return [][]string{
			{"paplay", fileToken},
			{"aplay", "-q", fileToken},
			{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", fileToken},
		}
	}
}

// Player plays sound files through an external command.
type Player struct {
	// command is the argv template; one element contains fileToken.
	command []string
	// lookPath resolves the executable, replaceable in tests.
	lookPath func(string) (string, error)
}

// NewPlayer returns a player using command, or the first OS player found on PATH
// when command is empty. Use "{file}" in command where the sound path goes.
func NewPlayer(command []string) *Player {
	return &Player{
		command:  command,
		lookPath: exec.LookPath,
	}
}

// resolve picks the argv template to run.
func (p *Player) resolve() ([]string, error) {
	if len(p.command) > 0 {
		if _, err := p.lookPath(p.command[0]); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNoPlayer, p.command[0], err)
		}

		return p.command, nil
	}

	for _, c := range candidates() {
		if _, err := p.lookPath(c[0]); err == nil {
			return c, nil
		}
	}

	return nil, fmt.Errorf("%w on %s", ErrNoPlayer, runtime.GOOS)
}

// argv substitutes the sound path into the template.
func argv(template []string, path string) []string {
	out := make([]string, len(template))
	for i, a := range template {
		out[i] = strings.ReplaceAll(a, fileToken, path)
	}

	return out
}

// check resolves the player and the sound file.
func (p *Player) check(resourceID string) ([]string, error) {
	if resourceID == "" {
		return nil, fmt.Errorf("%w: empty path", ErrNoSound)
	}

	path := filepath.Clean(resourceID)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSound, err)
	}

	template, err := p.resolve()
	if err != nil {
		return nil, err
	}

	return argv(template, path), nil
}

// StartLoopingSound plays the sound file over and over until the playback is stopped
// or ctx ends. Missing files and players are reported before anything starts.
func (p *Player) StartLoopingSound(ctx context.Context, resourceID string) (*Playback, error) {
	args, err := p.check(resourceID)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithKV(logger.WithName(ctx, "audio"), "player", args[0])

	return newPlayback(ctx, func(ctx context.Context) {
		for ctx.Err() == nil {
			started := time.Now()

			//nolint:gosec // The player comes from configuration or a fixed list.
			if runErr := exec.CommandContext(ctx, args[0], args[1:]...).Run(); runErr != nil && ctx.Err() == nil {
				logger.WarnKV(ctx, "Alarm sound player exited", "error", runErr)
			}

			if wait := minLoopDelay - time.Since(started); wait > 0 {
				sleep(ctx, wait)
			}
		}
	}), nil
}

// PlayOnce plays the sound file a single time in the background.
func (p *Player) PlayOnce(ctx context.Context, resourceID string) (*Playback, error) {
	args, err := p.check(resourceID)
	if err != nil {
		return nil, err
	}

	return newPlayback(ctx, func(ctx context.Context) {
		//nolint:gosec // The player comes from configuration or a fixed list.
		_ = exec.CommandContext(ctx, args[0], args[1:]...).Run()
	}), nil
}

// sleep waits for d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
