package audio

import (
	"context"
	"errors"
	"sync"
	"time"
)

// stopTimeout bounds how long Stop waits for the player to exit.
const stopTimeout = 3 * time.Second

// ErrStopTimeout is returned when a playback does not finish after being stopped.
var ErrStopTimeout = errors.New("playback did not stop in time")

// Playback is a running sound. It is released by Stop.
type Playback struct {
	// cancel ends the playing goroutine.
	cancel context.CancelFunc
	// done is closed when the goroutine has exited.
	done chan struct{}
	// once guards the single release.
	once sync.Once
	// err is the result of the release.
	err error
}

// newPlayback starts run in a goroutine bound to a cancelable child of ctx.
func newPlayback(ctx context.Context, run func(ctx context.Context)) *Playback {
	runCtx, cancel := context.WithCancel(ctx)
	p := &Playback{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(p.done)
		run(runCtx)
	}()

	return p
}

// Stop ends the playback and waits for it to release the device.
// Repeated calls return the first result.
func (p *Playback) Stop() error {
	p.once.Do(func() {
		p.cancel()

		timer := time.NewTimer(stopTimeout)
		defer timer.Stop()

		select {
		case <-p.done:
		case <-timer.C:
			p.err = ErrStopTimeout
		}
	})

	return p.err
}
