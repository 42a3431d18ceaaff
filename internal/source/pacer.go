package source

import (
	"context"
	"time"
)

// Pacer spaces frames so a source never exceeds its configured rate.
type Pacer struct {
	// interval is the minimum time between frames.
	interval time.Duration
	// next is the earliest time the next frame may be delivered.
	next time.Time
}

// NewPacer creates a pacer for fps frames per second. A non-positive fps disables pacing.
func NewPacer(fps float64) *Pacer {
	p := new(Pacer)
	if fps > 0 {
		p.interval = time.Duration(float64(time.Second) / fps)
	}

	return p
}

// Wait blocks until the next frame slot or until ctx ends.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.interval == 0 {
		return ctx.Err()
	}

	now := time.Now()
	if p.next.After(now) {
		timer := time.NewTimer(p.next.Sub(now))
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		now = p.next
	}

	p.next = now.Add(p.interval)

	return nil
}
