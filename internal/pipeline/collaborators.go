package pipeline

import (
	"context"

	"github.com/oshokin/green-sentinel/internal/domain/frame"
	"github.com/oshokin/green-sentinel/internal/effector"
)

// Source yields decoded frames. Next must return promptly once ctx ends.
type Source interface {
	Next(ctx context.Context) (frame.Frame, error)
	Close() error
}

// Acquirer opens the frame source. It is called at start and on every re-arm.
type Acquirer interface {
	Acquire(ctx context.Context) (Source, error)
}

// AcquirerFunc adapts a function to Acquirer.
type AcquirerFunc func(ctx context.Context) (Source, error)

// Acquire calls f.
//
//nolint:ireturn // Mirrors the interface.
func (f AcquirerFunc) Acquire(ctx context.Context) (Source, error) {
	return f(ctx)
}

// Gate blocks until frame capture is authorized. An error means authorization was refused.
type Gate interface {
	Await(ctx context.Context) error
}

// GateFunc adapts a function to Gate.
type GateFunc func(ctx context.Context) error

// Await calls f.
func (f GateFunc) Await(ctx context.Context) error {
	return f(ctx)
}

// AlwaysAuthorized is a gate that never blocks.
//
//nolint:gochecknoglobals // Stateless gate.
var AlwaysAuthorized = GateFunc(func(context.Context) error { return nil })

// Surface is the presentation layer. Visible preview means the stop control is hidden
// and the other way round.
type Surface interface {
	SetPreviewVisible(visible bool)
}

// Effects starts and stops the alarm devices.
type Effects interface {
	Activate(ctx context.Context) *effector.Session
	Deactivate(ctx context.Context, s *effector.Session)
}

// nopSurface is used when no surface is configured.
type nopSurface struct{}

func (nopSurface) SetPreviewVisible(bool) {}
