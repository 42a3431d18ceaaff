//go:build !gocv

package camera

import (
	"context"

	"github.com/oshokin/green-sentinel/internal/domain/frame"
)

// Source is unavailable without the gocv build tag.
type Source struct{}

// CheckAccess always fails with ErrUnsupported.
func CheckAccess(context.Context, int) error {
	return ErrUnsupported
}

// Open always fails with ErrUnsupported.
func Open(context.Context, Options) (*Source, error) {
	return nil, ErrUnsupported
}

// Next always fails with ErrUnsupported.
//
//nolint:ireturn // Mirrors the gocv implementation.
func (*Source) Next(context.Context) (frame.Frame, error) {
	return nil, ErrUnsupported
}

// Close does nothing.
func (*Source) Close() error {
	return nil
}
