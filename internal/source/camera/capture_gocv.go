//go:build gocv

package camera

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/oshokin/green-sentinel/internal/domain/frame"
	"github.com/oshokin/green-sentinel/internal/logger"
	"github.com/oshokin/green-sentinel/internal/source"
)

// Source is an open camera. It is not safe for concurrent use.
type Source struct {
	// capture is the OpenCV device handle.
	capture *gocv.VideoCapture
	// pacer spaces deliveries.
	pacer *source.Pacer
	// closed makes Next fail.
	closed bool
}

// CheckAccess opens and immediately releases the device.
func CheckAccess(ctx context.Context, device int) error {
	s, err := Open(ctx, Options{Device: device})
	if err != nil {
		return err
	}

	return s.Close()
}

// Open acquires the camera.
func Open(ctx context.Context, opts Options) (*Source, error) {
	capture, err := gocv.OpenVideoCapture(opts.Device)
	if err != nil {
		return nil, fmt.Errorf("%w: camera %d: %w", ErrPermissionDenied, opts.Device, err)
	}

	if !capture.IsOpened() {
		_ = capture.Close()

		return nil, fmt.Errorf("%w: camera %d", ErrPermissionDenied, opts.Device)
	}

	if opts.FPS > 0 {
		capture.Set(gocv.VideoCaptureFPS, opts.FPS)
	}

	logger.DebugKV(ctx, "Camera opened", "device", opts.Device, "fps", opts.FPS)

	return &Source{
		capture: capture,
		pacer:   source.NewPacer(opts.FPS),
	}, nil
}

// Next reads the next frame. The returned frame owns a native matrix until released.
//
//nolint:ireturn // Frames are consumed through the frame.Frame interface.
func (s *Source) Next(ctx context.Context) (frame.Frame, error) {
	if s.closed {
		return nil, ErrClosed
	}

	if err := s.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	mat := gocv.NewMat()
	if ok := s.capture.Read(&mat); !ok || mat.Empty() {
		_ = mat.Close()

		return nil, ErrReadFailed
	}

	return &matFrame{mat: mat}, nil
}

// Close releases the device.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	if err := s.capture.Close(); err != nil {
		return fmt.Errorf("close camera: %w", err)
	}

	return nil
}

// matFrame exposes a BGR matrix as a frame.
type matFrame struct {
	mat gocv.Mat
}

func (f *matFrame) Width() int  { return f.mat.Cols() }
func (f *matFrame) Height() int { return f.mat.Rows() }

func (f *matFrame) RGB(x, y int) (r, g, b uint8) {
	v := f.mat.GetVecbAt(y, x)

	return v[2], v[1], v[0]
}

// Release frees the native matrix.
func (f *matFrame) Release() {
	_ = f.mat.Close()
}
