package camera

import "errors"

var (
	// ErrUnsupported is returned when the binary was built without camera support.
	ErrUnsupported = errors.New("camera support not compiled in (build with -tags gocv)")
	// ErrPermissionDenied is returned when the device cannot be opened.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrReadFailed is returned when the device stops delivering frames.
	ErrReadFailed = errors.New("camera read failed")
	// ErrClosed is returned by Next after Close.
	ErrClosed = errors.New("camera closed")
)

// Options configures the capture.
type Options struct {
	// Device is the camera index.
	Device int
	// FPS caps the delivery rate.
	FPS float64
}
