// Package camera captures frames from a video device through OpenCV.
//
// The capture needs cgo and an OpenCV installation, so it is compiled only with
// the gocv build tag. Without it Open and CheckAccess return ErrUnsupported.
package camera
