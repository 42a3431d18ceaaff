// Package source holds the frame sources the sentinel can watch.
//
// Sub-packages provide an images directory replay (images) and a camera
// capture (camera). Both expose Open to acquire the device and CheckAccess to
// probe permission before the pipeline starts.
package source
