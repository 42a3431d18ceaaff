// Package frame defines the image abstraction the sentinel analyzes and the
// sampler that reduces a frame to a fixed grid of probe coordinates.
package frame
