// Package sentinel assembles and runs the green-sentinel process: frame source,
// detector, alarm pipeline, alarm devices, control endpoint, metrics endpoint and
// the terminal surface.
package sentinel
