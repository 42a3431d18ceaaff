// Package integration runs the sentinel end to end: images source, pipeline,
// alarm devices, control endpoint and the control client.
package integration
