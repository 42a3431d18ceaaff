// Package metrics exposes Prometheus collectors for the frame pipeline and the
// alarm, plus a small HTTP server serving them next to a health endpoint.
package metrics
