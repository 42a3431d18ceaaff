// Package logger wraps zap to provide:
//   - a global sugared logger with a console encoder and a swappable output,
//   - context helpers (FromContext/WithName/WithKV),
//   - level parsing and per-logger level overrides,
//   - ctx-first convenience functions (InfoKV, ErrorKV, etc.).
//
// The sentinel's lanes receive a context and extract the logger from it, so every
// line carries the component name that produced it.
package logger
