// Package version exposes build metadata for the project.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags and default to sensible values for local builds.
// Short and Full render the version for CLI output and logs; Compatible tells
// whether a sentinel and a control client can talk to each other.
package version
