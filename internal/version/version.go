package version

import (
	"errors"
	"fmt"

	gover "github.com/hashicorp/go-version"
)

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.3.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// ErrUnknownVersion is returned when the peer did not report a version.
var ErrUnknownVersion = errors.New("peer version unknown")

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	return fmt.Sprintf("green-sentinel version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}

// Compatible reports whether a peer running version remote speaks the same control
// API as this build: equal major versions, and equal minor versions while major is 0.
func Compatible(remote string) (bool, error) {
	if remote == "" {
		return false, ErrUnknownVersion
	}

	local, err := gover.NewVersion(Version)
	if err != nil {
		return false, fmt.Errorf("parse local version %q: %w", Version, err)
	}

	peer, err := gover.NewVersion(remote)
	if err != nil {
		return false, fmt.Errorf("parse peer version %q: %w", remote, err)
	}

	l, p := local.Segments(), peer.Segments()
	if l[0] != p[0] {
		return false, nil
	}

	if l[0] == 0 && l[1] != p[1] {
		return false, nil
	}

	return true, nil
}
