// Package common holds helpers shared by the sentinel and its control client.
//
// It provides a gRPC client wrapper for the control API with call timeouts and
// a helper that identifies the current system actor (hostname/username).
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
