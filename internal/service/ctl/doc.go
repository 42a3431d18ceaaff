// Package ctl implements sentinel-ctl, the remote control of a running sentinel.
//
// stop silences an active alarm on behalf of the current user, optionally waiting
// until the sentinel confirms it is monitoring again. status prints the pipeline
// status as text or as the raw JSON document.
package ctl
