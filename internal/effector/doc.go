// Package effector owns the alarm's sound and vibration.
//
// Activate always yields a Session: when the alarm sound cannot start, the ring
// fallback takes over. Deactivate releases sound and vibration independently and
// only logs failures.
package effector
