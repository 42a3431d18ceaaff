// Package pipeline wires frame capture, color detection, the alarm state machine
// and the alarm effects together.
//
// Three goroutines take part:
//   - capture: pulls frames from the source and publishes them into a single-slot
//     mailbox; a frame that was not picked up in time is replaced and released,
//   - processing: takes the latest frame, runs the detector and sends the
//     PresenceResult to the state lane,
//   - state (the goroutine calling Run): owns the alarm machine, the alarm session
//     and the presentation surface, and applies stop commands.
//
// The lanes only exchange values over channels; nothing is mutated across them.
package pipeline
