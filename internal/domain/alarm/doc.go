// Package alarm contains the alarm state machine.
//
// Transition is the whole decision table: Monitoring turns into Triggering on the
// first absent frame, and only a StopCommand brings it back. Machine owns the single
// State value and is meant to be driven from one goroutine.
package alarm
