package alarm

import "fmt"

// State is the alarm status.
type State uint8

const (
	// Monitoring watches frames for the target color. It is the initial state.
	Monitoring State = iota
	// Triggering is an active alarm waiting for a human to silence it.
	Triggering
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Monitoring:
		return "monitoring"
	case Triggering:
		return "triggering"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ParseState maps a state name back to the state.
func ParseState(name string) (State, bool) {
	switch name {
	case "monitoring":
		return Monitoring, true
	case "triggering":
		return Triggering, true
	default:
		return Monitoring, false
	}
}

// Event is an input of the state machine.
type Event uint8

const (
	// AbsenceDetected is delivered for a frame without the target color.
	AbsenceDetected Event = iota
	// PresenceDetected is delivered for a frame with the target color.
	PresenceDetected
	// StopCommand is the user's request to silence the alarm.
	StopCommand
)

// String returns the event name.
func (e Event) String() string {
	switch e {
	case AbsenceDetected:
		return "absence_detected"
	case PresenceDetected:
		return "presence_detected"
	case StopCommand:
		return "stop_command"
	default:
		return fmt.Sprintf("event(%d)", uint8(e))
	}
}

// EventFromPresence maps a detector result to the matching event.
func EventFromPresence(present bool) Event {
	if present {
		return PresenceDetected
	}

	return AbsenceDetected
}

// Effect is a side effect requested by a transition.
type Effect uint8

const (
	// Trigger starts the alarm effects.
	Trigger Effect = iota + 1
	// Silence stops the alarm effects.
	Silence
	// Rearm resumes frame monitoring.
	Rearm
)

// String returns the effect name.
func (e Effect) String() string {
	switch e {
	case Trigger:
		return "TRIGGER"
	case Silence:
		return "SILENCE"
	case Rearm:
		return "REARM"
	default:
		return fmt.Sprintf("effect(%d)", uint8(e))
	}
}

// Transition computes the next state and the effects to run, in order.
// It is total: every state accepts every event.
func Transition(s State, e Event) (State, []Effect) {
	switch s {
	case Monitoring:
		if e == AbsenceDetected {
			return Triggering, []Effect{Trigger}
		}

		// Presence keeps watching; a stop while idle is a no-op.
		return Monitoring, nil
	case Triggering:
		if e == StopCommand {
			return Monitoring, []Effect{Silence, Rearm}
		}

		// Only a human silences the alarm, the color coming back does not.
		return Triggering, nil
	default:
		// Unknown states never escape the machine; fall back to the safe side.
		return Monitoring, nil
	}
}
