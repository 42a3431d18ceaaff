package alarm

// Step records one applied event.
type Step struct {
	// From is the state before the event.
	From State
	// Event is the applied input.
	Event Event
	// To is the state after the event.
	To State
	// Effects lists the side effects to run, in order.
	Effects []Effect
}

// Changed reports whether the step moved the machine to another state.
func (s Step) Changed() bool {
	return s.From != s.To
}

// Machine owns the alarm state. It is not safe for concurrent use.
type Machine struct {
	// state is the current alarm status.
	state State
}

// NewMachine returns a machine in the Monitoring state.
func NewMachine() *Machine {
	return &Machine{state: Monitoring}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Apply feeds e to the machine and returns what happened.
func (m *Machine) Apply(e Event) Step {
	next, effects := Transition(m.state, e)
	step := Step{
		From:    m.state,
		Event:   e,
		To:      next,
		Effects: effects,
	}

	m.state = next

	return step
}
