package alarm

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTransition_Table checks every (state, event) pair against the decision table.
func TestTransition_Table(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from    State
		event   Event
		to      State
		effects []Effect
	}{
		{Monitoring, AbsenceDetected, Triggering, []Effect{Trigger}},
		{Monitoring, PresenceDetected, Monitoring, nil},
		{Monitoring, StopCommand, Monitoring, nil},
		{Triggering, AbsenceDetected, Triggering, nil},
		{Triggering, PresenceDetected, Triggering, nil},
		{Triggering, StopCommand, Monitoring, []Effect{Silence, Rearm}},
	}

	for _, tc := range cases {
		to, effects := Transition(tc.from, tc.event)
		require.Equal(t, tc.to, to, "%s + %s", tc.from, tc.event)
		require.Equal(t, tc.effects, effects, "%s + %s", tc.from, tc.event)
	}
}

// TestTransition_UnknownStateFallsBack ensures out-of-range states resolve to Monitoring.
func TestTransition_UnknownStateFallsBack(t *testing.T) {
	t.Parallel()

	for _, e := range []Event{AbsenceDetected, PresenceDetected, StopCommand} {
		to, effects := Transition(State(42), e)
		require.Equal(t, Monitoring, to)
		require.Empty(t, effects)
	}
}

// TestMachine_FirstAbsenceTriggers verifies the alarm fires on the very first absent frame.
func TestMachine_FirstAbsenceTriggers(t *testing.T) {
	t.Parallel()

	m := NewMachine()

	require.Equal(t, Monitoring, m.Apply(PresenceDetected).To)
	require.Equal(t, Monitoring, m.Apply(PresenceDetected).To)

	step := m.Apply(AbsenceDetected)
	require.True(t, step.Changed())
	require.Equal(t, Triggering, step.To)
	require.Equal(t, []Effect{Trigger}, step.Effects)
	require.Equal(t, Triggering, m.State())
}

// TestMachine_StopWhileMonitoringIsNoop checks idempotence of StopCommand when idle.
func TestMachine_StopWhileMonitoringIsNoop(t *testing.T) {
	t.Parallel()

	m := NewMachine()

	for range 3 {
		step := m.Apply(StopCommand)
		require.False(t, step.Changed())
		require.Empty(t, step.Effects)
	}

	require.Equal(t, Monitoring, m.State())
}

// TestMachine_NoSelfSilencing replays random presence/absence interleavings after a trigger.
func TestMachine_NoSelfSilencing(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2)) //nolint:gosec // Deterministic test input.

	for range 200 {
		m := NewMachine()
		m.Apply(AbsenceDetected)

		for range rng.IntN(50) {
			step := m.Apply(EventFromPresence(rng.IntN(2) == 0))
			require.Equal(t, Triggering, step.To)
			require.Empty(t, step.Effects)
		}

		step := m.Apply(StopCommand)
		require.Equal(t, Monitoring, step.To)
		require.Equal(t, []Effect{Silence, Rearm}, step.Effects)
	}
}

// TestMachine_TriggerCountMatchesTransitions checks that TRIGGER fires once per Monitoring->Triggering edge.
func TestMachine_TriggerCountMatchesTransitions(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 9)) //nolint:gosec // Deterministic test input.
	events := []Event{AbsenceDetected, PresenceDetected, StopCommand}

	m := NewMachine()
	triggers, silences, edges := 0, 0, 0

	for range 5000 {
		step := m.Apply(events[rng.IntN(len(events))])

		if step.From == Monitoring && step.To == Triggering {
			edges++
		}

		for _, eff := range step.Effects {
			switch eff {
			case Trigger:
				triggers++
			case Silence:
				silences++
			case Rearm:
			}
		}
	}

	require.Equal(t, edges, triggers)
	// Every silence follows a trigger, at most one alarm is open at the end.
	require.LessOrEqual(t, triggers-silences, 1)
	require.GreaterOrEqual(t, triggers-silences, 0)
}

// TestActor checks Clone and String on populated and nil actors.
func TestActor(t *testing.T) {
	t.Parallel()

	require.Nil(t, (*Actor)(nil).Clone())
	require.Equal(t, "unknown", (*Actor)(nil).String())

	a := &Actor{Hostname: "guard-post", Username: "night-shift"}
	b := a.Clone()

	require.Equal(t, a, b)
	require.NotSame(t, a, b)
	require.Equal(t, "night-shift@guard-post", a.String())
}

// TestStrings covers the textual names used in logs and the control API.
func TestStrings(t *testing.T) {
	t.Parallel()

	require.Equal(t, "monitoring", Monitoring.String())
	require.Equal(t, "triggering", Triggering.String())
	require.Equal(t, "stop_command", StopCommand.String())
	require.Equal(t, "TRIGGER", Trigger.String())
	require.Equal(t, "SILENCE", Silence.String())
	require.Equal(t, "REARM", Rearm.String())
	require.Equal(t, "state(9)", State(9).String())
}

// TestParseState checks that state names round-trip.
func TestParseState(t *testing.T) {
	t.Parallel()

	for _, s := range []State{Monitoring, Triggering} {
		parsed, ok := ParseState(s.String())
		require.True(t, ok)
		require.Equal(t, s, parsed)
	}

	_, ok := ParseState("sleeping")
	require.False(t, ok)
}
