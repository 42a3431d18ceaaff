package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/green-sentinel/internal/domain/alarm"
	"github.com/oshokin/green-sentinel/internal/domain/detection"
	"github.com/oshokin/green-sentinel/internal/domain/frame"
	"github.com/oshokin/green-sentinel/internal/effector"
	"github.com/oshokin/green-sentinel/internal/metrics"
)

const waitTimeout = 5 * time.Second

var (
	errCameraBusy = errors.New("camera busy")
	errDenied     = errors.New("permission denied")
)

// solidFrame is a single-color frame that can block its first probe and counts releases.
type solidFrame struct {
	r, g, b uint8
	// probes counts RGB calls.
	probes atomic.Int64
	// entered is closed on the first probe when block is set.
	entered chan struct{}
	// block holds the first probe until closed.
	block chan struct{}
	// released is closed by Release.
	released  chan struct{}
	closeOnce sync.Once
}

func newFrame(r, g, b uint8) *solidFrame {
	return &solidFrame{r: r, g: g, b: b, released: make(chan struct{})}
}

func greenFrame() *solidFrame { return newFrame(0, 255, 0) }

func darkFrame() *solidFrame { return newFrame(10, 10, 10) }

func (f *solidFrame) Width() int  { return 40 }
func (f *solidFrame) Height() int { return 30 }

func (f *solidFrame) RGB(_, _ int) (r, g, b uint8) {
	if f.probes.Add(1) == 1 && f.block != nil {
		close(f.entered)
		<-f.block
	}

	return f.r, f.g, f.b
}

func (f *solidFrame) Release() {
	f.closeOnce.Do(func() { close(f.released) })
}

// fakeSource reads frames fed by the test.
type fakeSource struct {
	feed   <-chan frame.Frame
	fail   <-chan error
	closed atomic.Bool
}

//nolint:ireturn // Implements Source.
func (s *fakeSource) Next(ctx context.Context) (frame.Frame, error) {
	select {
	case f := <-s.feed:
		return f, nil
	case err := <-s.fail:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *fakeSource) Close() error {
	s.closed.Store(true)

	return nil
}

// fakeAcquirer hands out sources sharing one feed. errs[i] fails the i-th acquisition.
type fakeAcquirer struct {
	mu       sync.Mutex
	feed     chan frame.Frame
	fail     chan error
	errs     map[int]error
	sources  []*fakeSource
	acquired chan struct{}
}

func newAcquirer() *fakeAcquirer {
	return &fakeAcquirer{
		feed:     make(chan frame.Frame),
		fail:     make(chan error, 1),
		errs:     make(map[int]error),
		acquired: make(chan struct{}, 8),
	}
}

//nolint:ireturn // Implements Acquirer.
func (a *fakeAcquirer) Acquire(context.Context) (Source, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.errs[len(a.sources)]; err != nil {
		a.sources = append(a.sources, nil)
		return nil, err
	}

	s := &fakeSource{feed: a.feed, fail: a.fail}
	a.sources = append(a.sources, s)
	a.acquired <- struct{}{}

	return s, nil
}

func (a *fakeAcquirer) source(i int) *fakeSource {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.sources[i]
}

func (a *fakeAcquirer) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.sources)
}

// fakeEffects records sessions.
type fakeEffects struct {
	mu          sync.Mutex
	activated   []*effector.Session
	deactivated []*effector.Session
}

func (e *fakeEffects) Activate(context.Context) *effector.Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := &effector.Session{ID: uuid.New(), StartedAt: time.Now()}
	e.activated = append(e.activated, s)

	return s
}

func (e *fakeEffects) Deactivate(_ context.Context, s *effector.Session) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.deactivated = append(e.deactivated, s)
}

func (e *fakeEffects) counts() (activated, deactivated int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.activated), len(e.deactivated)
}

// fakeSurface records visibility changes.
type fakeSurface struct {
	mu      sync.Mutex
	history []bool
}

func (s *fakeSurface) SetPreviewVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, visible)
}

func (s *fakeSurface) snapshot() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]bool(nil), s.history...)
}

// harness runs a coordinator against fakes.
type harness struct {
	t        *testing.T
	acquirer *fakeAcquirer
	effects  *fakeEffects
	surface  *fakeSurface
	steps    chan alarm.Step
	c        *Coordinator
	cancel   context.CancelFunc
	done     chan error
}

func newHarness(t *testing.T, gate Gate, setup func(*fakeAcquirer)) *harness {
	t.Helper()

	h := &harness{
		t:        t,
		acquirer: newAcquirer(),
		effects:  new(fakeEffects),
		surface:  new(fakeSurface),
		steps:    make(chan alarm.Step, 16),
		done:     make(chan error, 1),
	}

	if setup != nil {
		setup(h.acquirer)
	}

	h.c = New(Options{
		Detector: detection.NewDetector(detection.Green, 10),
		Effects:  h.effects,
		Acquirer: h.acquirer,
		Gate:     gate,
		Surface:  h.surface,
		Metrics:  metrics.New(),
		OnStep:   func(step alarm.Step) { h.steps <- step },
	})

	ctx, cancel := context.WithCancel(t.Context())
	h.cancel = cancel

	go func() { h.done <- h.c.Run(ctx) }()

	t.Cleanup(cancel)

	return h
}

func (h *harness) waitAcquired() {
	h.t.Helper()

	select {
	case <-h.acquirer.acquired:
	case <-time.After(waitTimeout):
		h.t.Fatal("frame source was not acquired")
	}
}

func (h *harness) feed(f frame.Frame) {
	h.t.Helper()

	select {
	case h.acquirer.feed <- f:
	case <-time.After(waitTimeout):
		h.t.Fatal("capture lane did not pull a frame")
	}
}

// failSource makes the running source return err from its next read.
func (h *harness) failSource(err error) {
	h.t.Helper()

	select {
	case h.acquirer.fail <- err:
	case <-time.After(waitTimeout):
		h.t.Fatal("capture lane did not take the failure")
	}
}

func (h *harness) nextStep() alarm.Step {
	h.t.Helper()

	select {
	case step := <-h.steps:
		return step
	case <-time.After(waitTimeout):
		h.t.Fatal("no state step")
	}

	return alarm.Step{}
}

func (h *harness) wait() error {
	h.t.Helper()

	select {
	case err := <-h.done:
		return err
	case <-time.After(waitTimeout):
		h.t.Fatal("Run did not return")
	}

	return nil
}

// trigger drives the pipeline from Monitoring to Triggering.
func (h *harness) trigger() {
	h.t.Helper()

	h.feed(darkFrame())
	step := h.nextStep()
	require.Equal(h.t, alarm.Triggering, step.To)
}

// TestRun_GreenThenAbsent checks that only the frame without green raises the alarm
// and that the frame source is released when it does.
func TestRun_GreenThenAbsent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	h.waitAcquired()

	expected := []struct {
		frame   *solidFrame
		to      alarm.State
		effects []alarm.Effect
	}{
		{greenFrame(), alarm.Monitoring, nil},
		{greenFrame(), alarm.Monitoring, nil},
		{darkFrame(), alarm.Triggering, []alarm.Effect{alarm.Trigger}},
	}

	for _, e := range expected {
		h.feed(e.frame)

		step := h.nextStep()
		require.Equal(t, e.to, step.To)
		require.Equal(t, e.effects, step.Effects)

		<-e.frame.released
	}

	activated, deactivated := h.effects.counts()
	require.Equal(t, 1, activated)
	require.Zero(t, deactivated)
	require.True(t, h.acquirer.source(0).closed.Load())
	require.Equal(t, []bool{true, false}, h.surface.snapshot())

	status := h.c.Status()
	require.Equal(t, alarm.Triggering, status.State)
	require.NotEmpty(t, status.SessionID)
	require.Equal(t, uint64(3), status.FramesAnalyzed)

	h.cancel()
	require.NoError(t, h.wait())
}

// TestRun_StopWhileTriggering checks silence then re-arm, with devices released once.
func TestRun_StopWhileTriggering(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	h.waitAcquired()
	h.trigger()

	actor := &alarm.Actor{Hostname: "desk", Username: "guard"}
	h.c.Stop(actor)

	step := h.nextStep()
	require.Equal(t, alarm.Triggering, step.From)
	require.Equal(t, alarm.Monitoring, step.To)
	require.Equal(t, []alarm.Effect{alarm.Silence, alarm.Rearm}, step.Effects)

	h.waitAcquired()
	require.Equal(t, 2, h.acquirer.calls())

	activated, deactivated := h.effects.counts()
	require.Equal(t, 1, activated)
	require.Equal(t, 1, deactivated)
	require.Equal(t, []bool{true, false, true}, h.surface.snapshot())

	status := h.c.Status()
	require.Equal(t, alarm.Monitoring, status.State)
	require.Empty(t, status.SessionID)
	require.Equal(t, actor, status.LastSilencedBy)
	require.Equal(t, uint64(2), status.Generation)

	// The re-armed pipeline analyzes frames from the new acquisition.
	h.feed(greenFrame())
	require.Equal(t, alarm.Monitoring, h.nextStep().To)

	h.cancel()
	require.NoError(t, h.wait())

	_, deactivated = h.effects.counts()
	require.Equal(t, 1, deactivated)
}

// TestRun_StopWhileMonitoring checks that a stop command with no alarm changes nothing.
func TestRun_StopWhileMonitoring(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	h.waitAcquired()

	h.c.Stop(nil)

	step := h.nextStep()
	require.False(t, step.Changed())
	require.Empty(t, step.Effects)
	require.Equal(t, 1, h.acquirer.calls())

	activated, deactivated := h.effects.counts()
	require.Zero(t, activated)
	require.Zero(t, deactivated)

	h.cancel()
	require.NoError(t, h.wait())
}

// TestRun_LatestFrameWins checks that a frame arriving while another is being
// analyzed replaces any older pending frame, which is released unprobed.
func TestRun_LatestFrameWins(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	h.waitAcquired()

	first := greenFrame()
	first.block = make(chan struct{})
	first.entered = make(chan struct{})

	h.feed(first)
	<-first.entered

	second, third := greenFrame(), greenFrame()

	h.feed(second)
	h.feed(third)

	select {
	case <-second.released:
	case <-time.After(waitTimeout):
		t.Fatal("replaced frame was not released")
	}

	close(first.block)

	require.Equal(t, alarm.Monitoring, h.nextStep().To)
	require.Equal(t, alarm.Monitoring, h.nextStep().To)

	<-third.released

	require.Zero(t, second.probes.Load())
	require.Positive(t, third.probes.Load())

	status := h.c.Status()
	require.Equal(t, uint64(2), status.FramesAnalyzed)
	require.Equal(t, uint64(1), status.FramesDropped)

	h.cancel()
	require.NoError(t, h.wait())
}

// TestRun_ShutdownReleasesAlarm checks that ending the run mid-alarm releases the devices.
func TestRun_ShutdownReleasesAlarm(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	h.waitAcquired()
	h.trigger()

	h.cancel()
	require.NoError(t, h.wait())

	activated, deactivated := h.effects.counts()
	require.Equal(t, 1, activated)
	require.Equal(t, 1, deactivated)
}

// TestRun_RearmFailure checks that a source that cannot be re-acquired ends the run
// after the alarm has been silenced.
func TestRun_RearmFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, func(a *fakeAcquirer) {
		a.errs[1] = errCameraBusy
	})
	h.waitAcquired()
	h.trigger()

	h.c.Stop(nil)

	err := h.wait()
	require.ErrorIs(t, err, ErrSourceUnavailable)
	require.ErrorIs(t, err, errCameraBusy)

	activated, deactivated := h.effects.counts()
	require.Equal(t, 1, activated)
	require.Equal(t, 1, deactivated)
}

// TestRun_InitialAcquireFailure checks that Run fails when the source cannot be opened.
func TestRun_InitialAcquireFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, func(a *fakeAcquirer) {
		a.errs[0] = errCameraBusy
	})

	require.ErrorIs(t, h.wait(), ErrSourceUnavailable)
}

// TestRun_CaptureFailure checks that a failing source ends the run.
func TestRun_CaptureFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	h.waitAcquired()

	h.acquirer.fail <- errCameraBusy

	err := h.wait()
	require.ErrorIs(t, err, ErrSourceUnavailable)
	require.True(t, h.acquirer.source(0).closed.Load())
}

// TestRun_LastFrameBeforeSourceEnds checks that the verdict for the final frame of a
// source is applied before the source failure that follows it.
func TestRun_LastFrameBeforeSourceEnds(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	h.waitAcquired()

	h.feed(greenFrame())
	require.Equal(t, alarm.Monitoring, h.nextStep().To)
	h.feed(greenFrame())
	require.Equal(t, alarm.Monitoring, h.nextStep().To)

	h.feed(darkFrame())
	h.failSource(errCameraBusy)

	step := h.nextStep()
	require.Equal(t, alarm.Triggering, step.To)
	require.Equal(t, []alarm.Effect{alarm.Trigger}, step.Effects)

	select {
	case err := <-h.done:
		t.Fatalf("Run returned while the alarm is up: %v", err)
	default:
	}

	require.Equal(t, alarm.Triggering, h.c.Status().State)

	h.cancel()
	require.NoError(t, h.wait())

	activated, deactivated := h.effects.counts()
	require.Equal(t, 1, activated)
	require.Equal(t, 1, deactivated)
}

// TestRun_RearmedSourceFails checks that a re-acquired source failing right away ends
// the run, even when the previous acquisition failed as the alarm went off.
func TestRun_RearmedSourceFails(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	h.waitAcquired()

	h.feed(darkFrame())
	h.failSource(errCameraBusy)
	require.Equal(t, alarm.Triggering, h.nextStep().To)

	h.c.Stop(nil)

	step := h.nextStep()
	require.Equal(t, alarm.Monitoring, step.To)
	require.Equal(t, []alarm.Effect{alarm.Silence, alarm.Rearm}, step.Effects)

	h.waitAcquired()
	h.failSource(errCameraBusy)

	err := h.wait()
	require.ErrorIs(t, err, ErrSourceUnavailable)
	require.ErrorIs(t, err, errCameraBusy)
	require.True(t, h.acquirer.source(1).closed.Load())

	activated, deactivated := h.effects.counts()
	require.Equal(t, 1, activated)
	require.Equal(t, 1, deactivated)
}

// TestRun_GateRefused checks that capture never starts without authorization.
func TestRun_GateRefused(t *testing.T) {
	t.Parallel()

	gate := GateFunc(func(context.Context) error { return errDenied })
	h := newHarness(t, gate, nil)

	err := h.wait()
	require.ErrorIs(t, err, ErrNotAuthorized)
	require.ErrorIs(t, err, errDenied)
	require.Zero(t, h.acquirer.calls())
}

// TestRun_AlreadyRunning checks that a coordinator runs once at a time.
func TestRun_AlreadyRunning(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	h.waitAcquired()

	require.ErrorIs(t, h.c.Run(t.Context()), ErrAlreadyRunning)

	h.cancel()
	require.NoError(t, h.wait())
}

// TestStop_Coalesces checks that Stop never blocks when commands pile up.
func TestStop_Coalesces(t *testing.T) {
	t.Parallel()

	c := New(Options{
		Detector: detection.NewDetector(detection.Green, 10),
		Effects:  new(fakeEffects),
		Acquirer: newAcquirer(),
	})

	for range 10 {
		c.Stop(nil)
	}

	require.Len(t, c.stops, 1)
	require.Equal(t, alarm.Monitoring, c.Status().State)
}

// TestMailbox_Close checks that a closed mailbox releases what it is given.
func TestMailbox_Close(t *testing.T) {
	t.Parallel()

	mb := newMailbox(nil)
	pending := greenFrame()
	mb.publish(envelope{frame: pending})
	mb.close()

	<-pending.released

	late := greenFrame()
	mb.publish(envelope{frame: late})
	<-late.released

	_, ok := mb.take()
	require.False(t, ok)
	require.Zero(t, mb.drops.Load())
}

// TestMailbox_EndFollowsPendingFrame checks that a run's end marker is handed out only
// after the frame published before it.
func TestMailbox_EndFollowsPendingFrame(t *testing.T) {
	t.Parallel()

	mb := newMailbox(nil)
	last := darkFrame()
	mb.publish(envelope{frame: last, generation: 1, seq: 3})
	mb.finish(1, errCameraBusy)

	env, ok := mb.take()
	require.True(t, ok)
	require.Same(t, last, env.frame)
	require.NoError(t, env.err)

	env, ok = mb.take()
	require.True(t, ok)
	require.Nil(t, env.frame)
	require.Equal(t, uint64(1), env.generation)
	require.ErrorIs(t, env.err, errCameraBusy)

	pending := greenFrame()
	mb.publish(envelope{frame: pending, generation: 2})
	mb.finish(2, errCameraBusy)
	mb.discard()

	<-pending.released
	require.Nil(t, mb.slot)
	require.Nil(t, mb.end)
}
