package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oshokin/green-sentinel/internal/domain/alarm"
	"github.com/oshokin/green-sentinel/internal/domain/detection"
	"github.com/oshokin/green-sentinel/internal/domain/frame"
	"github.com/oshokin/green-sentinel/internal/effector"
	"github.com/oshokin/green-sentinel/internal/logger"
	"github.com/oshokin/green-sentinel/internal/metrics"
)

var (
	// ErrNotAuthorized is returned by Run when the gate refuses frame capture.
	ErrNotAuthorized = errors.New("frame capture not authorized")
	// ErrSourceUnavailable is returned by Run when the frame source cannot be
	// acquired or fails while capturing.
	ErrSourceUnavailable = errors.New("frame source unavailable")
	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("pipeline already running")
)

// PresenceResult is the detector verdict for one frame.
type PresenceResult struct {
	// Present is true when the target color was found.
	Present bool
	// Generation is the capture run the frame belongs to.
	Generation uint64
	// Seq is the position of the frame within its capture run.
	Seq uint64
}

// Options wires the coordinator collaborators.
type Options struct {
	// Detector analyzes frames. Required.
	Detector *detection.Detector
	// Effects raises and releases the alarm. Required.
	Effects Effects
	// Acquirer opens the frame source. Required.
	Acquirer Acquirer
	// Gate authorizes capture; nil means AlwaysAuthorized.
	Gate Gate
	// Surface follows the alarm state; may be nil.
	Surface Surface
	// Metrics records pipeline activity; may be nil.
	Metrics *metrics.Metrics
	// OnStep is called on the state lane after every applied event; may be nil.
	OnStep func(step alarm.Step)
}

// Coordinator runs the frame-to-alarm pipeline.
type Coordinator struct {
	// opts holds the collaborators.
	opts Options
	// stops carries stop commands into the state lane.
	stops chan *alarm.Actor
	// results carries detector verdicts into the state lane.
	results chan PresenceResult
	// failures carries capture run failures into the state lane, after the run's last result.
	failures chan captureFailure
	// status is the latest snapshot published by the state lane.
	status atomic.Pointer[Status]
	// analyzed counts frames run through the detector.
	analyzed atomic.Uint64
	// box is the mailbox of the current run.
	box atomic.Pointer[mailbox]
	// running guards against concurrent Run calls.
	running atomic.Bool
}

// New creates a coordinator. It panics when a required collaborator is missing.
func New(opts Options) *Coordinator {
	if opts.Detector == nil || opts.Effects == nil || opts.Acquirer == nil {
		panic("pipeline: detector, effects and acquirer are required")
	}

	if opts.Gate == nil {
		opts.Gate = AlwaysAuthorized
	}

	if opts.Surface == nil {
		opts.Surface = nopSurface{}
	}

	c := &Coordinator{
		opts:     opts,
		stops:    make(chan *alarm.Actor, 1),
		results:  make(chan PresenceResult),
		failures: make(chan captureFailure),
	}

	c.status.Store(&Status{
		State:     alarm.Monitoring,
		StateName: alarm.Monitoring.String(),
	})

	return c
}

// Stop asks the pipeline to silence the alarm. It never blocks: a command that
// arrives while another one is still pending is merged into it.
func (c *Coordinator) Stop(actor *alarm.Actor) {
	select {
	case c.stops <- actor.Clone():
	default:
	}
}

// Status returns a snapshot of the pipeline. Safe for concurrent use.
func (c *Coordinator) Status() *Status {
	s := c.status.Load().clone()
	s.FramesAnalyzed = c.analyzed.Load()

	if mb := c.box.Load(); mb != nil {
		s.FramesDropped = mb.drops.Load()
	}

	return s
}

// Run waits for authorization, then processes frames until ctx ends (nil error)
// or a collaborator fails. Whatever the exit path, capture is stopped, the source
// is closed and a live alarm is released before Run returns.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	ctx = logger.WithName(ctx, "pipeline")

	logger.Info(ctx, "Waiting for capture authorization")

	if err := c.opts.Gate.Await(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}

		return fmt.Errorf("%w: %w", ErrNotAuthorized, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	mb := newMailbox(c.opts.Metrics)
	c.box.Store(mb)

	var processing sync.WaitGroup

	processing.Go(func() {
		c.process(runCtx, mb)
	})

	lane := &stateLane{
		coordinator: c,
		machine:     alarm.NewMachine(),
		mailbox:     mb,
	}

	defer func() {
		lane.shutdown(context.WithoutCancel(ctx))
		cancel()
		mb.close()
		processing.Wait()
		logger.Info(ctx, "Pipeline stopped")
	}()

	if err := lane.startCapture(runCtx); err != nil {
		return err
	}

	c.opts.Surface.SetPreviewVisible(true)

	return lane.loop(runCtx)
}

// process is the processing lane: one frame at a time, latest first.
// The failure ending a capture run is forwarded after the run's last verdict.
func (c *Coordinator) process(ctx context.Context, mb *mailbox) {
	ctx = logger.WithName(ctx, "detector")

	for {
		env, ok := mb.take()
		if !ok {
			return
		}

		if env.err != nil {
			select {
			case c.failures <- captureFailure{generation: env.generation, err: env.err}:
			case <-ctx.Done():
				return
			}

			continue
		}

		started := time.Now()
		present := c.opts.Detector.Detect(env.frame)
		took := time.Since(started)

		frame.Release(env.frame)
		c.analyzed.Add(1)
		c.opts.Metrics.FrameAnalyzed(present, took)

		logger.DebugKV(ctx, "Frame analyzed",
			"generation", env.generation, "seq", env.seq, "present", present, "took", took.String())

		select {
		case c.results <- PresenceResult{Present: present, Generation: env.generation, Seq: env.seq}:
		case <-ctx.Done():
			return
		}
	}
}

// captureFailure reports a source error from a capture goroutine.
type captureFailure struct {
	generation uint64
	err        error
}

// capture is one frame source acquisition.
type capture struct {
	source Source
	cancel context.CancelFunc
	done   chan struct{}
}

// stateLane holds everything owned by the goroutine running Run.
type stateLane struct {
	coordinator *Coordinator
	machine     *alarm.Machine
	mailbox     *mailbox
	// session is the live alarm; non-nil exactly while Triggering.
	session *effector.Session
	// capture is the running acquisition; nil while the alarm is up.
	capture *capture
	// generation identifies the current acquisition. Results from older ones are ignored.
	generation uint64
	// lastStopBy and lastStopAt describe the last silence.
	lastStopBy *alarm.Actor
	lastStopAt time.Time
}

// loop is the state lane main loop.
func (l *stateLane) loop(ctx context.Context) error {
	c := l.coordinator

	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-c.results:
			l.onResult(ctx, res)
		case actor := <-c.stops:
			if err := l.apply(ctx, alarm.StopCommand, actor); err != nil {
				return err
			}
		case f := <-c.failures:
			if f.generation != l.generation || l.capture == nil {
				continue
			}

			return fmt.Errorf("%w: %w", ErrSourceUnavailable, f.err)
		}
	}
}

// onResult feeds a detector verdict to the machine unless it is stale.
func (l *stateLane) onResult(ctx context.Context, res PresenceResult) {
	if l.capture == nil || res.Generation != l.generation {
		logger.DebugKV(ctx, "Ignoring stale frame result", "generation", res.Generation, "seq", res.Seq)
		return
	}

	// Frame results never fail to apply; only the re-arm path can.
	_ = l.apply(ctx, alarm.EventFromPresence(res.Present), nil)
}

// apply runs one event through the machine and executes its effects in order.
func (l *stateLane) apply(ctx context.Context, event alarm.Event, actor *alarm.Actor) error {
	c := l.coordinator
	step := l.machine.Apply(event)

	var err error

	for _, effect := range step.Effects {
		switch effect {
		case alarm.Trigger:
			l.trigger(ctx)
		case alarm.Silence:
			l.silence(ctx, actor)
		case alarm.Rearm:
			err = l.rearm(ctx)
		}

		if err != nil {
			break
		}
	}

	l.publish()

	if step.Changed() {
		logger.InfoKV(ctx, "Alarm state changed",
			"from", step.From.String(), "to", step.To.String(), "event", step.Event.String(), "actor", actor.String())
	} else if event == alarm.StopCommand {
		logger.InfoKV(ctx, "Stop command ignored", "state", step.To.String(), "actor", actor.String())
	}

	if c.opts.OnStep != nil {
		c.opts.OnStep(step)
	}

	return err
}

// trigger raises the alarm, swaps the preview for the stop control and releases the camera.
func (l *stateLane) trigger(ctx context.Context) {
	c := l.coordinator

	l.session = c.opts.Effects.Activate(ctx)
	c.opts.Surface.SetPreviewVisible(false)
	l.stopCapture(ctx)
}

// silence releases the alarm devices.
func (l *stateLane) silence(ctx context.Context, actor *alarm.Actor) {
	c := l.coordinator

	c.opts.Effects.Deactivate(ctx, l.session)
	c.opts.Metrics.AlarmSilenced()

	l.session = nil
	l.lastStopBy = actor.Clone()
	l.lastStopAt = time.Now()
}

// rearm shows the preview again and re-acquires the frame source.
func (l *stateLane) rearm(ctx context.Context) error {
	l.coordinator.opts.Surface.SetPreviewVisible(true)

	return l.startCapture(ctx)
}

// startCapture acquires the source and starts a capture goroutine for a new generation.
func (l *stateLane) startCapture(ctx context.Context) error {
	c := l.coordinator

	source, err := c.opts.Acquirer.Acquire(ctx)
	c.opts.Metrics.SourceAcquired(err)

	if err != nil {
		logger.ErrorKV(ctx, "Failed to acquire frame source", "error", err)
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	l.generation++

	captureCtx, cancel := context.WithCancel(ctx)
	cp := &capture{
		source: source,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go l.captureFrames(captureCtx, cp, l.generation)

	l.capture = cp
	l.publish()

	logger.InfoKV(ctx, "Frame source acquired", "generation", l.generation)

	return nil
}

// captureFrames pulls frames until ctx ends or the source fails.
// It runs on its own goroutine and only touches the mailbox.
func (l *stateLane) captureFrames(ctx context.Context, cp *capture, generation uint64) {
	defer close(cp.done)

	m := l.coordinator.opts.Metrics

	for seq := uint64(1); ; seq++ {
		f, err := cp.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			l.mailbox.finish(generation, err)

			return
		}

		if ctx.Err() != nil {
			frame.Release(f)
			return
		}

		m.FrameCaptured()
		l.mailbox.publish(envelope{frame: f, generation: generation, seq: seq})
	}
}

// stopCapture ends the running acquisition and closes its source.
func (l *stateLane) stopCapture(ctx context.Context) {
	cp := l.capture
	if cp == nil {
		return
	}

	l.capture = nil

	cp.cancel()
	<-cp.done

	if err := cp.source.Close(); err != nil {
		logger.WarnKV(ctx, "Failed to close frame source", "error", err)
	}

	l.mailbox.discard()
	logger.InfoKV(ctx, "Frame source released", "generation", l.generation)
}

// shutdown releases everything the lane owns.
func (l *stateLane) shutdown(ctx context.Context) {
	l.stopCapture(ctx)

	if l.session != nil {
		logger.Info(ctx, "Releasing active alarm on shutdown")
		l.coordinator.opts.Effects.Deactivate(ctx, l.session)
		l.session = nil
	}
}

// publish stores a fresh status snapshot for readers.
func (l *stateLane) publish() {
	state := l.machine.State()
	s := &Status{
		State:          state,
		StateName:      state.String(),
		Generation:     l.generation,
		LastSilencedAt: l.lastStopAt,
		LastSilencedBy: l.lastStopBy.Clone(),
	}

	if l.session != nil {
		s.SessionID = l.session.ID.String()
		s.TriggeredAt = l.session.StartedAt
		s.Fallback = l.session.Fallback
	}

	l.coordinator.status.Store(s)
}
