package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/oshokin/green-sentinel/internal/domain/frame"
	"github.com/oshokin/green-sentinel/internal/metrics"
)

// envelope is a frame plus the capture run and position it came from.
// An envelope with a non-nil err carries no frame and marks the end of its run.
type envelope struct {
	frame      frame.Frame
	generation uint64
	seq        uint64
	err        error
}

// mailbox is a single-slot buffer between capture and processing.
// Publishing overwrites an unconsumed frame, so the processing lane never lags
// more than one frame behind the source.
type mailbox struct {
	mu   sync.Mutex
	cond *sync.Cond
	// slot holds the pending frame; nil when consumed.
	slot *envelope
	// end holds the failure that ended the capture run. It is handed out after slot.
	end *envelope
	// closed makes take return false.
	closed bool
	// drops counts overwritten frames.
	drops atomic.Uint64
	// metrics records drops. May be nil.
	metrics *metrics.Metrics
}

func newMailbox(m *metrics.Metrics) *mailbox {
	mb := &mailbox{metrics: m}
	mb.cond = sync.NewCond(&mb.mu)

	return mb
}

// publish stores env, releasing the frame it replaces. Publishing into a closed
// mailbox releases env right away.
func (mb *mailbox) publish(env envelope) {
	mb.mu.Lock()

	if mb.closed {
		mb.mu.Unlock()
		frame.Release(env.frame)

		return
	}

	replaced := mb.slot
	mb.slot = &env
	mb.cond.Signal()
	mb.mu.Unlock()

	if replaced != nil {
		mb.drops.Add(1)
		mb.metrics.FrameDropped()
		frame.Release(replaced.frame)
	}
}

// finish records the failure that ended a capture run. A pending frame is still
// taken before it.
func (mb *mailbox) finish(generation uint64, err error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if mb.closed {
		return
	}

	mb.end = &envelope{generation: generation, err: err}
	mb.cond.Signal()
}

// take blocks until a frame or an end marker is pending, or the mailbox is closed.
func (mb *mailbox) take() (envelope, bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	for mb.slot == nil && mb.end == nil && !mb.closed {
		mb.cond.Wait()
	}

	if mb.closed {
		return envelope{}, false
	}

	var env envelope

	if mb.slot != nil {
		env = *mb.slot
		mb.slot = nil
	} else {
		env = *mb.end
		mb.end = nil
	}

	return env, true
}

// discard releases a pending frame without analyzing it and forgets an end marker.
func (mb *mailbox) discard() {
	mb.mu.Lock()
	pending := mb.slot
	mb.slot = nil
	mb.end = nil
	mb.mu.Unlock()

	if pending != nil {
		frame.Release(pending.frame)
	}
}

// close wakes the consumer and releases any pending frame. It is idempotent.
func (mb *mailbox) close() {
	mb.mu.Lock()
	mb.closed = true
	pending := mb.slot
	mb.slot = nil
	mb.end = nil
	mb.cond.Broadcast()
	mb.mu.Unlock()

	if pending != nil {
		frame.Release(pending.frame)
	}
}
