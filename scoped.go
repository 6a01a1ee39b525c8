package hive

import (
	"time"
)

// ScopedActor is spec.md §4.3/§6's scoped actor: an addressable mailbox
// whose envelopes are dispatched by the calling thread blocking in
// Receive, rather than by the scheduler's worker pool. Grounded on
// bollywood/context.go's Context shape, generalized from "always
// scheduler-driven" to "optionally thread-driven" by giving the ACB a
// scoped flag and a bell instead of submitting it to the scheduler.
type ScopedActor struct {
	acb  *actorControlBlock
	sys  *System
	bell chan struct{}
}

// NewScopedActor creates a scoped actor under sys. It is never submitted
// to the scheduler; its mailbox is drained only by calls to Receive or
// Request made on the calling goroutine.
func NewScopedActor(sys *System) *ScopedActor {
	id := ID(sys.nextID.Add(1))
	acb := newActorControlBlock(sys, id, NewProps(func() *Behavior { return NewBehavior() }))
	acb.scoped = true
	s := &ScopedActor{acb: acb, sys: sys, bell: make(chan struct{}, 1)}
	acb.bell = s.ring

	sys.mu.Lock()
	sys.actors[id] = acb
	sys.mu.Unlock()

	return s
}

func (s *ScopedActor) ring() {
	select {
	case s.bell <- struct{}{}:
	default:
	}
}

// Handle returns this scoped actor's own address, usable as a Sender or
// as a link/monitor target.
func (s *ScopedActor) Handle() Handle { return s.acb.handle() }

// Receive blocks until one envelope is available, dispatches it against
// behavior, and returns. It reports false if timeout elapses first.
func (s *ScopedActor) Receive(timeout time.Duration, behavior *Behavior) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if e := s.acb.mbox.tryDequeue(); e != nil {
			s.dispatch(behavior, e)
			return true
		}
		select {
		case <-s.bell:
			continue
		case <-deadline.C:
			return false
		}
	}
}

func (s *ScopedActor) dispatch(behavior *Behavior, e *Envelope) {
	if e.urgent {
		if ci, ok := e.Payload.(continuationInvoke); ok {
			s.acb.invokeContinuation(ci)
			return
		}
	}
	ctx := &actorContext{acb: s.acb, envelope: e}
	if behavior != nil {
		if d, matched := behavior.dispatch(ctx, e.Payload); matched {
			s.acb.applyDirective(ctx, e, d)
			return
		}
	}
	if e.isRequest() {
		s.sys.deliverReply(e, nil, wrapKind(ErrUnexpectedMessage, "scoped actor has no clause for %T", e.Payload))
		return
	}
	s.sys.deadLetter(e)
}

// Request sends payload to target as a correlated request and blocks
// the calling thread for up to timeout waiting for the reply, exactly
// as spec.md scenario (S1) describes ("From a scoped actor, request(...)
// must complete with reply"). Unlike Context.Request, this does not
// return a Future: it is a synchronous, thread-blocking call, because a
// scoped actor has no worker to resume it later.
func (s *ScopedActor) Request(target Handle, timeout time.Duration, payload interface{}) (interface{}, error) {
	fut := s.sys.request(s.acb, target, timeout, payload)

	var value interface{}
	var replyErr error
	done := make(chan struct{})
	fut.Then(func(ctx Context, reply interface{}, err error) Directive {
		value, replyErr = reply, err
		close(done)
		return Continue()
	})

	for {
		select {
		case <-done:
			return value, replyErr
		default:
		}
		if e := s.acb.mbox.tryDequeue(); e != nil {
			s.dispatch(nil, e)
			continue
		}
		select {
		case <-done:
			return value, replyErr
		case <-s.bell:
		}
	}
}

// Stop terminates the scoped actor's ACB, releasing its links/monitors
// and unregistering it from the system.
func (s *ScopedActor) Stop() {
	s.acb.terminate(Normal())
}
