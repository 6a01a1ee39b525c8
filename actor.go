package hive

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// actorControlBlock is the ACB of spec.md §3: identity, mailbox, current
// behavior (with a become/unbecome stack), links, monitors, pending
// requests, and the exit-reason latch.
//
// Grounded on bollywood/process.go's process struct (pid, actor, mailbox,
// stopCh, stopped atomic.Bool), extended with the links/monitors/pending
// state the teacher's process does not carry, and with a behavior stack
// instead of a single fixed Actor.Receive method.
type actorControlBlock struct {
	id          ID
	displayName string
	sys         *System

	mbox *mailbox

	mu            sync.Mutex // guards behaviorStack, links, monitors, pending
	behaviorStack []*Behavior
	links         map[ID]Handle
	monitors      map[ID]Handle
	pending       map[uint64]*pendingRequest

	runnable  atomic.Bool
	executing atomic.Bool
	reasonPtr atomic.Pointer[ExitReason]

	// scoped marks an ACB that is driven by an external blocking caller
	// (a ScopedActor or FlareActor) instead of the scheduler's worker
	// pool (spec.md §4.3, §6). bell is the wakeup hook installed by that
	// caller; markRunnable rings it instead of submitting to the
	// scheduler.
	scoped bool
	bell   func()
}

func newActorControlBlock(sys *System, id ID, props *Props) *actorControlBlock {
	return &actorControlBlock{
		id:          id,
		displayName: props.displayName,
		sys:         sys,
		mbox:        newMailbox(props.mailboxSize),
		links:       make(map[ID]Handle),
		monitors:    make(map[ID]Handle),
		pending:     make(map[uint64]*pendingRequest),
	}
}

func (acb *actorControlBlock) handle() Handle {
	return Handle{id: acb.id, acb: acb}
}

func (acb *actorControlBlock) exitReason() *ExitReason {
	return acb.reasonPtr.Load()
}

// setExitReason sets the latch exactly once; it reports whether this
// call was the one that set it (spec.md §3: "once exit reason is set, no
// further user handlers run").
func (acb *actorControlBlock) setExitReason(r ExitReason) bool {
	return acb.reasonPtr.CompareAndSwap(nil, &r)
}

func (acb *actorControlBlock) currentBehavior() *Behavior {
	acb.mu.Lock()
	defer acb.mu.Unlock()
	if len(acb.behaviorStack) == 0 {
		return nil
	}
	return acb.behaviorStack[len(acb.behaviorStack)-1]
}

func (acb *actorControlBlock) pushBehavior(b *Behavior) {
	acb.mu.Lock()
	acb.behaviorStack = append(acb.behaviorStack, b)
	acb.mu.Unlock()
	acb.mbox.reinjectDeferred()
}

func (acb *actorControlBlock) popBehavior() {
	acb.mu.Lock()
	if len(acb.behaviorStack) > 1 {
		acb.behaviorStack = acb.behaviorStack[:len(acb.behaviorStack)-1]
	}
	acb.mu.Unlock()
	acb.mbox.reinjectDeferred()
}

func (acb *actorControlBlock) trapsExits() bool {
	b := acb.currentBehavior()
	return b != nil && b.trapExit
}

// markRunnable transitions the ACB to runnable and submits it to the
// scheduler, unless it is already runnable or already terminated.
func (acb *actorControlBlock) markRunnable() {
	if acb.exitReason() != nil {
		return
	}
	if acb.scoped {
		return
	}
	if acb.runnable.CompareAndSwap(false, true) {
		acb.sys.scheduler.submit(acb)
	}
}

// ringBell wakes a scoped/flare actor's external pump loop when its
// mailbox gains work while that loop is already blocked waiting. It is
// only ever called for acb.scoped ACBs, after bell has been installed.
func (acb *actorControlBlock) ringBell() {
	if acb.bell != nil {
		acb.bell()
	}
}

// runQuantum processes up to max envelopes, returning whether the
// mailbox still has work afterward (spec.md §4.2: "if the mailbox is
// empty at quantum end, the ACB is parked; otherwise it is
// re-submitted").
func (acb *actorControlBlock) runQuantum(max int) (more bool) {
	if !acb.executing.CompareAndSwap(false, true) {
		// Scheduler invariant violation: two workers concurrently driving
		// the same ACB. This is a bug, not a runtime condition (spec.md
		// §7), so it is fatal.
		panic("hive: double-execute of actor " + acb.id.String())
	}
	defer acb.executing.Store(false)

	for i := 0; i < max; i++ {
		if acb.exitReason() != nil {
			return false
		}
		e := acb.mbox.tryDequeue()
		if e == nil {
			break
		}
		acb.dispatchEnvelope(e)
	}
	return acb.mbox.pending()
}

func (acb *actorControlBlock) dispatchEnvelope(e *Envelope) {
	if e.urgent {
		switch p := e.Payload.(type) {
		case LinkExit:
			acb.handleExitSignal(p)
			return
		case continuationInvoke:
			acb.invokeContinuation(p)
			return
		case shutdownExit:
			acb.terminate(p.Reason)
			return
		}
	}

	ctx := &actorContext{acb: acb, envelope: e}

	func() {
		defer func() {
			if r := recover(); r != nil {
				acb.sys.cfg.Logger.Errorw("actor panicked", "actor", acb.id, "panic", r)
				acb.terminate(UnhandledException(panicToError(r)))
			}
		}()

		current := acb.currentBehavior()
		if _, isStart := e.Payload.(Started); isStart {
			if current != nil && current.onStart != nil {
				current.onStart(ctx)
			}
			return
		}
		if current == nil {
			acb.handleUnmatched(e)
			return
		}
		directive, matched := current.dispatch(ctx, e.Payload)
		if !matched {
			acb.handleUnmatched(e)
			return
		}
		acb.applyDirective(ctx, e, directive)
	}()
}

func (acb *actorControlBlock) handleUnmatched(e *Envelope) {
	if e.isRequest() {
		err := wrapKind(ErrUnexpectedMessage, "actor %s has no clause for %T", acb.id, e.Payload)
		acb.sys.deliverReply(e, nil, err)
		return
	}
	acb.sys.deadLetter(e)
}

func (acb *actorControlBlock) applyDirective(ctx *actorContext, e *Envelope, d Directive) {
	switch d.Kind {
	case DirectiveSkip:
		acb.mbox.skip(e)
	case DirectiveBecome:
		acb.pushBehavior(d.Next)
		if d.Next != nil && d.Next.onStart != nil {
			d.Next.onStart(ctx)
		}
	case DirectiveUnbecome:
		acb.popBehavior()
	case DirectiveQuit:
		acb.terminate(d.Reason)
	default:
		// DirectiveContinue: nothing further.
	}
}

func panicToError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errStringer{r}
}

type errStringer struct{ v interface{} }

func (e errStringer) Error() string { return fmt.Sprintf("%v", e.v) }
