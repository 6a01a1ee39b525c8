package hive

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// System owns the scheduler, the id→ACB registry, configuration, and the
// shutdown coordinator (spec.md §4.8). Grounded on bollywood/engine.go's
// Engine (pidCounter, actors map under sync.RWMutex, stopping atomic.Bool,
// Spawn/Send/Stop/Shutdown), generalized from "one goroutine per actor"
// to "submit runnable ACBs onto a bounded work-stealing scheduler" (see
// scheduler.go) and from string-formatted PIDs to dense ID values.
type System struct {
	instanceID uuid.UUID
	cfg        Config
	scheduler  *scheduler

	mu     sync.RWMutex
	actors map[ID]*actorControlBlock

	nextID        atomic.Uint64
	nextMessageID atomic.Uint64

	stopping    atomic.Bool
	deadLetters chan Envelope
}

// NewSystem constructs a System and starts its scheduler's worker pool.
// Grounded on bollywood/engine.go's NewEngine, extended to also size and
// start the scheduler (the teacher starts no workers up front — it spawns
// one goroutine per actor on demand instead).
func NewSystem(opts ...Option) *System {
	cfg := resolveConfig(opts...)
	sys := &System{
		instanceID:  uuid.New(),
		cfg:         cfg,
		actors:      make(map[ID]*actorControlBlock),
		deadLetters: make(chan Envelope, cfg.DeadLetterBuffer),
	}
	sys.scheduler = newScheduler(sys, cfg)
	sys.cfg.Logger.Infow("system started", "system", sys.instanceID, "workers", cfg.MaxThreads)
	return sys
}

// ID returns this System's instance id (for logging/diagnostics only —
// never an actor identifier; see SPEC_FULL.md §2).
func (sys *System) ID() uuid.UUID { return sys.instanceID }

// DeadLetters exposes the channel envelopes land on when dispatch fails
// to find a matching clause for an asynchronous send, or when a send
// targets an already-terminated actor.
func (sys *System) DeadLetters() <-chan Envelope { return sys.deadLetters }

func (sys *System) deadLetter(e *Envelope) {
	select {
	case sys.deadLetters <- *e:
	default:
		sys.cfg.Logger.Warnw("dead letter buffer full, dropping", "payload", e.Payload)
	}
}

// Spawn constructs an ACB, assigns it a dense id, installs its initial
// behavior, marks it runnable, and returns its handle (spec.md §4.8).
func (sys *System) Spawn(props *Props) (Handle, error) {
	if sys.stopping.Load() {
		return Handle{}, ErrSchedulerShutdown
	}

	id := ID(sys.nextID.Add(1))
	acb := newActorControlBlock(sys, id, props)

	sys.mu.Lock()
	sys.actors[id] = acb
	sys.mu.Unlock()

	initial := props.produce()
	acb.behaviorStack = []*Behavior{initial}

	h := acb.handle()
	sys.enqueueNormal(acb, &Envelope{Payload: Started{}})
	return h, nil
}

// Send delivers payload to target asynchronously with no sender — the
// embedder-facing counterpart of Context.Send, for code that is not
// itself running inside an actor (spec.md §6).
func (sys *System) Send(target Handle, payload interface{}) error {
	return sys.send(Handle{}, target, payload)
}

func (sys *System) send(from Handle, target Handle, payload interface{}) error {
	var sender *Handle
	if from.acb != nil {
		sender = &from
	}
	return sys.sendEnvelope(target, &Envelope{Sender: sender, Payload: payload})
}

// sendEnvelope is the single choke point for delivering an envelope to a
// target handle: it applies spec.md §7's policy ("sending to a
// terminated actor succeeds silently for asynchronous messages ... and
// produces request_receiver_down for requests").
func (sys *System) sendEnvelope(target Handle, e *Envelope) error {
	if target.acb == nil {
		if e.isRequest() {
			return ErrNoSuchDestination
		}
		sys.deadLetter(e)
		return nil
	}
	if target.acb.exitReason() != nil {
		if e.isRequest() {
			return ErrRequestReceiverDown
		}
		sys.deadLetter(e)
		return nil
	}
	wasEmpty, err := target.acb.mbox.enqueueNormal(e)
	if err != nil {
		if e.isRequest() {
			return ErrRequestReceiverDown
		}
		sys.deadLetter(e)
		return nil
	}
	if target.acb.scoped {
		target.acb.ringBell()
	} else if wasEmpty {
		target.acb.markRunnable()
	}
	return nil
}

func (sys *System) enqueueNormal(acb *actorControlBlock, e *Envelope) {
	wasEmpty, err := acb.mbox.enqueueNormal(e)
	if err != nil {
		return
	}
	if acb.scoped {
		acb.ringBell()
	} else if wasEmpty {
		acb.markRunnable()
	}
}

func (sys *System) enqueueUrgent(acb *actorControlBlock, payload interface{}) {
	e := &Envelope{Payload: payload, urgent: true}
	wasEmpty, err := acb.mbox.enqueueUrgent(e)
	if err != nil {
		return
	}
	if acb.scoped {
		acb.ringBell()
	} else if wasEmpty {
		acb.markRunnable()
	}
}

func (sys *System) unregister(id ID) {
	sys.mu.Lock()
	delete(sys.actors, id)
	sys.mu.Unlock()
}

// Shutdown stops accepting new spawns, sends a normal exit to every live
// actor, and waits (up to timeout) for all of them to terminate, then
// joins the scheduler's workers (spec.md §4.8).
func (sys *System) Shutdown(timeout time.Duration) error {
	if !sys.stopping.CompareAndSwap(false, true) {
		return nil
	}
	sys.cfg.Logger.Infow("system shutdown initiated", "system", sys.instanceID)

	sys.mu.RLock()
	targets := make([]*actorControlBlock, 0, len(sys.actors))
	for _, acb := range sys.actors {
		targets = append(targets, acb)
	}
	sys.mu.RUnlock()

	for _, acb := range targets {
		if acb.scoped {
			// No scheduler worker ever drives a scoped ACB concurrently
			// with its owning goroutine (markRunnable is a no-op for
			// scoped ACBs), so there is no foreign dispatch loop to race:
			// terminate it directly, exactly as ScopedActor.Stop and
			// FlareActor.Close already do.
			acb.terminate(Normal())
			continue
		}
		// Deliver through the urgent queue instead of calling terminate()
		// from this goroutine: that would run OnStop (and drain links/
		// monitors/pending) concurrently with a worker mid-runQuantum on
		// the same ACB, violating "at most one worker executes a given
		// ACB at a time" (spec.md §3). Routing through shutdownExit makes
		// termination just another urgent envelope the actor's own
		// serialized dispatch loop handles in its turn.
		sys.enqueueUrgent(acb, shutdownExit{Reason: Normal()})
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		sys.mu.RLock()
		remaining := len(sys.actors)
		sys.mu.RUnlock()
		if remaining == 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	sys.scheduler.stop()
	sys.cfg.Logger.Infow("system shutdown complete", "system", sys.instanceID)
	return nil
}
