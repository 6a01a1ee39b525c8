package hive

import (
	"sync"
	"sync/atomic"

	"code.hybscloud.com/lfq"
	"github.com/pkg/errors"
)

const defaultMailboxSize = 32

// urgentQueueCapacity bounds the urgent sub-queue independently of the
// configured mailbox size: urgent envelopes (exit signals, continuation
// invocations, shutdown) are system-generated at a rate tied to link/
// monitor/request fan-out, not to application traffic, so a fixed
// capacity rounds cleanly and never needs to track a user's mailboxSize
// choice.
const urgentQueueCapacity = 256

// mailbox is a multi-producer single-consumer queue merging three
// sub-queues by priority (spec.md §4.1): urgent (system messages),
// normal, and deferred (envelopes skip()ed by the current behavior,
// reinjected at become time).
//
// urgent never participates in become-time reinjection — dispatchEnvelope
// handles it before a behavior ever sees it (actor.go) — so its producer
// side is the genuinely lock-free MPSC ring spec.md §2/§5 call for
// (lfq.NewMPSC), which matters here because urgent is exactly the queue
// multiple unrelated goroutines contend on concurrently (every linked
// peer's terminate() calling deliverExitSignal into the same target).
// normal and deferred stay behind a mutex: reinjectDeferred must splice
// deferred entries in at normal's *head*, ahead of anything already
// queued there, to preserve per-sender FIFO (spec.md §5 Ordering) across
// a become/unbecome boundary, and lfq's Queue[T] exposes only tail
// Enqueue/head Dequeue with no head-insertion primitive — see DESIGN.md
// for why that rules it out for this sub-queue.
type mailbox struct {
	urgent lfq.Queue[Envelope]

	mu       sync.Mutex
	normal   []*Envelope
	deferred []*Envelope
	closed   atomic.Bool

	count atomic.Int64
}

// errMailboxFull signals that the urgent ring is at capacity. It is not
// one of errors.go's exported kinds: its only caller, system.go's
// enqueueUrgent, treats it exactly like ErrMailboxClosed and drops the
// envelope, so a distinct exported sentinel would add a ninth error kind
// spec.md never names.
var errMailboxFull = errors.New("mailbox full")

func newMailbox(sizeHint int) *mailbox {
	if sizeHint < 1 {
		sizeHint = defaultMailboxSize
	}
	return &mailbox{
		urgent: lfq.NewMPSC[Envelope](urgentQueueCapacity),
		normal: make([]*Envelope, 0, sizeHint),
	}
}

// enqueueNormal appends to the normal sub-queue. It returns wasEmpty:
// whether the mailbox (any sub-queue) was empty before this call, which
// callers use to decide whether the owning ACB must be submitted to the
// scheduler (spec.md §4.1: "enqueue is wait-free for the producer;
// returns a boolean was-empty"). It returns ErrMailboxClosed if the
// mailbox was already drained (the ACB terminated between its caller's
// liveness check and this call).
func (m *mailbox) enqueueNormal(e *Envelope) (wasEmpty bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed.Load() {
		return false, ErrMailboxClosed
	}
	wasEmpty = m.count.Load() == 0
	m.normal = append(m.normal, e)
	m.count.Add(1)
	return wasEmpty, nil
}

// enqueueUrgent is enqueueNormal's lock-free counterpart for
// system-priority envelopes (exit signals, continuation invocations,
// shutdown): it never touches the mutex normal/deferred share, so
// concurrent callers (e.g. several linked peers terminating at once)
// never serialize against each other here.
func (m *mailbox) enqueueUrgent(e *Envelope) (wasEmpty bool, err error) {
	if m.closed.Load() {
		return false, ErrMailboxClosed
	}
	wasEmpty = m.count.Load() == 0
	if perr := m.urgent.Enqueue(e); perr != nil {
		return false, errMailboxFull
	}
	m.count.Add(1)
	if m.closed.Load() {
		// Raced drainToDeadLetters: this envelope landed in the urgent
		// ring after the drain already ran and will never be consumed
		// (the ACB is terminated; nothing ever calls tryDequeue again).
		// Report closed, the same as for a mailbox already closed on
		// entry.
		return wasEmpty, ErrMailboxClosed
	}
	return wasEmpty, nil
}

// pending reports whether the mailbox currently holds any envelope,
// urgent/normal/deferred alike. This backs the ACB's "runnable implies
// mailbox non-empty" invariant (spec.md §3) and the flare actor's
// readiness contract (spec.md §4.6).
func (m *mailbox) pending() bool {
	return m.count.Load() > 0
}

// tryDequeue pops the next envelope to process: urgent first, then
// normal. Deferred entries are never returned here — they only
// reappear once reinjected into normal by reinjectDeferred. Called only
// by the actor's currently executing worker (single-consumer), which is
// what makes urgent's lock-free Dequeue safe despite many producers.
func (m *mailbox) tryDequeue() *Envelope {
	if e, err := m.urgent.Dequeue(); err == nil {
		m.count.Add(-1)
		return e
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.normal) > 0 {
		e := m.normal[0]
		m.normal = m.normal[1:]
		m.count.Add(-1)
		return e
	}
	return nil
}

// skip moves an envelope to the deferred sub-queue, preserving arrival
// order among deferred entries (spec.md §4.1). Only ever called by the
// actor's own executing worker on an envelope it just dequeued, so this
// never contends with enqueueNormal's producers for long.
func (m *mailbox) skip(e *Envelope) {
	m.mu.Lock()
	m.deferred = append(m.deferred, e)
	m.mu.Unlock()
}

// reinjectDeferred moves every deferred envelope back to the head of the
// normal queue, in their original relative order, ahead of anything
// already in normal. Called on every become/unbecome (spec.md §4.1,
// §4.3).
func (m *mailbox) reinjectDeferred() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.deferred) == 0 {
		return
	}
	m.normal = append(m.deferred, m.normal...)
	m.deferred = nil
}

// drainToDeadLetters empties all three sub-queues and marks the mailbox
// closed, returning what was drained so the caller can forward it to the
// System's dead-letter sink (spec.md §3: "once exit reason is set ...
// mailbox is drained to dead-letters").
func (m *mailbox) drainToDeadLetters() []*Envelope {
	m.closed.Store(true)

	var drained []*Envelope
	// lfq's FAA-based MPSC applies a livelock-prevention threshold that
	// can make Dequeue report empty while entries remain; Drain lifts
	// that threshold so this loop actually reaches the bottom of the
	// ring (see code.hybscloud.com/lfq's graceful-shutdown contract).
	if d, ok := m.urgent.(lfq.Drainer); ok {
		d.Drain()
	}
	for {
		e, err := m.urgent.Dequeue()
		if err != nil {
			break
		}
		drained = append(drained, e)
		m.count.Add(-1)
	}

	m.mu.Lock()
	drained = append(drained, m.normal...)
	drained = append(drained, m.deferred...)
	m.count.Add(-int64(len(m.normal) + len(m.deferred)))
	m.normal, m.deferred = nil, nil
	m.mu.Unlock()

	return drained
}
