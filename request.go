package hive

import (
	"time"
)

// Future is the handle a requester holds between calling Context.Request
// and chaining a continuation onto it with Then (spec.md §4.4, §9
// "coroutine-shaped continuations"). It is not a goroutine-blocking
// future: Then merely registers the continuation in the sender ACB's
// pending-request table, to be invoked as the next handler dispatch on
// that actor once a reply, error, or timeout arrives — never outside the
// actor's own serialized handler sequence.
type Future struct {
	id      uint64
	acb     *actorControlBlock
	resolve func(k Continuation)
}

// Continuation is invoked exactly once, in the requester's actor
// context, with exactly one of {reply != nil, errors.Is(err, ErrTimeout),
// err != nil} (spec.md invariant 3: "exactly one terminal outcome").
type Continuation func(ctx Context, reply interface{}, err error) Directive

// Then registers k as this request's continuation. Calling Then more
// than once on the same Future is a programming error; only the first
// registration takes effect.
func (f *Future) Then(k Continuation) {
	f.resolve(k)
}

// pendingRequest is one entry in an ACB's pending-request table
// (spec.md §3: "message_id → (continuation, deadline)").
type pendingRequest struct {
	continuation Continuation
	timer        *time.Timer
	deadline     time.Time
	fired        bool
}

// request implements Context.Request: allocate a fresh correlation id,
// record the pending entry, start the deadline timer, and enqueue the
// envelope on target (spec.md §4.4).
func (sys *System) request(from *actorControlBlock, target Handle, timeout time.Duration, payload interface{}) *Future {
	id := sys.nextMessageID.Add(1)

	future := &Future{id: id, acb: from}
	future.resolve = func(k Continuation) {
		from.mu.Lock()
		entry, ok := from.pending[id]
		if !ok {
			// The Future already resolved (reply/timeout raced Then).
			// This should not happen given Then is always called
			// immediately after Request, but guard against it rather
			// than drop the continuation silently.
			entry = &pendingRequest{}
			from.pending[id] = entry
		}
		if entry.continuation == nil {
			entry.continuation = k
		}
		from.mu.Unlock()
	}

	entry := &pendingRequest{deadline: sys.cfg.Clock().Add(timeout)}
	from.mu.Lock()
	from.pending[id] = entry
	from.mu.Unlock()

	entry.timer = time.AfterFunc(timeout, func() {
		sys.cfg.Logger.Debugw("request timed out", "id", id, "deadline", entry.deadline)
		sys.resolveRequest(from, id, nil, &ReplyError{Kind: ErrTimeout, err: ErrTimeout})
	})

	sender := from.handle()
	err := sys.sendEnvelope(target, &Envelope{
		Sender:    &sender,
		MessageID: id,
		Payload:   payload,
	})
	if err != nil {
		kind := ErrRequestReceiverDown
		if err == ErrNoSuchDestination {
			kind = ErrNoSuchDestination
		}
		sys.resolveRequest(from, id, nil, wrapKind(kind, "request %d to %s: %v", id, target, err))
	}

	return future
}

// deliverReply is called by the receiving actor's Context.Reply/ReplyError.
func (sys *System) deliverReply(original *Envelope, value interface{}, replyErr error) {
	if original.Sender == nil {
		return
	}
	target := *original.Sender
	if target.acb == nil {
		return
	}
	sys.enqueueUrgent(target.acb, continuationInvoke{id: original.MessageID, value: value, err: replyErr})
}

// resolveRequest fires the pending entry's continuation exactly once,
// whether triggered by a genuine reply, a timeout, or a runtime error
// (spec.md invariant 3).
func (sys *System) resolveRequest(from *actorControlBlock, id uint64, value interface{}, err error) {
	sys.enqueueUrgent(from, continuationInvoke{id: id, value: value, err: err})
}

// invokeContinuation runs (or discards, if the request already resolved)
// the continuation registered for ci.id. Called only from the owning
// ACB's worker, so no further synchronization is needed beyond the
// pending-table lock.
func (acb *actorControlBlock) invokeContinuation(ci continuationInvoke) {
	acb.mu.Lock()
	entry, ok := acb.pending[ci.id]
	if ok {
		if entry.fired {
			acb.mu.Unlock()
			return
		}
		entry.fired = true
		delete(acb.pending, ci.id)
	}
	acb.mu.Unlock()
	if !ok || entry.continuation == nil {
		return
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}

	ctx := &actorContext{acb: acb, envelope: &Envelope{}}
	directive := entry.continuation(ctx, ci.value, ci.err)
	acb.applyDirective(ctx, ctx.envelope, directive)
}
