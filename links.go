package hive

// links.go implements spec.md §4.5: symmetric links and one-way monitors,
// and the termination fan-out that drives both. Grounded on
// FergusInLondon-go-supervise/supervisor.go's restart-on-exit loop,
// generalized from "restart the same worker function" to "propagate an
// exit reason to a different actor" — which is exactly what a link is.

// link establishes a symmetric link between a and h: each records the
// other, idempotently (spec.md §8: "double link(a,b) is idempotent").
func (sys *System) link(a *actorControlBlock, h Handle) {
	if h.acb == nil || h.acb == a {
		return
	}
	a.mu.Lock()
	a.links[h.id] = h
	a.mu.Unlock()

	self := a.handle()
	h.acb.mu.Lock()
	h.acb.links[a.id] = self
	h.acb.mu.Unlock()
}

// unlink removes a's link to h, and h's link back to a, idempotently
// (spec.md §8: "unlink after link removes exactly one entry on each
// side").
func (sys *System) unlink(a *actorControlBlock, h Handle) {
	a.mu.Lock()
	delete(a.links, h.id)
	a.mu.Unlock()

	if h.acb == nil {
		return
	}
	h.acb.mu.Lock()
	delete(h.acb.links, a.id)
	h.acb.mu.Unlock()
}

// monitor registers observer as a one-way watcher of target.
func (sys *System) monitor(observer *actorControlBlock, target Handle) {
	if target.acb == nil {
		// Already gone: synthesize the down notification immediately so
		// a monitor on an already-terminated actor still gets exactly
		// one notification.
		sys.deliverDownNotification(observer.handle(), target, Unreachable())
		return
	}
	reason := target.acb.exitReason()
	if reason != nil {
		sys.deliverDownNotification(observer.handle(), target, *reason)
		return
	}
	target.acb.mu.Lock()
	// Re-check under lock: the target may have terminated between the
	// unlocked read above and acquiring the lock.
	if r := target.acb.exitReason(); r != nil {
		target.acb.mu.Unlock()
		sys.deliverDownNotification(observer.handle(), target, *r)
		return
	}
	target.acb.monitors[observer.id] = observer.handle()
	target.acb.mu.Unlock()
}

// demonitor cancels a previously registered monitor.
func (sys *System) demonitor(observer *actorControlBlock, target Handle) {
	if target.acb == nil {
		return
	}
	target.acb.mu.Lock()
	delete(target.acb.monitors, observer.id)
	target.acb.mu.Unlock()
}

// terminate sets the ACB's exit-reason latch (if not already set),
// drains its mailbox to dead letters, and fans the reason out to links
// (as exit signals) and monitors (as down notifications) exactly once
// (spec.md invariant 6, and §4.5's idempotence under cycles: "cycles are
// handled idempotently because termination is a one-shot transition
// guarded by the ACB exit-reason latch").
func (acb *actorControlBlock) terminate(reason ExitReason) {
	if !acb.setExitReason(reason) {
		return
	}

	acb.mu.Lock()
	top := topOf(acb.behaviorStack)
	pendingCopy := acb.pending
	linksCopy := acb.links
	monitorsCopy := acb.monitors
	acb.pending = nil
	acb.links = nil
	acb.monitors = nil
	acb.mu.Unlock()

	// OnStop runs after acb.mu is released: it is user code, and
	// Context.Link/Unlink (context.go) take a.mu.Lock() on the caller's
	// own ACB unconditionally — calling either from OnStop on this same
	// actor while still holding acb.mu here would deadlock the worker
	// permanently. actor.go's pushBehavior/popBehavior and applyDirective
	// already follow this same unlock-before-user-code rule.
	if top != nil && top.onStop != nil {
		top.onStop(&actorContext{acb: acb, envelope: &Envelope{}}, reason)
	}

	for _, p := range pendingCopy {
		if p.timer != nil {
			p.timer.Stop()
		}
	}

	drained := acb.mbox.drainToDeadLetters()
	for _, e := range drained {
		if e.isRequest() {
			// A request that reached this actor's mailbox before it
			// terminated is never going to be dispatched; resolve its
			// requester immediately instead of making it wait out its
			// own timeout for a reply that will never come.
			acb.sys.deliverReply(e, nil, wrapKind(ErrActorExited, "actor %s exited with a request still queued", acb.id))
			continue
		}
		acb.sys.deadLetter(e)
	}

	self := acb.handle()
	for _, peer := range linksCopy {
		acb.sys.deliverExitSignal(peer, self, reason)
	}
	for _, observer := range monitorsCopy {
		acb.sys.deliverDownNotification(observer, self, reason)
	}

	acb.sys.unregister(acb.id)
}

func topOf(stack []*Behavior) *Behavior {
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

// handleExitSignal applies spec.md §4.5's receiving-side rule: terminate
// with the same reason unless the reason is normal and exits aren't
// trapped; when trapping, redeliver as an ordinary message instead.
func (acb *actorControlBlock) handleExitSignal(sig LinkExit) {
	if acb.trapsExits() {
		ctx := &actorContext{acb: acb, envelope: &Envelope{Payload: sig}}
		current := acb.currentBehavior()
		if current != nil {
			if d, matched := current.dispatch(ctx, sig); matched {
				acb.applyDirective(ctx, ctx.envelope, d)
				return
			}
		}
		acb.sys.deadLetter(ctx.envelope)
		return
	}
	if sig.Reason.Kind == ExitNormal {
		return
	}
	acb.terminate(sig.Reason)
}

// deliverExitSignal and deliverDownNotification enqueue their respective
// notifications on the target's urgent/normal queue. Both are no-ops if
// the target has already been unregistered (its acb pointer is still
// valid Go memory — handles don't dangle — but sending into a mailbox
// that terminate() has already drained and closed is simply dropped,
// per spec.md §7: "sending to a terminated actor succeeds silently for
// asynchronous messages").
func (sys *System) deliverExitSignal(target Handle, from Handle, reason ExitReason) {
	if target.acb == nil {
		return
	}
	sys.enqueueUrgent(target.acb, LinkExit{From: from, Reason: reason})
}

func (sys *System) deliverDownNotification(target Handle, who Handle, reason ExitReason) {
	if target.acb == nil {
		return
	}
	sys.enqueueNormal(target.acb, &Envelope{Payload: DownNotification{Who: who, Reason: reason}})
}
