package hive

// System messages, grounded on vendor/github.com/lguibr/pongo/bollywood's
// Started/Stopping/Stopped, extended with the exit-signal and
// down-notification shapes links and monitors need (spec.md §4.5).

// Started is delivered to an actor once, after it is spawned and before
// any user message.
type Started struct{}

// LinkExit is the message delivered to a linked peer when one side of a
// link terminates. When the receiving actor is not trapping exits, it
// is handled by system semantics (§4.5) before ever reaching a
// behavior's clauses, and never actually seen by a clause. When the
// receiving actor is trapping exits, the very same value is redelivered
// as an ordinary message, matched like any other payload.
type LinkExit struct {
	From   Handle
	Reason ExitReason
}

// DownNotification is delivered to a monitor when the monitored actor
// terminates. Unlike LinkExit it never causes the receiver to
// terminate — it is always an ordinary message.
type DownNotification struct {
	Who    Handle
	Reason ExitReason
}

// continuationInvoke is an internal envelope payload used to run a
// request's continuation in the requester's actor context (spec.md
// §4.4). It never reaches a behavior's clauses.
type continuationInvoke struct {
	id    uint64
	value interface{}
	err   error
}

// shutdownExit is the urgent envelope payload System.Shutdown uses to
// terminate a live actor. Delivering it through the mailbox rather than
// calling terminate() from the caller's own goroutine means termination
// always runs inside the ACB's own serialized dispatch loop, exactly
// like any other urgent message (spec.md §3: "at most one worker
// executes a given ACB at a time").
type shutdownExit struct {
	Reason ExitReason
}
