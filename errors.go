package hive

import (
	"github.com/pkg/errors"

	"github.com/hiveactor/hive/atom"
)

// Error kinds, per spec.md §7. Each is a sentinel so callers compare with
// errors.Is; call-site context is attached with errors.Wrapf rather than
// folded into the sentinel's message, so errors.Is keeps working after
// wrapping.
var (
	// ErrUnexpectedMessage is returned to a requester when no clause in the
	// receiver's current behavior matches the request's payload.
	ErrUnexpectedMessage = errors.New("unexpected_message")

	// ErrTimeout is delivered to a request continuation when its deadline
	// elapses before a reply arrives.
	ErrTimeout = errors.New("timeout")

	// ErrActorExited is delivered when an operation targets an actor whose
	// exit-reason latch was observed set partway through the operation.
	ErrActorExited = errors.New("actor_exited")

	// ErrNoSuchDestination is delivered when a request targets a Handle
	// that was never bound to an actor (the zero Handle).
	ErrNoSuchDestination = errors.New("no_such_destination")

	// ErrMailboxClosed is returned by mailbox operations performed after
	// the mailbox has been drained to dead letters.
	ErrMailboxClosed = errors.New("mailbox_closed")

	// ErrSchedulerShutdown is returned by Spawn once a System has begun
	// shutting down.
	ErrSchedulerShutdown = errors.New("scheduler_shutdown")

	// ErrInvalidAtomEncoding is atom.ErrInvalidEncoding, re-exported so
	// callers that only import the root package can still compare with
	// errors.Is against the same sentinel atom-producing code returns.
	ErrInvalidAtomEncoding = atom.ErrInvalidEncoding

	// ErrRequestReceiverDown is returned (instead of silently dropping) a
	// request sent to a terminated actor.
	ErrRequestReceiverDown = errors.New("request_receiver_down")
)

// ReplyError is the payload a request continuation receives when the
// runtime itself produced the error (as opposed to the receiving actor
// replying with an application error). Kind is always one of the
// sentinels above.
type ReplyError struct {
	Kind error
	err  error
}

func wrapKind(kind error, format string, args ...interface{}) *ReplyError {
	return &ReplyError{Kind: kind, err: errors.Wrapf(kind, format, args...)}
}

// Error implements the error interface.
func (e *ReplyError) Error() string {
	if e == nil {
		return ""
	}
	return e.err.Error()
}

// Unwrap lets errors.Is(replyErr, hive.ErrTimeout) etc. work.
func (e *ReplyError) Unwrap() error {
	return e.err
}
