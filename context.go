package hive

import "time"

// Context is what a handler clause receives for one envelope invocation
// (spec.md §6's embedding API: "On an actor: send, request, become/
// unbecome, link, monitor, quit"). It is grounded on
// vendor/.../bollywood/context.go's Context interface (Engine/Self/Sender/
// Message), extended with Request/RequestID/Reply per the richer API
// game/ball_actor.go exercises against the published lguibr/bollywood
// package, plus Link/Unlink/Monitor/Demonitor, and Become/Unbecome/Skip/
// Quit convenience methods that simply build the Directive a handler
// returns.
type Context interface {
	// System returns the System this actor runs under.
	System() *System
	// Self returns this actor's own handle.
	Self() Handle
	// Sender returns the sender's handle, or the zero Handle if the
	// message was sent with no sender (e.g. a timer tick).
	Sender() Handle
	// Message returns the payload currently being dispatched.
	Message() interface{}

	// RequestID returns the correlation id of the envelope being
	// processed, or 0 if it was an asynchronous send.
	RequestID() uint64
	// Reply delivers value to the sender's pending request matching
	// RequestID. It is a no-op if the envelope was not a request or a
	// reply has already been sent for it.
	Reply(value interface{})
	// ReplyError is Reply's error counterpart.
	ReplyError(err error)

	// Send delivers payload to target asynchronously.
	Send(target Handle, payload interface{})
	// Request delivers payload to target as a correlated request and
	// returns a Future the caller chains a continuation onto with Then.
	// The continuation runs serialized with this actor's other handlers
	// (spec.md §4.4).
	Request(target Handle, timeout time.Duration, payload interface{}) *Future
	// Forward re-sends the envelope currently being processed to target,
	// preserving its original sender and message id.
	Forward(target Handle)

	// Link establishes a symmetric link with h (spec.md §4.5).
	Link(h Handle)
	// Unlink removes a previously established link.
	Unlink(h Handle)
	// Monitor registers this actor as a one-way observer of h.
	Monitor(h Handle)
	// Demonitor cancels a previously registered monitor.
	Demonitor(h Handle)

	// Become, Unbecome, Skip, and Quit build the Directive a handler
	// clause returns; spelled as Context methods so handlers can write
	// `return ctx.Become(next)` in the imperative style spec.md §6
	// describes, while the dispatch loop still operates on plain values.
	Become(next *Behavior) Directive
	Unbecome() Directive
	Skip() Directive
	Quit(reason ExitReason) Directive
}

// actorContext implements Context for exactly one envelope invocation.
type actorContext struct {
	acb      *actorControlBlock
	envelope *Envelope
	replied  bool
}

func (c *actorContext) System() *System { return c.acb.sys }
func (c *actorContext) Self() Handle    { return c.acb.handle() }

func (c *actorContext) Sender() Handle {
	if c.envelope.Sender == nil {
		return Handle{}
	}
	return *c.envelope.Sender
}

func (c *actorContext) Message() interface{} { return c.envelope.Payload }

func (c *actorContext) RequestID() uint64 { return c.envelope.MessageID }

func (c *actorContext) Reply(value interface{}) {
	if c.replied || !c.envelope.isRequest() {
		return
	}
	c.replied = true
	c.acb.sys.deliverReply(c.envelope, value, nil)
}

func (c *actorContext) ReplyError(err error) {
	if c.replied || !c.envelope.isRequest() {
		return
	}
	c.replied = true
	c.acb.sys.deliverReply(c.envelope, nil, err)
}

func (c *actorContext) Send(target Handle, payload interface{}) {
	c.acb.sys.send(c.Self(), target, payload)
}

func (c *actorContext) Request(target Handle, timeout time.Duration, payload interface{}) *Future {
	return c.acb.sys.request(c.acb, target, timeout, payload)
}

func (c *actorContext) Forward(target Handle) {
	c.acb.sys.sendEnvelope(target, &Envelope{
		Sender:    c.envelope.Sender,
		MessageID: c.envelope.MessageID,
		Payload:   c.envelope.Payload,
	})
	c.replied = true // a forwarded request's reply is no longer this actor's to give
}

func (c *actorContext) Link(h Handle)      { c.acb.sys.link(c.acb, h) }
func (c *actorContext) Unlink(h Handle)    { c.acb.sys.unlink(c.acb, h) }
func (c *actorContext) Monitor(h Handle)   { c.acb.sys.monitor(c.acb, h) }
func (c *actorContext) Demonitor(h Handle) { c.acb.sys.demonitor(c.acb, h) }

func (c *actorContext) Become(next *Behavior) Directive { return Become(next) }
func (c *actorContext) Unbecome() Directive              { return Unbecome() }
func (c *actorContext) Skip() Directive                  { return Skip() }
func (c *actorContext) Quit(reason ExitReason) Directive { return Quit(reason) }
