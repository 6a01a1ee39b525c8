package hive

// Behavior is an ordered list of typed handler clauses currently
// installed on an actor (spec.md §4.3, GLOSSARY). Dispatch picks the
// first clause whose pattern matches the envelope's payload; if none
// matches, the envelope becomes a dead letter (asynchronous sends) or a
// synthesized ErrUnexpectedMessage reply (requests).
//
// The teacher dispatches with a plain Go type switch inside a single
// Receive method (game/ball_actor.go). A type switch can't be replaced
// at runtime, so it can't express become/unbecome. Behavior generalizes
// the same "match on payload shape" idea into a registrable clause list
// instead, built with the generic On helper so each clause still gets
// Go's ordinary type-assertion matching rather than reflection.
type Behavior struct {
	clauses  []clause
	onStart  func(ctx Context)
	onStop   func(ctx Context, reason ExitReason)
	trapExit bool
}

type clause struct {
	match  func(payload interface{}) bool
	handle func(ctx Context, payload interface{}) Directive
}

// NewBehavior starts an empty Behavior; chain On/OnStart/OnStop/TrapExits
// to build it up.
func NewBehavior() *Behavior {
	return &Behavior{}
}

// On registers a clause matched by a runtime predicate. Prefer the
// generic On-style helper OnType for the common case of matching a
// concrete Go type.
func (b *Behavior) On(match func(payload interface{}) bool, handle func(ctx Context, payload interface{}) Directive) *Behavior {
	b.clauses = append(b.clauses, clause{match: match, handle: handle})
	return b
}

// OnType registers a clause that matches payloads of exactly type T,
// the common case (spec.md §4.3's "type-pattern"). It is a free function
// rather than a method because Go methods cannot carry their own type
// parameters.
func OnType[T any](b *Behavior, handle func(ctx Context, msg T) Directive) *Behavior {
	return b.On(
		func(payload interface{}) bool {
			_, ok := payload.(T)
			return ok
		},
		func(ctx Context, payload interface{}) Directive {
			return handle(ctx, payload.(T))
		},
	)
}

// OnStart registers a hook run once, before any user message, mirroring
// the optional Initialiser interface in
// FergusInLondon-go-supervise/actor.go generalized from an interface
// method to a Behavior-builder call (Behavior, unlike bollywood.Actor,
// has no underlying struct to attach methods to).
func (b *Behavior) OnStart(fn func(ctx Context)) *Behavior {
	b.onStart = fn
	return b
}

// OnStop registers a hook run once the actor's exit reason is set and
// before its mailbox is drained, mirroring FergusInLondon-go-supervise's
// Terminator interface.
func (b *Behavior) OnStop(fn func(ctx Context, reason ExitReason)) *Behavior {
	b.onStop = fn
	return b
}

// TrapExits makes this behavior receive link exit signals as ordinary
// LinkExit messages (via a matching clause) instead of
// terminating the actor (spec.md §4.5).
func (b *Behavior) TrapExits(trap bool) *Behavior {
	b.trapExit = trap
	return b
}

// dispatch evaluates clauses in order and returns the first match's
// Directive, or (zero Directive, false) if nothing matched.
func (b *Behavior) dispatch(ctx Context, payload interface{}) (Directive, bool) {
	for _, c := range b.clauses {
		if c.match(payload) {
			return c.handle(ctx, payload), true
		}
	}
	return Directive{}, false
}

// DirectiveKind enumerates what a clause asked the runtime to do next.
type DirectiveKind int

const (
	// DirectiveContinue is the default: keep the current behavior,
	// nothing special happens.
	DirectiveContinue DirectiveKind = iota
	// DirectiveSkip defers this envelope to be re-examined after the
	// next become.
	DirectiveSkip
	// DirectiveBecome replaces the current behavior.
	DirectiveBecome
	// DirectiveUnbecome pops back to the previous behavior.
	DirectiveUnbecome
	// DirectiveQuit terminates the actor with the given reason.
	DirectiveQuit
)

// Directive is the result of a handler clause: one of skip, become, a new
// behavior, unbecome, quit(reason), or nothing (spec.md §4.3).
type Directive struct {
	Kind   DirectiveKind
	Next   *Behavior
	Reason ExitReason
}

// Continue is the zero Directive: "nothing", keep processing normally.
func Continue() Directive { return Directive{Kind: DirectiveContinue} }

// Skip defers the current envelope to the deferred sub-queue.
func Skip() Directive { return Directive{Kind: DirectiveSkip} }

// Become replaces the current behavior with next.
func Become(next *Behavior) Directive {
	return Directive{Kind: DirectiveBecome, Next: next}
}

// Unbecome pops back to the behavior installed before the last Become.
func Unbecome() Directive { return Directive{Kind: DirectiveUnbecome} }

// Quit terminates the actor with reason.
func Quit(reason ExitReason) Directive {
	return Directive{Kind: DirectiveQuit, Reason: reason}
}
