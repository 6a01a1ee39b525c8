package hive

// Producer builds the initial Behavior for a newly spawned actor. It is
// called exactly once per actor, by Spawn on the calling goroutine,
// mirroring vendor/.../bollywood/props.go's Producer/Props split — state
// is captured by the closure returned from Producer, the same way
// game/ball_actor.go's NewBallActorProducer closes over a *Ball.
type Producer func() *Behavior

// Props configures a spawn: the producer plus the per-actor knobs that
// don't belong on Config (which is system-wide).
type Props struct {
	producer    Producer
	displayName string
	mailboxSize int
}

// NewProps builds a Props from a Producer. Panics on a nil producer,
// matching vendor/.../bollywood/props.go's NewProps.
func NewProps(producer Producer) *Props {
	if producer == nil {
		panic("hive: producer cannot be nil")
	}
	return &Props{producer: producer, mailboxSize: defaultMailboxSize}
}

// WithDisplayName sets the ACB's display name (spec.md §3), used only for
// logging and diagnostics.
func (p *Props) WithDisplayName(name string) *Props {
	p.displayName = name
	return p
}

// WithMailboxSize overrides the normal-queue's soft capacity hint used
// for pre-allocation; the normal queue itself is unbounded (backed by a
// growable slice) so this only tunes allocation behavior, never delivery
// semantics.
func (p *Props) WithMailboxSize(n int) *Props {
	if n > 0 {
		p.mailboxSize = n
	}
	return p
}

func (p *Props) produce() *Behavior {
	return p.producer()
}
