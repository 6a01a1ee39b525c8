package hive

// stream.go implements spec.md §4.7: a credit-based source/sink pair.
// Grounded on bollywood's plain actor shape (a source is just another
// ACB whose behavior reacts to credit grants), since none of the example
// repos carry a streaming abstraction of their own; the credit-grant
// message shape follows the same request-less, fire-and-forget style
// messages.go's Started/DownNotification messages already use.

// StreamItemKind tags what one call to a stream's produce function
// yielded (spec.md §4.7: "produce() yields one of: a value, skip ...,
// or a terminal marker").
type StreamItemKind int

const (
	streamKindValue StreamItemKind = iota
	streamKindSkip
	streamKindDone
)

// StreamItem is the tagged union a stream's produce function returns.
// Use StreamValue, StreamSkip, or StreamDone to build one.
type StreamItem struct {
	kind  StreamItemKind
	value interface{}
}

// StreamValue yields v to the sink this round.
func StreamValue(v interface{}) StreamItem { return StreamItem{kind: streamKindValue, value: v} }

// StreamSkip yields nothing this round; the source remains live and
// will be asked to produce again once credit allows.
func StreamSkip() StreamItem { return StreamItem{kind: streamKindSkip} }

// StreamDone marks the source exhausted: the sink receives a terminal
// notification and the source actor then quits normally.
func StreamDone() StreamItem { return StreamItem{kind: streamKindDone} }

// StreamValueMsg is delivered to the sink for every produced value, in
// production order.
type StreamValueMsg struct {
	Value interface{}
}

// StreamTerminalMsg is delivered to the sink once, after the source's
// produce function yields StreamDone and every prior value has been
// delivered (spec.md §4.7: "no value is dropped ... delivered in
// production order").
type StreamTerminalMsg struct{}

// StreamCredit grants a source n additional rounds of production. A
// sink sends this periodically to implement backpressure: the source
// never calls produce more than the outstanding credit allows.
type StreamCredit struct {
	N int
}

// NewStream spawns a source actor that calls produce once per unit of
// credit it holds, forwarding StreamValueMsg/StreamTerminalMsg to
// target, and returns the source's handle so the caller (typically the
// sink itself, via Context.Send) can grant it initial credit.
func NewStream(sys *System, target Handle, produce func() StreamItem) (Handle, error) {
	props := NewProps(func() *Behavior {
		credit := 0
		b := NewBehavior()
		OnType(b, func(ctx Context, msg StreamCredit) Directive {
			credit += msg.N
			for credit > 0 {
				item := produce()
				credit--
				switch item.kind {
				case streamKindValue:
					ctx.Send(target, StreamValueMsg{Value: item.value})
				case streamKindSkip:
					// stays live; next round tries again if credit remains
				case streamKindDone:
					ctx.Send(target, StreamTerminalMsg{})
					return ctx.Quit(Normal())
				}
			}
			return Continue()
		})
		return b
	}).WithDisplayName("stream-source")

	return sys.Spawn(props)
}
