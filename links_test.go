package hive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type linkRequest struct{ target Handle }
type quitRequest struct{ reason ExitReason }
type monitorRequest struct{ target Handle }

// TestLinkPropagation is scenario (S5): A and B linked, A quits with
// user(7); B terminates with user(7); a monitor C on A receives exactly
// one down notification.
func TestLinkPropagation(t *testing.T) {
	sys := NewSystem()
	defer sys.Shutdown(time.Second)

	bTerminated := make(chan ExitReason, 1)
	b, err := sys.Spawn(NewProps(func() *Behavior {
		return NewBehavior().OnStop(func(ctx Context, reason ExitReason) {
			bTerminated <- reason
		})
	}))
	require.NoError(t, err)

	a, err := sys.Spawn(NewProps(func() *Behavior {
		bh := NewBehavior()
		OnType(bh, func(ctx Context, msg linkRequest) Directive {
			ctx.Link(msg.target)
			return Continue()
		})
		OnType(bh, func(ctx Context, msg quitRequest) Directive {
			return ctx.Quit(msg.reason)
		})
		return bh
	}))
	require.NoError(t, err)

	downs := make(chan DownNotification, 4)
	c, err := sys.Spawn(NewProps(func() *Behavior {
		bh := NewBehavior()
		OnType(bh, func(ctx Context, msg monitorRequest) Directive {
			ctx.Monitor(msg.target)
			return Continue()
		})
		OnType(bh, func(ctx Context, msg DownNotification) Directive {
			downs <- msg
			return Continue()
		})
		return bh
	}))
	require.NoError(t, err)

	require.NoError(t, sys.Send(c, monitorRequest{target: a}))
	require.NoError(t, sys.Send(a, linkRequest{target: b}))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, sys.Send(a, quitRequest{reason: User(7)}))

	select {
	case reason := <-bTerminated:
		assert.Equal(t, ExitUser, reason.Kind)
		assert.Equal(t, 7, reason.Code)
	case <-time.After(time.Second):
		t.Fatal("B did not terminate in time")
	}

	select {
	case got := <-downs:
		assert.Equal(t, a.ID(), got.Who.ID())
		assert.Equal(t, ExitUser, got.Reason.Kind)
	case <-time.After(time.Second):
		t.Fatal("C did not receive a down notification")
	}

	select {
	case <-downs:
		t.Fatal("C received a second down notification")
	case <-time.After(100 * time.Millisecond):
	}
}
