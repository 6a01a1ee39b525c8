package hive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// TestMirrorRequest is scenario (S1): an actor whose sole handler on a
// string replies with its reversal, requested from a scoped actor.
func TestMirrorRequest(t *testing.T) {
	sys := NewSystem()
	defer sys.Shutdown(time.Second)

	mirror, err := sys.Spawn(NewProps(func() *Behavior {
		return OnType(NewBehavior(), func(ctx Context, msg string) Directive {
			ctx.Reply(reverse(msg))
			return Continue()
		})
	}).WithDisplayName("mirror"))
	require.NoError(t, err)

	caller := NewScopedActor(sys)
	defer caller.Stop()

	reply, err := caller.Request(mirror, 10*time.Second, "Hello World!")
	require.NoError(t, err)
	assert.Equal(t, "!dlroW olleH", reply)
}

func TestSpawnAndSendDeliversAsynchronously(t *testing.T) {
	sys := NewSystem()
	defer sys.Shutdown(time.Second)

	received := make(chan string, 1)
	echo, err := sys.Spawn(NewProps(func() *Behavior {
		return OnType(NewBehavior(), func(ctx Context, msg string) Directive {
			received <- msg
			return Continue()
		})
	}))
	require.NoError(t, err)

	require.NoError(t, sys.Send(echo, "ping"))
	select {
	case got := <-received:
		assert.Equal(t, "ping", got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestUnmatchedRequestYieldsUnexpectedMessage(t *testing.T) {
	sys := NewSystem()
	defer sys.Shutdown(time.Second)

	silent, err := sys.Spawn(NewProps(func() *Behavior { return NewBehavior() }))
	require.NoError(t, err)

	caller := NewScopedActor(sys)
	defer caller.Stop()

	_, err = caller.Request(silent, time.Second, 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedMessage)
}

func TestSendToTerminatedActorIsSilent(t *testing.T) {
	sys := NewSystem()
	defer sys.Shutdown(time.Second)

	gone, err := sys.Spawn(NewProps(func() *Behavior { return NewBehavior() }))
	require.NoError(t, err)

	gone.acb.terminate(Normal())
	time.Sleep(10 * time.Millisecond)

	assert.NoError(t, sys.Send(gone, "too late"))
}

func TestUnspawnableHandleRequestFails(t *testing.T) {
	sys := NewSystem()
	defer sys.Shutdown(time.Second)

	caller := NewScopedActor(sys)
	defer caller.Stop()

	_, err := caller.Request(Handle{}, time.Second, "x")
	require.Error(t, err)
}
