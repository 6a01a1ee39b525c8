package hive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestFlareDirect is scenario (S2): readiness toggles exactly with
// sends and receives, with no coalescing across three messages.
func TestFlareDirect(t *testing.T) {
	sys := NewSystem()
	defer sys.Shutdown(time.Second)

	f, err := NewFlareActor(sys)
	require.NoError(t, err)
	defer f.Close()

	require.False(t, f.IsReady())

	require.NoError(t, sys.Send(f.Handle(), 42))
	waitUntil(t, f.IsReady, "flare should become ready after one send")

	var got []interface{}
	behavior := NewBehavior().On(
		func(interface{}) bool { return true },
		func(ctx Context, msg interface{}) Directive {
			got = append(got, msg)
			return Continue()
		},
	)
	f.Receive(behavior)
	require.Equal(t, []interface{}{42}, got)
	require.False(t, f.IsReady())

	require.NoError(t, sys.Send(f.Handle(), 42))
	require.NoError(t, sys.Send(f.Handle(), 43))
	require.NoError(t, sys.Send(f.Handle(), 44))

	for _, want := range []interface{}{42, 43, 44} {
		waitUntil(t, f.IsReady, "flare should be ready before each of three receives")
		f.Receive(behavior)
		require.Equal(t, want, got[len(got)-1])
	}
	require.False(t, f.IsReady())
}

// TestFlareIndirect is scenario (S3): a chain of three forwarding
// actors, each delaying 100ms, feeding the flare; readiness and order
// are preserved end to end.
func TestFlareIndirect(t *testing.T) {
	sys := NewSystem()
	defer sys.Shutdown(time.Second)

	f, err := NewFlareActor(sys)
	require.NoError(t, err)
	defer f.Close()

	dispatcher := func(next Handle) Handle {
		h, err := sys.Spawn(NewProps(func() *Behavior {
			return NewBehavior().On(
				func(interface{}) bool { return true },
				func(ctx Context, msg interface{}) Directive {
					time.Sleep(100 * time.Millisecond)
					ctx.Send(next, msg)
					return Continue()
				},
			)
		}))
		require.NoError(t, err)
		return h
	}

	third := dispatcher(f.Handle())
	second := dispatcher(third)
	head := dispatcher(second)

	require.NoError(t, sys.Send(head, 42))
	require.NoError(t, sys.Send(head, 43))
	require.NoError(t, sys.Send(head, 44))

	deadline := time.Now().Add(1 * time.Second)
	for !f.IsReady() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, f.IsReady(), "flare should be ready within 1s")

	var got []interface{}
	behavior := NewBehavior().On(
		func(interface{}) bool { return true },
		func(ctx Context, msg interface{}) Directive {
			got = append(got, msg)
			return Continue()
		},
	)
	for i := 0; i < 3; i++ {
		waitUntil(t, f.IsReady, "flare should stay ready for each remaining message")
		f.Receive(behavior)
	}
	require.Equal(t, []interface{}{42, 43, 44}, got)
}

func waitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(time.Millisecond)
	}
}
