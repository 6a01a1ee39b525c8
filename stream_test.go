package hive

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestStreamFanIn is scenario (S4): 20 sources each producing 1000
// integers feed one sink; the sink must receive exactly 20*1000 values
// with no duplicates or losses, and each source's own values in
// production order.
func TestStreamFanIn(t *testing.T) {
	const sources = 20
	const perSource = 1000

	sys := NewSystem()
	defer sys.Shutdown(2 * time.Second)

	type tagged struct {
		source int
		value  int
	}

	var mu sync.Mutex
	bySource := make(map[int][]int)
	done := make(chan struct{})
	remaining := sources

	sink, err := sys.Spawn(NewProps(func() *Behavior {
		b := NewBehavior()
		OnType(b, func(ctx Context, msg StreamValueMsg) Directive {
			v := msg.Value.(tagged)
			mu.Lock()
			bySource[v.source] = append(bySource[v.source], v.value)
			mu.Unlock()
			return Continue()
		})
		OnType(b, func(ctx Context, msg StreamTerminalMsg) Directive {
			mu.Lock()
			remaining--
			r := remaining
			mu.Unlock()
			if r == 0 {
				close(done)
			}
			return Continue()
		})
		return b
	}))
	require.NoError(t, err)

	for s := 0; s < sources; s++ {
		s := s
		n := 0
		source, err := NewStream(sys, sink, func() StreamItem {
			if n >= perSource {
				return StreamDone()
			}
			v := n
			n++
			return StreamValue(tagged{source: s, value: v})
		})
		require.NoError(t, err)
		require.NoError(t, sys.Send(source, StreamCredit{N: perSource + 1}))
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for all sources to complete")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bySource, sources)
	total := 0
	for s := 0; s < sources; s++ {
		vals := bySource[s]
		total += len(vals)
		require.True(t, sort.IntsAreSorted(vals), "source %d values out of production order: %v", s, vals)
		require.Equal(t, perSource, len(vals))
	}
	require.Equal(t, sources*perSource, total)
}

func TestStreamSkipStaysLive(t *testing.T) {
	sys := NewSystem()
	defer sys.Shutdown(time.Second)

	received := make(chan int, 8)
	sink, err := sys.Spawn(NewProps(func() *Behavior {
		return OnType(NewBehavior(), func(ctx Context, msg StreamValueMsg) Directive {
			received <- msg.Value.(int)
			return Continue()
		})
	}))
	require.NoError(t, err)

	calls := 0
	source, err := NewStream(sys, sink, func() StreamItem {
		calls++
		if calls%2 == 0 {
			return StreamValue(calls)
		}
		return StreamSkip()
	})
	require.NoError(t, err)
	require.NoError(t, sys.Send(source, StreamCredit{N: 4}))

	select {
	case v := <-received:
		require.Equal(t, 2, v)
	case <-time.After(time.Second):
		t.Fatal("expected a value from an even-numbered round")
	}
}
