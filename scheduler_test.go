package hive

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSchedulerFairnessAcrossManyActors spawns far more actors than
// worker threads and checks every one of them gets to run, exercising
// the overflow queue and stealing path rather than just one worker's
// local deque.
func TestSchedulerFairnessAcrossManyActors(t *testing.T) {
	sys := NewSystem(WithMaxThreads(2))
	defer sys.Shutdown(time.Second)

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		_, err := sys.Spawn(NewProps(func() *Behavior {
			return OnType(NewBehavior(), func(ctx Context, _ int) Directive {
				wg.Done()
				return Continue()
			})
		}))
		require.NoError(t, err)
	}

	sys.mu.RLock()
	targets := make([]*actorControlBlock, 0, len(sys.actors))
	for _, acb := range sys.actors {
		targets = append(targets, acb)
	}
	sys.mu.RUnlock()
	for _, acb := range targets {
		require.NoError(t, sys.Send(acb.handle(), 1))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("not all actors ran within 5s")
	}
}

func TestSchedulerQuantumResubmitsRatherThanStarves(t *testing.T) {
	sys := NewSystem(WithMaxThreads(1), WithMaxThroughput(2))
	defer sys.Shutdown(time.Second)

	processed := make(chan int, 10)
	busy, err := sys.Spawn(NewProps(func() *Behavior {
		return OnType(NewBehavior(), func(ctx Context, msg int) Directive {
			processed <- msg
			return Continue()
		})
	}))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, sys.Send(busy, i))
	}

	got := make([]int, 0, 10)
	for i := 0; i < 10; i++ {
		select {
		case v := <-processed:
			got = append(got, v)
		case <-time.After(2 * time.Second):
			t.Fatalf("only processed %d/10 messages", len(got))
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}
