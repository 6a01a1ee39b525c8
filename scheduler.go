package hive

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// scheduler is the work-stealing pool of spec.md §4.2: a fixed worker
// count, each with a local LIFO deque for continuation-of-self work, a
// shared overflow queue for first submissions, and stealing from
// siblings' deques when idle. Grounded on bollywood/engine.go's "one
// goroutine per actor forever" model, generalized to a bounded pool that
// time-slices many actors across few OS threads, and on the
// aggressive/moderate polling tiers of CAF's work-stealing policy
// (_examples/original_source/libcaf_core's scheduler policy headers)
// for the backoff shape in worker.nextWork.
type scheduler struct {
	sys      *System
	cfg      Config
	workers  []*worker
	overflow chan *actorControlBlock
	stopCh   chan struct{}
	stopOnce sync.Once
	group    *errgroup.Group

	// sem bounds how many ACBs across the whole pool may be mid-quantum
	// at once, independent of worker count, so it stays meaningful if
	// the worker count and the desired concurrency cap ever diverge.
	sem *semaphore.Weighted
}

type worker struct {
	id    int
	sched *scheduler
	local deque
}

// deque is a worker's local run queue: push/pop at the back for the
// owner (LIFO — favors re-running an actor that still has pending work,
// keeping it cache/behavior-stack warm), pop at the front for thieves
// (FIFO — steals the oldest, presumably longest-waiting, work first).
type deque struct {
	mu    sync.Mutex
	items []*actorControlBlock
}

func (d *deque) pushBack(acb *actorControlBlock) {
	d.mu.Lock()
	d.items = append(d.items, acb)
	d.mu.Unlock()
}

func (d *deque) popBack() (*actorControlBlock, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.items)
	if n == 0 {
		return nil, false
	}
	acb := d.items[n-1]
	d.items = d.items[:n-1]
	return acb, true
}

func (d *deque) popFront() (*actorControlBlock, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return nil, false
	}
	acb := d.items[0]
	d.items = d.items[1:]
	return acb, true
}

func newScheduler(sys *System, cfg Config) *scheduler {
	n := cfg.MaxThreads
	if n < 1 {
		n = 1
	}
	s := &scheduler{
		sys:      sys,
		cfg:      cfg,
		overflow: make(chan *actorControlBlock, 4096),
		stopCh:   make(chan struct{}),
		group:    &errgroup.Group{},
		sem:      semaphore.NewWeighted(int64(n)),
	}
	s.workers = make([]*worker, n)
	for i := 0; i < n; i++ {
		w := &worker{id: i, sched: s}
		s.workers[i] = w
		s.group.Go(func() error {
			w.run()
			return nil
		})
	}
	return s
}

// submit hands an ACB to the scheduler for its first dispatch (spec.md
// §4.2: "a newly-runnable ACB is submitted to the shared queue"). It
// never blocks the caller: if the overflow buffer is momentarily full,
// the send is retried on a detached goroutine instead of stalling
// whoever marked the actor runnable (which may itself be a worker in
// the middle of a quantum).
func (s *scheduler) submit(acb *actorControlBlock) {
	select {
	case s.overflow <- acb:
		return
	default:
	}
	go func() {
		select {
		case s.overflow <- acb:
		case <-s.stopCh:
		}
	}()
}

func (s *scheduler) stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	_ = s.group.Wait()
}

// stealFrom searches every sibling's local deque for work, starting one
// past the calling worker (spec.md §4.2: "work stealing ... from
// siblings' local queues").
func (s *scheduler) stealFrom(self *worker) *actorControlBlock {
	n := len(s.workers)
	for i := 1; i < n; i++ {
		victim := s.workers[(self.id+i)%n]
		if acb, ok := victim.local.popFront(); ok {
			return acb
		}
	}
	return nil
}

func (w *worker) run() {
	for {
		acb := w.nextWork()
		if acb == nil {
			return
		}
		_ = w.sched.sem.Acquire(context.Background(), 1)
		more := acb.runQuantum(w.sched.cfg.MaxThroughput)
		w.sched.sem.Release(1)
		if more {
			w.local.pushBack(acb)
			continue
		}
		acb.runnable.Store(false)
		// An enqueue that raced the end of this quantum may have found
		// runnable already true and skipped resubmission (spec.md §4.2:
		// "markRunnable is a no-op while the ACB is already runnable").
		// Re-check now that runnable is false again.
		if acb.mbox.pending() && acb.runnable.CompareAndSwap(false, true) {
			w.sched.submit(acb)
		}
	}
}

// nextWork finds an ACB to run, escalating from a tight local/steal
// loop (aggressive tier) through an occasionally-yielding poll
// (moderate tier) to a blocking wait on the shared queue (relaxed
// tier), mirroring the aggressive/moderate/relaxed poll tiers of
// CAF's coordinator (original_source) rather than spinning forever or
// blocking immediately.
func (w *worker) nextWork() *actorControlBlock {
	for i := 0; i < w.sched.cfg.AggressivePollAttempts; i++ {
		if acb, ok := w.local.popBack(); ok {
			return acb
		}
		select {
		case acb := <-w.sched.overflow:
			return acb
		default:
		}
		if i%w.sched.cfg.AggressiveStealInterval == 0 {
			if acb := w.sched.stealFrom(w); acb != nil {
				return acb
			}
		}
		runtime.Gosched()
	}

	for i := 0; i < w.sched.cfg.ModeratePollAttempts; i++ {
		select {
		case acb := <-w.sched.overflow:
			return acb
		case <-w.sched.stopCh:
			return nil
		default:
		}
		if acb := w.sched.stealFrom(w); acb != nil {
			return acb
		}
		time.Sleep(50 * time.Microsecond)
	}

	select {
	case acb := <-w.sched.overflow:
		return acb
	case <-w.sched.stopCh:
		return nil
	}
}
