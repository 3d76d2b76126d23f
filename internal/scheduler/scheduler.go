// Package scheduler runs deferred work one task at a time, the way a UI
// event loop would: tasks run in deadline order, ties in the order they
// were scheduled, and callbacks never overlap.
package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is the cancel cause for tasks still pending at Close.
var ErrClosed = errors.New("scheduler closed")

type taskState int

const (
	taskQueued taskState = iota
	taskRunning
	taskDone
)

// Task is a handle on one deferred callback.
type Task struct {
	s      *Scheduler
	run    func()
	cancel func(error)

	// guarded by s.mu
	due   time.Time
	seq   uint64
	index int
	state taskState
	stop  func() bool
}

// Cancel abandons the task if it has not started running yet and reports
// whether it did. Safe to call more than once, and from inside a callback.
func (t *Task) Cancel(cause error) bool {
	s := t.s
	s.mu.Lock()
	if t.state != taskQueued {
		s.mu.Unlock()
		return false
	}
	heap.Remove(&s.queue, t.index)
	t.state = taskDone
	stop := t.stop
	t.stop = nil
	s.signalIdle()
	s.mu.Unlock()

	s.poke()
	if stop != nil {
		stop()
	}
	if t.cancel != nil {
		t.cancel(cause)
	}
	return true
}

// queue is a min-heap on (due, seq).
type queue []*Task

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if !q[i].due.Equal(q[j].due) {
		return q[i].due.Before(q[j].due)
	}
	return q[i].seq < q[j].seq
}
func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *queue) Push(x any) {
	t := x.(*Task)
	t.index = len(*q)
	*q = append(*q, t)
}
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// Scheduler owns the queue of deferred callbacks. At most one runner
// goroutine waits on the queue at a time.
type Scheduler struct {
	wake chan struct{}

	mu       sync.Mutex
	queue    queue
	seq      uint64
	runnerUp bool
	running  bool
	after    []func()
	drained  chan struct{} // closed once the latest drain has finished
	idle     chan struct{}
	closed   bool
}

func New() *Scheduler {
	return &Scheduler{wake: make(chan struct{}, 1)}
}

// After runs fn once d has elapsed. If ctx ends first, or the scheduler is
// closed, fn is skipped and cancel (may be nil) receives the cause instead.
func (s *Scheduler) After(ctx context.Context, d time.Duration, fn func(), cancel func(error)) *Task {
	t := &Task{s: s, run: fn, cancel: cancel, index: -1}

	s.mu.Lock()
	if s.closed {
		t.state = taskDone
		s.mu.Unlock()
		if cancel != nil {
			cancel(ErrClosed)
		}
		return t
	}
	t.due = time.Now().Add(d)
	t.seq = s.seq
	s.seq++
	heap.Push(&s.queue, t)
	head := s.queue[0] == t
	if !s.runnerUp {
		s.runnerUp = true
		go s.runNext()
	}
	s.mu.Unlock()
	if head {
		s.poke()
	}

	stop := context.AfterFunc(ctx, func() { t.Cancel(context.Cause(ctx)) })
	s.mu.Lock()
	if t.state == taskQueued {
		t.stop = stop
		s.mu.Unlock()
		return t
	}
	s.mu.Unlock()
	stop()
	return t
}

func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// runNext waits for the head of the queue, runs it, and hands the queue to
// a fresh runner before delivering what the callback deferred. A callback
// deferral that blocks on the scheduler therefore never stalls later tasks.
func (s *Scheduler) runNext() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.runnerUp = false
			s.mu.Unlock()
			return
		}
		t := s.queue[0]
		if wait := time.Until(t.due); wait > 0 {
			s.mu.Unlock()
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-s.wake:
			}
			timer.Stop()
			continue
		}
		heap.Pop(&s.queue)
		t.state = taskRunning
		s.running = true
		stop := t.stop
		t.stop = nil
		s.mu.Unlock()
		if stop != nil {
			stop()
		}

		t.run()

		s.mu.Lock()
		t.state = taskDone
		s.running = false
		after := s.after
		s.after = nil
		prev, mine := s.drained, make(chan struct{})
		s.drained = mine
		if len(s.queue) > 0 {
			go s.runNext()
		} else {
			s.runnerUp = false
		}
		s.signalIdle()
		s.mu.Unlock()

		// Drains stay in task order even though the next task may already
		// be running.
		if prev != nil {
			<-prev
		}
		for _, fn := range after {
			fn()
		}
		close(mine)
		return
	}
}

// Deliver runs fn now, or, while a callback is running, right after that
// callback has been released. Stores route subscriber notifications
// through it so a subscriber may Flush or Close.
func (s *Scheduler) Deliver(fn func()) {
	s.mu.Lock()
	if s.running {
		s.after = append(s.after, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

// signalIdle must be called with s.mu held.
func (s *Scheduler) signalIdle() {
	if len(s.queue) == 0 && !s.running && s.idle != nil {
		close(s.idle)
		s.idle = nil
	}
}

// Pending reports how many tasks have not finished running and were not
// cancelled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.queue)
	if s.running {
		n++
	}
	return n
}

// Wait blocks until every queued task has run or been cancelled.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	if len(s.queue) == 0 && !s.running {
		s.mu.Unlock()
		return nil
	}
	if s.idle == nil {
		s.idle = make(chan struct{})
	}
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels everything queued with ErrClosed and refuses new tasks. A
// callback already running finishes normally.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	tasks := make([]*Task, len(s.queue))
	copy(tasks, s.queue)
	s.mu.Unlock()

	for _, t := range tasks {
		t.Cancel(ErrClosed)
	}
}
