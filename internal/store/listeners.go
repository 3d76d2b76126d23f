package store

import (
	"slices"
	"sync"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/scheduler"
)

// Listeners is a subscriber set. Stores call Notify after releasing their
// own locks so a listener may call back into the store.
type Listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(model.State)
	via  *scheduler.Scheduler
}

// DeliverOn routes notifications through sched.Deliver, so commits made by
// a deferred add reach listeners once the scheduler has released the task.
func (l *Listeners) DeliverOn(sched *scheduler.Scheduler) {
	l.mu.Lock()
	l.via = sched
	l.mu.Unlock()
}

func (l *Listeners) Add(fn func(model.State)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(model.State))
	}
	id := l.next
	l.next++
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

func (l *Listeners) Notify(s model.State) {
	l.mu.Lock()
	via := l.via
	l.mu.Unlock()
	if via != nil {
		via.Deliver(func() { l.notify(s) })
		return
	}
	l.notify(s)
}

func (l *Listeners) notify(s model.State) {
	l.mu.Lock()
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	fns := make([]func(model.State), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, l.fns[id])
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}
