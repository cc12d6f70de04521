// SPDX-License-Identifier: Unlicense OR MIT

package sched

import (
	"sync/atomic"

	"yoos.dev/yoos/kernel"
	"yoos.dev/yoos/mutex"
)

// Task states.
const (
	stateScheduled = 1 << iota
	stateRunning
	stateCompleted
)

// header is the part of a task shared by its Runnable, Task and
// Wakers.
type header struct {
	id      uint64
	exec    *Executor
	state   atomic.Uint32
	poll    func(cx *Context) bool
	awaiter atomic.Pointer[Waker]
}

// Runnable is a scheduled task. Running it consumes it; the task
// hands out a new Runnable each time it is scheduled again.
type Runnable struct {
	h      *header
	queued bool
}

// Task is the result handle of a spawned task. A Task is itself a
// Future that completes with the result of the task.
type Task[T any] struct {
	h      *header
	result T
}

// SpawnOn creates a task on e. The task does not run until the
// returned Runnable is scheduled.
func SpawnOn[T any](e *Executor, f Future[T]) (*Runnable, *Task[T]) {
	t := new(Task[T])
	h := &header{
		id:   e.ids.Add(1),
		exec: e,
		poll: func(cx *Context) bool {
			v, ok := f.Poll(cx)
			if ok {
				t.result = v
			}
			return ok
		},
	}
	h.state.Store(stateScheduled)
	t.h = h
	e.tasks.Add(1)
	kernel.Logger().Debug("task spawned", "task", h.id)
	return &Runnable{h: h}, t
}

// Schedule puts a freshly spawned task at the front of the run queue.
func (r *Runnable) Schedule() {
	if r.h == nil || r.queued {
		kernel.Fatal("sched: schedule of a consumed runnable")
	}
	r.queued = true
	r.h.exec.schedule(r, false)
}

// Run polls the task once and reports whether it completed. A
// Runnable can only be run once.
func (r *Runnable) Run() bool {
	h := r.h
	if h == nil {
		kernel.Fatal("sched: run of a consumed runnable")
	}
	r.h = nil
	for {
		old := h.state.Load()
		if old&stateScheduled == 0 || old&(stateRunning|stateCompleted) != 0 {
			kernel.Fatal("sched: run of a task that is not scheduled")
		}
		if h.state.CompareAndSwap(old, old&^stateScheduled|stateRunning) {
			break
		}
	}
	held := mutex.Held()
	if h.poll(&Context{waker: Waker{h: h}}) {
		h.state.Store(stateCompleted)
		h.exec.tasks.Add(-1)
		kernel.Logger().Debug("task completed", "task", h.id)
		if w := h.awaiter.Swap(nil); w != nil {
			w.Wake()
		}
		return true
	}
	if mutex.Held() != held {
		kernel.Fatal("sched: spin mutex guard held across a suspension point")
	}
	for {
		old := h.state.Load()
		if h.state.CompareAndSwap(old, old&^stateRunning) {
			if old&stateScheduled != 0 {
				h.exec.schedule(&Runnable{h: h}, true)
			}
			return false
		}
	}
}

// Waker schedules its task again. The zero Waker does nothing.
type Waker struct {
	h *header
}

// Wake schedules the task unless it is already scheduled or has
// completed. Wake may be called from interrupt handlers.
//
//go:nosplit
func (w Waker) Wake() {
	h := w.h
	if h == nil {
		return
	}
	for {
		old := h.state.Load()
		if old&(stateScheduled|stateCompleted) != 0 {
			return
		}
		if h.state.CompareAndSwap(old, old|stateScheduled) {
			// A running task is scheduled by Run when its poll
			// returns.
			if old&stateRunning == 0 {
				h.exec.schedule(&Runnable{h: h}, false)
			}
			return
		}
	}
}

// Poll waits for the task to complete and returns its result.
func (t *Task[T]) Poll(cx *Context) (T, bool) {
	if t.Done() {
		return t.result, true
	}
	w := cx.Waker()
	t.h.awaiter.Store(&w)
	if t.Done() {
		return t.result, true
	}
	var zero T
	return zero, false
}

// Done reports whether the task has completed.
func (t *Task[T]) Done() bool {
	return t.h.state.Load()&stateCompleted != 0
}

// Result returns the result of the task if it has completed.
func (t *Task[T]) Result() (T, bool) {
	if !t.Done() {
		var zero T
		return zero, false
	}
	return t.result, true
}
