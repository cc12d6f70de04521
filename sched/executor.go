// SPDX-License-Identifier: Unlicense OR MIT

// Package sched is the kernel's cooperative task executor.
//
// Tasks are futures polled by the executor until they complete. A
// task that is woken while it is being polled goes to the back of the
// run queue, so tasks that yield take turns. A task woken by anything
// else, an interrupt handler or another task, goes to the front, so
// work unblocked by an event runs with low latency. A stream of such
// wakeups can starve yielding tasks.
package sched

import (
	"sync/atomic"

	"yoos.dev/yoos/kernel"
	"yoos.dev/yoos/mutex"
)

// Executor runs tasks on the current hart.
type Executor struct {
	// queue is shared with interrupt handlers that wake tasks.
	queue mutex.SpinMutex[runQueue, mutex.NoInterruptSpin]
	tasks atomic.Int64
	ids   atomic.Uint64
}

var global atomic.Pointer[Executor]

func NewExecutor() *Executor {
	return new(Executor)
}

// Init creates the kernel executor. It must be called once, before
// any task is spawned.
func Init() {
	if !global.CompareAndSwap(nil, NewExecutor()) {
		kernel.Fatal("sched: Init called twice")
	}
	kernel.Logger().Info("executor ready")
}

func executor() *Executor {
	e := global.Load()
	if e == nil {
		kernel.Fatal("sched: executor used before Init")
	}
	return e
}

// Spawn creates a task on the kernel executor. The task does not run
// until the returned Runnable is scheduled.
func Spawn[T any](f Future[T]) (*Runnable, *Task[T]) {
	return SpawnOn(executor(), f)
}

// RunUntilIdle runs kernel tasks until the run queue is empty and
// returns the number of polls.
func RunUntilIdle() int {
	return executor().RunUntilIdle()
}

// RunForever runs kernel tasks, waiting for interrupts when there is
// nothing to run. It does not return.
func RunForever() {
	executor().RunForever()
}

// Tasks returns the number of spawned tasks that have not completed.
func (e *Executor) Tasks() int {
	return int(e.tasks.Load())
}

// schedule is the scheduling callback of every task of e.
//
//go:nosplit
func (e *Executor) schedule(r *Runnable, wokenWhileRunning bool) {
	g := e.queue.UnsafeLock()
	q := g.Get()
	if wokenWhileRunning {
		q.pushBack(r)
	} else {
		q.pushFront(r)
	}
	g.Unlock()
}

func (e *Executor) next() *Runnable {
	g := e.queue.UnsafeLock()
	r := g.Get().popFront()
	g.Unlock()
	return r
}

// RunOne runs the runnable at the front of the queue and reports
// whether there was one.
func (e *Executor) RunOne() bool {
	r := e.next()
	if r == nil {
		return false
	}
	r.Run()
	return true
}

// RunUntilIdle runs tasks until the run queue is empty and returns the
// number of polls.
func (e *Executor) RunUntilIdle() int {
	n := 0
	for e.RunOne() {
		n++
	}
	return n
}

// RunForever runs tasks, and waits for an interrupt whenever the run
// queue is empty.
func (e *Executor) RunForever() {
	h := kernel.Hart()
	for {
		e.RunUntilIdle()
		// Check for work with interrupts masked, so a wakeup between
		// the check and the wait is not lost. A pending interrupt
		// ends the wait even while masked.
		irq := mutex.DisableIRQ()
		g := e.queue.UnsafeLock()
		idle := g.Get().len() == 0
		g.Unlock()
		if idle {
			h.Wait()
		}
		irq.Restore()
	}
}
