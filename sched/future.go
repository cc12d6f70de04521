// SPDX-License-Identifier: Unlicense OR MIT

package sched

import (
	"yoos.dev/yoos/mutex"
)

// Context is passed to Future.Poll.
type Context struct {
	waker Waker
}

// Waker returns the waker of the task being polled.
func (cx *Context) Waker() Waker {
	return cx.waker
}

// Future is a computation that completes asynchronously. Poll returns
// the result and true once it is complete. Otherwise it arranges for
// cx.Waker() to be woken when progress can be made and returns false.
//
// Poll is never called again after it returns true. No spin mutex
// guard from Lock may be live when Poll returns false.
type Future[T any] interface {
	Poll(cx *Context) (T, bool)
}

// FutureFunc adapts a function to a Future.
type FutureFunc[T any] func(cx *Context) (T, bool)

func (f FutureFunc[T]) Poll(cx *Context) (T, bool) {
	return f(cx)
}

type ready[T any] struct {
	v T
}

// Ready returns a future that completes immediately with v.
func Ready[T any](v T) Future[T] {
	return ready[T]{v}
}

func (r ready[T]) Poll(*Context) (T, bool) {
	return r.v, true
}

// YieldNow returns a future that lets the other queued tasks run once
// before it completes.
func YieldNow() Future[struct{}] {
	yielded := false
	return FutureFunc[struct{}](func(cx *Context) (struct{}, bool) {
		if yielded {
			return struct{}{}, true
		}
		yielded = true
		cx.Waker().Wake()
		return struct{}{}, false
	})
}

// Event is a flag that tasks can wait for. It may be signaled from
// interrupt handlers. The zero Event is unset.
type Event struct {
	state mutex.SpinMutex[eventState, mutex.NoInterruptSpin]
}

type eventState struct {
	set     bool
	waiters []Waker
}

// Signal sets the event and wakes every waiting task.
//
//go:nosplit
func (e *Event) Signal() {
	g := e.state.UnsafeLock()
	s := g.Get()
	s.set = true
	waiters := s.waiters
	s.waiters = nil
	g.Unlock()
	for _, w := range waiters {
		w.Wake()
	}
}

// Reset clears the event.
func (e *Event) Reset() {
	e.state.With(func(s *eventState) {
		s.set = false
	})
}

// IsSet reports whether the event is set.
func (e *Event) IsSet() bool {
	set := false
	e.state.With(func(s *eventState) {
		set = s.set
	})
	return set
}

// Wait returns a future that completes when the event is set.
func (e *Event) Wait() Future[struct{}] {
	return FutureFunc[struct{}](func(cx *Context) (struct{}, bool) {
		g := e.state.Lock()
		defer g.Unlock()
		s := g.Get()
		if s.set {
			return struct{}{}, true
		}
		s.waiters = append(s.waiters, cx.Waker())
		return struct{}{}, false
	})
}
