// SPDX-License-Identifier: Unlicense OR MIT

// Package mutex provides the kernel's mutual exclusion primitives:
// spin mutexes that optionally mask interrupts on the current hart
// while held.
//
// The locks exclude re-entrant interrupt handlers on one hart. They
// are not a cross-hart synchronization mechanism.
package mutex

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"yoos.dev/yoos/config"
	"yoos.dev/yoos/kernel"
)

// Support selects what a SpinMutex does around the critical section.
// The set of strategies is closed: NormalSpin or NoInterruptSpin.
type Support interface {
	NormalSpin | NoInterruptSpin
	beforeLock() (g IRQGuard, masked bool)
}

// NormalSpin is a spin strategy that leaves interrupts alone. It must
// not be used for data that interrupt handlers touch.
type NormalSpin struct{}

//go:nosplit
func (NormalSpin) beforeLock() (IRQGuard, bool) {
	return IRQGuard{}, false
}

// NoInterruptSpin is a spin strategy that disables interrupts for as
// long as the mutex is held, so an interrupt handler on the same hart
// cannot deadlock against the interrupted holder.
type NoInterruptSpin struct{}

//go:nosplit
func (NoInterruptSpin) beforeLock() (IRQGuard, bool) {
	return DisableIRQ(), true
}

// SpinMutex protects a value of type T. The zero value is an unlocked
// mutex holding the zero T.
type SpinMutex[T any, S Support] struct {
	locked atomic.Bool
	_      cpu.CacheLinePad
	class  string
	data   T
}

// Guard gives access to the value of a locked SpinMutex. Unlock
// releases it; use defer so the mutex is released on every path out
// of the critical section, panics included.
type Guard[T any] struct {
	locked   *atomic.Bool
	data     *T
	irq      IRQGuard
	masked   bool
	counted  bool
	class    int
	released bool
}

// held is the number of live guards from Lock and TryLock.
var held atomic.Int32

// New returns a mutex holding v.
func New[T any, S Support](v T) *SpinMutex[T, S] {
	return &SpinMutex[T, S]{data: v}
}

// Named is like New, but the mutex takes part in lock order tracking
// under the class name.
func Named[T any, S Support](class string, v T) *SpinMutex[T, S] {
	return &SpinMutex[T, S]{class: class, data: v}
}

// Held returns the number of live guards obtained from Lock or
// TryLock. Guards from UnsafeLock are not counted.
func Held() int {
	return int(held.Load())
}

// Lock acquires the mutex, spinning until it is free. If the wait
// exceeds config.DeadlockThreshold the kernel halts.
//
// The guard must not be held across a task suspension point.
//
//go:nosplit
func (m *SpinMutex[T, S]) Lock() Guard[T] {
	g := m.lock()
	g.counted = true
	held.Add(1)
	return g
}

// UnsafeLock is like Lock, but the guard is exempt from the check
// that no guard is held across a task suspension point. The caller
// guarantees that no task switch happens while the guard is live.
//
//go:nosplit
func (m *SpinMutex[T, S]) UnsafeLock() Guard[T] {
	return m.lock()
}

// TryLock acquires the mutex if it is free.
func (m *SpinMutex[T, S]) TryLock() (Guard[T], bool) {
	var s S
	irq, masked := s.beforeLock()
	if !m.locked.CompareAndSwap(false, true) {
		if masked {
			irq.Restore()
		}
		return Guard[T]{}, false
	}
	held.Add(1)
	return Guard[T]{
		locked:  &m.locked,
		data:    &m.data,
		irq:     irq,
		masked:  masked,
		counted: true,
		class:   acquireOrder(m.class),
	}, true
}

// With calls f with the value while holding the mutex.
func (m *SpinMutex[T, S]) With(f func(v *T)) {
	g := m.Lock()
	defer g.Unlock()
	f(g.Get())
}

//go:nosplit
func (m *SpinMutex[T, S]) lock() Guard[T] {
	var s S
	irq, masked := s.beforeLock()
	if !m.locked.CompareAndSwap(false, true) {
		m.wait()
	}
	return Guard[T]{
		locked: &m.locked,
		data:   &m.data,
		irq:    irq,
		masked: masked,
		class:  acquireOrder(m.class),
	}
}

// wait spins until the mutex is acquired.
//
//go:nosplit
func (m *SpinMutex[T, S]) wait() {
	h := kernel.Hart()
	start := h.Uptime()
	for {
		for m.locked.Load() {
			h.Pause()
			if h.Uptime()-start > config.DeadlockThreshold {
				m.deadlock()
			}
		}
		if m.locked.CompareAndSwap(false, true) {
			return
		}
	}
}

func (m *SpinMutex[T, S]) deadlock() {
	class := m.class
	if class == "" {
		class = "unnamed"
	}
	kernel.Print("spin mutex deadlock: " + class + " held for more than " + config.DeadlockThreshold.String() + "\n")
	if orderTracking.Load() {
		ReportOrder(kernel.Console())
	}
	kernel.Fatal("mutex: deadlock detected")
}

// Get returns the protected value. The pointer must not be used after
// Unlock.
//
//go:nosplit
func (g *Guard[T]) Get() *T {
	if g.released || g.data == nil {
		kernel.Fatal("mutex: use of released guard")
	}
	return g.data
}

// Unlock releases the mutex, then restores the interrupt state if the
// strategy masked interrupts.
//
//go:nosplit
func (g *Guard[T]) Unlock() {
	if g.released || g.locked == nil {
		kernel.Fatal("mutex: unlock of unlocked spin mutex")
	}
	g.released = true
	releaseOrder(g.class)
	if g.counted {
		held.Add(-1)
	}
	g.locked.Store(false)
	if g.masked {
		g.irq.Restore()
	}
}
