// SPDX-License-Identifier: Unlicense OR MIT

package sched

import (
	"reflect"
	"strings"
	"testing"

	"yoos.dev/yoos/kernel/kerneltest"
	"yoos.dev/yoos/mutex"
)

func resetGlobal(t *testing.T) {
	prev := global.Swap(nil)
	t.Cleanup(func() { global.Store(prev) })
}

// yielder returns a task that logs its name on every poll and yields
// until it has been polled n times.
func yielder(name string, n int, log *[]string) Future[int] {
	polls := 0
	return FutureFunc[int](func(cx *Context) (int, bool) {
		*log = append(*log, name)
		polls++
		if polls == n {
			return polls, true
		}
		cx.Waker().Wake()
		return 0, false
	})
}

func TestRunQueue(t *testing.T) {
	var q runQueue
	rs := make([]*Runnable, 20)
	for i := range rs {
		rs[i] = new(Runnable)
	}
	// Enough to wrap and grow the ring.
	for i := 0; i < 10; i++ {
		q.pushBack(rs[10+i])
		q.pushFront(rs[9-i])
	}
	if q.len() != 20 {
		t.Fatalf("len = %d, want 20", q.len())
	}
	for i, want := range rs {
		if got := q.popFront(); got != want {
			t.Fatalf("pop %d returned the wrong runnable", i)
		}
	}
	if q.popFront() != nil {
		t.Error("pop from empty queue returned a runnable")
	}
}

func TestYieldTakesTurns(t *testing.T) {
	kerneltest.Setup(t)
	e := NewExecutor()
	var log []string
	for _, name := range []string{"a", "b", "c"} {
		r, _ := SpawnOn(e, yielder(name, 3, &log))
		r.Schedule()
	}
	// Fresh tasks go to the front, so c runs first. A task woken by
	// its own poll goes to the back.
	n := e.RunUntilIdle()
	want := []string{"c", "b", "a", "c", "b", "a", "c", "b", "a"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("poll order = %v, want %v", log, want)
	}
	if n != 9 {
		t.Errorf("RunUntilIdle = %d, want 9", n)
	}
	if e.Tasks() != 0 {
		t.Errorf("%d tasks left", e.Tasks())
	}
}

func TestOutsideWakeGoesFirst(t *testing.T) {
	// Each case runs task alongside a task w waiting on ev.
	tests := []struct {
		name  string
		task  func(ev *Event, log *[]string) Future[int]
		drive func(t *testing.T, e *Executor, ev *Event)
		want  []string
	}{
		{
			name: "wake after yield",
			task: func(ev *Event, log *[]string) Future[int] {
				return yielder("y", 10, log)
			},
			drive: func(t *testing.T, e *Executor, ev *Event) {
				e.RunOne() // w blocks on the event
				e.RunOne() // y yields to the back
				e.RunOne() // y again
				ev.Signal()
				e.RunOne()
			},
			want: []string{"w", "y", "y", "w"},
		},
		{
			name: "wake during yield",
			task: func(ev *Event, log *[]string) Future[int] {
				polls := 0
				return FutureFunc[int](func(cx *Context) (int, bool) {
					*log = append(*log, "y")
					polls++
					if polls == 2 {
						return polls, true
					}
					// The waiter is woken before y wakes itself.
					ev.Signal()
					cx.Waker().Wake()
					return 0, false
				})
			},
			drive: func(t *testing.T, e *Executor, ev *Event) {
				e.RunOne() // w blocks on the event
				if n := e.RunUntilIdle(); n != 3 {
					t.Errorf("RunUntilIdle = %d, want 3", n)
				}
			},
			want: []string{"w", "y", "w", "y"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kerneltest.Setup(t)
			e := NewExecutor()
			var ev Event
			var log []string
			r, _ := SpawnOn(e, tt.task(&ev, &log))
			r.Schedule()
			waiter := ev.Wait()
			r, _ = SpawnOn[struct{}](e, FutureFunc[struct{}](func(cx *Context) (struct{}, bool) {
				log = append(log, "w")
				return waiter.Poll(cx)
			}))
			r.Schedule()

			tt.drive(t, e, &ev)
			if !reflect.DeepEqual(log, tt.want) {
				t.Errorf("poll order = %v, want %v", log, tt.want)
			}
			if !ev.IsSet() {
				t.Error("event not set")
			}
		})
	}
}

func TestJoin(t *testing.T) {
	kerneltest.Setup(t)
	e := NewExecutor()
	ra, ta := SpawnOn[int](e, FutureFunc[int](func(cx *Context) (int, bool) {
		return 42, true
	}))
	var got int
	rb, tb := SpawnOn[string](e, FutureFunc[string](func(cx *Context) (string, bool) {
		v, ok := ta.Poll(cx)
		got = v
		if !ok {
			return "", false
		}
		return "joined", true
	}))
	ra.Schedule()
	rb.Schedule()
	// b runs first, waits for a, and is woken when a completes.
	if n := e.RunUntilIdle(); n != 3 {
		t.Errorf("RunUntilIdle = %d, want 3", n)
	}
	if got != 42 {
		t.Errorf("joined value = %d, want 42", got)
	}
	if v, ok := tb.Result(); !ok || v != "joined" {
		t.Errorf("Result() = %q, %v", v, ok)
	}
}

func TestReadyAndYieldNow(t *testing.T) {
	kerneltest.Setup(t)
	e := NewExecutor()
	_, t1 := SpawnOn(e, Ready("done"))
	if t1.Done() {
		t.Fatal("task completed before it ran")
	}
	r, _ := SpawnOn(e, Ready(1))
	r.Schedule()
	y := YieldNow()
	r, t2 := SpawnOn(e, y)
	r.Schedule()
	if n := e.RunUntilIdle(); n != 3 {
		t.Errorf("RunUntilIdle = %d, want 3", n)
	}
	if !t2.Done() {
		t.Error("YieldNow task did not complete")
	}
}

func TestConsumedRunnable(t *testing.T) {
	kerneltest.Setup(t)
	e := NewExecutor()
	r, _ := SpawnOn(e, Ready(0))
	r.Schedule()
	kerneltest.MustHalt(t, r.Schedule)
	e.RunUntilIdle()
	kerneltest.MustHalt(t, func() { r.Run() })
}

func TestGuardAcrossSuspension(t *testing.T) {
	_, c := kerneltest.Setup(t)
	e := NewExecutor()
	var m mutex.SpinMutex[int, mutex.NormalSpin]
	var leaked mutex.Guard[int]
	r, _ := SpawnOn[int](e, FutureFunc[int](func(cx *Context) (int, bool) {
		leaked = m.Lock()
		return 0, false
	}))
	r.Schedule()
	kerneltest.MustHalt(t, func() { e.RunUntilIdle() })
	leaked.Unlock()
	if !strings.Contains(c.String(), "guard held across a suspension point") {
		t.Errorf("diagnostic = %q", c.String())
	}
}

func TestUnsafeGuardAcrossSuspension(t *testing.T) {
	kerneltest.Setup(t)
	e := NewExecutor()
	var m mutex.SpinMutex[int, mutex.NormalSpin]
	var g mutex.Guard[int]
	r, _ := SpawnOn[int](e, FutureFunc[int](func(cx *Context) (int, bool) {
		g = m.UnsafeLock()
		return 0, false
	}))
	r.Schedule()
	if kerneltest.Halts(func() { e.RunUntilIdle() }) {
		t.Error("UnsafeLock guard was rejected")
	}
	g.Unlock()
}

func TestGlobalExecutor(t *testing.T) {
	kerneltest.Setup(t)
	resetGlobal(t)
	kerneltest.MustHalt(t, func() { Spawn(Ready(1)) })
	kerneltest.MustHalt(t, func() { RunUntilIdle() })

	Init()
	kerneltest.MustHalt(t, Init)
	r, task := Spawn(Ready(7))
	r.Schedule()
	if n := RunUntilIdle(); n != 1 {
		t.Errorf("RunUntilIdle = %d, want 1", n)
	}
	if v, ok := task.Result(); !ok || v != 7 {
		t.Errorf("Result() = %d, %v", v, ok)
	}
}

func TestRunForeverWaits(t *testing.T) {
	h, _ := kerneltest.Setup(t)
	h.EnableInterrupts()
	e := NewExecutor()
	var ev Event
	r, task := SpawnOn(e, ev.Wait())
	r.Schedule()
	h.OnWait = func() {
		if h.ReadSstatus().SIE() {
			t.Error("waiting with interrupts enabled")
		}
		switch h.Waits() {
		case 1:
			// An interrupt handler signals the event.
			ev.Signal()
		default:
			h.Halt()
		}
	}
	kerneltest.MustHalt(t, e.RunForever)
	if !task.Done() {
		t.Error("task woken during the wait did not run")
	}
	if h.Waits() != 2 {
		t.Errorf("waited %d times, want 2", h.Waits())
	}
}
