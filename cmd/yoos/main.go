// SPDX-License-Identifier: Unlicense OR MIT

// Command yoos boots the kernel core on a software hart and runs a few
// tasks through the executor.
package main

import (
	"flag"
	"os"

	"golang.org/x/exp/slog"

	"yoos.dev/yoos/kernel"
	"yoos.dev/yoos/mm"
	"yoos.dev/yoos/mutex"
	"yoos.dev/yoos/riscv"
	"yoos.dev/yoos/sched"
	"yoos.dev/yoos/trap"
)

const logo = `
__   __          ___  ____
\ \ / /__   ___ / _ \/ ___|
 \ V / _ \ / _ \ | | \___ \
  | | (_) | (_) | |_| |___) |
  |_|\___/ \___/ \___/|____/

`

var (
	debug     = flag.Bool("debug", false, "log debug records")
	lockOrder = flag.Bool("lockorder", true, "track spin mutex acquisition order")
)

func main() {
	flag.Parse()
	kernel.SetConsole(os.Stdout)
	h := riscv.NewSim()
	h.Clock = riscv.HostClock()
	kernel.SetHart(h)
	if *debug {
		kernel.SetLogLevel(slog.LevelDebug)
	}
	mutex.TrackOrder(*lockOrder)

	kernel.Print(logo)
	mm.InitHeap()
	trap.Init()
	sched.Init()

	var tick sched.Event
	onInterrupt := func(cause riscv.Scause) {
		if cause.Code() == riscv.SupervisorTimer {
			tick.Signal()
		}
	}
	trap.SetInterruptHandler(onInterrupt)
	h.EnableInterrupts()

	spawnDemo(&tick)
	n := sched.RunUntilIdle()
	kernel.Logger().Info("executor idle", "polls", n)

	// The software hart has no timer; deliver its interrupt by hand.
	h.SetTrap(riscv.InterruptCause(riscv.SupervisorTimer), 0)
	onInterrupt(h.ReadScause())
	n = sched.RunUntilIdle()
	kernel.Logger().Info("executor idle", "polls", n)

	s := mm.KernelStats()
	kernel.Logger().Info("kernel heap", "user", s.User, "allocated", s.Allocated, "total", s.Total)
	if err := mm.VerifyKernelHeap(); err != nil {
		kernel.FatalError(err)
	}
	if *lockOrder {
		mutex.ReportOrder(kernel.Console())
	}
	if *debug {
		trap.NewContext(0x8040_0000, 0x8100_0000).Dump(kernel.Console())
	}
}

func spawnDemo(tick *sched.Event) {
	log := kernel.Logger()

	_, alloc := spawn(allocator(4))
	_, count := spawn(counter(3))

	waitTick := tick.Wait()
	spawn[struct{}](sched.FutureFunc[struct{}](func(cx *sched.Context) (struct{}, bool) {
		if _, ok := waitTick.Poll(cx); !ok {
			return struct{}{}, false
		}
		log.Info("timer tick")
		return struct{}{}, true
	}))

	spawn[int](sched.FutureFunc[int](func(cx *sched.Context) (int, bool) {
		blocks, ok := alloc.Poll(cx)
		if !ok {
			return 0, false
		}
		yields, ok := count.Poll(cx)
		if !ok {
			return 0, false
		}
		log.Info("demo tasks joined", "blocks", blocks, "yields", yields)
		return blocks + yields, true
	}))
}

func spawn[T any](f sched.Future[T]) (*sched.Runnable, *sched.Task[T]) {
	r, t := sched.Spawn(f)
	r.Schedule()
	return r, t
}

// allocator returns a task that allocates n heap blocks, one per poll,
// then frees them.
func allocator(n int) sched.Future[int] {
	l := mm.Layout{Size: 256, Align: 16}
	var blocks []uintptr
	return sched.FutureFunc[int](func(cx *sched.Context) (int, bool) {
		if len(blocks) < n {
			p := mm.Alloc(l)
			if p == 0 {
				mm.HandleAllocError(l)
			}
			b := mm.Bytes(p, int(l.Size))
			b[0] = byte(len(blocks))
			blocks = append(blocks, p)
			cx.Waker().Wake()
			return 0, false
		}
		for _, p := range blocks {
			mm.Dealloc(p, l)
		}
		return len(blocks), true
	})
}

// counter returns a task that yields n times.
func counter(n int) sched.Future[int] {
	yields := 0
	var y sched.Future[struct{}]
	return sched.FutureFunc[int](func(cx *sched.Context) (int, bool) {
		for yields < n {
			if y == nil {
				y = sched.YieldNow()
			}
			if _, ok := y.Poll(cx); !ok {
				return 0, false
			}
			y = nil
			yields++
		}
		return yields, true
	})
}
