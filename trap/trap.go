// SPDX-License-Identifier: Unlicense OR MIT

// Package trap sets up the supervisor trap vector and moves a hart
// between the kernel and user tasks.
//
// While the kernel runs, stvec points to trapFromKernel. Right before
// a user task is entered it is switched to trapFromUser, and back when
// the task traps.
package trap

import (
	"strconv"
	"sync/atomic"
	"unsafe"

	"yoos.dev/yoos/kernel"
	"yoos.dev/yoos/mutex"
	"yoos.dev/yoos/riscv"
)

// InterruptHandler handles an interrupt taken in the kernel or in a
// user task. It runs with interrupts disabled.
type InterruptHandler func(cause riscv.Scause)

var interruptHandler atomic.Pointer[InterruptHandler]

// enterUser resumes cx in user mode and returns when the task traps.
var enterUser = userReturn

// Init checks the Context layout and installs the kernel trap vector.
func Init() {
	checkLayout()
	SetKernelTrap()
	kernel.Logger().Debug("trap vector installed", "stvec", strconv.FormatUint(uint64(kernelTrapEntry()), 16))
}

// SetInterruptHandler registers h for interrupts. A nil h removes the
// handler; interrupts are then fatal.
func SetInterruptHandler(h InterruptHandler) {
	if h == nil {
		interruptHandler.Store(nil)
		return
	}
	interruptHandler.Store(&h)
}

// SetKernelTrap directs traps to the kernel trap handler.
//
//go:nosplit
func SetKernelTrap() {
	kernel.Hart().WriteStvec(kernelTrapEntry(), riscv.Direct)
}

// SetUserTrap directs traps to the user trap entry. It must only be
// called with interrupts disabled, right before entering user mode.
//
//go:nosplit
func SetUserTrap() {
	kernel.Hart().WriteStvec(userTrapEntry(), riscv.Direct)
}

// RunUser runs the task of cx until it traps and returns the cause.
// Interrupts taken by the task are passed to the interrupt handler
// before RunUser returns; everything else is left to the caller. The
// interrupt state of the caller is restored on return.
func RunUser(cx *Context) riscv.Scause {
	h := kernel.Hart()
	irq := mutex.DisableIRQ()
	defer irq.Restore()
	cx.Float.Restore()
	SetUserTrap()
	enterUser(cx)
	SetKernelTrap()
	cx.Float.MarkSaveIfNeeded(cx.Sstatus)
	if cx.Sstatus.FS() == riscv.FSDirty {
		cx.Sstatus.SetFS(riscv.FSClean)
	}
	cause := h.ReadScause()
	if cause.IsInterrupt() {
		dispatchInterrupt(cause)
	}
	return cause
}

// kernelTrap is called by trapFromKernel with the interrupted
// registers saved.
//
//go:nosplit
func kernelTrap() {
	h := kernel.Hart()
	cause := h.ReadScause()
	if !cause.IsInterrupt() {
		kernel.Print("kernel trap: " + cause.String() + " stval: ")
		kernel.PrintUint64(h.ReadStval())
		kernel.Print("\n")
		kernel.Fatal("trap: exception in kernel mode")
	}
	dispatchInterrupt(cause)
}

func dispatchInterrupt(cause riscv.Scause) {
	hp := interruptHandler.Load()
	if hp == nil {
		kernel.Fatal("trap: unexpected interrupt: " + cause.String())
	}
	(*hp)(cause)
}

// funcPC returns the entry address of f.
func funcPC(f func()) uintptr {
	return **(**uintptr)(unsafe.Pointer(&f))
}
