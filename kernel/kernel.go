// SPDX-License-Identifier: Unlicense OR MIT

// Package kernel holds the state shared by every part of the kernel
// core: the hart it runs on, the console and the fatal error path.
package kernel

import (
	"fmt"
	"sync/atomic"

	"yoos.dev/yoos/riscv"
)

// Error is an error type usable in kernel code.
type Error string

type hartBox struct {
	h riscv.Hart
}

var current atomic.Pointer[hartBox]

func init() {
	current.Store(&hartBox{defaultHart()})
}

// Hart returns the hart the kernel is running on.
//
//go:nosplit
func Hart() riscv.Hart {
	return current.Load().h
}

// SetHart replaces the current hart and returns the previous one.
// It is meant for boot code running off-target and for tests.
func SetHart(h riscv.Hart) riscv.Hart {
	return current.Swap(&hartBox{h}).h
}

// Fatal prints msg to the console and halts the hart.
//
//go:nosplit
func Fatal(msg string) {
	outputString("fatal error: ")
	outputString(msg)
	outputString("\n")
	Hart().Halt()
	// Only reachable if the hart refused to halt.
	panic(Error(msg))
}

// Fatalf is like Fatal with a formatted message.
func Fatalf(format string, args ...interface{}) {
	Fatal(fmt.Sprintf(format, args...))
}

// FatalError halts the hart with the message of err.
//
//go:nosplit
func FatalError(err error) {
	// The Error method of kernel errors is nosplit, other error
	// types get no such guarantee.
	switch err := err.(type) {
	case Error:
		Fatal(err.Error())
	default:
		Fatal(fmt.Sprint(err))
	}
}

//go:nosplit
func (k Error) Error() string {
	return string(k)
}
