// SPDX-License-Identifier: Unlicense OR MIT

// Package kerneltest runs kernel code on a software hart in tests.
package kerneltest

import (
	"bytes"
	"sync"
	"testing"

	"yoos.dev/yoos/kernel"
	"yoos.dev/yoos/riscv"
)

// Console is a goroutine-safe console capture.
type Console struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *Console) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(b)
}

func (c *Console) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Setup installs a fresh Sim hart and a captured console for the
// duration of the test.
func Setup(t testing.TB) (*riscv.Sim, *Console) {
	t.Helper()
	h := riscv.NewSim()
	c := new(Console)
	prevHart := kernel.SetHart(h)
	prevConsole := kernel.Console()
	kernel.SetConsole(c)
	t.Cleanup(func() {
		kernel.SetHart(prevHart)
		kernel.SetConsole(prevConsole)
	})
	return h, c
}

// Halts reports whether f halted the hart.
func Halts(f func()) (halted bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(riscv.Halted); !ok {
				panic(r)
			}
			halted = true
		}
	}()
	f()
	return false
}

// MustHalt fails the test unless f halts the hart.
func MustHalt(t testing.TB, f func()) {
	t.Helper()
	if !Halts(f) {
		t.Fatal("expected the hart to halt")
	}
}
