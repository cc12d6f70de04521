// SPDX-License-Identifier: Unlicense OR MIT

package mutex

import "yoos.dev/yoos/kernel"

// IRQGuard records the supervisor interrupt enable bit as it was
// before DisableIRQ. Guards nest: an inner guard restores to disabled
// if the outer guard had already disabled interrupts. A guard must
// not be copied.
type IRQGuard struct {
	wasEnabled bool
	restored   bool
}

// DisableIRQ disables interrupts on the current hart. The caller must
// call Restore on the returned guard when the critical section ends.
//
//go:nosplit
func DisableIRQ() IRQGuard {
	return IRQGuard{wasEnabled: kernel.Hart().DisableInterrupts()}
}

// Restore re-enables interrupts if they were enabled when the guard
// was created.
//
//go:nosplit
func (g *IRQGuard) Restore() {
	if g.restored {
		kernel.Fatal("mutex: IRQ guard restored twice")
	}
	g.restored = true
	if g.wasEnabled {
		kernel.Hart().EnableInterrupts()
	}
}
