// SPDX-License-Identifier: Unlicense OR MIT

package riscv

import "time"

// TrapMode is the MODE field of stvec.
type TrapMode uint8

const (
	// Direct sends all traps to the BASE address.
	Direct TrapMode = 0
	// Vectored sends interrupts to BASE+4*cause.
	Vectored TrapMode = 1
)

// Stvec is the value of the stvec CSR.
type Stvec uint64

// NewStvec encodes a trap vector. The address must be 4 byte aligned.
func NewStvec(addr uintptr, mode TrapMode) Stvec {
	return Stvec(uint64(addr)&^3 | uint64(mode))
}

func (v Stvec) Address() uintptr {
	return uintptr(v &^ 3)
}

func (v Stvec) Mode() TrapMode {
	return TrapMode(v & 3)
}

// Hart is the set of hart capabilities the kernel core uses. The
// machine implementation is only available on riscv64; Sim implements
// it in software.
type Hart interface {
	ReadSstatus() Sstatus
	WriteSstatus(s Sstatus)

	// DisableInterrupts clears sstatus.SIE and reports whether it was
	// set, in one atomic step.
	DisableInterrupts() (wasEnabled bool)
	// EnableInterrupts sets sstatus.SIE.
	EnableInterrupts()

	ReadStvec() Stvec
	WriteStvec(addr uintptr, mode TrapMode)

	ReadScause() Scause
	ReadStval() uint64

	// Uptime is the time elapsed since the hart was reset.
	Uptime() time.Duration

	// Pause is a spin-wait hint.
	Pause()
	// Wait stalls the hart until an interrupt may be pending.
	Wait()
	// Halt stops the hart. It does not return on hardware.
	Halt()

	// SaveFloatRegisters stores f0-f31 and fcsr.
	SaveFloatRegisters(regs *[32]float64, fcsr *uint32)
	// RestoreFloatRegisters loads f0-f31 and fcsr.
	RestoreFloatRegisters(regs *[32]float64, fcsr uint32)
}
