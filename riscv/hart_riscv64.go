// SPDX-License-Identifier: Unlicense OR MIT

package riscv

import (
	"time"

	"yoos.dev/yoos/config"
)

// Machine is the hart the kernel is running on.
type Machine struct{}

var _ Hart = Machine{}

//go:nosplit
func (Machine) ReadSstatus() Sstatus {
	return Sstatus(readSstatus())
}

//go:nosplit
func (Machine) WriteSstatus(s Sstatus) {
	writeSstatus(uint64(s))
}

//go:nosplit
func (Machine) DisableInterrupts() bool {
	return Sstatus(clearSIE()).SIE()
}

//go:nosplit
func (Machine) EnableInterrupts() {
	setSIE()
}

//go:nosplit
func (Machine) ReadStvec() Stvec {
	return Stvec(readStvec())
}

//go:nosplit
func (Machine) WriteStvec(addr uintptr, mode TrapMode) {
	writeStvec(uint64(NewStvec(addr, mode)))
}

//go:nosplit
func (Machine) ReadScause() Scause {
	return Scause(readScause())
}

//go:nosplit
func (Machine) ReadStval() uint64 {
	return readStval()
}

//go:nosplit
func (Machine) Uptime() time.Duration {
	ticks := readTime()
	// Split to avoid overflowing the multiplication.
	secs := ticks / config.ClockFrequency
	rem := ticks % config.ClockFrequency
	return time.Duration(secs)*time.Second + time.Duration(rem*1e9/config.ClockFrequency)
}

//go:nosplit
func (Machine) Pause() {
	pause()
}

//go:nosplit
func (Machine) Wait() {
	wfi()
}

//go:nosplit
func (Machine) Halt() {
	clearSIE()
	for {
		wfi()
	}
}

//go:nosplit
func (Machine) SaveFloatRegisters(regs *[32]float64, fcsr *uint32) {
	*fcsr = saveFloat(regs)
}

//go:nosplit
func (Machine) RestoreFloatRegisters(regs *[32]float64, fcsr uint32) {
	restoreFloat(regs, fcsr)
}

func readSstatus() uint64
func writeSstatus(v uint64)
func clearSIE() uint64
func setSIE()
func readStvec() uint64
func writeStvec(v uint64)
func readScause() uint64
func readStval() uint64
func readTime() uint64
func pause()
func wfi()

//go:noescape
func saveFloat(regs *[32]float64) (fcsr uint32)

//go:noescape
func restoreFloat(regs *[32]float64, fcsr uint32)
