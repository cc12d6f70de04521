// SPDX-License-Identifier: Unlicense OR MIT

package riscv

import (
	"sync"
	"sync/atomic"
	"time"
)

// Halted is the panic value of Sim.Halt.
type Halted struct{}

func (Halted) Error() string {
	return "hart halted"
}

// Sim is a software hart. It keeps the CSRs and the floating point
// register file in memory and has a manually advanced clock, which
// makes it suitable for running the kernel core off-target and in
// tests.
//
// Sim is safe for concurrent use, but like the hardware it models it
// has a single interrupt enable bit shared by all callers.
type Sim struct {
	// OnPause, if set, is called by every Pause.
	OnPause func()
	// OnWait, if set, is called by every Wait.
	OnWait func()
	// Clock, if set, replaces the manual clock.
	Clock func() time.Duration

	sstatus atomic.Uint64
	stvec   atomic.Uint64
	scause  atomic.Uint64
	stval   atomic.Uint64
	now     atomic.Int64
	pauses  atomic.Int64
	waits   atomic.Int64

	fmu   sync.Mutex
	fregs [32]float64
	fcsr  uint32
}

var _ Hart = (*Sim)(nil)

// NewSim returns a hart in supervisor mode with interrupts disabled
// and the floating point unit in its initial state.
func NewSim() *Sim {
	s := new(Sim)
	var st Sstatus
	st.SetSPP(Supervisor)
	st.SetFS(FSInitial)
	s.sstatus.Store(uint64(st))
	return s
}

func (s *Sim) ReadSstatus() Sstatus {
	return Sstatus(s.sstatus.Load())
}

func (s *Sim) WriteSstatus(v Sstatus) {
	s.sstatus.Store(uint64(v))
}

func (s *Sim) DisableInterrupts() bool {
	for {
		old := s.sstatus.Load()
		if s.sstatus.CompareAndSwap(old, old&^uint64(SstatusSIE)) {
			return Sstatus(old).SIE()
		}
	}
}

func (s *Sim) EnableInterrupts() {
	for {
		old := s.sstatus.Load()
		if s.sstatus.CompareAndSwap(old, old|uint64(SstatusSIE)) {
			return
		}
	}
}

func (s *Sim) ReadStvec() Stvec {
	return Stvec(s.stvec.Load())
}

func (s *Sim) WriteStvec(addr uintptr, mode TrapMode) {
	s.stvec.Store(uint64(NewStvec(addr, mode)))
}

func (s *Sim) ReadScause() Scause {
	return Scause(s.scause.Load())
}

func (s *Sim) ReadStval() uint64 {
	return s.stval.Load()
}

// SetTrap sets the values of scause and stval, as the hardware does
// on trap entry.
func (s *Sim) SetTrap(cause Scause, stval uint64) {
	s.scause.Store(uint64(cause))
	s.stval.Store(stval)
}

func (s *Sim) Uptime() time.Duration {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Duration(s.now.Load())
}

// Advance moves the manual clock forward.
func (s *Sim) Advance(d time.Duration) {
	s.now.Add(int64(d))
}

func (s *Sim) Pause() {
	s.pauses.Add(1)
	if s.OnPause != nil {
		s.OnPause()
	}
}

// Pauses returns the number of Pause calls so far.
func (s *Sim) Pauses() int {
	return int(s.pauses.Load())
}

func (s *Sim) Wait() {
	s.waits.Add(1)
	if s.OnWait != nil {
		s.OnWait()
	}
}

// Waits returns the number of Wait calls so far.
func (s *Sim) Waits() int {
	return int(s.waits.Load())
}

// Halt panics with Halted.
func (s *Sim) Halt() {
	panic(Halted{})
}

func (s *Sim) SaveFloatRegisters(regs *[32]float64, fcsr *uint32) {
	s.fmu.Lock()
	defer s.fmu.Unlock()
	*regs = s.fregs
	*fcsr = s.fcsr
}

func (s *Sim) RestoreFloatRegisters(regs *[32]float64, fcsr uint32) {
	s.fmu.Lock()
	defer s.fmu.Unlock()
	s.fregs = *regs
	s.fcsr = fcsr
}

// SetFloatRegisters sets the register file, as user code executing
// floating point instructions would. It also marks the unit dirty.
func (s *Sim) SetFloatRegisters(regs [32]float64, fcsr uint32) {
	s.fmu.Lock()
	s.fregs = regs
	s.fcsr = fcsr
	s.fmu.Unlock()
	for {
		old := s.sstatus.Load()
		st := Sstatus(old)
		st.SetFS(FSDirty)
		if s.sstatus.CompareAndSwap(old, uint64(st)) {
			return
		}
	}
}

// FloatRegisters returns a copy of the register file.
func (s *Sim) FloatRegisters() ([32]float64, uint32) {
	s.fmu.Lock()
	defer s.fmu.Unlock()
	return s.fregs, s.fcsr
}
