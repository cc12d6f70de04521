// SPDX-License-Identifier: Unlicense OR MIT

// Package riscv models the supervisor-level state of a RISC-V hart
// that the kernel core reads and writes.
package riscv

// Sstatus is the value of the sstatus CSR.
type Sstatus uint64

// Sstatus bits. See the RISC-V privileged specification, section
// "Supervisor Status Register".
const (
	SstatusSIE  Sstatus = 1 << 1
	SstatusSPIE Sstatus = 1 << 5
	SstatusUBE  Sstatus = 1 << 6
	SstatusSPP  Sstatus = 1 << 8
	SstatusSUM  Sstatus = 1 << 18
	SstatusMXR  Sstatus = 1 << 19
	SstatusSD   Sstatus = 1 << 63

	sstatusFSShift         = 13
	SstatusFS      Sstatus = 3 << sstatusFSShift
)

// FS is the floating point unit state field of sstatus.
type FS uint8

const (
	FSOff FS = iota
	FSInitial
	FSClean
	FSDirty
)

// Privilege is the privilege level recorded in SPP.
type Privilege uint8

const (
	User Privilege = iota
	Supervisor
)

// SIE reports whether supervisor interrupts are enabled.
func (s Sstatus) SIE() bool {
	return s&SstatusSIE != 0
}

func (s *Sstatus) SetSIE(on bool) {
	s.set(SstatusSIE, on)
}

// SPIE reports whether interrupts were enabled before the last trap,
// and will be enabled after the next sret.
func (s Sstatus) SPIE() bool {
	return s&SstatusSPIE != 0
}

func (s *Sstatus) SetSPIE(on bool) {
	s.set(SstatusSPIE, on)
}

// SPP is the privilege level the hart trapped from, and the level
// sret returns to.
func (s Sstatus) SPP() Privilege {
	if s&SstatusSPP != 0 {
		return Supervisor
	}
	return User
}

func (s *Sstatus) SetSPP(p Privilege) {
	s.set(SstatusSPP, p == Supervisor)
}

func (s Sstatus) FS() FS {
	return FS((s & SstatusFS) >> sstatusFSShift)
}

// SetFS sets the floating point state field and keeps the summary
// dirty bit SD consistent with it.
func (s *Sstatus) SetFS(fs FS) {
	*s = *s&^SstatusFS | Sstatus(fs)<<sstatusFSShift
	s.set(SstatusSD, fs == FSDirty)
}

func (s *Sstatus) set(bit Sstatus, on bool) {
	if on {
		*s |= bit
	} else {
		*s &^= bit
	}
}

func (fs FS) String() string {
	switch fs {
	case FSOff:
		return "off"
	case FSInitial:
		return "initial"
	case FSClean:
		return "clean"
	case FSDirty:
		return "dirty"
	}
	return "unknown"
}

func (p Privilege) String() string {
	if p == Supervisor {
		return "supervisor"
	}
	return "user"
}
