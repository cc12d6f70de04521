// SPDX-License-Identifier: Unlicense OR MIT

package riscv

import "strconv"

// Scause is the value of the scause CSR: the interrupt bit and the
// exception or interrupt code.
type Scause uint64

const scauseInterrupt Scause = 1 << 63

// Interrupt codes.
const (
	SupervisorSoft     = 1
	SupervisorTimer    = 5
	SupervisorExternal = 9
)

// Exception codes.
const (
	InstructionMisaligned = 0
	InstructionFault      = 1
	IllegalInstruction    = 2
	Breakpoint            = 3
	LoadMisaligned        = 4
	LoadFault             = 5
	StoreMisaligned       = 6
	StoreFault            = 7
	UserEnvCall           = 8
	SupervisorEnvCall     = 9
	InstructionPageFault  = 12
	LoadPageFault         = 13
	StorePageFault        = 15
)

// InterruptCause returns the scause value of the interrupt code.
func InterruptCause(code uint64) Scause {
	return scauseInterrupt | Scause(code)
}

// ExceptionCause returns the scause value of the exception code.
func ExceptionCause(code uint64) Scause {
	return Scause(code) &^ scauseInterrupt
}

// IsInterrupt reports whether the trap was caused by an interrupt
// rather than an exception.
func (c Scause) IsInterrupt() bool {
	return c&scauseInterrupt != 0
}

func (c Scause) Code() uint64 {
	return uint64(c &^ scauseInterrupt)
}

var interruptNames = map[uint64]string{
	SupervisorSoft:     "supervisor software interrupt",
	SupervisorTimer:    "supervisor timer interrupt",
	SupervisorExternal: "supervisor external interrupt",
}

var exceptionNames = map[uint64]string{
	InstructionMisaligned: "instruction address misaligned",
	InstructionFault:      "instruction access fault",
	IllegalInstruction:    "illegal instruction",
	Breakpoint:            "breakpoint",
	LoadMisaligned:        "load address misaligned",
	LoadFault:             "load access fault",
	StoreMisaligned:       "store address misaligned",
	StoreFault:            "store access fault",
	UserEnvCall:           "environment call from user mode",
	SupervisorEnvCall:     "environment call from supervisor mode",
	InstructionPageFault:  "instruction page fault",
	LoadPageFault:         "load page fault",
	StorePageFault:        "store page fault",
}

func (c Scause) String() string {
	names := exceptionNames
	kind := "exception"
	if c.IsInterrupt() {
		names = interruptNames
		kind = "interrupt"
	}
	if n, ok := names[c.Code()]; ok {
		return n
	}
	return "unknown " + kind + " " + strconv.FormatUint(c.Code(), 10)
}
