// SPDX-License-Identifier: Unlicense OR MIT

package trap

import (
	"fmt"
	"io"
	"unsafe"

	"yoos.dev/yoos/kernel"
	"yoos.dev/yoos/riscv"
)

// Context is the state of a user task saved on a trap, and the kernel
// state needed to resume the kernel stack that entered the task. The
// exact layout of Context is known to the trap assembly functions;
// see the ctx offset constants.
type Context struct {
	// UserRegs are x0-x31 of the user task.
	UserRegs [32]uint64
	Sstatus  riscv.Sstatus
	Sepc     uint64

	// Kernel registers saved when entering the task, restored when
	// it traps.
	KernelSp uint64
	KernelRa uint64
	KernelS  [12]uint64
	KernelFp uint64
	KernelTp uint64

	Float FloatContext
}

// Byte offsets into Context.
const (
	ctxUserRegs = 0
	ctxSstatus  = 256
	ctxSepc     = 264
	ctxKernelSp = 272
	ctxKernelRa = 280
	ctxKernelS  = 288
	ctxKernelFp = 384
	ctxKernelTp = 392
	ctxFloat    = 400
	ctxFcsr     = ctxFloat + 256
	ctxFlags    = ctxFloat + 260
	ctxSize     = 664
)

// Register numbers.
const (
	regRA = 1
	regSP = 2
	regA0 = 10
	regA7 = 17
)

// NewContext returns the context of a task that starts at entry in
// user mode with the stack pointer sp. Interrupts stay disabled
// through sret and in the task until it enables them.
func NewContext(entry, sp uint64) *Context {
	s := kernel.Hart().ReadSstatus()
	s.SetSPP(riscv.User)
	s.SetSIE(false)
	s.SetSPIE(false)
	s.SetFS(riscv.FSInitial)
	cx := &Context{
		Sstatus: s,
		Sepc:    entry,
	}
	cx.SetSp(sp)
	return cx
}

func (cx *Context) SetSp(sp uint64) {
	cx.UserRegs[regSP] = sp
}

func (cx *Context) Sp() uint64 {
	return cx.UserRegs[regSP]
}

// Arg returns system call argument i, in a0-a5.
func (cx *Context) Arg(i int) uint64 {
	if i < 0 || i > 5 {
		kernel.Fatal("trap: system call argument out of range")
	}
	return cx.UserRegs[regA0+i]
}

// SyscallNumber returns the system call number, in a7.
func (cx *Context) SyscallNumber() uint64 {
	return cx.UserRegs[regA7]
}

// SetReturn sets the value returned to the task in a0.
func (cx *Context) SetReturn(v uint64) {
	cx.UserRegs[regA0] = v
}

// AdvancePC moves the task past the ecall instruction that trapped.
func (cx *Context) AdvancePC() {
	cx.Sepc += 4
}

var regNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// Dump writes the user registers of cx to w.
func (cx *Context) Dump(w io.Writer) {
	fmt.Fprintf(w, "sepc: %#x sstatus: %#x ", cx.Sepc, uint64(cx.Sstatus))
	for i := 1; i < len(cx.UserRegs); i++ {
		fmt.Fprintf(w, "%s: %#x ", regNames[i], cx.UserRegs[i])
	}
	fmt.Fprintf(w, "fcsr: %#x fflags: %#x\n", cx.Float.Fcsr, uint8(cx.Float.Flags))
}

// checkLayout verifies that Context matches the offsets the trap
// assembly uses.
func checkLayout() {
	var cx Context
	if unsafe.Offsetof(cx.UserRegs) != ctxUserRegs ||
		unsafe.Offsetof(cx.Sstatus) != ctxSstatus ||
		unsafe.Offsetof(cx.Sepc) != ctxSepc ||
		unsafe.Offsetof(cx.KernelSp) != ctxKernelSp ||
		unsafe.Offsetof(cx.KernelRa) != ctxKernelRa ||
		unsafe.Offsetof(cx.KernelS) != ctxKernelS ||
		unsafe.Offsetof(cx.KernelFp) != ctxKernelFp ||
		unsafe.Offsetof(cx.KernelTp) != ctxKernelTp ||
		unsafe.Offsetof(cx.Float) != ctxFloat {
		kernel.Fatal("trap: unexpected Context field offset")
	}
	if ctxFloat+unsafe.Offsetof(cx.Float.Fcsr) != ctxFcsr ||
		ctxFloat+unsafe.Offsetof(cx.Float.Flags) != ctxFlags ||
		unsafe.Sizeof(cx) != ctxSize {
		kernel.Fatal("trap: unexpected FloatContext layout")
	}
}
