// SPDX-License-Identifier: Unlicense OR MIT

//go:build !riscv64

package trap

import "yoos.dev/yoos/kernel"

// Off-target the trap entries are plain functions. Nothing jumps to
// them; the stvec values only need to be distinct and stable.

func trapFromKernel() {
	kernelTrap()
}

func trapFromUser() {
	kernel.Fatal("trap: user mode is not available on this architecture")
}

func kernelTrapEntry() uintptr {
	return funcPC(trapFromKernel)
}

func userTrapEntry() uintptr {
	return funcPC(trapFromUser)
}

func userReturn(cx *Context) {
	trapFromUser()
}
