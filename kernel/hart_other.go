// SPDX-License-Identifier: Unlicense OR MIT

//go:build !riscv64

package kernel

import "yoos.dev/yoos/riscv"

// Off-target the kernel core runs on a software hart.
func defaultHart() riscv.Hart {
	return riscv.NewSim()
}
