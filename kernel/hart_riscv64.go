// SPDX-License-Identifier: Unlicense OR MIT

package kernel

import "yoos.dev/yoos/riscv"

func defaultHart() riscv.Hart {
	return riscv.Machine{}
}
