// SPDX-License-Identifier: Unlicense OR MIT

package trap

// Implemented in assembly.

func trapFromKernel()
func trapFromUser()

// kernelTrapEntry and userTrapEntry return the addresses of the
// assembly entry points, not of their Go ABI wrappers.
func kernelTrapEntry() uintptr
func userTrapEntry() uintptr

//go:noescape
func userReturn(cx *Context)
