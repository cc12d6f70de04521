// SPDX-License-Identifier: Unlicense OR MIT

// Package config holds the compile-time parameters of the kernel.
package config

import "time"

const (
	// KernelHeapSize is the size of the static kernel heap arena.
	KernelHeapSize = 0x30_0000

	// HeapOrder is the number of buddy free lists. Blocks range from
	// 1 byte to 1<<(HeapOrder-1) bytes.
	HeapOrder = 32

	// ClockFrequency is the frequency of the time CSR on QEMU virt.
	ClockFrequency = 12_500_000

	// DeadlockThreshold is how long a spin mutex waiter may spin
	// before the kernel declares a deadlock.
	DeadlockThreshold = 15 * time.Second

	// LogLevel is the initial kernel log level. Lower is more verbose,
	// matching slog levels: -4 debug, 0 info, 4 warn, 8 error.
	LogLevel = 0
)
