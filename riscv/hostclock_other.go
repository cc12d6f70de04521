// SPDX-License-Identifier: Unlicense OR MIT

//go:build !linux

package riscv

import "time"

// HostClock returns a clock for Sim.Clock that reads the host's
// monotonic clock, starting from zero.
func HostClock() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
