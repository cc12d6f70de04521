// SPDX-License-Identifier: Unlicense OR MIT

package riscv

import (
	"time"

	"golang.org/x/sys/unix"
)

// HostClock returns a clock for Sim.Clock that reads the host's
// monotonic clock, starting from zero.
func HostClock() func() time.Duration {
	start := monotonic()
	return func() time.Duration {
		return monotonic() - start
	}
}

func monotonic() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		panic(err)
	}
	return time.Duration(ts.Nano())
}
