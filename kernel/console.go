// SPDX-License-Identifier: Unlicense OR MIT

package kernel

import (
	"io"
	"sync/atomic"
)

type consoleBox struct {
	w io.Writer
}

var console atomic.Pointer[consoleBox]

func init() {
	console.Store(&consoleBox{io.Discard})
}

// SetConsole directs kernel output to w, typically the firmware
// console. Output is discarded until SetConsole is called.
func SetConsole(w io.Writer) {
	console.Store(&consoleBox{w})
	resetLogger()
}

// Console returns the current console writer.
func Console() io.Writer {
	return console.Load().w
}

// Print writes s to the console.
func Print(s string) {
	outputString(s)
}

//go:nosplit
func output(b []byte) {
	console.Load().w.Write(b)
}

//go:nosplit
func outputString(s string) {
	io.WriteString(console.Load().w, s)
}

// PrintUint64 writes v in hexadecimal, without leading zeros.
//
//go:nosplit
func PrintUint64(v uint64) {
	var buf [18]byte
	n := 0
	buf[n], buf[n+1] = '0', 'x'
	n += 2
	onlyZero := true
	for i := 15; i >= 0; i-- {
		// Extract the ith nibble.
		nib := byte((v >> (i * 4)) & 0xf)
		if onlyZero && i > 0 && nib == 0 {
			// Skip leading zeros.
			continue
		}
		onlyZero = false
		switch {
		case nib <= 9:
			buf[n] = nib + '0'
		default:
			buf[n] = nib - 10 + 'a'
		}
		n++
	}
	output(buf[:n])
}
