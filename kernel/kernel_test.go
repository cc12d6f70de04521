// SPDX-License-Identifier: Unlicense OR MIT

package kernel_test

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/exp/slog"

	"yoos.dev/yoos/kernel"
	"yoos.dev/yoos/kernel/kerneltest"
)

func TestFatal(t *testing.T) {
	_, c := kerneltest.Setup(t)
	kerneltest.MustHalt(t, func() {
		kernel.Fatal("out of frames")
	})
	if got, want := c.String(), "fatal error: out of frames\n"; got != want {
		t.Errorf("console = %q, want %q", got, want)
	}
}

func TestFatalError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"kernel error", kernel.Error("bad stack"), "fatal error: bad stack\n"},
		{"other error", errors.New("boom"), "fatal error: boom\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := kerneltest.Setup(t)
			kerneltest.MustHalt(t, func() {
				kernel.FatalError(tt.err)
			})
			if got := c.String(); got != tt.want {
				t.Errorf("console = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintUint64(t *testing.T) {
	tests := []struct {
		v    uint64
		want string
	}{
		{0, "0x0"},
		{0x10, "0x10"},
		{0x8020_0000, "0x80200000"},
		{^uint64(0), "0xffffffffffffffff"},
	}
	for _, tt := range tests {
		_, c := kerneltest.Setup(t)
		kernel.PrintUint64(tt.v)
		if got := c.String(); got != tt.want {
			t.Errorf("PrintUint64(%#x) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestLogger(t *testing.T) {
	_, c := kerneltest.Setup(t)
	kernel.Logger().Info("heap ready", "start", 0x1000)
	kernel.Logger().Debug("hidden")
	got := c.String()
	if !strings.HasPrefix(got, "[kernel] level=INFO msg=\"heap ready\" start=4096") {
		t.Errorf("log line = %q", got)
	}
	if strings.Contains(got, "time=") || strings.Contains(got, "hidden") {
		t.Errorf("unexpected log output %q", got)
	}

	kernel.SetLogLevel(slog.LevelDebug)
	defer kernel.SetLogLevel(slog.LevelInfo)
	kernel.Logger().Debug("visible")
	if !strings.Contains(c.String(), "msg=visible") {
		t.Errorf("debug record not logged: %q", c.String())
	}
}

func TestSetHart(t *testing.T) {
	h, _ := kerneltest.Setup(t)
	if kernel.Hart() != h {
		t.Fatal("Hart() does not return the installed hart")
	}
}
