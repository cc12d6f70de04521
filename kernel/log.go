// SPDX-License-Identifier: Unlicense OR MIT

package kernel

import (
	"io"
	"sync/atomic"

	"golang.org/x/exp/slog"

	"yoos.dev/yoos/config"
)

var (
	logLevel slog.LevelVar
	logger   atomic.Pointer[slog.Logger]
)

func init() {
	logLevel.Set(slog.Level(config.LogLevel))
	resetLogger()
}

// Logger returns the kernel logger. Records go to the console, one
// line each, prefixed with "[kernel]". There is no wall clock in the
// kernel, so records carry no time.
func Logger() *slog.Logger {
	return logger.Load()
}

// SetLogLevel sets the minimum level of logged records.
func SetLogLevel(l slog.Level) {
	logLevel.Set(l)
}

func resetLogger() {
	h := slog.NewTextHandler(prefixWriter{"[kernel] "}, &slog.HandlerOptions{
		Level: &logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})
	logger.Store(slog.New(h))
}

// prefixWriter writes to the current console. The text handler
// writes each record in a single Write.
type prefixWriter struct {
	prefix string
}

func (p prefixWriter) Write(b []byte) (int, error) {
	w := Console()
	if _, err := io.WriteString(w, p.prefix); err != nil {
		return 0, err
	}
	return w.Write(b)
}
