// Package cli implements the deptree command-line interface.
//
// # Commands
//
//   - resolve: Resolve a package (or a local package.json) into a tree
//   - render: Render a saved tree.json as text, DOT, SVG, PDF or PNG
//   - serve: Serve resolved trees over HTTP
//   - cache: Manage the registry response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// surfaces the resolver's cycle, range and depth decisions. Loggers are
// passed through context.Context.
//
// # Configuration
//
// Settings come from the TOML file named by --config (see the config
// package); command flags override them.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w at level, with "HH:MM:SS.ms"
// timestamps (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// isVerbose reports whether l emits debug records. Commands skip the
// spinner in that case so it does not interleave with log lines.
func isVerbose(l *log.Logger) bool {
	return l.GetLevel() <= log.DebugLevel
}

// progress logs the completion of an operation with its elapsed time.
// It is not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs the formatted message followed by the elapsed time, rounded to
// the millisecond, e.g. "Resolved express@4.18.2: 42 packages (1.234s)".
func (p *progress) done(format string, args ...any) {
	p.logger.Infof("%s (%s)", fmt.Sprintf(format, args...), time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a copy of ctx carrying l.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() when there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
