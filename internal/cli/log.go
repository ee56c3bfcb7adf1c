// Package cli implements the pipscope command-line interface.
//
// pipscope audits the transitive dependencies of Python packages. The
// main commands are:
//   - audit: resolve a package or manifest and report on its dependency
//     tree, licenses, and native-code indicators
//   - graph: render an exported report as DOT or SVG
//   - browse: inspect an exported report interactively
//   - history: list and reopen archived reports
//   - serve: expose the auditor over HTTP
//   - cache: manage the registry response cache
//
// All commands support --verbose (-v) for debug-level logging. The
// logger is built once in the root command and travels through
// context.Context so every command and helper logs consistently.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger builds a timestamped logger writing to w at the given
// level. Timestamps render as "HH:MM:SS.cc".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress captures the start time of an operation so completion can be
// logged with the elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the time elapsed since the tracker was created,
// rounded to the millisecond.
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// ctxKey is a private type for context keys in this package.
type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to the context for retrieval by
// loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, falling back
// to log.Default() so callers always get a usable logger.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
