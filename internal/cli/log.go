// Package cli implements the runorder command-line interface.
//
// The commands discover component declarations, resolve their execution
// order and expose it as text, JSON, Graphviz output, a file watcher or an
// HTTP service. Configuration comes from viper (flags, .runorder.toml, the
// user config directory and RUNORDER_* variables).
//
// # Commands
//
//   - resolve: print the execution order
//   - inspect: list declarations or matched files
//   - validate: check required dependencies and version constraints
//   - graph: render the ordering graph as DOT or SVG
//   - watch: re-resolve when declaration files change
//   - serve: serve the order over HTTP
//   - cache: clear, invalidate or locate the cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so library calls share the same output.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/runorder/pkg/pipeline"
)

// newLogger writes to w at level with short "15:04:05.00" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one resolve cycle of a long-running command and logs its
// outcome. Not safe for concurrent use.
type progress struct {
	logger  *log.Logger
	trigger string
	start   time.Time
}

// newProgress starts timing a cycle; trigger says what caused it
// ("startup", "change").
func newProgress(l *log.Logger, trigger string) *progress {
	return &progress{logger: l, trigger: trigger, start: time.Now()}
}

// done logs the cycle with the size of the resolved order and whether it
// came from the cache.
func (p *progress) done(res *pipeline.Result) {
	sig := res.Signature
	if len(sig) > 12 {
		sig = sig[:12]
	}
	p.logger.Info("resolved",
		"trigger", p.trigger,
		"components", len(res.Resolved),
		"edges", res.Stats.Edges,
		"cached", res.CacheHit,
		"signature", sig,
		"took", time.Since(p.start).Round(time.Millisecond))
}

// failed logs a cycle that ended in an error.
func (p *progress) failed(err error) {
	p.logger.Warn("resolve failed",
		"trigger", p.trigger,
		"err", err,
		"took", time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx so commands and the runner share one logger.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the attached logger, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
