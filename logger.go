package chartgpu

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/chartgpu/internal/gpu"
	"github.com/gogpu/chartgpu/internal/renderer"
	"github.com/gogpu/chartgpu/internal/sched"
	"github.com/gogpu/chartgpu/internal/store"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for chartgpu and all its sub-packages.
// By default, chartgpu produces no log output. Call SetLogger to enable it.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by chartgpu:
//   - [slog.LevelDebug]: internal diagnostics (buffer growth, dirty flags, frame timing)
//   - [slog.LevelInfo]: important lifecycle events (adapter selected, chart disposed)
//   - [slog.LevelWarn]: non-fatal issues (stride mismatch, cleanup errors, dropped frames)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	chartgpu.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full diagnostics:
//	chartgpu.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	// Propagate to the internal packages. They keep their own copy to avoid
	// an import cycle with this package.
	gpu.SetLogger(l)
	sched.SetLogger(l)
	store.SetLogger(l)
	renderer.SetLogger(l)
}

// Logger returns the current logger used by chartgpu.
// Sub-packages (internal/gpu, internal/sched, bridge) call this to share the
// same logger configuration without introducing import cycles.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
