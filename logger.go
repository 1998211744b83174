package tilemap

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// silentHandler drops every record. Enabled reports false at all levels,
// so log calls return before their attributes are built.
type silentHandler struct{}

func (silentHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (silentHandler) Handle(context.Context, slog.Record) error { return nil }
func (silentHandler) WithAttrs([]slog.Attr) slog.Handler        { return silentHandler{} }
func (silentHandler) WithGroup(string) slog.Handler             { return silentHandler{} }

// silent is the logger in place until SetLogger is called.
var silent = slog.New(silentHandler{})

// current holds the package logger.
var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(silent)
}

// SetLogger routes tilemap's diagnostics to l. Nothing is logged until it
// is called; nil switches logging off again.
//
// Editing state is meant for one goroutine, but the logger is not tied to
// it: SetLogger may run on any goroutine, including while a frame is being
// drawn or an AtlasWatcher is polled elsewhere. Records already in flight
// finish on the logger they started with.
//
// What is logged, by level:
//   - [slog.LevelDebug]: scale cache misses and evictions, layer rescales,
//     picker layout rebuilds, decoded atlas files
//   - [slog.LevelInfo]: atlases reloaded from disk
//   - [slog.LevelWarn]: watcher errors and atlas files that failed to decode
//
// To see cache and layout activity while tuning an editor:
//
//	tilemap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	current.Store(l)
}

// Logger returns the logger set by SetLogger, or a silent one. Callers
// should fetch it per use rather than keep it, so later SetLogger calls
// take effect.
func Logger() *slog.Logger {
	return current.Load()
}
