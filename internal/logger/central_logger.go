package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "time/tzdata" // LoadLocation must work on hosts without a zoneinfo database
)

const (
	// traceLevelValue sits below slog.LevelDebug (-4)
	traceLevelValue = slog.Level(-8)

	// floatPrecisionRatio rounds floats to 3 decimal places in log output
	floatPrecisionRatio = 1000.0

	logDirPermissions = 0o700
)

type contextKey struct{ name string }

// TraceIDKey is the context key carrying a request trace id. Use WithTraceID to set it.
var TraceIDKey = contextKey{"trace_id"}

// WithTraceID returns a new context carrying traceID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// TraceIDFromContext returns the trace id stored in ctx or ""
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// CentralLogger owns the log outputs of the process and hands out module loggers.
// File writers are keyed by path, so the main file and module files never open
// the same path twice.
type CentralLogger struct {
	cfg     LoggingConfig
	tz      *time.Location
	console slog.Handler // nil when console output is disabled
	main    slog.Handler

	mu      sync.RWMutex
	writers map[string]*BufferedFileWriter
}

// NewCentralLogger opens the configured outputs. Close must be called on shutdown
// to flush buffered file output.
func NewCentralLogger(cfg *LoggingConfig) (*CentralLogger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("logging config cannot be nil")
	}

	tz, err := loadTimezone(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	cl := &CentralLogger{
		cfg:     *cfg,
		tz:      tz,
		writers: make(map[string]*BufferedFileWriter),
	}
	cl.cfg.DefaultLevel = orDefault(cfg.DefaultLevel, DefaultLogLevel)

	if err := cl.openOutputs(); err != nil {
		_ = cl.Close()
		return nil, err
	}
	return cl, nil
}

func loadTimezone(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	tz, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", name, err)
	}
	return tz, nil
}

func (cl *CentralLogger) openOutputs() error {
	if cl.cfg.Console.Enabled {
		cl.console = newTextHandler(os.Stdout, parseLogLevel(orDefault(cl.cfg.Console.Level, cl.cfg.DefaultLevel)), cl.tz)
	}

	var mainFile slog.Handler
	if cl.cfg.File.Enabled {
		w, err := cl.writer(orDefault(cl.cfg.File.Path, DefaultLogPath))
		if err != nil {
			return err
		}
		mainFile = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: parseLogLevel(orDefault(cl.cfg.File.Level, cl.cfg.DefaultLevel)),
		})
	}

	// with every output disabled the process still logs to stdout
	cl.main = joinHandlers(cl.console, mainFile)
	if cl.main == nil {
		cl.main = newTextHandler(os.Stdout, parseLogLevel(cl.cfg.DefaultLevel), cl.tz)
	}

	for name, m := range cl.cfg.Modules {
		if m.File == "" {
			continue
		}
		if _, err := cl.writer(m.File); err != nil {
			return fmt.Errorf("module %s: %w", name, err)
		}
	}
	return nil
}

// writer returns the shared writer for path, opening it on first use
func (cl *CentralLogger) writer(path string) (*BufferedFileWriter, error) {
	if w, ok := cl.writers[path]; ok {
		return w, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, logDirPermissions); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}
	w, err := NewBufferedFileWriter(path)
	if err != nil {
		return nil, err
	}
	cl.writers[path] = w
	return w, nil
}

// joinHandlers fans out to the non-nil handlers; nil when there are none
func joinHandlers(handlers ...slog.Handler) slog.Handler {
	var set []slog.Handler
	for _, h := range handlers {
		if h != nil {
			set = append(set, h)
		}
	}
	switch len(set) {
	case 0:
		return nil
	case 1:
		return set[0]
	default:
		return newFanoutHandler(set...)
	}
}

// Module returns the logger for a top-level module such as "catalog" or "api".
// Nested names are built with Logger.Module and inherit the parent's outputs.
func (cl *CentralLogger) Module(name string) Logger {
	if cl == nil {
		return nil
	}

	m := cl.cfg.Modules[name]
	level := parseLogLevel(orDefault(m.Level, cl.cfg.DefaultLevel))

	cl.mu.RLock()
	handler := cl.main
	if w, ok := cl.writers[m.File]; m.File != "" && ok {
		file := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
		handler = file
		if m.ConsoleAlso && cl.console != nil {
			handler = newFanoutHandler(file, cl.console)
		}
	}
	cl.mu.RUnlock()

	return &moduleLogger{
		module:   name,
		logger:   slog.New(handler),
		level:    level,
		timezone: cl.tz,
		flush:    cl.Flush,
	}
}

// Flush writes buffered file output to the OS. Close also syncs to disk.
func (cl *CentralLogger) Flush() error {
	if cl == nil {
		return nil
	}
	cl.mu.RLock()
	defer cl.mu.RUnlock()

	var errs []error
	for path, w := range cl.writers {
		if err := w.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// Close flushes and closes every file output. Loggers handed out earlier keep
// working but their file records are dropped.
func (cl *CentralLogger) Close() error {
	if cl == nil {
		return nil
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()

	var errs []error
	for path, w := range cl.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", path, err))
		}
	}
	clear(cl.writers)
	return errors.Join(errs...)
}

// parseLogLevel converts a config level string to slog.Level; unknown values mean info
func parseLogLevel(level string) slog.Level {
	switch level {
	case "trace":
		return traceLevelValue
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
