// Package logger provides a structured, module-aware logging system built on Go's standard log/slog.
//
// Components never create their own slog handlers. They receive a Logger scoped to
// their module from the CentralLogger created at startup:
//
//	central, err := logger.NewCentralLogger(&settings.Logging)
//	if err != nil {
//	    return err
//	}
//	defer central.Close()
//
//	catalogLog := central.Module("catalog")
//	catalogLog.Info("marker index rebuilt",
//	    logger.Int("markers", len(markers)),
//	    logger.Duration("elapsed", time.Since(start)))
//
// Console output is human readable text; file output is JSON for log aggregation.
// Per-module levels and dedicated per-module files are configured under the
// "logging" section of config.yaml.
//
// Tests use a discard or buffer logger:
//
//	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
package logger

import (
	"context"
	"time"
	"unique"
)

// LogLevel represents log severity levels
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Field represents a structured log field.
// Keys are interned using unique.Make() so repeated keys share a single allocation.
type Field struct {
	Key   string
	Value any
}

func internKey(key string) string {
	return unique.Make(key).Value()
}

// Pre-interned keys
var (
	errorKey   = internKey("error")
	moduleKey  = internKey("module")
	traceIDKey = internKey("trace_id")
)

// Logger is the centralized logging interface for dependency injection
type Logger interface {
	// Module returns a logger scoped to a sub-module ("catalog" -> "catalog.http")
	Module(name string) Logger

	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a logger that adds fields to every record
	With(fields ...Field) Logger
	// WithContext returns a logger carrying the trace id stored in ctx, if any
	WithContext(ctx context.Context) Logger

	Log(level LogLevel, msg string, fields ...Field)

	// Flush ensures all buffered logs are written
	Flush() error
}

func field(key string, value any) Field {
	return Field{Key: internKey(key), Value: value}
}

// String, Int, Int64, Bool and Time wrap a typed value.
func String(key, value string) Field         { return field(key, value) }
func Int(key string, value int) Field        { return field(key, value) }
func Int64(key string, value int64) Field    { return field(key, value) }
func Bool(key string, value bool) Field      { return field(key, value) }
func Time(key string, value time.Time) Field { return field(key, value) }

// Float64 values are rounded to three decimals on output.
func Float64(key string, value float64) Field { return field(key, value) }

// Duration is rendered as a rounded string ("1.5s", "200ms") so text and JSON
// output read the same.
func Duration(key string, value time.Duration) Field { return field(key, value) }

// Error always uses the key "error"; a nil err logs a null value.
//
//	if err := repo.Update(ctx, id, fn); err != nil {
//	    log.Error("submit failed", logger.Error(err), logger.String("listing_id", id))
//	    return err
//	}
func Error(err error) Field {
	if err == nil {
		return Field{Key: errorKey, Value: nil}
	}
	return Field{Key: errorKey, Value: err.Error()}
}

// Any is the escape hatch for values without a typed constructor.
func Any(key string, value any) Field { return field(key, value) }
