// Package logging provides structured logging with component and trace
// support on top of log/slog.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"record-reconciliation/pkg/trace"
)

// LogLevel represents different logging levels.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  LogLevel `json:"level"`
	Format string   `json:"format"` // "json" or "text"
	Output string   `json:"output"` // "stdout" or "stderr"
}

// DefaultLogConfig returns sensible defaults for production use.
func DefaultLogConfig() LogConfig {
	return LogConfig{Level: LevelInfo, Format: "json", Output: "stdout"}
}

// Logger is a thin structured logger. Safe for concurrent use.
type Logger struct {
	config  LogConfig
	slogger *slog.Logger
}

// NewLogger creates a structured logger per config.
func NewLogger(config LogConfig) *Logger {
	var writer io.Writer = os.Stdout
	if config.Output == "stderr" {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: slogLevel(config.Level)}
	var handler slog.Handler
	if config.Format == "text" {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}

	return &Logger{config: config, slogger: slog.New(handler)}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps a config string to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(slog.LevelDebug, msg, nil, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(slog.LevelInfo, msg, nil, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(slog.LevelWarn, msg, nil, fields) }
func (l *Logger) Error(msg string, err error, fields ...Field) {
	l.log(slog.LevelError, msg, err, fields)
}

func (l *Logger) log(level slog.Level, msg string, err error, fields []Field) {
	attrs := make([]slog.Attr, 0, len(fields)+1)
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	l.slogger.LogAttrs(context.Background(), level, msg, attrs...)
}

// WithComponent returns a logger that tags every entry with the component.
func (l *Logger) WithComponent(component string) *ComponentLogger {
	return &ComponentLogger{logger: l, component: component}
}

// ComponentLogger provides component-scoped logging.
type ComponentLogger struct {
	logger    *Logger
	component string
	extra     []Field
}

func (cl *ComponentLogger) with(fields []Field) []Field {
	out := append(fields, String("component", cl.component))
	return append(out, cl.extra...)
}

func (cl *ComponentLogger) Debug(msg string, fields ...Field) {
	cl.logger.Debug(msg, cl.with(fields)...)
}
func (cl *ComponentLogger) Info(msg string, fields ...Field) { cl.logger.Info(msg, cl.with(fields)...) }
func (cl *ComponentLogger) Warn(msg string, fields ...Field) { cl.logger.Warn(msg, cl.with(fields)...) }
func (cl *ComponentLogger) Error(msg string, err error, fields ...Field) {
	cl.logger.Error(msg, err, cl.with(fields)...)
}

// WithTrace extracts the trace context from ctx and tags entries with the
// trace id and tool name when present.
func (cl *ComponentLogger) WithTrace(ctx context.Context) *ComponentLogger {
	tc, ok := trace.From(ctx)
	if !ok {
		return cl
	}
	extra := append([]Field{}, cl.extra...)
	extra = append(extra, String("trace_id", tc.TraceID))
	if tc.Tool != "" {
		extra = append(extra, String("tool", tc.Tool))
	}
	return &ComponentLogger{logger: cl.logger, component: cl.component, extra: extra}
}

// Field represents a structured log field.
type Field struct {
	Key   string
	Value interface{}
}

// Field constructors.
func String(key, value string) Field               { return Field{Key: key, Value: value} }
func Int(key string, value int) Field              { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field          { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field      { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field            { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }
