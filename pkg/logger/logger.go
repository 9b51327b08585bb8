package logger

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Prefix is prepended to every line written by the bot.
const Prefix = "[Gaianet]"

// Logger is the logging interface used by the bot packages.
type Logger interface {
	Info(msg string, obj any)
	Warn(msg string, obj any)
	Debug(msg string, obj any)
	Error(msg string, obj any)
}

// NopLogger discards all log messages.
type NopLogger struct{}

func (NopLogger) Info(string, any)  {}
func (NopLogger) Warn(string, any)  {}
func (NopLogger) Debug(string, any) {}
func (NopLogger) Error(string, any) {}

// Options controls how New renders log lines.
type Options struct {
	Verbose bool
	// Format is one of "text", "json" or "logfmt". Empty means text.
	Format string
	// NoTimestamp drops the timestamp column, mostly useful in tests.
	NoTimestamp bool
}

type charmLogger struct {
	l *log.Logger
}

// New builds a logger that writes to w using charmbracelet/log.
func New(w io.Writer, opts Options) Logger {
	if w == nil {
		return NopLogger{}
	}
	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}
	l := log.NewWithOptions(w, log.Options{
		Prefix:          Prefix,
		Level:           level,
		ReportTimestamp: !opts.NoTimestamp,
		TimeFormat:      time.RFC3339,
		Formatter:       formatter(opts.Format),
	})
	return charmLogger{l: l}
}

// ValidFormat reports whether name is a supported log format.
func ValidFormat(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "json", "logfmt":
		return true
	}
	return false
}

func formatter(name string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

func (c charmLogger) Info(msg string, obj any)  { c.l.Info(msg, keyvals(obj)...) }
func (c charmLogger) Warn(msg string, obj any)  { c.l.Warn(msg, keyvals(obj)...) }
func (c charmLogger) Debug(msg string, obj any) { c.l.Debug(msg, keyvals(obj)...) }
func (c charmLogger) Error(msg string, obj any) { c.l.Error(msg, keyvals(obj)...) }

// keyvals flattens obj into alternating key/value pairs. Map keys are sorted
// so output is stable.
func keyvals(obj any) []any {
	switch v := obj.(type) {
	case nil:
		return nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]any, 0, len(keys)*2)
		for _, k := range keys {
			out = append(out, k, v[k])
		}
		return out
	case error:
		return []any{"err", v.Error()}
	default:
		return []any{"obj", fmt.Sprintf("%+v", v)}
	}
}

// Debug writes a debug log when enabled and logger is non-nil.
func Debug(enabled bool, logger Logger, msg string, obj any) {
	if !enabled || logger == nil {
		return
	}
	logger.Debug(msg, obj)
}

// Debugf is a format-style helper around Debug.
func Debugf(enabled bool, logger Logger, format string, args ...any) {
	Debug(enabled, logger, fmt.Sprintf(format, args...), nil)
}

// Info writes an info log when logger is non-nil.
func Info(logger Logger, msg string, obj any) {
	if logger == nil {
		return
	}
	logger.Info(msg, obj)
}

// Infof is a format-style helper around Info.
func Infof(logger Logger, format string, args ...any) {
	Info(logger, fmt.Sprintf(format, args...), nil)
}

// Warn writes a warning log when logger is non-nil.
func Warn(logger Logger, msg string, obj any) {
	if logger == nil {
		return
	}
	logger.Warn(msg, obj)
}

// Error writes an error log when logger is non-nil.
func Error(logger Logger, msg string, obj any) {
	if logger == nil {
		return
	}
	logger.Error(msg, obj)
}
