// Package logger provides structured logging capabilities for the application.
// It supports multiple log levels (Debug, Info, Warn, Error) and structured fields,
// and writes JSON lines through zap.
//
// Example usage:
//
//	logger := logger.New(logger.LevelInfo)
//	logger.Info("Catalog loaded", map[string]interface{}{
//	    "origin": "primary",
//	    "videos": 42,
//	})
//
// Or use the global logger:
//
//	logger.Info("Application started", nil)
package logger

import (
	"context"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity level of a log message
type Level int

const (
	// LevelDebug is for detailed debugging information
	LevelDebug Level = iota
	// LevelInfo is for general informational messages
	LevelInfo
	// LevelWarn is for warning messages
	LevelWarn
	// LevelError is for error messages
	LevelError
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config value such as "debug" or "WARN" to a Level.
// Unknown values fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger provides structured logging capabilities
type Logger struct {
	level  Level
	logger *zap.Logger
}

// New creates a new Logger instance writing to stdout
func New(level Level) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter creates a Logger that writes JSON lines to w
func NewWithWriter(level Level, w io.Writer) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.MessageKey = "msg"
	encoderCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(w),
		level.zapLevel(),
	)

	return &Logger{
		level:  level,
		logger: zap.New(core),
	}
}

// Default returns a default logger instance with Info level
func Default() *Logger {
	return New(LevelInfo)
}

// log writes a log message with the specified level
func (l *Logger) log(level Level, msg string, fields map[string]interface{}) {
	if level < l.level {
		return
	}

	zapFields := toZapFields(fields)
	switch level {
	case LevelDebug:
		l.logger.Debug(msg, zapFields...)
	case LevelInfo:
		l.logger.Info(msg, zapFields...)
	case LevelWarn:
		l.logger.Warn(msg, zapFields...)
	default:
		l.logger.Error(msg, zapFields...)
	}
}

// toZapFields converts a field map into zap fields with a stable key order
func toZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		if err, ok := fields[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.log(LevelDebug, msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.log(LevelInfo, msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.log(LevelWarn, msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.log(LevelError, msg, fields)
}

// WithContext returns a logger with context information
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return l
}

// WithField returns a logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a logger with multiple fields attached to every entry
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{
		level:  l.level,
		logger: l.logger.With(toZapFields(fields)...),
	}
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.logger.Sync()
}

// Global logger instance
var globalLogger = Default()

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger *Logger) {
	globalLogger = logger
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	return globalLogger
}

// Debug logs a debug message using the global logger
func Debug(msg string, fields map[string]interface{}) {
	globalLogger.Debug(msg, fields)
}

// Info logs an info message using the global logger
func Info(msg string, fields map[string]interface{}) {
	globalLogger.Info(msg, fields)
}

// Warn logs a warning message using the global logger
func Warn(msg string, fields map[string]interface{}) {
	globalLogger.Warn(msg, fields)
}

// Error logs an error message using the global logger
func Error(msg string, fields map[string]interface{}) {
	globalLogger.Error(msg, fields)
}
