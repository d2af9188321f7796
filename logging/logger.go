package logging

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger defines the minimal logging interface for chatflow. This allows
// users to provide their own logger implementation or use the built-in
// adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewSlogLogger creates a Logger writing to stdout in the given format
// ("json" or "text") at the given level.
func NewSlogLogger(level LogLevel, format string) Logger {
	return newSlogLogger(level, format, os.Stdout)
}

func newSlogLogger(level LogLevel, format string, out io.Writer) Logger {
	opts := &slog.HandlerOptions{Level: slogLevel(level)}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return NewSlogAdapter(slog.New(handler))
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// ChatLogger wraps a Logger adding contextual cloning helpers and domain
// convenience methods for the request lifecycle. It is cheap to copy via
// With* methods.
type ChatLogger struct {
	logger    Logger
	requestID string
	context   map[string]any
}

// NewChatLogger wraps a Logger (NoOpLogger when nil).
func NewChatLogger(l Logger) *ChatLogger {
	if l == nil {
		l = NoOpLogger{}
	}
	return &ChatLogger{logger: l, context: map[string]any{}}
}

func (l *ChatLogger) clone() *ChatLogger {
	nl := *l
	nl.context = make(map[string]any, len(l.context))
	for k, v := range l.context {
		nl.context[k] = v
	}
	return &nl
}

// WithRequest attaches a request correlation identifier.
func (l *ChatLogger) WithRequest(requestID string) *ChatLogger {
	nl := l.clone()
	nl.requestID = requestID
	return nl
}

// WithContext adds a key/value attribute attached to every log entry.
func (l *ChatLogger) WithContext(key string, value any) *ChatLogger {
	nl := l.clone()
	nl.context[key] = value
	return nl
}

func (l *ChatLogger) args(extra ...any) []any {
	out := make([]any, 0, len(extra)+2*len(l.context)+2)
	if l.requestID != "" {
		out = append(out, "request_id", l.requestID)
	}
	for k, v := range l.context {
		out = append(out, k, v)
	}
	return append(out, extra...)
}

// Debug logs at debug level with the attached context.
func (l *ChatLogger) Debug(msg string, extra ...any) { l.logger.Debug(msg, l.args(extra...)...) }

// Info logs at info level with the attached context.
func (l *ChatLogger) Info(msg string, extra ...any) { l.logger.Info(msg, l.args(extra...)...) }

// Warn logs at warn level with the attached context.
func (l *ChatLogger) Warn(msg string, extra ...any) { l.logger.Warn(msg, l.args(extra...)...) }

// Error logs at error level with the attached context.
func (l *ChatLogger) Error(msg string, extra ...any) { l.logger.Error(msg, l.args(extra...)...) }

// LogSubmission records the start of one request lifecycle.
func (l *ChatLogger) LogSubmission(historyLen int) {
	l.Debug("Message submitted", "history_len", historyLen)
}

// LogAgentEvent records one agent lifecycle event (update, success, error).
func (l *ChatLogger) LogAgentEvent(kind string) {
	l.Debug("Agent event applied", "event", kind)
}

// LogRequestFailed records a terminal agent failure and how long the request ran.
func (l *ChatLogger) LogRequestFailed(err error, started time.Time, fallback bool) {
	l.Error("Agent request failed",
		"error", err.Error(),
		"duration", time.Since(started),
		"fallback", fallback,
	)
}
