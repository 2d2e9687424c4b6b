package log

import (
	"context"
	"log/slog"
	"time"
)

// Level represents the severity level of a log message.
type Level int

// Log levels
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Fields is a map of field names to values.
type Fields map[string]any

// Context keys recognised by WithContext.
const (
	RequestIDKey = "request_id"
	ComponentKey = "component"
	OperationKey = "operation"
)

type ctxKey string

// ContextWithRequestID returns a copy of ctx carrying a request id that
// WithContext will attach to log records.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey(RequestIDKey), id)
}

// RequestIDFromContext returns the request id stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(ctxKey(RequestIDKey)).(string)
	return v
}

// Entry represents a single log entry.
type Entry struct {
	Level     Level
	Message   string
	Fields    Fields
	Timestamp time.Time
	Caller    string
}

// Logger defines the core logging interface for commlog components.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a child logger carrying the given fields.
	With(fields ...Field) Logger
	// WithError attaches err under the "error" key.
	WithError(err error) Logger
	// WithContext attaches well-known values (request id) found in ctx.
	WithContext(ctx context.Context) Logger
	// WithComponent tags logs with a component name.
	WithComponent(component string) Logger

	SetLevel(level Level)
	GetLevel() Level
}

// Formatter defines the interface for formatting log entries.
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// Output defines the interface for log outputs.
type Output interface {
	Write(entry *Entry, formatted []byte) error
	Close() error
}

// LoggerOption is a function that configures a logger.
type LoggerOption func(*BaseLogger)

// NewLogger creates a new logger with the given options.
func NewLogger(options ...LoggerOption) Logger {
	c := &core{formatter: &JSONFormatter{}}
	c.setLevel(InfoLevel)
	l := &BaseLogger{core: c}
	for _, option := range options {
		option(l)
	}
	if len(c.outputs) == 0 {
		c.outputs = append(c.outputs, NewConsoleOutput())
	}
	l.slog = slog.New(newBridgeHandler(c))
	return l
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(l *BaseLogger) { l.core.setLevel(level) }
}

// WithFormatter sets the log formatter.
func WithFormatter(formatter Formatter) LoggerOption {
	return func(l *BaseLogger) { l.core.formatter = formatter }
}

// WithOutput adds an output to the logger.
func WithOutput(output Output) LoggerOption {
	return func(l *BaseLogger) { l.core.outputs = append(l.core.outputs, output) }
}

// WithRedactions masks the values of the given keys.
func WithRedactions(keys ...string) LoggerOption {
	return func(l *BaseLogger) {
		if l.core.redactions == nil {
			l.core.redactions = make(map[string]struct{}, len(keys))
		}
		for _, k := range keys {
			l.core.redactions[k] = struct{}{}
		}
	}
}
