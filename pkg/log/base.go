package log

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// core is shared by a logger and all of its children.
type core struct {
	level      atomic.Int32
	formatter  Formatter
	outputs    []Output
	redactions map[string]struct{}
	mu         sync.Mutex
}

func (c *core) setLevel(l Level) { c.level.Store(int32(l)) }
func (c *core) getLevel() Level  { return Level(c.level.Load()) }

// BaseLogger implements the Logger interface on top of slog.
type BaseLogger struct {
	core *core
	slog *slog.Logger
}

func (l *BaseLogger) log(level Level, msg string, fields []Field) {
	if level < l.core.getLevel() {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // skip Callers, log and the exported method
	r := slog.NewRecord(time.Now(), toSlogLevel(level), msg, pcs[0])
	r.AddAttrs(attrsFromFields(fields)...)
	_ = l.slog.Handler().Handle(context.Background(), r)
}

func (l *BaseLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *BaseLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *BaseLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *BaseLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

// With returns a child logger with additional fields.
func (l *BaseLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	return &BaseLogger{core: l.core, slog: slog.New(l.slog.Handler().WithAttrs(attrsFromFields(fields)))}
}

func (l *BaseLogger) WithError(err error) Logger { return l.With(Err(err)) }

func (l *BaseLogger) WithContext(ctx context.Context) Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return l.With(Str(RequestIDKey, id))
	}
	return l
}

func (l *BaseLogger) WithComponent(component string) Logger { return l.With(Component(component)) }

func (l *BaseLogger) SetLevel(level Level) { l.core.setLevel(level) }
func (l *BaseLogger) GetLevel() Level      { return l.core.getLevel() }

// Slog exposes the underlying slog.Logger for libraries that accept one.
func (l *BaseLogger) Slog() *slog.Logger { return l.slog }
