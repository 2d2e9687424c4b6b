// Package log provides commlog's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Records are routed through log/slog via a
// bridge handler so that formatting and outputs stay under our control while
// the slog ecosystem remains usable.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("walker"), log.Str("kind", "call"))
//	l.Info("page fetched", log.Int("records", 100))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (level, text or json
// format, console/stderr/null outputs, redacted keys).
//
// # Interop
//
// RedirectStdLog routes the standard library logger (used by Pebble) through a
// Logger. Loggers are always passed explicitly; there is no package default.
package log
