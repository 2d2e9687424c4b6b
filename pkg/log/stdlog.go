package log

import (
	"bytes"
	stdlog "log"
)

type stdWriter struct {
	logger Logger
}

func (w stdWriter) Write(p []byte) (int, error) {
	w.logger.Info(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

// ToStdLogger adapts a Logger to *log.Logger.
func ToStdLogger(l Logger) *stdlog.Logger {
	return stdlog.New(stdWriter{logger: l}, "", 0)
}

// RedirectStdLog sends the standard library logger's output through l.
func RedirectStdLog(l Logger) {
	stdlog.SetFlags(0)
	stdlog.SetPrefix("")
	stdlog.SetOutput(stdWriter{logger: l.WithComponent("stdlog")})
}
