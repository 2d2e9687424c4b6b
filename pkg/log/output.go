package log

import (
	"io"
	"os"
)

// ConsoleOutput writes formatted entries to stdout, or stderr when configured.
type ConsoleOutput struct {
	w io.Writer
}

// NewConsoleOutput writes to stdout.
func NewConsoleOutput() *ConsoleOutput { return &ConsoleOutput{w: os.Stdout} }

// NewStderrOutput writes to stderr.
func NewStderrOutput() *ConsoleOutput { return &ConsoleOutput{w: os.Stderr} }

// NewWriterOutput writes to an arbitrary writer; handy in tests.
func NewWriterOutput(w io.Writer) *ConsoleOutput { return &ConsoleOutput{w: w} }

func (o *ConsoleOutput) Write(_ *Entry, formatted []byte) error {
	_, err := o.w.Write(formatted)
	return err
}

func (o *ConsoleOutput) Close() error { return nil }

// NullOutput discards everything.
type NullOutput struct{}

func (NullOutput) Write(*Entry, []byte) error { return nil }
func (NullOutput) Close() error               { return nil }

// NewNop returns a logger that discards all records.
func NewNop() Logger {
	return NewLogger(WithLevel(ErrorLevel+1), WithOutput(NullOutput{}))
}
