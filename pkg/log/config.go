package log

import (
	"fmt"
	"strings"
)

// Config declares how a process-wide logger is built.
type Config struct {
	Level   string   `json:"level" yaml:"level"`
	Format  string   `json:"format" yaml:"format"`
	Outputs []string `json:"outputs" yaml:"outputs"`
	// Redact lists field keys whose values are masked.
	Redact []string `json:"redact" yaml:"redact"`
}

// ParseLevel converts a level name into a Level. Empty means info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("log: unknown level %q", s)
	}
}

// ApplyConfig builds a Logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := []LoggerOption{WithLevel(lvl)}
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		opts = append(opts, WithFormatter(&TextFormatter{}))
	case "json":
		opts = append(opts, WithFormatter(&JSONFormatter{}))
	default:
		return nil, fmt.Errorf("log: unknown format %q", cfg.Format)
	}
	for _, o := range cfg.Outputs {
		switch strings.ToLower(o) {
		case "console", "stdout":
			opts = append(opts, WithOutput(NewConsoleOutput()))
		case "stderr":
			opts = append(opts, WithOutput(NewStderrOutput()))
		case "null", "none":
			opts = append(opts, WithOutput(NullOutput{}))
		default:
			return nil, fmt.Errorf("log: unknown output %q", o)
		}
	}
	if len(cfg.Redact) > 0 {
		opts = append(opts, WithRedactions(cfg.Redact...))
	}
	return NewLogger(opts...), nil
}
