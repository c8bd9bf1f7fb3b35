// Package logging builds the process logger: a console handler on stderr,
// fanned out with slog-multi to an optional JSON log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// Options configures New.
type Options struct {
	// Level is debug, info, warn or error. Default info.
	Level string

	// Format is the console format: text (default) or json.
	Format string

	// File, when set, receives every record as JSON lines (appended).
	File string

	// Console defaults to os.Stderr.
	Console io.Writer
}

// ParseLevel parses a level name case-insensitively; "" is info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return l, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// New returns the logger and a close func for the log file (a no-op when
// there is none).
func New(opt Options) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(opt.Level)
	if err != nil {
		return nil, nil, err
	}
	hopts := &slog.HandlerOptions{Level: level}

	console := opt.Console
	if console == nil {
		console = os.Stderr
	}
	var ch slog.Handler
	switch strings.ToLower(opt.Format) {
	case "", "text":
		ch = slog.NewTextHandler(console, hopts)
	case "json":
		ch = slog.NewJSONHandler(console, hopts)
	default:
		return nil, nil, fmt.Errorf("log format %q: want text or json", opt.Format)
	}

	if opt.File == "" {
		return slog.New(ch), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(opt.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("log file: %w", err)
	}
	f, err := os.OpenFile(opt.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("log file: %w", err)
	}
	logger := slog.New(slogmulti.Fanout(ch, slog.NewJSONHandler(f, hopts)))
	return logger, f.Close, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
