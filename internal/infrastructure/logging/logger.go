package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/huongkhe/schoolsite/internal/infrastructure/config"
)

// Logger is a *slog.Logger tagged with service and version, plus the
// log file it writes to, if any. Safe for concurrent use.
type Logger struct {
	*slog.Logger
	file io.Closer
}

// New builds the process logger from the logging section of the config.
// Output "file" appends to logging.file.path; "stderr" and "stdout"
// (the default) write to the console. Format "text" is for development,
// anything else logs JSON.
func New(cfg config.LoggingConfig, version string) (*Logger, error) {
	var (
		out  io.Writer = os.Stdout
		file *os.File
	)
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		out = os.Stderr
	case "file":
		f, err := appendFile(cfg.File.Path)
		if err != nil {
			return nil, err
		}
		out, file = f, f
	}

	l := newWithWriter(cfg, version, out)
	if file != nil {
		l.file = file
	}
	return l, nil
}

func appendFile(path string) (*os.File, error) {
	if path == "" {
		return nil, errors.New("logging: file output needs logging.file.path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	return f, nil
}

func newWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	}

	return &Logger{Logger: slog.New(h).With("service", "schoolsite", "version", version)}
}

// parseLevel accepts debug, info, warn (or warning) and error in any
// case. Anything else is info.
func parseLevel(s string) slog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil || strings.ContainsAny(s, "+-") {
		return slog.LevelInfo
	}
	return lvl
}

// With returns a child logger carrying args on every record. The child
// shares the parent's file; Close the parent only.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Default is the info-level JSON stdout logger used before the config
// is loaded.
func Default() *Logger {
	return newWithWriter(config.LoggingConfig{Level: "info"}, "dev", os.Stdout)
}

// Discard drops every record.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
