// Package logging configures the process-wide logrus logger. It is the only
// place that touches global logging state; pipeline components receive the
// logger (or use the package default) and stay testable.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Options controls logger setup.
type Options struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "text" or "json"
	File   string // optional file path; logs go to stdout and the file
}

// Setup builds a configured logrus logger. An unparseable level falls back
// to info rather than failing startup.
func Setup(opts Options) (*logrus.Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if opts.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	writers := []io.Writer{os.Stdout}
	if opts.File != "" {
		dir := filepath.Dir(opts.File)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create log directory: %w", err)
			}
		}
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, file)
	}
	log.SetOutput(io.MultiWriter(writers...))

	return log, nil
}

// Discard returns a logger that writes nowhere. Used in tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
