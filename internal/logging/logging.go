// Package logging builds the prefixed loggers used across the service.
//
// Every component takes a *log.Logger. Loggers created from one Sink share its
// output: stderr, plus a size-rotated file when log.file is set.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ieltsmaster/studyplan/internal/config"
)

// Sink is the shared log destination.
type Sink struct {
	out  io.Writer
	file *lumberjack.Logger
}

// Open creates a sink for cfg. stderr is nil-safe and defaults to os.Stderr.
func Open(cfg config.LogConfig, stderr io.Writer) *Sink {
	if stderr == nil {
		stderr = os.Stderr
	}
	s := &Sink{out: stderr}
	if cfg.File == "" {
		return s
	}

	s.file = &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	s.out = io.MultiWriter(stderr, s.file)
	return s
}

// Logger returns a logger writing to the sink with the given prefix,
// e.g. "[api] ".
func (s *Sink) Logger(prefix string) *log.Logger {
	return log.New(s.out, prefix, log.LstdFlags)
}

// Rotate closes the current log file and starts a new one. It is a no-op
// without a log file.
func (s *Sink) Rotate() error {
	if s.file == nil {
		return nil
	}
	return s.file.Rotate()
}

// Close closes the log file, if any.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}
