// Package logging provides the process-wide logger used by the CLI and
// the orchestrator. It wraps the standard library's log.Logger —
// the loader's teacher module never reaches for a structured logging
// framework, so neither do we.
package logging

import (
	"log"
	"os"
)

// Logger is a thin verbosity gate over the standard library logger.
type Logger struct {
	verbose bool
	std     *log.Logger
}

// New creates a Logger writing to stderr with the given verbosity.
func New(verbose bool) *Logger {
	return &Logger{
		verbose: verbose,
		std:     log.New(os.Stderr, "", log.LstdFlags),
	}
}

// Info logs unconditionally.
func (l *Logger) Info(format string, args ...interface{}) {
	l.std.Printf("INFO: "+format, args...)
}

// Debug logs only when verbose is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.verbose {
		l.std.Printf("DEBUG: "+format, args...)
	}
}

// Error logs unconditionally at error level.
func (l *Logger) Error(format string, args ...interface{}) {
	l.std.Printf("ERROR: "+format, args...)
}

// Fatal logs and exits the process with status 1.
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.std.Fatalf("FATAL: "+format, args...)
}
