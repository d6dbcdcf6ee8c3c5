// Package logger wraps zerolog.Logger with the constructors used by pdfseal.
//
// Logs carry key ids, sizes, durations and backend names. They must never
// carry key bytes, passwords, plaintext or exported key text.
package logger

import (
	"io"
	"os"
	"runtime"

	"github.com/rs/zerolog"
)

// Logger is a thin wrapper around zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

// NewLogger builds a logger for the given role writing JSON to out
// (stderr when out is nil). Entries below level are dropped.
func NewLogger(role string, level zerolog.Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return runtime.FuncForPC(pc).Name()
	}
	zerolog.CallerFieldName = "func"

	logger := zerolog.New(out).Level(level).With().
		Str("role", role).
		Timestamp().
		Caller().
		Logger()

	return &Logger{logger}
}

// NewConsoleLogger is NewLogger with human-readable output for terminals
func NewConsoleLogger(role string, level zerolog.Level, out io.Writer, noColor bool) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return NewLogger(role, level, zerolog.ConsoleWriter{Out: out, NoColor: noColor})
}

// ParseLevel converts a level name ("debug", "info", ...) to a zerolog level.
// An empty name means warn.
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		return zerolog.WarnLevel, nil
	}
	return zerolog.ParseLevel(name)
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// GetChildLogger returns a logger inheriting all fields of l
func (l *Logger) GetChildLogger() *Logger {
	return &Logger{l.With().Logger()}
}

