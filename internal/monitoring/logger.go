// Package monitoring carries the process diagnostics surface: a
// redirectable package-level Logf plus the leveled Logger the decision
// engine logs through.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Level classifies a log entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "LOG"
	}
}

// Logger is the leveled diagnostics interface handed to long-lived
// components. Implementations are best-effort: callers never act on a
// logging failure.
type Logger interface {
	Log(level Level, format string, args ...interface{})
}

// LogLogger writes entries at or above Min through the package Logf
// with a level prefix. The zero value logs everything.
type LogLogger struct {
	Min Level
}

func (l LogLogger) Log(level Level, format string, args ...interface{}) {
	if level < l.Min {
		return
	}
	Logf("["+level.String()+"] "+format, args...)
}

// NopLogger discards every entry.
type NopLogger struct{}

func (NopLogger) Log(Level, string, ...interface{}) {}

// Safe wraps l so that a panic inside it never reaches the caller.
// A nil l is treated as NopLogger.
func Safe(l Logger) Logger {
	return safeLogger{inner: l}
}

type safeLogger struct {
	inner Logger
}

func (s safeLogger) Log(level Level, format string, args ...interface{}) {
	defer func() {
		_ = recover()
	}()
	if s.inner == nil {
		return
	}
	s.inner.Log(level, format, args...)
}
