// Package logging provides the pipeline's per-component loggers: a thin,
// levelled wrapper over the standard library's log.Logger, matching the
// ambient stack decision to follow the teacher's plain-stdlib logging
// rather than adopt a structured-logging library the example pack never
// pulls in for this lineage.
package logging

import (
	"fmt"
	"log"
	"os"
)

// Logger prefixes every line with its owning component's name and a
// level tag, e.g. "[poolcache] WARN decimals(...) failed: ...".
type Logger struct {
	component string
	std       *log.Logger
}

// New builds a Logger that writes to stderr with the standard
// date/time flags, one per named component.
func New(component string) *Logger {
	return &Logger{
		component: component,
		std:       log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
	}
}

func (l *Logger) print(level, format string, args ...interface{}) {
	l.std.Printf("[%s] %s %s", l.component, level, fmt.Sprintf(format, args...))
}

// Infof logs a routine, expected event.
func (l *Logger) Infof(format string, args ...interface{}) { l.print("INFO", format, args...) }

// Warnf logs a degraded-but-handled condition.
func (l *Logger) Warnf(format string, args ...interface{}) { l.print("WARN", format, args...) }

// Errorf logs a failure a caller could not route around.
func (l *Logger) Errorf(format string, args ...interface{}) { l.print("ERROR", format, args...) }
