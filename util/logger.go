// Package util provides low-level helpers shared by all other packages.
package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel is the -v count a message needs before it is printed.
type LogLevel int

const (
	LogQuiet   LogLevel = iota // errors and warnings only
	LogNormal                  // -v: lifecycle notes
	LogVerbose                 // -vv: per-session detail
	LogDebug                   // -vvv: stats and retry attempts, timestamped
)

// Logger writes levelled diagnostics to stderr.  It never touches
// stdout, which belongs to the session's console lines.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	level LogLevel
	clock func() time.Time // nil: no timestamp column
}

// NewLogger returns a Logger for the given -v count.  Debug output is
// timestamped.
func NewLogger(verbosity int) *Logger {
	l := &Logger{out: os.Stderr, level: LogLevel(verbosity)}
	if l.level >= LogDebug {
		l.clock = time.Now
	}
	return l
}

// SetOutput redirects the logger (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

// Enabled reports whether messages at lvl would be printed.
func (l *Logger) Enabled(lvl LogLevel) bool { return l.level >= lvl }

// Error prints at every verbosity.
func (l *Logger) Error(format string, args ...interface{}) { l.logf(LogQuiet, "ERR", format, args) }

// Warn prints at every verbosity.  It reports degraded but non-fatal
// conditions such as a failed address lookup.
func (l *Logger) Warn(format string, args ...interface{}) { l.logf(LogQuiet, "WRN", format, args) }

// Info prints from -v up.
func (l *Logger) Info(format string, args ...interface{}) { l.logf(LogNormal, "INF", format, args) }

// Verbose prints from -vv up.
func (l *Logger) Verbose(format string, args ...interface{}) {
	l.logf(LogVerbose, "VRB", format, args)
}

// Debug prints at -vvv.
func (l *Logger) Debug(format string, args ...interface{}) { l.logf(LogDebug, "DBG", format, args) }

func (l *Logger) logf(min LogLevel, tag, format string, args []interface{}) {
	if !l.Enabled(min) {
		return
	}
	var b strings.Builder
	if l.clock != nil {
		b.WriteString(l.clock().Format("15:04:05.000 "))
	}
	b.WriteString("[" + tag + "] ")
	fmt.Fprintf(&b, format, args...)
	b.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.out, b.String()) //nolint:errcheck
}
