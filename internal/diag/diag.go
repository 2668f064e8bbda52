// Package diag is the shared diagnostic printer for the fetch tools.
// Everything goes to stderr so output redirection only ever captures data.
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
)

// Logger prints prefixed diagnostics at verbosity levels 0-2.
type Logger struct {
	prefix    string
	verbosity int
	out       io.Writer
}

// New builds a logger with the tool name as prefix.
func New(prefix string, verbosity int) *Logger {
	return &Logger{prefix: prefix, verbosity: verbosity, out: os.Stderr}
}

// SetOutput redirects the logger, used by tests.
func (l *Logger) SetOutput(w io.Writer) { l.out = w }

// Verbosity reports the configured level.
func (l *Logger) Verbosity() int { return l.verbosity }

// Info prints at verbosity >= 1.
func (l *Logger) Info(format string, args ...interface{}) {
	if l.verbosity >= 1 {
		fmt.Fprintf(l.out, "[%s] %s\n", l.prefix, fmt.Sprintf(format, args...))
	}
}

// Debug prints at verbosity >= 2.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.verbosity >= 2 {
		fmt.Fprintf(l.out, "[%s] %s\n", l.prefix, fmt.Sprintf(format, args...))
	}
}

// Warn always prints, highlighted.
func (l *Logger) Warn(format string, args ...interface{}) {
	fmt.Fprintf(l.out, "[%s] %s\n", l.prefix, warnColor.Sprintf(format, args...))
}

// Error always prints, highlighted.
func (l *Logger) Error(format string, args ...interface{}) {
	fmt.Fprintf(l.out, "[%s] %s\n", l.prefix, errColor.Sprintf(format, args...))
}
