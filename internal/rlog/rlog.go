// Package rlog provides the small prefixed console logger used by the watch
// driver and the CLI. It has no log levels, no structured fields and no external logging
// dependency: output is a handful of fixed, spec-mandated line prefixes
// written straight to an io.Writer, the same way the teacher formats its own
// diagnostics with fmt.Fprintf(os.Stderr, ...).
package rlog

import (
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Logger writes prefixed status lines to an underlying writer.
type Logger struct {
	mu  sync.Mutex
	w   *ErrWriter
	tag string
}

// New returns a Logger that prefixes every line with "[tag] ".
func New(w io.Writer, tag string) *Logger {
	return &Logger{w: NewErrWriter(w), tag: tag}
}

// Printf writes one status line. Errors from the underlying writer are
// sticky (see ErrWriter) and surfaced through Err.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[%s] %s\n", l.tag, fmt.Sprintf(format, args...))
}

// Err returns the first write error encountered, if any.
func (l *Logger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Err
}

// ErrWriter is a simple wrapper that tracks io errors. Write keeps returning
// the last error once one occurs, so callers can fire-and-forget writes and
// check Err once at the end.
type ErrWriter struct {
	w   io.Writer
	Err error
}

// NewErrWriter wraps w.
func NewErrWriter(w io.Writer) *ErrWriter {
	return &ErrWriter{w: w}
}

func (w *ErrWriter) Write(p []byte) (n int, err error) {
	if w.Err != nil {
		return 0, w.Err
	}
	n, err = w.w.Write(p)
	if err != nil {
		w.Err = errors.Wrap(err, "write failed")
	}
	return n, w.Err
}
