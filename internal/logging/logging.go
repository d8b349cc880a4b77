// Package logging builds the structured loggers handed to every component.
package logging

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the named level ("debug", "info",
// "warn", "error"). Unknown levels fall back to info.
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "hirevault",
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// TestLogger captures output in memory so tests can assert on it.
type TestLogger struct {
	*log.Logger
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewTest returns a debug-level logger backed by a buffer.
func NewTest() *TestLogger {
	tl := &TestLogger{}
	tl.Logger = log.NewWithOptions(&lockedWriter{tl: tl}, log.Options{Level: log.DebugLevel})
	return tl
}

// Output returns everything logged so far.
func (t *TestLogger) Output() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}

type lockedWriter struct{ tl *TestLogger }

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.tl.mu.Lock()
	defer w.tl.mu.Unlock()
	return w.tl.buf.Write(p)
}
