package nuller

import (
	"fmt"
	"io"
	"os"
)

// Logger writes verbose diagnostics about how a Nuller was set up and what
// each rewrite pass did. A disabled Logger discards everything.
type Logger struct {
	enabled bool
	out     io.Writer
}

// NewLogger creates a logger writing to stderr when enabled.
func NewLogger(enabled bool) *Logger {
	return &Logger{enabled: enabled, out: os.Stderr}
}

// SetOutput redirects the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.out = w
}

// Log prints a formatted line if verbose mode is enabled.
func (l *Logger) Log(format string, args ...interface{}) {
	if l == nil || !l.enabled {
		return
	}
	fmt.Fprintf(l.out, "[fieldnull] "+format+"\n", args...)
}

// Section prints a section header if verbose mode is enabled.
func (l *Logger) Section(name string) {
	if l == nil || !l.enabled {
		return
	}
	fmt.Fprintf(l.out, "\n[fieldnull] === %s ===\n", name)
}

// Summary prints the outcome of one rewrite pass.
func (l *Logger) Summary(stats Stats) {
	l.Section("Rewrite")
	l.Log("Bytes in: %d, bytes out: %d", stats.BytesIn, stats.BytesOut)
	l.Log("Tuples rewritten: %d", stats.Matches)
}
