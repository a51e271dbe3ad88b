// Package diag provides the process's structured debug logging, the
// notegraphd analogue of the teacher's internal/debug package: a
// package-scoped, mutex-guarded writer that component loggers funnel
// through, enabled by an environment variable rather than a third-party
// logging framework (no single logging library dominates the example
// pack enough to justify displacing this convention — see DESIGN.md).
package diag

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu     sync.Mutex
	output io.Writer = os.Stderr
	enable           = os.Getenv("NOTEGRAPHD_DEBUG") == "1" || os.Getenv("NOTEGRAPHD_DEBUG") == "true"
)

// SetOutput redirects debug output. Pass nil to silence it entirely.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetEnabled toggles whether component loggers actually write anything.
func SetEnabled(v bool) {
	mu.Lock()
	defer mu.Unlock()
	enable = v
}

func writer() (io.Writer, bool) {
	mu.Lock()
	defer mu.Unlock()
	return output, enable
}

// Log writes a component-tagged debug line, e.g. Log("build", "create %s", id).
func Log(component, format string, args ...any) {
	w, enabled := writer()
	if !enabled || w == nil {
		return
	}
	fmt.Fprintf(w, "[%s] "+format+"\n", append([]any{component}, args...)...)
}

// Component returns a logger bound to a fixed component name, the shape
// BuildCoordinator/NotesService/SourceWorld hold onto for the life of the
// process instead of repeating the component string at every call site.
type Component string

// Logf logs a line tagged with the component's name.
func (c Component) Logf(format string, args ...any) {
	Log(string(c), format, args...)
}
