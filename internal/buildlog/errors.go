// Package buildlog carries the structured error type used for fatal,
// durably-recorded failures (config errors, fragment write/remove
// failures) — the notegraphd analogue of the teacher's internal/errors
// package, trimmed to the categories this domain actually produces.
package buildlog

import (
	"fmt"
	"time"
)

// Category classifies a fatal or durably-recorded error.
type Category string

const (
	CategoryConfig       Category = "config"
	CategoryCompile      Category = "compile"
	CategoryFragmentIO   Category = "fragment_io"
	CategoryPackageFetch Category = "package_fetch"
	CategoryWatcher      Category = "watcher"
)

// Error wraps an underlying error with the operation and timestamp it
// occurred at, so an operator can always answer "what failed and why" from
// the error alone, per spec.md §7's propagation rule.
type Error struct {
	Category   Category
	Operation  string
	FilePath   string
	Underlying error
	At         time.Time
}

func New(category Category, operation string, err error) *Error {
	return &Error{
		Category:   category,
		Operation:  operation,
		Underlying: err,
		At:         time.Now(),
	}
}

func (e *Error) WithFile(path string) *Error {
	e.FilePath = path
	return e
}

func (e *Error) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s: %s (%s): %v", e.Category, e.Operation, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("%s: %s: %v", e.Category, e.Operation, e.Underlying)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}
