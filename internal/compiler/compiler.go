// Package compiler defines the boundary between notegraphd and the
// markup→HTML document compiler. The real compiler (a Typst-like engine) is
// an explicit non-goal — spec.md treats it as an opaque collaborator that
// consumes a World capability and produces a compiled Document. This
// package defines that boundary (World, Document, Introspector, Diagnostic)
// and ships one small reference Engine so the rest of the system can be
// built, exercised, and tested end to end without a real compiler attached.
package compiler

import (
	"fmt"
	"time"

	"github.com/standardbeagle/notegraphd/internal/fsid"
)

// FileErrorKind enumerates the failure modes spec.md §4.1 requires
// FileSlotCache/World reads to surface.
type FileErrorKind int

const (
	FileErrorNotFound FileErrorKind = iota
	FileErrorIsDirectory
	FileErrorAccessDenied
	FileErrorUTF8
	FileErrorPackage
)

// FileError is the error type returned by World.Source/World.File on a
// failed read or decode, the Go analogue of typst::diag::FileError.
type FileError struct {
	Kind FileErrorKind
	Path string
	Err  error
}

func (e *FileError) Error() string {
	switch e.Kind {
	case FileErrorNotFound:
		return fmt.Sprintf("not found: %s", e.Path)
	case FileErrorIsDirectory:
		return fmt.Sprintf("is a directory: %s", e.Path)
	case FileErrorAccessDenied:
		return fmt.Sprintf("access denied: %s", e.Path)
	case FileErrorUTF8:
		return fmt.Sprintf("invalid utf-8: %s", e.Path)
	case FileErrorPackage:
		return fmt.Sprintf("package error for %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("file error: %s", e.Path)
	}
}

func (e *FileError) Unwrap() error { return e.Err }

// Source is the decoded, parsed textual representation of a file, the Go
// analogue of typst::syntax::Source. It supports in-place Replace so a
// FileSlot can reuse the same value across a content fingerprint match.
type Source struct {
	ID   fsid.FileID
	Text string
}

// Replace overwrites the source's text in place (the engine is expected to
// re-derive any parsed AST; our reference engine is line-oriented and has no
// AST to preserve).
func (s *Source) Replace(text string) {
	s.Text = text
}

// Font is a placeholder for a loaded font resource; the reference engine
// never actually renders glyphs, so this carries only a name.
type Font struct {
	Name string
}

// Library and FontBook stand in for the compiler's shared, resource-heavy,
// process-lifetime state (typst::Library / typst::text::FontBook).
type Library struct {
	Name string
}

type FontBook struct {
	Fonts []string
}

// World is the capability surface the compiler is handed for one compile
// invocation, matching spec.md §4.2 exactly.
type World interface {
	Library() *Library
	Book() *FontBook
	Main() fsid.FileID
	Source(id fsid.FileID) (*Source, error)
	File(id fsid.FileID) ([]byte, error)
	Font(index int) (Font, bool)
	Today(offsetHours *int) (time.Time, bool)
}

// Diagnostic is a single compile error, the Go analogue of
// typst::diag::SourceDiagnostic.
type Diagnostic struct {
	Message string
	Span    string // best-effort human-readable location
}

func (d Diagnostic) Error() string { return d.Message }

// Diagnostics is a non-empty collection of Diagnostic, returned when a
// compile fails outright.
type Diagnostics []Diagnostic

func (d Diagnostics) Error() string {
	if len(d) == 0 {
		return "compile failed"
	}
	return d[0].Message
}

// Warning is a non-fatal compile diagnostic that travels with a successful
// result.
type Warning struct {
	Message string
}

// HeadingRef describes one top-level heading discovered by the introspector
// (step 1 of FragmentExtractor, §4.3): a note label and its plain-text
// content, with label parsing already applied by the engine.
type HeadingRef struct {
	Label     string // e.g. "note:550e8400-..."
	PlainText string
}

// Introspector exposes queries over the compiled document's logical model,
// the Go analogue of typst::model::Introspector. FragmentExtractor's first
// pass uses exactly one query: every top-level heading.
type Introspector interface {
	Headings() []HeadingRef
}

// Document is one finished compile: the serialized HTML body plus an
// Introspector over the logical model that produced it.
type Document interface {
	HTML() string
	Introspector() Introspector
}

// Engine is the pluggable compiler itself. A production deployment swaps in
// a real markup→HTML engine behind this interface; SimpleEngine (this
// package) is the reference/demo implementation used by notegraphd's own
// tests and by anyone trying the system without a real compiler attached.
type Engine interface {
	Compile(world World) (doc Document, warnings []Warning, err Diagnostics)
}
