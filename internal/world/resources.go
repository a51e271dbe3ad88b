// Package world implements the per-build SourceWorld capability (C1) and the
// process-lifetime FileSlotCache it reads through (C2), grounded on the
// teacher's snapshot-based FileContentStore
// (internal/core/file_content_store.go in the teacher tree): a shared,
// concurrency-safe store of file content addressed by a stable id, with
// content hashing used to skip redundant decode work.
package world

import (
	"github.com/standardbeagle/notegraphd/internal/compiler"
	"github.com/standardbeagle/notegraphd/internal/fsid"
)

// Resources is the process-lifetime, read-mostly state every SourceWorld
// shares: the project root, the compiler's library/fonts, matching §4.2's
// "shared Resources" field.
type Resources struct {
	ProjectRoot string
	Library     *compiler.Library
	Book        *compiler.FontBook
	Fonts       []compiler.Font
}

// PackageStorage is the capability SourceWorld uses to resolve
// package-qualified FileIDs to an unpacked directory on disk (§4.8). The
// concrete implementation lives in internal/pkgstore; this interface keeps
// internal/world free of HTTP/tar/gzip concerns.
type PackageStorage interface {
	PreparePackage(spec fsid.PackageSpec) (string, error)
}
