package world

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/standardbeagle/notegraphd/internal/compiler"
	"github.com/standardbeagle/notegraphd/internal/fsid"
)

// SourceWorld is the short-lived, one-per-compile capability handed to the
// Engine (C1, §4.2). It shares Resources, PackageStorage and the SlotCache
// with every other world the coordinator ever creates, but owns its own
// dependency set, main id and capture time.
type SourceWorld struct {
	res        *Resources
	pkgs       PackageStorage
	cache      *SlotCache
	main       fsid.FileID
	capturedAt time.Time

	depsMu sync.Mutex
	deps   map[fsid.FileID]struct{}
}

// NewSourceWorld builds a SourceWorld for one compile of main, capturing
// "now" as its reference time for Today().
func NewSourceWorld(res *Resources, pkgs PackageStorage, cache *SlotCache, main fsid.FileID, capturedAt time.Time) *SourceWorld {
	return &SourceWorld{
		res:        res,
		pkgs:       pkgs,
		cache:      cache,
		main:       main,
		capturedAt: capturedAt,
		deps:       make(map[fsid.FileID]struct{}),
	}
}

func (w *SourceWorld) Library() *compiler.Library { return w.res.Library }
func (w *SourceWorld) Book() *compiler.FontBook   { return w.res.Book }
func (w *SourceWorld) Main() fsid.FileID          { return w.main }

func (w *SourceWorld) Font(index int) (compiler.Font, bool) {
	if index < 0 || index >= len(w.res.Fonts) {
		return compiler.Font{}, false
	}
	return w.res.Fonts[index], true
}

// Today returns the capture time's date, shifted by offsetHours whole
// hours. An offset outside [-24, 24] yields absent, matching §4.2's
// "out-of-range offsets yield absent" rule.
func (w *SourceWorld) Today(offsetHours *int) (time.Time, bool) {
	offset := 0
	if offsetHours != nil {
		offset = *offsetHours
	}
	if offset < -24 || offset > 24 {
		return time.Time{}, false
	}
	shifted := w.capturedAt.UTC().Add(time.Duration(offset) * time.Hour)
	return time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, time.UTC), true
}

func (w *SourceWorld) Source(id fsid.FileID) (*compiler.Source, error) {
	w.recordDependency(id)
	return w.cache.Source(id, func() ([]byte, error) { return w.readRaw(id) })
}

func (w *SourceWorld) File(id fsid.FileID) ([]byte, error) {
	w.recordDependency(id)
	return w.cache.File(id, func() ([]byte, error) { return w.readRaw(id) })
}

func (w *SourceWorld) recordDependency(id fsid.FileID) {
	if id == w.main {
		return
	}
	w.depsMu.Lock()
	w.deps[id] = struct{}{}
	w.depsMu.Unlock()
}

// IntoDependencies drains the set of file ids touched during this compile
// (everything but main), the Go analogue of the original's
// into_dependencies consuming conversion.
func (w *SourceWorld) IntoDependencies() []fsid.FileID {
	w.depsMu.Lock()
	defer w.depsMu.Unlock()
	out := make([]fsid.FileID, 0, len(w.deps))
	for id := range w.deps {
		out = append(out, id)
	}
	return out
}

func (w *SourceWorld) readRaw(id fsid.FileID) ([]byte, error) {
	path, ferr := w.resolvePath(id)
	if ferr != nil {
		return nil, ferr
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, classifyStatError(id, err)
	}
	if info.IsDir() {
		return nil, &compiler.FileError{Kind: compiler.FileErrorIsDirectory, Path: id.String()}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, classifyStatError(id, err)
	}
	return raw, nil
}

func (w *SourceWorld) resolvePath(id fsid.FileID) (string, *compiler.FileError) {
	if !id.IsPackage {
		return id.VPath.Resolve(w.res.ProjectRoot), nil
	}
	dir, err := w.pkgs.PreparePackage(id.Package)
	if err != nil {
		return "", &compiler.FileError{Kind: compiler.FileErrorPackage, Path: id.String(), Err: err}
	}
	return id.VPath.Resolve(dir), nil
}

func classifyStatError(id fsid.FileID, err error) *compiler.FileError {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return &compiler.FileError{Kind: compiler.FileErrorNotFound, Path: id.String(), Err: err}
	case errors.Is(err, os.ErrPermission):
		return &compiler.FileError{Kind: compiler.FileErrorAccessDenied, Path: id.String(), Err: err}
	default:
		return &compiler.FileError{Kind: compiler.FileErrorNotFound, Path: id.String(), Err: err}
	}
}
