package world

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/notegraphd/internal/compiler"
	"github.com/standardbeagle/notegraphd/internal/fsid"
)

type stubPackageStorage struct {
	dir string
	err error
}

func (s stubPackageStorage) PreparePackage(fsid.PackageSpec) (string, error) {
	return s.dir, s.err
}

func newTestWorld(t *testing.T, root string, main fsid.FileID) *SourceWorld {
	t.Helper()
	res := &Resources{ProjectRoot: root, Library: &compiler.Library{Name: "lib"}, Book: &compiler.FontBook{}}
	return NewSourceWorld(res, stubPackageStorage{}, NewSlotCache(), main, time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
}

func TestSourceWorldReadsProjectLocalFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.typ"), []byte("hello"), 0o644))

	main := fsid.New(nil, "/note.typ")
	w := newTestWorld(t, dir, main)

	src, err := w.Source(main)
	require.NoError(t, err)
	require.Equal(t, "hello", src.Text)
}

func TestSourceWorldRecordsNonMainDependencies(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.typ"), []byte("main"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.typ"), []byte("other"), 0o644))

	main := fsid.New(nil, "/main.typ")
	other := fsid.New(nil, "/other.typ")
	w := newTestWorld(t, dir, main)

	_, err := w.Source(main)
	require.NoError(t, err)
	_, err = w.Source(other)
	require.NoError(t, err)

	deps := w.IntoDependencies()
	require.Len(t, deps, 1)
	require.Equal(t, other, deps[0])
}

func TestSourceWorldMissingFileIsNotFound(t *testing.T) {
	dir := t.TempDir()
	main := fsid.New(nil, "/missing.typ")
	w := newTestWorld(t, dir, main)

	_, err := w.Source(main)
	require.Error(t, err)
	var ferr *compiler.FileError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, compiler.FileErrorNotFound, ferr.Kind)
}

func TestSourceWorldDirectoryIsRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	main := fsid.New(nil, "/sub")
	w := newTestWorld(t, dir, main)

	_, err := w.Source(main)
	require.Error(t, err)
	var ferr *compiler.FileError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, compiler.FileErrorIsDirectory, ferr.Kind)
}

func TestSourceWorldTodayAppliesOffsetAndRejectsOutOfRange(t *testing.T) {
	dir := t.TempDir()
	main := fsid.New(nil, "/main.typ")
	w := newTestWorld(t, dir, main)

	base, ok := w.Today(nil)
	require.True(t, ok)
	require.Equal(t, 2026, base.Year())
	require.Equal(t, time.June, base.Month())
	require.Equal(t, 15, base.Day())

	offset := 20
	shifted, ok := w.Today(&offset)
	require.True(t, ok)
	require.Equal(t, 16, shifted.Day())

	outOfRange := 48
	_, ok = w.Today(&outOfRange)
	require.False(t, ok)
}

func TestSourceWorldResolvesPackageFiles(t *testing.T) {
	pkgDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "lib.typ"), []byte("pkg content"), 0o644))

	spec := fsid.PackageSpec{Namespace: "preview", Name: "example", Version: "0.1.0"}
	id := fsid.New(&spec, "/lib.typ")

	res := &Resources{ProjectRoot: t.TempDir()}
	w := NewSourceWorld(res, stubPackageStorage{dir: pkgDir}, NewSlotCache(), fsid.New(nil, "/main.typ"), time.Now())

	raw, err := w.File(id)
	require.NoError(t, err)
	require.Equal(t, "pkg content", string(raw))
}
