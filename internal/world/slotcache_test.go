package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/notegraphd/internal/compiler"
	"github.com/standardbeagle/notegraphd/internal/fsid"
)

func TestSourceIsIdempotentWithinABuild(t *testing.T) {
	cache := NewSlotCache()
	id := fsid.New(nil, "/note.typ")
	reads := 0

	read := func() ([]byte, error) {
		reads++
		return []byte("hello"), nil
	}

	src1, err := cache.Source(id, read)
	require.NoError(t, err)
	src2, err := cache.Source(id, read)
	require.NoError(t, err)

	require.Same(t, src1, src2)
	require.Equal(t, 1, reads, "second access within the same build must not re-read")
}

func TestResetAllowsFingerprintReuseAcrossBuilds(t *testing.T) {
	cache := NewSlotCache()
	id := fsid.New(nil, "/note.typ")
	reads := 0

	read := func() ([]byte, error) {
		reads++
		return []byte("unchanged"), nil
	}

	first, err := cache.Source(id, read)
	require.NoError(t, err)

	cache.Reset(id)

	second, err := cache.Source(id, read)
	require.NoError(t, err)

	require.Same(t, first, second, "unchanged fingerprint must reuse the cached decode")
	require.Equal(t, 2, reads, "reset must still force a re-read of raw bytes to check the fingerprint")
}

func TestResetWithChangedContentReplacesInPlace(t *testing.T) {
	cache := NewSlotCache()
	id := fsid.New(nil, "/note.typ")
	content := "version one"

	read := func() ([]byte, error) {
		return []byte(content), nil
	}

	first, err := cache.Source(id, read)
	require.NoError(t, err)
	require.Equal(t, "version one", first.Text)

	cache.Reset(id)
	content = "version two"

	second, err := cache.Source(id, read)
	require.NoError(t, err)
	require.Same(t, first, second, "decode replaces the same Source value in place")
	require.Equal(t, "version two", second.Text)
}

func TestSourceStripsUTF8BOM(t *testing.T) {
	cache := NewSlotCache()
	id := fsid.New(nil, "/note.typ")

	read := func() ([]byte, error) {
		return append([]byte{0xEF, 0xBB, 0xBF}, []byte("content")...), nil
	}

	src, err := cache.Source(id, read)
	require.NoError(t, err)
	require.Equal(t, "content", src.Text)
}

func TestSourceRejectsInvalidUTF8(t *testing.T) {
	cache := NewSlotCache()
	id := fsid.New(nil, "/note.typ")

	read := func() ([]byte, error) {
		return []byte{0xff, 0xfe, 0xfd}, nil
	}

	_, err := cache.Source(id, read)
	require.Error(t, err)

	var ferr *compiler.FileError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, compiler.FileErrorUTF8, ferr.Kind)
}

func TestSourcePropagatesReadError(t *testing.T) {
	cache := NewSlotCache()
	id := fsid.New(nil, "/missing.typ")
	wantErr := &compiler.FileError{Kind: compiler.FileErrorNotFound, Path: id.String()}

	_, err := cache.Source(id, func() ([]byte, error) { return nil, wantErr })
	require.ErrorIs(t, err, wantErr)
}

func TestFileAndSourceCellsAreIndependent(t *testing.T) {
	cache := NewSlotCache()
	id := fsid.New(nil, "/note.typ")

	sourceReads, byteReads := 0, 0
	_, err := cache.Source(id, func() ([]byte, error) {
		sourceReads++
		return []byte("text"), nil
	})
	require.NoError(t, err)

	raw, err := cache.File(id, func() ([]byte, error) {
		byteReads++
		return []byte("text"), nil
	})
	require.NoError(t, err)
	require.Equal(t, "text", string(raw))
	require.Equal(t, 1, sourceReads)
	require.Equal(t, 1, byteReads)
}

func TestSourceWrapsGenericReadError(t *testing.T) {
	cache := NewSlotCache()
	id := fsid.New(nil, "/note.typ")

	_, err := cache.Source(id, func() ([]byte, error) { return nil, errors.New("disk exploded") })
	require.Error(t, err)

	var ferr *compiler.FileError
	require.ErrorAs(t, err, &ferr)
}
