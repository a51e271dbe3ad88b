package pkgstore

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/notegraphd/internal/fsid"
)

func buildTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestPreparePackageDownloadsAndExtracts(t *testing.T) {
	archive := buildTarGz(t, map[string]string{"lib.typ": "package content"})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	cacheRoot := t.TempDir()
	store := New(cacheRoot, srv.URL+"/index.json")

	spec := fsid.PackageSpec{Namespace: "preview", Name: "example", Version: "0.1.0"}
	dir, err := store.PreparePackage(spec)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "lib.typ"))
	require.NoError(t, err)
	require.Equal(t, "package content", string(content))
}

func TestPreparePackageIsIdempotentOnCacheHit(t *testing.T) {
	archive := buildTarGz(t, map[string]string{"lib.typ": "v1"})
	requests := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(archive)
	}))
	defer srv.Close()

	store := New(t.TempDir(), srv.URL+"/index.json")
	spec := fsid.PackageSpec{Namespace: "preview", Name: "example", Version: "0.1.0"}

	_, err := store.PreparePackage(spec)
	require.NoError(t, err)
	_, err = store.PreparePackage(spec)
	require.NoError(t, err)

	require.Equal(t, 1, requests, "second call must be served from the cache, not re-downloaded")
}

func TestPreparePackageRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := New(t.TempDir(), srv.URL+"/index.json")
	spec := fsid.PackageSpec{Namespace: "preview", Name: "missing", Version: "0.0.1"}

	_, err := store.PreparePackage(spec)
	require.Error(t, err)
}

func TestIndexIsFetchedOnce(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`[{"namespace":"preview","name":"example","version":"0.1.0"}]`))
	}))
	defer srv.Close()

	store := New(t.TempDir(), srv.URL+"/index.json")

	idx1, err := store.Index()
	require.NoError(t, err)
	idx2, err := store.Index()
	require.NoError(t, err)

	require.Equal(t, idx1, idx2)
	require.Equal(t, 1, requests)
	require.Equal(t, []Metadata{{Namespace: "preview", Name: "example", Version: "0.1.0"}}, idx1)
}

func TestExtractTarGzRejectsPathTraversal(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "../escape.typ", Mode: 0o644, Size: 4}))
	_, err := tw.Write([]byte("evil"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	dest := t.TempDir()
	err = extractTarGz(&buf, dest)
	require.Error(t, err)
}
