package adapters

import (
	"bytes"
	"compress/gzip"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"athenapt/internal/types"
)

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func md5Hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// newTestArchiveServer serves a minimal apt archive for codename "stable",
// component "main", architecture "amd64": a bare Release (no InRelease, so
// loadReleaseManifest falls back), one Packages.gz, one Sources.gz.
func newTestArchiveServer(t *testing.T) (*httptest.Server, []byte, []byte) {
	t.Helper()
	packagesGz := gzipBytes(t, "Package: coreutils\nVersion: 1.0\nArchitecture: amd64\n\n")
	sourcesGz := gzipBytes(t, "Package: coreutils\nVersion: 1.0\nDirectory: pool/main/c/coreutils\n\n")

	release := "Suite: stable\nCodename: stable\nArchitectures: amd64\nComponents: main\n" +
		"MD5Sum:\n" +
		" " + md5Hex(packagesGz) + " " + strconv.Itoa(len(packagesGz)) + " main/binary-amd64/Packages.gz\n" +
		" " + md5Hex(sourcesGz) + " " + strconv.Itoa(len(sourcesGz)) + " main/source/Sources.gz\n"

	mux := http.NewServeMux()
	mux.HandleFunc("/dists/stable/InRelease", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/dists/stable/Release", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(release))
	})
	mux.HandleFunc("/dists/stable/main/binary-amd64/Packages.gz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(packagesGz)
	})
	mux.HandleFunc("/dists/stable/main/source/Sources.gz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(sourcesGz)
	})
	return httptest.NewServer(mux), packagesGz, sourcesGz
}

func TestRecordStoreAdapter_Load_ParsesPackagesAndSources(t *testing.T) {
	srv, _, _ := newTestArchiveServer(t)
	defer srv.Close()

	store := NewRecordStoreAdapter("", nil)
	cache, err := store.Load(t.Context(), types.BaseConfig{
		ArchiveURL: srv.URL,
		Codename:   "stable",
		Arch:       "amd64",
		Components: []string{"main"},
	})
	require.NoError(t, err)

	bins := cache.ByName("coreutils")
	require.Len(t, bins, 1)
	require.Equal(t, "1.0", bins[0].Version)

	srcs := cache.Source("coreutils")
	require.Len(t, srcs, 1)
	require.Equal(t, "pool/main/c/coreutils", srcs[0].Directory)
}

func TestRecordStoreAdapter_Load_RedownloadsOnCacheStaleness(t *testing.T) {
	srv, packagesGz, _ := newTestArchiveServer(t)
	defer srv.Close()

	cacheDir := t.TempDir()
	// Seed the on-disk cache with stale bytes for the Packages.gz URL. Per
	// spec.md §4.2's release-mismatch handling, a cached copy whose md5 no
	// longer matches the release manifest is refetched from the network
	// rather than treated as fatal.
	staleKey := cacheKey(srv.URL + "/dists/stable/main/binary-amd64/Packages.gz")
	require.NoError(t, writeCacheFile(cacheDir, staleKey, []byte("not the real gzip content")))

	store := NewRecordStoreAdapter(cacheDir, nil)
	cache, err := store.Load(t.Context(), types.BaseConfig{
		ArchiveURL: srv.URL,
		Codename:   "stable",
		Arch:       "amd64",
		Components: []string{"main"},
	})
	require.NoError(t, err)
	require.Len(t, cache.ByName("coreutils"), 1)

	// The redownload must have overwritten the stale cache entry.
	refreshed, ok := readCacheFile(cacheDir, staleKey)
	require.True(t, ok)
	require.Equal(t, packagesGz, refreshed)
}

func TestRecordStoreAdapter_Load_ArchiveErrorWhenUpstreamAlsoMismatches(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dists/stable/InRelease", http.NotFound)
	mux.HandleFunc("/dists/stable/Release", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Suite: stable\nCodename: stable\nArchitectures: amd64\nComponents: main\n" +
			"MD5Sum:\n 0000000000000000000000000000000 10 main/binary-amd64/Packages.gz\n" +
			" 0000000000000000000000000000000 10 main/source/Sources.gz\n"))
	})
	mux.HandleFunc("/dists/stable/main/binary-amd64/Packages.gz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(gzipBytes(t, "Package: coreutils\nVersion: 1.0\nArchitecture: amd64\n\n"))
	})
	mux.HandleFunc("/dists/stable/main/source/Sources.gz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(gzipBytes(t, "Package: coreutils\nVersion: 1.0\nDirectory: pool/main/c/coreutils\n\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := NewRecordStoreAdapter("", nil)
	_, err := store.Load(t.Context(), types.BaseConfig{
		ArchiveURL: srv.URL,
		Codename:   "stable",
		Arch:       "amd64",
		Components: []string{"main"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "md5 mismatch")
}

func TestRecordStoreAdapter_fetchControlRecords_MissingManifestEntryIsFatal(t *testing.T) {
	store := NewRecordStoreAdapter("", nil)
	data := gzipBytes(t, "Package: foo\nVersion: 1\n\n")
	manifest := types.ReleaseManifest{} // no Files at all

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	_, err := store.fetchControlRecords(t.Context(), srv.URL+"/dists/stable", "main/binary-amd64/Packages.gz", manifest)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no MD5Sum entry")
}

func TestParseHashTable_DuplicatePathFails(t *testing.T) {
	field := " 0000000000000000000000000000000 10 main/binary-amd64/Packages.gz\n" +
		" 1111111111111111111111111111111 20 main/binary-amd64/Packages.gz\n"
	_, err := parseHashTable(field)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestRecordStoreAdapter_fetchControlRecords_MD5Mismatch(t *testing.T) {
	store := NewRecordStoreAdapter("", nil)
	data := gzipBytes(t, "Package: foo\nVersion: 1\n\n")
	manifest := types.ReleaseManifest{
		Files: []types.ReleaseFileEntry{
			{Path: "main/binary-amd64/Packages.gz", MD5: "0000000000000000000000000000000", Size: int64(len(data))},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()
	store.HTTP = normalizeHTTPConfig(0, 0, 0)

	_, err := store.fetchControlRecords(t.Context(), srv.URL+"/dists/stable", "main/binary-amd64/Packages.gz", manifest)
	require.Error(t, err)
	require.Contains(t, err.Error(), "md5 mismatch")
}
