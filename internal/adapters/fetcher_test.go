package adapters

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"path"
	"testing"

	"github.com/stretchr/testify/require"

	"athenapt/internal/types"
)

func md5Sum(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func newFetchTestServer(t *testing.T, files map[string][]byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := files[path.Base(r.URL.Path)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
}

func TestFetcherAdapter_Fetch_OneFileFailureDoesNotAbortSiblings(t *testing.T) {
	good := []byte("good source tarball")
	srv := newFetchTestServer(t, map[string][]byte{"good_1.0.tar.gz": good})
	defer srv.Close()

	plan := &types.BuildPlan{Entries: []*types.BuildEntry{
		{Source: types.SourcePackage{
			Name: "good", Directory: "pool/main/g/good",
			Files: []types.SourceFile{{Name: "good_1.0.tar.gz", MD5: md5Sum(good), Size: int64(len(good))}},
		}},
		{Source: types.SourcePackage{
			Name: "bad", Directory: "pool/main/b/bad",
			Files: []types.SourceFile{{Name: "missing_1.0.tar.gz", MD5: "deadbeef", Size: 1}},
		}},
	}}

	f := NewFetcherAdapter()
	destDir := t.TempDir()
	failures, err := f.Fetch(context.Background(), plan, types.SourceConfig{ArchiveURL: srv.URL}, destDir, nil)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	require.Equal(t, "bad", failures[0].Source)
	require.Equal(t, "missing_1.0.tar.gz", failures[0].File)

	valid, err := fileMatchesMD5(destDir+"/good_1.0.tar.gz", md5Sum(good))
	require.NoError(t, err)
	require.True(t, valid)
}

func TestFetcherAdapter_Fetch_MD5MismatchIsRecordedNotFatal(t *testing.T) {
	data := []byte("tampered")
	srv := newFetchTestServer(t, map[string][]byte{"x_1.0.tar.gz": data})
	defer srv.Close()

	plan := &types.BuildPlan{Entries: []*types.BuildEntry{
		{Source: types.SourcePackage{
			Name: "x", Directory: "pool/main/x/x",
			Files: []types.SourceFile{{Name: "x_1.0.tar.gz", MD5: "0000000000000000000000000000000", Size: int64(len(data))}},
		}},
	}}

	f := NewFetcherAdapter()
	failures, err := f.Fetch(context.Background(), plan, types.SourceConfig{ArchiveURL: srv.URL}, t.TempDir(), nil)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	require.Equal(t, "x", failures[0].Source)
}

func TestFetcherAdapter_Fetch_CanceledContextAborts(t *testing.T) {
	plan := &types.BuildPlan{Entries: []*types.BuildEntry{
		{Source: types.SourcePackage{Name: "x", Files: []types.SourceFile{{Name: "x_1.0.tar.gz", MD5: "abc"}}}},
	}}

	f := NewFetcherAdapter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	failures, err := f.Fetch(ctx, plan, types.SourceConfig{ArchiveURL: "http://example.invalid"}, t.TempDir(), nil)
	require.Error(t, err)
	require.Nil(t, failures)
}
