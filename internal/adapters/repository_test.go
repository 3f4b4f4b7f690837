package adapters

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeArEntry(buf *bytes.Buffer, name string, data []byte) {
	header := make([]byte, 60)
	copy(header[0:16], padTo(name, 16))
	copy(header[16:28], padTo("0", 12))
	copy(header[28:34], padTo("0", 6))
	copy(header[34:40], padTo("0", 6))
	copy(header[40:48], padTo("100644", 8))
	copy(header[48:58], padTo(itoaRepo(len(data)), 10))
	header[58] = '`'
	header[59] = '\n'
	buf.Write(header)
	buf.Write(data)
	if len(data)%2 != 0 {
		buf.WriteByte('\n')
	}
}

func padTo(s string, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	return b
}

func itoaRepo(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func wellFormedDeb() []byte {
	var buf bytes.Buffer
	buf.WriteString("!<arch>\n")
	writeArEntry(&buf, "debian-binary", []byte("2.0\n"))
	writeArEntry(&buf, "control.tar.gz", []byte("control-bytes"))
	writeArEntry(&buf, "data.tar.gz", []byte("data-bytes-here!"))
	return buf.Bytes()
}

func TestRepositoryAdapter_AddAndHas(t *testing.T) {
	dir := t.TempDir()
	repo := NewRepositoryAdapter(dir)

	srcPath := filepath.Join(t.TempDir(), "libexample_1.2.3_amd64.deb")
	require.NoError(t, os.WriteFile(srcPath, wellFormedDeb(), 0644))

	require.NoError(t, repo.Add(srcPath))

	has, err := repo.Has("libexample", "1.2.3", "amd64")
	require.NoError(t, err)
	require.True(t, has)

	_, err = os.Stat(srcPath)
	require.True(t, os.IsNotExist(err), "source file should have been moved, not copied")
}

func TestRepositoryAdapter_AddRejectsMalformedArchive(t *testing.T) {
	dir := t.TempDir()
	repo := NewRepositoryAdapter(dir)

	srcPath := filepath.Join(t.TempDir(), "broken_1.0_amd64.deb")
	require.NoError(t, os.WriteFile(srcPath, []byte("not an ar archive"), 0644))

	err := repo.Add(srcPath)
	require.Error(t, err)
}

func TestRepositoryAdapter_HasFalseForMissing(t *testing.T) {
	repo := NewRepositoryAdapter(t.TempDir())
	has, err := repo.Has("nope", "1.0", "amd64")
	require.NoError(t, err)
	require.False(t, has)
}

func TestRepositoryAdapter_List(t *testing.T) {
	dir := t.TempDir()
	repo := NewRepositoryAdapter(dir)

	srcPath := filepath.Join(t.TempDir(), "foo_1.0_amd64.deb")
	require.NoError(t, os.WriteFile(srcPath, wellFormedDeb(), 0644))
	require.NoError(t, repo.Add(srcPath))

	entries, err := repo.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "foo_1.0_amd64.deb", filepath.Base(entries[0].Path))
}
