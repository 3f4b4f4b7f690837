package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildArEntry writes one ar member (60-byte header + padded data) to buf,
// mirroring the layout CheckDebArchive validates.
func buildArEntry(buf *bytes.Buffer, name string, data []byte) {
	header := make([]byte, 60)
	copy(header[0:16], padRight(name, 16))
	copy(header[16:28], padRight("0", 12))     // mtime
	copy(header[28:34], padRight("0", 6))      // uid
	copy(header[34:40], padRight("0", 6))      // gid
	copy(header[40:48], padRight("100644", 8)) // mode
	copy(header[48:58], padRight(itoa(len(data)), 10))
	header[58] = '`'
	header[59] = '\n'

	buf.Write(header)
	buf.Write(data)
	if len(data)%2 != 0 {
		buf.WriteByte('\n')
	}
}

func padRight(s string, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	return b
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func validDeb() []byte {
	var buf bytes.Buffer
	buf.WriteString(arGlobalMagic)
	buildArEntry(&buf, "debian-binary", []byte("2.0\n"))
	buildArEntry(&buf, "control.tar.gz", []byte("fake-control-bytes"))
	buildArEntry(&buf, "data.tar.gz", []byte("fake-data-bytes!"))
	return buf.Bytes()
}

func TestCheckDebArchive_Valid(t *testing.T) {
	report := CheckDebArchive(validDeb())
	require.True(t, report.WellFormed(), "errs: %v", report.Errs)
	require.Len(t, report.Entries, 3)
}

func TestCheckDebArchive_MissingGlobalMagic(t *testing.T) {
	data := validDeb()
	data[0] = 'X'
	report := CheckDebArchive(data)
	require.False(t, report.WellFormed())
}

func TestCheckDebArchive_MissingDataMember(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(arGlobalMagic)
	buildArEntry(&buf, "debian-binary", []byte("2.0\n"))
	buildArEntry(&buf, "control.tar.gz", []byte("x"))
	report := CheckDebArchive(buf.Bytes())
	require.False(t, report.WellFormed())
}

func TestCheckDebArchive_CorruptHeaderTerminator(t *testing.T) {
	data := validDeb()
	// Corrupt the terminator of the first member header.
	data[len(arGlobalMagic)+59] = 'x'
	report := CheckDebArchive(data)
	require.False(t, report.WellFormed())
}

func TestCheckDebArchive_NonDecimalSize(t *testing.T) {
	data := validDeb()
	offset := len(arGlobalMagic) + 48
	copy(data[offset:offset+10], []byte("zzzzzzzzzz"))
	report := CheckDebArchive(data)
	require.False(t, report.WellFormed())
}
