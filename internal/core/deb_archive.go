package core

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/blakesmith/ar"
)

const (
	arGlobalMagic = "!<arch>\n"
	arHeaderSize  = 60
)

// ArEntry is one member of a .deb's outer ar container.
type ArEntry struct {
	Name string
	Size int64
}

// ArchiveReport is the result of checking a .deb for ar well-formedness.
type ArchiveReport struct {
	Entries []ArEntry
	Errs    []string
}

// WellFormed reports whether the archive satisfies every invariant spec.md
// §4.7 requires of a .deb's outer container.
func (r ArchiveReport) WellFormed() bool {
	return len(r.Errs) == 0
}

// CheckDebArchive validates that data is a well-formed ar archive with the
// required Debian .deb member set.
//
// This is deliberately stricter than "github.com/blakesmith/ar parses it
// without error": ar.Reader tolerates headers that are the wrong length or
// whose size field isn't decimal-padded, because it only reads as many
// bytes as the size field claims. Here the archive is walked by hand,
// without the library: each header must end in "`\n", carry a decimal size
// field that does not overrun the data, and odd-sized members must be
// followed by a '\n' pad byte. The name is only checked against the
// required member set; the mtime, uid, gid and mode fields are not
// checked, so corruption confined to them is not detected.
func CheckDebArchive(data []byte) ArchiveReport {
	var report ArchiveReport

	if len(data) < len(arGlobalMagic) || string(data[:len(arGlobalMagic)]) != arGlobalMagic {
		report.Errs = append(report.Errs, "missing ar global magic \"!<arch>\\n\"")
		return report
	}

	offset := int64(len(arGlobalMagic))
	names := make(map[string]bool)

	for offset < int64(len(data)) {
		if offset+arHeaderSize > int64(len(data)) {
			report.Errs = append(report.Errs, fmt.Sprintf("truncated header at offset %d: fewer than %d bytes remain", offset, arHeaderSize))
			break
		}

		header := data[offset : offset+arHeaderSize]

		if string(header[58:60]) != "`\n" {
			report.Errs = append(report.Errs, fmt.Sprintf("entry at offset %d: bad header terminator %q, want \"`\\n\"", offset, header[58:60]))
			break
		}

		name := strings.TrimRight(string(header[0:16]), " ")
		sizeField := strings.TrimSpace(string(header[48:58]))
		size, err := strconv.ParseInt(sizeField, 10, 64)
		if err != nil {
			report.Errs = append(report.Errs, fmt.Sprintf("entry %q at offset %d: non-decimal size field %q", name, offset, sizeField))
			break
		}

		dataStart := offset + arHeaderSize
		dataEnd := dataStart + size
		if dataEnd > int64(len(data)) {
			report.Errs = append(report.Errs, fmt.Sprintf("entry %q: declared size %d overruns archive", name, size))
			break
		}

		report.Entries = append(report.Entries, ArEntry{Name: name, Size: size})
		names[name] = true

		// Member data is padded to an even length with a trailing '\n'
		// when size is odd; verify the pad byte is actually present
		// rather than assuming it.
		next := dataEnd
		if size%2 != 0 {
			if next >= int64(len(data)) || data[next] != '\n' {
				report.Errs = append(report.Errs, fmt.Sprintf("entry %q: odd size %d missing required padding byte", name, size))
				break
			}
			next++
		}
		offset = next
	}

	if len(report.Errs) > 0 {
		return report
	}

	requireEntry(&report, names, "debian-binary")
	requireAnyPrefixed(&report, names, "control.tar")
	requireAnyPrefixed(&report, names, "data.tar")

	return report
}

func requireEntry(report *ArchiveReport, names map[string]bool, name string) {
	if !names[name] {
		report.Errs = append(report.Errs, fmt.Sprintf("missing required entry %q", name))
	}
}

func requireAnyPrefixed(report *ArchiveReport, names map[string]bool, prefix string) {
	for name := range names {
		if strings.HasPrefix(name, prefix) {
			return
		}
	}
	report.Errs = append(report.Errs, fmt.Sprintf("no entry with prefix %q", prefix))
}

// memberNames re-walks data with github.com/blakesmith/ar once
// CheckDebArchive has already certified the structural invariants, giving
// a second, library-backed reading as a cross-check before a caller trusts
// the member list enough to extract from it.
func memberNames(data []byte) ([]string, error) {
	rd := ar.NewReader(bytes.NewReader(data))
	var names []string
	for {
		hdr, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, strings.TrimSpace(hdr.Name))
	}
	return names, nil
}
