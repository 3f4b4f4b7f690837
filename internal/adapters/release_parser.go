package adapters

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"athenapt/internal/types"
)

// parseReleaseManifest parses an InRelease/Release control file's mandatory
// fields and hash tables into a ReleaseManifest. The clearsign wrapper (if
// any) must already have been stripped by the caller; signature
// verification is a separate step (see release_signature.go) so that an
// unsigned Release + detached Release.gpg pair parses the same way as an
// InRelease file once unwrapped.
func parseReleaseManifest(r io.Reader) (types.ReleaseManifest, error) {
	records, err := parseDeb822(r)
	if err != nil {
		return types.ReleaseManifest{}, fmt.Errorf("parsing release control file: %w", err)
	}
	if len(records) == 0 {
		return types.ReleaseManifest{}, fmt.Errorf("release file has no stanzas")
	}
	rec := records[0]

	m := types.ReleaseManifest{
		Suite:    rec.GetDefault("Suite", ""),
		Codename: rec.GetDefault("Codename", ""),
		Date:     rec.GetDefault("Date", ""),
	}
	if m.Suite == "" && m.Codename == "" {
		return types.ReleaseManifest{}, fmt.Errorf("release file has neither Suite nor Codename")
	}

	if archField, ok := rec.Get("Architectures"); ok {
		m.Architectures = strings.Fields(archField)
	}
	if compField, ok := rec.Get("Components"); ok {
		m.Components = strings.Fields(compField)
	}

	hashField, ok := rec.Get("MD5Sum")
	if !ok {
		return types.ReleaseManifest{}, fmt.Errorf("release file is missing MD5Sum table")
	}
	entries, err := parseHashTable(hashField)
	if err != nil {
		return types.ReleaseManifest{}, fmt.Errorf("parsing MD5Sum table: %w", err)
	}
	m.Files = entries

	return m, nil
}

// parseHashTable parses the multi-line body of an MD5Sum field,
// each line shaped "hash size path". Per spec.md §4.2 item 2, two entries
// sharing the same Path make the manifest untrustworthy and fail parsing
// outright, rather than leaving Entry() to silently pick the first.
func parseHashTable(field string) ([]types.ReleaseFileEntry, error) {
	var out []types.ReleaseFileEntry
	seen := make(map[string]bool)
	for _, line := range strings.Split(field, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed hash entry %q", line)
		}
		size, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed size in hash entry %q: %w", line, err)
		}
		path := parts[2]
		if seen[path] {
			return nil, fmt.Errorf("duplicate hash table entry for path %q", path)
		}
		seen[path] = true
		out = append(out, types.ReleaseFileEntry{MD5: parts[0], Size: size, Path: path})
	}
	return out, nil
}
