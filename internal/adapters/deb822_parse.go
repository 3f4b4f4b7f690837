package adapters

import (
	"bufio"
	"io"
	"strings"

	"athenapt/internal/types"
)

// parseDeb822 splits a Packages/Sources/Release-style control file into its
// blank-line-separated stanzas, folding "field: value" lines together with
// their space-indented continuation lines, as nicwaller/apt-look's
// deb822.ParsePackages does for a single stanza at a time.
func parseDeb822(r io.Reader) ([]types.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var records []types.Record
	cur := types.Record{Values: make(map[string]string)}
	var lastField string

	flush := func() {
		if len(cur.Fields) == 0 {
			return
		}
		records = append(records, cur)
		cur = types.Record{Values: make(map[string]string)}
		lastField = ""
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if (line[0] == ' ' || line[0] == '\t') && lastField != "" {
			cur.Values[lastField] = cur.Values[lastField] + "\n" + strings.TrimPrefix(line, " ")
			continue
		}

		field, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		field = strings.TrimSpace(field)
		value = strings.TrimSpace(value)
		if _, exists := cur.Values[field]; !exists {
			cur.Fields = append(cur.Fields, field)
		}
		cur.Values[field] = value
		lastField = field
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return records, nil
}
