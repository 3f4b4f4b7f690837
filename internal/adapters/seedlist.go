package adapters

import (
	"bufio"
	"io"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"athenapt/internal/shared"
)

// ParseSeedList reads a plaintext package seed list: one name per line,
// '#'-prefixed comment lines and blank lines ignored, per spec.md §6.
func ParseSeedList(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, shared.NormalizePackageName(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, errbuilder.New().WithCode(errbuilder.CodeInvalidArgument).WithMsg("failed to read seed list").WithCause(err)
	}
	return names, nil
}
