// Package shared provides small utility functions used across multiple
// packages in athenapt.
package shared

import (
	"fmt"
	"strings"
)

// NormalizePackageName lowercases and trims a package name as it arrives
// from a seed list or CLI flag. Debian package names are already
// lowercase by policy; this only protects against stray whitespace and
// user typos in mixed case, it does not relax the policy itself.
func NormalizePackageName(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// BuildOutputError wraps a non-zero container build exit with the tail of
// its captured log output (the last lines the builder kept), trimmed, so
// the CLI can surface that context without re-opening the log file.
func BuildOutputError(tail []byte, err error) error {
	trimmed := strings.TrimSpace(string(tail))
	if trimmed == "" {
		return err
	}
	return fmt.Errorf("%s: %w", trimmed, err)
}
