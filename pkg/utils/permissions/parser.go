// Package permissions parses the file modes used for exported files.
package permissions

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Default permission constants
const (
	DefaultFilePerms = 0o644 // exported images are meant to be shared
	DefaultDirPerms  = 0o755
)

// ParseOctalString parses an octal permission string into a uint16.
// Handles formats like "644", "0644", "0o644".
func ParseOctalString(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultFilePerms, nil
	}

	s = strings.TrimPrefix(s, "0o")
	if len(s) > 1 {
		s = strings.TrimPrefix(s, "0")
	}

	val, err := strconv.ParseUint(s, 8, 16)
	if err != nil {
		return DefaultFilePerms, fmt.Errorf("invalid permission string %q: %w", s, err)
	}
	if val > 0o777 {
		return DefaultFilePerms, fmt.Errorf("permission %q out of range", s)
	}

	return uint16(val), nil
}

// FileMode converts a parsed permission value to an os.FileMode.
func FileMode(perm uint16) os.FileMode {
	return os.FileMode(perm) & os.ModePerm
}

// FormatOctal formats a permission value as an octal string.
func FormatOctal(perm uint16) string {
	return fmt.Sprintf("0%o", perm)
}
