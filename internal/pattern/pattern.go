// Package pattern provides the glob-matching capability used to select assets
// by include/exclude pattern sets.
//
// Patterns use doublestar semantics: "*" stays within one path segment and
// "**" spans any number of directories. Paths are compared in slash form after
// Unicode NFC normalization, so names written by macOS (NFD) and Linux (NFC)
// tools match the same pattern.
package pattern

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/unicode/norm"
)

// Separator delimits patterns in a pattern-set string.
const Separator = ";"

// Split parses a `;`-delimited pattern string into its non-empty patterns.
func Split(value string) []string {
	var out []string
	for _, part := range strings.Split(value, Separator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, normalize(part))
	}
	return out
}

// Join renders patterns back into the `;`-delimited form.
func Join(patterns []string) string {
	return strings.Join(patterns, Separator)
}

// Validate rejects malformed patterns, naming each offender.
func Validate(patterns []string) error {
	var bad []string
	for _, p := range patterns {
		if !doublestar.ValidatePattern(normalize(p)) {
			bad = append(bad, p)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("invalid glob pattern(s): %s", strings.Join(bad, ", "))
	}
	return nil
}

// Match reports whether path matches at least one pattern in patterns. An
// empty path or empty pattern set never matches. Malformed patterns never
// match; use Validate to surface them.
func Match(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	name := normalize(path)
	if name == "" {
		return false
	}
	for _, p := range patterns {
		ok, err := doublestar.Match(normalize(p), name)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// normalize converts to slash form, applies NFC, and drops leading "./" and
// "/" so relative patterns apply to absolute paths too.
func normalize(value string) string {
	value = strings.ReplaceAll(strings.TrimSpace(value), "\\", "/")
	value = norm.NFC.String(value)
	for {
		switch {
		case strings.HasPrefix(value, "./"):
			value = value[2:]
		case strings.HasPrefix(value, "/"):
			value = value[1:]
		default:
			return value
		}
	}
}
