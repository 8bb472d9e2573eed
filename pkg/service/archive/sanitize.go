package archive

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// UnknownFileName replaces names that would be empty after sanitization
const UnknownFileName = "Unknown"

const maxNameBytes = 200

// SanitizeFileName makes name usable as a single path element on common file systems.
// Reserved characters, control characters and whitespace become '_'. Names that end up
// empty or consist only of dots become UnknownFileName.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	for _, r := range name {
		switch {
		case r == utf8.RuneError:
			b.WriteRune('_')
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteRune('_')
		case unicode.IsControl(r), unicode.IsSpace(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	sanitized := truncate(b.String(), maxNameBytes)
	if strings.Trim(sanitized, ".") == "" {
		return UnknownFileName
	}
	return sanitized
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
