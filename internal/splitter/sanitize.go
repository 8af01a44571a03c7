package splitter

import (
	"strings"
	"unicode"
)

// SanitizeFilename replaces characters that are unsafe in filenames with
// underscores. Letters and digits in any script survive, as do spaces,
// hyphens, underscores, periods and the Hebrew block. Leading and
// trailing whitespace is trimmed.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		case r >= 0x0590 && r <= 0x05FF:
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.TrimSpace(b.String())
}
