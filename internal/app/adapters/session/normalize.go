package session

import (
	"strings"
	"unicode"
)

// Chat clients append invisible runes (U+E0000, zero-width spaces) to get past
// the duplicate-message check, so search ignores them.
func invisible(r rune) bool {
	switch {
	case unicode.Is(unicode.Cf, r), unicode.IsControl(r):
		return true
	case r >= 0xFE00 && r <= 0xFE0F, r >= 0xE0100 && r <= 0xE01EF:
		return true
	case r >= 0xE0000 && r <= 0xE007F, r == 0x180E:
		return true
	}
	return false
}

// fold lowercases s and drops invisible runes.
func fold(s string) string {
	return strings.Map(func(r rune) rune {
		if invisible(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}
