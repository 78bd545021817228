package emote

import (
	"github.com/maypok86/otter/v2"
	"regexp"
	"unicode/utf8"
)

// Matcher finds whole-word occurrences of emote codes.
// Compiled patterns are kept in a bounded cache shared by all lookups.
type Matcher struct {
	patterns *otter.Cache[string, *regexp.Regexp]
}

func NewMatcher(size int) *Matcher {
	return &Matcher{
		patterns: otter.Must(&otter.Options[string, *regexp.Regexp]{
			MaximumSize: size,
		}),
	}
}

var defaultMatcher = NewMatcher(4096)

func (m *Matcher) pattern(code string) *regexp.Regexp {
	if re, ok := m.patterns.GetIfPresent(code); ok {
		return re
	}

	expr := regexp.QuoteMeta(code)
	if r, _ := utf8.DecodeRuneInString(code); isWordRune(r) {
		expr = `\b` + expr
	}
	if r, _ := utf8.DecodeLastRuneInString(code); isWordRune(r) {
		expr += `\b`
	}

	re := regexp.MustCompile(expr)
	m.patterns.Set(code, re)
	return re
}

// Find returns every non-overlapping occurrence of code in message as rune positions.
func (m *Matcher) Find(message, code string) []Position {
	if code == "" || message == "" {
		return nil
	}

	idx := m.pattern(code).FindAllStringIndex(message, -1)
	if len(idx) == 0 {
		return nil
	}

	out := make([]Position, 0, len(idx))
	for _, loc := range idx {
		start := utf8.RuneCountInString(message[:loc[0]])
		length := utf8.RuneCountInString(message[loc[0]:loc[1]])
		out = append(out, Position{Start: start, End: start + length - 1})
	}
	return out
}

// isWordRune mirrors the ASCII definition \b uses.
func isWordRune(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
