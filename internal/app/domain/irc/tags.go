package irc

import "strings"

// ParseTags parses the IRCv3 tag block without the leading '@'.
// Entries without '=' or with an empty key are skipped one by one.
func ParseTags(raw string) map[string]string {
	tags := make(map[string]string)

	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ';' {
			tag := raw[start:i]
			start = i + 1

			eq := strings.IndexByte(tag, '=')
			if eq <= 0 {
				continue
			}
			tags[tag[:eq]] = unescapeTag(tag[eq+1:])
		}
	}

	return tags
}

func unescapeTag(v string) string {
	if strings.IndexByte(v, '\\') == -1 {
		return v
	}

	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		if v[i] != '\\' {
			b.WriteByte(v[i])
			continue
		}
		i++
		if i == len(v) {
			break
		}
		switch v[i] {
		case ':':
			b.WriteByte(';')
		case 's':
			b.WriteByte(' ')
		case '\\':
			b.WriteByte('\\')
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		default:
			b.WriteByte(v[i])
		}
	}
	return b.String()
}
