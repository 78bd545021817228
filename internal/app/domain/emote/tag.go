package emote

import (
	"strconv"
	"strings"
)

// ParseTag reads the value of the "emotes" tag, e.g. "25:0-4,12-16/1902:6-10".
// Groups or ranges that do not parse are dropped; the code of each emote is
// taken from the message at its first valid range.
func ParseTag(tag, message string) []Annotation {
	if tag == "" || message == "" {
		return nil
	}

	runes := []rune(message)
	var out []Annotation
	for _, group := range strings.Split(tag, "/") {
		id, ranges, ok := strings.Cut(group, ":")
		if !ok || id == "" || ranges == "" || strings.Contains(ranges, ":") {
			continue
		}

		var positions []Position
		for _, r := range strings.Split(ranges, ",") {
			startStr, endStr, ok := strings.Cut(r, "-")
			if !ok {
				continue
			}
			start, err := strconv.Atoi(startStr)
			if err != nil {
				continue
			}
			end, err := strconv.Atoi(endStr)
			if err != nil {
				continue
			}

			p := Position{Start: start, End: end}
			if !p.valid(len(runes)) {
				continue
			}
			positions = append(positions, p)
		}
		if len(positions) == 0 {
			continue
		}

		first := positions[0]
		out = append(out, Annotation{
			ID:        id,
			Code:      string(runes[first.Start : first.End+1]),
			Positions: positions,
		})
	}

	return out
}
