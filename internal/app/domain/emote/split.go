package emote

import (
	"slices"
	"strings"
)

// Segment is either literal text or an emote. For emotes Text holds the
// slice of the message the emote covered, so joining all segments gives
// the message back.
type Segment struct {
	Text  string `json:"text"`
	Emote *Info  `json:"emote,omitempty"`
}

func (s Segment) IsEmote() bool {
	return s.Emote != nil
}

type span struct {
	Position
	info Info
}

func Split(message string, annotations []Annotation) []Segment {
	return defaultMatcher.Split(message, annotations)
}

// Split partitions message into text and emote segments. Ranges are sorted by
// start; a range survives only if it begins after the previously kept one ends,
// so on overlap the earlier range (or, for equal starts, the earlier annotation) wins.
func (m *Matcher) Split(message string, annotations []Annotation) []Segment {
	if message == "" || len(annotations) == 0 {
		return []Segment{{Text: message}}
	}

	runes := []rune(message)

	var spans []span
	for _, a := range annotations {
		info := Info{ID: a.ID, Code: a.Code}

		positions := a.Positions
		if len(positions) == 0 {
			positions = m.Find(message, a.Code)
		}
		for _, p := range positions {
			if p.valid(len(runes)) {
				spans = append(spans, span{Position: p, info: info})
			}
		}
	}

	slices.SortStableFunc(spans, func(a, b span) int {
		return a.Start - b.Start
	})

	kept := spans[:0]
	for _, s := range spans {
		if len(kept) == 0 || s.Start > kept[len(kept)-1].End {
			kept = append(kept, s)
		}
	}

	if len(kept) == 0 {
		return []Segment{{Text: message}}
	}

	segments := make([]Segment, 0, len(kept)*2+1)
	prev := 0
	for _, s := range kept {
		if s.Start > prev {
			segments = append(segments, Segment{Text: string(runes[prev:s.Start])})
		}

		info := s.info
		segments = append(segments, Segment{Text: string(runes[s.Start : s.End+1]), Emote: &info})
		prev = s.End + 1
	}
	if prev < len(runes) {
		segments = append(segments, Segment{Text: string(runes[prev:])})
	}

	return segments
}

func Join(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}
