package emote

import (
	"html"
	"strings"
)

// Used returns the catalog emotes whose name appears anywhere in message.
func Used(message string, catalog []Emote) []Emote {
	if message == "" || len(catalog) == 0 {
		return nil
	}

	var out []Emote
	for _, e := range catalog {
		if e.Name != "" && strings.Contains(message, e.Name) {
			out = append(out, e)
		}
	}
	return out
}

// FromCatalog turns the catalog emotes present in message into annotations
// without positions; Split locates them on word boundaries.
func FromCatalog(message string, catalog []Emote) []Annotation {
	used := Used(message, catalog)
	if len(used) == 0 {
		return nil
	}

	out := make([]Annotation, 0, len(used))
	for _, e := range used {
		out = append(out, Annotation{ID: e.ID, Code: e.Name})
	}
	return out
}

// Find looks an emote up by name, ignoring case.
func Find(catalog []Emote, name string) (Emote, bool) {
	for _, e := range catalog {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Emote{}, false
}

// RenderHTML renders segments as escaped HTML with an <img> per emote.
// src maps an emote to its image URL; emotes without one stay plain text.
func RenderHTML(segments []Segment, src func(Info) string) string {
	var b strings.Builder
	for _, s := range segments {
		if !s.IsEmote() {
			b.WriteString(html.EscapeString(s.Text))
			continue
		}

		url := ""
		if src != nil {
			url = src(*s.Emote)
		}
		if url == "" {
			b.WriteString(html.EscapeString(s.Text))
			continue
		}

		b.WriteString(`<img src="`)
		b.WriteString(html.EscapeString(url))
		b.WriteString(`" class="message-emote" data-name="`)
		b.WriteString(html.EscapeString(s.Emote.Code))
		b.WriteString(`" />`)
	}
	return b.String()
}
