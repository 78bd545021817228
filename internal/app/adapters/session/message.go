package session

import (
	"strings"
	"time"
	"tirc/internal/app/domain/emote"
	"tirc/internal/app/domain/irc"
)

const systemUser = "system"

type Message struct {
	ID          string            `json:"id"`
	Channel     irc.Channel       `json:"channel"`
	Username    string            `json:"username"`
	DisplayName string            `json:"display_name"`
	Text        string            `json:"text"`
	Color       string            `json:"color,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	Segments    []emote.Segment   `json:"segments"`
	HTML        string            `json:"html"`
	Emotes      []emote.Emote     `json:"emotes,omitempty"`
	Self        bool              `json:"self"`
	System      bool              `json:"system"`
	Timestamp   time.Time         `json:"timestamp"`
}

func (m Message) matches(query string) bool {
	q := fold(query)
	return strings.Contains(fold(m.Text), q) ||
		strings.Contains(m.Username, q) ||
		strings.Contains(fold(m.DisplayName), q)
}

// annotate finds the emotes of a message: positions from the Twitch tag
// first, then catalog emotes located by word. Earlier annotations win overlaps.
func annotate(text, tag string, catalog []emote.Emote) ([]emote.Segment, []emote.Emote) {
	anns := emote.ParseTag(tag, text)

	used := make([]emote.Emote, 0, len(anns))
	for _, a := range anns {
		used = append(used, emote.Emote{
			ID:       a.ID,
			Name:     a.Code,
			Provider: emote.ProviderTwitch,
			URLs: map[string]string{
				"1x": emote.TwitchURL(a.ID, "1.0"),
				"2x": emote.TwitchURL(a.ID, "2.0"),
				"3x": emote.TwitchURL(a.ID, "3.0"),
				"4x": emote.TwitchURL(a.ID, "3.0"),
			},
		})
	}

	anns = append(anns, emote.FromCatalog(text, catalog)...)
	used = append(used, emote.Used(text, catalog)...)

	return emote.Split(text, anns), used
}

// render turns the segments into HTML with each emote's smallest image.
func render(segments []emote.Segment, used []emote.Emote) string {
	urls := make(map[emote.Info]string, len(used))
	for _, e := range used {
		urls[emote.Info{ID: e.ID, Code: e.Name}] = e.URLs["1x"]
	}
	return emote.RenderHTML(segments, func(i emote.Info) string {
		return urls[i]
	})
}
