package emote

import "fmt"

type Provider string

const (
	ProviderTwitch Provider = "twitch"
	ProviderBTTV   Provider = "bttv"
	ProviderFFZ    Provider = "ffz"
)

const twitchCDN = "https://static-cdn.jtvnw.net/emoticons/v2"

// Position is an inclusive range of rune indices into a message,
// the way the Twitch "emotes" tag reports it.
type Position struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (p Position) valid(length int) bool {
	return p.Start >= 0 && p.End >= p.Start && p.End < length
}

// Annotation marks where an emote occurs. Without positions the
// splitter looks the code up in the message itself.
type Annotation struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	Positions []Position `json:"positions,omitempty"`
}

type Info struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// Emote is a catalog entry from one of the providers.
type Emote struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Provider Provider          `json:"provider"`
	URLs     map[string]string `json:"urls"`
}

func TwitchURL(id, size string) string {
	if size == "" {
		size = "1.0"
	}
	return fmt.Sprintf("%s/%s/default/dark/%s", twitchCDN, id, size)
}
