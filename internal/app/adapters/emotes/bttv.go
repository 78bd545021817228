package emotes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"tirc/internal/app/domain/emote"
	"tirc/pkg/logger"
)

const bttvCDN = "https://cdn.betterttv.net/emote"

type bttvEmote struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

type bttvUser struct {
	ChannelEmotes []bttvEmote `json:"channelEmotes"`
	SharedEmotes  []bttvEmote `json:"sharedEmotes"`
}

type BTTV struct {
	base     string
	platform string
	req      *requester
}

func NewBTTV(log logger.Logger, client *http.Client, base string) *BTTV {
	return &BTTV{
		base:     strings.TrimRight(base, "/"),
		platform: "twitch",
		req:      newRequester(log, client),
	}
}

func (b *BTTV) Name() emote.Provider {
	return emote.ProviderBTTV
}

func (b *BTTV) Global(ctx context.Context) ([]emote.Emote, error) {
	var list []bttvEmote
	if err := b.req.getJSON(ctx, b.base+"/emotes/global", &list); err != nil {
		return nil, fmt.Errorf("bttv global emotes: %w", err)
	}
	return convertBTTV(list), nil
}

// Channel returns channel and shared emotes. A channel without a BTTV
// account is not an error.
func (b *BTTV) Channel(ctx context.Context, channelID string) ([]emote.Emote, error) {
	if channelID == "" {
		return nil, nil
	}

	var user bttvUser
	err := b.req.getJSON(ctx, fmt.Sprintf("%s/users/%s/%s", b.base, b.platform, channelID), &user)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bttv channel emotes: %w", err)
	}

	return convertBTTV(append(user.ChannelEmotes, user.SharedEmotes...)), nil
}

func convertBTTV(list []bttvEmote) []emote.Emote {
	out := make([]emote.Emote, 0, len(list))
	for _, e := range list {
		out = append(out, emote.Emote{
			ID:       e.ID,
			Name:     e.Code,
			Provider: emote.ProviderBTTV,
			URLs: map[string]string{
				"1x": bttvURL(e.ID, "1x"),
				"2x": bttvURL(e.ID, "2x"),
				"3x": bttvURL(e.ID, "3x"),
				"4x": bttvURL(e.ID, "4x"),
			},
		})
	}
	return out
}

func bttvURL(id, size string) string {
	return bttvCDN + "/" + id + "/" + size
}
