package emotes

import (
	"context"
	"errors"
	"fmt"
	"golang.org/x/time/rate"
	"net/http"
	"net/url"
	"strings"
	"tirc/internal/app/domain/emote"
	"tirc/pkg/logger"
)

var ErrNoCredentials = errors.New("helix credentials are not configured")

type helixEmote struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Images struct {
		URL1x string `json:"url_1x"`
		URL2x string `json:"url_2x"`
		URL3x string `json:"url_3x"`
		URL4x string `json:"url_4x"`
	} `json:"images"`
}

type helixData[T any] struct {
	Data []T `json:"data"`
}

type helixUser struct {
	ID    string `json:"id"`
	Login string `json:"login"`
}

// Helix reads native Twitch emotes. Requests carry the chat token and
// client id and are paced by a shared limiter.
type Helix struct {
	base     string
	clientID string
	token    string
	req      *requester
}

func NewHelix(log logger.Logger, client *http.Client, base, clientID, oauthToken string, rps float64) *Helix {
	h := &Helix{
		base:     strings.TrimRight(base, "/"),
		clientID: clientID,
		token:    strings.TrimPrefix(oauthToken, "oauth:"),
		req:      newRequester(log, client),
	}

	if rps > 0 {
		h.req.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
	h.req.header = http.Header{}
	h.req.header.Set("Client-Id", h.clientID)
	h.req.header.Set("Authorization", "Bearer "+h.token)

	return h
}

func (h *Helix) Name() emote.Provider {
	return emote.ProviderTwitch
}

func (h *Helix) Global(ctx context.Context) ([]emote.Emote, error) {
	if !h.configured() {
		return nil, ErrNoCredentials
	}

	var resp helixData[helixEmote]
	if err := h.req.getJSON(ctx, h.base+"/chat/emotes/global", &resp); err != nil {
		return nil, fmt.Errorf("helix global emotes: %w", err)
	}
	return convertHelix(resp.Data), nil
}

// Channel returns the broadcaster's emotes. An empty channelID means the
// user the token belongs to.
func (h *Helix) Channel(ctx context.Context, channelID string) ([]emote.Emote, error) {
	if !h.configured() {
		return nil, ErrNoCredentials
	}

	if channelID == "" {
		user, err := h.User(ctx, "")
		if err != nil {
			return nil, err
		}
		channelID = user.ID
	}

	var resp helixData[helixEmote]
	if err := h.req.getJSON(ctx, h.base+"/chat/emotes?broadcaster_id="+url.QueryEscape(channelID), &resp); err != nil {
		return nil, fmt.Errorf("helix channel emotes: %w", err)
	}
	return convertHelix(resp.Data), nil
}

// User resolves a login to its user. An empty login resolves the token owner.
func (h *Helix) User(ctx context.Context, login string) (helixUser, error) {
	endpoint := h.base + "/users"
	if login != "" {
		endpoint += "?login=" + url.QueryEscape(strings.ToLower(strings.TrimPrefix(login, "#")))
	}

	var resp helixData[helixUser]
	if err := h.req.getJSON(ctx, endpoint, &resp); err != nil {
		return helixUser{}, fmt.Errorf("helix users: %w", err)
	}
	if len(resp.Data) == 0 {
		return helixUser{}, fmt.Errorf("helix users: %w", ErrNotFound)
	}
	return resp.Data[0], nil
}

// ChannelID resolves a channel login to the broadcaster id the other
// providers key channel emotes by.
func (h *Helix) ChannelID(ctx context.Context, login string) (string, error) {
	if !h.configured() {
		return "", ErrNoCredentials
	}

	user, err := h.User(ctx, login)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (h *Helix) configured() bool {
	return h.clientID != "" && h.token != ""
}

func convertHelix(list []helixEmote) []emote.Emote {
	out := make([]emote.Emote, 0, len(list))
	for _, e := range list {
		out = append(out, emote.Emote{
			ID:       e.ID,
			Name:     e.Name,
			Provider: emote.ProviderTwitch,
			URLs:     sizes(e.Images.URL1x, e.Images.URL2x, e.Images.URL3x, e.Images.URL4x),
		})
	}
	return out
}
