package emotes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"tirc/internal/app/domain/emote"
	"tirc/pkg/logger"
)

type ffzEmote struct {
	ID   int               `json:"id"`
	Name string            `json:"name"`
	URLs map[string]string `json:"urls"`
}

type ffzSets struct {
	Sets map[string]struct {
		Emoticons []ffzEmote `json:"emoticons"`
	} `json:"sets"`
}

type FFZ struct {
	base string
	req  *requester
}

func NewFFZ(log logger.Logger, client *http.Client, base string) *FFZ {
	return &FFZ{
		base: strings.TrimRight(base, "/"),
		req:  newRequester(log, client),
	}
}

func (f *FFZ) Name() emote.Provider {
	return emote.ProviderFFZ
}

func (f *FFZ) Global(ctx context.Context) ([]emote.Emote, error) {
	var sets ffzSets
	if err := f.req.getJSON(ctx, f.base+"/set/global", &sets); err != nil {
		return nil, fmt.Errorf("ffz global emotes: %w", err)
	}
	return convertFFZ(sets), nil
}

func (f *FFZ) Channel(ctx context.Context, channelID string) ([]emote.Emote, error) {
	if channelID == "" {
		return nil, nil
	}

	var sets ffzSets
	err := f.req.getJSON(ctx, f.base+"/room/id/"+channelID, &sets)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ffz channel emotes: %w", err)
	}
	return convertFFZ(sets), nil
}

// convertFFZ flattens every set. Set ids are sorted so the output is stable.
func convertFFZ(sets ffzSets) []emote.Emote {
	ids := make([]string, 0, len(sets.Sets))
	for id := range sets.Sets {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var out []emote.Emote
	for _, id := range ids {
		for _, e := range sets.Sets[id].Emoticons {
			out = append(out, emote.Emote{
				ID:       strconv.Itoa(e.ID),
				Name:     e.Name,
				Provider: emote.ProviderFFZ,
				URLs:     sizes(e.URLs["1"], e.URLs["2"], e.URLs["3"], e.URLs["4"]),
			})
		}
	}
	return out
}
