package ports

import (
	"context"
	"tirc/internal/app/domain/emote"
)

type EmoteProviderPort interface {
	Name() emote.Provider
	Global(ctx context.Context) ([]emote.Emote, error)
	Channel(ctx context.Context, channelID string) ([]emote.Emote, error)
}

type CatalogPort interface {
	Load(ctx context.Context, channelID string)
	Reload(ctx context.Context)
	All() []emote.Emote
	Find(name string) (emote.Emote, bool)
	Loading() bool
}
