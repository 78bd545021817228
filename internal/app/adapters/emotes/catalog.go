package emotes

import (
	"context"
	"golang.org/x/sync/errgroup"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
	"tirc/internal/app/adapters/metrics"
	"tirc/internal/app/domain/emote"
	"tirc/internal/app/infrastructure/storage"
	"tirc/internal/app/ports"
	"tirc/pkg/logger"
)

// Catalog merges the emotes of every provider. A provider that fails
// contributes nothing; the others still populate.
type Catalog struct {
	log       logger.Logger
	providers []ports.EmoteProviderPort
	cache     *storage.Cache[[]emote.Emote]

	mu        sync.RWMutex
	emotes    []emote.Emote
	channelID string
	loading   atomic.Int32
}

func NewCatalog(log logger.Logger, ttl time.Duration, providers ...ports.EmoteProviderPort) (*Catalog, error) {
	cache, err := storage.NewCache[[]emote.Emote](storage.CacheOptions{Capacity: 64, TTL: ttl})
	if err != nil {
		return nil, err
	}

	return &Catalog{
		log:       log,
		providers: providers,
		cache:     cache,
	}, nil
}

// Load fetches global emotes and, when channelID is set, the channel's emotes
// from all providers concurrently and replaces the catalog.
func (c *Catalog) Load(ctx context.Context, channelID string) {
	c.loading.Add(1)
	defer c.loading.Add(-1)

	results := make([][]emote.Emote, len(c.providers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, p := range c.providers {
		g.Go(func() error {
			results[i] = c.fetch(gctx, p, channelID)
			return nil
		})
	}
	_ = g.Wait()

	var all []emote.Emote
	for i, p := range c.providers {
		metrics.EmotesLoaded.WithLabelValues(string(p.Name())).Set(float64(len(results[i])))
		all = append(all, results[i]...)
	}

	c.mu.Lock()
	c.emotes = all
	c.channelID = channelID
	c.mu.Unlock()

	c.log.Info("Emote catalog loaded", slog.Int("emotes", len(all)), slog.String("channel_id", channelID))
}

// Reload drops cached provider responses and loads the last scope again.
func (c *Catalog) Reload(ctx context.Context) {
	if err := c.cache.Clear(); err != nil {
		c.log.Warn("Failed to clear emote cache", slog.String("error", err.Error()))
	}

	c.mu.RLock()
	channelID := c.channelID
	c.mu.RUnlock()

	c.Load(ctx, channelID)
}

func (c *Catalog) fetch(ctx context.Context, p ports.EmoteProviderPort, channelID string) []emote.Emote {
	out := c.cached(ctx, p, "global", p.Global)
	out = append(out, c.cached(ctx, p, "channel:"+channelID, func(ctx context.Context) ([]emote.Emote, error) {
		return p.Channel(ctx, channelID)
	})...)
	return out
}

func (c *Catalog) cached(ctx context.Context, p ports.EmoteProviderPort, scope string, load func(context.Context) ([]emote.Emote, error)) []emote.Emote {
	key := string(p.Name()) + ":" + scope
	if list, ok := c.cache.Get(key); ok {
		return list
	}

	list, err := load(ctx)
	if err != nil {
		metrics.EmoteFetchFailures.WithLabelValues(string(p.Name())).Inc()
		c.log.Warn("Failed to fetch emotes", slog.String("provider", string(p.Name())), slog.String("scope", scope), slog.String("error", err.Error()))
		return nil
	}

	if err := c.cache.Set(key, list); err != nil {
		c.log.Warn("Failed to cache emotes", slog.String("key", key), slog.String("error", err.Error()))
	}
	return list
}

func (c *Catalog) All() []emote.Emote {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.emotes)
}

func (c *Catalog) Find(name string) (emote.Emote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return emote.Find(c.emotes, name)
}

func (c *Catalog) Loading() bool {
	return c.loading.Load() > 0
}

func (c *Catalog) Close() error {
	return c.cache.Close()
}
