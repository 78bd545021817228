package app

import (
	"context"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/net/proxy"
	"log/slog"
	"net"
	"net/http"
	"time"
	"tirc/internal/app/adapters/chat"
	"tirc/internal/app/adapters/emotes"
	router "tirc/internal/app/adapters/http"
	"tirc/internal/app/adapters/session"
	"tirc/internal/app/domain/irc"
	"tirc/internal/app/infrastructure/config"
	"tirc/internal/app/infrastructure/events"
	"tirc/internal/app/infrastructure/storage"
	"tirc/pkg/logger"
)

const configPath = "config.json"

// Run wires the client, emote catalog, session and HTTP API and serves
// until ctx is cancelled.
func Run(ctx context.Context) error {
	return run(ctx, configPath)
}

func run(ctx context.Context, path string) error {
	manager, err := config.New(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := manager.Get()

	log := logger.New(logger.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	log.SetLogLevel(cfg.App.LogLevel)
	gin.SetMode(cfg.App.GinMode)

	if err := cfg.Ready(); err != nil {
		log.Error("Chat credentials are missing", err)
		return err
	}

	client := &http.Client{
		Timeout:   10 * time.Second,
		Transport: http.DefaultTransport,
	}
	wsDialer := &websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Proxy:            http.ProxyFromEnvironment,
	}

	if cfg.Proxy != nil && cfg.Proxy.Address != "" && cfg.Proxy.Port != 0 {
		dialContext, err := socks5(cfg.Proxy)
		if err != nil {
			log.Error("Failed to configure proxy", err)
			return err
		}

		client.Transport = &http.Transport{DialContext: dialContext}
		wsDialer.Proxy = nil
		wsDialer.NetDialContext = dialContext
		log.Info("Using SOCKS5 proxy", slog.String("address", cfg.Proxy.Address), slog.Int("port", cfg.Proxy.Port))
	}

	channels := make([]irc.Channel, 0, len(cfg.Twitch.Channels))
	for _, ch := range cfg.Twitch.Channels {
		channels = append(channels, irc.NewChannel(ch))
	}

	bus := events.NewBus()
	tc := chat.New(logger.NewPrefixedLogger(log, "chat"), chat.Config{
		Server:     cfg.Twitch.Server,
		OAuthToken: cfg.Twitch.OAuth,
		ClientID:   cfg.Twitch.ClientID,
		Nick:       cfg.Twitch.Nick,
		Channels:   channels,
		Reconnect:  cfg.Twitch.Reconnect,
	}, bus, wsDialer)

	emoteLog := logger.NewPrefixedLogger(log, "emotes")
	helix := emotes.NewHelix(logger.NewPrefixedLogger(emoteLog, "helix"), client, cfg.Emotes.HelixBaseURL, cfg.Twitch.ClientID, cfg.Twitch.OAuth, cfg.Emotes.HelixRPS)
	catalog, err := emotes.NewCatalog(emoteLog, cfg.Emotes.CacheTTL.Std(),
		helix,
		emotes.NewBTTV(logger.NewPrefixedLogger(emoteLog, "bttv"), client, cfg.Emotes.BTTVBaseURL),
		emotes.NewFFZ(logger.NewPrefixedLogger(emoteLog, "ffz"), client, cfg.Emotes.FFZBaseURL),
	)
	if err != nil {
		return err
	}
	defer catalog.Close()

	prefs, err := storage.NewPreferences(cfg.Storage.PreferencesFile)
	if err != nil {
		log.Error("Failed to load preferences", err, slog.String("file", cfg.Storage.PreferencesFile))
		return err
	}
	defer func() {
		if err := prefs.Close(); err != nil {
			log.Error("Failed to save preferences", err)
		}
	}()

	sess := session.New(logger.NewPrefixedLogger(log, "session"), tc, catalog, prefs, cfg.Session.MaxMessages)
	defer sess.Close()

	go loadEmotes(ctx, log, helix, catalog, channels)

	// The API stays up without chat; the client retries when reconnect is on.
	if err := sess.Start(ctx); err != nil {
		log.Error("Failed to connect to chat", err)
	}

	r := router.NewRouter(logger.NewPrefixedLogger(log, "http"), manager, sess, tc, catalog, prefs)
	return r.Run(ctx)
}

// loadEmotes fills the catalog with global emotes and those of the first
// configured channel, whose broadcaster id has to be looked up first.
func loadEmotes(ctx context.Context, log logger.Logger, helix *emotes.Helix, catalog *emotes.Catalog, channels []irc.Channel) {
	channelID := ""
	if len(channels) > 0 {
		id, err := helix.ChannelID(ctx, channels[0].Name())
		if err != nil {
			log.Warn("Failed to resolve channel id, loading global emotes only", slog.String("channel", channels[0].String()), slog.String("error", err.Error()))
		}
		channelID = id
	}

	catalog.Load(ctx, channelID)
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

func socks5(p *config.Proxy) (dialFunc, error) {
	dialer, err := proxy.SOCKS5("tcp", fmt.Sprintf("%s:%d", p.Address, p.Port), nil, proxy.Direct)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return dialer.Dial(network, addr)
	}, nil
}
