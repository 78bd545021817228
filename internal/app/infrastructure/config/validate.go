package config

import (
	"errors"
	"fmt"
	"net/url"
	"tirc/internal/app/domain/irc"
)

func (m *Manager) validate(cfg *Config) error {
	// app
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true}
	if cfg.App.LogLevel != "" && !validLevels[cfg.App.LogLevel] {
		return fmt.Errorf("app.log_level must be one of trace, debug, info, warn, error, fatal; got %s", cfg.App.LogLevel)
	}
	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if cfg.App.GinMode != "" && !validModes[cfg.App.GinMode] {
		return fmt.Errorf("app.gin_mode must be one of debug, release, test; got %s", cfg.App.GinMode)
	}

	// twitch
	u, err := url.Parse(cfg.Twitch.Server)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return fmt.Errorf("twitch.server must be a ws:// or wss:// URL; got %q", cfg.Twitch.Server)
	}
	for _, ch := range cfg.Twitch.Channels {
		if !irc.NewChannel(ch).Valid() {
			return fmt.Errorf("twitch.channels: invalid channel %q", ch)
		}
	}

	// proxy
	if cfg.Proxy != nil && cfg.Proxy.Address != "" && (cfg.Proxy.Port <= 0 || cfg.Proxy.Port > 65535) {
		return errors.New("proxy.port must be in [1,65535]")
	}

	// emotes
	for name, raw := range map[string]string{
		"emotes.bttv_base_url":  cfg.Emotes.BTTVBaseURL,
		"emotes.ffz_base_url":   cfg.Emotes.FFZBaseURL,
		"emotes.helix_base_url": cfg.Emotes.HelixBaseURL,
	} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL; got %q", name, raw)
		}
	}
	if cfg.Emotes.CacheTTL < 0 {
		return errors.New("emotes.cache_ttl must not be negative")
	}
	if cfg.Emotes.HelixRPS < 0 {
		return errors.New("emotes.helix_rps must not be negative")
	}

	// session
	if cfg.Session.MaxMessages < 1 || cfg.Session.MaxMessages > 100000 {
		return errors.New("session.max_messages must be [1,100000]")
	}

	return nil
}

// Ready reports whether the chat credentials needed to connect are present.
func (c *Config) Ready() error {
	if c.Twitch.OAuth == "" {
		return errors.New("twitch.oauth is required (or set TWITCH_OAUTH)")
	}
	if c.Twitch.Nick == "" {
		return errors.New("twitch.nick is required (or set TWITCH_NICK)")
	}
	return nil
}
