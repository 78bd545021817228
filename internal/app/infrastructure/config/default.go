package config

import "time"

const (
	DefaultServer      = "wss://irc-ws.chat.twitch.tv:443"
	DefaultBTTVBaseURL = "https://api.betterttv.net/3/cached"
	DefaultFFZBaseURL  = "https://api.frankerfacez.com/v1"
	DefaultHelixURL    = "https://api.twitch.tv/helix"
)

func (m *Manager) GetDefault() *Config {
	return &Config{
		App: App{
			LogLevel: "info",
			GinMode:  "release",
		},
		Twitch: Twitch{
			Server:    DefaultServer,
			Channels:  []string{},
			Reconnect: true,
		},
		Emotes: Emotes{
			BTTVBaseURL:  DefaultBTTVBaseURL,
			FFZBaseURL:   DefaultFFZBaseURL,
			HelixBaseURL: DefaultHelixURL,
			CacheTTL:     Duration(30 * time.Minute),
			HelixRPS:     10,
		},
		Storage: Storage{
			PreferencesFile: "cache/preferences.json",
		},
		HTTP: HTTP{
			Listen: "127.0.0.1:8080",
		},
		Session: Session{
			MaxMessages: 1000,
		},
		Log: LogFiles{
			File:       "logs/main.log",
			MaxSizeMB:  64,
			MaxBackups: 32,
			MaxAgeDays: 30,
		},
	}
}

// applyDefaults fills zero values left out of a partial config file.
func (m *Manager) applyDefaults(cfg *Config) {
	def := m.GetDefault()

	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = def.App.LogLevel
	}
	if cfg.App.GinMode == "" {
		cfg.App.GinMode = def.App.GinMode
	}
	if cfg.Twitch.Server == "" {
		cfg.Twitch.Server = def.Twitch.Server
	}
	if cfg.Twitch.Channels == nil {
		cfg.Twitch.Channels = []string{}
	}
	if cfg.Emotes.BTTVBaseURL == "" {
		cfg.Emotes.BTTVBaseURL = def.Emotes.BTTVBaseURL
	}
	if cfg.Emotes.FFZBaseURL == "" {
		cfg.Emotes.FFZBaseURL = def.Emotes.FFZBaseURL
	}
	if cfg.Emotes.HelixBaseURL == "" {
		cfg.Emotes.HelixBaseURL = def.Emotes.HelixBaseURL
	}
	if cfg.Emotes.CacheTTL == 0 {
		cfg.Emotes.CacheTTL = def.Emotes.CacheTTL
	}
	if cfg.Emotes.HelixRPS == 0 {
		cfg.Emotes.HelixRPS = def.Emotes.HelixRPS
	}
	if cfg.Storage.PreferencesFile == "" {
		cfg.Storage.PreferencesFile = def.Storage.PreferencesFile
	}
	if cfg.HTTP.Listen == "" {
		cfg.HTTP.Listen = def.HTTP.Listen
	}
	if cfg.Session.MaxMessages == 0 {
		cfg.Session.MaxMessages = def.Session.MaxMessages
	}
}
