package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
)

const (
	KeyJoinedChannels   = "twitchJoinedChannels"
	KeyRecentEmotes     = "recentEmotes"
	KeySidebarCollapsed = "sidebar-collapsed"
	KeyTheme            = "theme"

	MaxRecentEmotes = 20
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

var ErrInvalidTheme = errors.New("invalid theme")

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

// Preferences are the small JSON values the UI keeps between sessions.
type Preferences struct {
	cache *Cache[json.RawMessage]

	// mu serialises writes so read-modify-write updates do not interleave.
	mu sync.Mutex
}

type PreferencesSnapshot struct {
	JoinedChannels   []string `json:"joinedChannels"`
	RecentEmotes     []string `json:"recentEmotes"`
	SidebarCollapsed bool     `json:"sidebarCollapsed"`
	Theme            Theme    `json:"theme"`
}

func NewPreferences(file string) (*Preferences, error) {
	c, err := NewCache[json.RawMessage](CacheOptions{File: file, FlushOnChange: true})
	if err != nil {
		return nil, err
	}
	return &Preferences{cache: c}, nil
}

// load decodes key into a fresh T; missing or corrupt values yield def.
func load[T any](p *Preferences, key string, def T) T {
	raw, ok := p.cache.Get(key)
	if !ok {
		return def
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	return v
}

func store[T any](p *Preferences, key string, v T) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return storeLocked(p, key, v)
}

func storeLocked[T any](p *Preferences, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return p.cache.Set(key, raw)
}

func (p *Preferences) JoinedChannels() []string {
	return load(p, KeyJoinedChannels, []string{})
}

func (p *Preferences) SetJoinedChannels(channels []string) error {
	if channels == nil {
		channels = []string{}
	}
	return store(p, KeyJoinedChannels, channels)
}

func (p *Preferences) RecentEmotes() []string {
	return load(p, KeyRecentEmotes, []string{})
}

// PushRecentEmote moves code to the front of the recent list, capped at MaxRecentEmotes.
func (p *Preferences) PushRecentEmote(code string) error {
	if code == "" {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	recent := p.RecentEmotes()
	recent = slices.DeleteFunc(recent, func(c string) bool { return c == code })
	recent = append([]string{code}, recent...)
	if len(recent) > MaxRecentEmotes {
		recent = recent[:MaxRecentEmotes]
	}
	return storeLocked(p, KeyRecentEmotes, recent)
}

func (p *Preferences) SidebarCollapsed() bool {
	return load(p, KeySidebarCollapsed, false)
}

func (p *Preferences) SetSidebarCollapsed(v bool) error {
	return store(p, KeySidebarCollapsed, v)
}

func (p *Preferences) Theme() Theme {
	t := load(p, KeyTheme, ThemeSystem)
	if !t.Valid() {
		return ThemeSystem
	}
	return t
}

func (p *Preferences) SetTheme(t Theme) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, t)
	}
	return store(p, KeyTheme, t)
}

func (p *Preferences) Snapshot() PreferencesSnapshot {
	return PreferencesSnapshot{
		JoinedChannels:   p.JoinedChannels(),
		RecentEmotes:     p.RecentEmotes(),
		SidebarCollapsed: p.SidebarCollapsed(),
		Theme:            p.Theme(),
	}
}

func (p *Preferences) Close() error {
	return p.cache.Close()
}
