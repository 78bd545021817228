package ports

import "tirc/internal/app/infrastructure/storage"

type PreferencesPort interface {
	JoinedChannels() []string
	SetJoinedChannels(channels []string) error
	RecentEmotes() []string
	PushRecentEmote(code string) error
	SidebarCollapsed() bool
	SetSidebarCollapsed(v bool) error
	Theme() storage.Theme
	SetTheme(t storage.Theme) error
	Snapshot() storage.PreferencesSnapshot
}
