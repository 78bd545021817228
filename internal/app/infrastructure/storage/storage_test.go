package storage

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestStore_Capacity(t *testing.T) {
	t.Parallel()

	s := NewStore[int](3)
	for i := 1; i <= 5; i++ {
		s.Push("#foo", i)
	}
	s.Push("#bar", 9)

	got, ok := s.Get("#foo")
	require.True(t, ok)
	assert.Equal(t, []int{3, 4, 5}, got)
	assert.Equal(t, 3, s.Len("#foo"))
	assert.Equal(t, []string{"#bar", "#foo"}, s.Keys())

	s.SetCapacity(2)
	assert.Equal(t, 2, s.GetCapacity())
	got, _ = s.Get("#foo")
	assert.Equal(t, []int{4, 5}, got)

	assert.Equal(t, []int{4}, s.Filter("#foo", func(v int) bool { return v%2 == 0 }))

	s.ClearKey("#foo")
	_, ok = s.Get("#foo")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len("#foo"))

	s.ClearAll()
	assert.Empty(t, s.Keys())
}

func TestStore_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	s := NewStore[string](0)
	s.Push("k", "a")

	got, _ := s.Get("k")
	got[0] = "changed"

	again, _ := s.Get("k")
	assert.Equal(t, []string{"a"}, again)
}

func TestCache_Persist(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state", "cache.json")

	c, err := NewCache[int](CacheOptions{File: file, FlushOnChange: true})
	require.NoError(t, err)
	require.NoError(t, c.Set("a", 1))
	require.NoError(t, c.Set("b", 2))
	require.NoError(t, c.Delete("b"))

	reloaded, err := NewCache[int](CacheOptions{File: file})
	require.NoError(t, err)

	v, ok := reloaded.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = reloaded.Get("b")
	assert.False(t, ok)
	assert.Equal(t, map[string]int{"a": 1}, reloaded.All())
}

func TestCache_TTL(t *testing.T) {
	t.Parallel()

	c, err := NewCache[string](CacheOptions{TTL: 50 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, c.Set("k", "v"))

	_, ok := c.Get("k")
	assert.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCache_CorruptFile(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0600))

	_, err := NewCache[int](CacheOptions{File: file})
	assert.Error(t, err)
}

func TestPreferences(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "prefs.json")
	p, err := NewPreferences(file)
	require.NoError(t, err)

	assert.Equal(t, PreferencesSnapshot{
		JoinedChannels: []string{},
		RecentEmotes:   []string{},
		Theme:          ThemeSystem,
	}, p.Snapshot())

	require.NoError(t, p.SetJoinedChannels([]string{"#foo", "#bar"}))
	require.NoError(t, p.SetSidebarCollapsed(true))
	require.NoError(t, p.SetTheme(ThemeDark))
	assert.ErrorIs(t, p.SetTheme("neon"), ErrInvalidTheme)

	for _, code := range []string{"Kappa", "LUL", "Kappa", ""} {
		require.NoError(t, p.PushRecentEmote(code))
	}
	assert.Equal(t, []string{"Kappa", "LUL"}, p.RecentEmotes())

	reloaded, err := NewPreferences(file)
	require.NoError(t, err)
	assert.Equal(t, []string{"#foo", "#bar"}, reloaded.JoinedChannels())
	assert.True(t, reloaded.SidebarCollapsed())
	assert.Equal(t, ThemeDark, reloaded.Theme())
}

func TestPreferences_RecentCap(t *testing.T) {
	t.Parallel()

	p, err := NewPreferences(filepath.Join(t.TempDir(), "prefs.json"))
	require.NoError(t, err)

	for i := 0; i < MaxRecentEmotes+5; i++ {
		require.NoError(t, p.PushRecentEmote(string(rune('a'+i))))
	}

	recent := p.RecentEmotes()
	assert.Len(t, recent, MaxRecentEmotes)
	assert.Equal(t, string(rune('a'+MaxRecentEmotes+4)), recent[0])
}

func TestPreferences_ConcurrentRecentEmotes(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "prefs.json")
	p, err := NewPreferences(file)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < MaxRecentEmotes; i++ {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			assert.NoError(t, p.PushRecentEmote(code))
		}(string(rune('a' + i)))
	}
	wg.Wait()

	assert.Len(t, p.RecentEmotes(), MaxRecentEmotes)

	reloaded, err := NewPreferences(file)
	require.NoError(t, err)
	assert.ElementsMatch(t, p.RecentEmotes(), reloaded.RecentEmotes())
}

func TestPreferences_CorruptValue(t *testing.T) {
	t.Parallel()

	p, err := NewPreferences(filepath.Join(t.TempDir(), "prefs.json"))
	require.NoError(t, err)

	require.NoError(t, p.cache.Set(KeySidebarCollapsed, json.RawMessage(`"yes"`)))
	assert.False(t, p.SidebarCollapsed())
}
