package emotes

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
	"tirc/internal/app/domain/emote"
	"tirc/pkg/logger"
)

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestBTTV(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/emotes/global", jsonHandler(`[{"id":"g1","code":"catJAM"}]`))
	mux.HandleFunc("/users/twitch/42", jsonHandler(`{"channelEmotes":[{"id":"c1","code":"ownEmote"}],"sharedEmotes":[{"id":"s1","code":"sharedEmote"}]}`))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	b := NewBTTV(logger.NewNop(), srv.Client(), srv.URL+"/")
	assert.Equal(t, emote.ProviderBTTV, b.Name())

	global, err := b.Global(context.Background())
	require.NoError(t, err)
	require.Len(t, global, 1)
	assert.Equal(t, "catJAM", global[0].Name)
	assert.Equal(t, "https://cdn.betterttv.net/emote/g1/3x", global[0].URLs["3x"])

	channel, err := b.Channel(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, channel, 2)
	assert.Equal(t, "ownEmote", channel[0].Name)
	assert.Equal(t, "sharedEmote", channel[1].Name)

	missing, err := b.Channel(context.Background(), "7")
	require.NoError(t, err)
	assert.Empty(t, missing)

	none, err := b.Channel(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestFFZ(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/set/global", jsonHandler(`{"sets":{
		"4":{"emoticons":[{"id":2,"name":"Second","urls":{"1":"u1"}}]},
		"3":{"emoticons":[{"id":1,"name":"First","urls":{"1":"a1","2":"a2","4":"a4"}}]}
	}}`))
	mux.HandleFunc("/room/id/42", jsonHandler(`{"sets":{"9":{"emoticons":[{"id":5,"name":"Room","urls":{"1":"r1"}}]}}}`))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	f := NewFFZ(logger.NewNop(), srv.Client(), srv.URL)

	global, err := f.Global(context.Background())
	require.NoError(t, err)
	require.Len(t, global, 2)

	assert.Equal(t, "1", global[0].ID)
	assert.Equal(t, "First", global[0].Name)
	assert.Equal(t, map[string]string{"1x": "a1", "2x": "a2", "3x": "a2", "4x": "a4"}, global[0].URLs)
	assert.Equal(t, map[string]string{"1x": "u1", "2x": "u1", "3x": "u1", "4x": "u1"}, global[1].URLs)

	channel, err := f.Channel(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, channel, 1)
	assert.Equal(t, emote.ProviderFFZ, channel[0].Provider)
}

func TestHelix(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Client-Id") != "cid" || r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("login") == "someone" {
			_, _ = w.Write([]byte(`{"data":[{"id":"77","login":"someone"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"42","login":"bob"}]}`))
	})
	mux.HandleFunc("/chat/emotes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("broadcaster_id"))
		_, _ = w.Write([]byte(`{"data":[{"id":"e1","name":"bobHi","images":{"url_1x":"x1","url_2x":"x2"}}]}`))
	})
	mux.HandleFunc("/chat/emotes/global", jsonHandler(`{"data":[{"id":"25","name":"Kappa","images":{"url_1x":"k1"}}]}`))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	h := NewHelix(logger.NewNop(), srv.Client(), srv.URL, "cid", "oauth:tok", 100)
	assert.Equal(t, emote.ProviderTwitch, h.Name())

	channel, err := h.Channel(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, channel, 1)
	assert.Equal(t, map[string]string{"1x": "x1", "2x": "x2", "3x": "x2", "4x": "x2"}, channel[0].URLs)

	global, err := h.Global(context.Background())
	require.NoError(t, err)
	require.Len(t, global, 1)
	assert.Equal(t, "Kappa", global[0].Name)

	id, err := h.ChannelID(context.Background(), "#Someone")
	require.NoError(t, err)
	assert.Equal(t, "77", id)

	_, err = NewHelix(logger.NewNop(), srv.Client(), srv.URL, "", "", 0).Global(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestRequester_RateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Ratelimit-Reset", strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10))
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"g1","code":"ok"}]`))
	}))
	t.Cleanup(srv.Close)

	b := NewBTTV(logger.NewNop(), srv.Client(), srv.URL)
	b.req.backoff = time.Millisecond

	list, err := b.Global(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRequester_RateLimitExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	b := NewBTTV(logger.NewNop(), srv.Client(), srv.URL)
	b.req.backoff = time.Millisecond

	_, err := b.Global(context.Background())
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(maxRetries), calls.Load())
}

func TestCalcWaitDuration(t *testing.T) {
	t.Parallel()

	assert.Zero(t, calcWaitDuration(""))
	assert.Zero(t, calcWaitDuration("abc"))
	assert.Zero(t, calcWaitDuration(strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)))

	wait := calcWaitDuration(strconv.FormatInt(time.Now().Add(10*time.Second).Unix(), 10))
	assert.Greater(t, wait, 8*time.Second)
	assert.LessOrEqual(t, wait, 10*time.Second)
}

type fakeProvider struct {
	name    emote.Provider
	global  []emote.Emote
	channel map[string][]emote.Emote
	err     error
	calls   atomic.Int32
}

func (f *fakeProvider) Name() emote.Provider { return f.name }

func (f *fakeProvider) Global(context.Context) ([]emote.Emote, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.global, nil
}

func (f *fakeProvider) Channel(_ context.Context, id string) ([]emote.Emote, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.channel[id], nil
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	bttv := &fakeProvider{
		name:    emote.ProviderBTTV,
		global:  []emote.Emote{{ID: "1", Name: "catJAM", Provider: emote.ProviderBTTV}},
		channel: map[string][]emote.Emote{"42": {{ID: "2", Name: "ownEmote", Provider: emote.ProviderBTTV}}},
	}
	broken := &fakeProvider{name: emote.ProviderFFZ, err: errors.New("boom")}
	twitch := &fakeProvider{
		name:   emote.ProviderTwitch,
		global: []emote.Emote{{ID: "25", Name: "Kappa", Provider: emote.ProviderTwitch}},
	}

	c, err := NewCatalog(logger.NewNop(), time.Minute, bttv, broken, twitch)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Load(context.Background(), "42")
	assert.False(t, c.Loading())

	names := make([]string, 0)
	for _, e := range c.All() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"catJAM", "ownEmote", "Kappa"}, names)

	got, ok := c.Find("kappa")
	require.True(t, ok)
	assert.Equal(t, "25", got.ID)
	_, ok = c.Find("missing")
	assert.False(t, ok)

	// second load is served from the cache
	c.Load(context.Background(), "42")
	assert.Equal(t, int32(2), bttv.calls.Load())
	assert.Equal(t, int32(4), broken.calls.Load())

	c.Reload(context.Background())
	assert.Equal(t, int32(4), bttv.calls.Load())
	assert.Len(t, c.All(), 3)
}
