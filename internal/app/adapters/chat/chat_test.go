package chat

import (
	"context"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"tirc/internal/app/domain/irc"
	"tirc/pkg/logger"
)

type fakeServer struct {
	srv   *httptest.Server
	conns chan *websocket.Conn
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	f := &fakeServer{conns: make(chan *websocket.Conn, 8)}
	upgrader := websocket.Upgrader{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.conns <- conn
	}))
	t.Cleanup(f.srv.Close)

	return f
}

func (f *fakeServer) url() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http")
}

func (f *fakeServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()

	select {
	case conn := <-f.conns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("client did not connect")
		return nil
	}
}

func readLine(t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func send(t *testing.T, conn *websocket.Conn, lines ...string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(strings.Join(lines, "\r\n")+"\r\n")))
}

func collect(c *Client) chan irc.Event {
	ch := make(chan irc.Event, 64)
	c.Bus().SubscribeAll(func(ev irc.Event) { ch <- ev })
	return ch
}

func waitFor[T irc.Event](t *testing.T, ch chan irc.Event) T {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if v, ok := ev.(T); ok {
				return v
			}
		case <-deadline:
			var zero T
			t.Fatalf("no %s event", zero.Kind())
			return zero
		}
	}
}

type recordedAfter struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedAfter) after(d time.Duration, f func()) stopper {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()

	go f()
	return time.NewTimer(time.Hour)
}

func (r *recordedAfter) get() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

// heldAfter hands scheduled reconnects to the test instead of running them.
// Stop on the returned timer does not recall the func, like a timer that
// already fired.
type heldAfter struct {
	fns chan func()
}

func newHeldAfter() *heldAfter {
	return &heldAfter{fns: make(chan func(), 8)}
}

func (h *heldAfter) after(_ time.Duration, f func()) stopper {
	h.fns <- f
	return time.NewTimer(time.Hour)
}

func (h *heldAfter) next(t *testing.T) func() {
	t.Helper()

	select {
	case f := <-h.fns:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no reconnect scheduled")
		return nil
	}
}

// slowDialer blocks every dial until release is closed.
func slowDialer(started chan<- struct{}, release <-chan struct{}) *websocket.Dialer {
	return &websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			started <- struct{}{}
			<-release

			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}
}

func newTestClient(f *fakeServer, reconnect bool) *Client {
	return New(logger.NewNop(), Config{
		Server:     f.url(),
		OAuthToken: "oauth:token",
		ClientID:   "cid",
		Nick:       "bob",
		Channels:   []irc.Channel{"foo", "#bar", "#foo"},
		Reconnect:  reconnect,
	}, nil, nil)
}

func TestClient_Handshake(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	c := newTestClient(f, false)
	evs := collect(c)

	require.NoError(t, c.Connect(context.Background()))
	conn := f.accept(t)

	assert.Equal(t, "PASS oauth:token", readLine(t, conn))
	assert.Equal(t, "NICK bob", readLine(t, conn))
	assert.Equal(t, "CAP REQ :twitch.tv/tags twitch.tv/commands twitch.tv/membership", readLine(t, conn))
	assert.Equal(t, "JOIN #foo", readLine(t, conn))
	assert.Equal(t, "JOIN #bar", readLine(t, conn))

	waitFor[irc.ConnectedEvent](t, evs)
	assert.True(t, c.Connected())
	assert.Equal(t, "bob", c.Nick())
	assert.Equal(t, "oauth:token", c.OAuthToken())
	assert.Equal(t, "cid", c.ClientID())

	// second connect is a no-op
	require.NoError(t, c.Connect(context.Background()))
	select {
	case <-f.conns:
		t.Fatal("unexpected second connection")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestClient_ReceivesLines(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	c := newTestClient(f, false)
	evs := collect(c)

	require.NoError(t, c.Connect(context.Background()))
	conn := f.accept(t)
	for i := 0; i < 5; i++ {
		readLine(t, conn)
	}

	send(t, conn,
		"PING :tmi.twitch.tv",
		"@badges=subscriber/1;color=#FF0000 :alice!alice@alice.tmi.twitch.tv PRIVMSG #foo :hello world",
		":bob!bob@bob.tmi.twitch.tv JOIN #foo",
		":tmi.twitch.tv 001 bob :Welcome, GLHF!",
	)

	assert.Equal(t, "PONG :tmi.twitch.tv", readLine(t, conn))

	msg := waitFor[irc.MessageEvent](t, evs)
	assert.Equal(t, "alice", msg.User)
	assert.Equal(t, irc.Channel("#foo"), msg.Channel)
	assert.Equal(t, "hello world", msg.Text)
	assert.Equal(t, map[string]string{"badges": "subscriber/1", "color": "#FF0000"}, msg.Tags)

	joined := waitFor[irc.UserJoinedEvent](t, evs)
	assert.Equal(t, "bob", joined.User)
	self := waitFor[irc.JoinedEvent](t, evs)
	assert.Equal(t, irc.Channel("#foo"), self.Channel)
}

func TestClient_SendMessage(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	c := newTestClient(f, false)

	assert.ErrorIs(t, c.SendMessage("#foo", "hi"), ErrNotConnected)

	require.NoError(t, c.Connect(context.Background()))
	conn := f.accept(t)
	for i := 0; i < 5; i++ {
		readLine(t, conn)
	}

	require.NoError(t, c.SendMessage("foo", "hi there"))
	assert.Equal(t, "PRIVMSG #foo :hi there", readLine(t, conn))

	assert.ErrorIs(t, c.SendMessage("#foo", strings.Repeat("a", 500)), ErrMessageTooLong)
	assert.ErrorIs(t, c.SendMessage("#foo", ""), ErrEmptyMessage)
	assert.ErrorIs(t, c.SendMessage("#", "x"), ErrInvalidChannel)
}

func TestClient_JoinPart(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	c := newTestClient(f, false)

	require.NoError(t, c.Join("baz"))
	assert.Equal(t, []irc.Channel{"#foo", "#bar", "#baz"}, c.Channels())

	require.NoError(t, c.Connect(context.Background()))
	conn := f.accept(t)
	for i := 0; i < 6; i++ {
		readLine(t, conn)
	}

	require.NoError(t, c.Join("#qux"))
	assert.Equal(t, "JOIN #qux", readLine(t, conn))
	require.NoError(t, c.Join("#QUX"))

	require.NoError(t, c.Part("#bar"))
	assert.Equal(t, "PART #bar", readLine(t, conn))
	require.NoError(t, c.Part("#missing"))

	assert.Equal(t, []irc.Channel{"#foo", "#baz", "#qux"}, c.Channels())
	assert.ErrorIs(t, c.Join("a b"), ErrInvalidChannel)
}

func TestClient_Disconnect(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	c := newTestClient(f, true)
	rec := &recordedAfter{}
	c.after = rec.after
	evs := collect(c)

	require.NoError(t, c.Connect(context.Background()))
	conn := f.accept(t)
	for i := 0; i < 5; i++ {
		readLine(t, conn)
	}

	c.Disconnect()
	assert.False(t, c.Connected())
	assert.Equal(t, "PART #foo", readLine(t, conn))
	assert.Equal(t, "PART #bar", readLine(t, conn))

	waitFor[irc.DisconnectedEvent](t, evs)
	assert.Empty(t, rec.get())
	assert.ErrorIs(t, c.SendMessage("#foo", "hi"), ErrNotConnected)
}

func TestClient_ReconnectResetsCounter(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	c := newTestClient(f, true)
	rec := &recordedAfter{}
	c.after = rec.after
	evs := collect(c)

	require.NoError(t, c.Connect(context.Background()))
	first := f.accept(t)
	waitFor[irc.ConnectedEvent](t, evs)

	require.NoError(t, first.Close())
	waitFor[irc.DisconnectedEvent](t, evs)

	f.accept(t)
	waitFor[irc.ConnectedEvent](t, evs)

	assert.Equal(t, []time.Duration{2 * time.Second}, rec.get())
	assert.Equal(t, 0, c.backoff.Attempts())
	assert.True(t, c.Connected())
}

func TestClient_ReconnectCeiling(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	c := newTestClient(f, true)
	rec := &recordedAfter{}
	c.after = rec.after
	evs := collect(c)

	require.NoError(t, c.Connect(context.Background()))
	conn := f.accept(t)
	waitFor[irc.ConnectedEvent](t, evs)

	// every reconnect from now on fails to dial
	f.srv.Close()
	require.NoError(t, conn.Close())

	want := []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second, 8 * time.Second, 10 * time.Second}
	require.Eventually(t, func() bool { return len(rec.get()) == len(want) }, 5*time.Second, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, want, rec.get())
	assert.False(t, c.Connected())
}

func TestClient_InitialDialFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		reconnect bool
		scheduled int
	}{
		{"retried", true, 1},
		{"given up", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFakeServer(t)
			f.srv.Close()

			c := newTestClient(f, tt.reconnect)
			held := newHeldAfter()
			c.after = held.after
			evs := collect(c)

			assert.Error(t, c.Connect(context.Background()))
			waitFor[irc.ErrorEvent](t, evs)
			assert.Len(t, held.fns, tt.scheduled)
			assert.Equal(t, tt.scheduled, c.backoff.Attempts())
			assert.False(t, c.Connected())
		})
	}
}

func TestClient_DialKeepsStateAvailable(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	started, release := make(chan struct{}, 1), make(chan struct{})
	c := New(logger.NewNop(), Config{Server: f.url(), OAuthToken: "oauth:token", Nick: "bob"}, nil, slowDialer(started, release))

	errCh := make(chan error, 1)
	go func() { errCh <- c.Connect(context.Background()) }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("dial did not start")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.False(t, c.Connected())
		assert.NoError(t, c.Join("#foo"))
		assert.ErrorIs(t, c.SendMessage("#foo", "hi"), ErrNotConnected)
		assert.NoError(t, c.Connect(context.Background()), "second connect while dialing is a no-op")
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("client state blocked while a dial was in flight")
	}

	close(release)
	require.NoError(t, <-errCh)

	conn := f.accept(t)
	for i := 0; i < 3; i++ {
		readLine(t, conn)
	}
	assert.Equal(t, "JOIN #foo", readLine(t, conn))
	assert.True(t, c.Connected())
}

func TestClient_DisconnectDuringDial(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	started, release := make(chan struct{}, 1), make(chan struct{})
	c := New(logger.NewNop(), Config{Server: f.url(), OAuthToken: "oauth:token", Nick: "bob", Reconnect: true}, nil, slowDialer(started, release))
	held := newHeldAfter()
	c.after = held.after

	errCh := make(chan error, 1)
	go func() { errCh <- c.Connect(context.Background()) }()
	<-started

	c.Disconnect()
	close(release)

	require.NoError(t, <-errCh)
	assert.False(t, c.Connected())
	assert.Empty(t, held.fns)
}

func TestClient_DisconnectBeforeReconnectFires(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	c := newTestClient(f, true)
	held := newHeldAfter()
	c.after = held.after
	evs := collect(c)

	require.NoError(t, c.Connect(context.Background()))
	conn := f.accept(t)
	waitFor[irc.ConnectedEvent](t, evs)

	require.NoError(t, conn.Close())
	waitFor[irc.DisconnectedEvent](t, evs)
	fire := held.next(t)

	c.Disconnect()
	fire()

	assert.False(t, c.Connected())
	assert.Empty(t, f.conns)
	assert.Empty(t, held.fns)

	// an explicit connect still works afterwards
	require.NoError(t, c.Connect(context.Background()))
	f.accept(t)
	assert.True(t, c.Connected())
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	b := NewBackoff()
	for i := 1; i <= MaxReconnectAttempts; i++ {
		d, ok := b.Next()
		require.True(t, ok)
		assert.Equal(t, time.Duration(i)*2*time.Second, d)
	}

	_, ok := b.Next()
	assert.False(t, ok)
	assert.Equal(t, MaxReconnectAttempts, b.Attempts())

	b.Reset()
	d, ok := b.Next()
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, d)
}
