package chat

import (
	"context"
	"errors"
	"fmt"
	"github.com/gorilla/websocket"
	"log/slog"
	"slices"
	"sync"
	"time"
	"tirc/internal/app/adapters/metrics"
	"tirc/internal/app/domain/irc"
	"tirc/internal/app/infrastructure/events"
	"tirc/pkg/logger"
)

const (
	maxMessageLength      = 500
	handshakeWriteTimeout = 10 * time.Second
)

var (
	ErrNotConnected   = errors.New("not connected")
	ErrMessageTooLong = fmt.Errorf("message must be shorter than %d bytes", maxMessageLength)
	ErrInvalidChannel = errors.New("invalid channel")
	ErrEmptyMessage   = errors.New("empty message")
)

var capabilities = []string{"twitch.tv/tags", "twitch.tv/commands", "twitch.tv/membership"}

type Config struct {
	Server     string
	OAuthToken string
	ClientID   string
	Nick       string
	Channels   []irc.Channel
	Reconnect  bool
}

type stopper interface {
	Stop() bool
}

type Client struct {
	log    logger.Logger
	cfg    Config
	bus    *events.Bus
	dialer *websocket.Dialer

	// after schedules reconnects; replaced in tests.
	after func(time.Duration, func()) stopper

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	dialing   bool
	closing   bool
	channels  []irc.Channel
	backoff   *Backoff
	pending   stopper

	writeMu sync.Mutex
}

func New(log logger.Logger, cfg Config, bus *events.Bus, dialer *websocket.Dialer) *Client {
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	if bus == nil {
		bus = events.NewBus()
	}

	channels := make([]irc.Channel, 0, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		ch = irc.NewChannel(ch.String())
		if ch.Valid() && !containsChannel(channels, ch) {
			channels = append(channels, ch)
		}
	}

	return &Client{
		log:      log,
		cfg:      cfg,
		bus:      bus,
		dialer:   dialer,
		channels: channels,
		backoff:  NewBackoff(),
		after: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// Connect dials the server, authenticates and joins the configured channels.
// It returns immediately when already connected or while another dial is in
// flight. A failed dial is retried under the reconnect policy.
func (c *Client) Connect(ctx context.Context) error {
	return c.connect(ctx, false)
}

func (c *Client) connect(ctx context.Context, retry bool) error {
	conn, err := c.dial(ctx, retry)
	if err != nil {
		c.bus.Publish(irc.ErrorEvent{Message: "WebSocket error occurred: " + err.Error()})

		c.mu.Lock()
		if !c.connected && !c.dialing {
			c.scheduleReconnectLocked()
		}
		c.mu.Unlock()
		return err
	}
	if conn == nil {
		return nil
	}

	c.bus.Publish(irc.ConnectedEvent{Timestamp: time.Now()})
	go c.readLoop(conn)
	return nil
}

// dial returns the new connection, or nil when there is nothing to do: a
// connection is open, another dial is running, or Disconnect won the race.
// c.mu is not held across the network dial.
func (c *Client) dial(ctx context.Context, retry bool) (*websocket.Conn, error) {
	c.mu.Lock()
	if !retry {
		c.closing = false
	}
	if c.connected || c.dialing || c.closing {
		c.mu.Unlock()
		return nil, nil
	}
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.dialing = true
	c.mu.Unlock()

	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.Server, nil)
	if resp != nil && resp.Body != nil {
		if err := resp.Body.Close(); err != nil {
			c.log.Error("Failed to close response body", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialing = false

	if err != nil {
		c.log.Error("Failed to connect to chat", err, slog.String("server", c.cfg.Server))
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	if c.closing {
		_ = conn.Close()
		c.log.Info("Dropping connection opened after disconnect")
		return nil, nil
	}

	lines := []string{
		irc.Pass(c.cfg.OAuthToken),
		irc.Nick(c.cfg.Nick),
		irc.CapReq(capabilities...),
	}
	for _, ch := range c.channels {
		lines = append(lines, irc.Join(ch))
	}

	_ = conn.SetWriteDeadline(time.Now().Add(handshakeWriteTimeout))
	for _, line := range lines {
		if err := c.write(conn, line); err != nil {
			_ = conn.Close()
			c.log.Error("Failed to authenticate on chat", err)
			return nil, fmt.Errorf("websocket write: %w", err)
		}
	}
	_ = conn.SetWriteDeadline(time.Time{})

	c.conn = conn
	c.connected = true
	c.backoff.Reset()
	metrics.ChatConnected.Set(1)

	c.log.Info("Connected to Twitch chat", slog.String("nick", c.cfg.Nick), slog.Int("channels", len(c.channels)))
	return conn, nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(conn, err)
			return
		}

		for _, line := range irc.SplitLines(string(data)) {
			c.log.Trace("IRC line", slog.String("line", line))

			res := irc.Parse(line, c.cfg.Nick)
			if res.Reply != "" {
				if err := c.write(conn, res.Reply); err != nil {
					c.log.Warn("Failed to answer keep-alive", slog.String("error", err.Error()))
				}
				continue
			}

			if len(res.Events) == 0 {
				metrics.LinesReceived.WithLabelValues("ignored").Inc()
				continue
			}
			for _, ev := range res.Events {
				metrics.LinesReceived.WithLabelValues(ev.Kind().String()).Inc()
				c.bus.Publish(ev)
			}
		}
	}
}

// handleClose runs when the server or the network drops conn. Closes made by
// Disconnect never get here because it detaches the connection first.
func (c *Client) handleClose(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}

	c.conn = nil
	c.connected = false
	metrics.ChatConnected.Set(0)

	reason := closeReason(err)
	c.log.Warn("Chat connection lost", slog.String("reason", reason))
	c.scheduleReconnectLocked()
	c.mu.Unlock()

	c.bus.Publish(irc.DisconnectedEvent{Reason: reason})
}

// scheduleReconnectLocked arms the next reconnect if the policy still allows one.
func (c *Client) scheduleReconnectLocked() {
	if !c.cfg.Reconnect || c.closing {
		return
	}

	delay, ok := c.backoff.Next()
	if !ok {
		c.log.Warn("Reconnect attempts exhausted", slog.Int("attempts", c.backoff.Attempts()))
		return
	}

	metrics.ReconnectAttempts.Inc()
	c.log.Info("Reconnect scheduled", slog.Int("attempt", c.backoff.Attempts()), slog.String("delay", delay.String()))
	c.pending = c.after(delay, c.reconnect)
}

func (c *Client) reconnect() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()

	_ = c.connect(context.Background(), true)
}

// Disconnect parts every channel and closes the socket. Pending reconnects are
// cancelled; a connection still being dialed is dropped once it opens.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.closing = true
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}

	conn := c.conn
	channels := slices.Clone(c.channels)
	c.conn = nil
	c.connected = false
	c.mu.Unlock()

	if conn == nil {
		return
	}
	metrics.ChatConnected.Set(0)

	for _, ch := range channels {
		if err := c.write(conn, irc.Part(ch)); err != nil {
			c.log.Warn("Failed to part channel", slog.String("channel", ch.String()), slog.String("error", err.Error()))
			break
		}
	}

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()

	if err := conn.Close(); err != nil {
		c.log.Error("Failed to close chat socket", err)
	}

	c.log.Info("Disconnected from Twitch chat")
	c.bus.Publish(irc.DisconnectedEvent{Reason: "disconnected by client"})
}

func (c *Client) SendMessage(channel irc.Channel, text string) error {
	channel = irc.NewChannel(channel.String())
	if !channel.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
	}
	if text == "" {
		return ErrEmptyMessage
	}
	if len(text) >= maxMessageLength {
		return ErrMessageTooLong
	}

	conn := c.activeConn()
	if conn == nil {
		c.log.Warn("Attempted to send message while disconnected", slog.String("channel", channel.String()))
		return ErrNotConnected
	}

	return c.write(conn, irc.Privmsg(channel, text))
}

func (c *Client) Join(channel irc.Channel) error {
	channel = irc.NewChannel(channel.String())
	if !channel.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
	}

	c.mu.Lock()
	if containsChannel(c.channels, channel) {
		c.mu.Unlock()
		return nil
	}
	c.channels = append(c.channels, channel)
	conn := c.conn
	if !c.connected {
		conn = nil
	}
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return c.write(conn, irc.Join(channel))
}

func (c *Client) Part(channel irc.Channel) error {
	channel = irc.NewChannel(channel.String())

	c.mu.Lock()
	idx := slices.IndexFunc(c.channels, channel.Equal)
	if idx == -1 {
		c.mu.Unlock()
		return nil
	}
	c.channels = slices.Delete(c.channels, idx, idx+1)
	conn := c.conn
	if !c.connected {
		conn = nil
	}
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return c.write(conn, irc.Part(channel))
}

func (c *Client) On(kind irc.Kind, h events.Handler) *events.Subscription {
	return c.bus.Subscribe(kind, h)
}

func (c *Client) Bus() *events.Bus {
	return c.bus
}

func (c *Client) Nick() string {
	return c.cfg.Nick
}

func (c *Client) OAuthToken() string {
	return c.cfg.OAuthToken
}

func (c *Client) ClientID() string {
	return c.cfg.ClientID
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) Channels() []irc.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.channels)
}

func (c *Client) activeConn() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	return c.conn
}

func (c *Client) write(conn *websocket.Conn, line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.log.Trace("IRC send", slog.String("line", redact(line)))
	return conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func redact(line string) string {
	if len(line) > 5 && line[:5] == "PASS " {
		return "PASS ***"
	}
	return line
}

func closeReason(err error) string {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		if ce.Text != "" {
			return ce.Text
		}
		return fmt.Sprintf("close %d", ce.Code)
	}
	return err.Error()
}

func containsChannel(list []irc.Channel, ch irc.Channel) bool {
	return slices.ContainsFunc(list, ch.Equal)
}
