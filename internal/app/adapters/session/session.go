package session

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"tirc/internal/app/adapters/metrics"
	"tirc/internal/app/domain/emote"
	"tirc/internal/app/domain/irc"
	"tirc/internal/app/infrastructure/events"
	"tirc/internal/app/infrastructure/storage"
	"tirc/internal/app/ports"
	"tirc/pkg/logger"
)

const DefaultMaxMessages = 1000

var ErrEmptyMessage = errors.New("empty message")

// Session is the chat context a UI works against: it owns the client
// subscriptions, the per-channel message lists and the joined channels.
type Session struct {
	log     logger.Logger
	chat    ports.ChatPort
	catalog ports.CatalogPort
	prefs   ports.PreferencesPort

	messages *storage.Store[Message]
	subs     []*events.Subscription
	now      func() time.Time

	mu     sync.RWMutex
	joined []irc.Channel
}

func New(log logger.Logger, chat ports.ChatPort, catalog ports.CatalogPort, prefs ports.PreferencesPort, maxMessages int) *Session {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}

	s := &Session{
		log:      log,
		chat:     chat,
		catalog:  catalog,
		prefs:    prefs,
		messages: storage.NewStore[Message](maxMessages),
		now:      time.Now,
	}

	s.subs = []*events.Subscription{
		on(chat, s.handleMessage),
		on(chat, s.handleUserJoined),
		on(chat, s.handleUserLeft),
		on(chat, s.handleJoined),
		on(chat, s.handleLeft),
	}

	return s
}

func on[T irc.Event](chat ports.ChatPort, fn func(T)) *events.Subscription {
	var zero T
	return chat.On(zero.Kind(), func(ev irc.Event) {
		if v, ok := ev.(T); ok {
			fn(v)
		}
	})
}

// Start queues the remembered channels on the client and connects.
func (s *Session) Start(ctx context.Context) error {
	for _, name := range s.prefs.JoinedChannels() {
		if err := s.chat.Join(irc.NewChannel(name)); err != nil {
			s.log.Warn("Skipping saved channel", slog.String("channel", name), slog.String("error", err.Error()))
		}
	}

	return s.chat.Connect(ctx)
}

func (s *Session) handleMessage(ev irc.MessageEvent) {
	start := s.now()

	msg := Message{
		ID:          uuid.NewString(),
		Channel:     irc.NewChannel(ev.Channel.String()),
		Username:    strings.ToLower(ev.User),
		DisplayName: ev.User,
		Text:        ev.Text,
		Color:       ev.Tags["color"],
		Tags:        ev.Tags,
		Timestamp:   start,
	}
	if name := ev.Tags["display-name"]; name != "" {
		msg.DisplayName = name
	}
	if id := ev.Tags["id"]; id != "" {
		msg.ID = id
	}

	msg.Segments, msg.Emotes = annotate(ev.Text, ev.Tags["emotes"], s.catalog.All())
	msg.HTML = render(msg.Segments, msg.Emotes)
	s.push(msg)

	metrics.MessagesPerChannel.WithLabelValues(msg.Channel.String()).Inc()
	metrics.MessageProcessingTime.Observe(time.Since(start).Seconds())
}

func (s *Session) handleUserJoined(ev irc.UserJoinedEvent) {
	if strings.EqualFold(ev.User, s.chat.Nick()) {
		return
	}
	s.push(s.system(ev.Channel, ev.User+" joined the channel"))
}

func (s *Session) handleUserLeft(ev irc.UserLeftEvent) {
	if strings.EqualFold(ev.User, s.chat.Nick()) {
		return
	}
	s.push(s.system(ev.Channel, ev.User+" left the channel"))
}

func (s *Session) handleJoined(ev irc.JoinedEvent) {
	s.mu.Lock()
	if !slices.ContainsFunc(s.joined, ev.Channel.Equal) {
		s.joined = append(s.joined, ev.Channel)
	}
	joined := slices.Clone(s.joined)
	s.mu.Unlock()

	s.log.Info("Joined channel", slog.String("channel", ev.Channel.String()))
	s.persist(joined)
}

func (s *Session) handleLeft(ev irc.LeftEvent) {
	s.mu.Lock()
	s.joined = slices.DeleteFunc(s.joined, ev.Channel.Equal)
	joined := slices.Clone(s.joined)
	s.mu.Unlock()

	s.log.Info("Left channel", slog.String("channel", ev.Channel.String()))
	s.persist(joined)
}

// forget drops ch from the joined set and from the saved list, which may
// still hold channels the server has not confirmed yet.
func (s *Session) forget(ch irc.Channel) {
	s.mu.Lock()
	s.joined = slices.DeleteFunc(s.joined, ch.Equal)
	joined := len(s.joined)
	s.mu.Unlock()
	metrics.JoinedChannels.Set(float64(joined))

	saved := slices.DeleteFunc(s.prefs.JoinedChannels(), func(name string) bool {
		return ch.Equal(irc.NewChannel(name))
	})
	if err := s.prefs.SetJoinedChannels(saved); err != nil {
		s.log.Error("Failed to save joined channels", err)
	}
}

func (s *Session) persist(joined []irc.Channel) {
	metrics.JoinedChannels.Set(float64(len(joined)))

	names := make([]string, 0, len(joined))
	for _, ch := range joined {
		names = append(names, ch.String())
	}
	if err := s.prefs.SetJoinedChannels(names); err != nil {
		s.log.Error("Failed to save joined channels", err)
	}
}

func (s *Session) system(ch irc.Channel, text string) Message {
	segments := []emote.Segment{{Text: text}}
	return Message{
		ID:          uuid.NewString(),
		Channel:     irc.NewChannel(ch.String()),
		Username:    systemUser,
		DisplayName: "System",
		Text:        text,
		Segments:    segments,
		HTML:        render(segments, nil),
		System:      true,
		Timestamp:   s.now(),
	}
}

func (s *Session) push(msg Message) {
	s.messages.Push(key(msg.Channel), msg)
}

func key(ch irc.Channel) string {
	return strings.ToLower(irc.NewChannel(ch.String()).String())
}

// Messages returns the channel's messages, oldest first.
func (s *Session) Messages(ch irc.Channel) []Message {
	msgs, _ := s.messages.Get(key(ch))
	return msgs
}

func (s *Session) UserMessages(ch irc.Channel, user string) []Message {
	return s.messages.Filter(key(ch), func(m Message) bool {
		return !m.System && strings.EqualFold(m.Username, user)
	})
}

// Search matches query case-insensitively against text and user names.
// An empty query returns every message.
func (s *Session) Search(ch irc.Channel, query string) []Message {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.Messages(ch)
	}
	return s.messages.Filter(key(ch), func(m Message) bool {
		return m.matches(query)
	})
}

// MessageCounts reports how many messages are kept per channel.
func (s *Session) MessageCounts() map[string]int {
	counts := make(map[string]int)
	for _, k := range s.messages.Keys() {
		counts[k] = s.messages.Len(k)
	}
	return counts
}

func (s *Session) MaxMessages() int {
	return s.messages.GetCapacity()
}

// SetMaxMessages changes the per-channel bound. Lists over the new bound
// lose their oldest messages.
func (s *Session) SetMaxMessages(n int) {
	if n <= 0 {
		n = DefaultMaxMessages
	}
	s.messages.SetCapacity(n)
}

// Channels lists the channels the server confirmed, in join order.
func (s *Session) Channels() []irc.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.joined)
}

func (s *Session) Join(ch irc.Channel) error {
	return s.chat.Join(ch)
}

// Part leaves the channel and drops its messages. While disconnected no
// server confirmation will come, so the channel is forgotten right away.
func (s *Session) Part(ch irc.Channel) error {
	if err := s.chat.Part(ch); err != nil {
		return err
	}
	s.messages.ClearKey(key(ch))

	if !s.chat.Connected() {
		s.forget(irc.NewChannel(ch.String()))
	}
	return nil
}

// Send writes text to the channel, records it as the user's own message
// (the server does not echo it) and remembers the catalog emotes it used.
func (s *Session) Send(ch irc.Channel, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	if err := s.chat.SendMessage(ch, text); err != nil {
		return Message{}, fmt.Errorf("send message: %w", err)
	}

	nick := s.chat.Nick()
	msg := Message{
		ID:          uuid.NewString(),
		Channel:     irc.NewChannel(ch.String()),
		Username:    strings.ToLower(nick),
		DisplayName: nick,
		Text:        text,
		Self:        true,
		Timestamp:   s.now(),
	}
	msg.Segments, msg.Emotes = annotate(text, "", s.catalog.All())
	msg.HTML = render(msg.Segments, msg.Emotes)
	s.push(msg)

	for _, e := range msg.Emotes {
		if err := s.prefs.PushRecentEmote(e.Name); err != nil {
			s.log.Warn("Failed to save recent emote", slog.String("emote", e.Name), slog.String("error", err.Error()))
		}
	}

	return msg, nil
}

func (s *Session) Connected() bool {
	return s.chat.Connected()
}

func (s *Session) Nick() string {
	return s.chat.Nick()
}

// Close drops every subscription and message, then disconnects.
func (s *Session) Close() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	s.messages.ClearAll()
	s.chat.Disconnect()
}
