package handlers

import (
	"errors"
	"github.com/gin-gonic/gin"
	"net/http"
	"time"
	"tirc/internal/app/adapters/chat"
	"tirc/internal/app/adapters/session"
	"tirc/internal/app/domain/irc"
	"tirc/internal/app/infrastructure/config"
	"tirc/internal/app/infrastructure/storage"
	"tirc/internal/app/ports"
	"tirc/pkg/logger"
)

// Session is what the handlers need from the chat session.
type Session interface {
	Messages(ch irc.Channel) []session.Message
	UserMessages(ch irc.Channel, user string) []session.Message
	Search(ch irc.Channel, query string) []session.Message
	MessageCounts() map[string]int
	MaxMessages() int
	SetMaxMessages(n int)
	Channels() []irc.Channel
	Join(ch irc.Channel) error
	Part(ch irc.Channel) error
	Send(ch irc.Channel, text string) (session.Message, error)
	Connected() bool
	Nick() string
}

type Handlers struct {
	log     logger.Logger
	manager *config.Manager
	session Session
	chat    ports.ChatPort
	catalog ports.CatalogPort
	prefs   ports.PreferencesPort
	started time.Time
}

func New(log logger.Logger, manager *config.Manager, s Session, chat ports.ChatPort, catalog ports.CatalogPort, prefs ports.PreferencesPort) *Handlers {
	return &Handlers{
		log:     log,
		manager: manager,
		session: s,
		chat:    chat,
		catalog: catalog,
		prefs:   prefs,
		started: time.Now(),
	}
}

func abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// statusFor maps domain errors onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrNotConnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, chat.ErrInvalidChannel),
		errors.Is(err, chat.ErrMessageTooLong),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, session.ErrEmptyMessage),
		errors.Is(err, storage.ErrInvalidTheme):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func channelParam(c *gin.Context, value string) (irc.Channel, bool) {
	ch := irc.NewChannel(value)
	if !ch.Valid() {
		abort(c, http.StatusBadRequest, chat.ErrInvalidChannel)
		return "", false
	}
	return ch, true
}
