package ports

import (
	"context"
	"tirc/internal/app/domain/irc"
	"tirc/internal/app/infrastructure/events"
)

type ChatPort interface {
	Connect(ctx context.Context) error
	Disconnect()
	SendMessage(channel irc.Channel, text string) error
	Join(channel irc.Channel) error
	Part(channel irc.Channel) error

	Nick() string
	OAuthToken() string
	ClientID() string
	Connected() bool
	Channels() []irc.Channel

	On(kind irc.Kind, h events.Handler) *events.Subscription
}
