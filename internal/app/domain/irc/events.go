package irc

import "time"

type Kind int

const (
	KindConnected Kind = iota
	KindDisconnected
	KindError
	KindMessageReceived
	KindUserJoined
	KindUserLeft
	KindJoined
	KindLeft
)

var kindNames = [...]string{
	KindConnected:       "connected",
	KindDisconnected:    "disconnected",
	KindError:           "error",
	KindMessageReceived: "messageReceived",
	KindUserJoined:      "userJoined",
	KindUserLeft:        "userLeft",
	KindJoined:          "joined",
	KindLeft:            "left",
}

func Kinds() []Kind {
	return []Kind{KindConnected, KindDisconnected, KindError, KindMessageReceived, KindUserJoined, KindUserLeft, KindJoined, KindLeft}
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Event is one of the payload types below.
type Event interface {
	Kind() Kind
}

type ConnectedEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

type DisconnectedEvent struct {
	Reason string `json:"reason"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

type MessageEvent struct {
	User    string            `json:"user"`
	Channel Channel           `json:"channel"`
	Text    string            `json:"message"`
	Tags    map[string]string `json:"tags"`
}

type UserJoinedEvent struct {
	User    string  `json:"user"`
	Channel Channel `json:"channel"`
}

type UserLeftEvent struct {
	User    string  `json:"user"`
	Channel Channel `json:"channel"`
}

// JoinedEvent fires when the client's own nick joined a channel.
type JoinedEvent struct {
	Channel Channel `json:"channel"`
}

// LeftEvent fires when the client's own nick left a channel.
type LeftEvent struct {
	Channel Channel `json:"channel"`
}

func (ConnectedEvent) Kind() Kind    { return KindConnected }
func (DisconnectedEvent) Kind() Kind { return KindDisconnected }
func (ErrorEvent) Kind() Kind        { return KindError }
func (MessageEvent) Kind() Kind      { return KindMessageReceived }
func (UserJoinedEvent) Kind() Kind   { return KindUserJoined }
func (UserLeftEvent) Kind() Kind     { return KindUserLeft }
func (JoinedEvent) Kind() Kind       { return KindJoined }
func (LeftEvent) Kind() Kind         { return KindLeft }
