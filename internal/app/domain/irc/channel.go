package irc

import "strings"

// Channel is a channel name that always carries the leading '#'.
type Channel string

func NewChannel(name string) Channel {
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, "#") {
		name = "#" + name
	}
	return Channel(name)
}

func (c Channel) Name() string {
	return strings.TrimPrefix(string(c), "#")
}

func (c Channel) String() string {
	return string(c)
}

func (c Channel) Valid() bool {
	return len(c) > 1 && c[0] == '#' && !strings.ContainsAny(string(c[1:]), " ,#\r\n")
}

// Equal compares channel names case-insensitively, as the server does.
func (c Channel) Equal(other Channel) bool {
	return strings.EqualFold(string(c), string(other))
}
