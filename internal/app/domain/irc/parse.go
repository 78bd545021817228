package irc

import (
	"regexp"
	"strings"
)

const Pong = "PONG :tmi.twitch.tv"

var (
	privmsgRe = regexp.MustCompile(`^:(\w+)!\w+@\w+\.tmi\.twitch\.tv PRIVMSG (#\w+) :(.*)$`)
	joinRe    = regexp.MustCompile(`^:(\w+)!\S* JOIN (#\w+)`)
	partRe    = regexp.MustCompile(`^:(\w+)!\S* PART (#\w+)`)
)

// Result is what a single line produced: events to publish and
// an optional line to write straight back to the server.
type Result struct {
	Events []Event
	Reply  string
}

// SplitLines splits a socket frame on CRLF and drops empty lines.
func SplitLines(frame string) []string {
	parts := strings.Split(frame, "\r\n")

	lines := parts[:0]
	for _, p := range parts {
		if p != "" {
			lines = append(lines, p)
		}
	}
	return lines
}

// Parse turns one raw line into events. nick is the client's own login and
// decides whether JOIN/PART additionally yield Joined/Left.
// Lines the client does not care about produce an empty Result.
func Parse(line, nick string) Result {
	line = strings.TrimRight(line, "\r\n")
	if strings.HasPrefix(line, "PING") {
		return Result{Reply: Pong}
	}

	tags := map[string]string{}
	if strings.HasPrefix(line, "@") {
		spaceIdx := strings.IndexByte(line, ' ')
		if spaceIdx == -1 {
			return Result{}
		}
		tags = ParseTags(line[1:spaceIdx])
		line = line[spaceIdx+1:]
	}

	if m := privmsgRe.FindStringSubmatch(line); m != nil {
		return Result{Events: []Event{MessageEvent{
			User:    m[1],
			Channel: Channel(m[2]),
			Text:    m[3],
			Tags:    tags,
		}}}
	}

	if m := joinRe.FindStringSubmatch(line); m != nil {
		ch := NewChannel(m[2])
		events := []Event{UserJoinedEvent{User: m[1], Channel: ch}}
		if strings.EqualFold(m[1], nick) {
			events = append(events, JoinedEvent{Channel: ch})
		}
		return Result{Events: events}
	}

	if m := partRe.FindStringSubmatch(line); m != nil {
		ch := NewChannel(m[2])
		events := []Event{UserLeftEvent{User: m[1], Channel: ch}}
		if strings.EqualFold(m[1], nick) {
			events = append(events, LeftEvent{Channel: ch})
		}
		return Result{Events: events}
	}

	return Result{}
}
