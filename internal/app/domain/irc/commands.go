package irc

import (
	"fmt"
	"strings"
)

func Pass(token string) string {
	return "PASS oauth:" + strings.TrimPrefix(token, "oauth:")
}

func Nick(nick string) string {
	return "NICK " + nick
}

func Join(ch Channel) string {
	return "JOIN " + ch.String()
}

func Part(ch Channel) string {
	return "PART " + ch.String()
}

var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// Privmsg flattens line breaks so one call never writes more than one command.
func Privmsg(ch Channel, text string) string {
	return fmt.Sprintf("PRIVMSG %s :%s", ch, lineBreaks.Replace(text))
}

func CapReq(caps ...string) string {
	return "CAP REQ :" + strings.Join(caps, " ")
}
