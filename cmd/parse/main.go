package main

import (
	"bufio"
	"encoding/json"
	"log"
	"os"
	"tirc/internal/app/domain/emote"
	"tirc/internal/app/domain/irc"
)

type output struct {
	Type     string          `json:"type"`
	Event    irc.Event       `json:"event,omitempty"`
	Reply    string          `json:"reply,omitempty"`
	Segments []emote.Segment `json:"segments,omitempty"`
	HTML     string          `json:"html,omitempty"`
}

// Reads raw IRC lines from stdin and prints what the client would make of them.
// Useful for checking captured traffic: `parse bob < dump.txt`.
func main() {
	nick := ""
	if len(os.Args) > 1 {
		nick = os.Args[1]
	}

	enc := json.NewEncoder(os.Stdout)
	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	for sc.Scan() {
		res := irc.Parse(sc.Text(), nick)
		if res.Reply != "" {
			if err := enc.Encode(output{Type: "reply", Reply: res.Reply}); err != nil {
				log.Fatal(err)
			}
			continue
		}

		for _, ev := range res.Events {
			out := output{Type: ev.Kind().String(), Event: ev}
			if m, ok := ev.(irc.MessageEvent); ok {
				out.Segments = emote.Split(m.Text, emote.ParseTag(m.Tags["emotes"], m.Text))
				out.HTML = emote.RenderHTML(out.Segments, func(i emote.Info) string {
					return emote.TwitchURL(i.ID, "1.0")
				})
			}
			if err := enc.Encode(out); err != nil {
				log.Fatal(err)
			}
		}
	}

	if err := sc.Err(); err != nil {
		log.Fatal(err)
	}
}
