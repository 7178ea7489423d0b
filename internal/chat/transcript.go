package chat

import (
	"time"

	"saave-bot/internal/quote"
)

type Sender string

const (
	SenderBot  Sender = "bot"
	SenderUser Sender = "user"
)

// Message is one transcript entry. Prompts carry the options the user can
// pick from.
type Message struct {
	Sender  Sender         `json:"sender"`
	Text    string         `json:"text"`
	Options []quote.Option `json:"options,omitempty"`
	Time    time.Time      `json:"timestamp"`
}

func (m Message) HasOptions() bool { return len(m.Options) > 0 }

// appendDistinct appends m unless it repeats the last entry's sender and text.
// It reports whether m was appended.
func appendDistinct(list []Message, m Message) ([]Message, bool) {
	if n := len(list); n > 0 {
		last := list[n-1]
		if last.Sender == m.Sender && last.Text == m.Text {
			return list, false
		}
	}
	return append(list, m), true
}

func cloneMessages(list []Message) []Message {
	if list == nil {
		return nil
	}
	out := make([]Message, len(list))
	for i, m := range list {
		out[i] = m
		out[i].Options = append([]quote.Option(nil), m.Options...)
	}
	return out
}
