package messenger

import (
	"context"
	"strings"
)

// MessageID uniquely identifies a message within a messenger platform.
type MessageID string

// Field is one labelled value in a notification, rendered as a key/value pair.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Message is a platform-agnostic notification: a title line plus fields.
type Message struct {
	Title  string  `json:"title"`
	Fields []Field `json:"fields,omitempty"`
}

// PlainText renders the message for platforms (and notification previews)
// that do not support rich layouts.
func (m Message) PlainText() string {
	var b strings.Builder
	b.WriteString(m.Title)
	for _, f := range m.Fields {
		b.WriteString("\n")
		b.WriteString(f.Label)
		b.WriteString(": ")
		b.WriteString(f.Value)
	}
	return b.String()
}

// Messenger abstracts posting to a chat platform channel.
type Messenger interface {
	// SendMessage posts msg to a channel and returns its platform message ID.
	SendMessage(ctx context.Context, channelID string, msg Message) (MessageID, error)

	// Platform returns the messenger platform identifier (e.g. "slack").
	Platform() string
}
