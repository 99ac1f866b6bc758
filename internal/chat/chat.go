// Package chat defines conversations and the messages they are made of.
package chat

import (
	"fmt"
	"io"
	"time"
)

// Sender identifies who authored a message
type Sender uint8

const (
	// The zero value is deliberately not a valid sender
	User Sender = iota + 1
	Model
)

// String returns the label used when rendering and persisting a message
func (s Sender) String() string {
	switch s {
	case User:
		return "User"
	case Model:
		return "Model"
	}
	return fmt.Sprintf("Sender(%d)", uint8(s))
}

// Valid reports whether s is one of the known senders
func (s Sender) Valid() bool {
	switch s {
	case User, Model:
		return true
	}
	return false
}

// ParseSender is the inverse of Sender.String
func ParseSender(label string) (Sender, error) {
	switch label {
	case "User":
		return User, nil
	case "Model":
		return Model, nil
	}
	return 0, fmt.Errorf("invalid sender %q", label)
}

// Message is one turn in a chat. Messages are not modified after creation.
type Message struct {
	Sender    Sender
	Content   string
	Timestamp time.Time
}

// NewMessage creates a message stamped with the current local time
func NewMessage(sender Sender, content string) Message {
	return Message{
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// String formats the message as "[HH:MM:SS] Sender: content"
func (m Message) String() string {
	return fmt.Sprintf("[%s] %s: %s", m.Timestamp.Format(time.TimeOnly), m.Sender, m.Content)
}

// Chat is a conversation with a single backend model
type Chat struct {
	ID        int64
	Model     string
	Messages  []Message // Conversation order
	Timestamp time.Time
}

// New creates an empty chat. The caller is responsible for choosing a unique id.
func New(id int64, model string) Chat {
	return Chat{
		ID:        id,
		Model:     model,
		Messages:  []Message{},
		Timestamp: time.Now(),
	}
}

// AddMessage appends msg to the end of the conversation
func (c *Chat) AddMessage(msg Message) {
	c.Messages = append(c.Messages, msg)
}

// LastMessage returns the most recent message, if any
func (c Chat) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// Render writes one line per message to w, in conversation order
func (c Chat) Render(w io.Writer) error {
	for _, msg := range c.Messages {
		if _, err := fmt.Fprintln(w, msg); err != nil {
			return fmt.Errorf("failed to render message: %w", err)
		}
	}
	return nil
}
