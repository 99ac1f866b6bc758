// Package ai turns stored conversations into completion requests and manages the credentials used to send them.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cchalm/parley/internal/chat"
)

// Role is the author of a turn as seen by a completion backend
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single role/content entry of a completion request
type Turn struct {
	Role    Role
	Content string
}

// ErrEmptyCompletion is returned by a Completer when the backend answered without any content
var ErrEmptyCompletion = errors.New("no completion content")

// Completer sends a completion request to a backend and returns the content of the first choice
type Completer interface {
	Complete(ctx context.Context, model string, turns []Turn) (string, error)
}

// RoleFor maps a message sender to the role a completion backend expects
func RoleFor(sender chat.Sender) (Role, error) {
	switch sender {
	case chat.User:
		return RoleUser, nil
	case chat.Model:
		return RoleAssistant, nil
	}
	return "", fmt.Errorf("no role for sender %s", sender)
}

// BuildTurns converts the history of c, followed by newMessage from the user, into completion turns
func BuildTurns(newMessage string, c chat.Chat) ([]Turn, error) {
	turns := make([]Turn, 0, len(c.Messages)+1)
	for i, msg := range c.Messages {
		role, err := RoleFor(msg.Sender)
		if err != nil {
			return nil, fmt.Errorf("failed to convert message %d: %w", i, err)
		}
		turns = append(turns, Turn{Role: role, Content: msg.Content})
	}
	turns = append(turns, Turn{Role: RoleUser, Content: newMessage})
	return turns, nil
}
