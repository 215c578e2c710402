package models

import (
	"errors"
	"fmt"
	"time"
)

type Chat struct {
	Created  time.Time `json:"created,omitempty"`
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
}

type Message struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	Name       string `json:"name,omitempty"`
	ToolCalls  []Call `json:"tool_calls,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

func (c *Chat) LastOfRole(role string) (Message, int, error) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		msg := c.Messages[i]
		if msg.Role == role {
			return msg, i, nil
		}
	}
	return Message{}, -1, fmt.Errorf("failed to find any %v message", role)
}

// FinalReply is the message which should be shown to the user once a
// conversation round is done: the last assistant message without tool
// calls, falling back to the last message of the chat.
func (c *Chat) FinalReply() (Message, error) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		msg := c.Messages[i]
		if msg.Role == "assistant" && len(msg.ToolCalls) == 0 {
			return msg, nil
		}
	}
	if len(c.Messages) == 0 {
		return Message{}, errors.New("chat is empty")
	}
	return c.Messages[len(c.Messages)-1], nil
}
