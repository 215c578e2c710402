// Package echo is an offline vendor which replies with the last user
// message. It exists for tests and for trying out the loops without
// credentials.
package echo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/baalimago/miniagent/internal/models"
)

// ToolPrefix makes the echo vendor request a tool call, as in
// '!tool search_web {"query": "go"}', when tools are offered.
const ToolPrefix = "!tool "

type Echo struct{}

func (e *Echo) Complete(ctx context.Context, chat models.Chat, tools []models.Specification) (models.Message, error) {
	if err := ctx.Err(); err != nil {
		return models.Message{}, err
	}
	if len(chat.Messages) == 0 {
		return models.Message{Role: "assistant"}, nil
	}
	last := chat.Messages[len(chat.Messages)-1]
	if last.Role == "tool" {
		return models.Message{Role: "assistant", Content: last.Content}, nil
	}
	userMsg, _, err := chat.LastOfRole("user")
	if err != nil {
		return models.Message{Role: "assistant"}, nil
	}
	if len(tools) > 0 && strings.HasPrefix(userMsg.Content, ToolPrefix) {
		call, err := parseToolCall(strings.TrimPrefix(userMsg.Content, ToolPrefix))
		if err != nil {
			return models.Message{}, err
		}
		return models.Message{Role: "assistant", ToolCalls: []models.Call{call}}, nil
	}
	return models.Message{Role: "assistant", Content: userMsg.Content}, nil
}

func (e *Echo) StreamCompletions(ctx context.Context, chat models.Chat) (chan models.CompletionEvent, error) {
	msg, err := e.Complete(ctx, chat, nil)
	if err != nil {
		return nil, err
	}
	out := make(chan models.CompletionEvent, 1)
	out <- msg.Content
	close(out)
	return out, nil
}

func parseToolCall(s string) (models.Call, error) {
	name, rawArgs, _ := strings.Cut(strings.TrimSpace(s), " ")
	inp := models.Input{}
	if rawArgs = strings.TrimSpace(rawArgs); rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &inp); err != nil {
			return models.Call{}, fmt.Errorf("failed to parse tool arguments: %w", err)
		}
	}
	return models.Call{ID: "echo-" + name, Name: name, Inputs: inp}, nil
}
