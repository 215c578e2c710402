package models

import (
	"context"
)

// CompletionEvent is emitted by a StreamCompleter. It is one of
// string (a token), error or NoopEvent.
type CompletionEvent any

// NoopEvent is sent for stream chunks which carry nothing printable,
// such as keep-alives or role-only deltas.
type NoopEvent struct{}

// Completer sends the chat to a hosted model and returns its reply. The
// reply may contain tool calls, in which case the caller is expected to
// invoke them and complete again.
type Completer interface {
	Complete(ctx context.Context, chat Chat, tools []Specification) (Message, error)
}

// StreamCompleter streams the reply of the model token by token. Tools are
// not supported while streaming.
type StreamCompleter interface {
	StreamCompletions(ctx context.Context, chat Chat) (chan CompletionEvent, error)
}

// LLMTool is a function which the model may request to have invoked
// mid-conversation.
type LLMTool interface {
	Call(ctx context.Context, input Input) (string, error)
	Specification() Specification
}

// Querier runs one user query and prints the outcome.
type Querier interface {
	TextQuery(ctx context.Context, query string) (Chat, error)
}
