package text

import (
	"context"
	"errors"

	"github.com/baalimago/miniagent/internal/models"
)

// scriptedCompleter replies with the messages in replies, one per call. Once
// the replies are consumed, the last one is repeated.
type scriptedCompleter struct {
	replies []models.Message
	err     error
	calls   int
	gotSpec []models.Specification
	gotChat models.Chat
}

func (s *scriptedCompleter) Complete(ctx context.Context, chat models.Chat, tools []models.Specification) (models.Message, error) {
	s.gotChat = chat
	s.gotSpec = tools
	if s.err != nil {
		return models.Message{}, s.err
	}
	if len(s.replies) == 0 {
		return models.Message{}, errors.New("no replies scripted")
	}
	i := min(s.calls, len(s.replies)-1)
	s.calls++
	return s.replies[i], nil
}

// streamCompleter emits tokens, then errEvent if set.
type streamCompleter struct {
	scriptedCompleter
	tokens   []string
	errEvent error
}

func (s *streamCompleter) StreamCompletions(ctx context.Context, chat models.Chat) (chan models.CompletionEvent, error) {
	s.gotChat = chat
	out := make(chan models.CompletionEvent)
	go func() {
		defer close(out)
		for _, tok := range s.tokens {
			select {
			case out <- tok:
			case <-ctx.Done():
				return
			}
		}
		out <- models.NoopEvent{}
		if s.errEvent != nil {
			out <- s.errEvent
		}
	}()
	return out, nil
}
