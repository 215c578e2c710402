package text

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/baalimago/miniagent/internal/models"
	"github.com/baalimago/miniagent/internal/utils"
	"github.com/google/uuid"
)

// Querier is the plain chat: a system prompt and the user query, no tools.
type Querier struct {
	completer models.Completer
	conf      Configurations
	chat      models.Chat
	out       io.Writer
	username  string
	now       func() time.Time
	debug     bool
}

func NewQuerier(completer models.Completer, conf Configurations, out io.Writer) *Querier {
	return &Querier{
		completer: completer,
		conf:      conf,
		out:       out,
		username:  currentUsername(),
		now:       time.Now,
		debug:     misc.Truthy(os.Getenv("DEBUG")),
	}
}

func currentUsername() string {
	currentUser, err := user.Current()
	if err != nil {
		return "user"
	}
	return currentUser.Username
}

func newChat(systemPrompt string, now time.Time) models.Chat {
	return models.Chat{
		ID:      uuid.NewString(),
		Created: now,
		Messages: []models.Message{
			{Role: "system", Content: utils.ExpandPrompt(systemPrompt, now)},
		},
	}
}

// TextQuery sends the query and prints the reply. Unless KeepHistory is set,
// every query starts a fresh conversation.
func (q *Querier) TextQuery(ctx context.Context, query string) (models.Chat, error) {
	if !q.conf.KeepHistory || len(q.chat.Messages) == 0 {
		q.chat = newChat(q.conf.ChatPrompt, q.now())
	}
	q.chat.Messages = append(q.chat.Messages, models.Message{Role: "user", Content: query})

	var reply models.Message
	var err error
	sc, canStream := q.completer.(models.StreamCompleter)
	if canStream && !q.conf.DisableStream {
		reply, err = q.stream(ctx, sc)
	} else {
		reply, err = q.completer.Complete(ctx, q.chat, nil)
		if err == nil {
			err = utils.AttemptPrettyPrint(q.out, reply, q.username, q.conf.Raw)
		}
	}
	if err != nil {
		// drop the unanswered query so that history stays consistent
		q.chat.Messages = q.chat.Messages[:len(q.chat.Messages)-1]
		return q.chat, fmt.Errorf("failed to query: %w", err)
	}
	q.chat.Messages = append(q.chat.Messages, reply)
	if q.debug {
		ancli.PrintOK(fmt.Sprintf("chat: %v messages, id: %v\n", len(q.chat.Messages), q.chat.ID))
	}
	return q.chat, nil
}

// stream the completion to out, token by token.
func (q *Querier) stream(ctx context.Context, sc models.StreamCompleter) (models.Message, error) {
	completions, err := sc.StreamCompletions(ctx, q.chat)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to stream completions: %w", err)
	}
	var fullMsg strings.Builder
	defer fmt.Fprintln(q.out)
	for {
		select {
		case completion, ok := <-completions:
			if !ok {
				return models.Message{Role: "assistant", Content: fullMsg.String()}, nil
			}
			switch cast := completion.(type) {
			case string:
				fullMsg.WriteString(cast)
				fmt.Fprint(q.out, cast)
			case error:
				if errors.Is(cast, io.EOF) {
					continue
				}
				return models.Message{}, fmt.Errorf("completion stream error: %w", cast)
			case models.NoopEvent:
			default:
				return models.Message{}, fmt.Errorf("unknown completion type: %v", completion)
			}
		case <-ctx.Done():
			return models.Message{}, ctx.Err()
		}
	}
}
