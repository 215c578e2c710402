package gigachat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/miniagent/internal/models"
)

var dataPrefix = []byte("data: ")

// StreamCompletions of the chat. Tokens are sent on the returned channel
// which is closed once the stream ends.
func (g *GigaChat) StreamCompletions(ctx context.Context, chat models.Chat) (chan models.CompletionEvent, error) {
	res, err := g.do(ctx, g.newRequest(chat, true))
	if err != nil {
		return nil, fmt.Errorf("failed to start stream: %w", err)
	}
	return g.handleStreamResponse(ctx, res), nil
}

func (g *GigaChat) handleStreamResponse(ctx context.Context, res *http.Response) chan models.CompletionEvent {
	outChan := make(chan models.CompletionEvent)
	send := func(ev models.CompletionEvent) bool {
		select {
		case outChan <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	go func() {
		defer func() {
			res.Body.Close()
			close(outChan)
		}()
		br := bufio.NewReader(res.Body)
		for {
			line, err := br.ReadBytes('\n')
			if len(bytes.TrimSpace(line)) > 0 {
				ev, done := g.handleStreamChunk(line)
				if done {
					return
				}
				if _, isNoop := ev.(models.NoopEvent); !isNoop && !send(ev) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) && ctx.Err() == nil {
					send(fmt.Errorf("failed to read line: %w", err))
				}
				return
			}
		}
	}()
	return outChan
}

// handleStreamChunk parses one server sent event line. done is true once
// the terminating [DONE] is received.
func (g *GigaChat) handleStreamChunk(line []byte) (ev models.CompletionEvent, done bool) {
	line = bytes.TrimSpace(line)
	if !bytes.HasPrefix(line, dataPrefix) {
		return models.NoopEvent{}, false
	}
	line = bytes.TrimSpace(bytes.TrimPrefix(line, dataPrefix))
	if string(line) == "[DONE]" {
		return nil, true
	}
	var chunk response
	if err := json.Unmarshal(line, &chunk); err != nil {
		if g.debug {
			ancli.PrintWarn(fmt.Sprintf("failed to unmarshal chunk: %v, err: %v\n", string(line), err))
		}
		return models.NoopEvent{}, false
	}
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return models.NoopEvent{}, false
	}
	return chunk.Choices[0].Delta.Content, false
}
