package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/baalimago/miniagent/internal/models"
)

func (o *OpenAI) StreamCompletions(ctx context.Context, chat models.Chat) (chan models.CompletionEvent, error) {
	if o.client == nil {
		return nil, errors.New("openai is not setup")
	}
	req := o.newRequest(chat)
	req.Stream = true
	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion stream: %w", err)
	}
	outChan := make(chan models.CompletionEvent)
	go func() {
		defer func() {
			stream.Close()
			close(outChan)
		}()
		for {
			resp, err := stream.Recv()
			if err != nil {
				if !errors.Is(err, io.EOF) && ctx.Err() == nil {
					select {
					case outChan <- fmt.Errorf("failed to receive: %w", err):
					case <-ctx.Done():
					}
				}
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			select {
			case outChan <- resp.Choices[0].Delta.Content:
			case <-ctx.Done():
				return
			}
		}
	}()
	return outChan, nil
}
