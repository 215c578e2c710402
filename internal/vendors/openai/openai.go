package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/debug"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/baalimago/miniagent/internal/models"
	"github.com/baalimago/miniagent/internal/utils"
	goopenai "github.com/sashabaranov/go-openai"
)

const (
	APIKeyEnv  = "OPENAI_API_KEY"
	BaseURLEnv = "OPENAI_BASE_URL"
)

var Default = OpenAI{
	Model: "gpt-4.1-mini",
}

// chatClient is the subset of the go-openai client in use, kept small to
// allow faking it in tests.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, req goopenai.ChatCompletionRequest) (*goopenai.ChatCompletionStream, error)
}

// OpenAI talks to any openai compatible chat completions api.
type OpenAI struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature,omitempty"`
	TopP        float32 `json:"top_p,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	// BaseURL of the api, OPENAI_BASE_URL takes precedence
	BaseURL string `json:"base-url,omitempty"`

	client chatClient
	debug  bool
}

func (o *OpenAI) Setup(env *utils.Env) error {
	apiKey, err := env.Require(APIKeyEnv)
	if err != nil {
		return err
	}
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL := env.GetOr(BaseURLEnv, o.BaseURL); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if o.Model == "" {
		o.Model = Default.Model
	}
	o.client = goopenai.NewClientWithConfig(cfg)
	o.debug = misc.Truthy(os.Getenv("DEBUG")) || misc.Truthy(os.Getenv("DEBUG_OPENAI"))
	return nil
}

func (o *OpenAI) newRequest(chat models.Chat) goopenai.ChatCompletionRequest {
	return goopenai.ChatCompletionRequest{
		Model:       o.Model,
		Messages:    toMessages(chat.Messages),
		Temperature: o.Temperature,
		TopP:        o.TopP,
		MaxTokens:   o.MaxTokens,
	}
}

func (o *OpenAI) Complete(ctx context.Context, chat models.Chat, tools []models.Specification) (models.Message, error) {
	if o.client == nil {
		return models.Message{}, errors.New("openai is not setup")
	}
	req := o.newRequest(chat)
	if len(tools) > 0 {
		req.Tools = toTools(tools)
	}
	if o.debug {
		ancli.PrintOK(fmt.Sprintf("openai request: %v\n", debug.IndentedJsonFmt(req)))
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.Message{}, errors.New("response contained no choices")
	}
	return fromMessage(resp.Choices[0].Message)
}

func toTools(specs []models.Specification) []goopenai.Tool {
	ret := make([]goopenai.Tool, 0, len(specs))
	for _, s := range specs {
		params := s.Inputs
		if params == nil {
			params = &models.InputSchema{}
		}
		params.Patch()
		ret = append(ret, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  params,
			},
		})
	}
	return ret
}

func toMessages(msgs []models.Message) []goopenai.ChatCompletionMessage {
	ret := make([]goopenai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		msg := goopenai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, c := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, goopenai.ToolCall{
				ID:   c.ID,
				Type: goopenai.ToolTypeFunction,
				Function: goopenai.FunctionCall{
					Name:      c.Name,
					Arguments: c.ArgumentsJSON(),
				},
			})
		}
		ret = append(ret, msg)
	}
	return ret
}

func fromMessage(m goopenai.ChatCompletionMessage) (models.Message, error) {
	ret := models.Message{
		Role:    goopenai.ChatMessageRoleAssistant,
		Content: m.Content,
	}
	for _, tc := range m.ToolCalls {
		inp := models.Input{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &inp); err != nil {
				return models.Message{}, fmt.Errorf("failed to unmarshal arguments of tool call '%v': %w", tc.Function.Name, err)
			}
		}
		ret.ToolCalls = append(ret.ToolCalls, models.Call{
			ID:     tc.ID,
			Name:   tc.Function.Name,
			Inputs: inp,
		})
	}
	return ret, nil
}
