package gigachat

import (
	"net/http"

	"github.com/baalimago/miniagent/internal/models"
)

const (
	DefaultAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	DefaultURL     = "https://gigachat.devices.sberbank.ru/api/v1"
	DefaultScope   = "GIGACHAT_API_PERS"
)

var Default = GigaChat{
	Model:   "GigaChat",
	Scope:   DefaultScope,
	AuthURL: DefaultAuthURL,
	URL:     DefaultURL,
}

// GigaChat talks to the Sber GigaChat chat completions api.
type GigaChat struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Scope       string   `json:"scope"`
	AuthURL     string   `json:"auth-url"`
	URL         string   `json:"url"`
	// VerifySSLCerts is off by default, the api is served with a
	// certificate of the russian national root CA which is rarely installed.
	VerifySSLCerts bool `json:"verify-ssl-certs"`

	client *http.Client
	tokens *tokenSource
	debug  bool
}

type request struct {
	Model        string     `json:"model"`
	Messages     []message  `json:"messages"`
	Functions    []function `json:"functions,omitempty"`
	FunctionCall string     `json:"function_call,omitempty"`
	Temperature  *float64   `json:"temperature,omitempty"`
	TopP         *float64   `json:"top_p,omitempty"`
	MaxTokens    *int       `json:"max_tokens,omitempty"`
	Stream       bool       `json:"stream,omitempty"`
}

type message struct {
	Role             string        `json:"role"`
	Content          string        `json:"content"`
	Name             string        `json:"name,omitempty"`
	FunctionCall     *functionCall `json:"function_call,omitempty"`
	FunctionsStateID string        `json:"functions_state_id,omitempty"`
}

// functionCall arguments are a json object, not a stringified one as with
// openai.
type functionCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type function struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Parameters  *models.InputSchema `json:"parameters"`
}

type response struct {
	Choices []choice `json:"choices"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Usage   usage    `json:"usage"`
}

type choice struct {
	Message      message `json:"message"`
	Delta        message `json:"delta"`
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	// ExpiresAt is in unix milliseconds
	ExpiresAt int64 `json:"expires_at"`
}
