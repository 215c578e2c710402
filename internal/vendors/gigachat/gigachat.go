package gigachat

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/debug"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/baalimago/miniagent/internal/models"
	"github.com/baalimago/miniagent/internal/utils"
	"github.com/google/uuid"
)

const (
	AuthDataEnv = "GIGA_AUTH_DATA"
	ScopeEnv    = "GIGA_SCOPE"
)

var errUnauthorized = errors.New("unauthorized")

// Setup the http client and the token source. The authorization key is
// read from GIGA_AUTH_DATA, the scope may be overridden with GIGA_SCOPE.
func (g *GigaChat) Setup(env *utils.Env) error {
	credentials, err := env.Require(AuthDataEnv)
	if err != nil {
		return err
	}
	if g.Model == "" {
		g.Model = Default.Model
	}
	if g.URL == "" {
		g.URL = DefaultURL
	}
	if g.AuthURL == "" {
		g.AuthURL = DefaultAuthURL
	}
	scope := env.GetOr(ScopeEnv, g.Scope)
	if scope == "" {
		scope = DefaultScope
	}
	g.client = newHTTPClient(g.VerifySSLCerts)
	g.debug = misc.Truthy(os.Getenv("DEBUG")) || misc.Truthy(os.Getenv("DEBUG_GIGACHAT"))
	g.tokens = newTokenSource(g.client, g.AuthURL, credentials, scope)
	g.tokens.debug = g.debug
	return nil
}

func newHTTPClient(verifySSLCerts bool) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if !verifySSLCerts {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- opt-in via verify-ssl-certs
	}
	return &http.Client{Transport: tr}
}

// Complete the chat, offering tools as gigachat functions. GigaChat requests
// at most one function per reply.
func (g *GigaChat) Complete(ctx context.Context, chat models.Chat, tools []models.Specification) (models.Message, error) {
	reqData := g.newRequest(chat, false)
	if len(tools) > 0 {
		reqData.Functions = toFunctions(tools)
		reqData.FunctionCall = "auto"
	}
	res, err := g.do(ctx, reqData)
	if err != nil {
		return models.Message{}, err
	}
	defer res.Body.Close()
	var resp response
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return models.Message{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if g.debug {
		ancli.PrintOK(fmt.Sprintf("gigachat response: %v\n", debug.IndentedJsonFmt(resp)))
	}
	if len(resp.Choices) == 0 {
		return models.Message{}, errors.New("response contained no choices")
	}
	return fromMessage(resp.Choices[0].Message), nil
}

func (g *GigaChat) newRequest(chat models.Chat, stream bool) request {
	return request{
		Model:       g.Model,
		Messages:    toMessages(chat.Messages),
		Temperature: g.Temperature,
		TopP:        g.TopP,
		MaxTokens:   g.MaxTokens,
		Stream:      stream,
	}
}

// do the request, refreshing the access token once if it's been revoked
// or expired server side.
func (g *GigaChat) do(ctx context.Context, reqData request) (*http.Response, error) {
	if g.client == nil || g.tokens == nil {
		return nil, errors.New("gigachat is not setup")
	}
	body, err := json.Marshal(reqData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	if g.debug {
		ancli.PrintOK(fmt.Sprintf("gigachat request: %v\n", debug.IndentedJsonFmt(reqData)))
	}
	res, err := g.post(ctx, body, reqData.Stream)
	if errors.Is(err, errUnauthorized) {
		g.tokens.Invalidate()
		res, err = g.post(ctx, body, reqData.Stream)
	}
	return res, err
}

func (g *GigaChat) post(ctx context.Context, body []byte, stream bool) (*http.Response, error) {
	token, err := g.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(g.URL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	res, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	if res.StatusCode == http.StatusUnauthorized {
		res.Body.Close()
		return nil, errUnauthorized
	}
	if res.StatusCode != http.StatusOK {
		defer res.Body.Close()
		b, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("unexpected status code: %v, body: %v", res.Status, string(b))
	}
	return res, nil
}

func toFunctions(specs []models.Specification) []function {
	ret := make([]function, 0, len(specs))
	for _, s := range specs {
		params := s.Inputs
		if params == nil {
			params = &models.InputSchema{}
		}
		params.Patch()
		ret = append(ret, function{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  params,
		})
	}
	return ret
}

func toMessages(msgs []models.Message) []message {
	ret := make([]message, 0, len(msgs))
	for _, m := range msgs {
		switch {
		case m.Role == "tool":
			ret = append(ret, message{
				Role:    "function",
				Name:    m.Name,
				Content: functionResult(m.Content),
			})
		case m.Role == "assistant" && len(m.ToolCalls) > 0:
			call := m.ToolCalls[0]
			args := map[string]any(call.Inputs)
			if args == nil {
				args = map[string]any{}
			}
			ret = append(ret, message{
				Role:             "assistant",
				Content:          "",
				FunctionCall:     &functionCall{Name: call.Name, Arguments: args},
				FunctionsStateID: call.ID,
			})
		default:
			ret = append(ret, message{Role: m.Role, Content: m.Content})
		}
	}
	return ret
}

// functionResult wraps plain text tool output into the json object the api
// expects as function content.
func functionResult(out string) string {
	if json.Valid([]byte(out)) && strings.HasPrefix(strings.TrimSpace(out), "{") {
		return out
	}
	b, err := json.Marshal(map[string]string{"result": out})
	if err != nil {
		return `{"result":""}`
	}
	return string(b)
}

func fromMessage(m message) models.Message {
	ret := models.Message{
		Role:    "assistant",
		Content: m.Content,
	}
	if m.FunctionCall != nil && m.FunctionCall.Name != "" {
		id := m.FunctionsStateID
		if id == "" {
			id = uuid.NewString()
		}
		ret.ToolCalls = []models.Call{{
			ID:     id,
			Name:   m.FunctionCall.Name,
			Inputs: models.Input(m.FunctionCall.Arguments),
		}}
	}
	return ret
}
