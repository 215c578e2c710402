package gigachat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
	"github.com/baalimago/miniagent/internal/models"
	"github.com/baalimago/miniagent/internal/utils"
	"github.com/google/uuid"
)

type fakeServer struct {
	*httptest.Server
	tokenCalls atomic.Int32
	chatCalls  atomic.Int32
	// rejectFirst makes the first chat call respond 401
	rejectFirst bool
	lastReq     request
	chatHandler func(w http.ResponseWriter, req request)
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth", func(w http.ResponseWriter, r *http.Request) {
		fs.tokenCalls.Add(1)
		if r.Header.Get("Authorization") != "Basic secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if _, err := uuid.Parse(r.Header.Get("RqUID")); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := r.ParseForm(); err != nil || r.Form.Get("scope") != DefaultScope {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: fmt.Sprintf("token-%v", fs.tokenCalls.Load()),
			ExpiresAt:   time.Now().Add(30 * time.Minute).UnixMilli(),
		})
	})
	mux.HandleFunc("/api/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		n := fs.chatCalls.Add(1)
		if fs.rejectFirst && n == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer token-") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fs.lastReq = req
		fs.chatHandler(w, req)
	})
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func setupGiga(t *testing.T, fs *fakeServer) *GigaChat {
	t.Helper()
	t.Setenv(AuthDataEnv, "secret")
	t.Setenv(ScopeEnv, "")
	env, err := utils.LoadEnv("")
	if err != nil {
		t.Fatalf("failed to load env: %v", err)
	}
	g := Default
	g.AuthURL = fs.URL + "/oauth"
	g.URL = fs.URL + "/api/v1"
	if err := g.Setup(env); err != nil {
		t.Fatalf("failed to setup: %v", err)
	}
	return &g
}

func TestSetup_requiresCredentials(t *testing.T) {
	t.Setenv(AuthDataEnv, "")
	env, _ := utils.LoadEnv("")
	g := Default
	err := g.Setup(env)
	if err == nil {
		t.Fatal("expected error")
	}
	testboil.AssertStringContains(t, err.Error(), AuthDataEnv)
}

func TestComplete_text(t *testing.T) {
	fs := newFakeServer(t)
	fs.chatHandler = func(w http.ResponseWriter, req request) {
		json.NewEncoder(w).Encode(response{Choices: []choice{{
			Message:      message{Role: "assistant", Content: "Привет!"},
			FinishReason: "stop",
		}}})
	}
	g := setupGiga(t, fs)

	chat := models.Chat{Messages: []models.Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "hi"},
	}}
	got, err := g.Complete(context.Background(), chat, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	testboil.FailTestIfDiff(t, got.Role, "assistant")
	testboil.FailTestIfDiff(t, got.Content, "Привет!")
	testboil.FailTestIfDiff(t, len(got.ToolCalls), 0)

	testboil.FailTestIfDiff(t, fs.lastReq.Model, "GigaChat")
	testboil.FailTestIfDiff(t, len(fs.lastReq.Messages), 2)
	testboil.FailTestIfDiff(t, fs.lastReq.FunctionCall, "")

	_, err = g.Complete(context.Background(), chat, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	testboil.FailTestIfDiff(t, fs.tokenCalls.Load(), int32(1))
}

func TestComplete_functionCall(t *testing.T) {
	fs := newFakeServer(t)
	fs.chatHandler = func(w http.ResponseWriter, req request) {
		json.NewEncoder(w).Encode(response{Choices: []choice{{
			Message: message{
				Role:             "assistant",
				FunctionCall:     &functionCall{Name: "search_web", Arguments: map[string]any{"query": "go"}},
				FunctionsStateID: "state-1",
			},
			FinishReason: "function_call",
		}}})
	}
	g := setupGiga(t, fs)

	chat := models.Chat{Messages: []models.Message{
		{Role: "user", Content: "find go"},
		{Role: "assistant", ToolCalls: []models.Call{{ID: "state-0", Name: "append_to_file", Inputs: models.Input{"query": "q", "content": "c"}}}},
		{Role: "tool", Name: "append_to_file", Content: "written to agent.log", ToolCallID: "state-0"},
	}}
	tools := []models.Specification{{Name: "search_web", Description: "search"}}
	got, err := g.Complete(context.Background(), chat, tools)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	testboil.FailTestIfDiff(t, len(got.ToolCalls), 1)
	testboil.FailTestIfDiff(t, got.ToolCalls[0].ID, "state-1")
	testboil.FailTestIfDiff(t, got.ToolCalls[0].Name, "search_web")
	testboil.FailTestIfDiff(t, got.ToolCalls[0].Inputs["query"], any("go"))

	sent := fs.lastReq
	testboil.FailTestIfDiff(t, sent.FunctionCall, "auto")
	testboil.FailTestIfDiff(t, len(sent.Functions), 1)
	testboil.FailTestIfDiff(t, sent.Functions[0].Parameters.Type, "object")
	testboil.FailTestIfDiff(t, sent.Messages[1].FunctionCall.Name, "append_to_file")
	testboil.FailTestIfDiff(t, sent.Messages[1].FunctionsStateID, "state-0")
	testboil.FailTestIfDiff(t, sent.Messages[2].Role, "function")
	testboil.FailTestIfDiff(t, sent.Messages[2].Name, "append_to_file")
	testboil.FailTestIfDiff(t, sent.Messages[2].Content, `{"result":"written to agent.log"}`)
}

func TestComplete_refreshesTokenOnUnauthorized(t *testing.T) {
	fs := newFakeServer(t)
	fs.rejectFirst = true
	fs.chatHandler = func(w http.ResponseWriter, req request) {
		json.NewEncoder(w).Encode(response{Choices: []choice{{Message: message{Role: "assistant", Content: "ok"}}}})
	}
	g := setupGiga(t, fs)
	got, err := g.Complete(context.Background(), models.Chat{Messages: []models.Message{{Role: "user", Content: "hi"}}}, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	testboil.FailTestIfDiff(t, got.Content, "ok")
	testboil.FailTestIfDiff(t, fs.tokenCalls.Load(), int32(2))
	testboil.FailTestIfDiff(t, fs.chatCalls.Load(), int32(2))
}

func TestComplete_badStatus(t *testing.T) {
	fs := newFakeServer(t)
	fs.chatHandler = func(w http.ResponseWriter, req request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"too many"}`))
	}
	g := setupGiga(t, fs)
	_, err := g.Complete(context.Background(), models.Chat{}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	testboil.AssertStringContains(t, err.Error(), "too many")
}

func TestStreamCompletions(t *testing.T) {
	fs := newFakeServer(t)
	fs.chatHandler = func(w http.ResponseWriter, req request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, tok := range []string{"Hel", "lo", ""} {
			b, _ := json.Marshal(response{Choices: []choice{{Delta: message{Role: "assistant", Content: tok}}}})
			fmt.Fprintf(w, "data: %s\n\n", b)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
	g := setupGiga(t, fs)

	events, err := g.StreamCompletions(context.Background(), models.Chat{Messages: []models.Message{{Role: "user", Content: "hi"}}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	var got strings.Builder
	for ev := range events {
		switch cast := ev.(type) {
		case string:
			got.WriteString(cast)
		case error:
			t.Fatalf("unexpected stream error: %v", cast)
		}
	}
	testboil.FailTestIfDiff(t, got.String(), "Hello")
	testboil.FailTestIfDiff(t, fs.lastReq.Stream, true)
}

func TestStreamCompletions_returnsOnContextCancel(t *testing.T) {
	fs := newFakeServer(t)
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	fs.chatHandler = func(w http.ResponseWriter, req request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n")
		w.(http.Flusher).Flush()
		<-block
	}
	g := setupGiga(t, fs)
	testboil.ReturnsOnContextCancel(t, func(ctx context.Context) {
		events, err := g.StreamCompletions(ctx, models.Chat{})
		if err != nil {
			return
		}
		for range events {
		}
	}, time.Second)
}

func TestTokenSource_cachesUntilExpiry(t *testing.T) {
	fs := newFakeServer(t)
	ts := newTokenSource(fs.Client(), fs.URL+"/oauth", "secret", DefaultScope)
	now := time.Now()
	ts.now = func() time.Time { return now }

	first, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	second, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	testboil.FailTestIfDiff(t, first, second)
	testboil.FailTestIfDiff(t, fs.tokenCalls.Load(), int32(1))

	// within the skew of the 30 minute expiry
	now = now.Add(30*time.Minute - 30*time.Second)
	third, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if third == first {
		t.Error("expected token to be refreshed close to expiry")
	}
	testboil.FailTestIfDiff(t, fs.tokenCalls.Load(), int32(2))
}

func TestTokenSource_badCredentials(t *testing.T) {
	fs := newFakeServer(t)
	ts := newTokenSource(fs.Client(), fs.URL+"/oauth", "wrong", DefaultScope)
	_, err := ts.Token(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestFunctionResult(t *testing.T) {
	testboil.FailTestIfDiff(t, functionResult(`{"a":1}`), `{"a":1}`)
	testboil.FailTestIfDiff(t, functionResult("plain"), `{"result":"plain"}`)
	testboil.FailTestIfDiff(t, functionResult(`"quoted"`), `{"result":"\"quoted\""}`)
}
