package models

import (
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
)

func TestLastOfRole(t *testing.T) {
	chat := Chat{Messages: []Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "reply"},
		{Role: "user", Content: "last"},
	}}

	msg, i, err := chat.LastOfRole("assistant")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if msg.Content != "reply" {
		t.Errorf("expected 'reply', got %q", msg.Content)
	}
	if i != 2 {
		t.Errorf("expected '2', got %v", i)
	}

	msg, i, err = chat.LastOfRole("user")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if msg.Content != "last" || i != 3 {
		t.Errorf("expected 'last' at 3, got %q at %v", msg.Content, i)
	}

	_, _, err = chat.LastOfRole("nonexistent")
	if err == nil {
		t.Fatal("expected error for missing role")
	}
}

func TestFinalReply(t *testing.T) {
	t.Run("it should skip assistant messages with tool calls", func(t *testing.T) {
		chat := Chat{Messages: []Message{
			{Role: "user", Content: "q"},
			{Role: "assistant", Content: "first answer"},
			{Role: "assistant", ToolCalls: []Call{{Name: "search_web"}}},
			{Role: "tool", Content: "hits"},
		}}
		got, err := chat.FinalReply()
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		testboil.FailTestIfDiff(t, got.Content, "first answer")
	})

	t.Run("it should fall back to the last message", func(t *testing.T) {
		chat := Chat{Messages: []Message{
			{Role: "user", Content: "q"},
			{Role: "tool", Content: "hits"},
		}}
		got, err := chat.FinalReply()
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		testboil.FailTestIfDiff(t, got.Content, "hits")
	})

	t.Run("it should error on empty chat", func(t *testing.T) {
		chat := Chat{}
		if _, err := chat.FinalReply(); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestCall_PrettyPrint(t *testing.T) {
	c := Call{Name: "append_to_file", Inputs: Input{"query": "go", "content": "news"}}
	testboil.FailTestIfDiff(t, c.PrettyPrint(), "Call: 'append_to_file', inputs: [ 'content': 'news','query': 'go' ]")
}

func TestCall_ArgumentsJSON(t *testing.T) {
	testboil.FailTestIfDiff(t, Call{Name: "x"}.ArgumentsJSON(), "{}")
	testboil.FailTestIfDiff(t, Call{Name: "x", Inputs: Input{"query": "go"}}.ArgumentsJSON(), `{"query":"go"}`)
}

func TestInputSchema_Patch(t *testing.T) {
	is := InputSchema{}
	is.Patch()
	testboil.FailTestIfDiff(t, is.Type, "object")
	if is.Required == nil || is.Properties == nil {
		t.Fatal("expected required and properties to be initialized")
	}
}
