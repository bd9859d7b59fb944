package ai

import (
	"context"
	"errors"
	"testing"
)

func TestNewOpenAIModelDefaultsModelName(t *testing.T) {
	m := NewOpenAIModel("key", "")
	if m.modelName != "gpt-4o" {
		t.Errorf("expected default model name, got %q", m.modelName)
	}
}

func TestOpenAIModelChatRejectsCancelledContext(t *testing.T) {
	m := NewOpenAIModel("key", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Chat(ctx, []Message{{Role: RoleUser, Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
}

func TestOpenAIModelCompleteRejectsEmptyAPIKey(t *testing.T) {
	m := NewOpenAIModel("", "")

	_, err := m.complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("expected an error for a missing API key")
	}
}

func TestIsTransientOpenAIErrorDetectsKnownPatterns(t *testing.T) {
	cases := []struct {
		err       error
		transient bool
	}{
		{errors.New("connection reset by peer"), true},
		{errors.New("rate limit exceeded"), true},
		{errors.New("invalid api key"), false},
		{nil, false},
	}

	for _, c := range cases {
		if got := isTransientOpenAIError(c.err); got != c.transient {
			t.Errorf("isTransientOpenAIError(%v) = %v, want %v", c.err, got, c.transient)
		}
	}
}

func TestConvertOpenAIMessagesHandlesAllRoles(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "be helpful"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}

	out := convertOpenAIMessages(messages)
	if len(out) != 3 {
		t.Fatalf("expected 3 converted messages, got %d", len(out))
	}
}
