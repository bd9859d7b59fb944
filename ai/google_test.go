package ai

import (
	"context"
	"errors"
	"testing"
)

type mockGoogleClient struct {
	out      ChatOut
	err      error
	callArgs struct {
		messages []Message
		tools    []ToolSpec
	}
}

func (c *mockGoogleClient) generateContent(ctx context.Context, messages []Message, tools []ToolSpec) (ChatOut, error) {
	c.callArgs.messages = messages
	c.callArgs.tools = tools
	if c.err != nil {
		return ChatOut{}, c.err
	}
	return c.out, nil
}

func TestGoogleModelChatReturnsClientResponse(t *testing.T) {
	client := &mockGoogleClient{out: ChatOut{Text: "hello from gemini"}}
	m := &GoogleModel{client: client, modelName: "gemini-2.5-flash"}

	out, err := m.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Text != "hello from gemini" {
		t.Errorf("expected response text to pass through, got %q", out.Text)
	}
}

func TestGoogleModelChatTranslatesSafetyFilterError(t *testing.T) {
	client := &mockGoogleClient{err: &SafetyFilterError{reason: "blocked", category: "HARM_CATEGORY_HATE_SPEECH"}}
	m := &GoogleModel{client: client, modelName: "gemini-2.5-flash"}

	_, err := m.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)

	var safetyErr *SafetyFilterError
	if !errors.As(err, &safetyErr) {
		t.Fatalf("expected a SafetyFilterError, got %T: %v", err, err)
	}
	if safetyErr.Category() != "HARM_CATEGORY_HATE_SPEECH" {
		t.Errorf("expected category to be preserved, got %q", safetyErr.Category())
	}
}

func TestGoogleModelChatRejectsCancelledContext(t *testing.T) {
	m := &GoogleModel{client: &mockGoogleClient{}, modelName: "gemini-2.5-flash"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Chat(ctx, []Message{{Role: RoleUser, Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
}

func TestConvertGoogleSchemaExtractsPropertiesAndRequired(t *testing.T) {
	schema := map[string]interface{}{
		"properties": map[string]interface{}{
			"query": map[string]interface{}{"type": "string", "description": "the search query"},
		},
		"required": []interface{}{"query"},
	}

	result := convertGoogleSchema(schema)
	if result == nil {
		t.Fatal("expected a non-nil schema")
	}
	if len(result.Required) != 1 || result.Required[0] != "query" {
		t.Errorf("expected required=[query], got %v", result.Required)
	}
	if _, ok := result.Properties["query"]; !ok {
		t.Error("expected query property to be present")
	}
}
