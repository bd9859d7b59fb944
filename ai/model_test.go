package ai

import "testing"

func TestExtractSystemPromptSeparatesSystemMessages(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "be helpful"},
		{Role: RoleUser, Content: "hello"},
		{Role: RoleSystem, Content: "be terse"},
	}

	system, rest := extractSystemPrompt(messages)

	if system != "be helpful\n\nbe terse" {
		t.Errorf("unexpected combined system prompt: %q", system)
	}
	if len(rest) != 1 || rest[0].Role != RoleUser {
		t.Errorf("expected only the user message to remain, got %+v", rest)
	}
}

func TestExtractSystemPromptWithNoSystemMessages(t *testing.T) {
	messages := []Message{{Role: RoleUser, Content: "hi"}}

	system, rest := extractSystemPrompt(messages)

	if system != "" {
		t.Errorf("expected empty system prompt, got %q", system)
	}
	if len(rest) != 1 {
		t.Errorf("expected all messages preserved, got %d", len(rest))
	}
}
