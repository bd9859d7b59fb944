package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicModel implements ChatModel against Claude (spec §6, grounded on
// teacher graph/model/anthropic).
type AnthropicModel struct {
	apiKey    string
	modelName string
}

// NewAnthropicModel builds an AnthropicModel. An empty modelName defaults
// to claude-sonnet-4-5.
func NewAnthropicModel(apiKey, modelName string) *AnthropicModel {
	if modelName == "" {
		modelName = "claude-sonnet-4-5-20250929"
	}
	return &AnthropicModel{apiKey: apiKey, modelName: modelName}
}

func (m *AnthropicModel) Chat(ctx context.Context, messages []Message, tools []ToolSpec) (ChatOut, error) {
	if m.apiKey == "" {
		return ChatOut{}, errors.New("ai: anthropic api key is required")
	}
	if err := ctx.Err(); err != nil {
		return ChatOut{}, err
	}

	system, conversation := extractSystemPrompt(messages)
	client := anthropicsdk.NewClient(option.WithAPIKey(m.apiKey))

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(m.modelName),
		Messages:  convertAnthropicMessages(conversation),
		MaxTokens: 4096,
	}
	if system != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: system}}
	}
	if len(tools) > 0 {
		params.Tools = convertAnthropicTools(tools)
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return ChatOut{}, fmt.Errorf("ai: anthropic: %w", err)
	}

	out := ChatOut{}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Text += block.Text
		case "tool_use":
			var input map[string]interface{}
			if err := json.Unmarshal(block.Input, &input); err != nil {
				return ChatOut{}, fmt.Errorf("ai: anthropic: decode tool input: %w", err)
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{Name: block.Name, Input: input})
		}
	}
	return out, nil
}

func convertAnthropicMessages(messages []Message) []anthropicsdk.MessageParam {
	out := make([]anthropicsdk.MessageParam, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			out[i] = anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(msg.Content))
		default:
			out[i] = anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(msg.Content))
		}
	}
	return out
}

func convertAnthropicTools(tools []ToolSpec) []anthropicsdk.ToolUnionParam {
	out := make([]anthropicsdk.ToolUnionParam, len(tools))
	for i, t := range tools {
		var properties any
		if t.Schema != nil {
			properties = t.Schema["properties"]
		}
		out[i] = anthropicsdk.ToolUnionParamOfTool(anthropicsdk.ToolInputSchemaParam{
			Properties: properties,
		}, t.Name)
	}
	return out
}
