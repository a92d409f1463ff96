// Package anthropic adapts Anthropic's Messages API to script.ChatModel.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/flowdag/flowdag/script"
)

// ChatModel implements script.ChatModel for Claude models.
type ChatModel struct {
	apiKey    string
	modelName string
	client    chatClient
}

type chatClient interface {
	createMessage(ctx context.Context, systemPrompt string, messages []script.Message) (script.ChatOut, error)
}

// NewChatModel returns a ChatModel for modelName (default
// "claude-sonnet-4-5-20250929" if empty).
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "claude-sonnet-4-5-20250929"
	}
	return &ChatModel{
		apiKey:    apiKey,
		modelName: modelName,
		client:    &defaultClient{apiKey: apiKey, modelName: modelName},
	}
}

// Chat implements script.ChatModel. Anthropic takes the system prompt as a
// separate request parameter, so system messages are extracted from the
// conversation before the call.
func (m *ChatModel) Chat(ctx context.Context, messages []script.Message) (script.ChatOut, error) {
	if ctx.Err() != nil {
		return script.ChatOut{}, ctx.Err()
	}
	systemPrompt, rest := extractSystemPrompt(messages)
	return m.client.createMessage(ctx, systemPrompt, rest)
}

func extractSystemPrompt(messages []script.Message) (string, []script.Message) {
	var system string
	var rest []script.Message
	for _, msg := range messages {
		if msg.Role == script.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return system, rest
}

type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) createMessage(ctx context.Context, systemPrompt string, messages []script.Message) (script.ChatOut, error) {
	if c.apiKey == "" {
		return script.ChatOut{}, errors.New("anthropic: API key is required")
	}

	client := anthropicsdk.NewClient(option.WithAPIKey(c.apiKey))

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(c.modelName),
		Messages:  convertMessages(messages),
		MaxTokens: 4096,
	}
	if systemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return script.ChatOut{}, fmt.Errorf("anthropic: %w", err)
	}
	return convertResponse(resp), nil
}

func convertMessages(messages []script.Message) []anthropicsdk.MessageParam {
	result := make([]anthropicsdk.MessageParam, len(messages))
	for i, msg := range messages {
		if msg.Role == script.RoleAssistant {
			result[i] = anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(msg.Content))
		} else {
			result[i] = anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(msg.Content))
		}
	}
	return result
}

func convertResponse(resp *anthropicsdk.Message) script.ChatOut {
	out := script.ChatOut{
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}
	for _, block := range resp.Content {
		if b, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += b.Text
		}
	}
	return out
}
