// Package google adapts Google's Gemini API to script.ChatModel.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/flowdag/flowdag/script"
)

// ChatModel implements script.ChatModel for Gemini models. Errors from the
// Gemini SDK, including its blocked-content errors, are returned wrapped
// with a "google:" prefix; a response with no candidate content yields an
// empty ChatOut. It never returns SafetyFilterError.
type ChatModel struct {
	apiKey    string
	modelName string
	client    chatClient
}

type chatClient interface {
	generateContent(ctx context.Context, messages []script.Message) (script.ChatOut, error)
}

// NewChatModel returns a ChatModel for modelName (default
// "gemini-2.5-flash" if empty).
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &ChatModel{
		apiKey:    apiKey,
		modelName: modelName,
		client:    &defaultClient{apiKey: apiKey, modelName: modelName},
	}
}

// Chat implements script.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []script.Message) (script.ChatOut, error) {
	if ctx.Err() != nil {
		return script.ChatOut{}, ctx.Err()
	}
	return m.client.generateContent(ctx, messages)
}

type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) generateContent(ctx context.Context, messages []script.Message) (script.ChatOut, error) {
	if c.apiKey == "" {
		return script.ChatOut{}, errors.New("google: API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return script.ChatOut{}, fmt.Errorf("google: creating client: %w", err)
	}
	defer client.Close()

	genModel := client.GenerativeModel(c.modelName)

	var parts []genai.Part
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		if msg.Role == script.RoleSystem {
			genModel.SystemInstruction = genai.NewUserContent(genai.Text(msg.Content))
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}

	resp, err := genModel.GenerateContent(ctx, parts...)
	if err != nil {
		return script.ChatOut{}, fmt.Errorf("google: %w", err)
	}
	return convertResponse(resp), nil
}

func convertResponse(resp *genai.GenerateContentResponse) script.ChatOut {
	out := script.ChatOut{}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += string(t)
		}
	}
	return out
}

// SafetyFilterError represents a Gemini safety filter block. Nothing in
// this package constructs or returns it.
type SafetyFilterError struct {
	Reason   string
	Category string
}

func (e *SafetyFilterError) Error() string {
	return "google: content blocked by safety filter: " + e.Category
}
