package script

import "context"

// ChatModel abstracts an LLM chat provider. LLMRuntime uses it to evaluate a
// transform body expressed as a natural-language instruction rather than
// code. Adapted from a langgraph node-execution abstraction of the same
// shape; trimmed to the parts LLMRuntime actually drives (no tool-calling,
// since operator bodies never need the model to invoke external tools).
type ChatModel interface {
	Chat(ctx context.Context, messages []Message) (ChatOut, error)
}

// Message is one turn of a chat conversation.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatOut is a chat completion's result, along with token usage for cost
// attribution.
type ChatOut struct {
	Text         string
	InputTokens  int
	OutputTokens int
}
