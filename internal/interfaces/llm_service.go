package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation.
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for plain-text language model calls used
// by the extraction and accuracy-scoring paths. Implementations may use any
// cloud provider; callers must treat failures as recoverable and fall back
// to deterministic behavior.
type LLMService interface {
	// Chat generates a completion for the conversation history. The
	// messages slice should contain the full context in chronological
	// order, including system prompts.
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the service can handle requests.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the client.
	Close() error
}
