// Package llm defines the generation-service boundary for the moss engine.
//
// The engine treats the language model as an opaque, unreliable collaborator:
// it receives an ordered message list plus options and returns raw text.
// All JSON extraction from that text happens defensively in the callers
// (see internal/jsonx); nothing in this package assumes well-formed output.
package llm

import "context"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a running dialogue. Messages are append-only:
// once part of a conversation they are never mutated.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Options control a single generation call.
type Options struct {
	// Temperature favors determinism when low. Zero means the provider
	// default; callers that need determinism pass an explicit small value.
	Temperature float64

	// MaxTokens caps the response length. Zero means provider default.
	MaxTokens int

	// JSONMode requests strict-JSON output when the provider supports it.
	// Callers still parse defensively: JSONMode is a hint, not a guarantee.
	JSONMode bool
}

// Generator produces model text from a message list.
//
// Implementations may be slow (seconds) and may return malformed output;
// both are normal. Implementations must honor context cancellation so an
// abandoned request stops in-flight calls.
type Generator interface {
	Generate(ctx context.Context, messages []Message, opts Options) (string, error)
}
