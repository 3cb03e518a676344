package llm

import (
	"context"
)

// Provider is the core abstraction for text-completion calls.
// Consumers build a Request and receive the provider's raw text output.
type Provider interface {
	// Generate sends a prompt to the LLM and returns its response.
	// When the request's Schema is set, the provider asks for JSON output
	// through its native structured-output mechanism. The content is not
	// validated here; interpreting it is the caller's job.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system instruction. Sets the tutor's role and rules.
	System string

	// Messages is the conversation, oldest first. The last message is
	// normally the learner's new utterance.
	Messages []Message

	// Schema, when set, requests JSON output of this shape.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies this schema. Kebab-case, e.g. "english-lesson".
	Name string

	// Description is sent to the provider to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the LLM's output.
type Response struct {
	// Text is the generated output, exactly as the provider returned it.
	// Empty when generation was blocked or produced nothing.
	Text string

	// BlockReason is set when the provider refused to generate for safety
	// reasons. Normalized to the provider's own reason string.
	BlockReason string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "safety", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Blocked reports whether the provider refused the request on safety grounds.
func (r *Response) Blocked() bool {
	return r != nil && r.BlockReason != ""
}
