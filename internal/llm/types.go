// Package llm implements the driver LLM adapter contract from spec.md
// section 6: a Client exposes Complete(messages) and returns content plus
// token accounting. Concrete providers (OpenAI, Anthropic, Ollama) are thin
// non-streaming HTTP adapters; streaming token delivery from the driver LLM
// is an explicit Non-goal (spec.md section 1).
package llm

import "context"

// Message is one turn in a driver or sub-call conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// Response is what a Client returns for one completion.
type Response struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// TotalTokens returns PromptTokens + CompletionTokens.
func (r Response) TotalTokens() int {
	return r.PromptTokens + r.CompletionTokens
}

// Client is the external driver LLM adapter contract (spec.md section 6).
// The engine depends only on this interface; transport, retries, and
// provider-specific request shaping live behind it.
type Client interface {
	// Complete sends messages (conversation, including any system message)
	// to the model and returns its reply plus token accounting. Errors are
	// a DriverLLMError per spec.md section 7: the engine does not retry,
	// it propagates to its own caller.
	Complete(ctx context.Context, messages []Message) (Response, error)

	// Name identifies the provider/model for logs and traces.
	Name() string
}
