package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/kadirpekel/shesha/internal/llm"
)

// scriptedClient replays a fixed sequence of replies, one per Complete
// call, looping on the last entry if Complete is called more times than
// the script has entries. It records every conversation it was given.
type scriptedClient struct {
	mu      sync.Mutex
	replies []string
	calls   int
	seen    [][]llm.Message
}

func newScriptedClient(replies ...string) *scriptedClient {
	return &scriptedClient{replies: replies}
}

func (c *scriptedClient) Complete(ctx context.Context, messages []llm.Message) (llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.calls
	if idx >= len(c.replies) {
		idx = len(c.replies) - 1
	}
	c.calls++
	c.seen = append(c.seen, messages)

	return llm.Response{Content: c.replies[idx], PromptTokens: 10, CompletionTokens: 5}, nil
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// constantClient always returns the same reply, used as a stand-in
// sub-LLM for scenarios where only the driver's behavior is under test.
type constantClient struct {
	reply string
}

func (c *constantClient) Complete(ctx context.Context, messages []llm.Message) (llm.Response, error) {
	return llm.Response{Content: c.reply, PromptTokens: 1, CompletionTokens: 1}, nil
}

func (c *constantClient) Name() string { return "constant" }

// erroringClient always fails, used to exercise DriverLLMError
// propagation.
type erroringClient struct{}

func (c *erroringClient) Complete(ctx context.Context, messages []llm.Message) (llm.Response, error) {
	return llm.Response{}, fmt.Errorf("upstream unavailable")
}

func (c *erroringClient) Name() string { return "erroring" }
