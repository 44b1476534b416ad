package trace

import "sync"

// Usage accumulates prompt/completion token counts across the driver turn
// and every sub-LLM call for a single query. Counters are monotonically
// non-decreasing (spec.md invariant, Token Usage, section 3).
type Usage struct {
	mu               sync.Mutex
	promptTokens     int
	completionTokens int
}

// Add accumulates additional prompt/completion tokens.
func (u *Usage) Add(prompt, completion int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.promptTokens += prompt
	u.completionTokens += completion
}

// Snapshot returns the current totals.
func (u *Usage) Snapshot() (prompt, completion, total int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.promptTokens, u.completionTokens, u.promptTokens + u.completionTokens
}

// PromptTokens returns the current prompt token count.
func (u *Usage) PromptTokens() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.promptTokens
}

// CompletionTokens returns the current completion token count.
func (u *Usage) CompletionTokens() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.completionTokens
}

// Total returns prompt + completion tokens.
func (u *Usage) Total() int {
	p, c, _ := u.Snapshot()
	return p + c
}
