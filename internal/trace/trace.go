// Package trace records the append-only, typed event log of everything
// that happens during a single query: see spec.md section 4.6 and the
// TraceStep data model in section 3.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// StepType enumerates the kinds of events the engine records.
type StepType string

const (
	CodeGenerated   StepType = "CODE_GENERATED"
	CodeOutput      StepType = "CODE_OUTPUT"
	SubcallRequest  StepType = "SUBCALL_REQUEST"
	SubcallResponse StepType = "SUBCALL_RESPONSE"
	Error           StepType = "ERROR"
	FinalAnswer     StepType = "FINAL_ANSWER"
)

// Step is a single, immutable trace entry.
type Step struct {
	Type        StepType  `json:"type"`
	Content     string    `json:"content"`
	Timestamp   float64   `json:"timestamp"`
	Iteration   int       `json:"iteration"`
	TokensUsed  int       `json:"tokens_used,omitempty"`
	DurationMS  int64     `json:"duration_ms,omitempty"`
	recordedAt  time.Time `json:"-"`
	hasTokens   bool
	hasDuration bool
}

// Trace is the append-only, insertion-ordered list of Steps for one query.
// Safe for concurrent use: sub-LLM callbacks triggered from the sandbox may
// race with the driver loop's own bookkeeping even though, per spec.md
// section 5, only one such callback is in flight at a time.
type Trace struct {
	mu    sync.Mutex
	steps []Step
}

// New returns an empty Trace.
func New() *Trace {
	return &Trace{}
}

// AddStep appends a new Step stamped with the current wall time and
// returns a copy of it. opts may set TokensUsed and/or DurationMS.
func (t *Trace) AddStep(stepType StepType, content string, iteration int, opts ...StepOption) Step {
	now := time.Now()
	step := Step{
		Type:       stepType,
		Content:    content,
		Timestamp:  float64(now.UnixNano()) / 1e9,
		Iteration:  iteration,
		recordedAt: now,
	}
	for _, opt := range opts {
		opt(&step)
	}

	t.mu.Lock()
	t.steps = append(t.steps, step)
	t.mu.Unlock()

	return step
}

// StepOption configures optional TraceStep fields.
type StepOption func(*Step)

// WithTokens attaches a token count to the step being recorded.
func WithTokens(n int) StepOption {
	return func(s *Step) {
		s.TokensUsed = n
		s.hasTokens = true
	}
}

// WithDuration attaches a wall-clock duration to the step being recorded.
func WithDuration(d time.Duration) StepOption {
	return func(s *Step) {
		s.DurationMS = d.Milliseconds()
		s.hasDuration = true
	}
}

// Steps returns a snapshot slice of all recorded steps, in insertion order.
func (t *Trace) Steps() []Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Step, len(t.steps))
	copy(out, t.steps)
	return out
}

// Len reports the number of recorded steps.
func (t *Trace) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.steps)
}

// MarshalJSON renders the trace as a JSON array of steps, for persisting a
// completed query's trace (SPEC_FULL.md supplemental feature 2).
func (t *Trace) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Steps())
}

// countingWriter tracks the number of bytes written through it, letting
// WriteTo report an accurate count alongside whatever json.Encoder writes.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteTo writes the trace to w as newline-delimited JSON, one object per
// step, implementing io.WriterTo so a completed query's trace can be
// persisted to a file or piped alongside the answer (SPEC_FULL.md
// supplemental feature 2). It reports the number of bytes written.
func (t *Trace) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	enc := json.NewEncoder(cw)
	for _, step := range t.Steps() {
		if err := enc.Encode(step); err != nil {
			return cw.n, fmt.Errorf("trace: write step: %w", err)
		}
	}
	return cw.n, nil
}
