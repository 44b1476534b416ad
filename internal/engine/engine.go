// Package engine implements the RLM control loop (spec.md section 4.7):
// it drives the conversation with the external driver LLM, extracts and
// dispatches code to a sandbox, mediates sub-LLM callbacks, enforces the
// iteration bound and forcing functions, and returns a QueryResult. The
// iteration structure follows the teacher pack's own RLM control loop
// (other_examples: rand-recurse's Wrapper.ExecuteRLMWithConfig) rather
// than hector's own agent loop, which targets tool-calling, not a
// sandboxed REPL.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kadirpekel/shesha/internal/boundary"
	"github.com/kadirpekel/shesha/internal/codeblock"
	"github.com/kadirpekel/shesha/internal/llm"
	"github.com/kadirpekel/shesha/internal/observability"
	"github.com/kadirpekel/shesha/internal/prompt"
	"github.com/kadirpekel/shesha/internal/sandbox"
	"github.com/kadirpekel/shesha/internal/trace"
)

// MaxIterationsSentinel is the deterministic answer returned when a query
// exhausts max_iterations without a FINAL call (spec.md section 4.7,
// Termination conditions).
const MaxIterationsSentinel = "I was unable to reach a final answer within the allotted number of iterations."

// Config holds the engine's forcing-function knobs.
type Config struct {
	MaxIterations int

	// MaxOutputChars is the per-block truncation budget for sandbox
	// output echoed back into the conversation.
	MaxOutputChars int

	// ExecuteTimeout bounds a single sandbox execute call.
	ExecuteTimeout time.Duration

	// MaxSubcallResponseChars, if non-zero, truncates sub-LLM responses
	// symmetrically to MaxOutputChars before they are returned to the
	// sandbox (see DESIGN.md's resolution of spec.md's first Open
	// Question). Zero returns sub-LLM responses verbatim.
	MaxSubcallResponseChars int
}

// SandboxProvider hands the engine an exclusive sandbox client for the
// lifetime of one query and reclaims it afterward (spec.md section 4.5:
// "the core engine acquires at most one client per query").
type SandboxProvider interface {
	Acquire(ctx context.Context) (*sandbox.Client, error)
	Release(c *sandbox.Client)
	Discard(c *sandbox.Client)
}

// Engine ties together the prompt assembler, a driver LLM client, a
// sandbox provider, and a sub-LLM client into the control loop from
// spec.md section 4.7.
type Engine struct {
	cfg       Config
	assembler *prompt.Assembler
	driver    llm.Client
	subLLM    llm.Client
	sandboxes SandboxProvider
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New builds an Engine. driver answers the outer conversation; subLLM
// answers llm_query callbacks raised from inside the sandbox. They may be
// the same Client. metrics may be nil: every Metrics method is a no-op on
// a nil receiver, so the engine never branches on whether metrics are
// enabled.
func New(cfg Config, assembler *prompt.Assembler, driver, subLLM llm.Client, sandboxes SandboxProvider, metrics *observability.Metrics, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:       cfg,
		assembler: assembler,
		driver:    driver,
		subLLM:    subLLM,
		sandboxes: sandboxes,
		metrics:   metrics,
		logger:    logger.With("component", "engine"),
	}
}

// QueryResult is the outcome of one query (spec.md section 3).
type QueryResult struct {
	Answer        string
	Trace         *trace.Trace
	TokenUsage    *trace.Usage
	ExecutionTime time.Duration
}

// Query runs the full control loop over documents for question, returning
// a QueryResult. docNames is accepted alongside documents but is not read
// by the engine; the engine never inspects document content beyond its
// length.
func (e *Engine) Query(ctx context.Context, documents []string, question string, docNames []string) (QueryResult, error) {
	start := time.Now()
	tr := trace.New()
	usage := &trace.Usage{}

	tok := boundary.Generate()

	systemPrompt, err := e.assembler.RenderSystem(tok)
	if err != nil {
		return QueryResult{}, fmt.Errorf("engine: render system prompt: %w", err)
	}

	perDocSizes := make([]int, len(documents))
	totalChars := 0
	for i, d := range documents {
		perDocSizes[i] = len(d)
		totalChars += len(d)
	}
	contextMetadata, err := e.assembler.RenderContextMetadata(len(documents), totalChars, perDocSizes)
	if err != nil {
		return QueryResult{}, fmt.Errorf("engine: render context metadata: %w", err)
	}
	iterationZero, err := e.assembler.RenderIterationZero(question)
	if err != nil {
		return QueryResult{}, fmt.Errorf("engine: render iteration zero: %w", err)
	}

	conversation := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "assistant", Content: contextMetadata},
		{Role: "user", Content: iterationZero},
	}

	client, err := e.sandboxes.Acquire(ctx)
	if err != nil {
		return QueryResult{}, fmt.Errorf("engine: acquire sandbox: %w", err)
	}

	wrapped := make([]string, len(documents))
	for i, d := range documents {
		wrapped[i] = boundary.Wrap(d, tok)
	}
	if err := client.Setup(wrapped); err != nil {
		e.sandboxes.Discard(client)
		return QueryResult{}, fmt.Errorf("engine: sandbox setup: %w", err)
	}

	answer, queryErr := e.runLoop(ctx, client, tok, conversation, tr, usage)

	if queryErr != nil {
		e.sandboxes.Discard(client)
	} else {
		e.sandboxes.Release(client)
	}

	return QueryResult{
		Answer:        answer,
		Trace:         tr,
		TokenUsage:    usage,
		ExecutionTime: time.Since(start),
	}, queryErr
}

func (e *Engine) runLoop(ctx context.Context, client *sandbox.Client, tok boundary.Token, conversation []llm.Message, tr *trace.Trace, usage *trace.Usage) (string, error) {
	for iteration := 0; iteration < e.cfg.MaxIterations; iteration++ {
		llmStart := time.Now()
		resp, err := e.driver.Complete(ctx, conversation)
		if err != nil {
			e.metrics.RecordLLMError(ctx, e.driver.Name(), "driver")
			return "", fmt.Errorf("engine: driver llm: %w", err)
		}
		e.metrics.RecordLLMCall(ctx, e.driver.Name(), "driver", time.Since(llmStart), resp.PromptTokens, resp.CompletionTokens)
		usage.Add(resp.PromptTokens, resp.CompletionTokens)
		tr.AddStep(trace.CodeGenerated, resp.Content, iteration, trace.WithTokens(resp.TotalTokens()))

		blocks := codeblock.Extract(resp.Content)
		if len(blocks) == 0 {
			reminder, err := e.assembler.RenderCodeRequired()
			if err != nil {
				return "", fmt.Errorf("engine: render code required: %w", err)
			}
			conversation = append(conversation,
				llm.Message{Role: "assistant", Content: resp.Content},
				llm.Message{Role: "user", Content: reminder},
			)
			continue
		}

		answer, answered, echoes, err := e.executeBlocks(ctx, client, tok, blocks, iteration, tr, usage)
		if err != nil {
			return "", err
		}
		if answered {
			return answer, nil
		}

		conversation = append(conversation, llm.Message{Role: "assistant", Content: resp.Content})
		conversation = append(conversation, echoes...)

		continueReminder, err := e.assembler.RenderIterationContinue()
		if err != nil {
			return "", fmt.Errorf("engine: render iteration continue: %w", err)
		}
		conversation = append(conversation, llm.Message{Role: "user", Content: continueReminder})
	}

	e.logger.Info("max iterations reached without final answer", "max_iterations", e.cfg.MaxIterations)
	return MaxIterationsSentinel, nil
}

// executeBlocks runs each extracted code block in order against the
// sandbox, recording trace steps and building the per-block code echoes
// for the next conversation turn. It stops and reports the final answer
// as soon as any block produces one (spec.md section 4.7, step 3).
func (e *Engine) executeBlocks(ctx context.Context, client *sandbox.Client, tok boundary.Token, blocks []string, iteration int, tr *trace.Trace, usage *trace.Usage) (answer string, answered bool, echoes []llm.Message, err error) {
	handler := e.subLLMHandler(tok, iteration, tr, usage)

	for _, block := range blocks {
		execStart := time.Now()
		result, execErr := client.Execute(ctx, block, e.cfg.ExecuteTimeout, handler)
		duration := time.Since(execStart)
		if execErr != nil {
			e.metrics.RecordSandboxError(ctx)
			tr.AddStep(trace.Error, execErr.Error(), iteration)
			return "", false, nil, fmt.Errorf("engine: sandbox execute: %w", execErr)
		}
		e.metrics.RecordSandboxExecute(ctx, duration, result.Status)

		combined := combineOutput(result)
		truncated := codeblock.Truncate(combined, e.cfg.MaxOutputChars)
		tr.AddStep(trace.CodeOutput, truncated, iteration, trace.WithDuration(duration))

		echoes = append(echoes, llm.Message{
			Role:    "user",
			Content: e.assembler.FormatCodeEcho(block, truncated, tok),
		})

		if result.HasFinalAnswer {
			tr.AddStep(trace.FinalAnswer, result.FinalAnswer, iteration)
			return result.FinalAnswer, true, nil, nil
		}
		if result.HasFinalVar {
			tr.AddStep(trace.FinalAnswer, result.FinalValue, iteration)
			return result.FinalValue, true, nil, nil
		}
	}

	return "", false, echoes, nil
}

// combineOutput builds the combined stdout/stderr/error string per
// spec.md section 4.7, step 3: stderr and error are prefixed, and an
// entirely empty result becomes the literal "(no output)".
func combineOutput(result sandbox.ExecutionResult) string {
	var out string
	if result.Stdout != "" {
		out += result.Stdout
	}
	if result.Stderr != "" {
		if out != "" {
			out += "\n"
		}
		out += "STDERR:" + result.Stderr
	}
	if result.Err != "" {
		if out != "" {
			out += "\n"
		}
		out += "ERROR:" + result.Err
	}
	if out == "" {
		return "(no output)"
	}
	return out
}

// subLLMHandler returns the closure the sandbox client invokes for each
// llm_query callback (spec.md section 4.7, "Sub-LLM callback semantics").
func (e *Engine) subLLMHandler(tok boundary.Token, iteration int, tr *trace.Trace, usage *trace.Usage) sandbox.SubLLMHandler {
	return func(ctx context.Context, instruction, content string) (string, error) {
		wrapped := content
		if content != "" {
			wrapped = boundary.Wrap(content, tok)
		}

		tr.AddStep(trace.SubcallRequest, fmt.Sprintf("%s (content: %d chars)", instruction, len(content)), iteration)
		e.metrics.RecordSubcall(ctx)

		subPrompt, err := e.assembler.RenderSubcall(instruction, wrapped)
		if err != nil {
			tr.AddStep(trace.Error, err.Error(), iteration)
			return "", fmt.Errorf("engine: render subcall prompt: %w", err)
		}

		subStart := time.Now()
		resp, err := e.subLLM.Complete(ctx, []llm.Message{{Role: "user", Content: subPrompt}})
		if err != nil {
			e.metrics.RecordLLMError(ctx, e.subLLM.Name(), "sub")
			tr.AddStep(trace.Error, err.Error(), iteration)
			return "", err
		}
		e.metrics.RecordLLMCall(ctx, e.subLLM.Name(), "sub", time.Since(subStart), resp.PromptTokens, resp.CompletionTokens)
		usage.Add(resp.PromptTokens, resp.CompletionTokens)

		reply := resp.Content
		if e.cfg.MaxSubcallResponseChars > 0 {
			reply = codeblock.Truncate(reply, e.cfg.MaxSubcallResponseChars)
		}

		tr.AddStep(trace.SubcallResponse, reply, iteration, trace.WithTokens(resp.TotalTokens()))
		return reply, nil
	}
}
