// Package observability wires Shesha's engine into OpenTelemetry metric
// instruments exported over Prometheus, adapted from the teacher's
// pkg/observability package. The teacher also wires OTLP span export
// (pkg/observability/tracer.go); that exporter pulls in
// otlptracegrpc and a semconv package the rest of this pack never touches,
// and Shesha already has a per-query structured trace.Trace that narrates
// a run step by step, so adding span export on top would duplicate that
// narrative without a new consumer (see DESIGN.md). Metrics, which answer
// a different question — aggregate behavior across many queries — are
// kept and scoped to what the engine actually emits: driver/sub-LLM calls,
// sandbox executions, and iteration counts, rather than the teacher's full
// agent/tool/RAG/session surface, which Shesha has no equivalent of.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Config controls whether metrics collection is active and how it's
// namespaced.
type Config struct {
	Enabled   bool   `yaml:"enabled,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
}

// SetDefaults applies Config defaults.
func (c *Config) SetDefaults() {
	if c.Namespace == "" {
		c.Namespace = "shesha"
	}
}

// Metrics holds the engine's OpenTelemetry instruments, backed by a
// Prometheus registry. A nil *Metrics is valid and every Record* method is
// a no-op on it, so callers don't need to branch on whether metrics are
// enabled.
type Metrics struct {
	registry *prometheus.Registry

	queries          metric.Int64Counter
	queryDuration    metric.Float64Histogram
	queryIterations  metric.Int64Histogram
	llmCalls         metric.Int64Counter
	llmDuration      metric.Float64Histogram
	llmTokensInput   metric.Int64Counter
	llmTokensOutput  metric.Int64Counter
	llmErrors        metric.Int64Counter
	sandboxExecs     metric.Int64Counter
	sandboxErrors    metric.Int64Counter
	sandboxDuration  metric.Float64Histogram
	subcalls         metric.Int64Counter
}

// New builds a Metrics instance from cfg, or returns (nil, nil) when
// metrics are disabled.
func New(cfg Config) (*Metrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	cfg.SetDefaults()

	registry := prometheus.NewRegistry()
	exporter, err := otelprometheus.New(
		otelprometheus.WithNamespace(cfg.Namespace),
		otelprometheus.WithRegisterer(registry),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: new prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("shesha/engine")

	m := &Metrics{registry: registry}

	if m.queries, err = meter.Int64Counter("queries_total", metric.WithDescription("Total number of RLM queries run")); err != nil {
		return nil, err
	}
	if m.queryDuration, err = meter.Float64Histogram("query_duration_seconds", metric.WithDescription("Query wall-clock duration")); err != nil {
		return nil, err
	}
	if m.queryIterations, err = meter.Int64Histogram("query_iterations", metric.WithDescription("Control-loop iterations consumed per query")); err != nil {
		return nil, err
	}
	if m.llmCalls, err = meter.Int64Counter("llm_calls_total", metric.WithDescription("Total LLM completion calls")); err != nil {
		return nil, err
	}
	if m.llmDuration, err = meter.Float64Histogram("llm_call_duration_seconds", metric.WithDescription("LLM completion call duration")); err != nil {
		return nil, err
	}
	if m.llmTokensInput, err = meter.Int64Counter("llm_tokens_input_total", metric.WithDescription("Prompt tokens consumed")); err != nil {
		return nil, err
	}
	if m.llmTokensOutput, err = meter.Int64Counter("llm_tokens_output_total", metric.WithDescription("Completion tokens generated")); err != nil {
		return nil, err
	}
	if m.llmErrors, err = meter.Int64Counter("llm_errors_total", metric.WithDescription("LLM completion call errors")); err != nil {
		return nil, err
	}
	if m.sandboxExecs, err = meter.Int64Counter("sandbox_executions_total", metric.WithDescription("Sandbox code block executions")); err != nil {
		return nil, err
	}
	if m.sandboxErrors, err = meter.Int64Counter("sandbox_errors_total", metric.WithDescription("Sandbox execute channel errors")); err != nil {
		return nil, err
	}
	if m.sandboxDuration, err = meter.Float64Histogram("sandbox_execute_duration_seconds", metric.WithDescription("Sandbox execute call duration")); err != nil {
		return nil, err
	}
	if m.subcalls, err = meter.Int64Counter("subcalls_total", metric.WithDescription("llm_query sub-LLM callbacks")); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordQuery records one completed query's duration and iteration count.
func (m *Metrics) RecordQuery(ctx context.Context, duration time.Duration, iterations int, outcome string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attrString("outcome", outcome))
	m.queries.Add(ctx, 1, attrs)
	m.queryDuration.Record(ctx, duration.Seconds(), attrs)
	m.queryIterations.Record(ctx, int64(iterations), attrs)
}

// RecordLLMCall records one driver or sub-LLM completion call.
func (m *Metrics) RecordLLMCall(ctx context.Context, provider, role string, duration time.Duration, promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attrString("provider", provider), attrString("role", role))
	m.llmCalls.Add(ctx, 1, attrs)
	m.llmDuration.Record(ctx, duration.Seconds(), attrs)
	m.llmTokensInput.Add(ctx, int64(promptTokens), attrs)
	m.llmTokensOutput.Add(ctx, int64(completionTokens), attrs)
}

// RecordLLMError records a failed LLM completion call.
func (m *Metrics) RecordLLMError(ctx context.Context, provider, role string) {
	if m == nil {
		return
	}
	m.llmErrors.Add(ctx, 1, metric.WithAttributes(attrString("provider", provider), attrString("role", role)))
}

// RecordSandboxExecute records one sandbox execute call.
func (m *Metrics) RecordSandboxExecute(ctx context.Context, duration time.Duration, status string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attrString("status", status))
	m.sandboxExecs.Add(ctx, 1, attrs)
	m.sandboxDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordSandboxError records a sandbox channel error (a dead or
// desynchronized subprocess).
func (m *Metrics) RecordSandboxError(ctx context.Context) {
	if m == nil {
		return
	}
	m.sandboxErrors.Add(ctx, 1)
}

// RecordSubcall records one llm_query callback from inside the sandbox.
func (m *Metrics) RecordSubcall(ctx context.Context) {
	if m == nil {
		return
	}
	m.subcalls.Add(ctx, 1)
}

// Handler returns the Prometheus scrape endpoint handler. On a nil
// Metrics it answers 503, so wiring it unconditionally into an HTTP mux is
// safe even when metrics are disabled.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func attrString(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}
