// Command shesha runs Recursive Language Model queries against a set of
// documents, adapted from the teacher's cmd/hector CLI (kong subcommands,
// signal-driven shutdown, a loaded-config status banner) down to the
// surface this module actually exposes: no A2A server, no agent registry,
// no studio mode.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/shesha/internal/config"
	"github.com/kadirpekel/shesha/internal/document"
	"github.com/kadirpekel/shesha/internal/engine"
	"github.com/kadirpekel/shesha/internal/llm"
	"github.com/kadirpekel/shesha/internal/logger"
	"github.com/kadirpekel/shesha/internal/observability"
	"github.com/kadirpekel/shesha/internal/prompt"
	"github.com/kadirpekel/shesha/internal/sandbox"
	"github.com/kadirpekel/shesha/internal/trace"
)

// driverLLMName and subLLMName are the conventional keys under the config
// document's llm map. A config with only "driver" defined uses it for both
// roles.
const (
	driverLLMName = "driver"
	subLLMName    = "sub"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Query    QueryCmd    `cmd:"" help:"Run a single RLM query against one or more documents."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`

	Config string `short:"c" help:"Path to config file." type:"path" default:"shesha.yaml"`
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("shesha version %s\n", version)
	return nil
}

// ValidateCmd loads and validates a config file without running anything.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	if _, err := config.NewLoader().Load(cli.Config); err != nil {
		return err
	}
	fmt.Printf("%s is valid\n", cli.Config)
	return nil
}

// QueryCmd runs one RLM query.
type QueryCmd struct {
	Question    string   `arg:"" help:"The question to answer."`
	Docs        []string `name:"doc" help:"Path to a document to load as context. Repeatable." placeholder:"PATH"`
	Metrics     bool     `help:"Expose a /metrics endpoint for the duration of the query."`
	MetricsPort int      `name:"metrics-port" help:"Port for --metrics." default:"9090"`
	TraceOut    string   `name:"trace-out" help:"Path to persist the query's step trace as newline-delimited JSON." type:"path" placeholder:"PATH"`
}

func (c *QueryCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	cfg, err := config.NewLoader().Load(cli.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	metrics, err := observability.New(observability.Config{Enabled: c.Metrics})
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	if c.Metrics {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: fmt.Sprintf(":%d", c.MetricsPort), Handler: mux}
		go func() {
			log.Info("metrics endpoint listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", "error", err)
			}
		}()
		defer srv.Close()
	}

	registry := llm.NewRegistry()
	if err := registry.LoadAll(cfg.LLM); err != nil {
		return fmt.Errorf("load llm providers: %w", err)
	}
	driver, err := registry.Get(driverLLMName)
	if err != nil {
		return fmt.Errorf("llm config must define a %q provider: %w", driverLLMName, err)
	}
	sub, err := registry.Get(subLLMName)
	if err != nil {
		log.Debug("no dedicated sub-call provider configured, reusing driver", "error", err)
		sub = driver
	}

	pool := sandbox.NewPool(cfg.SandboxPool.SandboxCommand, cfg.SandboxPool.Size, cfg.SandboxPool.AllowOverflow, log)
	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("start sandbox pool: %w", err)
	}
	defer pool.Stop()

	assembler, err := prompt.New()
	if err != nil {
		return fmt.Errorf("load prompt templates: %w", err)
	}

	e := engine.New(engine.Config{
		MaxIterations:           cfg.Engine.MaxIterations,
		MaxOutputChars:          cfg.Engine.MaxOutputChars,
		ExecuteTimeout:          cfg.Engine.ExecuteTimeout,
		MaxSubcallResponseChars: cfg.Engine.MaxSubcallResponseChars,
	}, assembler, driver, sub, pool, metrics, log)

	docs, names, err := loadDocuments(c.Docs)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	start := time.Now()
	result, err := e.Query(ctx, docs, c.Question, names)
	outcome := "ok"
	iterations := 0
	if err != nil {
		outcome = "error"
	}
	if result.Trace != nil {
		if all := result.Trace.Steps(); len(all) > 0 {
			iterations = all[len(all)-1].Iteration + 1
		}
	}
	metrics.RecordQuery(ctx, time.Since(start), iterations, outcome)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	if c.TraceOut != "" {
		if err := writeTrace(c.TraceOut, result.Trace); err != nil {
			return fmt.Errorf("write trace: %w", err)
		}
	}

	fmt.Println(result.Answer)

	promptTokens, completionTokens, totalTokens := result.TokenUsage.Snapshot()
	log.Info("query complete",
		"duration", result.ExecutionTime,
		"prompt_tokens", promptTokens,
		"completion_tokens", completionTokens,
		"total_tokens", totalTokens,
		"steps", result.Trace.Len(),
	)

	return nil
}

// writeTrace persists tr to path as newline-delimited JSON via
// trace.Trace.WriteTo, one step object per line.
func writeTrace(path string, tr *trace.Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = tr.WriteTo(f)
	return err
}

// loadDocuments reads each path as a document.Parsed, inferring Format
// from the file extension.
func loadDocuments(paths []string) ([]string, []string, error) {
	contents := make([]string, 0, len(paths))
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", p, err)
		}
		doc := document.New(filepath.Base(p), string(raw), filepath.Ext(p), nil)
		contents = append(contents, doc.Content)
		names = append(names, doc.Name)
	}
	return contents, names, nil
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("shesha"),
		kong.Description("Shesha - Recursive Language Model query engine"),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
