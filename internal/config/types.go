// Package config loads and validates Shesha's YAML configuration: the
// engine's forcing-function knobs, the sandbox pool size, named LLM
// provider configs, and logging. Loading follows the teacher's koanf-based
// pattern (pkg/config/koanf_loader.go): a file provider, YAML parsing, and
// ${VAR} / ${VAR:-default} environment expansion before decode.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration document.
type Config struct {
	Engine      EngineConfig                 `yaml:"engine"`
	SandboxPool SandboxPoolConfig            `yaml:"sandbox_pool"`
	LLM         map[string]LLMProviderConfig `yaml:"llm"`
	Logging     LoggingConfig                `yaml:"logging"`
}

// EngineConfig holds the forcing-function knobs from spec.md sections 4.2
// and 4.7: the iteration bound, the per-block output truncation cap, and
// the sandbox execute timeout.
type EngineConfig struct {
	// MaxIterations bounds the number of driver-LLM completions per query
	// (spec.md invariant I4).
	MaxIterations int `yaml:"max_iterations"`

	// MaxOutputChars is the per-block truncation budget for sandbox output
	// echoed back into the conversation (spec.md section 4.2).
	MaxOutputChars int `yaml:"max_output_chars"`

	// ExecuteTimeout bounds a single sandbox execute call.
	ExecuteTimeout time.Duration `yaml:"execute_timeout"`

	// MaxSubcallResponseChars, if non-zero, truncates sub-LLM responses
	// returned to the sandbox with an advisory symmetric to
	// MaxOutputChars (SPEC_FULL.md supplemental feature 3). Zero disables
	// sub-call truncation: the response is returned verbatim, matching the
	// spec's documented default.
	MaxSubcallResponseChars int `yaml:"max_subcall_response_chars"`
}

// SetDefaults fills unset EngineConfig fields with spec.md's documented
// forcing-function values.
func (c *EngineConfig) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 20
	}
	if c.MaxOutputChars == 0 {
		c.MaxOutputChars = 20000
	}
	if c.ExecuteTimeout == 0 {
		c.ExecuteTimeout = 60 * time.Second
	}
}

// Validate checks EngineConfig invariants.
func (c *EngineConfig) Validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("engine.max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.MaxOutputChars <= 0 {
		return fmt.Errorf("engine.max_output_chars must be positive, got %d", c.MaxOutputChars)
	}
	if c.ExecuteTimeout <= 0 {
		return fmt.Errorf("engine.execute_timeout must be positive, got %s", c.ExecuteTimeout)
	}
	if c.MaxSubcallResponseChars < 0 {
		return fmt.Errorf("engine.max_subcall_response_chars must not be negative, got %d", c.MaxSubcallResponseChars)
	}
	return nil
}

// SandboxPoolConfig configures the bounded pool of pre-warmed sandbox
// clients (spec.md section 4.5).
type SandboxPoolConfig struct {
	// Size is the number of clients eagerly started by Pool.Start.
	Size int `yaml:"size"`

	// AllowOverflow permits Pool.Acquire to construct a client on demand
	// when the pool is empty. The spec treats this as pool elasticity, not
	// a correctness requirement.
	AllowOverflow bool `yaml:"allow_overflow"`

	// SandboxCommand is the argv used to spawn each sandbox's interpreter
	// runner process. Image provisioning itself is out of scope (spec.md
	// section 1); this only names how to exec an already-provisioned
	// runner binary.
	SandboxCommand []string `yaml:"sandbox_command"`
}

// SetDefaults fills unset SandboxPoolConfig fields.
func (c *SandboxPoolConfig) SetDefaults() {
	if c.Size == 0 {
		c.Size = 2
	}
}

// Validate checks SandboxPoolConfig invariants.
func (c *SandboxPoolConfig) Validate() error {
	if c.Size < 0 {
		return fmt.Errorf("sandbox_pool.size must not be negative, got %d", c.Size)
	}
	if len(c.SandboxCommand) == 0 {
		return fmt.Errorf("sandbox_pool.sandbox_command must name an executable")
	}
	return nil
}

// LLMProviderConfig configures one named driver or sub-call LLM provider,
// mirroring the teacher's LLMProviderConfig shape (pkg/config/llm.go)
// trimmed to what the external "complete(messages)" adapter contract
// (spec.md section 6) actually needs.
type LLMProviderConfig struct {
	// Type selects the provider implementation: "openai", "anthropic", or
	// "ollama".
	Type string `yaml:"type"`

	// Model is the provider-specific model identifier.
	Model string `yaml:"model"`

	// APIKey authenticates against the provider. Supports ${VAR} expansion
	// via the loader's environment pass.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// MaxTokens caps the provider's response length.
	MaxTokens int `yaml:"max_tokens"`

	// Timeout bounds a single HTTP round trip to the provider.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retry attempts the HTTP client makes on
	// retryable failures (internal/httpclient).
	MaxRetries int `yaml:"max_retries"`
}

// SetDefaults fills unset LLMProviderConfig fields.
func (c *LLMProviderConfig) SetDefaults() {
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// Validate checks LLMProviderConfig invariants.
func (c *LLMProviderConfig) Validate() error {
	switch c.Type {
	case "openai", "anthropic", "ollama":
	default:
		return fmt.Errorf("llm: unsupported type %q (supported: openai, anthropic, ollama)", c.Type)
	}
	if c.Model == "" {
		return fmt.Errorf("llm: model is required for provider type %q", c.Type)
	}
	return nil
}

// LoggingConfig configures internal/logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// SetDefaults fills unset LoggingConfig fields.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
}

// SetDefaults cascades defaults across the whole document.
func (c *Config) SetDefaults() {
	c.Engine.SetDefaults()
	c.SandboxPool.SetDefaults()
	c.Logging.SetDefaults()
	for name, llmCfg := range c.LLM {
		llmCfg.SetDefaults()
		c.LLM[name] = llmCfg
	}
}

// Validate checks the whole document section by section and returns the
// first error found, without checking the remaining sections (teacher
// pattern: pkg/config/config.go validates sub-objects independently and
// surfaces the first failure).
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if err := c.SandboxPool.Validate(); err != nil {
		return err
	}
	for name, llmCfg := range c.LLM {
		if err := llmCfg.Validate(); err != nil {
			return fmt.Errorf("llm[%s]: %w", name, err)
		}
	}
	return nil
}
