package llm

import (
	"fmt"
	"sync"

	"github.com/kadirpekel/shesha/internal/config"
)

// Registry holds named Client instances, adapted from the teacher's
// LLMRegistry (pkg/llms/registry.go) without the BaseRegistry[T] generic
// helper: Shesha only ever registers LLM clients, so a plain map is
// sufficient.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// CreateFromConfig builds the provider named by cfg.Type, registers it
// under name, and returns it.
func (r *Registry) CreateFromConfig(name string, cfg config.LLMProviderConfig) (Client, error) {
	if name == "" {
		return nil, fmt.Errorf("llm: registry: name cannot be empty")
	}

	var client Client
	var err error

	switch cfg.Type {
	case "openai":
		client, err = NewOpenAIProvider(cfg)
	case "anthropic":
		client, err = NewAnthropicProvider(cfg)
	case "ollama":
		client, err = NewOllamaProvider(cfg)
	default:
		return nil, fmt.Errorf("llm: registry: unsupported type %q (supported: openai, anthropic, ollama)", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("llm: registry: create %s: %w", name, err)
	}

	r.mu.Lock()
	r.clients[name] = client
	r.mu.Unlock()

	return client, nil
}

// Get returns the client registered under name.
func (r *Registry) Get(name string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("llm: registry: no client registered as %q", name)
	}
	return client, nil
}

// Names returns all registered client names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}

// LoadAll builds and registers a Client for every entry in cfgs.
func (r *Registry) LoadAll(cfgs map[string]config.LLMProviderConfig) error {
	for name, cfg := range cfgs {
		if _, err := r.CreateFromConfig(name, cfg); err != nil {
			return err
		}
	}
	return nil
}
