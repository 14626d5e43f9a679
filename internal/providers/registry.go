package providers

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Registry holds references to LLM clients. It supports config-driven
// instantiation and hot-reload, with thread-safe access.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]LLMClient
	defName string
	logger  *slog.Logger
}

// ClientConfig describes one configured LLM client.
type ClientConfig struct {
	Type        string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	RateLimit   float64
	MaxRetries  int
	TimeoutSecs int
	Enabled     bool
}

// RegistryConfig maps client names to their configuration.
type RegistryConfig struct {
	Clients map[string]ClientConfig
	Default string
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]LLMClient),
		logger:  slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register registers an LLM client by name.
func (r *Registry) Register(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	if r.defName == "" {
		r.defName = name
	}
	if r.logger != nil {
		r.logger.Info("registered LLM client", "name", name)
	}
}

// Get returns an LLM client by name.
func (r *Registry) Get(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// Default returns the default LLM client.
func (r *Registry) Default() (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defName == "" {
		return nil, fmt.Errorf("no LLM clients registered")
	}
	client, ok := r.clients[r.defName]
	if !ok {
		return nil, fmt.Errorf("default LLM client %s not registered", r.defName)
	}
	return client, nil
}

// List returns the names of registered clients.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}

// Reload replaces the registered clients from configuration. Unknown types
// are skipped with a warning rather than failing the reload.
func (r *Registry) Reload(cfg RegistryConfig) {
	clients := make(map[string]LLMClient, len(cfg.Clients))

	for name, cc := range cfg.Clients {
		if !cc.Enabled {
			continue
		}
		switch cc.Type {
		case OpenAIName:
			clients[name] = NewOpenAIClient(OpenAIConfig{
				APIKey:      cc.APIKey,
				BaseURL:     cc.BaseURL,
				Model:       cc.Model,
				Temperature: cc.Temperature,
				MaxTokens:   cc.MaxTokens,
				RateLimit:   cc.RateLimit,
				MaxRetries:  cc.MaxRetries,
				Timeout:     secsToDuration(cc.TimeoutSecs),
			})
		case MockClientName:
			clients[name] = NewMockClient()
		default:
			if r.logger != nil {
				r.logger.Warn("unknown LLM client type", "name", name, "type", cc.Type)
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients = clients
	r.defName = cfg.Default
	if r.defName == "" {
		for name := range clients {
			r.defName = name
			break
		}
	}
	if r.logger != nil {
		r.logger.Info("provider registry reloaded", "clients", len(clients), "default", r.defName)
	}
}

func secsToDuration(s int) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s) * time.Second
}
