package config

// Config holds fieldlens configuration.
// Stored at: {storage_root}/config.yaml
type Config struct {
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Extraction   ExtractionCfg             `mapstructure:"extraction" yaml:"extraction"`
	Sessions     SessionsCfg               `mapstructure:"sessions" yaml:"sessions"`
	Uploads      UploadsCfg                `mapstructure:"uploads" yaml:"uploads"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type        string  `mapstructure:"type" yaml:"type"`                       // "openai", "mock"
	Model       string  `mapstructure:"model" yaml:"model"`                     // Model name
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`                 // API key (supports ${ENV_VAR} syntax)
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`               // Override for OpenAI-compatible endpoints
	RateLimit   float64 `mapstructure:"rate_limit" yaml:"rate_limit"`           // Requests per second
	MaxRetries  int     `mapstructure:"max_retries" yaml:"max_retries"`         // Transport-level retries
	TimeoutSecs int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"` // Per-request timeout
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
}

// ExtractionCfg tunes the extraction workflow.
type ExtractionCfg struct {
	Temperature         float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens           int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
}

// SessionsCfg tunes session storage.
type SessionsCfg struct {
	// TTLMinutes is how long an idle session lives before expiry.
	TTLMinutes int `mapstructure:"ttl_minutes" yaml:"ttl_minutes"`
}

// UploadsCfg tunes document uploads.
type UploadsCfg struct {
	// MaxSizeMB caps the accepted PDF size.
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
}

// DefaultsCfg specifies default provider selections.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"` // Default LLM provider
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: 8385,
		},
		LLMProviders: map[string]LLMProviderCfg{
			"openai": {
				Type:        "openai",
				Model:       "gpt-4o",
				APIKey:      "${OPENAI_API_KEY}",
				RateLimit:   4.0,
				MaxRetries:  3,
				TimeoutSecs: 120,
				Enabled:     true,
			},
		},
		Extraction: ExtractionCfg{
			Temperature:         0.1,
			MaxTokens:           4096,
			ConfidenceThreshold: 0.7,
		},
		Sessions: SessionsCfg{
			TTLMinutes: 120,
		},
		Uploads: UploadsCfg{
			MaxSizeMB: 50,
		},
		Defaults: DefaultsCfg{
			LLMProvider: "openai",
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
