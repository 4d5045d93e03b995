package config

import "time"

// Config holds studio configuration.
// Stored at: ~/.ebookstudio/config.yaml
type Config struct {
	TextProviders map[string]TextProviderCfg `mapstructure:"text_providers" yaml:"text_providers"`
	ImageBackend  ImageBackendCfg            `mapstructure:"image_backend" yaml:"image_backend"`
	Defaults      DefaultsCfg                `mapstructure:"defaults" yaml:"defaults"`
	Retry         RetryCfg                   `mapstructure:"retry" yaml:"retry"`
	Summary       SummaryCfg                 `mapstructure:"summary" yaml:"summary"`
	Notifications NotificationsCfg           `mapstructure:"notifications" yaml:"notifications"`
	Upload        UploadCfg                  `mapstructure:"upload" yaml:"upload"`
	LLMCalls      LLMCallsCfg                `mapstructure:"llmcalls" yaml:"llmcalls"`
}

// TextProviderCfg configures a text generation provider.
type TextProviderCfg struct {
	Type        string  `mapstructure:"type" yaml:"type"`         // "gemini", "openai"
	Model       string  `mapstructure:"model" yaml:"model"`       // Model name
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`   // API key (supports ${ENV_VAR} syntax)
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"` // Optional endpoint override
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	RateLimit   float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per minute
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
}

// ImageBackendCfg configures the local image backend.
type ImageBackendCfg struct {
	URL       string        `mapstructure:"url" yaml:"url"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per minute
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`

	// Managed starts the backend in Docker on serve.
	Managed       bool   `mapstructure:"managed" yaml:"managed"`
	Image         string `mapstructure:"image" yaml:"image"`
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	Port          string `mapstructure:"port" yaml:"port"`
	GPU           bool   `mapstructure:"gpu" yaml:"gpu"`
	CachePath     string `mapstructure:"cache_path" yaml:"cache_path"`
}

// DefaultsCfg specifies default provider selections.
type DefaultsCfg struct {
	TextProvider string `mapstructure:"text_provider" yaml:"text_provider"`
}

// RetryCfg configures the retry wrapper around generation calls.
type RetryCfg struct {
	MaxRetries   uint          `mapstructure:"max_retries" yaml:"max_retries"`
	InitialDelay time.Duration `mapstructure:"initial_delay" yaml:"initial_delay"`
}

// SummaryCfg configures the summary service.
type SummaryCfg struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// NotificationsCfg configures banner lifetimes.
type NotificationsCfg struct {
	ErrorTTL   time.Duration `mapstructure:"error_ttl" yaml:"error_ttl"`
	SuccessTTL time.Duration `mapstructure:"success_ttl" yaml:"success_ttl"`
}

// UploadCfg limits user uploads.
type UploadCfg struct {
	MaxBytes int64 `mapstructure:"max_bytes" yaml:"max_bytes"`
}

// LLMCallsCfg sizes the in-memory call log.
type LLMCallsCfg struct {
	Capacity int `mapstructure:"capacity" yaml:"capacity"`
}

// GetTextProvider returns a text provider config by name.
func (c *Config) GetTextProvider(name string) (TextProviderCfg, bool) {
	cfg, ok := c.TextProviders[name]
	return cfg, ok
}

// EnabledTextProviders returns all enabled text providers.
func (c *Config) EnabledTextProviders() map[string]TextProviderCfg {
	result := make(map[string]TextProviderCfg)
	for name, cfg := range c.TextProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
